package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var (
	ingestRecursive bool
	ingestWatch     bool
)

// watchDebounce coalesces rapid filesystem events into one re-ingestion.
const watchDebounce = 500 * time.Millisecond

var ingestCmd = &cobra.Command{
	Use:   "ingest [folder]",
	Short: "Ingest documents from a folder",
	Long: `Parses every supported document (PDF, DOCX, XLSX, TXT, MD) under the
folder and persists the resulting chunks and headings. Files already
ingested at the same relative path are skipped.

With --watch, the folder is re-ingested whenever files change.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestRecursive, "recursive", "r", true, "descend into subdirectories")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest on filesystem changes")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	folder := args[0]
	ctx := cmd.Context()

	if err := ingestOnce(ctx, cmd, folder); err != nil {
		return err
	}

	if !ingestWatch {
		return nil
	}

	cmd.Println(faintStyle.Render("Watching for changes. Press Ctrl+C to stop."))
	return watchFolder(ctx, cmd, folder)
}

func ingestOnce(ctx context.Context, cmd *cobra.Command, folder string) error {
	stats, err := ingestService.IngestFolder(ctx, folder, ingestRecursive)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("%s %d files: %d ingested, %d skipped, %d failed\n",
		labelStyle.Render("Ingested"),
		stats.TotalFiles, stats.Successful, stats.Skipped, stats.Failed)
	return nil
}

// watchFolder blocks, re-ingesting the folder whenever its contents
// change. New subdirectories are added to the watch set as they appear.
func watchFolder(ctx context.Context, cmd *cobra.Command, folder string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, folder); err != nil {
		return err
	}

	trigger := make(chan struct{}, 1)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Create != 0 && ingestRecursive {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						watcher.Add(event.Name) //nolint:errcheck // Best-effort watch
					}
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
					select {
					case trigger <- struct{}{}:
					default:
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				cmd.PrintErrln(errorStyle.Render(fmt.Sprintf("watch error: %v", err)))
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-trigger:
			// Let a burst of events settle before re-ingesting.
			time.Sleep(watchDebounce)
			for {
				select {
				case <-trigger:
					continue
				default:
				}
				break
			}
			if err := ingestOnce(ctx, cmd, folder); err != nil {
				cmd.PrintErrln(errorStyle.Render(err.Error()))
			}
		}
	}
}

// addWatchDirs registers the folder and, in recursive mode, every
// subdirectory with the watcher.
func addWatchDirs(watcher *fsnotify.Watcher, folder string) error {
	if !ingestRecursive {
		if err := watcher.Add(folder); err != nil {
			return fmt.Errorf("watching %s: %w", folder, err)
		}
		return nil
	}

	return filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := watcher.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
		}
		return nil
	})
}
