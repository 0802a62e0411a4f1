package parser

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

var _ driven.Parser = (*DOCXParser)(nil)

// DOCXParser handles .docx files by reading word/document.xml from the
// OOXML archive directly.
type DOCXParser struct {
	chunks ChunkConfig
}

// NewDOCXParser creates a DOCX parser.
func NewDOCXParser(chunks ChunkConfig) *DOCXParser {
	return &DOCXParser{chunks: chunks.withDefaults()}
}

// FileType returns the format this parser handles.
func (p *DOCXParser) FileType() domain.FileType {
	return domain.FileTypeDOCX
}

// documentXML mirrors the parts of word/document.xml we consume.
// Paragraphs and tables are decoded separately; paragraphs keep their
// document order, tables are appended after them.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
		Tables     []docxTable     `xml:"tbl"`
	} `xml:"body"`
}

type docxParagraph struct {
	Props struct {
		Style struct {
			Val string `xml:"val,attr"`
		} `xml:"pStyle"`
	} `xml:"pPr"`
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

type docxTable struct {
	Rows []docxTableRow `xml:"tr"`
}

type docxTableRow struct {
	Cells []docxTableCell `xml:"tc"`
}

type docxTableCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

// coreXML mirrors docProps/core.xml.
type coreXML struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
	Subject string `xml:"subject"`
}

// Parse extracts paragraphs, headings and table rows from the document.
func (p *DOCXParser) Parse(ctx context.Context, path string) (*domain.ParsedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("Parsing DOCX: %s", path)

	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s as archive: %v", domain.ErrInvalidInput, path, err)
	}
	defer reader.Close()

	var docXML documentXML
	if err := readZipXML(&reader.Reader, "word/document.xml", &docXML); err != nil {
		return nil, err
	}

	metadata := map[string]any{}
	var core coreXML
	if err := readZipXML(&reader.Reader, "docProps/core.xml", &core); err == nil {
		metadata["title"] = core.Title
		metadata["author"] = core.Creator
		metadata["subject"] = core.Subject
	}

	doc, err := newDocument(path, domain.FileTypeDOCX, metadata)
	if err != nil {
		return nil, err
	}

	fileName := filepath.Base(path)
	now := time.Now().UTC()

	var chunks []domain.Chunk
	var headings []domain.Heading

	for paraIdx, para := range docXML.Body.Paragraphs {
		text := strings.TrimSpace(paragraphText(para))
		if text == "" {
			continue
		}

		section := fmt.Sprintf("para_%d", paraIdx)
		citation := domain.Citation{FilePath: fileName, Section: section}.String()

		if level, ok := headingLevel(para.Props.Style.Val); ok {
			headings = append(headings, domain.Heading{
				ID:       uuid.New().String(),
				Level:    level,
				Text:     text,
				Location: section,
			})
			chunks = append(chunks, domain.Chunk{
				ID:       uuid.New().String(),
				Position: len(chunks),
				Text:     text,
				Type:     domain.ChunkTypeHeading,
				Citation: citation,
				Metadata: map[string]any{
					"paragraph_index": paraIdx,
					"heading_level":   level,
				},
				CreatedAt: now,
			})
			continue
		}

		for _, piece := range chunkText(text, p.chunks.Size, p.chunks.Overlap) {
			chunks = append(chunks, domain.Chunk{
				ID:       uuid.New().String(),
				Position: len(chunks),
				Text:     piece,
				Type:     domain.ChunkTypeParagraph,
				Citation: citation,
				Metadata: map[string]any{
					"paragraph_index": paraIdx,
				},
				CreatedAt: now,
			})
		}
	}

	for tableIdx, table := range docXML.Body.Tables {
		chunks = append(chunks, tableChunks(table, tableIdx, fileName, len(chunks), now)...)
	}

	logger.Debug("Extracted %d chunks and %d headings from %s", len(chunks), len(headings), fileName)

	return &domain.ParsedDocument{
		Metadata: doc,
		Chunks:   chunks,
		Headings: headings,
	}, nil
}

// tableChunks converts one table into row chunks. The first row is
// treated as the header row and echoed into every following row for
// context.
func tableChunks(table docxTable, tableIdx int, fileName string, position int, now time.Time) []domain.Chunk {
	if len(table.Rows) == 0 {
		return nil
	}

	headers := make([]string, len(table.Rows[0].Cells))
	for i, cell := range table.Rows[0].Cells {
		headers[i] = cellText(cell)
	}

	var chunks []domain.Chunk
	for rowIdx, row := range table.Rows {
		cells := make([]string, len(row.Cells))
		empty := true
		for i, cell := range row.Cells {
			cells[i] = cellText(cell)
			if strings.TrimSpace(cells[i]) != "" {
				empty = false
			}
		}
		if empty {
			continue
		}

		var text string
		if rowIdx == 0 {
			text = strings.Join(cells, " | ")
		} else {
			text = tableRowText(headers, cells)
		}
		if text == "" {
			continue
		}

		chunks = append(chunks, domain.Chunk{
			ID:       uuid.New().String(),
			Position: position + len(chunks),
			Text:     text,
			Type:     domain.ChunkTypeTableRow,
			Citation: domain.Citation{
				FilePath: fileName,
				Section:  fmt.Sprintf("table_%d_row_%d", tableIdx, rowIdx),
			}.String(),
			Metadata: map[string]any{
				"table_index": tableIdx,
				"row_index":   rowIdx,
			},
			CreatedAt: now,
		})
	}
	return chunks
}

// paragraphText concatenates the text runs of a paragraph.
func paragraphText(para docxParagraph) string {
	var b strings.Builder
	for _, run := range para.Runs {
		for _, t := range run.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

// cellText joins a table cell's paragraphs with spaces.
func cellText(cell docxTableCell) string {
	parts := make([]string, 0, len(cell.Paragraphs))
	for _, para := range cell.Paragraphs {
		if text := strings.TrimSpace(paragraphText(para)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// headingLevel extracts the level from a Heading paragraph style
// ("Heading1" or "Heading 1"). Unknown styles are not headings.
func headingLevel(style string) (int, bool) {
	if !strings.HasPrefix(style, "Heading") {
		return 0, false
	}
	suffix := strings.TrimSpace(strings.TrimPrefix(style, "Heading"))
	level, err := strconv.Atoi(suffix)
	if err != nil || level < 1 {
		return 1, true
	}
	return level, true
}

// readZipXML decodes one archive member into out.
func readZipXML(reader *zip.Reader, name string, out any) error {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("%w: opening %s: %v", domain.ErrInvalidInput, name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", domain.ErrInvalidInput, name, err)
		}
		if err := xml.Unmarshal(content, out); err != nil {
			return fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidInput, name, err)
		}
		return nil
	}
	return fmt.Errorf("%w: archive member %s not found", domain.ErrInvalidInput, name)
}
