// Package sqlite provides SQLite-backed implementations of the metadata
// store ports. A single database file holds documents, chunks, headings,
// patterns and families.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Ilygos/marianalyzer/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the given database file path.
// If dbPath is empty, defaults to ~/.marianalyzer/data/metadata.db.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".marianalyzer", "data", "metadata.db")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// PatternStore returns a PatternStore interface backed by this store.
func (s *Store) PatternStore() driven.PatternStore {
	return &patternStore{store: s}
}

// FamilyStore returns a FamilyStore interface backed by this store.
func (s *Store) FamilyStore() driven.FamilyStore {
	return &familyStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, file_path, file_hash, file_type, file_size, status, metadata, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_path = excluded.file_path,
			file_hash = excluded.file_hash,
			file_type = excluded.file_type,
			file_size = excluded.file_size,
			status = excluded.status,
			metadata = excluded.metadata,
			ingested_at = excluded.ingested_at
	`, doc.ID, doc.FilePath, doc.FileHash, string(doc.FileType), doc.FileSize,
		doc.Status, string(metadataJSON), doc.IngestedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks stores chunks for a document.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, position, text, chunk_type, citation, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			position = excluded.position,
			text = excluded.text,
			chunk_type = excluded.chunk_type,
			citation = excluded.citation,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		createdAt := chunk.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Position,
			chunk.Text, string(chunk.Type), chunk.Citation, string(metadataJSON), createdAt); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveHeadings stores headings for a document.
func (s *documentStore) SaveHeadings(ctx context.Context, headings []domain.Heading) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO headings (id, document_id, level, text, location)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			level = excluded.level,
			text = excluded.text,
			location = excluded.location
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, h := range headings {
		if _, err := stmt.ExecContext(ctx, h.ID, h.DocumentID, h.Level, h.Text, h.Location); err != nil {
			return fmt.Errorf("saving heading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, file_path, file_hash, file_type, file_size, status, metadata, ingested_at
		FROM documents WHERE id = ?
	`, id)

	return scanDocument(row)
}

// GetDocumentByPath retrieves a document by its relative path.
func (s *documentStore) GetDocumentByPath(ctx context.Context, path string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, file_path, file_hash, file_type, file_size, status, metadata, ingested_at
		FROM documents WHERE file_path = ?
	`, path)

	return scanDocument(row)
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, position, text, chunk_type, citation, metadata, created_at
		FROM chunks WHERE id = ?
	`, id)

	var chunk domain.Chunk
	var chunkType, metadataJSON string
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position, &chunk.Text,
		&chunkType, &chunk.Citation, &metadataJSON, &chunk.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Type = domain.ChunkType(chunkType)
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}

	return &chunk, nil
}

// ListChunks returns every chunk in the corpus in insertion order.
func (s *documentStore) ListChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, position, text, chunk_type, citation, metadata, created_at
		FROM chunks ORDER BY created_at, document_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var chunkType, metadataJSON string
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Position, &chunk.Text,
			&chunkType, &chunk.Citation, &metadataJSON, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		chunk.Type = domain.ChunkType(chunkType)
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// DeleteDocument removes a document. Chunks, headings and the patterns
// extracted from the chunks cascade through foreign keys.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// CountDocuments returns the total document count.
func (s *documentStore) CountDocuments(ctx context.Context) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// CountChunks returns the total chunk count.
func (s *documentStore) CountChunks(ctx context.Context) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var fileType, metadataJSON string

	if err := row.Scan(&doc.ID, &doc.FilePath, &doc.FileHash, &fileType,
		&doc.FileSize, &doc.Status, &metadataJSON, &doc.IngestedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.FileType = domain.FileType(fileType)
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}

	return &doc, nil
}

// ==================== Pattern Store ====================

// patternStore implements driven.PatternStore.
type patternStore struct {
	store *Store
}

var _ driven.PatternStore = (*patternStore)(nil)

// SavePattern stores a pattern.
func (s *patternStore) SavePattern(ctx context.Context, p *domain.Pattern) error {
	entitiesJSON, err := json.Marshal(p.Entities)
	if err != nil {
		return fmt.Errorf("marshalling entities: %w", err)
	}

	metadataJSON, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	if p.ExtractedAt.IsZero() {
		p.ExtractedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO patterns
			(id, chunk_id, pattern_type, text, norm_text, category, severity,
			 modality, topic, entities, confidence, metadata, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			chunk_id = excluded.chunk_id,
			pattern_type = excluded.pattern_type,
			text = excluded.text,
			norm_text = excluded.norm_text,
			category = excluded.category,
			severity = excluded.severity,
			modality = excluded.modality,
			topic = excluded.topic,
			entities = excluded.entities,
			confidence = excluded.confidence,
			metadata = excluded.metadata
	`, p.ID, p.ChunkID, string(p.Type), p.Text, p.NormText, p.Category, p.Severity,
		p.Modality, p.Topic, string(entitiesJSON), p.Confidence, string(metadataJSON),
		p.ExtractedAt)

	if err != nil {
		return fmt.Errorf("saving pattern: %w", err)
	}
	return nil
}

// GetPatternsByType returns all patterns of the given type in insertion order.
func (s *patternStore) GetPatternsByType(ctx context.Context, t domain.PatternType) ([]domain.Pattern, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, chunk_id, pattern_type, text, norm_text, category, severity,
		       modality, topic, entities, confidence, metadata, extracted_at
		FROM patterns WHERE pattern_type = ?
		ORDER BY extracted_at, id
	`, string(t))
	if err != nil {
		return nil, fmt.Errorf("querying patterns: %w", err)
	}
	defer rows.Close()

	var patterns []domain.Pattern //nolint:prealloc // size unknown from query
	for rows.Next() {
		var p domain.Pattern
		var patternType, entitiesJSON, metadataJSON string
		if err := rows.Scan(&p.ID, &p.ChunkID, &patternType, &p.Text, &p.NormText,
			&p.Category, &p.Severity, &p.Modality, &p.Topic, &entitiesJSON,
			&p.Confidence, &metadataJSON, &p.ExtractedAt); err != nil {
			return nil, fmt.Errorf("scanning pattern: %w", err)
		}

		p.Type = domain.PatternType(patternType)
		if err := json.Unmarshal([]byte(entitiesJSON), &p.Entities); err != nil {
			return nil, fmt.Errorf("unmarshaling entities: %w", err)
		}
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &p.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling pattern metadata: %w", err)
			}
		}
		patterns = append(patterns, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating patterns: %w", err)
	}

	return patterns, nil
}

// CountPatterns returns the number of patterns of the given type.
func (s *patternStore) CountPatterns(ctx context.Context, t domain.PatternType) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM patterns WHERE pattern_type = ?", string(t)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting patterns: %w", err)
	}
	return count, nil
}

// ==================== Family Store ====================

// familyStore implements driven.FamilyStore.
type familyStore struct {
	store *Store
}

var _ driven.FamilyStore = (*familyStore)(nil)

// ReplaceFamilies atomically replaces all families of the given pattern
// type. The delete and all inserts run in one transaction so readers
// never observe a partial aggregation.
func (s *familyStore) ReplaceFamilies(ctx context.Context, t domain.PatternType,
	families []domain.Family, members []domain.FamilyMember) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Members cascade from the family delete.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM pattern_families WHERE pattern_type = ?", string(t)); err != nil {
		return fmt.Errorf("deleting families: %w", err)
	}

	famStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pattern_families
			(id, pattern_type, canonical_text, member_count, doc_count, avg_confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing family statement: %w", err)
	}
	defer famStmt.Close()

	for _, f := range families {
		createdAt := f.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := famStmt.ExecContext(ctx, f.ID, string(f.Type), f.CanonicalText,
			f.MemberCount, f.DocCount, f.AvgConfidence, createdAt); err != nil {
			return fmt.Errorf("saving family: %w", err)
		}
	}

	memberStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pattern_family_members (family_id, pattern_id, similarity)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing member statement: %w", err)
	}
	defer memberStmt.Close()

	for _, m := range members {
		if _, err := memberStmt.ExecContext(ctx, m.FamilyID, m.PatternID, m.Similarity); err != nil {
			return fmt.Errorf("saving family member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// TopFamilies returns up to limit families of the given type, ordered by
// document count then member count, descending.
func (s *familyStore) TopFamilies(ctx context.Context, t domain.PatternType, limit int) ([]domain.Family, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, pattern_type, canonical_text, member_count, doc_count, avg_confidence, created_at
		FROM pattern_families WHERE pattern_type = ?
		ORDER BY doc_count DESC, member_count DESC, id
		LIMIT ?
	`, string(t), limit)
	if err != nil {
		return nil, fmt.Errorf("querying families: %w", err)
	}
	defer rows.Close()

	var families []domain.Family //nolint:prealloc // size unknown from query
	for rows.Next() {
		var f domain.Family
		var patternType string
		if err := rows.Scan(&f.ID, &patternType, &f.CanonicalText, &f.MemberCount,
			&f.DocCount, &f.AvgConfidence, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning family: %w", err)
		}
		f.Type = domain.PatternType(patternType)
		families = append(families, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating families: %w", err)
	}

	return families, nil
}

// CountFamilies returns the number of families of the given type.
func (s *familyStore) CountFamilies(ctx context.Context, t domain.PatternType) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pattern_families WHERE pattern_type = ?", string(t)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting families: %w", err)
	}
	return count, nil
}
