package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	headings  map[string][]domain.Heading
	chunks    []domain.Chunk
	chunkByID map[string]int
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		headings:  make(map[string][]domain.Heading),
		chunkByID: make(map[string]int),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// SaveChunks stores chunks, preserving insertion order.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		if pos, ok := s.chunkByID[chunk.ID]; ok {
			s.chunks[pos] = chunk
			continue
		}
		s.chunkByID[chunk.ID] = len(s.chunks)
		s.chunks = append(s.chunks, chunk)
	}
	return nil
}

// SaveHeadings stores headings for a document.
func (s *DocumentStore) SaveHeadings(_ context.Context, headings []domain.Heading) error {
	if len(headings) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docID := headings[0].DocumentID
	s.headings[docID] = headings
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByPath retrieves a document by its relative path.
func (s *DocumentStore) GetDocumentByPath(_ context.Context, path string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.documents))
	for id := range s.documents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		doc := s.documents[id]
		if doc.FilePath == path {
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.chunkByID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	chunk := s.chunks[pos]
	return &chunk, nil
}

// ListChunks returns every chunk in insertion order.
func (s *DocumentStore) ListChunks(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out, nil
}

// DeleteDocument removes a document, its headings and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.headings, id)

	kept := s.chunks[:0]
	for _, chunk := range s.chunks {
		if chunk.DocumentID != id {
			kept = append(kept, chunk)
		}
	}
	s.chunks = kept
	s.chunkByID = make(map[string]int, len(s.chunks))
	for i, chunk := range s.chunks {
		s.chunkByID[chunk.ID] = i
	}
	return nil
}

// CountDocuments returns the total document count.
func (s *DocumentStore) CountDocuments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// CountChunks returns the total chunk count.
func (s *DocumentStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}
