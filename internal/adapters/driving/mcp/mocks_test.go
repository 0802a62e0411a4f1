package mcp

import (
	"context"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
)

type mockAnswerService struct {
	resp     *domain.QueryResponse
	results  []domain.ScoredChunk
	err      error
	question string
	opts     driving.AskOptions
	topK     int
}

func (m *mockAnswerService) Answer(_ context.Context, question string, opts driving.AskOptions) (*domain.QueryResponse, error) {
	m.question = question
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.resp != nil {
		return m.resp, nil
	}
	return &domain.QueryResponse{Query: question, Answer: "mock answer"}, nil
}

func (m *mockAnswerService) Retrieve(_ context.Context, _ string, topK int) ([]domain.ScoredChunk, error) {
	m.topK = topK
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}
