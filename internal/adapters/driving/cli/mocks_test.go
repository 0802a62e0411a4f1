package cli

import (
	"context"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
)

type mockIngestService struct {
	stats driving.IngestStats
	err   error
}

func (m *mockIngestService) IngestFolder(_ context.Context, _ string, _ bool) (driving.IngestStats, error) {
	return m.stats, m.err
}

type mockIndexService struct {
	lexicalErr error
	vectorErr  error
}

func (m *mockIndexService) BuildLexical(_ context.Context) error { return m.lexicalErr }
func (m *mockIndexService) BuildVector(_ context.Context) error  { return m.vectorErr }

type mockExtractService struct {
	stats driving.ExtractStats
	err   error
	types []domain.PatternType
}

func (m *mockExtractService) Extract(_ context.Context, t domain.PatternType) (driving.ExtractStats, error) {
	m.types = append(m.types, t)
	return m.stats, m.err
}

type mockAggregateService struct {
	stats driving.AggregateStats
	err   error
	types []domain.PatternType
}

func (m *mockAggregateService) Aggregate(_ context.Context, t domain.PatternType) (driving.AggregateStats, error) {
	m.types = append(m.types, t)
	return m.stats, m.err
}

type mockAnswerService struct {
	resp     *domain.QueryResponse
	results  []domain.ScoredChunk
	err      error
	question string
	opts     driving.AskOptions
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

func (m *mockAnswerService) Retrieve(_ context.Context, _ string, _ int) ([]domain.ScoredChunk, error) {
	return m.results, m.err
}

type mockStatusService struct {
	report *driving.StatusReport
	err    error
}

func (m *mockStatusService) Status(_ context.Context) (*driving.StatusReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.report != nil {
		return m.report, nil
	}
	return &driving.StatusReport{
		Patterns: map[domain.PatternType]int{},
		Families: map[domain.PatternType]int{},
	}, nil
}

// setupTestServices installs mock services and returns a cleanup that
// restores the previous ones.
func setupTestServices() func() {
	oldIngest := ingestService
	oldIndex := indexService
	oldExtract := extractService
	oldAggregate := aggregateService
	oldAnswer := answerService
	oldStatus := statusService

	ingestService = &mockIngestService{stats: driving.IngestStats{TotalFiles: 2, Successful: 2}}
	indexService = &mockIndexService{}
	extractService = &mockExtractService{stats: driving.ExtractStats{Processed: 5, Extracted: 2, Skipped: 3}}
	aggregateService = &mockAggregateService{stats: driving.AggregateStats{FamiliesCreated: 1, Clustered: 2}}
	answerService = &mockAnswerService{}
	statusService = &mockStatusService{}

	return func() {
		ingestService = oldIngest
		indexService = oldIndex
		extractService = oldExtract
		aggregateService = oldAggregate
		answerService = oldAnswer
		statusService = oldStatus
	}
}
