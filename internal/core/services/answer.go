package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

var _ driving.AnswerService = (*AnswerEngine)(nil)

// Retriever is the retrieval capability the answer engine consumes.
// Satisfied by HybridRetriever.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error)
}

// comparativeKeywords routes a question to the distribution report.
// Checked first, highest priority. Plain substring match.
var comparativeKeywords = []string{
	"compare", "comparison", "versus", "vs", "more than", "less than",
	"balance", "ratio", "distribution", "how many",
}

// familyKeywords routes a question to the recurring-family report.
var familyKeywords = []string{
	"recurring", "families", "family",
}

// questionKeywords score a question against each pattern type. Ties
// resolve by the order of domain.PatternTypes.
var questionKeywords = map[domain.PatternType][]string{
	domain.PatternRequirement: {
		"requirement", "must", "shall", "should", "mandatory", "needed",
	},
	domain.PatternRisk: {
		"risk", "threat", "potential problem", "vulnerability",
		"exposure", "uncertain",
	},
	domain.PatternConstraint: {
		"constraint", "limitation", "restriction", "boundary",
		"dependency", "prerequisite",
	},
	domain.PatternSuccess: {
		"success", "achievement", "accomplishment", "completed",
		"delivered", "proven", "strength", "advantage", "positive",
	},
	domain.PatternFailure: {
		"failure", "problem", "issue", "concern", "weakness", "gap",
		"challenge", "difficulty",
	},
}

// qaResult is the JSON shape the QA prompt asks for.
type qaResult struct {
	Answer    string   `json:"answer"`
	KeyPoints []string `json:"key_points"`
	Citations []string `json:"citations"`
}

// AnswerEngineConfig tunes question answering.
type AnswerEngineConfig struct {
	// TopK is the default result count when the caller supplies none.
	TopK int

	// Temperature is passed to the LLM on the general path.
	Temperature float64
}

// AnswerEngine classifies questions and routes them to one of four
// paths: comparative, family, pattern-specific or general RAG. Only the
// general path calls the LLM; the other three are deterministic
// formatting over already-extracted data.
type AnswerEngine struct {
	retriever Retriever
	patterns  driven.PatternStore
	families  driven.FamilyStore
	llm       driven.LLMService
	cfg       AnswerEngineConfig
}

// NewAnswerEngine creates an answer engine.
func NewAnswerEngine(
	retriever Retriever,
	patterns driven.PatternStore,
	families driven.FamilyStore,
	llm driven.LLMService,
	cfg AnswerEngineConfig,
) *AnswerEngine {
	if cfg.TopK <= 0 {
		cfg.TopK = 20
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.5
	}
	return &AnswerEngine{
		retriever: retriever,
		patterns:  patterns,
		families:  families,
		llm:       llm,
		cfg:       cfg,
	}
}

// Retrieve exposes raw hybrid retrieval.
func (e *AnswerEngine) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredChunk, error) {
	if topK <= 0 {
		topK = e.cfg.TopK
	}
	return e.retriever.Retrieve(ctx, query, topK)
}

// Answer classifies the question and routes it.
func (e *AnswerEngine) Answer(ctx context.Context, question string, opts driving.AskOptions) (*domain.QueryResponse, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = e.cfg.TopK
	}

	kind, patternType := e.classify(question, opts.TypeHint)
	logger.Info("Question classified as %s: %s", kind, question)

	switch kind {
	case domain.QuestionComparative:
		return e.answerComparative(ctx, question)
	case domain.QuestionFamily:
		return e.answerFamilies(ctx, question, patternType, topK)
	case domain.QuestionPattern:
		return e.answerPatterns(ctx, question, patternType, topK)
	default:
		return e.answerGeneral(ctx, question, topK)
	}
}

// classify resolves the question kind and, for the pattern and family
// paths, the pattern type. Comparative keywords win over everything,
// then the family report, then an explicit hint, then keyword scoring
// with ties resolved by the fixed type priority order.
func (e *AnswerEngine) classify(question string, hint domain.PatternType) (domain.QuestionKind, domain.PatternType) {
	q := strings.ToLower(question)

	for _, kw := range comparativeKeywords {
		if strings.Contains(q, kw) {
			return domain.QuestionComparative, ""
		}
	}

	for _, kw := range familyKeywords {
		if strings.Contains(q, kw) {
			return domain.QuestionFamily, e.scoreType(q, hint)
		}
	}

	if t := e.scoreType(q, hint); t != "" {
		return domain.QuestionPattern, t
	}
	return domain.QuestionGeneral, ""
}

// scoreType returns the hint when given, else the highest-scoring
// pattern type, else the zero value when no keyword matches at all.
func (e *AnswerEngine) scoreType(q string, hint domain.PatternType) domain.PatternType {
	if hint != "" {
		return hint
	}

	var best domain.PatternType
	bestScore := 0
	for _, t := range domain.PatternTypes {
		score := 0
		for _, kw := range questionKeywords[t] {
			if strings.Contains(q, kw) {
				score++
			}
		}
		// Strictly greater keeps the earlier type on ties.
		if score > bestScore {
			best, bestScore = t, score
		}
	}
	return best
}

// answerGeneral is the RAG path: retrieve, generate, cite.
func (e *AnswerEngine) answerGeneral(ctx context.Context, question string, topK int) (*domain.QueryResponse, error) {
	results, err := e.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		logger.Warn("No relevant chunks found")
		return &domain.QueryResponse{
			Query:    question,
			Answer:   "I couldn't find any relevant information in the documents to answer this question.",
			Evidence: []domain.Evidence{},
		}, nil
	}

	var contextBlock strings.Builder
	evidence := make([]domain.Evidence, 0, len(results))
	for i, r := range results {
		fmt.Fprintf(&contextBlock, "[%d] %s\n\n", i+1, r.Chunk.Text)
		evidence = append(evidence, domain.Evidence{
			SourceID:  r.Chunk.ID,
			Text:      r.Chunk.Text,
			Citation:  r.Chunk.Citation,
			Relevance: r.Score,
		})
	}

	prompt := fmt.Sprintf(answerPrompt, strings.TrimRight(contextBlock.String(), "\n"), question)

	var result qaResult
	if err := e.llm.GenerateJSON(ctx, prompt, e.cfg.Temperature, &result); err != nil {
		logger.Warn("Answer generation failed, returning raw evidence: %v", err)
		if len(evidence) > 10 {
			evidence = evidence[:10]
		}
		return &domain.QueryResponse{
			Query:    question,
			Answer:   fmt.Sprintf("I found relevant information but encountered an error generating a structured answer: %v", err),
			Evidence: evidence,
		}, nil
	}

	cited := evidence
	if len(result.Citations) > 0 {
		citedIDs := make(map[string]struct{}, len(result.Citations))
		for _, id := range result.Citations {
			citedIDs[strings.TrimPrefix(id, "chunk_id_")] = struct{}{}
		}
		cited = make([]domain.Evidence, 0, len(evidence))
		for _, ev := range evidence {
			if _, ok := citedIDs[ev.SourceID]; ok {
				cited = append(cited, ev)
			}
		}
		// A citation list that matches nothing is treated as no
		// citations at all rather than an empty answer.
		if len(cited) == 0 {
			cited = evidence
		}
	}

	logger.Info("Generated answer with %d citations", len(cited))
	return &domain.QueryResponse{
		Query:    question,
		Answer:   result.Answer,
		Evidence: cited,
		Metadata: map[string]any{
			"key_points":           result.KeyPoints,
			"num_chunks_retrieved": len(results),
			"num_chunks_cited":     len(cited),
		},
	}, nil
}

// answerPatterns enumerates persisted patterns of one type by
// confidence. No generation call.
func (e *AnswerEngine) answerPatterns(ctx context.Context, question string, t domain.PatternType, topK int) (*domain.QueryResponse, error) {
	patterns, err := e.patterns.GetPatternsByType(ctx, t)
	if err != nil {
		return nil, err
	}
	if len(patterns) == 0 {
		return &domain.QueryResponse{
			Query:    question,
			Answer:   fmt.Sprintf("No %s patterns have been extracted yet. Run 'marianalyzer extract %s' first.", typeLabel(t), t),
			Evidence: []domain.Evidence{},
		}, nil
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Confidence > patterns[j].Confidence
	})
	if len(patterns) > topK {
		patterns = patterns[:topK]
	}

	var answer strings.Builder
	fmt.Fprintf(&answer, "Here are the top %d %s:\n", len(patterns), typeLabel(t))

	evidence := make([]domain.Evidence, 0, len(patterns))
	for i, p := range patterns {
		fmt.Fprintf(&answer, "\n%d. %s\n   - Confidence: %.2f", i+1, p.Text, p.Confidence)
		if p.Category != "" {
			fmt.Fprintf(&answer, ", Category: %s", p.Category)
		}
		if p.Severity != "" {
			fmt.Fprintf(&answer, ", Severity: %s", p.Severity)
		}
		if p.Topic != "" {
			fmt.Fprintf(&answer, ", Topic: %s", p.Topic)
		}

		evidence = append(evidence, domain.Evidence{
			SourceID:   p.ID,
			Text:       p.Text,
			Confidence: p.Confidence,
			Relevance:  p.Confidence,
		})
	}

	return &domain.QueryResponse{
		Query:    question,
		Answer:   answer.String(),
		Evidence: evidence,
		Metadata: map[string]any{
			"pattern_type": string(t),
			"num_patterns": len(patterns),
		},
	}, nil
}

// answerFamilies reports the top recurring families of one type,
// ordered by document count. Defaults to requirements when the question
// names no type.
func (e *AnswerEngine) answerFamilies(ctx context.Context, question string, t domain.PatternType, topN int) (*domain.QueryResponse, error) {
	if t == "" {
		t = domain.PatternRequirement
	}

	families, err := e.families.TopFamilies(ctx, t, topN)
	if err != nil {
		return nil, err
	}
	if len(families) == 0 {
		return &domain.QueryResponse{
			Query:    question,
			Answer:   "No pattern families have been created yet. Run 'marianalyzer aggregate' first.",
			Evidence: []domain.Evidence{},
		}, nil
	}

	maxDocs := families[0].DocCount
	for _, f := range families {
		if f.DocCount > maxDocs {
			maxDocs = f.DocCount
		}
	}
	if maxDocs == 0 {
		maxDocs = 1
	}

	var answer strings.Builder
	fmt.Fprintf(&answer, "Here are the top %d recurring %s:\n", len(families), typeLabel(t))

	evidence := make([]domain.Evidence, 0, len(families))
	for i, f := range families {
		fmt.Fprintf(&answer, "\n%d. %s\n   - Appears %d times across %d documents",
			i+1, f.CanonicalText, f.MemberCount, f.DocCount)

		evidence = append(evidence, domain.Evidence{
			SourceID:   f.ID,
			Text:       f.CanonicalText,
			Confidence: f.AvgConfidence,
			Relevance:  float64(f.DocCount) / float64(maxDocs),
		})
	}

	return &domain.QueryResponse{
		Query:    question,
		Answer:   answer.String(),
		Evidence: evidence,
		Metadata: map[string]any{
			"type":         "family_query",
			"pattern_type": string(t),
			"num_families": len(families),
		},
	}, nil
}

// answerComparative reports the per-type pattern distribution. Purely
// deterministic, no generation call.
func (e *AnswerEngine) answerComparative(ctx context.Context, question string) (*domain.QueryResponse, error) {
	counts := make(map[domain.PatternType]int, len(domain.PatternTypes))
	total := 0
	for _, t := range domain.PatternTypes {
		n, err := e.patterns.CountPatterns(ctx, t)
		if err != nil {
			return nil, err
		}
		counts[t] = n
		total += n
	}

	if total == 0 {
		return &domain.QueryResponse{
			Query:    question,
			Answer:   "No patterns have been extracted yet. Run 'marianalyzer extract' first.",
			Evidence: []domain.Evidence{},
		}, nil
	}

	// Sort by count descending; count ties keep the type priority order.
	ordered := make([]domain.PatternType, len(domain.PatternTypes))
	copy(ordered, domain.PatternTypes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return counts[ordered[i]] > counts[ordered[j]]
	})

	var answer strings.Builder
	answer.WriteString("Pattern Distribution Analysis:\n")

	evidence := make([]domain.Evidence, 0, len(ordered))
	for _, t := range ordered {
		pct := float64(counts[t]) / float64(total) * 100
		fmt.Fprintf(&answer, "\n- %s: %d (%.1f%%)", typeLabel(t), counts[t], pct)

		evidence = append(evidence, domain.Evidence{
			SourceID:  string(t),
			Text:      fmt.Sprintf("%s: %d", typeLabel(t), counts[t]),
			Relevance: pct,
		})
	}

	fmt.Fprintf(&answer, "\n\nTotal patterns: %d", total)

	maxType := ordered[0]
	var minType domain.PatternType
	for i := len(ordered) - 1; i >= 0; i-- {
		if counts[ordered[i]] > 0 {
			minType = ordered[i]
			break
		}
	}

	answer.WriteString("\n\nInsights:")
	fmt.Fprintf(&answer, "\n- Most common: %s (%d instances)", typeLabel(maxType), counts[maxType])
	if minType != "" && minType != maxType {
		fmt.Fprintf(&answer, "\n- Least common: %s (%d instances)", typeLabel(minType), counts[minType])
	}

	successes := counts[domain.PatternSuccess]
	failures := counts[domain.PatternFailure]
	if successes > 0 || failures > 0 {
		// +1 in the denominator avoids division by zero.
		ratio := float64(successes) / float64(failures+1)
		fmt.Fprintf(&answer, "\n- Success/Failure ratio: %.2f", ratio)
	}

	return &domain.QueryResponse{
		Query:    question,
		Answer:   answer.String(),
		Evidence: evidence,
		Metadata: map[string]any{
			"query_type":     "comparative",
			"total_patterns": total,
		},
	}, nil
}

// typeLabel renders a pattern type for display ("success_point" becomes
// "Success Points").
func typeLabel(t domain.PatternType) string {
	words := strings.Split(string(t), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ") + "s"
}
