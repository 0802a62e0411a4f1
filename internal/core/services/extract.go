package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ilygos/marianalyzer/internal/core/domain"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driven"
	"github.com/Ilygos/marianalyzer/internal/core/ports/driving"
	"github.com/Ilygos/marianalyzer/internal/logger"
)

var _ driving.ExtractService = (*PatternExtractor)(nil)

// ExtractorConfig tunes the extraction pass.
type ExtractorConfig struct {
	// ConfidenceThreshold drops extractions below this confidence.
	ConfidenceThreshold float64

	// Temperature is passed to the LLM. Low values keep extraction
	// close to deterministic.
	Temperature float64
}

// extractionResult is the JSON shape every extraction prompt asks for.
type extractionResult struct {
	Found      bool     `json:"found"`
	Text       string   `json:"text"`
	Category   string   `json:"category"`
	Severity   string   `json:"severity"`
	Modality   string   `json:"modality"`
	Topic      string   `json:"topic"`
	Entities   []string `json:"entities"`
	Confidence float64  `json:"confidence"`
}

// PatternExtractor runs single-type extraction passes over the chunk
// corpus. Chunks are pre-filtered by type-specific keywords so that
// most of the corpus never reaches the LLM.
type PatternExtractor struct {
	docs     driven.DocumentStore
	patterns driven.PatternStore
	llm      driven.LLMService
	cfg      ExtractorConfig

	compileOnce sync.Once
	keywordRes  map[domain.PatternType]*regexp.Regexp
}

// NewPatternExtractor creates a pattern extractor.
func NewPatternExtractor(
	docs driven.DocumentStore,
	patterns driven.PatternStore,
	llm driven.LLMService,
	cfg ExtractorConfig,
) *PatternExtractor {
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = 0.7
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	return &PatternExtractor{
		docs:     docs,
		patterns: patterns,
		llm:      llm,
		cfg:      cfg,
	}
}

// Extract runs an extraction pass for one pattern type across all
// chunks. Per-chunk failures are counted, never fatal.
func (e *PatternExtractor) Extract(ctx context.Context, t domain.PatternType) (driving.ExtractStats, error) {
	var stats driving.ExtractStats

	if _, err := domain.ParsePatternType(string(t)); err != nil {
		return stats, err
	}

	logger.Section("Pattern Extraction")
	logger.Info("Extracting %s patterns (model: %s)", t, e.llm.ModelName())

	if err := e.llm.Ping(ctx); err != nil {
		return stats, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}

	chunks, err := e.docs.ListChunks(ctx)
	if err != nil {
		return stats, fmt.Errorf("loading chunks: %w", err)
	}
	if len(chunks) == 0 {
		logger.Warn("No chunks in corpus")
		return stats, nil
	}

	re := e.keywordRegexp(t)

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Processed++

		if !re.MatchString(strings.ToLower(chunk.Text)) {
			stats.Skipped++
			continue
		}

		pattern, ok, err := e.extractFromChunk(ctx, t, chunk)
		if err != nil {
			logger.Warn("Extraction failed for chunk %s: %v", chunk.ID, err)
			stats.Failed++
			continue
		}
		if !ok {
			stats.Skipped++
			continue
		}

		if err := e.patterns.SavePattern(ctx, &pattern); err != nil {
			logger.Warn("Failed to save pattern from chunk %s: %v", chunk.ID, err)
			stats.Failed++
			continue
		}
		stats.Extracted++

		logger.Debug("Extracted %s: %.60s (confidence: %.2f)", t, pattern.Text, pattern.Confidence)
	}

	logger.Info("Extraction complete: %d %s patterns from %d chunks (%d skipped, %d failed)",
		stats.Extracted, t, stats.Processed, stats.Skipped, stats.Failed)
	return stats, nil
}

// extractFromChunk asks the LLM to validate and extract one pattern.
// The ok return is false when the chunk holds no pattern of this type
// or the extraction fell below the confidence threshold.
func (e *PatternExtractor) extractFromChunk(ctx context.Context, t domain.PatternType, chunk domain.Chunk) (domain.Pattern, bool, error) {
	prompt := fmt.Sprintf(extractionPrompts[t], chunk.Text)

	var result extractionResult
	if err := e.llm.GenerateJSON(ctx, prompt, e.cfg.Temperature, &result); err != nil {
		return domain.Pattern{}, false, err
	}

	if !result.Found || result.Text == "" {
		return domain.Pattern{}, false, nil
	}
	if result.Confidence < e.cfg.ConfidenceThreshold {
		logger.Debug("Dropping low-confidence %s (%.2f < %.2f)", t, result.Confidence, e.cfg.ConfidenceThreshold)
		return domain.Pattern{}, false, nil
	}

	pattern := domain.Pattern{
		ID:          uuid.New().String(),
		ChunkID:     chunk.ID,
		Type:        t,
		Text:        result.Text,
		NormText:    Normalize(result.Text),
		Category:    result.Category,
		Severity:    result.Severity,
		Modality:    result.Modality,
		Topic:       result.Topic,
		Entities:    result.Entities,
		Confidence:  result.Confidence,
		ExtractedAt: time.Now().UTC(),
	}
	if err := pattern.Validate(); err != nil {
		return domain.Pattern{}, false, err
	}
	return pattern, true, nil
}

// keywordRegexp returns the compiled pre-filter for a pattern type.
// All five are compiled once on first use.
func (e *PatternExtractor) keywordRegexp(t domain.PatternType) *regexp.Regexp {
	e.compileOnce.Do(func() {
		e.keywordRes = make(map[domain.PatternType]*regexp.Regexp, len(extractionKeywords))
		for pt, keywords := range extractionKeywords {
			quoted := make([]string, len(keywords))
			for i, kw := range keywords {
				quoted[i] = regexp.QuoteMeta(kw)
			}
			e.keywordRes[pt] = regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
		}
	})
	return e.keywordRes[t]
}
