// Package intent resolves free-text prompts into an analytics function and its parameters.
package intent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/V4T54L/runtime-analytics/internal/adapter/embedding"
	"github.com/V4T54L/runtime-analytics/internal/catalog"
	"github.com/V4T54L/runtime-analytics/internal/domain"
)

// Matcher finds the catalog example most similar to a prompt.
type Matcher struct {
	engine   embedding.Engine
	catalog  *catalog.Catalog
	examples []catalog.Example
	vectors  [][]float32
	minScore float64
	logger   *slog.Logger
}

// NewMatcher embeds every catalog example once. minScore <= 0 accepts any best match.
func NewMatcher(ctx context.Context, engine embedding.Engine, cat *catalog.Catalog, minScore float64, logger *slog.Logger) (*Matcher, error) {
	m := &Matcher{
		engine:   engine,
		catalog:  cat,
		examples: cat.Examples(),
		minScore: minScore,
		logger:   logger.With("component", "intent_matcher"),
	}

	for _, fn := range cat.UnknownFunctions() {
		m.logger.Warn("catalog entry names an unregistered function", "function", fn)
	}

	if len(m.examples) == 0 {
		m.logger.Warn("prompt catalog has no examples, every prompt will be unresolved")
		return m, nil
	}

	texts := make([]string, len(m.examples))
	for i, ex := range m.examples {
		texts[i] = ex.Text
	}
	vectors, err := engine.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed catalog examples: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("engine returned %d embeddings for %d examples", len(vectors), len(texts))
	}
	m.vectors = vectors

	m.logger.Info("prompt catalog embedded", "engine", engine.Name(), "entries", cat.Len(), "examples", len(texts))
	return m, nil
}

// Match returns the intent of the best scoring example. Examples are scanned in
// catalog order and only a strictly higher score replaces the current best, so
// ties resolve to the first example. A prompt sharing no features with any
// example (best score <= 0) does not match. No match is an InterpretedQuery
// with an empty Function, not an error.
func (m *Matcher) Match(ctx context.Context, query string) (domain.InterpretedQuery, error) {
	if len(m.vectors) == 0 {
		return domain.InterpretedQuery{Params: domain.Params{}}, nil
	}

	qv, err := m.engine.Embed(ctx, query)
	if err != nil {
		return domain.InterpretedQuery{}, fmt.Errorf("failed to embed prompt: %w", err)
	}

	best, bestScore := -1, -1.0
	for i, ev := range m.vectors {
		score, err := embedding.CosineSimilarity(qv, ev)
		if err != nil {
			return domain.InterpretedQuery{}, fmt.Errorf("failed to score example %q: %w", m.examples[i].Text, err)
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 || bestScore <= 0 || (m.minScore > 0 && bestScore < m.minScore) {
		m.logger.Debug("no example matched", "query", query, "best_score", bestScore)
		return domain.InterpretedQuery{Params: domain.Params{}, Score: bestScore}, nil
	}

	ex := m.examples[best]
	entry := m.catalog.Entry(ex.Entry)
	m.logger.Debug("prompt matched", "query", query, "example", ex.Text, "function", entry.Function, "score", bestScore)

	return domain.InterpretedQuery{
		Function: entry.Function,
		Params:   entry.DefaultParams.Clone(),
		Example:  ex.Text,
		Score:    bestScore,
	}, nil
}
