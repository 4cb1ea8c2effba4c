package intent

import (
	"context"
	"log/slog"

	"github.com/V4T54L/runtime-analytics/internal/domain"
)

// Interpreter combines the matched intent with explicitly extracted parameters.
type Interpreter struct {
	matcher   *Matcher
	extractor *Extractor
	logger    *slog.Logger
}

func NewInterpreter(matcher *Matcher, extractor *Extractor, logger *slog.Logger) *Interpreter {
	return &Interpreter{
		matcher:   matcher,
		extractor: extractor,
		logger:    logger.With("component", "interpreter"),
	}
}

// Interpret resolves a prompt. Extracted parameters override the entry defaults;
// an unresolved prompt is returned with an empty Function.
func (i *Interpreter) Interpret(ctx context.Context, prompt string) (domain.InterpretedQuery, error) {
	q, err := i.matcher.Match(ctx, prompt)
	if err != nil {
		return domain.InterpretedQuery{}, err
	}
	if !q.Resolved() {
		return q, nil
	}

	extracted := i.extractor.Extract(prompt)
	q.Params = domain.MergeParams(q.Params, extracted)

	i.logger.Info("prompt interpreted", "function", q.Function, "example", q.Example, "score", q.Score, "extracted", len(extracted))
	return q, nil
}
