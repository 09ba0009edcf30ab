package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/rainfall-badyears/internal/domain"
)

// Analyzer runs one analysis request. *analysis.Service implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.Report, error)
}

// AnalysisTransformer implements Transformer by decoding the request carried
// in a message value and handing it to an Analyzer.
type AnalysisTransformer struct {
	analyzer Analyzer
	logger   *slog.Logger
}

// NewTransformer creates an AnalysisTransformer.
func NewTransformer(analyzer Analyzer, logger *slog.Logger) *AnalysisTransformer {
	return &AnalysisTransformer{
		analyzer: analyzer,
		logger:   logger,
	}
}

// Transform decodes raw.Value as a domain.AnalysisRequest and analyzes it.
// A request without an id takes the message key as its id so the report can
// be correlated with the request.
func (t *AnalysisTransformer) Transform(ctx context.Context, raw domain.RawMessage) (domain.Report, error) {
	req, err := domain.ParseAnalysisRequest(raw.Value)
	if err != nil {
		return domain.Report{}, err
	}
	if req.ID == "" && len(raw.Key) > 0 {
		req.ID = string(raw.Key)
	}

	t.logger.Debug("analysis request received",
		"request_id", req.ID,
		"country", req.Country,
		"mode", req.Mode,
		"offset", raw.Offset,
	)
	return t.analyzer.Analyze(ctx, req)
}
