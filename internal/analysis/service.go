// Package analysis runs bad-year analyses end to end, from loading the selected
// series to the aggregated domain.Report. The HTTP API, the Kafka pipeline and the
// CLI all go through it.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"github.com/couchcryptid/rainfall-badyears/internal/domain"
	"github.com/couchcryptid/rainfall-badyears/internal/observability"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SeriesSource opens the raw two-column source of a series.
type SeriesSource interface {
	Open(ctx context.Context, id domain.SeriesID) (io.ReadCloser, error)
}

// Options tunes a Service.
type Options struct {
	DefaultBaseYear int
	LoadConcurrency int
}

// Service executes analysis requests. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	source   SeriesSource
	geocoder domain.Geocoder
	validate *validator.Validate
	opts     Options
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// New creates a Service. Pass a nil geocoder to leave report locations empty.
func New(source SeriesSource, geocoder domain.Geocoder, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if opts.LoadConcurrency <= 0 {
		opts.LoadConcurrency = 1
	}
	return &Service{
		source:   source,
		geocoder: geocoder,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
	}
}

// loaded is the outcome of loading one selected series.
type loaded struct {
	id     domain.SeriesID
	series domain.RainfallSeries
	err    error
}

// Analyze validates req and runs it. Series that fail to load or detect are
// excluded and listed in Report.Failures; the call only fails as a whole when
// the request is invalid or no series survives.
func (s *Service) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.Report, error) {
	if err := s.Validate(req); err != nil {
		s.metrics.AnalysisErrors.WithLabelValues(reasonOf(err)).Inc()
		return domain.Report{}, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	selection := Selection(req)
	slots, err := s.load(ctx, selection, req.Mapping(s.opts.DefaultBaseYear))
	if err != nil {
		return domain.Report{}, err
	}

	report := domain.Report{
		ID:        req.ID,
		Country:   req.Country,
		Seasons:   req.Seasons,
		Mode:      req.Mode,
		Parameter: req.Parameter(),
		YearFrom:  req.YearFrom,
		YearTo:    req.YearTo,
	}

	var (
		results []domain.RegionResult
		regions []string
		errs    []error
		lo, hi  = math.Inf(1), math.Inf(-1)
	)
	for _, slot := range slots {
		column := slot.id.Column()
		if slot.err != nil {
			s.fail(&report, column, slot.err)
			errs = append(errs, slot.err)
			continue
		}

		series := slot.series.Window(req.YearFrom, req.YearTo)
		res, err := detect(series, req)
		if err != nil {
			s.fail(&report, column, err)
			errs = append(errs, fmt.Errorf("%s: %w", column, err))
			continue
		}

		if l, h, ok := series.Bounds(); ok {
			lo, hi = math.Min(lo, l), math.Max(hi, h)
		}
		results = append(results, domain.RegionResult{Column: column, Result: res})
		regions = append(regions, slot.id.Region)
	}

	if len(results) == 0 {
		s.metrics.AnalysisErrors.WithLabelValues("all_failed").Inc()
		return domain.Report{}, fmt.Errorf("all %d selected series failed: %w", len(slots), errors.Join(errs...))
	}

	report.Comparison, report.BadYears, err = domain.Aggregate(results)
	if err != nil {
		s.metrics.AnalysisErrors.WithLabelValues(reasonOf(err)).Inc()
		return domain.Report{}, fmt.Errorf("aggregate: %w", err)
	}
	if !math.IsInf(lo, 0) {
		report.Bounds = domain.RainfallBounds{MinMM: lo, MaxMM: hi}
	}
	report.Locations = domain.LocateRegions(ctx, req.Country, regions, s.geocoder, s.logger)

	s.metrics.Analyses.WithLabelValues(string(req.Mode)).Inc()
	s.metrics.BadYearsFlagged.Observe(float64(len(report.BadYears.Rows)))
	s.logger.Debug("analysis complete",
		"request_id", req.ID,
		"country", req.Country,
		"mode", req.Mode,
		"columns", len(results),
		"failures", len(report.Failures),
		"bad_years", len(report.BadYears.Rows),
	)
	return report.Stamp(), nil
}

// Validate checks a request before any series is loaded.
func (s *Service) Validate(req domain.AnalysisRequest) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	if len(req.Regions) == 0 || len(req.Seasons) == 0 {
		return domain.ErrEmptySelection
	}
	if req.Mode == domain.MethodFrequency {
		if err := domain.ValidatePercentage(*req.Percentage); err != nil {
			return err
		}
	}
	return nil
}

// Selection expands a request into the series to analyze: seasons in request
// order, then regions in request order, without duplicates.
func Selection(req domain.AnalysisRequest) []domain.SeriesID {
	seen := make(map[domain.SeriesID]struct{})
	var ids []domain.SeriesID
	for _, season := range req.Seasons {
		for _, region := range req.Regions {
			id := domain.SeriesID{Country: req.Country, Season: season, Region: region}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// load reads every selected series, at most LoadConcurrency at a time. A
// series that fails is reported in its slot; only cancellation aborts the load.
func (s *Service) load(ctx context.Context, ids []domain.SeriesID, mapping domain.YearMapping) ([]loaded, error) {
	slots := make([]loaded, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.LoadConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			series, err := s.loadOne(gctx, id, mapping)
			slots[i] = loaded{id: id, series: series, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}
	return slots, nil
}

func (s *Service) loadOne(ctx context.Context, id domain.SeriesID, mapping domain.YearMapping) (domain.RainfallSeries, error) {
	rc, err := s.source.Open(ctx, id)
	if err != nil {
		return domain.RainfallSeries{}, err
	}
	defer rc.Close()
	return domain.LoadSeries(rc, id, mapping)
}

func detect(series domain.RainfallSeries, req domain.AnalysisRequest) (domain.DetectionResult, error) {
	if req.Mode == domain.MethodFrequency {
		return domain.DetectFrequency(series, *req.Percentage)
	}
	return domain.DetectThreshold(series, *req.ThresholdMM), nil
}

func (s *Service) fail(report *domain.Report, column string, err error) {
	s.logger.Warn("series excluded from analysis", "column", column, "error", err)
	s.metrics.RegionFailures.WithLabelValues(reasonOf(err)).Inc()
	report.Failures = append(report.Failures, domain.RegionFailure{Column: column, Error: err.Error()})
}
