package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/couchcryptid/rainfall-badyears/internal/adapter/chart"
	"github.com/couchcryptid/rainfall-badyears/internal/analysis"
	"github.com/couchcryptid/rainfall-badyears/internal/domain"
	"github.com/couchcryptid/rainfall-badyears/internal/export"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const maxRequestBytes = 1 << 20

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePNG  = "image/png"
)

type regionEntry struct {
	Region string `json:"region"`
	File   string `json:"file"`
}

func (s *Server) handleCountries(w http.ResponseWriter, _ *http.Request) {
	countries, err := s.catalog.Countries()
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string][]string{"countries": nonNil(countries)})
}

func (s *Server) handleSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := s.catalog.Seasons(r.PathValue("country"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string][]string{"seasons": nonNil(seasons)})
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	entries, err := s.catalog.Regions(r.PathValue("country"), r.PathValue("season"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	regions := make([]regionEntry, len(entries))
	for i, e := range entries {
		regions[i] = regionEntry{Region: e.ID.Region, File: e.File}
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string][]regionEntry{"regions": regions})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	report, ok := s.analyze(w, r)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

// handleExport renders the bad-years table of an analysis as CSV (default) or
// XLSX, selected by the format query parameter.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("unsupported export format %q", format),
		})
		return
	}

	report, ok := s.analyze(w, r)
	if !ok {
		return
	}

	var (
		body        []byte
		err         error
		contentType string
	)
	switch format {
	case "xlsx":
		body, err = export.FormatXLSX(report.BadYears)
		contentType = contentTypeXLSX
	default:
		body, err = export.FormatCSV(report.BadYears)
		contentType = contentTypeCSV
	}
	if err != nil {
		s.writeError(w, fmt.Errorf("export %s: %w", format, err))
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(report, format)))
	s.writeBody(w, contentType, body)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	report, ok := s.analyze(w, r)
	if !ok {
		return
	}

	opts := chart.Options{Title: chartTitle(report)}
	if report.Mode == domain.MethodThreshold {
		threshold := report.Parameter
		opts.ThresholdMM = &threshold
	}
	png, err := chart.RenderPNG(report.Comparison, opts)
	if err != nil {
		s.writeError(w, fmt.Errorf("render chart: %w", err))
		return
	}
	s.writeBody(w, contentTypePNG, png)
}

// analyze decodes the request body and runs it, writing the error response
// itself when it returns false.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) (domain.Report, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		return domain.Report{}, false
	}
	req, err := domain.ParseAnalysisRequest(data)
	if err != nil {
		sharedobs.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return domain.Report{}, false
	}

	report, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return domain.Report{}, false
	}
	return report, true
}

func (s *Server) writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Warn("write response failed", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrSeriesNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case analysis.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func chartTitle(report domain.Report) string {
	seasons := strings.Join(report.Seasons, ", ")
	switch report.Mode {
	case domain.MethodFrequency:
		return fmt.Sprintf("%s %s rainfall: driest %g%% of years", report.Country, seasons, report.Parameter)
	default:
		return fmt.Sprintf("%s %s rainfall: years at or below %g mm", report.Country, seasons, report.Parameter)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
