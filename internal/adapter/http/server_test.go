package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	httpadapter "github.com/couchcryptid/rainfall-badyears/internal/adapter/http"
	"github.com/couchcryptid/rainfall-badyears/internal/adapter/catalog"
	"github.com/couchcryptid/rainfall-badyears/internal/analysis"
	"github.com/couchcryptid/rainfall-badyears/internal/domain"
	"github.com/couchcryptid/rainfall-badyears/internal/export"
	"github.com/couchcryptid/rainfall-badyears/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"Nigeria/JJAS/Kano_mean_data.csv":   {Data: []byte("1,100\n2,50\n3,200\n4,40\n")},
		"Nigeria/JJAS/Sokoto_mean_data.csv": {Data: []byte("1,70\n2,55\n3,90\n")},
		"Nigeria/JJAS/Zaria_mean_data.csv":  {Data: []byte("1,80\n2,oops\n")},
		"Nigeria/JJA/Kano_mean_data.csv":    {Data: []byte("1,30\n2,90\n")},
		"Ghana/JJAS/Tamale_mean_data.csv":   {Data: []byte("1,700\n")},
	}
}

func newTestServer(readyErr error) *httpadapter.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat := catalog.NewFS(testFS())
	svc := analysis.New(cat, nil, analysis.Options{DefaultBaseYear: 2000, LoadConcurrency: 2},
		observability.NewMetricsForTesting(), logger)
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, cat, svc, logger)
}

func do(t *testing.T, srv *httpadapter.Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	srv.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const thresholdBody = `{"id":"req-1","country":"Nigeria","seasons":["JJAS"],"regions":["Kano","Sokoto"],"mode":"threshold","threshold_mm":60}`

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decode[map[string]string](t, rec)["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := do(t, newTestServer(fmt.Errorf("catalog has no countries")), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]string](t, rec)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "catalog has no countries", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- catalog ---

func TestCountries(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/v1/countries", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Ghana", "Nigeria"}, decode[map[string][]string](t, rec)["countries"])
}

func TestSeasons(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/v1/countries/Nigeria/seasons", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"JJA", "JJAS"}, decode[map[string][]string](t, rec)["seasons"])
}

func TestRegions(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/v1/countries/Nigeria/seasons/JJAS/regions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string][]struct {
		Region string `json:"region"`
		File   string `json:"file"`
	}](t, rec)
	require.Len(t, body["regions"], 3)
	assert.Equal(t, "Kano", body["regions"][0].Region)
	assert.Equal(t, "Nigeria/JJAS/Kano_mean_data.csv", body["regions"][0].File)
}

func TestRegions_UnknownCountry(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodGet, "/v1/countries/Atlantis/seasons/JJAS/regions", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- analyses ---

func TestAnalyze_Threshold(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodPost, "/v1/analyses", thresholdBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	report := decode[domain.Report](t, rec)
	assert.Equal(t, "req-1", report.ID)
	assert.Equal(t, []string{"Kano - JJAS", "Sokoto - JJAS"}, report.Comparison.Columns)
	assert.Equal(t, []int{2001, 2003}, report.BadYears.Years())
	assert.Nil(t, report.Comparison.Rows[3].Cells[1].RainfallMM, "Sokoto has no 2003 value")
}

func TestAnalyze_PartialFailureListed(t *testing.T) {
	body := `{"country":"Nigeria","seasons":["JJAS"],"regions":["Kano","Zaria"],"mode":"frequency","percentage":25}`
	rec := do(t, newTestServer(nil), http.MethodPost, "/v1/analyses", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	report := decode[domain.Report](t, rec)
	assert.Equal(t, []int{2003}, report.BadYears.Years())
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "Zaria - JJAS", report.Failures[0].Column)
}

func TestAnalyze_ClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"country":`, http.StatusBadRequest},
		{"unknown mode", `{"country":"Nigeria","seasons":["JJAS"],"regions":["Kano"],"mode":"median"}`, http.StatusBadRequest},
		{"percentage out of range", `{"country":"Nigeria","seasons":["JJAS"],"regions":["Kano"],"mode":"frequency","percentage":150}`, http.StatusBadRequest},
		{"empty selection", `{"country":"Nigeria","seasons":["JJAS"],"regions":[],"mode":"threshold","threshold_mm":10}`, http.StatusBadRequest},
		{"all malformed", `{"country":"Nigeria","seasons":["JJAS"],"regions":["Zaria"],"mode":"threshold","threshold_mm":10}`, http.StatusBadRequest},
		{"all missing", `{"country":"Nigeria","seasons":["JJAS"],"regions":["Atlantis"],"mode":"threshold","threshold_mm":10}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(nil), http.MethodPost, "/v1/analyses", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
		})
	}
}

// --- exports ---

func TestExport_CSV(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodPost, "/v1/analyses/export?format=csv", thresholdBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="bad_years_threshold_60_JJAS_Nigeria.csv"`, rec.Header().Get("Content-Disposition"))

	table, err := export.ParseCSV(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []string{"Kano - JJAS", "Sokoto - JJAS"}, table.Columns)
	assert.Equal(t, []int{2001, 2003}, table.Years())
}

func TestExport_XLSX(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodPost, "/v1/analyses/export?format=xlsx", thresholdBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Year", rows[0][0])
	assert.Equal(t, "2001", rows[1][0])
}

func TestExport_UnsupportedFormat(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodPost, "/v1/analyses/export?format=pdf", thresholdBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChart_PNG(t *testing.T) {
	rec := do(t, newTestServer(nil), http.MethodPost, "/v1/analyses/chart", thresholdBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Positive(t, img.Bounds().Dx())
}
