package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/rainfall-badyears/internal/domain"
	"github.com/couchcryptid/rainfall-badyears/internal/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDataDir = "../../data"

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestCatalog(t *testing.T) {
	out, _, err := run(t, "catalog", "--data-dir", sampleDataDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ghana", "Nigeria"}, lines(out))

	out, _, err = run(t, "catalog", "Nigeria", "--data-dir", sampleDataDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"JJA", "JJAS"}, lines(out))

	out, _, err = run(t, "catalog", "Nigeria", "JJAS", "--data-dir", sampleDataDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kano", "North Kaduna", "Sokoto"}, lines(out))
}

func TestCatalog_UnknownCountry(t *testing.T) {
	_, _, err := run(t, "catalog", "Atlantis", "--data-dir", sampleDataDir)
	require.ErrorIs(t, err, domain.ErrSeriesNotFound)
}

func TestAnalyze_Table(t *testing.T) {
	out, _, err := run(t, "analyze", "--data-dir", sampleDataDir,
		"--country", "Nigeria", "--season", "JJAS", "--percentage", "10")
	require.NoError(t, err)

	rows := lines(out)
	assert.Contains(t, rows[0], "Kano - JJAS")
	assert.Contains(t, rows[0], "Flagged By")
	// three columns, three flagged years each
	assert.GreaterOrEqual(t, len(rows)-1, 3)
	assert.LessOrEqual(t, len(rows)-1, 9)
	assert.Contains(t, out, "*")
}

func TestAnalyze_JSON(t *testing.T) {
	out, _, err := run(t, "analyze", "--data-dir", sampleDataDir, "--base-year", "2001",
		"--country", "Ghana", "--season", "JJAS", "--region", "Tamale", "--percentage", "20", "--json")
	require.NoError(t, err)

	var report domain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{"Tamale - JJAS"}, report.Comparison.Columns)
	assert.Equal(t, 2001, report.Comparison.Rows[0].Year)
	assert.Len(t, report.BadYears.Rows, domain.BadYearCount(20, 30))
}

func TestAnalyze_ThresholdAndPercentageExclusive(t *testing.T) {
	_, _, err := run(t, "analyze", "--data-dir", sampleDataDir,
		"--country", "Nigeria", "--season", "JJAS", "--threshold", "400", "--percentage", "10")
	require.Error(t, err)
}

func TestAnalyze_InvalidPercentage(t *testing.T) {
	_, _, err := run(t, "analyze", "--data-dir", sampleDataDir,
		"--country", "Nigeria", "--season", "JJAS", "--percentage", "0")

	var pctErr *domain.InvalidPercentageError
	require.ErrorAs(t, err, &pctErr)
}

func TestAnalyze_Chart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kano.png")
	_, _, err := run(t, "analyze", "--data-dir", sampleDataDir,
		"--country", "Nigeria", "--season", "JJAS", "--region", "Kano", "--threshold", "500", "--chart", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))
}

func TestExport_CSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	out, _, err := run(t, "export", "--data-dir", sampleDataDir,
		"--country", "Nigeria", "--season", "JJAS", "--threshold", "500", "-o", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	table, err := export.ParseCSV(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Kano - JJAS", "North Kaduna - JJAS", "Sokoto - JJAS"}, table.Columns)
}

func TestExport_Stdout(t *testing.T) {
	out, _, err := run(t, "export", "--data-dir", sampleDataDir,
		"--country", "Ghana", "--season", "JJAS", "--percentage", "50", "-o", "-")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Year,Bolgatanga - JJAS,Tamale - JJAS\n"), out)
}

func TestExport_UnsupportedFormat(t *testing.T) {
	_, _, err := run(t, "export", "--data-dir", sampleDataDir,
		"--country", "Ghana", "--season", "JJAS", "--percentage", "50", "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdf")
}

func TestValidate_SampleData(t *testing.T) {
	out, _, err := run(t, "validate", "-q", "--data-dir", sampleDataDir)
	require.NoError(t, err)
	assert.Equal(t, "8 series checked, 0 failed\n", out)

	out, _, err = run(t, "validate", "Ghana", "-q", "--data-dir", sampleDataDir)
	require.NoError(t, err)
	assert.Equal(t, "2 series checked, 0 failed\n", out)
}

func TestValidate_ReportsMalformed(t *testing.T) {
	dir := t.TempDir()
	season := filepath.Join(dir, "Nigeria", "JJAS")
	require.NoError(t, os.MkdirAll(season, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(season, "Kano_mean_data.csv"), []byte("1,100\n2,90\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(season, "Zaria_mean_data.csv"), []byte("1,100\n3,90\n"), 0o644))

	out, _, err := run(t, "validate", "-q", "--data-dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL Nigeria/JJAS/Zaria_mean_data.csv")
	assert.Contains(t, out, "2 series checked, 1 failed")
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := run(t, "catalog", "--data-dir", sampleDataDir, "--log-level", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}
