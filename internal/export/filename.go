package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/couchcryptid/rainfall-badyears/internal/domain"
)

// Filename names a download after its analysis, e.g.
// "bad_years_frequency_20_JJAS_Nigeria.csv". Spaces become underscores.
func Filename(report domain.Report, ext string) string {
	param := strconv.FormatFloat(report.Parameter, 'f', -1, 64)
	name := fmt.Sprintf("bad_years_%s_%s_%s_%s", report.Mode, param, strings.Join(report.Seasons, "-"), report.Country)
	return strings.ReplaceAll(name, " ", "_") + "." + ext
}
