// Package catalog discovers rainfall series laid out on disk as
// <root>/<country>/<season>/<region file>.csv.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/couchcryptid/rainfall-badyears/internal/domain"
)

// Catalog lists and opens series files. It only reads from its file system.
type Catalog struct {
	fsys fs.FS
}

// New creates a Catalog rooted at dir.
func New(dir string) *Catalog {
	return &Catalog{fsys: os.DirFS(dir)}
}

// NewFS creates a Catalog over an arbitrary file system, useful for testing.
func NewFS(fsys fs.FS) *Catalog {
	return &Catalog{fsys: fsys}
}

// Entry is one series file of a season directory.
type Entry struct {
	ID   domain.SeriesID
	File string
}

// RegionName derives a region name from a series file name, e.g.
// "North_Kano_mean_data.csv" -> "North Kano".
func RegionName(file string) string {
	name := strings.ReplaceAll(file, "mean_data.csv", "")
	name = strings.ReplaceAll(name, ".csv", "")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

// Countries returns the sorted country directories.
func (c *Catalog) Countries() ([]string, error) {
	return c.dirs(".")
}

// Seasons returns the sorted season directories of a country.
func (c *Catalog) Seasons(country string) ([]string, error) {
	if err := checkSegment(country); err != nil {
		return nil, err
	}
	return c.dirs(country)
}

// Regions returns the series files of a (country, season), sorted by region.
func (c *Catalog) Regions(country, season string) ([]Entry, error) {
	if err := checkSegment(country); err != nil {
		return nil, err
	}
	if err := checkSegment(season); err != nil {
		return nil, err
	}

	dir := path.Join(country, season)
	entries, err := fs.ReadDir(c.fsys, dir)
	if err != nil {
		return nil, notFound(dir, err)
	}

	var out []Entry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		out = append(out, Entry{
			ID:   domain.SeriesID{Country: country, Season: season, Region: RegionName(e.Name())},
			File: path.Join(dir, e.Name()),
		})
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.ID.Region, b.ID.Region) })
	return out, nil
}

// All returns every series in the catalog, ordered by country, season and region.
func (c *Catalog) All() ([]Entry, error) {
	countries, err := c.Countries()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, country := range countries {
		seasons, err := c.Seasons(country)
		if err != nil {
			return nil, err
		}
		for _, season := range seasons {
			entries, err := c.Regions(country, season)
			if err != nil {
				return nil, err
			}
			out = append(out, entries...)
		}
	}
	return out, nil
}

// Open returns the source of a series. It fails with domain.ErrSeriesNotFound
// when no file of the season maps to id.Region.
func (c *Catalog) Open(_ context.Context, id domain.SeriesID) (io.ReadCloser, error) {
	entries, err := c.Regions(id.Country, id.Season)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.ID.Region == id.Region {
			f, err := c.fsys.Open(e.File)
			if err != nil {
				return nil, fmt.Errorf("open series %s: %w", id, err)
			}
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrSeriesNotFound, id)
}

// CheckReadiness reports an error until at least one country is available.
func (c *Catalog) CheckReadiness(_ context.Context) error {
	countries, err := c.Countries()
	if err != nil {
		return fmt.Errorf("catalog unreadable: %w", err)
	}
	if len(countries) == 0 {
		return errors.New("catalog has no countries")
	}
	return nil
}

func (c *Catalog) dirs(dir string) ([]string, error) {
	entries, err := fs.ReadDir(c.fsys, dir)
	if err != nil {
		return nil, notFound(dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			out = append(out, e.Name())
		}
	}
	return out, nil // fs.ReadDir returns entries sorted by name
}

func checkSegment(s string) error {
	if s == "" || s == "." || strings.ContainsAny(s, `/\`) || !fs.ValidPath(s) {
		return fmt.Errorf("%w: invalid catalog name %q", domain.ErrSeriesNotFound, s)
	}
	return nil
}

func notFound(dir string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrSeriesNotFound, dir)
	}
	return fmt.Errorf("read catalog %s: %w", dir, err)
}
