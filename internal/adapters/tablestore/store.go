// Package tablestore persists grand prix tables as one CSV file per event.
package tablestore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/okian/gridcast/internal/domain/model"
	"github.com/okian/gridcast/internal/domain/schema"
	"github.com/okian/gridcast/internal/domain/table"
	"github.com/okian/gridcast/pkg/logger"
)

const (
	fileSuffix = "_grandprix_results_data.csv"
	dirSuffix  = "_data"
)

// Store reads and writes tables under a data directory laid out as
// <root>/<year>_data/<country>_<location>_<year>_grandprix_results_data.csv.
type Store struct {
	root string
	log  logger.Logger
}

// New creates a Store rooted at root.
func New(root string, opts ...Option) *Store {
	s := &Store{root: root, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the data directory.
func (s *Store) Root() string { return s.root }

// Path returns the file an event's table lives in.
func (s *Store) Path(key model.EventKey) string {
	name := fmt.Sprintf("%s_%s_%d%s", key.Country, key.Location, key.Year, fileSuffix)
	return filepath.Join(s.yearDir(key.Year), name)
}

func (s *Store) yearDir(year int) string {
	return filepath.Join(s.root, strconv.Itoa(year)+dirSuffix)
}

// Exists reports whether a table file is present for key.
func (s *Store) Exists(key model.EventKey) bool {
	info, err := os.Stat(s.Path(key))
	return err == nil && !info.IsDir()
}

// Save writes t in canonical column order. Missing cells are left empty.
func (s *Store) Save(ctx context.Context, key model.EventKey, t *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for i, record := range records(t) {
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	s.log.Info(ctx, "table saved",
		logger.String("event", key.String()),
		logger.String("path", path),
		logger.Int("rows", t.Len()),
	)
	return nil
}

func records(t *table.Table) [][]string {
	cols := schema.Project(t.Has).Names()
	header := append(schema.IdentityColumns(), cols...)
	out := make([][]string, 0, t.Len()+1)
	out = append(out, header)
	for i := 0; i < t.Len(); i++ {
		d := t.Driver(i)
		rec := make([]string, 0, len(header))
		rec = append(rec, strconv.Itoa(d.Number), d.Name, d.Team)
		for _, c := range cols {
			rec = append(rec, formatCell(t.At(i, c)))
		}
		out = append(out, rec)
	}
	return out
}

func formatCell(v float64) string {
	if table.IsMissing(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Load reads an event's table. A missing file yields ErrTableNotFound; a
// file with a header and no rows yields an empty table.
func (s *Store) Load(ctx context.Context, key model.EventKey) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(key)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", key, ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
	}
	return parse(recs)
}

func parse(recs [][]string) (*table.Table, error) {
	if len(recs) == 0 {
		return table.New(nil), nil
	}
	header := recs[0]
	for _, id := range schema.IdentityColumns() {
		if !contains(header, id) {
			return nil, fmt.Errorf("%w: missing column %s", ErrMalformed, id)
		}
	}
	if len(recs) == 1 {
		return table.New(nil), nil
	}

	df := dataframe.LoadRecords(recs,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float),
		dataframe.WithTypes(map[string]series.Type{
			schema.DriverNumber: series.Int,
			schema.DriverName:   series.String,
			schema.TeamName:     series.String,
		}),
		dataframe.NaNValues([]string{"", "NA", "NaN", "nan"}),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, df.Err)
	}

	numbers, err := df.Col(schema.DriverNumber).Int()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, schema.DriverNumber, err)
	}
	names := df.Col(schema.DriverName).Records()
	teams := df.Col(schema.TeamName).Records()
	drivers := make([]model.DriverIdentity, df.Nrow())
	for i := range drivers {
		drivers[i] = model.DriverIdentity{Number: numbers[i], Name: names[i], Team: teams[i]}
	}

	t := table.New(drivers)
	identity := schema.New(schema.IdentityColumns()...)
	for _, name := range df.Names() {
		if identity.Has(name) {
			continue
		}
		if err := t.AddColumn(name, df.Col(name).Float()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, name, err)
		}
	}
	return t, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// List returns the events with a table file for year, sorted by key.
// A missing year directory yields no events.
func (s *Store) List(_ context.Context, year int) ([]model.EventKey, error) {
	entries, err := os.ReadDir(s.yearDir(year))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %d: %w", year, err)
	}
	suffix := fmt.Sprintf("_%d%s", year, fileSuffix)
	var keys []model.EventKey
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}
		country, location, ok := strings.Cut(strings.TrimSuffix(name, suffix), "_")
		if !ok || country == "" || location == "" {
			continue
		}
		keys = append(keys, model.EventKey{Country: country, Location: location, Year: year})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys, nil
}
