// Package dataset reads the historical flood CSV shown on the map.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Parse reads all rows from r. The header must contain every column in
// domain.DatasetColumns; extra columns are ignored. A row with a blank cell
// in a required column is skipped, since it can never pass the map filter.
// Any other unparseable value fails the whole read with its line number.
func Parse(r io.Reader) ([]domain.DatasetRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("empty dataset")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		colIdx[h] = i
	}
	for _, col := range domain.DatasetColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	var rows []domain.DatasetRow
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		row, ok, err := parseRow(rec, colIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func parseRow(rec []string, colIdx map[string]int) (domain.DatasetRow, bool, error) {
	p := fieldParser{rec: rec, colIdx: colIdx}
	row := domain.DatasetRow{
		Latitude:    p.float(domain.ColLatitude),
		Longitude:   p.float(domain.ColLongitude),
		Rainfall:    p.float(domain.ColRainfall),
		Temperature: p.float(domain.ColTemperature),
		Humidity:    p.float(domain.ColHumidity),
		WaterLevel:  p.float(domain.ColWaterLevel),
	}
	flood := p.float(domain.ColFlood)
	if p.err != nil {
		return domain.DatasetRow{}, false, p.err
	}
	if p.blank {
		return domain.DatasetRow{}, false, nil
	}
	if flood != 0 && flood != 1 {
		return domain.DatasetRow{}, false, fmt.Errorf("%s must be 0 or 1, got %v", domain.ColFlood, flood)
	}
	row.FloodOccurred = int(flood)
	return row, true, nil
}

// fieldParser keeps the first error so a row can be parsed in one expression.
// blank records whether any required cell was empty.
type fieldParser struct {
	rec    []string
	colIdx map[string]int
	err    error
	blank  bool
}

func (p *fieldParser) float(col string) float64 {
	if p.err != nil {
		return 0
	}
	i := p.colIdx[col]
	if i >= len(p.rec) {
		p.err = fmt.Errorf("%s: missing value", col)
		return 0
	}
	raw := strings.TrimSpace(p.rec[i])
	if raw == "" {
		p.blank = true
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", col, err)
		return 0
	}
	return v
}

// Source loads the dataset file, re-reading it only when its size or
// modification time changes.
type Source struct {
	path string

	mu      sync.Mutex
	rows    []domain.DatasetRow
	modTime time.Time
	size    int64
}

// NewSource returns a Source for path. Nothing is read until Rows is called.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Path returns the dataset location.
func (s *Source) Path() string { return s.path }

// Rows returns the current dataset contents.
func (s *Source) Rows() ([]domain.DatasetRow, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rows != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return s.rows, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := Parse(f)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.DatasetRow{}
	}
	s.rows, s.modTime, s.size = rows, info.ModTime(), info.Size()
	return rows, nil
}
