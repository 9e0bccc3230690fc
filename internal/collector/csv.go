package collector

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"ChartQuest/internal/model"
)

const csvDateLayout = "2006-01-02"

// CSVFetcher reads bars from a local file with the header
// date,open,high,low,close,volume. The symbol argument is ignored.
type CSVFetcher struct {
	Path string
}

func NewCSVFetcher(path string) *CSVFetcher {
	return &CSVFetcher{Path: path}
}

func (f *CSVFetcher) Name() string { return "csv" }

func (f *CSVFetcher) FetchDailyRange(_ string, from, to time.Time) ([]model.Bar, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	all, err := ReadBars(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Path, err)
	}

	from, to = model.Day(from), model.Day(to)
	bars := make([]model.Bar, 0, len(all))
	for _, b := range all {
		if b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// ReadBars parses CSV rows in the order they appear. Columns are located by
// header name so files exported with extra columns still load.
func ReadBars(r io.Reader) ([]model.Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range []string{"date", "open", "high", "low", "close"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var bars []model.Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		day, err := time.Parse(csvDateLayout, rec[cols["date"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: parse date: %w", line, err)
		}
		b := model.Bar{Date: day}
		for _, fld := range []struct {
			name string
			dst  *float64
		}{
			{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low}, {"close", &b.Close}, {"volume", &b.Volume},
		} {
			i, ok := cols[fld.name]
			if !ok || i >= len(rec) || rec[i] == "" {
				continue
			}
			if *fld.dst, err = strconv.ParseFloat(rec[i], 64); err != nil {
				return nil, fmt.Errorf("line %d: parse %s: %w", line, fld.name, err)
			}
		}
		bars = append(bars, b)
	}
	return bars, nil
}
