package collector

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ChartQuest/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalize(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	raw := []model.Bar{
		{Date: date(2024, 1, 5), Close: 3},
		{Date: time.Date(2024, 1, 4, 15, 30, 0, 0, time.UTC), Close: 1},
		{Date: time.Date(2024, 1, 4, 9, 0, 0, 0, jst), Close: 2}, // same calendar day, later record
	}
	got := Normalize(raw)
	if len(got) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(got))
	}
	if !got[0].Date.Equal(date(2024, 1, 4)) || got[0].Close != 2 {
		t.Errorf("expected last duplicate to win at 2024-01-04, got %+v", got[0])
	}
	if got[0].Date.Location() != time.UTC {
		t.Errorf("expected UTC dates, got %s", got[0].Date.Location())
	}
	if !got[1].Date.Equal(date(2024, 1, 5)) {
		t.Errorf("expected ascending order, got %+v", got)
	}
}

func TestCollector_LoadMock(t *testing.T) {
	c := NewCollector(&MockFetcher{BasePrice: 2500}, "7203.T", 0)
	s, err := c.Load(2024)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if c.LookbackDays != DefaultLookbackDays {
		t.Errorf("expected default lookback, got %d", c.LookbackDays)
	}
	// 2024-01-01 is a Monday, so the mock series starts exactly there.
	if !s.Start.Equal(date(2024, 1, 1)) {
		t.Errorf("expected start 2024-01-01, got %s", s.Start)
	}
	if !s.End.Equal(date(2024, 12, 31)) {
		t.Errorf("expected end 2024-12-31, got %s", s.End)
	}
	if s.Index(s.Start) < 75 {
		t.Errorf("expected lookback bars before start, got index %d", s.Index(s.Start))
	}
	for _, b := range s.Bars {
		if wd := b.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("unexpected weekend bar %s", b.Date)
		}
	}
}

func TestCollector_StartFallsBackToFirstBar(t *testing.T) {
	bars := []model.Bar{{Date: date(2023, 12, 27), Close: 10}, {Date: date(2023, 12, 28), Close: 11}}
	s, err := NewCollector(&MockFetcher{Bars: bars}, "X", 10).Load(2024)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !s.Start.Equal(date(2023, 12, 27)) || !s.End.Equal(date(2023, 12, 28)) {
		t.Errorf("unexpected range %s .. %s", s.Start, s.End)
	}
}

func TestCollector_NoData(t *testing.T) {
	_, err := NewCollector(&MockFetcher{Bars: []model.Bar{}}, "X", 10).Load(2024)
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestCSVFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bars.csv")
	content := "Date,Open,High,Low,Close,Volume\n" +
		"2023-12-29,10,12,9,11,100\n" +
		"2024-01-04,11,13,10,12,200\n" +
		"2024-01-05,12,14,11,13.5,\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	bars, err := NewCSVFetcher(path).FetchDailyRange("ignored", date(2024, 1, 1), date(2024, 12, 31))
	if err != nil {
		t.Fatalf("FetchDailyRange() failed: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars in range, got %d", len(bars))
	}
	if bars[1].Close != 13.5 || bars[1].Volume != 0 {
		t.Errorf("unexpected bar %+v", bars[1])
	}
}

func TestReadBars_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing close", "date,open,high,low\n2024-01-04,1,2,3\n"},
		{"bad date", "date,open,high,low,close\n04/01/2024,1,2,3,4\n"},
		{"bad number", "date,open,high,low,close\n2024-01-04,1,x,3,4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadBars(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestYahooFetcher(t *testing.T) {
	// 2024-01-04 09:00 JST and a null holiday row.
	ts := date(2024, 1, 4).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "7203.T") {
			t.Errorf("expected mapped ticker in path, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" || r.URL.Query().Get("period1") == "" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"gmtoffset":32400},"timestamp":[%d,%d],
			"indicators":{"quote":[{"open":[2500,null],"high":[2550,null],"low":[2480,null],
			"close":[2530.4,null],"volume":[1000,null]}]}}],"error":null}}`, ts, ts+86400)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyRange("TOYOTA", date(2024, 1, 1), date(2024, 1, 31))
	if err != nil {
		t.Fatalf("FetchDailyRange() failed: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("expected null bar skipped, got %d bars", len(bars))
	}
	if !bars[0].Date.Equal(date(2024, 1, 4)) || bars[0].Close != 2530.4 {
		t.Errorf("unexpected bar %+v", bars[0])
	}
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	if _, err := f.FetchDailyRange("XXXX", date(2024, 1, 1), date(2024, 1, 31)); err == nil {
		t.Error("expected api error")
	}
}

func TestYahooFetcher_PartialRows(t *testing.T) {
	ts := date(2024, 1, 4).Unix()
	tests := []struct {
		name    string
		quote   string
		want    int
		wantErr error
	}{
		{"open missing falls back to close", `"open":[null],"high":[2550],"low":[2480],"close":[2530],"volume":[null]`, 1, nil},
		{"short columns", `"close":[2530]`, 1, nil},
		{"every close null", `"open":[2500],"close":[null]`, 0, ErrNoData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"gmtoffset":0},"timestamp":[%d],
					"indicators":{"quote":[{%s}]}}],"error":null}}`, ts, tt.quote)
			}))
			defer srv.Close()

			f := NewYahooFetcher("")
			f.BaseURL = srv.URL
			bars, err := f.FetchDailyRange("7203.T", date(2024, 1, 1), date(2024, 1, 31))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if len(bars) != tt.want {
				t.Fatalf("expected %d bars, got %d", tt.want, len(bars))
			}
			if tt.want > 0 && (bars[0].Open != 2530 || bars[0].Close != 2530 || bars[0].Volume != 0) {
				t.Errorf("unexpected bar %+v", bars[0])
			}
		})
	}
}
