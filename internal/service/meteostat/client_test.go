package meteostat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rainwatch/internal/domain/models"
)

var jammu = models.Location{Name: "Jammu", Latitude: 32.73, Longitude: 74.86, AltitudeM: 327}

const dailyFixture = `{"data":[
	{"date":"2025-08-03","tavg":30.1,"prcp":0},
	{"date":"2025-08-01","tavg":29.4,"prcp":12.5},
	{"date":"2025-08-02","tavg":null,"prcp":3.1},
	{"date":"2025-08-04","tavg":null,"prcp":null},
	{"date":"2025-08-05","tavg":31.0,"prcp":null}
]}`

func newTestClient(url string) *Client {
	return New("test-key", url, 3650, 5*time.Second).(*Client)
}

func TestDailyParsesAndOrders(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-rapidapi-key")
		if r.URL.Path != "/point/daily" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("start"); got != "2025-08-01" {
			t.Errorf("start param %s", got)
		}
		w.Write([]byte(dailyFixture))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC)

	series, err := c.Daily(context.Background(), jammu, start, end)
	if err != nil {
		t.Fatalf("Daily error: %v", err)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key header %q", gotKey)
	}

	// The all-null padding row drops; four observations remain.
	if len(series) != 4 {
		t.Fatalf("got %d observations, want 4", len(series))
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Timestamp.After(series[i-1].Timestamp) {
			t.Fatalf("series not ascending at %d", i)
		}
	}
	if series[0].RainfallMM == nil || *series[0].RainfallMM != 12.5 {
		t.Fatal("first day rainfall lost")
	}
	if series[1].TemperatureC != nil {
		t.Fatal("null temperature should stay nil")
	}
	if series[3].RainfallMM != nil {
		t.Fatal("null rainfall should stay nil")
	}
}

func TestDailyRejectsRangeBeforeRequest(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(dailyFixture))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	start := time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.Daily(context.Background(), jammu, start, end)
	if !errors.Is(err, models.ErrInvalidRange) {
		t.Fatalf("got %v, want ErrInvalidRange", err)
	}
	if requests != 0 {
		t.Fatalf("%d requests sent for an invalid range, want 0", requests)
	}
}

func TestDailyLookbackCap(t *testing.T) {
	c := New("test-key", "http://unused", 30, 5*time.Second)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.Daily(context.Background(), jammu, start, end)
	if !errors.Is(err, models.ErrInvalidRange) {
		t.Fatalf("got %v, want ErrInvalidRange", err)
	}
}

func TestDailyNoRecordsIs404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.Daily(context.Background(), jammu, start, start.AddDate(0, 0, 5))
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("got %v, want ErrDataUnavailable", err)
	}
}

func TestDailyEmptyPayloadIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.Daily(context.Background(), jammu, start, start.AddDate(0, 0, 5))
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("got %v, want ErrDataUnavailable", err)
	}
}

func TestDailyAuthFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	_, err := c.Daily(context.Background(), jammu, start, start.AddDate(0, 0, 5))
	if !errors.Is(err, models.ErrTransport) {
		t.Fatalf("got %v, want ErrTransport", err)
	}
}
