package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"rainwatch/internal/domain/models"
	drepo "rainwatch/internal/domain/repository"
	"rainwatch/internal/service/forecast"
	"rainwatch/internal/service/risk"
	"rainwatch/pkg/cache"
	"rainwatch/pkg/logger"
)

type fakeHistory struct {
	series models.HistoricalSeries
	err    error
	calls  int
}

func (f *fakeHistory) Daily(_ context.Context, _ models.Location, _, _ time.Time) (models.HistoricalSeries, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.series, nil
}

type fakeLive struct {
	conditions models.LiveConditions
	err        error
	calls      int
}

func (f *fakeLive) Current(_ context.Context, _ models.Location) (models.LiveConditions, error) {
	f.calls++
	if f.err != nil {
		return models.LiveConditions{}, f.err
	}
	return f.conditions, nil
}

type fakeArchive struct {
	series models.HistoricalSeries
	stored []*models.Observation
	err    error
}

func (f *fakeArchive) Init(context.Context) error { return nil }
func (f *fakeArchive) Store(_ context.Context, o *models.Observation) error {
	f.stored = append(f.stored, o)
	return f.err
}
func (f *fakeArchive) StoreBatch(_ context.Context, obs []*models.Observation) error {
	f.stored = append(f.stored, obs...)
	return f.err
}
func (f *fakeArchive) Query(context.Context, time.Time, time.Time) (models.HistoricalSeries, error) {
	return f.series, f.err
}
func (f *fakeArchive) Health(context.Context) error { return nil }
func (f *fakeArchive) Close() error                 { return nil }

type noopMetrics struct{}

func (noopMetrics) RecordFetch(string, string)    {}
func (noopMetrics) RecordError(string)            {}
func (noopMetrics) RecordLive(float64, float64)   {}
func (noopMetrics) RecordLatency(string, float64) {}
func (noopMetrics) RecordCacheLookup(string, bool) {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func trainingSeries(n int) models.HistoricalSeries {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(models.HistoricalSeries, 0, n)
	for i := 0; i < n; i++ {
		r := 2 + float64(i%7)
		series = append(series, models.Observation{
			Timestamp:  start.AddDate(0, 0, i),
			RainfallMM: &r,
		})
	}
	return series
}

func newTestDashboard(t *testing.T, history *fakeHistory, live *fakeLive, archive drepo.ObservationArchive) *Dashboard {
	t.Helper()
	return NewDashboard(
		models.Location{Name: "Jammu", Latitude: 32.73, Longitude: 74.86, AltitudeM: 327},
		history,
		live,
		archive,
		forecast.New(forecast.Options{MinHistory: 30, WeeklySeasonality: true, IntervalWidth: 0.8}),
		risk.NewScorer(nil, risk.Options{}),
		cache.NewMemoryCache(),
		noopMetrics{},
		testLogger(t),
		DashboardOptions{LiveTTL: 50 * time.Millisecond, ForecastTTL: time.Minute, LookbackDays: 90},
	)
}

func TestLiveServedFromCacheWithinTTL(t *testing.T) {
	live := &fakeLive{conditions: models.LiveConditions{
		ObservedAt:   time.Now().UTC(),
		TemperatureC: 31.2,
		RainfallMM:   0.4,
	}}
	d := newTestDashboard(t, &fakeHistory{}, live, nil)

	first, err := d.Live(context.Background())
	if err != nil {
		t.Fatalf("first Live error: %v", err)
	}
	if first.Cached {
		t.Fatal("first fetch reported as cached")
	}
	if first.FetchedAt.IsZero() {
		t.Fatal("first fetch missing FetchedAt")
	}

	second, err := d.Live(context.Background())
	if err != nil {
		t.Fatalf("second Live error: %v", err)
	}
	if !second.Cached {
		t.Fatal("second fetch within TTL not served from cache")
	}
	if !second.FetchedAt.Equal(first.FetchedAt) {
		t.Fatal("cached copy lost its original fetch time")
	}
	if live.calls != 1 {
		t.Fatalf("provider called %d times, want 1", live.calls)
	}
}

func TestLiveRefreshesAfterTTL(t *testing.T) {
	live := &fakeLive{conditions: models.LiveConditions{
		ObservedAt:   time.Now().UTC(),
		TemperatureC: 28,
	}}
	d := newTestDashboard(t, &fakeHistory{}, live, nil)

	if _, err := d.Live(context.Background()); err != nil {
		t.Fatalf("first Live error: %v", err)
	}
	time.Sleep(80 * time.Millisecond)

	refreshed, err := d.Live(context.Background())
	if err != nil {
		t.Fatalf("refresh Live error: %v", err)
	}
	if refreshed.Cached {
		t.Fatal("expired entry still served from cache")
	}
	if live.calls != 2 {
		t.Fatalf("provider called %d times, want 2", live.calls)
	}
}

func TestHistoryFallsBackToArchive(t *testing.T) {
	archived := trainingSeries(10)
	history := &fakeHistory{err: models.ErrTransport}
	d := newTestDashboard(t, history, &fakeLive{}, &fakeArchive{series: archived})

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series, err := d.History(context.Background(), start, start.AddDate(0, 0, 9))
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(series) != len(archived) {
		t.Fatalf("got %d points from archive, want %d", len(series), len(archived))
	}
}

func TestHistoryFallsBackWhenProviderHasNoRecords(t *testing.T) {
	archived := trainingSeries(60)
	history := &fakeHistory{err: models.ErrDataUnavailable}
	d := newTestDashboard(t, history, &fakeLive{}, &fakeArchive{series: archived})

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series, err := d.History(context.Background(), start, start.AddDate(0, 0, 59))
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(series) != len(archived) {
		t.Fatalf("got %d points from archive, want %d", len(series), len(archived))
	}
}

func TestHistoryInvalidRangeSkipsFallback(t *testing.T) {
	history := &fakeHistory{err: models.ErrInvalidRange}
	archive := &fakeArchive{series: trainingSeries(10)}
	d := newTestDashboard(t, history, &fakeLive{}, archive)

	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	_, err := d.History(context.Background(), start, start.AddDate(0, 0, -5))
	if !errors.Is(err, models.ErrInvalidRange) {
		t.Fatalf("got %v, want ErrInvalidRange", err)
	}
}

func TestHistoryEmptyArchiveIsUnavailable(t *testing.T) {
	history := &fakeHistory{err: models.ErrTransport}
	d := newTestDashboard(t, history, &fakeLive{}, &fakeArchive{})

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := d.History(context.Background(), start, start.AddDate(0, 0, 9))
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("got %v, want ErrDataUnavailable", err)
	}
}

func TestForecastCachedForUnchangedSeries(t *testing.T) {
	history := &fakeHistory{series: trainingSeries(60)}
	d := newTestDashboard(t, history, &fakeLive{}, nil)

	first, err := d.Forecast(context.Background(), drepo.Horizon7)
	if err != nil {
		t.Fatalf("first Forecast error: %v", err)
	}
	second, err := d.Forecast(context.Background(), drepo.Horizon7)
	if err != nil {
		t.Fatalf("second Forecast error: %v", err)
	}
	if len(first.Points) != 7 || len(second.Points) != 7 {
		t.Fatalf("unexpected point counts %d and %d", len(first.Points), len(second.Points))
	}
	for i := range first.Points {
		if first.Points[i].PredictedMM != second.Points[i].PredictedMM {
			t.Fatalf("point %d differs between cached runs", i)
		}
	}
	if !first.GeneratedAt.Equal(second.GeneratedAt) {
		t.Fatal("second call refit the model instead of using the cache")
	}
}

func TestForecastRefitsWhenSeriesContentChanges(t *testing.T) {
	history := &fakeHistory{series: trainingSeries(60)}
	d := newTestDashboard(t, history, &fakeLive{}, nil)

	first, err := d.Forecast(context.Background(), drepo.Horizon7)
	if err != nil {
		t.Fatalf("first Forecast error: %v", err)
	}

	// Same length and last date, very different rainfall values. A revised
	// series must miss the cache and refit rather than reuse the old model.
	revised := trainingSeries(60)
	for i := range revised {
		v := *revised[i].RainfallMM + 100
		revised[i].RainfallMM = &v
	}
	history.series = revised

	second, err := d.Forecast(context.Background(), drepo.Horizon7)
	if err != nil {
		t.Fatalf("second Forecast error: %v", err)
	}
	if first.Points[0].PredictedMM == second.Points[0].PredictedMM {
		t.Fatal("revised series served a stale cached forecast")
	}
}

func TestForecastSeparateCachePerHorizon(t *testing.T) {
	history := &fakeHistory{series: trainingSeries(60)}
	d := newTestDashboard(t, history, &fakeLive{}, nil)

	week, err := d.Forecast(context.Background(), drepo.Horizon7)
	if err != nil {
		t.Fatalf("Forecast(7) error: %v", err)
	}
	fortnight, err := d.Forecast(context.Background(), drepo.Horizon15)
	if err != nil {
		t.Fatalf("Forecast(15) error: %v", err)
	}
	if len(week.Points) != 7 || len(fortnight.Points) != 15 {
		t.Fatalf("got %d and %d points, want 7 and 15",
			len(week.Points), len(fortnight.Points))
	}
}

func TestForecastInsufficientHistory(t *testing.T) {
	history := &fakeHistory{series: trainingSeries(10)}
	d := newTestDashboard(t, history, &fakeLive{}, nil)

	_, err := d.Forecast(context.Background(), drepo.Horizon7)
	if !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("got %v, want ErrInsufficientHistory", err)
	}
}

func TestRiskSitesScoredAgainstForecast(t *testing.T) {
	history := &fakeHistory{series: trainingSeries(60)}
	d := newTestDashboard(t, history, &fakeLive{}, nil)

	sites, err := d.RiskSites(context.Background(), drepo.Horizon7)
	if err != nil {
		t.Fatalf("RiskSites error: %v", err)
	}
	if len(sites) == 0 {
		t.Fatal("no scored sites returned")
	}
	for _, s := range sites {
		if s.Risk == "" {
			t.Fatalf("site %s has no risk level", s.Name)
		}
	}
}

func TestProcessorRoutesToArchive(t *testing.T) {
	archive := &fakeArchive{}
	p, err := NewObservationProcessor(BackendClickHouse, nil, archive, noopMetrics{}, testLogger(t))
	if err != nil {
		t.Fatalf("NewObservationProcessor error: %v", err)
	}

	rain := 1.5
	obs := &models.Observation{Timestamp: time.Now().UTC(), RainfallMM: &rain}
	if err := p.Process(context.Background(), obs); err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if len(archive.stored) != 1 {
		t.Fatalf("archive holds %d observations, want 1", len(archive.stored))
	}
}

func TestProcessorRejectsUnwiredBackend(t *testing.T) {
	if _, err := NewObservationProcessor(BackendKafka, nil, nil, noopMetrics{}, testLogger(t)); err == nil {
		t.Fatal("kafka backend without publisher accepted")
	}
	if _, err := NewObservationProcessor("mqtt", nil, nil, noopMetrics{}, testLogger(t)); err == nil {
		t.Fatal("unknown backend accepted")
	}
}

func TestObservationsHandlerArchivesMessage(t *testing.T) {
	archive := &fakeArchive{}
	h := NewObservationsHandler("observations", archive, noopMetrics{}, testLogger(t))

	if got := h.Topic(); got != "observations" {
		t.Fatalf("topic %q, want observations", got)
	}
	msg := []byte(`{"timestamp":"2025-08-01T12:00:00Z","rainfall_mm":3.2,"temperature_c":29.5}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	if len(archive.stored) != 1 {
		t.Fatalf("archive holds %d observations, want 1", len(archive.stored))
	}
	if archive.stored[0].RainfallMM == nil || *archive.stored[0].RainfallMM != 3.2 {
		t.Fatal("rainfall value lost in transit")
	}

	if err := h.Handle(context.Background(), []byte("not json")); err == nil {
		t.Fatal("malformed message accepted")
	}
	if err := h.Handle(context.Background(), []byte(`{"rainfall_mm":1}`)); err == nil {
		t.Fatal("message without timestamp accepted")
	}
}
