package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"rainwatch/internal/domain/models"
	"rainwatch/internal/domain/repository"
)

func dailySeries(start time.Time, rain []float64) models.HistoricalSeries {
	series := make(models.HistoricalSeries, 0, len(rain))
	for i := range rain {
		r := rain[i]
		series = append(series, models.Observation{
			Timestamp:  start.AddDate(0, 0, i),
			RainfallMM: &r,
		})
	}
	return series
}

func syntheticRain(n int) []float64 {
	rain := make([]float64, n)
	for i := range rain {
		rain[i] = 2 + 0.01*float64(i) + 3*math.Abs(math.Sin(float64(i)))
	}
	return rain
}

func TestPredictHorizonAndDates(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, syntheticRain(365))
	model := New(Options{MinHistory: 30, WeeklySeasonality: true, IntervalWidth: 0.8})

	for _, horizon := range []repository.Horizon{repository.Horizon7, repository.Horizon15} {
		result, err := model.Predict(context.Background(), series, horizon)
		if err != nil {
			t.Fatalf("Predict(%d) error: %v", horizon, err)
		}
		if len(result.Points) != int(horizon) {
			t.Fatalf("got %d points, want %d", len(result.Points), horizon)
		}
		if result.Model != ModelName {
			t.Fatalf("unexpected model name %q", result.Model)
		}
		if result.TrainedOn != 365 {
			t.Fatalf("trained on %d points, want 365", result.TrainedOn)
		}
		last := start.AddDate(0, 0, 364)
		for i, p := range result.Points {
			want := last.AddDate(0, 0, i+1)
			if !p.Date.Equal(want) {
				t.Fatalf("point %d date %s, want %s", i, p.Date, want)
			}
		}
	}
}

func TestPredictBoundsOrdered(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, syntheticRain(120))
	model := New(Options{MinHistory: 30, WeeklySeasonality: true, IntervalWidth: 0.8})

	result, err := model.Predict(context.Background(), series, 15)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	for i, p := range result.Points {
		if p.Lower > p.PredictedMM || p.PredictedMM > p.Upper {
			t.Fatalf("point %d bounds out of order: %f <= %f <= %f",
				i, p.Lower, p.PredictedMM, p.Upper)
		}
		if p.Lower < 0 || p.PredictedMM < 0 {
			t.Fatalf("point %d negative rainfall: lower=%f predicted=%f",
				i, p.Lower, p.PredictedMM)
		}
	}
}

func TestPredictDeterministic(t *testing.T) {
	start := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, syntheticRain(90))
	model := New(Options{MinHistory: 30, WeeklySeasonality: true, IntervalWidth: 0.8})

	first, err := model.Predict(context.Background(), series, 7)
	if err != nil {
		t.Fatalf("first Predict error: %v", err)
	}
	second, err := model.Predict(context.Background(), series, 7)
	if err != nil {
		t.Fatalf("second Predict error: %v", err)
	}
	for i := range first.Points {
		if first.Points[i] != second.Points[i] {
			t.Fatalf("point %d differs between runs: %+v vs %+v",
				i, first.Points[i], second.Points[i])
		}
	}
}

func TestPredictInsufficientHistory(t *testing.T) {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	model := New(Options{MinHistory: 30})

	// Any series with fewer usable points than the threshold classifies
	// as insufficient history, including single-point series.
	for _, n := range []int{1, 2, 12, 29} {
		series := dailySeries(start, syntheticRain(n))
		_, err := model.Predict(context.Background(), series, 7)
		if !errors.Is(err, models.ErrInsufficientHistory) {
			t.Fatalf("%d points: got %v, want ErrInsufficientHistory", n, err)
		}
	}
}

func TestPredictSkipsMissingRainfall(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, syntheticRain(60))
	for i := 0; i < len(series); i += 3 {
		series[i].RainfallMM = nil
	}
	model := New(Options{MinHistory: 30})

	result, err := model.Predict(context.Background(), series, 7)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	if result.TrainedOn != 40 {
		t.Fatalf("trained on %d points, want 40", result.TrainedOn)
	}
}

func TestPredictNoRainfallData(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(models.HistoricalSeries, 10)
	for i := range series {
		series[i] = models.Observation{Timestamp: start.AddDate(0, 0, i)}
	}
	model := New(Options{MinHistory: 5})

	// Zero usable points is below any threshold.
	_, err := model.Predict(context.Background(), series, 7)
	if !errors.Is(err, models.ErrInsufficientHistory) {
		t.Fatalf("got %v, want ErrInsufficientHistory", err)
	}
}

func TestPredictSingleDayIsModelFit(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, syntheticRain(1))
	model := New(Options{MinHistory: 1})

	// With the history threshold satisfied, one training day is still
	// unfittable.
	_, err := model.Predict(context.Background(), series, 7)
	if !errors.Is(err, models.ErrModelFit) {
		t.Fatalf("got %v, want ErrModelFit", err)
	}
}

func TestPredictUnorderedSeries(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, syntheticRain(40))
	series[10], series[20] = series[20], series[10]
	model := New(Options{MinHistory: 30})

	_, err := model.Predict(context.Background(), series, 7)
	if !errors.Is(err, models.ErrModelFit) {
		t.Fatalf("got %v, want ErrModelFit", err)
	}
}

func TestPredictConstantSeries(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rain := make([]float64, 45)
	for i := range rain {
		rain[i] = 5
	}
	series := dailySeries(start, rain)
	model := New(Options{MinHistory: 30, WeeklySeasonality: true})

	result, err := model.Predict(context.Background(), series, 7)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	for i, p := range result.Points {
		if math.Abs(p.PredictedMM-5) > 1e-6 {
			t.Fatalf("point %d predicted %f, want 5", i, p.PredictedMM)
		}
	}
}

func TestPredictToleratesGaps(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, syntheticRain(60))
	gappy := make(models.HistoricalSeries, 0, 40)
	for i, obs := range series {
		if i%5 == 4 {
			continue
		}
		gappy = append(gappy, obs)
	}
	model := New(Options{MinHistory: 30})

	result, err := model.Predict(context.Background(), gappy, 7)
	if err != nil {
		t.Fatalf("Predict error: %v", err)
	}
	last, _ := gappy.LastDate()
	if !result.Points[0].Date.Equal(last.AddDate(0, 0, 1)) {
		t.Fatalf("first forecast date %s does not follow last observation %s",
			result.Points[0].Date, last)
	}
}

func TestPredictRejectsBadHorizon(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := dailySeries(start, syntheticRain(60))
	model := New(Options{MinHistory: 30})

	_, err := model.Predict(context.Background(), series, 0)
	if !errors.Is(err, models.ErrInvalidRange) {
		t.Fatalf("got %v, want ErrInvalidRange", err)
	}
}
