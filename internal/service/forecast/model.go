package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"rainwatch/internal/domain/models"
	"rainwatch/internal/domain/repository"
	"rainwatch/pkg/util"
)

const (
	// ModelName identifies the forecasting method in API responses.
	ModelName = "additive-decomposition"

	// bandGrowth controls how fast the uncertainty band widens
	// with each step into the future.
	bandGrowth = 0.05
)

// Options tune the forecast model.
type Options struct {
	// MinHistory is the minimum number of daily rainfall points
	// required before a forecast is attempted.
	MinHistory int

	// WeeklySeasonality adds a day-of-week component on top of the
	// linear trend.
	WeeklySeasonality bool

	// IntervalWidth is the nominal coverage of the uncertainty band,
	// e.g. 0.8 for an 80% band.
	IntervalWidth float64
}

// Model produces daily rainfall forecasts from a historical series using
// an additive decomposition: a linear trend, an optional day-of-week
// seasonal component, and residual quantiles for the uncertainty band.
// The same input always yields the same forecast.
type Model struct {
	opts Options
}

// New builds a Model, filling unset options with workable defaults.
func New(opts Options) *Model {
	if opts.MinHistory <= 0 {
		opts.MinHistory = 30
	}
	if opts.IntervalWidth <= 0 || opts.IntervalWidth >= 1 {
		opts.IntervalWidth = 0.8
	}
	return &Model{opts: opts}
}

// Predict generates a rainfall forecast for the given horizon in days.
// The series must be ordered by ascending timestamp. Points without a
// rainfall value are ignored; if fewer than MinHistory usable points
// remain the forecast is refused with ErrInsufficientHistory.
func (m *Model) Predict(ctx context.Context, series models.HistoricalSeries, h repository.Horizon) (models.ForecastResult, error) {
	if err := ctx.Err(); err != nil {
		return models.ForecastResult{}, err
	}
	if !repository.IsValidHorizon(h) {
		return models.ForecastResult{}, fmt.Errorf("horizon %d: %w", h, models.ErrInvalidRange)
	}
	horizon := int(h)

	// Too little usable history always classifies as InsufficientHistory,
	// even when the series is also degenerate in other ways.
	if usable := series.RainfallCount(); usable < m.opts.MinHistory {
		return models.ForecastResult{}, fmt.Errorf("%d rainfall points, need %d: %w",
			usable, m.opts.MinHistory, models.ErrInsufficientHistory)
	}

	origin, xs, ys, weekdays, err := trainingPoints(series)
	if err != nil {
		return models.ForecastResult{}, err
	}

	slope, intercept, ok := fitLine(xs, ys)
	if !ok {
		return models.ForecastResult{}, fmt.Errorf("degenerate day index: %w", models.ErrModelFit)
	}

	var seasonal [7]float64
	if m.opts.WeeklySeasonality {
		seasonal = weekdayMeans(xs, ys, weekdays, slope, intercept)
	}

	residuals := make([]float64, len(xs))
	for i := range xs {
		fitted := intercept + slope*xs[i]
		if m.opts.WeeklySeasonality {
			fitted += seasonal[weekdays[i]]
		}
		residuals[i] = ys[i] - fitted
	}

	loQ := quantile(residuals, (1-m.opts.IntervalWidth)/2)
	hiQ := quantile(residuals, (1+m.opts.IntervalWidth)/2)

	lastDate, _ := series.LastDate()
	lastDate = util.Midnight(lastDate)

	points := make([]models.ForecastPoint, 0, horizon)
	for step := 1; step <= horizon; step++ {
		date := lastDate.AddDate(0, 0, step)
		x := dayIndex(origin, date)

		raw := intercept + slope*x
		if m.opts.WeeklySeasonality {
			raw += seasonal[int(date.Weekday())]
		}

		scale := math.Sqrt(1 + float64(step-1)*bandGrowth)
		predicted := math.Max(0, raw)
		lower := math.Max(0, math.Min(predicted, raw+loQ*scale))
		upper := math.Max(predicted, raw+hiQ*scale)

		points = append(points, models.ForecastPoint{
			Date:        date,
			PredictedMM: predicted,
			Lower:       lower,
			Upper:       upper,
		})
	}

	return models.ForecastResult{
		Horizon:     horizon,
		TrainedOn:   len(xs),
		GeneratedAt: time.Now().UTC(),
		Model:       ModelName,
		Points:      points,
	}, nil
}

// trainingPoints extracts the usable rainfall observations as day-index
// x values relative to the first usable date. The series must be
// strictly ascending by day and span at least two distinct days.
func trainingPoints(series models.HistoricalSeries) (origin time.Time, xs, ys []float64, weekdays []int, err error) {
	for _, obs := range series {
		if obs.RainfallMM == nil {
			continue
		}
		day := util.Midnight(obs.Timestamp)
		if origin.IsZero() {
			origin = day
		}
		x := dayIndex(origin, day)
		if n := len(xs); n > 0 && x <= xs[n-1] {
			return time.Time{}, nil, nil, nil,
				fmt.Errorf("observations out of order at %s: %w", day.Format("2006-01-02"), models.ErrModelFit)
		}
		xs = append(xs, x)
		ys = append(ys, *obs.RainfallMM)
		weekdays = append(weekdays, int(day.Weekday()))
	}
	if len(xs) == 0 {
		return time.Time{}, nil, nil, nil,
			fmt.Errorf("no rainfall observations: %w", models.ErrModelFit)
	}
	if len(xs) < 2 {
		return time.Time{}, nil, nil, nil,
			fmt.Errorf("single training day: %w", models.ErrModelFit)
	}
	return origin, xs, ys, weekdays, nil
}

// weekdayMeans averages the detrended values per day of week. Days of
// week absent from the training window contribute zero.
func weekdayMeans(xs, ys []float64, weekdays []int, slope, intercept float64) [7]float64 {
	var sums, counts [7]float64
	for i := range xs {
		detrended := ys[i] - (intercept + slope*xs[i])
		sums[weekdays[i]] += detrended
		counts[weekdays[i]]++
	}
	var means [7]float64
	for d := 0; d < 7; d++ {
		if counts[d] > 0 {
			means[d] = sums[d] / counts[d]
		}
	}
	return means
}

func dayIndex(origin, day time.Time) float64 {
	return math.Round(day.Sub(origin).Hours() / 24)
}
