package usecase

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"rainwatch/internal/domain/models"
	drepo "rainwatch/internal/domain/repository"
	"rainwatch/internal/domain/service"
	"rainwatch/pkg/cache"
	"rainwatch/pkg/logger"
	"rainwatch/pkg/util"
)

const liveCacheKey = "live:current"

// DashboardOptions tune the aggregator's caching and default windows.
type DashboardOptions struct {
	// LiveTTL is how long a live reading is served from cache before a
	// fresh provider call is made.
	LiveTTL time.Duration

	// ForecastTTL caches fitted forecasts keyed by series identity.
	ForecastTTL time.Duration

	// LookbackDays sizes the default history window when the caller
	// gives no explicit range.
	LookbackDays int
}

// Dashboard aggregates the three independent data paths: historical
// series, rainfall forecast, and live conditions. Each path fails on
// its own; an upstream outage on one never takes down the others.
type Dashboard struct {
	location models.Location
	history  drepo.HistoryProvider
	live     drepo.LiveProvider
	archive  drepo.ObservationArchive
	model    service.Forecaster
	scorer   service.RiskScorer
	cache    cache.Service
	metrics  drepo.Metrics
	log      *logger.Logger
	opts     DashboardOptions
	now      func() time.Time
}

// NewDashboard wires the aggregator. archive may be nil when no local
// store is configured; the history fallback is then disabled.
func NewDashboard(
	location models.Location,
	history drepo.HistoryProvider,
	live drepo.LiveProvider,
	archive drepo.ObservationArchive,
	model service.Forecaster,
	scorer service.RiskScorer,
	cacheSvc cache.Service,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts DashboardOptions,
) *Dashboard {
	if opts.LiveTTL <= 0 {
		opts.LiveTTL = time.Minute
	}
	if opts.ForecastTTL <= 0 {
		opts.ForecastTTL = 15 * time.Minute
	}
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = 1825
	}
	return &Dashboard{
		location: location,
		history:  history,
		live:     live,
		archive:  archive,
		model:    model,
		scorer:   scorer,
		cache:    cacheSvc,
		metrics:  metrics,
		log:      log,
		opts:     opts,
		now:      time.Now,
	}
}

// Location returns the fixed point the dashboard serves.
func (d *Dashboard) Location() models.Location { return d.location }

// DefaultRange is the history window used when the caller passes no
// explicit bounds.
func (d *Dashboard) DefaultRange() (time.Time, time.Time) {
	end := util.Midnight(d.now().UTC())
	return end.AddDate(0, 0, -d.opts.LookbackDays), end
}

// History loads the daily series for [start, end]. When the provider
// fails or has no records the local archive serves the range instead;
// an invalid range is returned as-is since no store can satisfy it
// either.
func (d *Dashboard) History(ctx context.Context, start, end time.Time) (models.HistoricalSeries, error) {
	began := d.now()
	series, err := d.history.Daily(ctx, d.location, start, end)
	d.metrics.RecordLatency("history", d.now().Sub(began).Seconds())

	if err == nil {
		d.metrics.RecordFetch("history", "ok")
		return series, nil
	}
	if errors.Is(err, models.ErrInvalidRange) {
		d.metrics.RecordFetch("history", "invalid")
		return nil, err
	}

	d.metrics.RecordFetch("history", "error")
	d.metrics.RecordError("history")
	if d.archive == nil || !(errors.Is(err, models.ErrTransport) || errors.Is(err, models.ErrDataUnavailable)) {
		return nil, err
	}

	d.log.Warn("history provider failed, serving archive", logger.Error(err))
	fallback, archErr := d.archive.Query(ctx, start, end)
	if archErr != nil {
		d.metrics.RecordError("archive")
		return nil, fmt.Errorf("archive fallback after %v: %w", err, archErr)
	}
	if len(fallback) == 0 {
		return nil, fmt.Errorf("archive empty for range: %w", models.ErrDataUnavailable)
	}
	d.metrics.RecordFetch("archive", "ok")
	return fallback, nil
}

// Forecast fits the model on the default history window and returns
// the rainfall forecast for the requested horizon. Fitted results are
// cached keyed by horizon and series identity, so an unchanged series
// returns the identical forecast.
func (d *Dashboard) Forecast(ctx context.Context, h drepo.Horizon) (models.ForecastResult, error) {
	start, end := d.DefaultRange()
	series, err := d.History(ctx, start, end)
	if err != nil {
		return models.ForecastResult{}, err
	}

	key := forecastKey(h, series)
	var cached models.ForecastResult
	if err := d.cache.Get(ctx, key, &cached); err == nil {
		d.metrics.RecordCacheLookup("forecast", true)
		return cached, nil
	}
	d.metrics.RecordCacheLookup("forecast", false)

	began := d.now()
	result, err := d.model.Predict(ctx, series, h)
	d.metrics.RecordLatency("forecast", d.now().Sub(began).Seconds())
	if err != nil {
		d.metrics.RecordError("forecast")
		return models.ForecastResult{}, err
	}

	if err := d.cache.Set(ctx, key, result, d.opts.ForecastTTL); err != nil {
		d.log.Warn("forecast cache write failed", logger.Error(err))
	}
	return result, nil
}

// Live returns current conditions, served from cache within the TTL.
// A cached copy carries Cached=true and its original FetchedAt so the
// caller can surface staleness.
func (d *Dashboard) Live(ctx context.Context) (models.LiveConditions, error) {
	var cached models.LiveConditions
	if err := d.cache.Get(ctx, liveCacheKey, &cached); err == nil {
		d.metrics.RecordCacheLookup("live", true)
		cached.Cached = true
		return cached, nil
	}
	d.metrics.RecordCacheLookup("live", false)

	began := d.now()
	conditions, err := d.live.Current(ctx, d.location)
	d.metrics.RecordLatency("live", d.now().Sub(began).Seconds())
	if err != nil {
		d.metrics.RecordFetch("live", "error")
		d.metrics.RecordError("live")
		return models.LiveConditions{}, err
	}

	conditions.FetchedAt = d.now().UTC()
	conditions.Cached = false
	d.metrics.RecordFetch("live", "ok")
	d.metrics.RecordLive(conditions.TemperatureC, conditions.RainfallMM)

	if err := d.cache.Set(ctx, liveCacheKey, conditions, d.opts.LiveTTL); err != nil {
		d.log.Warn("live cache write failed", logger.Error(err))
	}
	return conditions, nil
}

// RiskSites scores the hotspot sites against the current forecast.
func (d *Dashboard) RiskSites(ctx context.Context, h drepo.Horizon) ([]models.ScoredSite, error) {
	forecast, err := d.Forecast(ctx, h)
	if err != nil {
		return nil, err
	}
	return d.scorer.Score(d.location, forecast), nil
}

// forecastKey identifies a fitted forecast by horizon and a content hash of
// the training series, so any changed or backfilled point produces a new key
// even when length and last date stay the same.
func forecastKey(h drepo.Horizon, series models.HistoricalSeries) string {
	sum := fnv.New64a()
	var buf [8]byte
	for _, o := range series {
		binary.BigEndian.PutUint64(buf[:], uint64(o.Timestamp.Unix()))
		sum.Write(buf[:])
		if o.RainfallMM != nil {
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(*o.RainfallMM))
		} else {
			binary.BigEndian.PutUint64(buf[:], math.MaxUint64)
		}
		sum.Write(buf[:])
	}
	return fmt.Sprintf("forecast:%d:%x", h, sum.Sum64())
}
