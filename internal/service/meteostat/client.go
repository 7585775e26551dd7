package meteostat

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"rainwatch/internal/domain/models"
	drepo "rainwatch/internal/domain/repository"
	xhttp "rainwatch/pkg/http"
	"rainwatch/pkg/util"
)

// Client implements a HistoryProvider backed by the Meteostat point API.
type Client struct {
	apiKey      string
	baseURL     string
	host        string
	maxLookback time.Duration
	http        *xhttp.ResilientClient
}

// New creates a new Meteostat HistoryProvider.
func New(apiKey, baseURL string, maxLookbackDays int, timeout time.Duration) drepo.HistoryProvider {
	host := ""
	if u, err := url.Parse(baseURL); err == nil {
		host = u.Host
	}
	return &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		host:        host,
		maxLookback: time.Duration(maxLookbackDays) * 24 * time.Hour,
		http: xhttp.NewResilientClient("meteostat",
			xhttp.BackoffConfig{MaxRetries: 3, InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second},
			xhttp.WithTimeout(timeout),
		),
	}
}

type dailyRow struct {
	Date string   `json:"date"`
	TAvg *float64 `json:"tavg"`
	Prcp *float64 `json:"prcp"`
}

type dailyResponse struct {
	Data []dailyRow `json:"data"`
}

// Daily fetches the daily series for [start, end]. The range is validated
// before the request goes out.
func (c *Client) Daily(ctx context.Context, loc models.Location, start, end time.Time) (models.HistoricalSeries, error) {
	rng, err := drepo.NewDateRange(util.Midnight(start), util.Midnight(end), c.maxLookback)
	if err != nil {
		return nil, err
	}

	var payload dailyResponse
	err = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/point/daily",
		Headers: map[string]string{
			"x-rapidapi-key":  c.apiKey,
			"x-rapidapi-host": c.host,
		},
		QueryParams: map[string][]string{
			"lat":   {strconv.FormatFloat(loc.Latitude, 'f', -1, 64)},
			"lon":   {strconv.FormatFloat(loc.Longitude, 'f', -1, 64)},
			"alt":   {strconv.FormatFloat(loc.AltitudeM, 'f', -1, 64)},
			"start": {util.FormatDate(rng.Start)},
			"end":   {util.FormatDate(rng.End)},
		},
	}, &payload)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == 404 {
			return nil, fmt.Errorf("%w: meteostat has no records for this point", models.ErrDataUnavailable)
		}
		return nil, fmt.Errorf("%w: meteostat daily: %v", models.ErrTransport, err)
	}

	series := make(models.HistoricalSeries, 0, len(payload.Data))
	for _, row := range payload.Data {
		ts, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		if !rng.Contains(ts) {
			continue
		}
		if row.Prcp == nil && row.TAvg == nil {
			// provider padding row, nothing observed that day
			continue
		}
		series = append(series, models.Observation{
			Timestamp:    ts.UTC(),
			RainfallMM:   row.Prcp,
			TemperatureC: row.TAvg,
		})
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("%w: meteostat returned no observations for %s..%s",
			models.ErrDataUnavailable, util.FormatDate(rng.Start), util.FormatDate(rng.End))
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})

	return series, nil
}
