package openweather

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rainwatch/internal/domain/models"
	drepo "rainwatch/internal/domain/repository"
	xhttp "rainwatch/pkg/http"
)

// Client implements a LiveProvider backed by the OpenWeather current
// weather API.
type Client struct {
	apiKey  string
	baseURL string
	http    *xhttp.ResilientClient
}

// New creates a new OpenWeather LiveProvider.
func New(apiKey, baseURL string, timeout time.Duration) drepo.LiveProvider {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http: xhttp.NewResilientClient("openweather",
			xhttp.BackoffConfig{MaxRetries: 2, InitialInterval: 500 * time.Millisecond, MaxInterval: 5 * time.Second},
			xhttp.WithTimeout(timeout),
		),
	}
}

type currentResponse struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain struct {
		OneH   float64 `json:"1h"`
		ThreeH float64 `json:"3h"`
	} `json:"rain"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// Current fetches the current-moment conditions for the point.
func (c *Client) Current(ctx context.Context, loc models.Location) (models.LiveConditions, error) {
	if c.apiKey == "" {
		return models.LiveConditions{}, fmt.Errorf("%w: openweather api key is not configured", models.ErrTransport)
	}

	var payload currentResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/weather",
		QueryParams: map[string][]string{
			"lat":   {strconv.FormatFloat(loc.Latitude, 'f', -1, 64)},
			"lon":   {strconv.FormatFloat(loc.Longitude, 'f', -1, 64)},
			"appid": {c.apiKey},
			"units": {"metric"},
		},
	}, &payload)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == 404 {
			return models.LiveConditions{}, fmt.Errorf("%w: openweather has no data for this point", models.ErrDataUnavailable)
		}
		return models.LiveConditions{}, fmt.Errorf("%w: openweather current: %v", models.ErrTransport, err)
	}

	observedAt := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		observedAt = time.Now().UTC()
	}

	rain := payload.Rain.OneH
	if rain == 0 {
		rain = payload.Rain.ThreeH
	}

	desc := ""
	if len(payload.Weather) > 0 {
		desc = strings.ToLower(payload.Weather[0].Description)
	}

	return models.LiveConditions{
		ObservedAt:   observedAt,
		TemperatureC: payload.Main.Temp,
		RainfallMM:   rain,
		HumidityPct:  payload.Main.Humidity,
		WindSpeedMS:  payload.Wind.Speed,
		Description:  desc,
	}, nil
}
