package models

// HistoryRequest filters the historical series endpoint. Dates are
// YYYY-MM-DD; both default to the configured lookback window when omitted.
type HistoryRequest struct {
	Start string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `query:"end" validate:"omitempty,datetime=2006-01-02"`
}

// ForecastRequest selects the forecast horizon.
type ForecastRequest struct {
	Horizon int `query:"horizon" default:"7" validate:"oneof=7 15"`
}
