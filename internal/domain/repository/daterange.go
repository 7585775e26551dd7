package repository

import (
	"fmt"
	"time"

	"rainwatch/internal/domain/models"
)

// DateRange is a closed [Start, End] day range.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange validates and builds a range. maxLookback <= 0 disables the
// lookback cap.
func NewDateRange(start, end time.Time, maxLookback time.Duration) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, fmt.Errorf("%w: start and end are required", models.ErrInvalidRange)
	}
	if start.After(end) {
		return DateRange{}, fmt.Errorf("%w: start %s after end %s",
			models.ErrInvalidRange, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	if maxLookback > 0 && end.Sub(start) > maxLookback {
		return DateRange{}, fmt.Errorf("%w: range %s exceeds maximum lookback %s",
			models.ErrInvalidRange, end.Sub(start), maxLookback)
	}
	return DateRange{Start: start, End: end}, nil
}

// Days reports the number of calendar days covered, inclusive.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Contains reports whether t falls inside the closed range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
