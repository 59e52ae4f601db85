package lending

import "time"

// PeriodDateLayout is the storage key format for daily ledger rows.
const PeriodDateLayout = "2006-01-02"

// PeriodClock resolves wall-clock instants to daily reporting periods. The
// business day does not end at midnight: at or after the cutover hour the
// period rolls forward to the next calendar date, so late-evening activity is
// booked into the following day's figures.
type PeriodClock struct {
	loc         *time.Location
	cutoverHour int
}

// NewPeriodClock creates a period clock for the given timezone name and
// cutover hour. An unknown timezone falls back to UTC; an out-of-range hour
// falls back to 23 (the default business-day close).
func NewPeriodClock(timezone string, cutoverHour int) PeriodClock {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	if cutoverHour < 0 || cutoverHour > 23 {
		cutoverHour = 23
	}
	return PeriodClock{loc: loc, cutoverHour: cutoverHour}
}

// PeriodDate returns the daily period key for an instant.
func (p PeriodClock) PeriodDate(now time.Time) string {
	local := now.In(p.loc)
	if local.Hour() >= p.cutoverHour {
		local = local.AddDate(0, 0, 1)
	}
	return local.Format(PeriodDateLayout)
}

// Location exposes the clock's timezone for display formatting.
func (p PeriodClock) Location() *time.Location {
	return p.loc
}
