package extrato

import (
	"context"
	"fmt"
	"log"
	"time"
)

// =============================================================================
// PERIOD - The archival partition key
// =============================================================================

// Period identifies one calendar month. It is the only partition key the
// pipeline knows about.
type Period struct {
	Month time.Month
	Year  int
}

func (p Period) String() string {
	return fmt.Sprintf("%02d/%d", p.Month, p.Year)
}

func (p Period) IsZero() bool {
	return p.Month == 0 && p.Year == 0
}

// Valid reports whether the period names a real calendar month.
func (p Period) Valid() bool {
	return p.Month >= time.January && p.Month <= time.December && p.Year > 0
}

// =============================================================================
// RESOLVER - Clock and period arithmetic in the configured time zone
// =============================================================================

// DefaultMinRunDay delays the scheduled monthly run until day 2 to avoid
// racing with very early local-time rollovers.
const DefaultMinRunDay = 2

// Resolver computes period boundaries in a configured time zone and decides
// whether the scheduled monthly run is due.
type Resolver struct {
	loc       *time.Location
	minRunDay int
	runs      RunLedger
}

// NewResolver creates a resolver for the named time zone. An empty or
// invalid zone falls back to UTC; a minRunDay below 1 falls back to the
// default.
func NewResolver(timezone string, minRunDay int, runs RunLedger) *Resolver {
	loc := time.UTC
	if timezone != "" {
		parsed, err := time.LoadLocation(timezone)
		if err != nil {
			log.Printf("[Resolver] Invalid timezone %q, falling back to UTC", timezone)
		} else {
			loc = parsed
		}
	}
	if minRunDay < 1 {
		minRunDay = DefaultMinRunDay
	}
	return &Resolver{loc: loc, minRunDay: minRunDay, runs: runs}
}

// Location returns the configured time zone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// PreviousPeriod returns the calendar month before now, evaluated in the
// configured zone. The result is identical whether now is expressed in UTC
// or local time, because now is converted before the month is read.
func (r *Resolver) PreviousPeriod(now time.Time) Period {
	local := now.In(r.loc)
	month := local.Month()
	year := local.Year()
	if month == time.January {
		return Period{Month: time.December, Year: year - 1}
	}
	return Period{Month: month - 1, Year: year}
}

// Window returns the half-open interval [start, end) covering the period:
// first instant of the month, inclusive, to first instant of the next
// month, exclusive, both in the configured zone.
func (r *Resolver) Window(p Period) (time.Time, time.Time) {
	start := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, r.loc)
	return start, start.AddDate(0, 1, 0)
}

// CurrentWindow returns the window of the month containing now.
func (r *Resolver) CurrentWindow(now time.Time) (time.Time, time.Time) {
	local := now.In(r.loc)
	return r.Window(Period{Month: local.Month(), Year: local.Year()})
}

// ShouldRunMonthly decides whether the scheduled monthly close is due for
// the previous period. It returns false before the minimum day of the month
// and false once a success entry exists for the target period; an error
// entry does not block retry.
func (r *Resolver) ShouldRunMonthly(ctx context.Context, now time.Time) (bool, Period, error) {
	target := r.PreviousPeriod(now)
	if now.In(r.loc).Day() < r.minRunDay {
		return false, target, nil
	}
	done, err := r.runs.HasSuccessfulRun(ctx, target)
	if err != nil {
		return false, target, fmt.Errorf("check run ledger for %s: %w", target, err)
	}
	return !done, target, nil
}
