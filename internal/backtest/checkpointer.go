package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/argos/internal/contracts"
)

// Frequency is the spacing of evaluation checkpoints.
type Frequency string

const (
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
)

// ParseFrequency validates a frequency name.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case Weekly, Monthly, Quarterly:
		return Frequency(s), nil
	}
	return "", fmt.Errorf("unknown frequency %q", s)
}

// Checkpointer generates the evaluation dates for a run. Dates anchor to
// the calendar (Mondays, first of month, first of quarter), never to the
// requested start, so re-running any sub-range reproduces the same dates.
type Checkpointer struct {
	freq       Frequency
	minTickers int
	warmupDays int
	log        zerolog.Logger
}

// NewCheckpointer creates a Checkpointer. minTickers and warmupDays guard
// the early end of a run, where too little of the universe has history to
// rank meaningfully.
func NewCheckpointer(freq Frequency, minTickers, warmupDays int, log zerolog.Logger) *Checkpointer {
	return &Checkpointer{
		freq:       freq,
		minTickers: minTickers,
		warmupDays: warmupDays,
		log:        log.With().Str("component", "checkpointer").Logger(),
	}
}

// Dates returns the calendar anchors within [start, end] inclusive.
func (c *Checkpointer) Dates(start, end time.Time) []time.Time {
	start = midnightUTC(start)
	end = midnightUTC(end)

	var dates []time.Time
	for d := c.firstAnchor(start); !d.After(end); d = c.next(d) {
		dates = append(dates, d)
	}
	return dates
}

// Generate filters the calendar anchors by universe coverage: a date is
// kept only when at least minTickers series have warmupDays bars on or
// before it. It returns the kept dates and the unfiltered anchor count.
func (c *Checkpointer) Generate(start, end time.Time, series map[string]contracts.PriceSeries) ([]time.Time, int) {
	anchors := c.Dates(start, end)

	kept := make([]time.Time, 0, len(anchors))
	for _, date := range anchors {
		ready := 0
		for _, s := range series {
			if barsOnOrBefore(s, date) >= c.warmupDays {
				ready++
			}
		}
		if ready < c.minTickers {
			c.log.Info().
				Time("checkpoint", date).
				Int("ready", ready).
				Int("min_tickers", c.minTickers).
				Msg("skipping checkpoint: universe still warming up")
			continue
		}
		kept = append(kept, date)
	}
	return kept, len(anchors)
}

// firstAnchor returns the first anchor on or after start.
func (c *Checkpointer) firstAnchor(start time.Time) time.Time {
	switch c.freq {
	case Weekly:
		d := start
		for d.Weekday() != time.Monday {
			d = d.AddDate(0, 0, 1)
		}
		return d
	case Quarterly:
		y, m := start.Year(), start.Month()
		qm := time.Month(((int(m)-1)/3)*3 + 1)
		d := time.Date(y, qm, 1, 0, 0, 0, 0, time.UTC)
		if d.Before(start) {
			d = d.AddDate(0, 3, 0)
		}
		return d
	default: // Monthly
		d := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		if d.Before(start) {
			d = d.AddDate(0, 1, 0)
		}
		return d
	}
}

func (c *Checkpointer) next(d time.Time) time.Time {
	switch c.freq {
	case Weekly:
		return d.AddDate(0, 0, 7)
	case Quarterly:
		return d.AddDate(0, 3, 0)
	default:
		return d.AddDate(0, 1, 0)
	}
}

func barsOnOrBefore(series contracts.PriceSeries, date time.Time) int {
	return sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(date)
	})
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
