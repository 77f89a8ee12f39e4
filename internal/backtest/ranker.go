package backtest

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/indicators"
)

// Exclusion reasons recorded per ticker per checkpoint.
const (
	ExcludeNoHistory = "no price history as of date"
	ExcludeStale     = "stale price history"
	ExcludeUnscored  = "score inputs missing"
)

// Ranker produces one checkpoint's cross-sectional ranking: it fills the
// sector-relative field across the universe, scores what is scorable,
// excludes the rest with reasons, and buckets scores into quintiles.
type Ranker struct {
	scorer contracts.Scorer
	log    zerolog.Logger
}

// NewRanker creates a Ranker around a composite scorer.
func NewRanker(scorer contracts.Scorer, log zerolog.Logger) *Ranker {
	return &Ranker{
		scorer: scorer,
		log:    log.With().Str("component", "ranker").Logger(),
	}
}

// Ranking is the cross-sectional outcome at one checkpoint.
type Ranking struct {
	// Assignments is ascending by score, ties broken by ticker, so the
	// quintile boundaries are deterministic.
	Assignments      []contracts.QuintileAssignment
	Excluded         map[string]string
	QuintilesDefined bool
}

// Rank scores the given snapshots cross-sectionally. Snapshots may be nil
// for tickers that had no history; those are excluded, not defaulted.
// Rank fills SectorRelative6M on usable snapshots as a side effect of the
// universe pass, so callers persisting snapshots see the complete set.
//
// Exclusions never shrink the percentile denominator: percentile and
// quintiles are computed over eligible tickers only.
func (r *Ranker) Rank(snapshots map[string]*contracts.IndicatorSnapshot, sectors map[string]string) *Ranking {
	indicators.FillSectorRelative(snapshots, sectors)

	ranking := &Ranking{Excluded: make(map[string]string)}

	for ticker, snap := range snapshots {
		if snap == nil {
			ranking.Excluded[ticker] = ExcludeNoHistory
			continue
		}
		if snap.Stale {
			ranking.Excluded[ticker] = ExcludeStale
			continue
		}
		score, ok := r.scorer.Score(snap)
		if !ok {
			ranking.Excluded[ticker] = ExcludeUnscored
			continue
		}
		ranking.Assignments = append(ranking.Assignments, contracts.QuintileAssignment{
			Ticker: ticker,
			Score:  score,
		})
	}

	sort.Slice(ranking.Assignments, func(i, j int) bool {
		a, b := ranking.Assignments[i], ranking.Assignments[j]
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.Ticker < b.Ticker
	})

	assignPercentiles(ranking.Assignments)

	if len(ranking.Assignments) >= contracts.QuintileCount {
		assignQuintiles(ranking.Assignments)
		ranking.QuintilesDefined = true
	} else if len(ranking.Assignments) > 0 {
		r.log.Debug().
			Int("eligible", len(ranking.Assignments)).
			Msg("too few eligible tickers for quintiles")
	}

	return ranking
}

// assignPercentiles writes the strictly-lower-count percentile onto each
// assignment; tied scores share a percentile. A sole ticker ranks 100.
func assignPercentiles(assignments []contracts.QuintileAssignment) {
	n := len(assignments)
	if n == 0 {
		return
	}
	if n == 1 {
		assignments[0].RankPercentile = 100
		return
	}
	for i := 0; i < n; {
		j := i
		for j+1 < n && assignments[j+1].Score == assignments[i].Score {
			j++
		}
		pct := float64(i) / float64(n-1) * 100
		for k := i; k <= j; k++ {
			assignments[k].RankPercentile = pct
		}
		i = j + 1
	}
}

// assignQuintiles splits the ascending assignments into five buckets as
// equal as possible, giving the remainder to the lowest buckets. The
// lowest scores land in quintile 1.
func assignQuintiles(assignments []contracts.QuintileAssignment) {
	n := len(assignments)
	base := n / contracts.QuintileCount
	remainder := n % contracts.QuintileCount

	idx := 0
	for q := 1; q <= contracts.QuintileCount; q++ {
		size := base
		if q <= remainder {
			size++
		}
		for k := 0; k < size; k++ {
			assignments[idx].Quintile = q
			idx++
		}
	}
}
