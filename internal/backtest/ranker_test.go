package backtest

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/argos/internal/contracts"
)

// scorerFunc adapts a function to the Scorer interface for tests.
type scorerFunc func(*contracts.IndicatorSnapshot) (float64, bool)

func (f scorerFunc) Score(s *contracts.IndicatorSnapshot) (float64, bool) { return f(s) }

// scoreByTicker scores each snapshot from a fixed table.
func scoreByTicker(scores map[string]float64) scorerFunc {
	return func(s *contracts.IndicatorSnapshot) (float64, bool) {
		score, ok := scores[s.Ticker]
		return score, ok
	}
}

func freshSnap(ticker string) *contracts.IndicatorSnapshot {
	return &contracts.IndicatorSnapshot{
		Ticker:        ticker,
		AsOf:          date(2025, 1, 1),
		LastPriceDate: date(2024, 12, 31),
	}
}

func TestRanker_Rank_QuintilesAndPercentiles(t *testing.T) {
	snapshots := make(map[string]*contracts.IndicatorSnapshot)
	scores := make(map[string]float64)
	for i := 0; i < 10; i++ {
		ticker := fmt.Sprintf("T%02d", i)
		snapshots[ticker] = freshSnap(ticker)
		scores[ticker] = float64(10 * (i + 1)) // 10, 20, ... 100
	}

	r := NewRanker(scoreByTicker(scores), zerolog.Nop())
	ranking := r.Rank(snapshots, nil)

	require.True(t, ranking.QuintilesDefined)
	require.Len(t, ranking.Assignments, 10)
	assert.Empty(t, ranking.Excluded)

	// Ascending by score: two members per quintile, every ticker in
	// exactly one bucket.
	counts := make(map[int]int)
	for i, a := range ranking.Assignments {
		wantQuintile := i/2 + 1
		assert.Equal(t, wantQuintile, a.Quintile, "index %d (%s)", i, a.Ticker)
		counts[a.Quintile]++
	}
	for q := 1; q <= 5; q++ {
		assert.Equal(t, 2, counts[q], "quintile %d size", q)
	}

	// Strictly-lower percentiles: bottom 0, top 100.
	assert.Equal(t, 0.0, ranking.Assignments[0].RankPercentile)
	assert.Equal(t, 100.0, ranking.Assignments[9].RankPercentile)
	assert.InDelta(t, 100.0/3.0, ranking.Assignments[3].RankPercentile, 1e-9)
}

func TestRanker_Rank_RemainderGoesToLowestBuckets(t *testing.T) {
	snapshots := make(map[string]*contracts.IndicatorSnapshot)
	scores := make(map[string]float64)
	for i := 0; i < 7; i++ {
		ticker := fmt.Sprintf("T%d", i)
		snapshots[ticker] = freshSnap(ticker)
		scores[ticker] = float64(i)
	}

	r := NewRanker(scoreByTicker(scores), zerolog.Nop())
	ranking := r.Rank(snapshots, nil)

	require.True(t, ranking.QuintilesDefined)
	var sizes [6]int
	for _, a := range ranking.Assignments {
		sizes[a.Quintile]++
	}
	assert.Equal(t, [6]int{0, 2, 2, 1, 1, 1}, sizes)
}

func TestRanker_Rank_TiesBreakByTicker(t *testing.T) {
	snapshots := map[string]*contracts.IndicatorSnapshot{
		"BBB": freshSnap("BBB"),
		"AAA": freshSnap("AAA"),
		"CCC": freshSnap("CCC"),
		"DDD": freshSnap("DDD"),
		"EEE": freshSnap("EEE"),
	}
	scores := map[string]float64{"AAA": 50, "BBB": 50, "CCC": 50, "DDD": 10, "EEE": 90}

	r := NewRanker(scoreByTicker(scores), zerolog.Nop())
	ranking := r.Rank(snapshots, nil)

	require.Len(t, ranking.Assignments, 5)
	order := make([]string, 0, 5)
	for _, a := range ranking.Assignments {
		order = append(order, a.Ticker)
	}
	assert.Equal(t, []string{"DDD", "AAA", "BBB", "CCC", "EEE"}, order)

	// The tied trio shares one percentile: one score strictly below.
	for _, i := range []int{1, 2, 3} {
		assert.InDelta(t, 25.0, ranking.Assignments[i].RankPercentile, 1e-9)
	}
	assert.Equal(t, 0.0, ranking.Assignments[0].RankPercentile)
	assert.Equal(t, 100.0, ranking.Assignments[4].RankPercentile)
}

func TestRanker_Rank_Exclusions(t *testing.T) {
	stale := freshSnap("STALE")
	stale.Stale = true

	snapshots := map[string]*contracts.IndicatorSnapshot{
		"GONE":  nil, // no history at all
		"STALE": stale,
		"BAD":   freshSnap("BAD"), // scorer rejects it
		"OK1":   freshSnap("OK1"),
		"OK2":   freshSnap("OK2"),
	}
	scores := map[string]float64{"OK1": 30, "OK2": 70, "STALE": 99, "GONE": 99}

	r := NewRanker(scoreByTicker(scores), zerolog.Nop())
	ranking := r.Rank(snapshots, nil)

	assert.Equal(t, map[string]string{
		"GONE":  ExcludeNoHistory,
		"STALE": ExcludeStale,
		"BAD":   ExcludeUnscored,
	}, ranking.Excluded)

	// Percentiles span the two eligible tickers only: exclusions never
	// shrink or stretch the denominator for included stocks.
	require.Len(t, ranking.Assignments, 2)
	assert.Equal(t, 0.0, ranking.Assignments[0].RankPercentile)
	assert.Equal(t, 100.0, ranking.Assignments[1].RankPercentile)
	assert.False(t, ranking.QuintilesDefined)
}

func TestRanker_Rank_FewerThanFiveTickers(t *testing.T) {
	snapshots := map[string]*contracts.IndicatorSnapshot{
		"A": freshSnap("A"), "B": freshSnap("B"), "C": freshSnap("C"), "D": freshSnap("D"),
	}
	scores := map[string]float64{"A": 1, "B": 2, "C": 3, "D": 4}

	r := NewRanker(scoreByTicker(scores), zerolog.Nop())
	ranking := r.Rank(snapshots, nil)

	assert.False(t, ranking.QuintilesDefined)
	require.Len(t, ranking.Assignments, 4, "ranked list is retained")
	for _, a := range ranking.Assignments {
		assert.Equal(t, 0, a.Quintile, "quintile stays undefined for %s", a.Ticker)
	}
}

func TestRanker_Rank_FillsSectorRelative(t *testing.T) {
	tech1 := freshSnap("TECH1")
	tech1.Momentum6M = contracts.Ptr(0.30)
	tech2 := freshSnap("TECH2")
	tech2.Momentum6M = contracts.Ptr(0.10)

	snapshots := map[string]*contracts.IndicatorSnapshot{"TECH1": tech1, "TECH2": tech2}
	sectors := map[string]string{"TECH1": "tech", "TECH2": "tech"}
	r := NewRanker(scoreByTicker(map[string]float64{"TECH1": 2, "TECH2": 1}), zerolog.Nop())

	r.Rank(snapshots, sectors)

	require.NotNil(t, snapshots["TECH1"].SectorRelative6M)
	assert.InDelta(t, 0.10, *snapshots["TECH1"].SectorRelative6M, 1e-12)
	require.NotNil(t, snapshots["TECH2"].SectorRelative6M)
	assert.InDelta(t, -0.10, *snapshots["TECH2"].SectorRelative6M, 1e-12)
}

func TestRanker_Rank_SingleTickerPercentile(t *testing.T) {
	snapshots := map[string]*contracts.IndicatorSnapshot{"ONLY": freshSnap("ONLY")}
	r := NewRanker(scoreByTicker(map[string]float64{"ONLY": 42}), zerolog.Nop())

	ranking := r.Rank(snapshots, nil)
	require.Len(t, ranking.Assignments, 1)
	assert.Equal(t, 100.0, ranking.Assignments[0].RankPercentile)
	assert.False(t, ranking.QuintilesDefined)
}
