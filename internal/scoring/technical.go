package scoring

import (
	"errors"
	"math"

	"github.com/rs/zerolog"

	"github.com/wonny/argos/internal/contracts"
)

var (
	errNegativeWeight = errors.New("component weights must be non-negative")
	errZeroWeight     = errors.New("at least one component weight must be positive")
)

// Weights control how much each component contributes to the composite
// technical score. Components missing from a snapshot drop out and the
// remaining weights are renormalized.
type Weights struct {
	Momentum float64 `yaml:"momentum" json:"momentum"`
	Trend    float64 `yaml:"trend" json:"trend"`
	RSI      float64 `yaml:"rsi" json:"rsi"`
	Volume   float64 `yaml:"volume" json:"volume"`
}

// DefaultWeights returns the standard component mix.
func DefaultWeights() Weights {
	return Weights{
		Momentum: 0.40,
		Trend:    0.30,
		RSI:      0.20,
		Volume:   0.10,
	}
}

// Validate checks that the weights can produce a meaningful composite.
func (w Weights) Validate() error {
	if w.Momentum < 0 || w.Trend < 0 || w.RSI < 0 || w.Volume < 0 {
		return errNegativeWeight
	}
	if w.Momentum+w.Trend+w.RSI+w.Volume <= 0 {
		return errZeroWeight
	}
	return nil
}

// minAvailableWeight is the smallest share of total weight that must be
// backed by present components; below it the snapshot is not scorable.
const minAvailableWeight = 0.5

// TechnicalScorer maps an indicator snapshot to a 0-100 composite of
// momentum, trend, RSI positioning, and relative volume. The 12-1 month
// momentum is mandatory: without it the snapshot is not scorable.
type TechnicalScorer struct {
	weights Weights
	log     zerolog.Logger
}

// NewTechnicalScorer creates a scorer with the given component weights.
func NewTechnicalScorer(w Weights, log zerolog.Logger) *TechnicalScorer {
	return &TechnicalScorer{
		weights: w,
		log:     log.With().Str("component", "technical_scorer").Logger(),
	}
}

// Score implements contracts.Scorer.
func (s *TechnicalScorer) Score(snap *contracts.IndicatorSnapshot) (float64, bool) {
	if !snap.Usable() {
		return 0, false
	}
	if snap.Momentum12_1 == nil {
		s.log.Debug().Str("ticker", snap.Ticker).Msg("not scorable: 12-1 momentum missing")
		return 0, false
	}

	total := s.weights.Momentum + s.weights.Trend + s.weights.RSI + s.weights.Volume
	if total <= 0 {
		return 0, false
	}

	weighted := s.weights.Momentum * momentumScore(snap)
	available := s.weights.Momentum

	if trend, ok := trendScore(snap); ok {
		weighted += s.weights.Trend * trend
		available += s.weights.Trend
	}
	if snap.RSI14 != nil {
		weighted += s.weights.RSI * rsiScore(*snap.RSI14)
		available += s.weights.RSI
	}
	if snap.RelativeVolume != nil {
		weighted += s.weights.Volume * volumeScore(*snap.RelativeVolume)
		available += s.weights.Volume
	}

	if available/total < minAvailableWeight {
		s.log.Debug().
			Str("ticker", snap.Ticker).
			Float64("available_weight", available).
			Msg("not scorable: too few components present")
		return 0, false
	}

	return clamp(weighted/available, 0, 100), true
}

// momentumScore blends the momentum windows. 12-1 drives the component;
// the shorter windows refine it when present.
func momentumScore(snap *contracts.IndicatorSnapshot) float64 {
	score := 0.6 * squash(*snap.Momentum12_1, 0.40)
	used := 0.6
	if snap.Momentum6M != nil {
		score += 0.25 * squash(*snap.Momentum6M, 0.25)
		used += 0.25
	}
	if snap.Momentum3M != nil {
		score += 0.15 * squash(*snap.Momentum3M, 0.15)
		used += 0.15
	}
	return score / used
}

// trendScore combines the position relative to the 200-day average with
// the 50/200 distance. Both require a long history; when neither is
// present the component drops out.
func trendScore(snap *contracts.IndicatorSnapshot) (float64, bool) {
	score := 0.0
	parts := 0.0
	if snap.PriceAbove200MA != nil {
		if *snap.PriceAbove200MA {
			score += 75
		} else {
			score += 25
		}
		parts++
	}
	if snap.MADistance != nil {
		score += squash(*snap.MADistance, 0.10)
		parts++
	}
	if parts == 0 {
		return 0, false
	}
	return score / parts, true
}

// rsiScore favors steady strength over extremes: readings between 50 and
// 70 score best, overbought territory gives ground back.
func rsiScore(rsi float64) float64 {
	switch {
	case rsi < 30:
		return rsi
	case rsi <= 50:
		return 30 + (rsi-30)*1.5
	case rsi <= 70:
		return 60 + (rsi-50)*2.0
	case rsi <= 80:
		return 100 - (rsi-70)*2.0
	default:
		return 80 - (rsi-80)*1.5
	}
}

// volumeScore rewards volume running above its 90-day base rate. A ratio
// of 1.0 is neutral.
func volumeScore(relVolume float64) float64 {
	return squash(relVolume-1, 0.75)
}

// squash maps x onto 0..100 with a tanh curve centered at 50; scale sets
// how fast the curve saturates.
func squash(x, scale float64) float64 {
	return 50 + 50*math.Tanh(x/scale)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
