package indicators

import "github.com/wonny/argos/internal/contracts"

// FillSectorRelative computes each sector's mean 6-month momentum across
// usable snapshots and stores every member's excess over it. This is the
// one cross-sectional indicator: it can only be filled once the whole
// universe has been built. Tickers with an unknown sector or no 6-month
// momentum keep a nil field; a sector's sole member scores 0.
func FillSectorRelative(snapshots map[string]*contracts.IndicatorSnapshot, sectors map[string]string) {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for ticker, snap := range snapshots {
		if !snap.Usable() || snap.Momentum6M == nil {
			continue
		}
		sector, ok := sectors[ticker]
		if !ok || sector == "" {
			continue
		}
		sums[sector] += *snap.Momentum6M
		counts[sector]++
	}

	for ticker, snap := range snapshots {
		if !snap.Usable() || snap.Momentum6M == nil {
			continue
		}
		sector, ok := sectors[ticker]
		if !ok || counts[sector] == 0 {
			continue
		}
		mean := sums[sector] / float64(counts[sector])
		snap.SectorRelative6M = contracts.Ptr(*snap.Momentum6M - mean)
	}
}
