package pricing

import "dealvoy/internal/domain/entity"

// ComputeDelta compares a snapshot against its baseline price and decides
// whether it clears the ROI threshold. Pure and deterministic: no I/O, no
// side effects.
//
// A baseline of zero (or below) yields a zero delta percent and never
// qualifies as arbitrage.
func ComputeDelta(snapshot entity.PriceSnapshot, minROI float64) entity.PriceDelta {
	deltaAmount := snapshot.PreviousPrice - snapshot.Price

	var deltaPercent float64
	if snapshot.PreviousPrice > 0 {
		deltaPercent = deltaAmount / snapshot.PreviousPrice
	}

	return entity.PriceDelta{
		UPC:           snapshot.UPC,
		CurrentPrice:  snapshot.Price,
		PreviousPrice: snapshot.PreviousPrice,
		DeltaAmount:   deltaAmount,
		DeltaPercent:  deltaPercent,
		Arbitrage:     snapshot.PreviousPrice > 0 && deltaPercent >= minROI,
	}
}

// Qualifies reports whether an externally computed delta clears the ROI
// threshold. Used by the ingest path, where deltas arrive pre-computed.
func Qualifies(delta entity.PriceDelta, minROI float64) bool {
	return delta.Arbitrage && delta.DeltaPercent >= minROI
}
