package core

import (
	"github.com/shopspring/decimal"
)

const monetaryPrecision int32 = 4 // 4 decimal places for CPC values (0.0001 precision)

// Policy applies bounded multiplicative bid adjustments. All fields are fixed
// at construction; the zero value is not usable (validate configuration
// before building one).
type Policy struct {
	// Coefficient is the multiplicative step, > 1. Raise multiplies by it,
	// Lower divides by it.
	Coefficient float64

	// MinBid and MaxBid bound every adjusted bid.
	MinBid float64
	MaxBid float64

	// UseReferenceFloor floors raised bids at the platform-estimated CPC for
	// the configured metric variant (top-of-page for absolute top, first-page
	// otherwise).
	UseReferenceFloor bool

	// Metric is the impression-share variant the policy steers on.
	Metric Metric
}

// Raise increases a bid by the coefficient, optionally floors it at the
// reference CPC, and clamps it to [MinBid, MaxBid].
// Uses decimal arithmetic to avoid floating-point drift in money values.
func (p Policy) Raise(cpc, firstPageCpc, topOfPageCpc float64) float64 {
	next := decimal.NewFromFloat(cpc).Mul(decimal.NewFromFloat(p.Coefficient))

	if p.UseReferenceFloor {
		floor := decimal.NewFromFloat(p.referenceCpc(firstPageCpc, topOfPageCpc))
		if next.LessThan(floor) {
			next = floor
		}
	}

	return p.clamp(next)
}

// Lower decreases a bid by the coefficient and clamps it to [MinBid, MaxBid].
func (p Policy) Lower(cpc float64) float64 {
	next := decimal.NewFromFloat(cpc).Div(decimal.NewFromFloat(p.Coefficient))
	return p.clamp(next)
}

// Clamp bounds a bid to [MinBid, MaxBid], rounded to monetaryPrecision.
func (p Policy) Clamp(cpc float64) float64 {
	return p.clamp(decimal.NewFromFloat(cpc))
}

// clamp applies the max cap after the min floor, so the cap wins if the
// range is degenerate (MinBid > MaxBid is a configuration error).
func (p Policy) clamp(cpc decimal.Decimal) float64 {
	if lo := decimal.NewFromFloat(p.MinBid); cpc.LessThan(lo) {
		cpc = lo
	}
	if hi := decimal.NewFromFloat(p.MaxBid); cpc.GreaterThan(hi) {
		cpc = hi
	}
	result, _ := cpc.Round(monetaryPrecision).Float64()
	return result
}

func (p Policy) referenceCpc(firstPageCpc, topOfPageCpc float64) float64 {
	if p.Metric == MetricAbsoluteTopImpressionShare {
		return topOfPageCpc
	}
	return firstPageCpc
}
