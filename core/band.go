package core

// Band is the tolerance interval around the target impression share within
// which no bid adjustment is made. Below and Above are strict comparisons and
// mutually exclusive for any Tolerance >= 0, so a keyword qualifies for at
// most one adjustment per run.
type Band struct {
	Target    float64
	Tolerance float64
}

// Below reports whether a metric value qualifies for a bid raise.
func (b Band) Below(metric float64) bool {
	return metric < b.Target-b.Tolerance
}

// Above reports whether a metric value qualifies for a bid lowering.
func (b Band) Above(metric float64) bool {
	return metric > b.Target+b.Tolerance
}

// Within reports whether a metric value is inside the no-adjustment band.
func (b Band) Within(metric float64) bool {
	return !b.Below(metric) && !b.Above(metric)
}

// LowerThreshold is the raise cutoff (metric strictly below it qualifies).
func (b Band) LowerThreshold() float64 { return b.Target - b.Tolerance }

// UpperThreshold is the lowering cutoff (metric strictly above it qualifies).
func (b Band) UpperThreshold() float64 { return b.Target + b.Tolerance }
