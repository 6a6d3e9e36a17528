// Package source defines the contract for the external account data backing
// a bid adjustment run, plus an in-memory implementation used by tests and
// snapshot-driven dry runs. A production adapter for a live ads API satisfies
// the same interface.
package source

import (
	"context"
	"time"

	"bidsteer/core"
)

// Direction orders query results by the impression-share metric.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// Bound selects which side of the tolerance band a query matches. Both
// comparisons are strict, so the two bounds never overlap for the same
// threshold pair.
type Bound string

const (
	BelowThreshold Bound = "BELOW"
	AboveThreshold Bound = "ABOVE"
)

// Query describes one filtered, sorted keyword fetch over a date range.
type Query struct {
	Status    core.KeywordStatus
	Metric    core.Metric
	Bound     Bound
	Threshold float64
	Range     core.DateRange
	Order     Direction
}

// Source is the external account data consumed by one invocation. Fetching
// and writing are the run's only blocking operations; any error aborts the
// run with no retry.
type Source interface {
	// Keywords returns the keywords matching q, with ImpressionShare
	// projected to q.Metric, ordered per q.Order.
	Keywords(ctx context.Context, q Query) ([]core.Keyword, error)

	// SetBid sets the keyword's max CPC bid.
	SetBid(ctx context.Context, id core.KeywordID, cpc float64) error

	// TimeZone returns the account-local timezone used to resolve the
	// statistics window.
	TimeZone(ctx context.Context) (*time.Location, error)
}
