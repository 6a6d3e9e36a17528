package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"go.uber.org/zap"

	"bidsteer/config"
	"bidsteer/core"
	"bidsteer/source"
)

func testConfig() *config.Config {
	return &config.Config{
		UseAbsoluteTop:           true,
		TargetImpressionShare:    0.8,
		Tolerance:                0.05,
		BidAdjustmentCoefficient: 1.05,
		StatisticsWindowDays:     7,
		SkipIfZeroImpressions:    true,
		MinBid:                   5.15,
		MaxBid:                   35.00,
	}
}

// The six reference keywords: A raises, B lowers, C is within the band,
// D raises into the max clamp, E lowers into the min clamp, F qualifies but
// has zero impressions.
func testRecords() []source.Record {
	return []source.Record{
		{AdGroupID: "ag-1", CriterionID: "kw-a", Status: core.StatusEnabled,
			AbsoluteTopImpressionShare: 0.70, Impressions: 100, Cpc: 10.00},
		{AdGroupID: "ag-1", CriterionID: "kw-b", Status: core.StatusEnabled,
			AbsoluteTopImpressionShare: 0.92, Impressions: 100, Cpc: 10.00},
		{AdGroupID: "ag-1", CriterionID: "kw-c", Status: core.StatusEnabled,
			AbsoluteTopImpressionShare: 0.80, Impressions: 100, Cpc: 10.00},
		{AdGroupID: "ag-2", CriterionID: "kw-d", Status: core.StatusEnabled,
			AbsoluteTopImpressionShare: 0.70, Impressions: 100, Cpc: 34.00},
		{AdGroupID: "ag-2", CriterionID: "kw-e", Status: core.StatusEnabled,
			AbsoluteTopImpressionShare: 0.92, Impressions: 100, Cpc: 5.20},
		{AdGroupID: "ag-2", CriterionID: "kw-f", Status: core.StatusEnabled,
			AbsoluteTopImpressionShare: 0.70, Impressions: 0, Cpc: 10.00},
	}
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	}
}

func TestRunAdjustsBids(t *testing.T) {
	mem := source.NewMemory(time.UTC, testRecords())
	r := New(testConfig(), mem, zap.NewNop(), WithClock(fixedClock()))

	report, err := r.Run(context.Background())
	assert.Nil(t, err)

	// kw-a and kw-d raised, kw-f skipped, kw-b and kw-e lowered, kw-c untouched.
	assert.Equal(t, 2, len(report.Raised))
	assert.Equal(t, 2, len(report.Lowered))
	check.Equal(t, 1, report.Skipped)

	check.Equal(t, core.BidChange{
		ID: core.KeywordID{AdGroupID: "ag-1", CriterionID: "kw-a"}, OldCpc: 10.00, NewCpc: 10.50,
	}, report.Raised[0])
	check.Equal(t, core.BidChange{
		ID: core.KeywordID{AdGroupID: "ag-2", CriterionID: "kw-d"}, OldCpc: 34.00, NewCpc: 35.00,
	}, report.Raised[1])
	check.Equal(t, core.BidChange{
		ID: core.KeywordID{AdGroupID: "ag-1", CriterionID: "kw-b"}, OldCpc: 10.00, NewCpc: 9.5238,
	}, report.Lowered[0])
	check.Equal(t, core.BidChange{
		ID: core.KeywordID{AdGroupID: "ag-2", CriterionID: "kw-e"}, OldCpc: 5.20, NewCpc: 5.15,
	}, report.Lowered[1])

	check.Equal(t, "2024-03-09", report.Window.StartDate())
	check.Equal(t, "2024-03-15", report.Window.FinishDate())
	check.NotEqual(t, "", report.Fingerprint)
}

func TestRunRaisesBeforeLowering(t *testing.T) {
	mem := source.NewMemory(time.UTC, testRecords())
	r := New(testConfig(), mem, zap.NewNop(), WithClock(fixedClock()))

	_, err := r.Run(context.Background())
	assert.Nil(t, err)

	applied := mem.Applied()
	assert.Equal(t, 4, len(applied))

	// Both raise writes land before any lower write.
	check.True(t, applied[0].NewCpc > applied[0].OldCpc)
	check.True(t, applied[1].NewCpc > applied[1].OldCpc)
	check.True(t, applied[2].NewCpc < applied[2].OldCpc)
	check.True(t, applied[3].NewCpc < applied[3].OldCpc)
}

func TestRunProcessesZeroImpressionsWhenNotSkipping(t *testing.T) {
	cfg := testConfig()
	cfg.SkipIfZeroImpressions = false

	mem := source.NewMemory(time.UTC, testRecords())
	r := New(cfg, mem, zap.NewNop(), WithClock(fixedClock()))

	report, err := r.Run(context.Background())
	assert.Nil(t, err)

	check.Equal(t, 3, len(report.Raised))
	check.Equal(t, 0, report.Skipped)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	mem := source.NewMemory(time.UTC, testRecords())
	r := New(testConfig(), mem, zap.NewNop(), WithClock(fixedClock()), WithDryRun(true))

	report, err := r.Run(context.Background())
	assert.Nil(t, err)

	check.Equal(t, 2, len(report.Raised))
	check.Equal(t, 2, len(report.Lowered))
	check.Equal(t, 0, len(mem.Applied()))
}

func TestRunEmptyResultSetsAreNoOps(t *testing.T) {
	records := []source.Record{
		{AdGroupID: "ag-1", CriterionID: "kw-c", Status: core.StatusEnabled,
			AbsoluteTopImpressionShare: 0.80, Impressions: 100, Cpc: 10.00},
	}
	mem := source.NewMemory(time.UTC, records)
	r := New(testConfig(), mem, zap.NewNop(), WithClock(fixedClock()))

	report, err := r.Run(context.Background())
	assert.Nil(t, err)

	check.Equal(t, 0, len(report.Raised))
	check.Equal(t, 0, len(report.Lowered))
	check.Equal(t, 0, len(mem.Applied()))
}

// failingSource wraps a Source and fails selected operations.
type failingSource struct {
	source.Source
	keywordsErr error
	setBidErr   error
}

func (f *failingSource) Keywords(ctx context.Context, q source.Query) ([]core.Keyword, error) {
	if f.keywordsErr != nil {
		return nil, f.keywordsErr
	}
	return f.Source.Keywords(ctx, q)
}

func (f *failingSource) SetBid(ctx context.Context, id core.KeywordID, cpc float64) error {
	if f.setBidErr != nil {
		return f.setBidErr
	}
	return f.Source.SetBid(ctx, id, cpc)
}

func TestRunAbortsOnFetchError(t *testing.T) {
	mem := source.NewMemory(time.UTC, testRecords())
	src := &failingSource{Source: mem, keywordsErr: errors.New("query rejected")}
	r := New(testConfig(), src, zap.NewNop(), WithClock(fixedClock()))

	report, err := r.Run(context.Background())
	check.Error(t, err)
	check.Nil(t, report)
	check.Equal(t, 0, len(mem.Applied()))
}

func TestRunAbortsOnWriteError(t *testing.T) {
	mem := source.NewMemory(time.UTC, testRecords())
	src := &failingSource{Source: mem, setBidErr: errors.New("mutation rejected")}
	r := New(testConfig(), src, zap.NewNop(), WithClock(fixedClock()))

	report, err := r.Run(context.Background())
	check.Error(t, err)
	check.Nil(t, report)
}

func TestRunFingerprintIsStableAcrossRuns(t *testing.T) {
	run := func() string {
		mem := source.NewMemory(time.UTC, testRecords())
		r := New(testConfig(), mem, zap.NewNop(), WithClock(fixedClock()), WithDryRun(true))
		report, err := r.Run(context.Background())
		assert.Nil(t, err)
		return report.Fingerprint
	}

	check.Equal(t, run(), run())
}
