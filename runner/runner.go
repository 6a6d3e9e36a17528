// Package runner drives one bid steering invocation: resolve the statistics
// window, raise bids on underperforming keywords, then lower bids on
// overperforming ones. Strictly sequential; the first data source error
// aborts the run.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bidsteer/config"
	"bidsteer/core"
	"bidsteer/source"
)

const (
	phaseRaise = "raise"
	phaseLower = "lower"
)

// Report summarizes one completed run.
type Report struct {
	RunID   string           `json:"run_id"`
	Window  core.DateRange   `json:"window"`
	Metric  core.Metric      `json:"metric"`
	Raised  []core.BidChange `json:"raised"`
	Lowered []core.BidChange `json:"lowered"`
	Skipped int              `json:"skipped"`

	// Fingerprint is a deterministic digest of the full mutation plan,
	// logged so identical runs can be spotted across invocations.
	Fingerprint string `json:"fingerprint"`
}

// Runner executes the bid steering pipeline against a keyword source.
type Runner struct {
	cfg    *config.Config
	src    source.Source
	log    *zap.Logger
	now    func() time.Time
	dryRun bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides the wall clock used to resolve the statistics window.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithDryRun computes adjustments without writing any bid back.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// New builds a Runner. The configuration must already be validated.
func New(cfg *config.Config, src source.Source, log *zap.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg: cfg,
		src: src,
		log: log,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one invocation. Raising completes fully before any lowering
// begins, and no keyword is visited twice: the band predicates are mutually
// exclusive, so the two query results are disjoint.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	band := r.cfg.Band()
	policy := r.cfg.Policy()

	loc, err := r.src.TimeZone(ctx)
	if err != nil {
		mtxRunErrors.Inc()
		return nil, fmt.Errorf("failed to resolve account time zone: %w", err)
	}

	window := core.StatsWindow(r.now(), loc, r.cfg.StatisticsWindowDays)

	log := r.log.With(
		zap.String("run_id", runID),
		zap.String("metric", string(policy.Metric)),
		zap.String("window_start", window.StartDate()),
		zap.String("window_finish", window.FinishDate()),
	)
	log.Info("run started",
		zap.Float64("target", band.Target),
		zap.Float64("tolerance", band.Tolerance),
		zap.Bool("dry_run", r.dryRun),
	)

	report := &Report{
		RunID:  runID,
		Window: window,
		Metric: policy.Metric,
	}

	// Phase 1: raise underperforming keywords, worst metric first.
	underperforming, err := r.src.Keywords(ctx, source.Query{
		Status:    core.StatusEnabled,
		Metric:    policy.Metric,
		Bound:     source.BelowThreshold,
		Threshold: band.LowerThreshold(),
		Range:     window,
		Order:     source.Ascending,
	})
	if err != nil {
		mtxRunErrors.Inc()
		return nil, fmt.Errorf("failed to fetch underperforming keywords: %w", err)
	}
	mtxKeywordsExamined.WithLabelValues(phaseRaise).Add(float64(len(underperforming)))

	for _, kw := range underperforming {
		if r.skip(kw) {
			report.Skipped++
			mtxKeywordsSkipped.Inc()
			log.Debug("skipped keyword with zero impressions", keywordFields(kw)...)
			continue
		}

		newCpc := policy.Raise(kw.Cpc, kw.FirstPageCpc, kw.TopOfPageCpc)
		change, err := r.apply(ctx, kw, newCpc)
		if err != nil {
			mtxRunErrors.Inc()
			return nil, fmt.Errorf("failed to raise bid: %w", err)
		}

		report.Raised = append(report.Raised, change)
		mtxBidsAdjusted.WithLabelValues(phaseRaise).Inc()
		log.Info("raised bid", changeFields(kw, change)...)
	}

	// Phase 2: lower overperforming keywords, best metric first.
	overperforming, err := r.src.Keywords(ctx, source.Query{
		Status:    core.StatusEnabled,
		Metric:    policy.Metric,
		Bound:     source.AboveThreshold,
		Threshold: band.UpperThreshold(),
		Range:     window,
		Order:     source.Descending,
	})
	if err != nil {
		mtxRunErrors.Inc()
		return nil, fmt.Errorf("failed to fetch overperforming keywords: %w", err)
	}
	mtxKeywordsExamined.WithLabelValues(phaseLower).Add(float64(len(overperforming)))

	for _, kw := range overperforming {
		if r.skip(kw) {
			report.Skipped++
			mtxKeywordsSkipped.Inc()
			log.Debug("skipped keyword with zero impressions", keywordFields(kw)...)
			continue
		}

		newCpc := policy.Lower(kw.Cpc)
		change, err := r.apply(ctx, kw, newCpc)
		if err != nil {
			mtxRunErrors.Inc()
			return nil, fmt.Errorf("failed to lower bid: %w", err)
		}

		report.Lowered = append(report.Lowered, change)
		mtxBidsAdjusted.WithLabelValues(phaseLower).Inc()
		log.Info("lowered bid", changeFields(kw, change)...)
	}

	all := make([]core.BidChange, 0, len(report.Raised)+len(report.Lowered))
	all = append(all, report.Raised...)
	all = append(all, report.Lowered...)
	report.Fingerprint = core.ComputePlanFingerprint(all)

	mtxLastRun.SetToCurrentTime()
	log.Info("run finished",
		zap.Int("raised", len(report.Raised)),
		zap.Int("lowered", len(report.Lowered)),
		zap.Int("skipped", report.Skipped),
		zap.String("fingerprint", report.Fingerprint),
	)

	return report, nil
}

func (r *Runner) skip(kw core.Keyword) bool {
	return r.cfg.SkipIfZeroImpressions && kw.Impressions == 0
}

func (r *Runner) apply(ctx context.Context, kw core.Keyword, newCpc float64) (core.BidChange, error) {
	change := core.BidChange{ID: kw.ID, OldCpc: kw.Cpc, NewCpc: newCpc}
	if r.dryRun {
		return change, nil
	}
	if err := r.src.SetBid(ctx, kw.ID, newCpc); err != nil {
		return core.BidChange{}, err
	}
	return change, nil
}

func keywordFields(kw core.Keyword) []zap.Field {
	return []zap.Field{
		zap.String("ad_group_id", kw.ID.AdGroupID),
		zap.String("criterion_id", kw.ID.CriterionID),
		zap.Float64("impression_share", kw.ImpressionShare),
	}
}

func changeFields(kw core.Keyword, change core.BidChange) []zap.Field {
	return append(keywordFields(kw),
		zap.Float64("old_cpc", change.OldCpc),
		zap.Float64("new_cpc", change.NewCpc),
	)
}
