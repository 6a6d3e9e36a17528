// Package config loads and validates the bid steering configuration. All
// knobs are fixed for the lifetime of a run; validation is eager so a
// degenerate configuration fails at startup instead of producing degenerate
// bids.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bidsteer/core"
)

// Config holds all knobs for one bid steering run.
type Config struct {
	// UseAbsoluteTop steers on search absolute-top impression share instead
	// of plain search impression share.
	UseAbsoluteTop bool `yaml:"use_absolute_top"`

	// TargetImpressionShare is the share to converge toward, in (0,1).
	TargetImpressionShare float64 `yaml:"target_impression_share"`

	// Tolerance is the half-width of the no-adjustment band, in (0,1).
	Tolerance float64 `yaml:"tolerance"`

	// BidAdjustmentCoefficient is the multiplicative step, > 1.
	BidAdjustmentCoefficient float64 `yaml:"bid_adjustment_coefficient"`

	// StatisticsWindowDays is the inclusive length of the metrics window.
	StatisticsWindowDays int `yaml:"statistics_window_days"`

	// SkipIfZeroImpressions leaves keywords with no impressions in the
	// window untouched even when their metric qualifies.
	SkipIfZeroImpressions bool `yaml:"skip_if_zero_impressions"`

	// MinBid and MaxBid bound every adjusted bid.
	MinBid float64 `yaml:"min_bid"`
	MaxBid float64 `yaml:"max_bid"`

	// UseReferenceCpcFloor floors raised bids at the platform-estimated
	// first-page or top-of-page CPC.
	UseReferenceCpcFloor bool `yaml:"use_reference_cpc_floor"`
}

// Load reads a YAML configuration from path and validates it.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that would produce degenerate bids.
func (c *Config) Validate() error {
	if c.TargetImpressionShare <= 0 || c.TargetImpressionShare >= 1 {
		return fmt.Errorf("target_impression_share must be in (0,1), got %v", c.TargetImpressionShare)
	}
	if c.Tolerance < 0 || c.Tolerance >= 1 {
		return fmt.Errorf("tolerance must be in [0,1), got %v", c.Tolerance)
	}
	if c.BidAdjustmentCoefficient <= 1 {
		return fmt.Errorf("bid_adjustment_coefficient must be > 1, got %v", c.BidAdjustmentCoefficient)
	}
	if c.StatisticsWindowDays <= 0 {
		return fmt.Errorf("statistics_window_days must be > 0, got %d", c.StatisticsWindowDays)
	}
	if c.MinBid < 0 {
		return fmt.Errorf("min_bid must be >= 0, got %v", c.MinBid)
	}
	if c.MinBid > c.MaxBid {
		return fmt.Errorf("min_bid %v exceeds max_bid %v", c.MinBid, c.MaxBid)
	}
	return nil
}

// Metric returns the configured impression-share variant.
func (c *Config) Metric() core.Metric {
	if c.UseAbsoluteTop {
		return core.MetricAbsoluteTopImpressionShare
	}
	return core.MetricImpressionShare
}

// Band returns the configured tolerance band.
func (c *Config) Band() core.Band {
	return core.Band{Target: c.TargetImpressionShare, Tolerance: c.Tolerance}
}

// Policy returns the bid adjustment policy for this configuration.
func (c *Config) Policy() core.Policy {
	return core.Policy{
		Coefficient:       c.BidAdjustmentCoefficient,
		MinBid:            c.MinBid,
		MaxBid:            c.MaxBid,
		UseReferenceFloor: c.UseReferenceCpcFloor,
		Metric:            c.Metric(),
	}
}
