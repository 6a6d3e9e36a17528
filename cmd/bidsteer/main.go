// Command bidsteer runs one bid steering pass over an exported account
// snapshot: keywords under the target impression-share band get a bid raise,
// keywords above it get a bid cut. Intended to be triggered by an external
// scheduler; each invocation is independent.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bidsteer/config"
	"bidsteer/runner"
	"bidsteer/source"
)

var (
	configPath   string
	snapshotPath string
	outPath      string
	metricsAddr  string
	dryRun       bool
	jsonReport   bool
	debug        bool
)

var rootCmd = &cobra.Command{
	Use:   "bidsteer",
	Short: "Steer keyword bids toward a target impression share",
	Long: `bidsteer applies one pass of the impression-share bid policy to an
account snapshot: enabled keywords below the target band get a bounded bid
raise, keywords above it get the inverse cut. The adjusted snapshot can be
written back for a live adapter to apply.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "bidsteer.yaml", "path to the configuration file")
	rootCmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "path to the account snapshot (required)")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the adjusted snapshot to this path")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-listen", "", "serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute adjustments without mutating the snapshot")
	rootCmd.Flags().BoolVar(&jsonReport, "json", false, "print the run report as JSON")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	_ = rootCmd.MarkFlagRequired("snapshot")
}

func run(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	src, err := source.LoadSnapshot(snapshotPath)
	if err != nil {
		return err
	}

	if metricsAddr != "" {
		go serveMetrics(logger, metricsAddr)
	}

	r := runner.New(cfg, src, logger, runner.WithDryRun(dryRun))
	report, err := r.Run(cmd.Context())
	if err != nil {
		return err
	}

	if outPath != "" && !dryRun {
		if err := source.WriteSnapshot(outPath, src.Snapshot()); err != nil {
			return err
		}
		logger.Info("adjusted snapshot written", zap.String("path", outPath))
	}

	if jsonReport {
		return printJSON(report)
	}

	fmt.Printf("run %s: raised %d, lowered %d, skipped %d (window %s..%s)\n",
		report.RunID, len(report.Raised), len(report.Lowered), report.Skipped,
		report.Window.StartDate(), report.Window.FinishDate())
	return nil
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func serveMetrics(logger *zap.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics listener failed", zap.Error(err))
	}
}

func printJSON(report *runner.Report) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
