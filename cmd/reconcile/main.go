// Command reconcile runs the batch reconciliation pipeline once and writes
// the result as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/costomenu/reconcile/internal/config"
	"github.com/costomenu/reconcile/internal/domain"
	"github.com/costomenu/reconcile/internal/logging"
	"github.com/costomenu/reconcile/internal/pipeline"
	"github.com/costomenu/reconcile/internal/verified"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		outPath       string
		referenceDate string
		crmPath       string
		paymentsPath  string
		verifiedPath  string
		reportOnly    bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Cross-source reconciliation and cohort engine",
		Long: "Reconciles the CRM export, the payment-provider export and the " +
			"verified-licenses table into one user dataset with health states, " +
			"cohort retention and a discrepancy report.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if crmPath != "" {
				cfg.Sources.CRMPath = crmPath
			}
			if paymentsPath != "" {
				cfg.Sources.PaymentsPath = paymentsPath
			}
			if verifiedPath != "" {
				cfg.Sources.VerifiedPath = verifiedPath
			}

			logger := logging.New(cfg.Logging)
			defer func() { _ = logger.Sync() }()

			var opts []pipeline.Option
			if referenceDate != "" {
				t, err := time.Parse(time.DateOnly, referenceDate)
				if err != nil {
					return fmt.Errorf("invalid --reference-date %q: %w", referenceDate, err)
				}
				opts = append(opts, pipeline.WithReferenceDate(domain.DateOf(t)))
			}

			src, err := buildVerifiedSource(cfg, logger)
			if err != nil {
				return fmt.Errorf("open verified source: %w", err)
			}
			if src != nil {
				defer func() { _ = src.Close() }()
			}

			engine := pipeline.New(cfg, logger, src, opts...)
			res, err := engine.Run(cmd.Context())
			if err != nil {
				return err
			}

			var payload any = res
			if reportOnly {
				payload = res.Report
			}
			return writeJSON(outPath, payload)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "-", "output path for the result JSON (- for stdout)")
	cmd.Flags().StringVar(&referenceDate, "reference-date", "", "evaluate activity windows against this date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&crmPath, "crm", "", "CRM export path (overrides RECON_CRM_PATH)")
	cmd.Flags().StringVar(&paymentsPath, "payments", "", "payment export path (overrides RECON_PAYMENTS_PATH)")
	cmd.Flags().StringVar(&verifiedPath, "verified", "", "verified-licenses snapshot path (overrides RECON_VERIFIED_PATH)")
	cmd.Flags().BoolVar(&reportOnly, "report-only", false, "emit only the reconciliation report, not the full record set")

	return cmd
}

func buildVerifiedSource(cfg config.Config, logger *zap.Logger) (verified.Source, error) {
	if cfg.Database.DSN != "" {
		logger.Info("using postgres verified source", zap.String("table", cfg.Database.Table))
		return verified.NewPostgresSource(cfg.Database)
	}
	if cfg.Sources.VerifiedPath != "" {
		return verified.NewCSVSource(cfg.Sources.VerifiedPath), nil
	}
	return nil, nil
}

func writeJSON(path string, payload any) error {
	out := os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
