package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"budgetreview/internal/backend"
	"budgetreview/internal/cli"
	"budgetreview/internal/config"
	"budgetreview/internal/dashboard"
	"budgetreview/internal/dataset"
	"budgetreview/internal/engine"
	applog "budgetreview/internal/log"
)

var (
	flagConfig   string
	flagSource   string
	flagBackend  string
	flagCurrency string
	flagCategory string
	flagTop      int
	flagVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:           "budgetctl",
	Short:         "Budget variance reports",
	Long:          "Compare two budget periods: top drivers, category totals and the itemized table.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runReport,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "TOML config file (overrides BUDGET_CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVarP(&flagSource, "source", "s", "", "CSV file to read instead of the configured backend")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Data backend ("+strings.Join(backend.GetBackendTypeStrings(), ", ")+"), overrides DATA_BACKEND")
	rootCmd.PersistentFlags().StringVarP(&flagCurrency, "currency", "c", "", "Display currency code")
	rootCmd.PersistentFlags().StringVar(&flagCategory, "category", "", "Filter to category (substring match)")
	rootCmd.PersistentFlags().IntVarP(&flagTop, "top", "n", 0, "Number of top drivers to show")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log to stderr")
}

// session is the loaded configuration and budget source shared by commands.
type session struct {
	cfg     *config.Config
	rates   engine.Rates
	store   *dataset.Store
	backend *backend.BackendResult
	logger  *applog.Logger
}

func (s *session) Close() error { return s.backend.Close() }

// open loads configuration and the budget source. --backend selects the
// backend type; --source forces the CSV backend at that path.
func open(ctx context.Context) (*session, error) {
	cli.LoadEnvFile()
	var logOut io.Writer = io.Discard
	if flagVerbose {
		logOut = os.Stderr
	}
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), logOut)

	if flagConfig != "" {
		if err := os.Setenv("BUDGET_CONFIG_FILE", flagConfig); err != nil {
			return nil, err
		}
	}
	if flagBackend != "" {
		if !backend.BackendType(flagBackend).IsValid() {
			return nil, fmt.Errorf("unknown backend %q, want one of %s", flagBackend, strings.Join(backend.GetBackendTypeStrings(), ", "))
		}
		if err := os.Setenv("DATA_BACKEND", flagBackend); err != nil {
			return nil, err
		}
	}
	if flagSource != "" {
		if err := os.Setenv("DATA_BACKEND", string(backend.CSVBackend)); err != nil {
			return nil, err
		}
		if err := os.Setenv("BUDGET_CSV_PATH", flagSource); err != nil {
			return nil, err
		}
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	rates, err := cfg.Rates()
	if err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.Slog()).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	store := dataset.NewStore(res.Reader, dataset.Options{
		Rates:    rates,
		Defaults: cfg.Defaults(),
		Logger:   logger.WithComponent(applog.ComponentDataset).Slog(),
	})
	return &session{cfg: cfg, rates: rates, store: store, backend: res, logger: logger}, nil
}

// params are the view parameters selected by the persistent flags.
func params() dashboard.Params {
	return dashboard.Params{Currency: flagCurrency, Category: flagCategory, TopN: flagTop}
}
