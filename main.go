package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stock-screener/config"
	"stock-screener/loader"
	"stock-screener/models"
	"stock-screener/screener"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Natural-language stock screener",
	Long: `screener answers plain-English questions about a stock universe:

  stocks with PE < 15 and ROE > 20%
  top 10 IT stocks by market cap
  compare TCS vs INFY
  +1 exclude banking

Without --config (or SCREENER_UNIVERSE) the embedded sample universe is used.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		logger, err = config.NewLogger(cfg.Logging)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, queryCmd, replCmd)
}

// loadUniverse reads the configured universe, or the embedded sample, and
// optionally refreshes it with live quotes.
func loadUniverse(ctx context.Context) ([]models.Stock, error) {
	var (
		stocks []models.Stock
		err    error
	)
	if cfg.Data.Universe == "" {
		stocks, err = loader.Sample()
	} else {
		stocks, err = loader.LoadStocks(cfg.Data.Universe, cfg.Data.Format, logger)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load universe: %w", err)
	}
	logger.Info("universe loaded", zap.Int("stocks", len(stocks)), zap.String("source", cfg.Data.Universe))

	if cfg.Data.LiveQuotes {
		if _, err := loader.RefreshQuotes(ctx, stocks, loader.QuoteOptions{Logger: logger}); err != nil {
			return nil, fmt.Errorf("failed to refresh quotes: %w", err)
		}
	}
	return stocks, nil
}

func newEngine(ctx context.Context) (*screener.Engine, error) {
	stocks, err := loadUniverse(ctx)
	if err != nil {
		return nil, err
	}
	opts := []screener.Option{
		screener.WithLogger(logger),
		screener.WithDefaultLimit(cfg.Engine.DefaultLimit),
		screener.WithHistorySize(cfg.Engine.HistorySize),
		screener.WithSuggestionCount(cfg.Engine.Suggestions),
	}
	if cfg.Index.Kind == "memory" {
		opts = append(opts, screener.WithMemoryIndex())
	}
	return screener.New(stocks, opts...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
