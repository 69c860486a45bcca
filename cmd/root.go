package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/IvndxDB/upc-backend/internal/config"
	"github.com/IvndxDB/upc-backend/internal/fetch"
	"github.com/IvndxDB/upc-backend/internal/model"
	"github.com/IvndxDB/upc-backend/internal/oracle"
	"github.com/IvndxDB/upc-backend/internal/pipeline"
	"github.com/IvndxDB/upc-backend/internal/search"
	"github.com/IvndxDB/upc-backend/internal/shopping"
	"github.com/IvndxDB/upc-backend/pkg/anthropic"
	"github.com/IvndxDB/upc-backend/pkg/duckduckgo"
	"github.com/IvndxDB/upc-backend/pkg/serpapi"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "upc-backend",
	Short: "Best-effort retail price lookup service",
	Long:  "Looks up product prices from retail pages, web search and Google Shopping, with optional AI cleanup, for the barcode-scanner browser extension.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// buildPipeline assembles the lookup pipeline from config. AI and
// shopping stages come up only when their API keys are set.
func buildPipeline(c *config.Config) *pipeline.Pipeline {
	opts := pipeline.Options{
		Fetcher: fetch.NewHTTPFetcher(time.Duration(c.Fetch.TimeoutSecs) * time.Second),
		Searcher: search.NewDuckDuckGo(
			duckduckgo.NewClient(duckduckgo.WithRegion(c.Search.Region)),
		),
		Bounds: model.PriceBounds{
			Min: c.Lookup.MinPrice,
			Max: c.Lookup.MaxPrice,
		},
		DefaultCurrency: c.Lookup.DefaultCurrency,
	}

	if c.Anthropic.Key != "" {
		opts.Engine = oracle.NewClaudeEngine(
			anthropic.NewClient(c.Anthropic.Key),
			c.Anthropic.Model,
			c.Lookup.DefaultCurrency,
			time.Duration(c.Anthropic.TimeoutSecs)*time.Second,
		)
	} else {
		zap.L().Info("anthropic key not set, AI enhancement disabled")
	}

	if c.SerpAPI.Key != "" {
		opts.Shopper = shopping.NewSerpAPI(
			serpapi.NewClient(c.SerpAPI.Key,
				serpapi.WithRateLimit(rate.Limit(c.SerpAPI.RatePerSecond), c.SerpAPI.RateBurst),
			),
			c.Lookup.DefaultCurrency,
		)
	} else {
		zap.L().Info("serpapi key not set, shopping branch disabled")
	}

	return pipeline.New(opts)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
