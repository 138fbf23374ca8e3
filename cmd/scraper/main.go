package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"go-upwork-scraper/internal/config"
	"go-upwork-scraper/internal/export"
	"go-upwork-scraper/internal/fetch"
	"go-upwork-scraper/internal/reporter"
	"go-upwork-scraper/internal/scraper"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to YAML config file")
	query := flag.String("query", "", "keyword or raw search URL (overrides config)")
	format := flag.String("format", "", "export format: json, csv, xlsx, xml (overrides config)")
	maxItems := flag.Int("max-items", 0, "maximum number of records to collect (overrides config)")
	maxPages := flag.Int("max-pages", 0, "maximum number of pages to fetch (overrides config)")
	outDir := flag.String("out", "", "output directory (overrides config)")
	verbose := flag.Bool("verbose", false, "log every admitted record")
	flag.Parse()

	//load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	//override with CLI flags
	if *query != "" {
		cfg.Query = *query
	}
	if *format != "" {
		cfg.OutputFormat = *format
	}
	if *maxItems > 0 {
		cfg.MaxItems = *maxItems
	}
	if *maxPages > 0 {
		cfg.MaxPages = *maxPages
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid config: %v", err)
	}
	outputFormat, err := export.ParseFormat(cfg.OutputFormat)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("🔧 Config loaded. Query: %q, maxItems=%d, maxPages=%d, format=%s", cfg.Query, cfg.MaxItems, cfg.MaxPages, outputFormat)

	//init optional telegram reporter
	var bot *reporter.TelegramReporter
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		bot, err = reporter.NewTelegramReporter(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("⚠️ Telegram reporter disabled: %v", err)
			bot = nil
		} else {
			log.Println("🤖 Telegram reporter initialized.")
		}
	}

	fetcher, err := fetch.NewHTTPFetcher(fetch.Options{
		Timeout:      config.Duration(cfg.Timeout),
		RequestDelay: config.Duration(cfg.RequestDelay),
		Proxy:        cfg.Proxy,
		UserAgent:    cfg.UserAgent,
	})
	if err != nil {
		log.Fatalf("❌ Failed to init fetcher: %v", err)
	}

	runner := scraper.NewRunner(fetcher, scraper.RunConfig{
		MaxItems:   cfg.MaxItems,
		MaxPages:   cfg.MaxPages,
		RetryLimit: cfg.RetryLimit,
		RetryDelay: config.Duration(cfg.RetryDelay),
	})

	//cancel the run on Ctrl-C; accumulated records are still exported
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Println("🚀 Starting Upwork jobs scrape...")
	records, summary, err := runner.Run(ctx, buildQuery(cfg))
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	log.Printf("📊 Run %s: %d records, %d rejected, %d pages fetched", summary.Status, summary.RecordCount, summary.RejectedCount, summary.PagesFetched)
	for _, e := range summary.Errors {
		log.Printf("  ⚠️ page %d [%s]: %s", e.Page, e.Kind, e.Message)
	}
	if *verbose {
		for _, r := range records {
			log.Printf("  ✅ %s - %s", r.JobID, r.Title)
		}
	}

	if bot != nil {
		if err := bot.SendSummary(summary); err != nil {
			log.Printf("⚠️ Failed to send summary to Telegram: %v", err)
		}
	}

	//export results
	filename := fmt.Sprintf("%s_%s.%s", cfg.FilePrefix, time.Now().UTC().Format("20060102_150405"), outputFormat)
	outPath := filepath.Join(cfg.OutputDir, filename)
	if err := export.Export(records, outputFormat, outPath); err != nil {
		log.Printf("❌ Export failed: %v", err)
		os.Exit(1)
	}
	log.Printf("📁 Results saved to %s", outPath)

	if summary.Status == scraper.StatusFailed {
		os.Exit(1)
	}
	log.Println("🏁 Execution finished.")
}

func buildQuery(cfg *config.Config) scraper.SearchQuery {
	if strings.HasPrefix(cfg.Query, "http://") || strings.HasPrefix(cfg.Query, "https://") {
		return scraper.SearchQuery{URL: cfg.Query}
	}
	return scraper.SearchQuery{Keyword: cfg.Query, Filters: cfg.Filters}
}
