package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cian-scraper/config"
	"cian-scraper/models"
	"cian-scraper/scraper"
	"cian-scraper/scraper/cian"
	"cian-scraper/services"
	"cian-scraper/storage"
	"cian-scraper/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerTo(os.Stdout, os.Stderr, cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *utils.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== cian.ru Scraping System starting ===")
	logger.Info("Config: pages %d | listings/page %d | delay %v-%v | fetcher %s",
		cfg.PagesToScrape, cfg.ListingsPerPage, cfg.DelayMin, cfg.DelayMax, cfg.Fetcher)

	sel, err := config.LoadSelectors(cfg.SelectorsFile)
	if err != nil {
		return fmt.Errorf("load selectors: %w", err)
	}

	var fetcher scraper.PageFetcher
	switch cfg.Fetcher {
	case "http":
		fetcher = scraper.NewHTTPFetcher(cfg.RequestTimeout, logger)
	case "browser":
		bf, err := scraper.NewBrowserFetcher(cfg.ChromeBin, cfg.PageLoadWait, cfg.RequestTimeout, logger)
		if err != nil {
			return err
		}
		defer bf.Close()
		fetcher = bf
	default:
		return fmt.Errorf("unknown fetcher %q (want http or browser)", cfg.Fetcher)
	}

	records, err := cian.New(cfg, sel, fetcher, logger).Collect(ctx)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	saved, err := persist(ctx, cfg, logger, records)
	if err != nil {
		return err
	}
	if !saved {
		return nil
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(records))

	return nil
}

// persist writes records to the CSV file and, when enabled, to PostgreSQL.
// An empty run writes nothing so the previous output survives.
func persist(ctx context.Context, cfg *config.Config, logger *utils.Logger, records []*models.ListingRecord) (bool, error) {
	if len(records) == 0 {
		logger.Warn("No listings were collected, keeping previous output")
		return false, nil
	}

	csvWriter := storage.NewCSVWriter(cfg.CSVOutputPath)
	if err := save(ctx, csvWriter, records); err != nil {
		return false, err
	}
	logger.Info("Saved %d records to %s", len(records), csvWriter.Path())

	if cfg.PostgresEnabled {
		pgWriter, err := storage.NewPostgresWriter(ctx, cfg.DSN(), &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
		} else if err := save(ctx, pgWriter, records); err != nil {
			logger.Error("PostgreSQL write failed: %v", err)
		} else {
			logger.Info("Records stored in PostgreSQL (table: listings)")
		}
	}

	return true, nil
}

func save(ctx context.Context, w storage.RecordWriter, records []*models.ListingRecord) error {
	defer w.Close()
	return w.Write(ctx, records)
}
