package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"boshamlan-scraper/config"
	"boshamlan-scraper/models"
	"boshamlan-scraper/scraper/boshamlan"
	"boshamlan-scraper/services"
	"boshamlan-scraper/storage"
	"boshamlan-scraper/utils"
)

var skipUpload bool

var propertiesCmd = &cobra.Command{
	Use:   "properties",
	Short: "Harvest fresh listings from every category feed",
	Long: `Walks the configured category tree, scrolls each search feed until its
tail goes stale, and keeps the records published since yesterday. The
harvest lands in a raw CSV, per-category Excel workbooks, optionally
PostgreSQL, and optionally S3.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProperties(cmd.Context())
	},
}

func init() {
	propertiesCmd.Flags().BoolVar(&skipUpload, "skip-upload", false, "Write workbooks locally without uploading to S3")
	rootCmd.AddCommand(propertiesCmd)
}

func runProperties(ctx context.Context) error {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.Debug)

	logger.Info("=== Boshamlan property harvest starting ===")
	logger.Info("Config — max scrolls: %d | tail window: %d | stale limit: %d | api rate: %dms",
		cfg.MaxScrolls, cfg.TailWindow, cfg.StaleLimit, cfg.APIRateMs)

	categories, err := config.LoadCategories(cfg.CategoriesPath)
	if err != nil {
		return err
	}

	csvWriter, err := storage.NewCSVWriter(cfg.RawCSVPath)
	if err != nil {
		return fmt.Errorf("create CSV writer: %w", err)
	}
	defer csvWriter.Close()

	excelWriter, err := storage.NewExcelWriter(cfg.OutputDir, logger)
	if err != nil {
		return fmt.Errorf("create Excel writer: %w", err)
	}

	var uploader *storage.S3Uploader
	if !skipUpload {
		uploader, err = storage.NewS3Uploader(ctx, cfg.S3Bucket, cfg.S3BasePath,
			cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, logger)
		if err == nil {
			err = uploader.CheckBucket(ctx)
		}
		if err != nil {
			logger.Error("S3 is not reachable: %v", err)
			logger.Error("Check AWS credentials, or rerun with --skip-upload")
			return fmt.Errorf("s3 preflight: %w", err)
		}
		logger.Info("Upload run %s targeting s3://%s/%s", uploader.RunID(), cfg.S3Bucket, cfg.S3BasePath)
	}

	var pgWriter *storage.PostgresWriter
	if cfg.PostgresEnabled {
		pgWriter, err = storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
			return fmt.Errorf("postgres: %w", err)
		}
		defer pgWriter.Close()
	}

	browser, err := boshamlan.NewChrome(cfg, logger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer browser.Close()

	catScraper := boshamlan.NewCategoryScraper(browser, cfg, logger)
	results := catScraper.HarvestAll(ctx, categories)

	totalRaw := 0
	for _, res := range results {
		totalRaw += len(res.Records())
	}
	if totalRaw == 0 {
		logger.Error("No records were harvested. Exiting.")
		return fmt.Errorf("harvest produced no records")
	}
	logger.Info("Harvested %d raw records across %d categories", totalRaw, len(results))

	cleaner := services.NewCleaner(logger)
	byCategory := make(map[string][]*models.Record)
	workbooks := make(map[string]string)
	totalClean := 0

	for _, res := range results {
		sheets := make([]storage.SubcategoryRecords, 0, len(res.Subcategories))
		for _, sub := range res.Subcategories {
			if len(sub.Records) > 0 {
				if err := csvWriter.Write(res.Category, sub.Subcategory, sub.Records); err != nil {
					logger.Error("CSV write for %s/%s failed: %v", res.Category, sub.Subcategory, err)
				}
			}

			clean := cleaner.Clean(sub.Records)
			totalClean += len(clean)
			sheets = append(sheets, storage.SubcategoryRecords{Subcategory: sub.Subcategory, Records: clean})
			byCategory[res.Category] = append(byCategory[res.Category], clean...)

			if pgWriter != nil && len(clean) > 0 {
				if err := pgWriter.Write(res.Category, sub.Subcategory, clean); err != nil {
					logger.Error("PostgreSQL write for %s/%s failed: %v", res.Category, sub.Subcategory, err)
				}
			}
		}

		path, err := excelWriter.WriteCategory(res.Category, sheets)
		if err != nil {
			logger.Error("Workbook for %s failed: %v", res.Category, err)
			continue
		}
		if path == "" {
			logger.Warn("%s: no fresh records, no workbook written", res.Category)
			continue
		}
		workbooks[res.Category] = path
	}

	logger.Info("Cleaned dataset: %d records", totalClean)

	if pgWriter != nil {
		if n, err := pgWriter.Count(); err == nil {
			logger.Info("PostgreSQL records table now holds %d rows", n)
		}
	}

	if uploader != nil && len(workbooks) > 0 {
		day := time.Now()
		uploaded := uploader.UploadWorkbooks(ctx, workbooks, day)
		logger.Info("Uploaded %d/%d workbooks to s3://%s", len(uploaded), len(workbooks), cfg.S3Bucket)

		if cfg.UploadImages {
			totalImages := 0
			for category, records := range byCategory {
				totalImages += len(uploader.UploadImages(ctx, records, category, day))
			}
			logger.Info("Uploaded %d listing images", totalImages)
		}

		if keys, err := uploader.ListUploaded(ctx, day); err == nil {
			logger.Info("Partition %s now holds %d objects", storage.DatePartition(day), len(keys))
		}
	}

	insightSvc := services.NewInsightService(logger)
	report := insightSvc.Generate(byCategory)
	insightSvc.Print(report)

	fmt.Printf("  Done. Raw CSV → %s | Workbooks → %s\n\n", cfg.RawCSVPath, cfg.OutputDir)
	return nil
}
