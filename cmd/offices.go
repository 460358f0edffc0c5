package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"boshamlan-scraper/config"
	"boshamlan-scraper/scraper/boshamlan"
	"boshamlan-scraper/scraper/offices"
	"boshamlan-scraper/storage"
	"boshamlan-scraper/utils"
)

var (
	officesSkipUpload bool
	officesKeepLocal  bool
	officesDaysBack   int
)

var officesCmd = &cobra.Command{
	Use:   "offices",
	Short: "Scrape the real-estate offices directory",
	Long: `Reads the agents directory, visits every office page, and collects the
listings each office published within the recency window. Every office
with recent listings gets its own Excel workbook, uploaded to S3 under
the run date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOffices(cmd.Context())
	},
}

func init() {
	officesCmd.Flags().BoolVar(&officesSkipUpload, "skip-upload", false, "Write workbooks locally without uploading to S3")
	officesCmd.Flags().BoolVar(&officesKeepLocal, "keep-local", false, "Keep local workbooks after a successful upload")
	officesCmd.Flags().IntVar(&officesDaysBack, "days-back", 0, "Keep listings up to this many days old (overrides FILTER_DAYS_BACK)")
	rootCmd.AddCommand(officesCmd)
}

func runOffices(ctx context.Context) error {
	cfg := config.Load()
	logger := utils.NewLogger(cfg.Debug)

	daysBack := cfg.FilterDaysBack
	if officesDaysBack > 0 {
		daysBack = officesDaysBack
	}
	filterDate := time.Now().AddDate(0, 0, -daysBack)

	logger.Info("=== Boshamlan offices scrape starting ===")
	logger.Info("Config — keeping listings published since %s", filterDate.Format("2006-01-02"))

	browser, err := boshamlan.NewChrome(cfg, logger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer browser.Close()

	officeScraper := offices.NewScraper(browser, cfg, logger)
	all, err := officeScraper.ScrapeAll(ctx, filterDate)
	if err != nil {
		logger.Error("Offices scrape stopped early: %v", err)
	}
	if len(all) == 0 {
		logger.Error("No offices were scraped. Exiting.")
		return fmt.Errorf("offices scrape produced nothing")
	}

	totalListings := 0
	for _, office := range all {
		totalListings += len(office.Listings)
	}
	logger.Info("Scraped %d offices with %d recent listings in total", len(all), totalListings)

	outDir := filepath.Join(cfg.OutputDir, "offices")
	excelWriter, err := storage.NewExcelWriter(outDir, logger)
	if err != nil {
		return fmt.Errorf("create Excel writer: %w", err)
	}

	workbooks := make(map[string]string)
	skipped := 0
	for _, office := range all {
		if len(office.Listings) == 0 {
			skipped++
			continue
		}
		path, err := excelWriter.WriteOffice(office)
		if err != nil {
			logger.Error("Workbook for %s failed: %v", office.Name, err)
			continue
		}
		workbooks[strings.TrimSuffix(filepath.Base(path), ".xlsx")] = path
	}
	logger.Info("Wrote %d office workbooks (%d offices had no recent listings)", len(workbooks), skipped)

	if !officesSkipUpload && len(workbooks) > 0 {
		uploader, err := storage.NewS3Uploader(ctx, cfg.S3Bucket, cfg.S3OfficesBasePath,
			cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, logger)
		if err == nil {
			err = uploader.CheckBucket(ctx)
		}
		if err != nil {
			logger.Error("S3 is not reachable: %v", err)
			logger.Error("Workbooks kept under %s; rerun with --skip-upload to silence this", outDir)
			return fmt.Errorf("s3 preflight: %w", err)
		}

		uploaded := uploader.UploadWorkbooks(ctx, workbooks, filterDate)
		logger.Info("Uploaded %d/%d office workbooks to s3://%s", len(uploaded), len(workbooks), cfg.S3Bucket)

		if !officesKeepLocal {
			removed := 0
			for name := range uploaded {
				if path, ok := workbooks[name]; ok {
					if err := os.Remove(path); err == nil {
						removed++
					}
				}
			}
			logger.Info("Removed %d local workbooks after upload", removed)
		}
	}

	fmt.Printf("  Done. %d offices scraped, %d workbooks → %s\n\n", len(all), len(workbooks), outDir)
	return nil
}
