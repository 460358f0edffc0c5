package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "boshamlan-scraper",
	Short: "Harvests fresh real-estate listings from boshamlan.com",
	Long: `Harvests the boshamlan.com listing feeds and the offices directory,
keeps what was published within the trailing recency window, and ships
the results to Excel workbooks, PostgreSQL, and S3.`,
}

// Execute runs the CLI. Interrupts cancel the context so in-flight
// harvests stop between feeds instead of mid-write.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
