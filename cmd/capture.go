// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rupali59/devnotes/internal/calendar"
	"github.com/rupali59/devnotes/internal/config"
	"github.com/rupali59/devnotes/internal/gateway"
	"github.com/rupali59/devnotes/internal/usecase"
)

const dateLayout = "2006-01-02"

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Captures GitHub activity and updates the daily notes",
	Long: `Captures commits, pull requests and issues for every tracked repository
and merges the generated sections into the matching daily-note files.
Without date flags the target is yesterday. A hard authorization failure
aborts the whole run before any note file is touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		// Get the verbose flag from the root command to set up the logger.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
		if verbose {
			logger.SetOutput(os.Stderr) // If verbose, log to standard error.
		}

		cfgPath, _ := cmd.InheritedFlags().GetString("config")
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}

		days, err := resolveDays(cmd)
		if err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")

		githubGateway, err := gateway.NewGitHubGateway(cfg.Token, cfg.Username, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		collector := usecase.NewCollector(githubGateway, logger)
		updater := calendar.NewUpdater(cfg.CalendarRoot(), logger)

		failed := 0
		for _, day := range days {
			result, err := collector.Collect(ctx, cfg.Repositories, day)
			if err != nil {
				// Fail closed: an auth failure means no note is written,
				// for this date or any remaining one.
				return err
			}
			for repo, msg := range result.Errors {
				fmt.Fprintf(os.Stderr, "warning: %s: %s\n", repo, msg)
			}

			sections := calendar.Sections(result, time.Now())
			if dryRun {
				fmt.Printf("--- %s (%d commits, %d PRs, %d issues)\n",
					day.Format(dateLayout), result.TotalCommits, result.TotalPullRequests, result.TotalIssues)
				for _, s := range sections {
					fmt.Println(s)
					fmt.Println()
				}
				continue
			}

			path, err := updater.MergeSections(day, sections)
			if err != nil {
				// Note-file I/O failures are per-date; the batch continues.
				fmt.Fprintf(os.Stderr, "failed to update note for %s: %v\n", day.Format(dateLayout), err)
				failed++
				continue
			}
			fmt.Printf("Updated %s (%d commits, %d PRs, %d issues)\n",
				path, result.TotalCommits, result.TotalPullRequests, result.TotalIssues)
		}

		if failed > 0 {
			return fmt.Errorf("failed to update %d of %d notes", failed, len(days))
		}
		return nil
	},
}

// resolveDays turns the date flags into the list of target days:
// --date for a single day, --from/--to for an inclusive range, and
// yesterday when neither is given.
func resolveDays(cmd *cobra.Command) ([]time.Time, error) {
	dateStr, _ := cmd.Flags().GetString("date")
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	if dateStr != "" && (fromStr != "" || toStr != "") {
		return nil, fmt.Errorf("--date cannot be combined with --from/--to")
	}

	if dateStr != "" {
		day, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid --date %q, expected YYYY-MM-DD: %w", dateStr, err)
		}
		return []time.Time{day.UTC()}, nil
	}

	if fromStr != "" || toStr != "" {
		if fromStr == "" || toStr == "" {
			return nil, fmt.Errorf("--from and --to must be given together")
		}
		from, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return nil, fmt.Errorf("invalid --from %q, expected YYYY-MM-DD: %w", fromStr, err)
		}
		to, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return nil, fmt.Errorf("invalid --to %q, expected YYYY-MM-DD: %w", toStr, err)
		}
		if to.Before(from) {
			return nil, fmt.Errorf("--to must not be before --from")
		}
		var days []time.Time
		for d := from.UTC(); !d.After(to.UTC()); d = d.AddDate(0, 0, 1) {
			days = append(days, d)
		}
		return days, nil
	}

	return []time.Time{time.Now().UTC().AddDate(0, 0, -1)}, nil
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().String("date", "", "Single date to capture (YYYY-MM-DD)")
	captureCmd.Flags().String("from", "", "Start of an inclusive date range (YYYY-MM-DD)")
	captureCmd.Flags().String("to", "", "End of an inclusive date range (YYYY-MM-DD)")
	captureCmd.Flags().Bool("dry-run", false, "Render the sections without writing any note file")
}
