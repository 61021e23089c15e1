package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wagetrack/wagetrack/internal/aggregate"
	"github.com/wagetrack/wagetrack/internal/errs"
	"github.com/wagetrack/wagetrack/internal/model"
	"github.com/wagetrack/wagetrack/internal/syncer"
)

var (
	syncFrom  string
	syncTo    string
	syncDate  string
	syncToday bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge ClickUp time entries into the ledger",
	Long: `sync fetches the user's ClickUp time entries for a date range and
merges them into the ledger. Entries already merged (by remote id) are
skipped, so re-running a sync never double-counts.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	syncCmd.Flags().StringVar(&syncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	syncCmd.Flags().StringVar(&syncDate, "date", "", "Sync a specific date (YYYY-MM-DD)")
	syncCmd.Flags().BoolVar(&syncToday, "today", false, "Sync only today (default)")
}

// syncRange builds the range from the flags.
func syncRange(now time.Time) (aggregate.Range, error) {
	if syncToday && (syncDate != "" || syncFrom != "" || syncTo != "") {
		return aggregate.Range{}, errs.Validation("--today cannot be combined with --date, --from or --to")
	}
	switch {
	case syncDate != "":
		d, err := time.Parse(model.DateKey, syncDate)
		if err != nil {
			return aggregate.Range{}, errs.Validation("invalid --date value %q", syncDate)
		}
		return aggregate.Day(d), nil

	case syncFrom != "" || syncTo != "":
		if syncTo != "" && syncFrom == "" {
			return aggregate.Range{}, errs.Validation("--from is required when --to is specified")
		}
		from, err := time.Parse(model.DateKey, syncFrom)
		if err != nil {
			return aggregate.Range{}, errs.Validation("invalid --from value %q", syncFrom)
		}
		to := now
		if syncTo != "" {
			to, err = time.Parse(model.DateKey, syncTo)
			if err != nil {
				return aggregate.Range{}, errs.Validation("invalid --to value %q", syncTo)
			}
		}
		if to.Before(from) {
			return aggregate.Range{}, errs.Validation("--to is before --from")
		}
		return aggregate.Range{From: aggregate.StartOfDay(from), To: aggregate.StartOfDay(to)}, nil

	default:
		return aggregate.Today(now), nil
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	r, err := syncRange(time.Now())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	api, err := newRemote(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Syncing ClickUp time entries (%s)...\n", r)

	engine := syncer.New(store, api, logger)
	res, err := engine.SyncRange(ctx, flagUser, r)
	if err != nil {
		return err
	}

	fmt.Println("Summary:")
	fmt.Printf("  %d added\n", res.Added)
	fmt.Printf("  %d skipped\n", res.Skipped)
	if len(res.Failed) > 0 {
		fmt.Printf("  %d dates failed:\n", len(res.Failed))
		for _, f := range res.Failed {
			fmt.Printf("    %s: %v\n", f.Date, f.Err)
		}
		if errs.Retryable(res.Failed[0].Err) {
			fmt.Println("Re-run the sync to retry the failed dates.")
		}
		os.Exit(2)
	}
	return nil
}
