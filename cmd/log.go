package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wagetrack/wagetrack/internal/aggregate"
	"github.com/wagetrack/wagetrack/internal/errs"
	"github.com/wagetrack/wagetrack/internal/model"
)

var logDate string

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "List the time entries of one day",
	Args:  cobra.NoArgs,
	RunE:  runLog,
}

func init() {
	logCmd.Flags().StringVar(&logDate, "date", "", "Day to list (YYYY-MM-DD, default today)")
}

func runLog(cmd *cobra.Command, args []string) error {
	day := time.Now()
	if logDate != "" {
		d, err := time.Parse(model.DateKey, logDate)
		if err != nil {
			return errs.Validation("invalid --date value %q, want YYYY-MM-DD", logDate)
		}
		day = d
	}
	key := day.Format(model.DateKey)

	return store.Do(flagUser, func() error {
		rec, err := store.Get(flagUser)
		if err != nil {
			return err
		}
		if rec == nil || rec.Session(key) == nil {
			fmt.Println("No entries found.")
			return nil
		}
		printEntries(key, rec.Session(key))
		return nil
	})
}

// printEntries renders one session's entries in order.
func printEntries(date string, ses *model.WorkSession) {
	fmt.Println(date)
	for _, e := range ses.Entries {
		src := e.Source
		if e.RemoteEntryID != "" {
			src += " " + e.RemoteEntryID
		}
		fmt.Printf("%s  %-8s %10.2f  (%s)\n",
			e.CreatedAt.Format("15:04"), aggregate.FormatMinutes(e.Minutes), e.EarningsAtRate, src)
	}
	fmt.Printf("Total: %s = %.2f\n", aggregate.FormatMinutes(ses.TotalMinutes), ses.TotalEarnings)
}
