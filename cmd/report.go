package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wagetrack/wagetrack/internal/aggregate"
	"github.com/wagetrack/wagetrack/internal/errs"
	"github.com/wagetrack/wagetrack/internal/model"
)

var (
	reportYesterday bool
	reportWeek      bool
	reportMonth     bool
	reportLast      int
	reportMonthOf   string
	reportYearOf    int
	reportDetails   bool
	reportWeeks     bool
	reportFormat    string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show an earnings report for a date range",
	Long: `report aggregates the ledger over a date range. By default it covers
today; --week and --month cover the trailing 7 and 30 days, while
--month-of and --year cover a named calendar month or year.`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportYesterday, "yesterday", false, "Report for yesterday")
	reportCmd.Flags().BoolVar(&reportWeek, "week", false, "Report for the trailing 7 days")
	reportCmd.Flags().BoolVar(&reportMonth, "month", false, "Report for the trailing 30 days")
	reportCmd.Flags().IntVar(&reportLast, "last", 0, "Report for the trailing N days")
	reportCmd.Flags().StringVar(&reportMonthOf, "month-of", "", "Report for a calendar month (YYYY-MM)")
	reportCmd.Flags().IntVar(&reportYearOf, "year", 0, "Report for a calendar year")
	reportCmd.Flags().BoolVar(&reportDetails, "details", false, "Include a per-day breakdown")
	reportCmd.Flags().BoolVar(&reportWeeks, "weeks", false, "Break a calendar month into weeks (with --month-of, default current month)")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

// reportRange builds the requested date range.
func reportRange(now time.Time) (aggregate.Range, string, error) {
	switch {
	case reportMonthOf != "":
		t, err := time.Parse("2006-01", reportMonthOf)
		if err != nil {
			return aggregate.Range{}, "", errs.Validation("invalid --month-of value %q, want YYYY-MM", reportMonthOf)
		}
		r := aggregate.CalendarMonth(t.Year(), t.Month(), now.Location())
		return r, t.Format("January 2006"), nil
	case reportYearOf != 0:
		r := aggregate.CalendarYear(reportYearOf, now.Location())
		return r, fmt.Sprintf("%d", reportYearOf), nil
	case reportLast > 0:
		return aggregate.LastNDays(now, reportLast), fmt.Sprintf("last %d days", reportLast), nil
	case reportMonth:
		return aggregate.Month(now), "last 30 days", nil
	case reportWeek:
		return aggregate.Week(now), "last 7 days", nil
	case reportYesterday:
		return aggregate.Yesterday(now), "yesterday", nil
	default:
		return aggregate.Today(now), "today", nil
	}
}

func runReport(cmd *cobra.Command, args []string) error {
	now := time.Now()

	var rec *model.UserRecord
	err := store.Do(flagUser, func() error {
		var err error
		rec, err = store.GetOrCreate(flagUser)
		return err
	})
	if err != nil {
		return err
	}

	if reportWeeks {
		return printMonthWeeks(rec, now)
	}

	r, label, err := reportRange(now)
	if err != nil {
		return err
	}
	sum := aggregate.Summarize(rec, r)

	switch reportFormat {
	case "json":
		data, err := json.MarshalIndent(sum, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		fmt.Println(string(data))
	case "csv":
		fmt.Println("date,minutes,earnings")
		for _, d := range sum.Days {
			fmt.Printf("%s,%d,%.2f\n", csvEscape(d.Date), d.Minutes, d.Earnings)
		}
	default: // md
		printSummary(label, r, sum)
	}
	return nil
}

func printSummary(label string, r aggregate.Range, sum aggregate.Summary) {
	fmt.Printf("Earnings for %s (%s)\n", label, r)
	fmt.Println("--------------------------------")
	if reportDetails {
		for _, d := range sum.Days {
			fmt.Printf("%s  %-8s %10.2f\n", d.Date, aggregate.FormatMinutes(d.Minutes), d.Earnings)
		}
		fmt.Println("--------------------------------")
	}
	fmt.Printf("Days worked: %d\n", sum.DaysWorked())
	fmt.Printf("Worked:      %s\n", aggregate.FormatMinutes(sum.TotalMinutes))
	fmt.Printf("Earned:      %.2f\n", sum.TotalEarnings)
	if n := sum.DaysWorked(); n > 0 {
		fmt.Printf("Per day:     %.2f\n", sum.TotalEarnings/float64(n))
	}
}

// printMonthWeeks renders the weeks-of-month breakdown.
func printMonthWeeks(rec *model.UserRecord, now time.Time) error {
	year, month := now.Year(), now.Month()
	if reportMonthOf != "" {
		t, err := time.Parse("2006-01", reportMonthOf)
		if err != nil {
			return errs.Validation("invalid --month-of value %q, want YYYY-MM", reportMonthOf)
		}
		year, month = t.Year(), t.Month()
	}

	weeks := aggregate.SummarizeWeeks(rec, year, month, now)
	fmt.Printf("Weeks of %s %d\n", month, year)
	fmt.Println("--------------------------------")
	var totalMinutes int
	var totalEarnings float64
	for i, w := range weeks {
		fmt.Printf("Week %d (%s – %s): %s = %.2f\n",
			i+1, w.Start.Format("02.01"), w.End.Format("02.01"),
			aggregate.FormatMinutes(w.Minutes), w.Earnings)
		totalMinutes += w.Minutes
		totalEarnings += w.Earnings
	}
	fmt.Println("--------------------------------")
	fmt.Printf("%-10s%s = %.2f\n", "Total", aggregate.FormatMinutes(totalMinutes), totalEarnings)
	return nil
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	needsQuote := false
	for _, c := range s {
		if c == ',' || c == '"' || c == '\n' || c == '\r' {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return s
	}
	// Escape internal double quotes by doubling them.
	escaped := ""
	for _, c := range s {
		if c == '"' {
			escaped += "\""
		}
		escaped += string(c)
	}
	return `"` + escaped + `"`
}
