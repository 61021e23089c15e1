package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wagetrack/wagetrack/internal/aggregate"
	"github.com/wagetrack/wagetrack/internal/dialog"
)

var addCmd = &cobra.Command{
	Use:   "add <hours> <minutes>",
	Short: "Add worked time to today's session",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	minutes, err := dialog.ParseHoursMinutes(strings.Join(args, " "))
	if err != nil {
		return err
	}

	res, err := dialog.AddTime(store, flagUser, minutes, time.Now())
	if err != nil {
		return err
	}

	fmt.Println("Time added.")
	fmt.Printf("  Worked:  %s\n", aggregate.FormatMinutes(res.Minutes))
	fmt.Printf("  Earned:  %.2f\n", res.Earnings)
	fmt.Printf("  Today:   %s = %.2f\n", aggregate.FormatMinutes(res.DayMinutes), res.DayEarnings)
	return nil
}
