package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wagetrack/wagetrack/internal/dialog"
)

var rateCmd = &cobra.Command{
	Use:   "rate [value]",
	Short: "Show or set the hourly rate",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRate,
}

func runRate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return store.Do(flagUser, func() error {
			rec, err := store.Get(flagUser)
			if err != nil {
				return err
			}
			if rec == nil || rec.Rate <= 0 {
				fmt.Println("No rate set. Use: wagetrack rate <value>")
				return nil
			}
			fmt.Printf("Hourly rate: %.2f\n", rec.Rate)
			return nil
		})
	}

	rate, err := dialog.ParseRate(args[0])
	if err != nil {
		return err
	}
	if err := dialog.SetRate(store, flagUser, rate); err != nil {
		return err
	}
	fmt.Printf("Rate set: %.2f per hour\n", rate)
	return nil
}
