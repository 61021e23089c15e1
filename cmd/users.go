package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wagetrack/wagetrack/internal/aggregate"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List all users with a local ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		recs, err := store.ListAll()
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No users yet.")
			return nil
		}
		for _, rec := range recs {
			minutes, earnings := 0, 0.0
			for _, s := range rec.Sessions {
				minutes += s.TotalMinutes
				earnings += s.TotalEarnings
			}
			fmt.Printf("%-20s rate %.2f/h  %s total  %.2f earned  (%d days)\n",
				rec.UserID, rec.Rate, aggregate.FormatMinutes(minutes), earnings, len(rec.Sessions))
		}
		return nil
	},
}
