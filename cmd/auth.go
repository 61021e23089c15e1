package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wagetrack/wagetrack/internal/model"
)

var (
	authToken     string
	authWorkspace string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage ClickUp credentials",
}

var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the ClickUp API token and workspace for the acting user",
	Args:  cobra.NoArgs,
	RunE:  runAuthSet,
}

var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored credentials (token masked)",
	Args:  cobra.NoArgs,
	RunE:  runAuthShow,
}

func init() {
	authSetCmd.Flags().StringVar(&authToken, "token", "", "Personal API token")
	authSetCmd.Flags().StringVar(&authWorkspace, "workspace", "", "Workspace (team) id")
	_ = authSetCmd.MarkFlagRequired("token")
	_ = authSetCmd.MarkFlagRequired("workspace")
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authShowCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	err := store.Do(flagUser, func() error {
		rec, err := store.GetOrCreate(flagUser)
		if err != nil {
			return err
		}
		rec.Credentials = &model.Credentials{
			APIToken:    authToken,
			WorkspaceID: authWorkspace,
		}
		return store.Put(rec)
	})
	if err != nil {
		return err
	}
	fmt.Printf("Credentials stored for user %q.\n", flagUser)
	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	return store.Do(flagUser, func() error {
		rec, err := store.Get(flagUser)
		if err != nil {
			return err
		}
		if rec == nil || rec.Credentials == nil {
			fmt.Println("No credentials stored.")
			return nil
		}
		fmt.Printf("Token:     %s\n", maskToken(rec.Credentials.APIToken))
		fmt.Printf("Workspace: %s\n", rec.Credentials.WorkspaceID)
		return nil
	})
}

func maskToken(token string) string {
	if len(token) <= 6 {
		return "******"
	}
	return token[:3] + "..." + token[len(token)-3:]
}
