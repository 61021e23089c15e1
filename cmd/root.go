package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wagetrack/wagetrack/internal/clickup"
	"github.com/wagetrack/wagetrack/internal/config"
	"github.com/wagetrack/wagetrack/internal/errs"
	"github.com/wagetrack/wagetrack/internal/ledger"
)

var (
	cfg    config.Config
	store  *ledger.Store
	logger *zap.Logger

	flagUser string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "wagetrack",
	Short: "Work-session and earnings tracker with ClickUp sync",
	Long: `wagetrack keeps a per-user ledger of work sessions and earnings at an
hourly rate, reconciles it against ClickUp time entries, and drives the
ClickUp timer. All data is stored as human-readable JSON files.`,
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultUser := os.Getenv("WAGETRACK_USER")
	if defaultUser == "" {
		defaultUser = "default"
	}
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", defaultUser, "Ledger user id to act as")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(timerCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(usersCmd)
}

func initApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	logger, err = newLogger(cfg.LogLevel, verbose)
	if err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir, err = config.DefaultDataDir()
		if err != nil {
			return err
		}
	}
	store, err = ledger.Open(dataDir)
	return err
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// newRemote builds an authenticated remote client from the acting user's
// stored credentials.
func newRemote(ctx context.Context) (clickup.API, error) {
	var api clickup.API
	err := store.Do(flagUser, func() error {
		rec, err := store.GetOrCreate(flagUser)
		if err != nil {
			return err
		}
		if !rec.HasCredentials() {
			return errs.RemoteAuth("no credentials stored, run `wagetrack auth set` first", nil)
		}
		api = clickup.NewClient(ctx, rec.Credentials.APIToken, rec.Credentials.WorkspaceID,
			clickup.WithBaseURL(cfg.ClickUp.BaseURL),
			clickup.WithTimeout(time.Duration(cfg.ClickUp.RequestTimeoutSeconds)*time.Second))
		return nil
	})
	return api, err
}
