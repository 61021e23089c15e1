package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wagetrack/wagetrack/internal/aggregate"
	"github.com/wagetrack/wagetrack/internal/model"
	"github.com/wagetrack/wagetrack/internal/timer"
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Control the ClickUp timer",
}

var timerStartCmd = &cobra.Command{
	Use:   "start <task-id>",
	Short: "Start the timer on a task (stops a running one first)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimerStart,
}

var timerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running timer and record the elapsed time",
	Args:  cobra.NoArgs,
	RunE:  runTimerStop,
}

var timerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running timer, if any",
	Args:  cobra.NoArgs,
	RunE:  runTimerStatus,
}

func init() {
	timerCmd.AddCommand(timerStartCmd)
	timerCmd.AddCommand(timerStopCmd)
	timerCmd.AddCommand(timerStatusCmd)
}

func runTimerStart(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	api, err := newRemote(ctx)
	if err != nil {
		return err
	}

	shadow, err := timer.New(store, api, logger).Start(ctx, flagUser, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Timer started on task %s at %s\n", shadow.TaskID, shadow.StartedAt.Format("15:04:05"))
	return nil
}

func runTimerStop(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	api, err := newRemote(ctx)
	if err != nil {
		return err
	}

	minutes, err := timer.New(store, api, logger).Stop(ctx, flagUser)
	if err != nil {
		return err
	}
	fmt.Printf("Timer stopped. Elapsed: %s\n", aggregate.FormatMinutes(minutes))
	return nil
}

func runTimerStatus(cmd *cobra.Command, args []string) error {
	var shadow *model.TimerShadow
	var todayMinutes int
	err := store.Do(flagUser, func() error {
		rec, err := store.Get(flagUser)
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		shadow = rec.TimerShadow
		if ses := rec.Session(time.Now().Format(model.DateKey)); ses != nil {
			todayMinutes = ses.TotalMinutes
		}
		return nil
	})
	if err != nil {
		return err
	}

	if shadow != nil {
		fmt.Println("Running:")
		fmt.Printf("  Task:    %s\n", shadow.TaskID)
		fmt.Printf("  Since:   %s\n", shadow.StartedAt.Format("15:04"))
		fmt.Printf("  Elapsed: %s\n", aggregate.FormatMinutes(aggregate.RoundMinutes(time.Since(shadow.StartedAt))))
		return nil
	}

	fmt.Println("No active timer.")
	fmt.Printf("Today: %s logged.\n", aggregate.FormatMinutes(todayMinutes))
	return nil
}
