package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wagetrack/wagetrack/internal/clickup"
	"github.com/wagetrack/wagetrack/internal/errs"
	"github.com/wagetrack/wagetrack/internal/nav"
	"github.com/wagetrack/wagetrack/internal/timer"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactively browse the ClickUp hierarchy",
	Long: `browse walks the workspace hierarchy (spaces, folders, lists, tasks).
Type the number of an item to descend, "back" (or "back <level>") to go up,
"skip" on the folder menu for folderless lists, and on the task menu
"detail <n>", "start <n>" or "status <n> <new-status>". "quit" exits.`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	api, err := newRemote(ctx)
	if err != nil {
		return err
	}

	machine := nav.New(api, logger)
	menu, err := machine.Enter(ctx, flagUser)
	if err != nil {
		return err
	}
	printMenu(menu)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("[%s] > ", menu.Level)
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		next := menu
		var cmdErr error
		switch fields[0] {
		case "q", "quit", "exit":
			return nil

		case "back", "b":
			target := menu.Level - 1
			if len(fields) > 1 {
				target, cmdErr = nav.ParseLevel(fields[1])
			}
			switch {
			case cmdErr != nil:
			case target < nav.LevelSpaces:
				cmdErr = errs.Validation("already at the top level")
			default:
				next, cmdErr = machine.Back(ctx, flagUser, target)
			}

		case "skip":
			next, cmdErr = machine.SkipFolders(ctx, flagUser)

		case "detail", "d":
			cmdErr = showTaskDetail(ctx, api, menu, fields)

		case "start":
			cmdErr = startTaskTimer(ctx, api, menu, fields)

		case "status":
			cmdErr = setTaskStatus(ctx, api, menu, fields)

		default:
			var item nav.Item
			item, cmdErr = chooseItem(menu, fields[0])
			if cmdErr == nil {
				next, cmdErr = selectItem(ctx, api, machine, menu, item)
			}
		}

		switch {
		case cmdErr == nil:
			menu = next
			printMenu(menu)
		case errs.IsRemoteNotFound(cmdErr):
			// The picked reference is stale; restart from the top.
			fmt.Println("That item no longer exists on ClickUp, starting over.")
			menu, err = machine.Enter(ctx, flagUser)
			if err != nil {
				return err
			}
			printMenu(menu)
		case errs.IsValidation(cmdErr):
			fmt.Println(cmdErr)
		default:
			return cmdErr
		}
	}
}

// selectItem descends one level from the current menu. Picking a task
// shows its detail; the explicit verbs start timers and change status.
func selectItem(ctx context.Context, api clickup.API, machine *nav.Machine, menu nav.Menu, item nav.Item) (nav.Menu, error) {
	switch menu.Level {
	case nav.LevelSpaces:
		return machine.SelectSpace(ctx, flagUser, item.ID)
	case nav.LevelFolders:
		return machine.SelectFolder(ctx, flagUser, item.ID)
	case nav.LevelLists:
		return machine.SelectList(ctx, flagUser, item.ID)
	case nav.LevelStatusFilter:
		return machine.SelectStatus(ctx, flagUser, item.ID)
	case nav.LevelTasks:
		return menu, printTaskDetail(ctx, api, item.ID)
	}
	return nav.Menu{}, errs.Validation("nothing to select here")
}

func showTaskDetail(ctx context.Context, api clickup.API, menu nav.Menu, fields []string) error {
	item, err := taskArg(menu, fields, 2, "detail <n>")
	if err != nil {
		return err
	}
	return printTaskDetail(ctx, api, item.ID)
}

func printTaskDetail(ctx context.Context, api clickup.API, taskID string) error {
	task, err := api.GetTaskDetail(ctx, taskID)
	if err != nil {
		return err
	}
	fmt.Printf("Task:   %s\n", task.Name)
	fmt.Printf("ID:     %s\n", task.ID)
	fmt.Printf("Status: %s\n", task.Status.Status)
	if task.URL != "" {
		fmt.Printf("URL:    %s\n", task.URL)
	}
	return nil
}

func startTaskTimer(ctx context.Context, api clickup.API, menu nav.Menu, fields []string) error {
	item, err := taskArg(menu, fields, 2, "start <n>")
	if err != nil {
		return err
	}
	shadow, err := timer.New(store, api, logger).Start(ctx, flagUser, item.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Timer started on %q at %s\n", item.Label, shadow.StartedAt.Format("15:04:05"))
	return nil
}

func setTaskStatus(ctx context.Context, api clickup.API, menu nav.Menu, fields []string) error {
	item, err := taskArg(menu, fields, 3, "status <n> <new-status>")
	if err != nil {
		return err
	}
	status := strings.Join(fields[2:], " ")
	if err := api.SetTaskStatus(ctx, item.ID, status); err != nil {
		return err
	}
	fmt.Printf("Status of %q set to %q\n", item.Label, status)
	return nil
}

// taskArg validates a task-menu command of the form "<verb> <n> ...".
func taskArg(menu nav.Menu, fields []string, minLen int, usage string) (nav.Item, error) {
	if menu.Level != nav.LevelTasks {
		return nav.Item{}, errs.Validation("task commands only work on the task menu")
	}
	if len(fields) < minLen {
		return nav.Item{}, errs.Validation("usage: %s", usage)
	}
	return chooseItem(menu, fields[1])
}

// chooseItem resolves a 1-based menu index.
func chooseItem(menu nav.Menu, arg string) (nav.Item, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(menu.Items) {
		return nav.Item{}, errs.Validation("pick a number between 1 and %d", len(menu.Items))
	}
	return menu.Items[n-1], nil
}

func printMenu(menu nav.Menu) {
	fmt.Printf("%s:\n", strings.ToUpper(menu.Level.String()))
	if len(menu.Items) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i, item := range menu.Items {
		fmt.Printf("  %2d. %s\n", i+1, item.Label)
	}
}
