package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cloudsave/internal/events"
	"cloudsave/internal/tasks"
)

// newTasksCmd creates the 'tasks' command group.
func newTasksCmd() *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Scheduled save tasks (list, add, remove, enable, disable, run)",
		Long: `Manage save tasks: a share link plus a target directory, replayed
to pick up files the share gained since the last run. Cron expressions
are stored for an external scheduler; 'tasks run' executes a task once,
immediately.`,
	}

	tasksCmd.AddCommand(newTasksListCmd())
	tasksCmd.AddCommand(newTasksAddCmd())
	tasksCmd.AddCommand(newTasksRemoveCmd())
	tasksCmd.AddCommand(newTasksEnableCmd(true))
	tasksCmd.AddCommand(newTasksEnableCmd(false))
	tasksCmd.AddCommand(newTasksRunCmd())

	return tasksCmd
}

// newTasksListCmd creates the 'tasks list' command.
func newTasksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List save tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTaskStore()
			if err != nil {
				return err
			}

			list := store.List()
			if len(list) == 0 {
				fmt.Println("No tasks. Add one with 'cloudsave tasks add'.")
				return nil
			}

			for _, t := range list {
				state := "enabled"
				if !t.Enabled {
					state = "disabled"
				}
				fmt.Printf("%-20s %-9s target=%s cron=%q\n", t.Name, state, t.TargetDirID, t.Cron)
				fmt.Printf("%20s %s\n", "", t.ShareLink)
			}
			return nil
		},
	}
}

// newTasksAddCmd creates the 'tasks add' command.
func newTasksAddCmd() *cobra.Command {
	var task tasks.Task

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a save task",
		Long: `Add a save task.

Example:
  cloudsave tasks add --name weekly-show \
    --share https://cloud.189.cn/t/AbCd1234 \
    --target-dir 8042 --cron "0 3 * * *" \
    --filter '\.mp4$' --template VIDEO_SERIES`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTaskStore()
			if err != nil {
				return err
			}

			if task.TargetDirID == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				task.TargetDirID = cfg.DefaultTargetDir
			}
			task.Enabled = true

			if err := store.Add(task); err != nil {
				return err
			}

			fmt.Printf("Added task %q\n", task.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&task.Name, "name", "", "Task name (required)")
	cmd.Flags().StringVar(&task.ShareLink, "share", "", "Share link or code (required)")
	cmd.Flags().StringVar(&task.AccessCode, "access-code", "", "Access code for private shares")
	cmd.Flags().StringVar(&task.TargetDirID, "target-dir", "", "Target directory id (default: configured default)")
	cmd.Flags().StringVar(&task.Cron, "cron", "", "Cron expression for the external scheduler")
	cmd.Flags().StringVar(&task.RenameTemplate, "template", "", "Rename template key or custom pattern")
	cmd.Flags().StringArrayVar(&task.NameFilters, "filter", nil, "File name regexp filter (repeatable)")
	cmd.Flags().BoolVar(&task.IgnoreExtension, "ignore-ext", false, "Treat files as present regardless of extension")

	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("share")

	return cmd
}

// newTasksRemoveCmd creates the 'tasks remove' command.
func newTasksRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a save task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTaskStore()
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed task %q\n", args[0])
			return nil
		},
	}
}

// newTasksEnableCmd creates 'tasks enable' or 'tasks disable'.
func newTasksEnableCmd(enable bool) *cobra.Command {
	use, verb := "enable", "Enabled"
	if !enable {
		use, verb = "disable", "Disabled"
	}

	return &cobra.Command{
		Use:   use + " <name>",
		Short: verb + " a save task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openTaskStore()
			if err != nil {
				return err
			}
			if err := store.SetEnabled(args[0], enable); err != nil {
				return err
			}
			fmt.Printf("%s task %q\n", verb, args[0])
			return nil
		},
	}
}

// newTasksRunCmd creates the 'tasks run' command.
func newTasksRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <name>",
		Short: "Run a save task once, now",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			store, err := openTaskStore()
			if err != nil {
				return err
			}
			task, err := store.Get(args[0])
			if err != nil {
				return err
			}

			provider, _, err := newProvider()
			if err != nil {
				return err
			}

			// Print per-directory progress off the runner's commit events
			bus := events.NewEventBus(0)
			commits := bus.Subscribe(events.EventTransferCommit)
			done := make(chan struct{})
			go func() {
				defer close(done)
				for ev := range commits {
					commit, ok := ev.(*events.TransferCommitEvent)
					if !ok || commit.Err != nil {
						continue
					}
					fmt.Printf("  saved %d file(s) into directory %s\n", commit.FileCount, commit.DestinationID)
				}
			}()

			runner := tasks.NewRunner(provider, bus)
			result, err := runner.Run(GetContext(), task)
			bus.Close()
			<-done
			if err != nil {
				return err
			}

			logger.Info().Str("task", task.Name).Int("saved", result.Saved).Msg("Task run complete")
			fmt.Printf("Task %q: saved %d, skipped %d, folders created %d\n",
				task.Name, result.Saved, result.Skipped, result.FoldersCreated)
			return nil
		},
		Args: cobra.ExactArgs(1),
	}
}
