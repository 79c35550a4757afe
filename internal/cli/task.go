package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safechecks/safechecks/internal/tasks"
	"github.com/safechecks/safechecks/pkg/color"
	"github.com/safechecks/safechecks/pkg/model"
)

var (
	taskWeek  string
	taskStaff string
	taskDay   string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Weekly cleaning tasks",
	Long: `Weekly tasks are scheduled on a day of the week. A task not done by the
end of its day is overdue until the week ends. One-off tasks apply to the
current week only.`,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List this week's tasks",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		items, err := c.Tasks(taskWeek)
		exitOn(c, err, "task list")
		printTasks(items)
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task done",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		rec, err := c.CompleteTask(args[0], taskStaff)
		exitOn(c, err, "task done")
		c.Sync().Flush()
		if jsonOutput {
			outputJSON(rec)
			return
		}
		fmt.Printf("Done: %s\n", color.Success(args[0]))
		printSyncHint(c)
	},
}

var taskUndoCmd = &cobra.Command{
	Use:   "undo <task-id>",
	Short: "Reopen a task done this week",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		exitOn(c, c.UndoTask(args[0]), "task undo")
		if jsonOutput {
			outputJSON(map[string]any{"task_id": args[0], "done": false})
			return
		}
		fmt.Printf("Reopened %s\n", args[0])
	},
}

var taskAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Add a one-off task for this week",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		day, err := model.ParseWeekday(strings.ToLower(taskDay))
		exitOn(nil, err, "task add")
		c := requireClient()
		defer c.Close()

		t, err := c.AddTask(args[0], day, taskStaff)
		exitOn(c, err, "task add")
		if jsonOutput {
			outputJSON(t)
			return
		}
		fmt.Printf("Added %s on %s: %s\n", color.Info(t.ID), t.Day, t.Label)
	},
}

var taskRemoveCmd = &cobra.Command{
	Use:   "remove <task-id>",
	Short: "Remove a one-off task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		exitOn(c, c.RemoveTask(args[0]), "task remove")
		if jsonOutput {
			outputJSON(map[string]any{"removed": args[0]})
			return
		}
		fmt.Printf("Removed %s\n", args[0])
	},
}

var taskUndoneCmd = &cobra.Command{
	Use:   "undone",
	Short: "List unfinished tasks of every department",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		items, err := c.UndoneTasks()
		exitOn(c, err, "task undone")
		printTasks(items)
	},
}

func printTasks(items []tasks.Item) {
	if jsonOutput {
		outputJSON(items)
		return
	}
	if len(items) == 0 {
		fmt.Println("No tasks.")
		return
	}
	for _, it := range items {
		state := color.Dim("todo")
		switch {
		case it.Done:
			state = color.Success("done")
		case it.Overdue:
			state = color.Error("overdue")
		}
		label := it.Label
		if it.OneOff {
			label += color.Dim(" (one-off)")
		}
		if it.DoneBy != "" {
			label += color.Dim(" by " + it.DoneBy)
		}
		fmt.Printf("  %-9s %-8s %-7s %s\n", it.Day, it.ID, state, label)
	}
}

func init() {
	taskListCmd.Flags().StringVar(&taskWeek, "week", "", "week start date YYYY-MM-DD (default this week)")
	taskDoneCmd.Flags().StringVar(&taskStaff, "staff", "", "who did it (defaults to this device's staff member)")
	taskAddCmd.Flags().StringVar(&taskDay, "day", "", "day of the week")
	taskAddCmd.Flags().StringVar(&taskStaff, "staff", "", "created by")
	taskAddCmd.MarkFlagRequired("day")
	taskCmd.AddCommand(taskListCmd, taskDoneCmd, taskUndoCmd, taskAddCmd, taskRemoveCmd, taskUndoneCmd)
	rootCmd.AddCommand(taskCmd)
}
