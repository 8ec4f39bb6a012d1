package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/taskmirror/taskmirror/internal/daemon"
)

func init() {
	rootCmd.AddCommand(advanceCmd)
}

var advanceCmd = &cobra.Command{
	Use:   "advance TASK_ID",
	Short: "Submit the next lifecycle transition for a task",
	Long: `Submit the next lifecycle transition for a task: Created tasks are
started, In Progress tasks are sent to review, In Review tasks are
completed. Terminal tasks offer no transition.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdvance,
}

func runAdvance(cmd *cobra.Command, args []string) error {
	taskID, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Tracker.SubmitAction(cmd.Context(), taskID); err != nil {
		return err
	}

	// Re-read so the printed status reflects the ledger, not a guess.
	if err := d.Tracker.FetchOne(cmd.Context(), taskID); err != nil {
		return err
	}
	if view := d.Tracker.Task(); view != nil {
		fmt.Printf("Task #%d is now %s\n", view.TaskID, view.Status)
	}
	return nil
}
