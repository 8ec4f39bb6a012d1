package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/taskmirror/taskmirror/internal/daemon"
)

func init() {
	rootCmd.AddCommand(cancelCmd)
}

var cancelCmd = &cobra.Command{
	Use:   "cancel TASK_ID",
	Short: "Cancel a task on the ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func runCancel(cmd *cobra.Command, args []string) error {
	taskID, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Tracker.SubmitCancel(cmd.Context(), taskID); err != nil {
		return err
	}

	fmt.Printf("Cancel submitted for task #%d\n", taskID)
	return nil
}
