package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/taskmirror/taskmirror/internal/daemon"
)

func init() {
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get TASK_ID",
	Short: "Fetch a single task from the ledger and show it",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	taskID, err := parseTaskID(args[0])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Tracker.FetchOne(cmd.Context(), taskID); err != nil {
		return err
	}

	view := d.Tracker.Task()
	if view == nil {
		return fmt.Errorf("task %d: no view after fetch", taskID)
	}

	fmt.Printf("Task:        #%d\n", view.TaskID)
	fmt.Printf("Status:      %s\n", view.Status)
	fmt.Printf("Title:       %s\n", view.Title)
	fmt.Printf("Description: %s\n", view.Description)
	fmt.Printf("Reward:      %s\n", view.Reward)
	fmt.Printf("Deadline:    %s\n", view.EndDate)
	fmt.Printf("Roles:       %s\n", strings.Join(view.AuthorizedRoles, ", "))
	fmt.Printf("Assignee:    %s\n", view.AssigneeDisplay)

	if action, ok := view.Status.NextAction(); ok {
		fmt.Printf("Next:        %s\n", action.Label)
	}

	return nil
}
