package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/taskmirror/taskmirror/internal/daemon"
)

func init() {
	listCmd.Flags().Int64Var(&listStart, "start", -1, "First slot of the range (overrides config)")
	listCmd.Flags().Int64Var(&listEnd, "end", -1, "Last slot of the range, inclusive (overrides config)")
	listCmd.Flags().BoolVar(&listMine, "mine", false, "Only tasks visible to the configured caller")
	rootCmd.AddCommand(listCmd)
}

var (
	listStart int64
	listEnd   int64
	listMine  bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Fetch a range of tasks and list them",
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	start := d.Config.Mirror.RangeStart
	end := d.Config.Mirror.RangeEnd
	if listStart >= 0 {
		start = listStart
	}
	if listEnd >= 0 {
		end = listEnd
	}

	if err := d.Tracker.FetchRange(cmd.Context(), start, end, listMine, nil); err != nil {
		return err
	}

	tasks := d.Tracker.Tasks()
	if len(tasks) == 0 {
		fmt.Println("No tasks in range. Empty slots are filtered out.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTITLE\tREWARD\tDEADLINE\tASSIGNEE")
	for _, task := range tasks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			task.TaskID,
			task.Status,
			task.Title,
			task.Reward,
			task.EndDate,
			task.AssigneeDisplay,
		)
	}
	return w.Flush()
}
