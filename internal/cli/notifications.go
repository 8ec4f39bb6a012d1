package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/taskmirror/taskmirror/internal/daemon"
)

func init() {
	notificationsCmd.Flags().IntVar(&notificationsLimit, "limit", 20, "Maximum notifications to show")
	rootCmd.AddCommand(notificationsCmd)
}

var notificationsLimit int

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Show recent notifications, newest first",
	RunE:    runNotifications,
}

func runNotifications(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	notifs := d.Notify.Recent(notificationsLimit)
	if len(notifs) == 0 {
		fmt.Println("No notifications.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tSEVERITY\tMESSAGE")
	for _, n := range notifs {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			n.CreatedAt.Format("2006-01-02 15:04:05"),
			n.Severity,
			n.Message,
		)
	}
	return w.Flush()
}
