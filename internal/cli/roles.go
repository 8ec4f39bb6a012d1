package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/taskmirror/taskmirror/internal/daemon"
	"github.com/taskmirror/taskmirror/internal/domain"
)

func init() {
	rootCmd.AddCommand(rolesCmd)
}

var rolesCmd = &cobra.Command{
	Use:   "roles [IDENTITY]",
	Short: "Show member/leader capabilities for an identity",
	Long: `Show member/leader capabilities for an identity. With no argument the
configured caller identity is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoles,
}

func runRoles(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	who := d.Tracker.Caller()
	if len(args) == 1 {
		who, err = domain.ParseIdentity(args[0])
		if err != nil {
			return err
		}
	}

	caps, err := d.Tracker.CapabilitiesOf(cmd.Context(), who)
	if err != nil {
		return err
	}

	fmt.Printf("Identity:    %s\n", who)
	fmt.Printf("Member:      %t\n", caps.IsMember)
	fmt.Printf("Leader:      %t\n", caps.IsLeader)
	fmt.Printf("Can advance: %t\n", caps.CanAdvance())
	fmt.Printf("Can cancel:  %t\n", caps.CanCancel())
	return nil
}
