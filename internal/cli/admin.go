package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/taskmirror/taskmirror/internal/daemon"
	"github.com/taskmirror/taskmirror/internal/domain"
)

func init() {
	adminCmd.AddCommand(adminRoleCmd)
	adminCmd.AddCommand(adminOperatorCmd)
	adminCmd.AddCommand(adminQuorumCmd)
	adminCmd.AddCommand(adminDepositCmd)
	rootCmd.AddCommand(adminCmd)
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Registry administration calls (role, operator, quorum, deposit)",
}

var adminRoleCmd = &cobra.Command{
	Use:   "role ROLE_ID IDENTITY AUTHORIZED",
	Short: "Grant or revoke a role for an identity",
	Args:  cobra.ExactArgs(3),
	RunE:  runAdminRole,
}

func runAdminRole(cmd *cobra.Command, args []string) error {
	roleID, err := domain.ParseRoleID(args[0])
	if err != nil {
		return err
	}
	who, err := domain.ParseIdentity(args[1])
	if err != nil {
		return err
	}
	authorized, err := strconv.ParseBool(args[2])
	if err != nil {
		return fmt.Errorf("invalid authorized flag %q", args[2])
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Tracker.SetRole(cmd.Context(), roleID, who, authorized); err != nil {
		return err
	}
	fmt.Println("Set Role submitted.")
	return nil
}

var adminOperatorCmd = &cobra.Command{
	Use:   "operator INTERFACE_ID ROLE_ID AUTHORIZED",
	Short: "Authorize or revoke a role for a contract interface",
	Args:  cobra.ExactArgs(3),
	RunE:  runAdminOperator,
}

func runAdminOperator(cmd *cobra.Command, args []string) error {
	interfaceID, err := domain.ParseInterfaceID(args[0])
	if err != nil {
		return err
	}
	roleID, err := domain.ParseRoleID(args[1])
	if err != nil {
		return err
	}
	authorized, err := strconv.ParseBool(args[2])
	if err != nil {
		return fmt.Errorf("invalid authorized flag %q", args[2])
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Tracker.SetOperator(cmd.Context(), interfaceID, roleID, authorized); err != nil {
		return err
	}
	fmt.Println("Set Operator submitted.")
	return nil
}

var adminQuorumCmd = &cobra.Command{
	Use:   "quorum AMOUNT",
	Short: "Set the minimum approval quorum",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdminQuorum,
}

func runAdminQuorum(cmd *cobra.Command, args []string) error {
	quorum, err := domain.ParseQuorum(args[0])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Tracker.SetMinQuorum(cmd.Context(), quorum); err != nil {
		return err
	}
	fmt.Println("Set Quorum submitted.")
	return nil
}

var adminDepositCmd = &cobra.Command{
	Use:   "deposit ROLE_ID AMOUNT",
	Short: "Deposit funds for a role",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdminDeposit,
}

func runAdminDeposit(cmd *cobra.Command, args []string) error {
	roleID, err := domain.ParseRoleID(args[0])
	if err != nil {
		return err
	}
	amount, err := domain.ParseAmount(args[1])
	if err != nil {
		return err
	}

	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Tracker.Deposit(cmd.Context(), roleID, amount); err != nil {
		return err
	}
	fmt.Println("Deposit submitted.")
	return nil
}
