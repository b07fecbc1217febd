package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ebrhq/backoffice/internal/validate"
	"github.com/ebrhq/backoffice/internal/workspace"
)

var listPage workspace.Page

func addPageFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&listPage.Skip, "skip", 0, "entries to skip")
	cmd.Flags().IntVar(&listPage.Limit, "limit", workspace.DefaultPageSize, "entries to list")
}

var employeesCmd = &cobra.Command{
	Use:     "employees",
	Aliases: []string{"employee"},
	Short:   "Manage the employees of the active company",
}

var employeesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			list, err := op.work.Employees(ctx, listPage)
			if err != nil {
				return err
			}
			tw := op.table()
			fmt.Fprintln(tw, "ID\tNAME\tUSERNAME\tROLE\tACTIVE\tJOURNEE\t")
			for _, e := range list {
				journee := "-"
				if e.Role == validate.RoleManager {
					journee = "closed"
					if e.Open {
						journee = "open"
					}
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n", e.ID, e.Name, e.Username, e.Role, yesNo(e.IsActive), journee)
			}
			return tw.Flush()
		})
	},
}

var employeeForm validate.EmployeeForm

var employeesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an employee",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			form := employeeForm
			if err := op.ask(&form.Name, "Full name"); err != nil {
				return err
			}
			if err := op.ask(&form.Password, "Password"); err != nil {
				return err
			}
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = form.Password
			}
			e, err := op.work.CreateEmployee(ctx, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(op.out, "created %s (#%d) as %s, username %s\n", e.Name, e.ID, e.Role, e.Username)
			return nil
		})
	},
}

var employeesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an employee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			if err := op.work.DeleteEmployee(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(op.out, "deleted employee #%d\n", id)
			return nil
		})
	},
}

var employeesJourneeCmd = &cobra.Command{
	Use:   "journee <id>",
	Short: "Open or close the journee of a gerant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			open, err := op.work.ToggleJournee(ctx, id)
			if err != nil {
				return err
			}
			state := "closed"
			if open {
				state = "open"
			}
			fmt.Fprintf(op.out, "journee of #%d is now %s\n", id, state)
			return nil
		})
	},
}

func init() {
	addPageFlags(employeesListCmd)

	f := employeesAddCmd.Flags()
	f.StringVar(&employeeForm.Name, "name", "", "full name")
	f.StringVar(&employeeForm.Role, "role", validate.RoleServer, "gerant or serveur")
	f.StringVar(&employeeForm.Email, "email", "", "email (optional)")
	f.StringVar(&employeeForm.Password, "password", "", "initial password (prompted when empty)")
	f.StringVar(&employeeForm.ConfirmPassword, "confirm-password", "", "password confirmation (defaults to the password)")

	employeesCmd.AddCommand(employeesListCmd, employeesAddCmd, employeesDeleteCmd, employeesJourneeCmd)
	rootCmd.AddCommand(employeesCmd)
}
