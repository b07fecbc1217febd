package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ebrhq/backoffice/internal/validate"
	"github.com/ebrhq/backoffice/internal/workspace"
)

var tablesCmd = &cobra.Command{
	Use:     "tables",
	Aliases: []string{"table"},
	Short:   "Manage the tables of the active company",
}

func (op *operator) printTables(t *workspace.Tables) error {
	state := "off"
	if t.Active {
		state = "on"
	}
	fmt.Fprintf(op.out, "tables switch: %s\n", state)
	tw := op.table()
	fmt.Fprintln(tw, "ID\tNAME\tORDER\tOCCUPIED\t")
	for _, tb := range t.Tables {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t\n", tb.ID, tb.Nom, tb.Ordre, yesNo(tb.EstOccupee))
	}
	return tw.Flush()
}

var tablesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			t, err := op.work.Tables(ctx, listPage)
			if err != nil {
				return err
			}
			return op.printTables(t)
		})
	},
}

var tableForm validate.TableForm

var tablesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			form := tableForm
			if err := op.ask(&form.Name, "Table name"); err != nil {
				return err
			}
			t, err := op.work.CreateTable(ctx, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(op.out, "created table %s (#%d)\n", t.Nom, t.ID)
			return nil
		})
	},
}

var tablesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			if err := op.work.DeleteTable(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(op.out, "deleted table #%d\n", id)
			return nil
		})
	},
}

var tablesToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Switch every table on or off",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			t, err := op.work.ToggleTables(ctx)
			if err != nil {
				return err
			}
			return op.printTables(t)
		})
	},
}

func init() {
	addPageFlags(tablesListCmd)

	tablesAddCmd.Flags().StringVar(&tableForm.Name, "name", "", "table name")
	tablesAddCmd.Flags().IntVar(&tableForm.Order, "order", 1, "display order")

	tablesCmd.AddCommand(tablesListCmd, tablesAddCmd, tablesDeleteCmd, tablesToggleCmd)
	rootCmd.AddCommand(tablesCmd)
}
