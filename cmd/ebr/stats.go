package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ebrhq/backoffice/internal/workspace"
)

var (
	statsFrom   string
	statsTo     string
	statsFilter workspace.Filter
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show sales per server for a period (today by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch statsFilter.PaymentMethod {
		case "", workspace.PaymentAll, workspace.PaymentMomo, workspace.PaymentEspeces:
		default:
			return fmt.Errorf("invalid payment method %q", statsFilter.PaymentMethod)
		}
		p, err := workspace.ParsePeriod(statsFrom, statsTo, time.Now())
		if err != nil {
			return err
		}
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			r, err := op.work.Stats(ctx, p, statsFilter)
			if err != nil {
				return err
			}
			fmt.Fprintf(op.out, "period: %s\n", r.Label)
			tw := op.table()
			fmt.Fprintln(tw, "SERVER\tORDERS\tMOBILE MONEY\tCASH\tTOTAL\t")
			for _, s := range r.Servers {
				fmt.Fprintf(tw, "%s (#%d)\t%d\t%s\t%s\t%s\t\n",
					s.ServerName, s.ServerID, s.Orders, money(s.TotalMomo), money(s.TotalEspeces), money(s.Total))
			}
			fmt.Fprintf(tw, "TOTAL\t%d\t%s\t%s\t%s\t\n",
				r.TotalOrders, money(r.TotalMomo), money(r.TotalEspeces), money(r.GrandTotal))
			return tw.Flush()
		})
	},
}

func init() {
	f := statsCmd.Flags()
	f.StringVar(&statsFrom, "from", "", "first day (YYYY-MM-DD)")
	f.StringVar(&statsTo, "to", "", "last day (YYYY-MM-DD)")
	f.Int64Var(&statsFilter.ServerID, "server", 0, "only this server")
	f.StringVar(&statsFilter.PaymentMethod, "payment", workspace.PaymentAll, "all, momo or especes")
	rootCmd.AddCommand(statsCmd)
}
