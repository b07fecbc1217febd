package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ebrhq/backoffice/internal/onboarding"
	"github.com/ebrhq/backoffice/internal/validate"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "List, switch and add companies",
}

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the companies of the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			if _, err := op.flow.RequireSession(ctx); err != nil {
				return err
			}
			v := op.flow.View()
			tw := op.table()
			fmt.Fprintln(tw, "ID\tNAME\tCODE\tPHONE\tEMAIL\tACTIVE\t")
			for _, c := range v.Companies {
				mark := ""
				if v.ActiveCompany != nil && v.ActiveCompany.ID == c.ID {
					mark = "*"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n", c.ID, c.RaisonSociale, c.CodeEntreprise, c.Telephone, c.Email, mark)
			}
			return tw.Flush()
		})
	},
}

var companySwitchCmd = &cobra.Command{
	Use:   "switch <id>",
	Short: "Make another company active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			if err := op.flow.SwitchCompany(ctx, id); err != nil {
				return err
			}
			op.printStatus()
			return nil
		})
	},
}

var (
	companyForm  validate.CompanyForm
	companyOffer string
)

var companyAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a company, then pick its offer (or choose later)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			if err := op.flow.StartAddCompany(ctx); err != nil {
				return err
			}
			form := companyForm
			if err := op.ask(&form.RaisonSociale, "Company name"); err != nil {
				return err
			}
			if err := op.flow.SubmitCompany(ctx, form); err != nil {
				if cerr := op.flow.CancelAddCompany(); cerr != nil {
					op.logger.Warn("cancelling add company", "error", cerr)
				}
				return err
			}

			if companyOffer == "" {
				if err := op.flow.ChooseLater(ctx); err != nil {
					return err
				}
			} else {
				if _, err := op.flow.LoadOffers(ctx); err != nil {
					return err
				}
				if err := op.flow.SelectOffer(companyOffer); err != nil {
					return err
				}
				if err := op.flow.Continue(ctx); err != nil {
					return err
				}
			}
			if op.flow.State() != onboarding.StateDashboard {
				return fmt.Errorf("unexpected state %s", op.flow.State())
			}
			op.printStatus()
			return nil
		})
	},
}

func init() {
	f := companyAddCmd.Flags()
	f.StringVar(&companyForm.RaisonSociale, "name", "", "company name")
	f.StringVar(&companyForm.Telephone, "phone", "", "phone number")
	f.StringVar(&companyForm.Email, "email", "", "contact email")
	f.StringVar(&companyForm.SiteWeb, "website", "", "website")
	f.StringVar(&companyForm.NumeroIFU, "ifu", "", "IFU number")
	f.StringVar(&companyForm.NumeroRegistreCommerce, "rccm", "", "trade register number")
	f.StringVar(&companyOffer, "offer", "", "offer code; empty chooses later")

	companyCmd.AddCommand(companyListCmd, companySwitchCmd, companyAddCmd)
	rootCmd.AddCommand(companyCmd)
}
