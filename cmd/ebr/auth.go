package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ebrhq/backoffice/internal/validate"
)

var (
	loginForm   validate.LoginForm
	logoutPurge bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			form := loginForm
			if err := op.ask(&form.Email, "Email"); err != nil {
				return err
			}
			if err := op.ask(&form.Password, "Password"); err != nil {
				return err
			}
			if err := op.flow.Login(ctx, form); err != nil {
				return err
			}
			op.printStatus()
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			if err := op.flow.Logout(ctx); err != nil {
				return err
			}
			if logoutPurge {
				if err := op.work.ForgetJournees(ctx); err != nil {
					return err
				}
			}
			fmt.Fprintln(op.out, "logged out")
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the stored session and active company",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			op.printStatus()
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginForm.Email, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginForm.Password, "password", "", "account password (prompted when empty)")
	logoutCmd.Flags().BoolVar(&logoutPurge, "purge", false, "also forget the journee flags kept on this machine")
	rootCmd.AddCommand(loginCmd, logoutCmd, statusCmd)
}
