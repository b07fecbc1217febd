package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ebrhq/backoffice/internal/onboarding"
	"github.com/ebrhq/backoffice/internal/validate"
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Register a restaurant: account, email code, offer and payment",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOperator(cmd, func(ctx context.Context, op *operator) error {
			if op.flow.State() != onboarding.StateLoggedOut {
				return errors.New("already logged in: run `ebr logout` first")
			}
			if err := op.flow.StartRegistration(); err != nil {
				return err
			}
			steps := []func(context.Context) error{op.register, op.validateEmail, op.chooseOffer}
			for _, step := range steps {
				if err := step(ctx); err != nil {
					return err
				}
			}
			op.printStatus()
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(signupCmd)
}

// retry runs fn until it stops failing validation, printing the rejected
// fields each time.
func (op *operator) retry(fn func() error) error {
	for {
		err := fn()
		if !errors.Is(err, validate.ErrInvalid) {
			return err
		}
		fmt.Fprintln(op.out, fieldSummary(err))
	}
}

func (op *operator) register(ctx context.Context) error {
	var form validate.RegistrationForm
	return op.retry(func() error {
		form.Password, form.ConfirmPassword = "", ""
		fields := []struct {
			dst   *string
			label string
		}{
			{&form.RaisonSociale, "Restaurant name"},
			{&form.Telephone, "Phone"},
			{&form.Email, "Email"},
			{&form.SiteWeb, "Website (optional)"},
			{&form.NumeroIFU, "IFU number (optional)"},
			{&form.NumeroRegistreCommerce, "Trade register number (optional)"},
			{&form.Firstname, "First name"},
			{&form.Lastname, "Last name"},
			{&form.Username, "Username"},
			{&form.Country, "Country (" + strings.Join(validate.Countries, ", ") + ")"},
			{&form.Password, "Password"},
			{&form.ConfirmPassword, "Confirm password"},
		}
		for _, f := range fields {
			v, err := op.prompt(f.label, *f.dst)
			if err != nil {
				return err
			}
			*f.dst = v
		}
		return op.flow.SubmitRegistration(ctx, form)
	})
}

func (op *operator) validateEmail(ctx context.Context) error {
	fmt.Fprintln(op.out, "A validation code has been sent to your email. Leave empty to receive a new one.")
	for op.flow.State() == onboarding.StateEmailValidation {
		code, err := op.prompt("Code", "")
		if err != nil {
			return err
		}
		if code == "" {
			if err := op.flow.ResendCode(ctx); err != nil {
				return err
			}
			fmt.Fprintln(op.out, onboarding.MsgCodeResent)
			continue
		}
		if err := op.flow.ValidateEmail(ctx, code); err != nil {
			fmt.Fprintln(op.out, describe(err))
		}
	}
	return nil
}

// chooseOffer runs the offer step, then payment for a new registration.
// Closing payment comes back to the offers.
func (op *operator) chooseOffer(ctx context.Context) error {
	offers, err := op.flow.LoadOffers(ctx)
	if err != nil {
		return err
	}
	for op.flow.State() == onboarding.StateOfferSelection {
		op.printOffers(offers)
		id, err := op.prompt("Offer code, or \"later\"", "")
		if err != nil {
			return err
		}
		if id == "later" {
			return op.flow.ChooseLater(ctx)
		}
		if err := op.flow.SelectOffer(id); err != nil {
			fmt.Fprintln(op.out, describe(err))
			continue
		}
		if err := op.flow.Continue(ctx); err != nil {
			return err
		}
		if op.flow.State() == onboarding.StatePayment {
			if err := op.pay(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (op *operator) printOffers(offers []onboarding.Offer) {
	tw := op.table()
	fmt.Fprintln(tw, "CODE\tOFFER\tPRICE\tUSERS\tORDERS\t")
	for _, o := range offers {
		name := o.Name
		if o.Featured {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t\n", o.ID, name, money(o.Price), o.MaxUsers, o.MaxOrders)
	}
	tw.Flush()
}

// pay collects a card or mobile money payment. "close" returns to the
// offers with the selection kept.
func (op *operator) pay(ctx context.Context) error {
	for op.flow.State() == onboarding.StatePayment {
		if err := op.retry(func() error { return op.payOnce(ctx) }); err != nil {
			return err
		}
	}
	return nil
}

func (op *operator) payOnce(ctx context.Context) error {
	method, err := op.prompt("Payment method (card, mobile_money, close)", "card")
	if err != nil {
		return err
	}
	var p onboarding.Payment
	switch method {
	case "close":
		return op.flow.ClosePayment()
	case "card":
		var c onboarding.CardPayment
		for _, f := range []struct {
			dst    *string
			label  string
			format func(string) string
		}{
			{&c.Number, "Card number", validate.FormatCardNumber},
			{&c.Holder, "Card holder", strings.TrimSpace},
			{&c.Expiry, "Expiry (MM/YY)", validate.FormatExpiry},
			{&c.CVV, "CVV", validate.FormatCVV},
		} {
			v, err := op.prompt(f.label, "")
			if err != nil {
				return err
			}
			*f.dst = f.format(v)
		}
		p = c
	case "mobile_money":
		var m onboarding.MobileMoneyPayment
		if err := op.ask(&m.Phone, "Phone number"); err != nil {
			return err
		}
		if err := op.ask(&m.Provider, "Provider ("+strings.Join(validate.Providers, ", ")+")"); err != nil {
			return err
		}
		p = m
	default:
		fmt.Fprintf(op.out, "unknown payment method %q\n", method)
		return nil
	}
	return op.flow.SubmitPayment(ctx, p)
}
