package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ebrhq/backoffice/internal/config"
	"github.com/ebrhq/backoffice/internal/onboarding"
	"github.com/ebrhq/backoffice/internal/session"
	"github.com/ebrhq/backoffice/internal/validate"
	"github.com/ebrhq/backoffice/internal/workspace"
)

// cliSessionID labels journal entries written by the operator commands.
const cliSessionID = "cli"

// operator drives the onboarding flow and dashboard from a terminal. The
// session persists in the configured store between invocations.
type operator struct {
	*stack
	flow *onboarding.Orchestrator
	work *workspace.Workspace
	out  io.Writer
	in   *bufio.Reader
}

// withOperator resumes the stored session and runs fn.
func withOperator(cmd *cobra.Command, fn func(ctx context.Context, op *operator) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	st, err := openStack(ctx, cfg, cliLogger(), nil)
	if err != nil {
		return err
	}
	defer st.Close()

	deps := st.flowDeps()
	deps.Sessions = session.NewStore(st.store)
	deps.SessionID = cliSessionID
	flow := onboarding.New(deps)
	if err := flow.Resume(ctx); err != nil {
		return err
	}

	op := &operator{
		stack: st,
		flow:  flow,
		work:  workspace.New(flow, workspace.NewServices(st.client), st.store, nil),
		out:   cmd.OutOrStdout(),
		in:    bufio.NewReader(cmd.InOrStdin()),
	}
	return describe(fn(ctx, op))
}

// describe turns flow errors into one readable line.
func describe(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, onboarding.ErrSessionExpired):
		return errors.New("not logged in: run `ebr login` first")
	case errors.Is(err, validate.ErrInvalid):
		return errors.New(fieldSummary(err))
	}
	if msg := onboarding.Message(err); msg != "" && msg != err.Error() {
		return fmt.Errorf("%s (%w)", msg, err)
	}
	return err
}

func fieldSummary(err error) string {
	fields := validate.FieldErrors(err)
	parts := make([]string, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		parts = append(parts, k+": "+fields[k])
	}
	return onboarding.MsgFixFields + ": " + strings.Join(parts, "; ")
}

// prompt asks for one line; def is used for an empty answer.
func (op *operator) prompt(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(op.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(op.out, "%s: ", label)
	}
	line, err := op.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// ask fills *dst from a prompt unless it is already set.
func (op *operator) ask(dst *string, label string) error {
	if *dst != "" {
		return nil
	}
	v, err := op.prompt(label, "")
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func (op *operator) table() *tabwriter.Writer { return newTable(op.out) }

// printStatus shows where the flow stands.
func (op *operator) printStatus() {
	v := op.flow.View()
	fmt.Fprintf(op.out, "state: %s\n", v.State)
	if v.User != nil {
		fmt.Fprintf(op.out, "user: %s (#%d)\n", v.User.Email, v.User.ID)
	}
	if v.ActiveCompany != nil {
		fmt.Fprintf(op.out, "company: %s (#%d)\n", v.ActiveCompany.RaisonSociale, v.ActiveCompany.ID)
	}
	if v.Notice != "" {
		fmt.Fprintln(op.out, v.Notice)
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// money renders an amount in FCFA with space-grouped thousands.
func money(v float64) string {
	return humanize.FormatFloat("# ###.", v) + " FCFA"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
