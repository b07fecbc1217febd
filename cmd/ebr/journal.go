package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ebrhq/backoffice/internal/config"
	"github.com/ebrhq/backoffice/internal/journal"
)

var (
	journalQuery journal.Query
	journalSince time.Duration
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the onboarding journal stored in the database",
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List onboarding transitions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cfg.Database.URL == "" {
			return errors.New("the journal needs a database: set database.url")
		}
		ctx := cmd.Context()
		pool, err := connectDB(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()

		q := journalQuery
		if journalSince > 0 {
			q.From = time.Now().Add(-journalSince)
		}
		events, next, err := journal.NewStore(pool).List(ctx, q)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		tw := newTable(out)
		fmt.Fprintln(tw, "WHEN\tSESSION\tEVENT\tFROM\tTO\tERROR\t")
		for _, e := range events {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
				humanize.Time(e.At), e.SessionID, e.Event, e.From, e.To, e.Error)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if next != "" {
			fmt.Fprintf(out, "more: --cursor %s\n", next)
		}
		return nil
	},
}

func init() {
	f := journalListCmd.Flags()
	f.StringVar(&journalQuery.SessionID, "session", "", "only this session")
	f.StringVar(&journalQuery.Event, "event", "", "only this event")
	f.BoolVar(&journalQuery.FailedOnly, "failed", false, "only rejected attempts")
	f.DurationVar(&journalSince, "since", 0, "only entries newer than this")
	f.IntVar(&journalQuery.Limit, "limit", 50, "entries per page")
	f.StringVar(&journalQuery.Cursor, "cursor", "", "cursor of the next page")

	journalCmd.AddCommand(journalListCmd)
	rootCmd.AddCommand(journalCmd)
}
