package main

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/snow-ghost/thoughtsearch/pkg/accounting"
)

type runsFlags struct {
	db       string
	caller   string
	strategy string
	status   string
	groupBy  string
	format   string
	since    time.Duration
	limit    int
}

func newRunsCmd() *cobra.Command {
	f := &runsFlags{}
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List or summarize recorded search runs",
		Example: `  thoughtsearch runs --db runs.db --status failed --limit 20
  thoughtsearch runs --db runs.db --group-by strategy`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.db, "db", "", "SQLite run database written by --accounting-db or ACCOUNTING_DB")
	fl.StringVar(&f.caller, "caller", "", "only runs from this caller")
	fl.StringVar(&f.strategy, "strategy", "", "only runs with this strategy")
	fl.StringVar(&f.status, "status", "", "solved or failed")
	fl.StringVar(&f.groupBy, "group-by", "", "summarize by strategy, status or caller")
	fl.StringVar(&f.format, "format", "json", "json or csv (listing only)")
	fl.DurationVar(&f.since, "since", 0, "only runs newer than this")
	fl.IntVar(&f.limit, "limit", 0, "maximum runs to list")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}

func runRuns(cmd *cobra.Command, f *runsFlags) error {
	switch f.groupBy {
	case "", "strategy", "status", "caller":
	default:
		return errors.New("group-by must be strategy, status or caller")
	}

	acct, err := accounting.NewManager(accounting.Config{UseSQLite: true, DBPath: f.db})
	if err != nil {
		return err
	}
	defer acct.Close()

	filter := accounting.RunFilter{
		Caller:   f.caller,
		Strategy: f.strategy,
		Status:   f.status,
		GroupBy:  f.groupBy,
		Limit:    f.limit,
	}
	if f.since > 0 {
		from := time.Now().Add(-f.since)
		filter.From = &from
	}

	out := cmd.OutOrStdout()
	if f.groupBy != "" {
		report, err := acct.GetRunReport(filter)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	var format accounting.ExportFormat
	switch f.format {
	case "json":
		format = accounting.ExportFormatJSON
	case "csv":
		format = accounting.ExportFormatCSV
	default:
		return errors.New("format must be json or csv")
	}
	data, err := acct.ExportRuns(filter, format)
	if err != nil {
		return err
	}
	_, err = out.Write(append(data, '\n'))
	return err
}
