package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thobe/thread-dump-analysis/pkg/model"
	"github.com/thobe/thread-dump-analysis/pkg/writer"
)

var (
	// Report command flags
	reportLimit  int
	reportID     int64
	reportOutput string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report [dump-file]",
	Short: "Show stored snapshot history",
	Long: `Show the snapshots recorded by earlier analyze or watch runs.

History is only recorded when database.enabled is set in the configuration.
Pass the dump file path as it was given to analyze, or --id for one record.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().IntVarP(&reportLimit, "limit", "l", 20, "Maximum number of snapshots to list")
	reportCmd.Flags().Int64Var(&reportID, "id", 0, "Show a single snapshot record")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "table", "Output format: table, json or yaml")
}

func runReport(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && reportID == 0 {
		return fmt.Errorf("either a dump file or --id is required")
	}

	svc, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	var records []model.StoredSnapshot
	if reportID != 0 {
		record, err := svc.StoredSnapshot(cmd.Context(), reportID)
		if err != nil {
			return err
		}
		records = append(records, *record)
	} else {
		records, err = svc.History(cmd.Context(), args[0], reportLimit)
		if err != nil {
			return err
		}
	}

	return writeRecords(cmd.OutOrStdout(), records, reportOutput)
}

// writeRecords prints records as a table or serialized with pkg/writer.
func writeRecords(out io.Writer, records []model.StoredSnapshot, format string) error {
	if format == "" || format == "table" {
		return writeTable(out, records)
	}

	w, err := writer.New[[]model.StoredSnapshot](format)
	if err != nil {
		return err
	}
	return w.Write(records, out)
}

func writeTable(out io.Writer, records []model.StoredSnapshot) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "no snapshots recorded")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tRECORDED\tDATE\tTHREADS\tMONITORS\tCONTENDED\tGRAPH")
	for _, r := range records {
		s := r.Summary
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), s.Date,
			s.ThreadCount, s.MonitorCount, len(s.Contended), s.GraphPath)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, r := range records {
		for _, m := range r.Summary.Contended {
			fmt.Fprintf(out, "#%d %s: owned by %s, waited on by %s\n",
				r.ID, m.ID, strings.Join(m.Owners, ", "), strings.Join(m.Waiters, ", "))
		}
	}
	return nil
}
