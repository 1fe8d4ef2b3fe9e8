package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/23skdu/eigencmc/internal/storage"
)

func newSummarizeCmd(a *app) *cobra.Command {
	var report string
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Print rank-1 rate and timing per dimension from Parquet reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := storage.NewDuckDBAdapter().Summary(cmd.Context(), report)
			if err != nil {
				return err
			}
			a.logger.Debug().Str("report", report).Int("rows", len(rows)).Msg("report summarized")

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tJOB\tDIMS\tRANK1\tMINUTES")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.2f\n", r.RunID, r.Job, r.Dimension, storage.FormatRate(r.Rank1Rate), float64(r.ElapsedMS)/60000)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&report, "report", "", "Parquet report file or glob")
	_ = cmd.MarkFlagRequired("report")
	return cmd
}
