package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docextract/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored runs to CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter, err := runFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "export")
		}

		if err := export.ToFile(exportOut, runs); err != nil {
			return err
		}
		zap.L().Info("export: wrote runs", zap.String("path", exportOut), zap.Int("runs", len(runs)))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "runs.xlsx", "output file (.xlsx or .csv)")
	rootCmd.AddCommand(exportCmd)
}
