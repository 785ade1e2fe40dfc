package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/docextract/internal/model"
	"github.com/sells-group/docextract/internal/pipeline"
)

var (
	scanType string
	scanMode string
)

var scanCmd = &cobra.Command{
	Use:   "scan <image|pdf|url>",
	Short: "Recognize a document and extract its record",
	Long: "Runs recognition over the document's pre-rendered variants (scan.blur.png, ...) " +
		"or the file itself, extracts the record, stores the run and prints the record.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dt, err := model.ParseDocumentType(scanType)
		if err != nil {
			return err
		}

		mode, err := model.ParseExtractionMode(scanMode)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, envOptions{Mode: "scan", Store: true, Recognizer: true})
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Run(ctx, pipeline.Job{
			DocType: dt,
			Source:  args[0],
			Mode:    mode,
		})
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanType, "type", "", "document type (id_card, passport, title_deed, commercial_license, raw)")
	scanCmd.Flags().StringVar(&scanMode, "mode", "lines", "extraction mode (lines, answers)")
	_ = scanCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(scanCmd)
}
