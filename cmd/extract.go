package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/docextract/internal/model"
	"github.com/sells-group/docextract/internal/pipeline"
)

var (
	extractType    string
	extractAnswers string
	extractPasses  string
	extractSave    bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [text-file...]",
	Short: "Extract a record from already recognized text",
	Long: "Reads one text file per recognition pass (scan.blur.txt is tagged \"blur\"), " +
		"or a JSON passes file, or a JSON answer map, and prints the record as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dt, err := model.ParseDocumentType(extractType)
		if err != nil {
			return err
		}

		job := pipeline.Job{DocType: dt, Source: strings.Join(args, ",")}
		if extractPasses != "" {
			if err := readJSONFile(extractPasses, &job.Passes); err != nil {
				return err
			}
		}
		if extractAnswers != "" {
			if err := readJSONFile(extractAnswers, &job.Answers); err != nil {
				return err
			}
			job.Mode = model.ModeAnswers
		}
		for _, path := range args {
			p, err := readPassFile(path)
			if err != nil {
				return err
			}
			job.Passes = append(job.Passes, p)
		}
		if len(job.Passes) == 0 && job.Answers == nil {
			return eris.New("extract: no input; pass text files, --passes or --answers")
		}

		env, err := initEnv(ctx, envOptions{Mode: "extract", Store: extractSave})
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Pipeline.Run(ctx, job)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), res.Record)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractType, "type", "", "document type (id_card, passport, title_deed, commercial_license, raw)")
	extractCmd.Flags().StringVar(&extractAnswers, "answers", "", "JSON file of alias to answer pairs")
	extractCmd.Flags().StringVar(&extractPasses, "passes", "", "JSON file of [{method, text}] recognition passes")
	extractCmd.Flags().BoolVar(&extractSave, "save", false, "persist the run to the configured store")
	_ = extractCmd.MarkFlagRequired("type")
	rootCmd.AddCommand(extractCmd)
}

// readPassFile loads one recognition pass. The method is the second-to-last
// dotted segment of the file name when it names a known variant.
func readPassFile(path string) (model.RecognitionPass, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.RecognitionPass{}, eris.Wrapf(err, "extract: read %s", path)
	}
	return model.RecognitionPass{Method: methodFromName(path), Text: string(data)}, nil
}

func methodFromName(path string) string {
	if m, ok := variantMethod(path); ok {
		return m
	}
	return model.MethodDefault
}

func variantMethod(path string) (string, bool) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	i := strings.LastIndex(base, ".")
	if i < 0 {
		return "", false
	}
	m := base[i+1:]
	return m, slices.Contains(model.DefaultMethods, m)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return eris.Wrapf(err, "decode %s", path)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
