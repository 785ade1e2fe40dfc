package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docextract/internal/fetcher"
	"github.com/sells-group/docextract/internal/model"
	"github.com/sells-group/docextract/internal/pipeline"
)

var (
	batchType  string
	batchMode  string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch <manifest.csv|manifest.xlsx|dir|archive.zip>",
	Short: "Extract many documents concurrently",
	Long: "Processes every job in a CSV/XLSX manifest (columns source, doc_type, mode), " +
		"or every document in a directory or zip archive using --type.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		workDir, err := os.MkdirTemp("", "docextract-batch-")
		if err != nil {
			return eris.Wrap(err, "batch: create work dir")
		}
		defer os.RemoveAll(workDir) //nolint:errcheck

		jobs, err := loadJobs(args[0], batchType, batchMode, workDir)
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(jobs) > batchLimit {
			jobs = jobs[:batchLimit]
		}
		if len(jobs) == 0 {
			zap.L().Info("batch: no documents found")
			return nil
		}

		env, err := initEnv(ctx, envOptions{Mode: "batch", Store: true, Recognizer: true})
		if err != nil {
			return err
		}
		defer env.Close()

		items, sum := env.Pipeline.RunBatch(ctx, jobs, cfg.Batch.MaxConcurrentDocuments)
		formatBatch(cmd.OutOrStdout(), items)
		if sum.Failed > 0 {
			return eris.Errorf("batch: %d of %d documents failed", sum.Failed, len(jobs))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchType, "type", "", "document type for directory and archive inputs")
	batchCmd.Flags().StringVar(&batchMode, "mode", "", "default extraction mode (lines, answers)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of documents to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}

// documentExts are the file types picked up from directories and archives.
var documentExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true, ".pdf": true,
}

// loadJobs builds the job list from a manifest, a directory or a zip archive.
func loadJobs(input, docType, mode, workDir string) ([]pipeline.Job, error) {
	defMode, err := model.ParseExtractionMode(mode)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(input)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: stat %s", input)
	}

	var paths []string
	switch ext := strings.ToLower(filepath.Ext(input)); {
	case info.IsDir():
		paths, err = documentFiles(input)
	case ext == ".zip":
		var extracted []string
		extracted, err = fetcher.ExtractZIP(input, workDir)
		paths = filterDocuments(extracted)
	case ext == ".csv" || ext == ".xlsx":
		return manifestJobs(input, defMode)
	default:
		return nil, eris.Errorf("batch: unsupported input %q", input)
	}
	if err != nil {
		return nil, err
	}

	dt, err := model.ParseDocumentType(docType)
	if err != nil {
		return nil, eris.Wrap(err, "batch: --type is required for directory and archive inputs")
	}
	jobs := make([]pipeline.Job, 0, len(paths))
	for _, p := range paths {
		jobs = append(jobs, pipeline.Job{DocType: dt, Source: p, Mode: defMode})
	}
	return jobs, nil
}

func manifestJobs(path string, defMode model.ExtractionMode) ([]pipeline.Job, error) {
	rows, err := fetcher.ReadManifest(path)
	if err != nil {
		return nil, err
	}
	jobs := make([]pipeline.Job, 0, len(rows))
	for _, r := range rows {
		mode := defMode
		if r.Mode != "" {
			if mode, err = model.ParseExtractionMode(r.Mode); err != nil {
				return nil, eris.Wrapf(err, "batch: manifest row %d", r.Row)
			}
		}
		jobs = append(jobs, pipeline.Job{DocType: r.DocType, Source: r.Source, Mode: mode})
	}
	return jobs, nil
}

// documentFiles lists the documents in dir. Pre-rendered variants collapse
// onto their base file, which recognition expands again.
func documentFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read dir %s", dir)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return filterDocuments(paths), nil
}

func filterDocuments(paths []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range paths {
		if !documentExts[strings.ToLower(filepath.Ext(p))] {
			continue
		}
		base := variantBase(p)
		if !seen[base] {
			seen[base] = true
			out = append(out, base)
		}
	}
	sort.Strings(out)
	return out
}

// variantBase maps scan.blur.png to scan.png. Other paths are unchanged.
func variantBase(path string) string {
	m, ok := variantMethod(path)
	if !ok {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, "."+m+ext) + ext
}

// formatBatch prints one line per job.
func formatBatch(out io.Writer, items []pipeline.BatchItem) {
	for _, it := range items {
		if it.Err != nil {
			_, _ = fmt.Fprintf(out, "FAIL\t%s\t%s\t%v\n", it.Job.DocType, it.Job.Source, it.Err)
			continue
		}
		_, _ = fmt.Fprintf(out, "OK\t%s\t%s\t%s\t%d/%d\t%s\n",
			it.Job.DocType, it.Job.Source, truncateID(it.Result.RunID),
			it.Result.Run.FieldsFound, it.Result.Run.FieldsTotal, it.Result.Run.ValidationStatus)
	}
}
