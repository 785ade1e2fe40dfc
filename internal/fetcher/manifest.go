package fetcher

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/docextract/internal/model"
)

// Manifest column names. "source" and "doc_type" are required.
const (
	ColSource  = "source"
	ColDocType = "doc_type"
	ColMode    = "mode"
)

// Job is one document listed in a batch manifest.
type Job struct {
	Row     int
	Source  string
	DocType model.DocumentType
	Mode    string
}

// ReadManifest parses a CSV or XLSX batch manifest. The first row is the
// header; blank rows are skipped. Unknown document types fail the whole
// manifest with the offending row number.
func ReadManifest(path string) ([]Job, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSXRows(path)
	case ".csv", ".txt":
		rows, err = readCSVRows(path)
	default:
		return nil, eris.Errorf("fetcher: unsupported manifest format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return parseManifest(rows)
}

func parseManifest(rows [][]string) ([]Job, error) {
	if len(rows) == 0 {
		return nil, eris.New("fetcher: manifest is empty")
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{ColSource, ColDocType} {
		if _, ok := cols[req]; !ok {
			return nil, eris.Errorf("fetcher: manifest missing %q column", req)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var jobs []Job
	for i, row := range rows[1:] {
		src := cell(row, ColSource)
		if src == "" {
			continue
		}
		dt, err := model.ParseDocumentType(cell(row, ColDocType))
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: manifest row %d", i+2)
		}
		jobs = append(jobs, Job{
			Row:     i + 2,
			Source:  src,
			DocType: dt,
			Mode:    strings.ToLower(cell(row, ColMode)),
		})
	}
	return jobs, nil
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open manifest")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: read csv manifest")
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open xlsx manifest")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("fetcher: xlsx manifest has no sheets")
	}

	sheet := f.Sheets[0]
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}
