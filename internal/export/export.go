// Package export writes stored extraction runs as CSV or XLSX sheets.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/docextract/internal/model"
)

// Leading columns present on every row.
var baseColumns = []string{"run_id", "doc_type", "source", "status", "created_at"}

// Trailing columns present on every row.
var tailColumns = []string{model.OwnersKey, "validation.status", "error"}

// Table is a header row plus one row per run.
type Table struct {
	Header []string
	Rows   [][]string
}

// Build lays runs out as a table. Field columns follow each document
// schema's key order, in order of first appearance across runs.
func Build(runs []model.Run) (*Table, error) {
	header := append([]string{}, baseColumns...)
	seen := make(map[string]bool)
	for _, c := range baseColumns {
		seen[c] = true
	}
	for _, c := range tailColumns {
		seen[c] = true
	}

	flat := make([]map[string]string, len(runs))
	var extra []string
	for i, r := range runs {
		vals, err := flattenRun(r)
		if err != nil {
			return nil, err
		}
		flat[i] = vals

		s, _ := model.SchemaFor(r.DocType)
		for _, f := range s.Fields {
			col := columnName(f)
			if !seen[col] {
				seen[col] = true
				header = append(header, col)
			}
		}
		for k := range vals {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	header = append(header, extra...)
	header = append(header, tailColumns...)

	t := &Table{Header: header, Rows: make([][]string, len(runs))}
	for i, vals := range flat {
		row := make([]string, len(header))
		for j, col := range header {
			row[j] = vals[col]
		}
		t.Rows[i] = row
	}
	return t, nil
}

func columnName(f model.FieldSpec) string {
	if f.Group == model.GroupDetails {
		return model.GroupDetails + "." + f.Key
	}
	return f.Key
}

// flattenRun decodes a run's stored record into dotted column values.
func flattenRun(r model.Run) (map[string]string, error) {
	out := map[string]string{
		"run_id":     r.ID,
		"doc_type":   string(r.DocType),
		"source":     r.Source,
		"status":     string(r.Status),
		"created_at": r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if r.Result == nil {
		return out, nil
	}
	out["error"] = r.Result.Error
	if len(r.Result.Record) == 0 {
		return out, nil
	}

	var rec map[string]json.RawMessage
	if err := json.Unmarshal(r.Result.Record, &rec); err != nil {
		return nil, eris.Wrapf(err, "export: decode record of run %s", r.ID)
	}
	for k, raw := range rec {
		switch k {
		case model.GroupDetails:
			var details map[string]string
			if err := json.Unmarshal(raw, &details); err != nil {
				return nil, eris.Wrapf(err, "export: decode details of run %s", r.ID)
			}
			for dk, dv := range details {
				out[model.GroupDetails+"."+dk] = dv
			}
		case model.OwnersKey:
			var owners []model.OwnerShare
			if err := json.Unmarshal(raw, &owners); err != nil {
				return nil, eris.Wrapf(err, "export: decode owners of run %s", r.ID)
			}
			out[model.OwnersKey] = joinOwners(owners)
		case "validation":
			var v model.ValidationReport
			if err := json.Unmarshal(raw, &v); err == nil {
				out["validation.status"] = v.Status
			}
		case "mrz", "unverified":
		default:
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				out[k] = s
			}
		}
	}
	return out, nil
}

func joinOwners(owners []model.OwnerShare) string {
	parts := make([]string, 0, len(owners))
	for _, o := range owners {
		if o.Share == "" {
			parts = append(parts, o.Name)
			continue
		}
		parts = append(parts, o.Name+" ("+o.Share+")")
	}
	return strings.Join(parts, "; ")
}

// WriteCSV writes t as CSV to w.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return eris.Wrap(err, "export: write rows")
	}
	return nil
}

// WriteXLSX saves t as a single-sheet workbook at path.
func WriteXLSX(path string, t *Table) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("runs")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}
	for _, r := range append([][]string{t.Header}, t.Rows...) {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	return eris.Wrap(f.Save(path), "export: save workbook")
}

// ToFile writes runs to path, choosing the format from its extension.
func ToFile(path string, runs []model.Run) error {
	t, err := Build(runs)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return WriteXLSX(path, t)
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrap(err, "export: create file")
		}
		defer f.Close() //nolint:errcheck
		return WriteCSV(f, t)
	default:
		return eris.Errorf("export: unsupported format %q", filepath.Ext(path))
	}
}
