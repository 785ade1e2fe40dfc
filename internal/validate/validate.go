// Package validate cross-checks visually extracted fields against the MRZ.
package validate

import (
	"go.uber.org/zap"

	"github.com/sells-group/docextract/internal/model"
	"github.com/sells-group/docextract/internal/mrz"
)

// MRZSuffix is appended to a field key to hold the MRZ value on mismatch.
const MRZSuffix = "_mrz"

// CrossValidate compares each cross-checked date field of rec with its MRZ
// counterpart after normalizing both, attaches the report to rec and
// returns it. Mismatches never fail: the MRZ value is kept next to the
// visual one under <field>_mrz. A nil MRZ marks the report mrz_unavailable.
func CrossValidate(rec *model.DocumentRecord, m *model.MRZRecord, missing string) *model.ValidationReport {
	report := &model.ValidationReport{Fields: make(map[string]model.ValidationResult)}

	var fields []string
	for _, f := range model.CrossCheckedFields {
		if _, ok := rec.Get(f); ok {
			fields = append(fields, f)
		}
	}

	if m == nil {
		for _, f := range fields {
			report.Fields[f] = model.ValidationNotApplicable
		}
		report.Status = model.StatusMRZUnavailable
		rec.Validation = report
		return report
	}

	var valid, mismatched int
	for _, f := range fields {
		visual, _ := rec.Get(f)
		if visual == "" || visual == missing {
			report.Fields[f] = model.ValidationNotApplicable
			continue
		}

		fromMRZ, _ := m.Value(f)
		normalized := mrz.NormalizeDate(visual)
		if normalized != model.InvalidValue && normalized == fromMRZ {
			report.Fields[f] = model.ValidationValid
			valid++
			continue
		}

		report.Fields[f] = model.ValidationMismatch
		rec.Set(f+MRZSuffix, fromMRZ, rec.GroupOf(f))
		mismatched++
		zap.L().Debug("validate: mrz mismatch",
			zap.String("field", f),
			zap.String("visual", visual),
			zap.String("mrz", fromMRZ),
		)
	}

	switch {
	case mismatched > 0:
		report.Status = model.StatusInconsistent
	case valid > 0:
		report.Status = model.StatusConsistent
	default:
		report.Status = model.StatusUnverifiable
	}
	rec.Validation = report
	return report
}
