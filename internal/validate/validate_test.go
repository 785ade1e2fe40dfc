package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docextract/internal/model"
)

func idRecord(t *testing.T, dob, expiry string) *model.DocumentRecord {
	t.Helper()
	s, ok := model.SchemaFor(model.DocIDCard)
	require.True(t, ok)
	rec := model.NewRecord(s, "")
	rec.Set("date_of_birth", dob, model.GroupDetails)
	rec.Set("expiry_date", expiry, model.GroupDetails)
	return rec
}

func TestCrossValidate_Valid(t *testing.T) {
	t.Parallel()

	rec := idRecord(t, "15/03/1990", "01/01/2030")
	m := &model.MRZRecord{DateOfBirth: "15/03/1990", ExpiryDate: "01/01/2030"}

	report := CrossValidate(rec, m, "")
	assert.Equal(t, model.StatusConsistent, report.Status)
	assert.Equal(t, model.ValidationValid, report.Fields["date_of_birth"])
	assert.Equal(t, model.ValidationValid, report.Fields["expiry_date"])
	assert.NotContains(t, rec.Details, "date_of_birth_mrz")
	assert.Same(t, report, rec.Validation)
}

func TestCrossValidate_MismatchRetainsBoth(t *testing.T) {
	t.Parallel()

	rec := idRecord(t, "16/03/1990", "01/01/2030")
	m := &model.MRZRecord{DateOfBirth: "15/03/1990", ExpiryDate: "01/01/2030"}

	report := CrossValidate(rec, m, "")
	assert.Equal(t, model.StatusInconsistent, report.Status)
	assert.Equal(t, model.ValidationMismatch, report.Fields["date_of_birth"])
	assert.Equal(t, model.ValidationValid, report.Fields["expiry_date"])
	assert.Equal(t, "16/03/1990", rec.Details["date_of_birth"])
	assert.Equal(t, "15/03/1990", rec.Details["date_of_birth_mrz"])
}

func TestCrossValidate_NormalizesVisualDates(t *testing.T) {
	t.Parallel()

	rec := idRecord(t, "15 MAR 1990", "01-01-2030")
	m := &model.MRZRecord{DateOfBirth: "15/03/1990", ExpiryDate: "01/01/2030"}

	report := CrossValidate(rec, m, "")
	assert.Equal(t, model.ValidationValid, report.Fields["date_of_birth"])
	assert.Equal(t, model.ValidationValid, report.Fields["expiry_date"])
}

func TestCrossValidate_MissingVisualIsNotApplicable(t *testing.T) {
	t.Parallel()

	rec := idRecord(t, "", model.NotAvailable)
	m := &model.MRZRecord{DateOfBirth: "15/03/1990", ExpiryDate: "01/01/2030"}

	report := CrossValidate(rec, m, model.NotAvailable)
	assert.Equal(t, model.StatusUnverifiable, report.Status)
	assert.Equal(t, model.ValidationNotApplicable, report.Fields["date_of_birth"])
	assert.Equal(t, model.ValidationNotApplicable, report.Fields["expiry_date"])
}

func TestCrossValidate_InvalidMRZDateIsMismatch(t *testing.T) {
	t.Parallel()

	rec := idRecord(t, "15/03/1990", "")
	m := &model.MRZRecord{DateOfBirth: model.InvalidValue, ExpiryDate: "01/01/2030"}

	report := CrossValidate(rec, m, "")
	assert.Equal(t, model.ValidationMismatch, report.Fields["date_of_birth"])
	assert.Equal(t, model.InvalidValue, rec.Details["date_of_birth_mrz"])
	assert.Equal(t, model.ValidationNotApplicable, report.Fields["expiry_date"])
}

func TestCrossValidate_NoMRZ(t *testing.T) {
	t.Parallel()

	rec := idRecord(t, "15/03/1990", "01/01/2030")
	report := CrossValidate(rec, nil, "")
	assert.Equal(t, model.StatusMRZUnavailable, report.Status)
	assert.Equal(t, model.ValidationNotApplicable, report.Fields["date_of_birth"])
	assert.Equal(t, model.ValidationNotApplicable, report.Fields["expiry_date"])
	assert.NotContains(t, rec.Details, "date_of_birth_mrz")
}

func TestCrossValidate_DeedHasNoComparableFields(t *testing.T) {
	t.Parallel()

	s, _ := model.SchemaFor(model.DocTitleDeed)
	rec := model.NewRecord(s, "")
	report := CrossValidate(rec, nil, "")
	assert.Empty(t, report.Fields)
	assert.Equal(t, model.StatusMRZUnavailable, report.Status)
}
