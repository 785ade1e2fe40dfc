package answers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docextract/internal/model"
)

func schema(t *testing.T, dt model.DocumentType) model.Schema {
	t.Helper()
	s, ok := model.SchemaFor(dt)
	require.True(t, ok)
	return s
}

func TestMap_IDCard(t *testing.T) {
	t.Parallel()

	tables := DefaultTables()
	rec := Map(schema(t, model.DocIDCard), tables[model.DocIDCard], model.AnswerMap{
		"FullName":    "Ahmed Ali",
		"DOB":         "01/01/1990",
		"IDNumber":    "784-1990-1234567-1",
		"nationality": "  ",
		"Country":     "United Arab Emirates",
	}, model.NotAvailable)

	assert.Equal(t, "Ahmed Ali", rec.Details["name"])
	assert.Equal(t, "01/01/1990", rec.Details["date_of_birth"])
	assert.Equal(t, "784-1990-1234567-1", rec.Details["id_number"])
	assert.Equal(t, model.NotAvailable, rec.Details["nationality"])
	assert.Equal(t, "United Arab Emirates", rec.Fields["country"])
	assert.Equal(t, model.NotAvailable, rec.Details["expiry_date"])
}

func TestMap_AliasPriority(t *testing.T) {
	t.Parallel()

	table := Table{Fields: map[string][]string{"name": {"primary", "secondary"}}}
	rec := Map(schema(t, model.DocIDCard), table, model.AnswerMap{
		"secondary": "Second",
		"primary":   "First",
	}, model.NotAvailable)
	assert.Equal(t, "First", rec.Details["name"])

	rec = Map(schema(t, model.DocIDCard), table, model.AnswerMap{
		"secondary": "Second",
		"primary":   "",
	}, model.NotAvailable)
	assert.Equal(t, "Second", rec.Details["name"])
}

func TestMap_CaseInsensitiveAlias(t *testing.T) {
	t.Parallel()

	rec := Map(schema(t, model.DocPassport), DefaultTables()[model.DocPassport], model.AnswerMap{
		"PASSPORTNO": "N1234567",
	}, model.NotAvailable)
	assert.Equal(t, "N1234567", rec.Details["passport_number"])
}

func TestMap_CaseCollisionIsDeterministic(t *testing.T) {
	t.Parallel()

	am := model.AnswerMap{
		"Place_Of_Birth": "Dubai",
		"PLACE_OF_BIRTH": "Abu Dhabi",
	}
	for range 20 {
		rec := Map(schema(t, model.DocPassport), DefaultTables()[model.DocPassport], am, model.NotAvailable)
		assert.Equal(t, "Abu Dhabi", rec.Details["place_of_birth"])
	}
}

func TestMap_Owners(t *testing.T) {
	t.Parallel()

	rec := Map(schema(t, model.DocTitleDeed), DefaultTables()[model.DocTitleDeed], model.AnswerMap{
		"owner_name_1":  "Ahmed Ali",
		"owner_share_1": "50",
		"owner_name_2":  "Sara Khan",
		"owner_share_2": "50",
		"owner_name_3":  "Ahmed Ali",
		"owner_share_3": "50",
		"owner_name_4":  "No Share",
		"owner_share_5": "25",
		"plot_no":       "123",
	}, model.NotAvailable)

	assert.Equal(t, []model.OwnerShare{
		{Name: "Ahmed Ali", Share: "50"},
		{Name: "Sara Khan", Share: "50"},
	}, rec.Owners)
	assert.Equal(t, "123", rec.Fields["plot_no"])
	assert.Equal(t, model.NotAvailable, rec.Fields["community"])
}

func TestMap_OwnersBeyondLimitIgnored(t *testing.T) {
	t.Parallel()

	table := DefaultTables()[model.DocTitleDeed]
	table.MaxOwners = 1
	rec := Map(schema(t, model.DocTitleDeed), table, model.AnswerMap{
		"owner_name_1":  "A",
		"owner_share_1": "10",
		"owner_name_2":  "B",
		"owner_share_2": "90",
	}, model.NotAvailable)

	assert.Len(t, rec.Owners, 1)
}

func TestMap_NoOwnersIsEmptyList(t *testing.T) {
	t.Parallel()

	rec := Map(schema(t, model.DocCommercialLicense), DefaultTables()[model.DocCommercialLicense], model.AnswerMap{}, model.NotAvailable)
	assert.NotNil(t, rec.Owners)
	assert.Empty(t, rec.Owners)
	for _, k := range schema(t, model.DocCommercialLicense).Keys() {
		v, ok := rec.Get(k)
		assert.True(t, ok, k)
		assert.Equal(t, model.NotAvailable, v, k)
	}
}

func TestMRZText(t *testing.T) {
	t.Parallel()

	tables := DefaultTables()
	assert.Equal(t, "IDARE<<<", MRZText(tables[model.DocIDCard], model.AnswerMap{"MRZ": "IDARE<<<"}))
	assert.Empty(t, MRZText(tables[model.DocTitleDeed], model.AnswerMap{"mrz": "x"}))
}

func TestCamel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "DateOfBirth", camel("date_of_birth"))
	assert.Equal(t, "Name", camel("name"))
}

func TestLoadTables(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
title-deed:
  fields:
    plot_no: ["PlotNumber"]
  owner_name: "Owner%dName"
  owner_share: "Owner%dShare"
  max_owners: 3
`), 0o600))

	tables, err := LoadTables(path, 0)
	require.NoError(t, err)

	deed := tables[model.DocTitleDeed]
	assert.Equal(t, []string{"PlotNumber"}, deed.Fields["plot_no"])
	assert.Equal(t, []string{"community", "Community"}, deed.Fields["community"])
	assert.Equal(t, 3, deed.MaxOwners)

	rec := Map(schema(t, model.DocTitleDeed), deed, model.AnswerMap{
		"PlotNumber":  "77",
		"plot_no":     "ignored",
		"Owner1Name":  "A",
		"Owner1Share": "100",
	}, model.NotAvailable)
	assert.Equal(t, "77", rec.Fields["plot_no"])
	assert.Equal(t, []model.OwnerShare{{Name: "A", Share: "100"}}, rec.Owners)

	assert.Contains(t, tables[model.DocIDCard].Fields["name"], "FullName")
}

func TestLoadTables_MaxOwners(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title_deed:\n  max_owners: 10\n"), 0o600))

	tables, err := LoadTables(path, 4)
	require.NoError(t, err)
	assert.Equal(t, 10, tables[model.DocTitleDeed].MaxOwners)
	assert.Equal(t, 4, tables[model.DocCommercialLicense].MaxOwners)
	assert.Zero(t, tables[model.DocPassport].MaxOwners)

	tables, err = LoadTables("", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxOwners, tables[model.DocTitleDeed].MaxOwners)
}

func TestLoadTables_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := LoadTables(filepath.Join(dir, "missing.yaml"), 0)
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("visa:\n  fields: {}\n"), 0o600))
	_, err = LoadTables(bad, 0)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrUnsupportedDocumentType))

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("passport:\n  fields:\n    shoe_size: [x]\n"), 0o600))
	_, err = LoadTables(unknown, 0)
	require.Error(t, err)

	tables, err := LoadTables("", 0)
	require.NoError(t, err)
	assert.Len(t, tables, len(model.AllDocumentTypes()))
}
