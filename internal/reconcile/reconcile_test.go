package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docextract/internal/model"
)

func TestVote(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Ali", Vote([]string{"Ali", "Ali", "Sami"}))
	assert.Equal(t, "Ali", Vote([]string{"Ali", "Sami"}))
	assert.Equal(t, "Sami", Vote([]string{"Sami", "Ali"}))
	assert.Equal(t, "Sami", Vote([]string{"Ali", "Sami", "Sami"}))
	assert.Equal(t, "", Vote(nil))
}

func TestVote_Deterministic(t *testing.T) {
	t.Parallel()

	in := []string{"b", "a", "c", "a", "b"}
	first := Vote(in)
	for range 50 {
		assert.Equal(t, first, Vote(in))
	}
	assert.Equal(t, "b", first)
}

func TestVoteVocabulary(t *testing.T) {
	t.Parallel()

	vocab := []string{"Iraq", "India", "United Arab Emirates"}

	got, ok := VoteVocabulary([]string{"Lraq", "Lraq", "Iraq"}, vocab)
	assert.True(t, ok)
	assert.Equal(t, "Iraq", got)

	got, ok = VoteVocabulary([]string{"united arab emirates"}, vocab)
	assert.True(t, ok)
	assert.Equal(t, "United Arab Emirates", got)

	got, ok = VoteVocabulary([]string{"Oman", "Qatar", "Qatar"}, vocab)
	assert.False(t, ok)
	assert.Equal(t, "Qatar", got)

	got, ok = VoteVocabulary(nil, vocab)
	assert.True(t, ok)
	assert.Equal(t, "", got)

	got, ok = VoteVocabulary([]string{"Oman"}, nil)
	assert.True(t, ok)
	assert.Equal(t, "Oman", got)
}

func TestIdentifierFromText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"accepted", "ID Number\n784-1990-1234567-1", "784-1990-1234567-1"},
		{"two hyphens rejected", "784-1990-1234567", ""},
		{"four hyphens rejected", "784-1990-1234567-1-2", ""},
		{"first valid line wins", "12-34\n784-1990-1234567-1\n784-1985-7654321-2", "784-1990-1234567-1"},
		{"noise stripped", "ID: 784-1990-1234567-1 |", "784-1990-1234567-1"},
		{"three hyphens without digits keeps searching", "a-b-c-d\n784-1990-1234567-1", "784-1990-1234567-1"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IdentifierFromText(tt.text))
		})
	}
}

func TestIdentifierFromPasses_OnlyDesignatedPass(t *testing.T) {
	t.Parallel()

	passes := []model.RecognitionPass{
		{Method: model.MethodDefault, Text: "784-1990-1111111-1"},
		{Method: model.MethodBlur, Text: "784-1990-1234567-1"},
	}
	assert.Equal(t, "784-1990-1234567-1", IdentifierFromPasses(passes, model.MethodBlur))
	assert.Equal(t, "", IdentifierFromPasses(passes[:1], model.MethodBlur))
}

func TestOwners_VotesPerPassListsAndDedupes(t *testing.T) {
	t.Parallel()

	cands := []model.FieldCandidate{
		{Field: model.OwnersKey, Value: "Ali Hassan", Share: "50", Source: "default"},
		{Field: model.OwnersKey, Value: "Sara 0mar", Share: "50", Source: "default"},
		{Field: model.OwnersKey, Value: "Ali Hassan", Share: "50", Source: "binary"},
		{Field: model.OwnersKey, Value: "Sara Omar", Share: "50", Source: "binary"},
		{Field: model.OwnersKey, Value: "Ali Hassan", Share: "50", Source: "binary"},
		{Field: model.OwnersKey, Value: "Ali Hassan", Share: "50", Source: "blur"},
		{Field: model.OwnersKey, Value: "Sara Omar", Share: "50", Source: "blur"},
		{Field: "plot_no", Value: "12", Source: "blur"},
	}

	got := Owners(cands)
	assert.Equal(t, []model.OwnerShare{
		{Name: "Ali Hassan", Share: "50"},
		{Name: "Sara Omar", Share: "50"},
	}, got)
}

func TestOwners_None(t *testing.T) {
	t.Parallel()

	got := Owners([]model.FieldCandidate{{Field: "plot_no", Value: "1"}})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReconcile_EmptyInputHasAllKeys(t *testing.T) {
	t.Parallel()

	for _, dt := range model.AllDocumentTypes() {
		s, ok := model.SchemaFor(dt)
		require.True(t, ok)
		rec := Reconcile(s, nil, nil, DefaultOptions())
		for _, k := range s.Keys() {
			v, ok := rec.Get(k)
			assert.True(t, ok, "%s: %s", dt, k)
			assert.Equal(t, "", v)
		}
		if s.HasOwners {
			assert.NotNil(t, rec.Owners)
		}
	}
}

func TestReconcile_IDCard(t *testing.T) {
	t.Parallel()

	s, _ := model.SchemaFor(model.DocIDCard)
	cands := []model.FieldCandidate{
		{Field: "name", Value: "Ali Hassan", Source: "default"},
		{Field: "name", Value: "Ali Hasan", Source: "binary"},
		{Field: "name", Value: "Ali Hassan", Source: "adaptive"},
		{Field: "nationality", Value: "Lndia", Source: "default"},
		{Field: "nationality", Value: "India", Source: "binary"},
		{Field: "date_of_birth", Value: "15/03/1990", Source: "default"},
		{Field: "country", Value: "United Arab Emirates", Source: "default"},
	}
	passes := []model.RecognitionPass{
		{Method: "default", Text: "ID 784-1990-9999999-9"},
		{Method: "blur", Text: "784-1990-1234567-1"},
	}

	rec := Reconcile(s, cands, passes, DefaultOptions())
	assert.Equal(t, "Ali Hassan", rec.Details["name"])
	assert.Equal(t, "India", rec.Details["nationality"])
	assert.Equal(t, "15/03/1990", rec.Details["date_of_birth"])
	assert.Equal(t, "784-1990-1234567-1", rec.Details["id_number"])
	assert.Equal(t, "United Arab Emirates", rec.Fields["country"])
	assert.Equal(t, "", rec.Details["expiry_date"])
	assert.Empty(t, rec.Unverified)
}

func TestReconcile_UnverifiedNationality(t *testing.T) {
	t.Parallel()

	s, _ := model.SchemaFor(model.DocIDCard)
	cands := []model.FieldCandidate{
		{Field: "nationality", Value: "Oman", Source: "default"},
	}
	rec := Reconcile(s, cands, nil, DefaultOptions())
	assert.Equal(t, "Oman", rec.Details["nationality"])
	assert.Equal(t, []string{"nationality"}, rec.Unverified)
}

func TestReconcile_CustomDefault(t *testing.T) {
	t.Parallel()

	s, _ := model.SchemaFor(model.DocTitleDeed)
	opts := DefaultOptions()
	opts.Default = model.NotAvailable
	rec := Reconcile(s, []model.FieldCandidate{{Field: "plot_no", Value: "12", Source: "default"}}, nil, opts)
	assert.Equal(t, "12", rec.Fields["plot_no"])
	assert.Equal(t, model.NotAvailable, rec.Fields["community"])
}
