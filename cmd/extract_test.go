package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docextract/internal/config"
	"github.com/sells-group/docextract/internal/engine"
	"github.com/sells-group/docextract/internal/model"
)

func TestMethodFromName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"scans/id.blur.txt", model.MethodBlur},
		{"scans/id.binary.txt", model.MethodBinary},
		{"scans/id.txt", model.MethodDefault},
		{"scans/id.v2.txt", model.MethodDefault},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, methodFromName(tt.path))
		})
	}
}

func TestReadPassFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "passport.adaptive.txt")
	require.NoError(t, os.WriteFile(p, []byte("PASSPORT"), 0o600))

	pass, err := readPassFile(p)
	require.NoError(t, err)
	assert.Equal(t, model.MethodAdaptive, pass.Method)
	assert.Equal(t, "PASSPORT", pass.Text)

	_, err = readPassFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestReadJSONFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"name":"Ali Hassan"}`), 0o600))

	var am model.AnswerMap
	require.NoError(t, readJSONFile(p, &am))
	assert.Equal(t, "Ali Hassan", am["name"])

	require.NoError(t, os.WriteFile(p, []byte(`{`), 0o600))
	assert.Error(t, readJSONFile(p, &am))
}

func TestBuildEngine_AppliesConfig(t *testing.T) {
	eng, tables, err := buildEngine(config.ExtractConfig{
		IdentifierPass: model.MethodBlur,
		Nationalities:  []string{"Oman"},
		MaxOwners:      3,
		NotAvailable:   "N/A",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, tables[model.DocTitleDeed].MaxOwners)

	rec, err := eng.Extract(engine.Request{
		DocType: model.DocPassport,
		Answers: model.AnswerMap{"nationality": "oman"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Oman", rec.Details["nationality"])
	assert.Equal(t, "N/A", rec.Details["place_of_birth"])
}

func TestBuildEngine_AliasFileMaxOwnersWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title_deed:\n  max_owners: 10\n"), 0o600))

	_, tables, err := buildEngine(config.ExtractConfig{AliasFile: path, MaxOwners: 3})
	require.NoError(t, err)
	assert.Equal(t, 10, tables[model.DocTitleDeed].MaxOwners)
	assert.Equal(t, 3, tables[model.DocCommercialLicense].MaxOwners)
}

func TestBuildEngine_BadAliasFile(t *testing.T) {
	_, _, err := buildEngine(config.ExtractConfig{AliasFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}
