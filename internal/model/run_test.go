package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatusValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status RunStatus
		want   string
	}{
		{RunStatusQueued, "queued"},
		{RunStatusRecognizing, "recognizing"},
		{RunStatusExtracting, "extracting"},
		{RunStatusComplete, "complete"},
		{RunStatusFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.status))
		})
	}
}

func TestRun_JSON(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	run := Run{
		ID:      "run-1",
		DocType: DocTitleDeed,
		Source:  "deed.png",
		Mode:    ModeLines,
		Status:  RunStatusComplete,
		Result: &RunResult{
			Record:      json.RawMessage(`{"plot_no":"12"}`),
			Passes:      4,
			FieldsFound: 1,
			FieldsTotal: 16,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	data, err := json.Marshal(run)
	require.NoError(t, err)

	var got Run
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, DocTitleDeed, got.DocType)
	assert.Equal(t, 4, got.Result.Passes)
	assert.JSONEq(t, `{"plot_no":"12"}`, string(got.Result.Record))
}

func TestCountFilled(t *testing.T) {
	t.Parallel()

	s, ok := SchemaFor(DocIDCard)
	require.True(t, ok)
	r := NewRecord(s, "")
	r.Set("name", "Ali", GroupDetails)
	r.Set("date_of_birth", InvalidValue, GroupDetails)
	r.Set("country", NotAvailable, GroupTop)

	found, total := CountFilled(r, s)
	assert.Equal(t, 1, found)
	assert.Equal(t, 10, total)
}

func TestParseExtractionMode(t *testing.T) {
	t.Parallel()

	m, err := ParseExtractionMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeLines, m)

	m, err = ParseExtractionMode(" Answers ")
	require.NoError(t, err)
	assert.Equal(t, ModeAnswers, m)

	_, err = ParseExtractionMode("ocr")
	assert.Error(t, err)
}
