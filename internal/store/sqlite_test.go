package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/docextract/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLite_RunLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, model.DocIDCard, "card.png", model.ModeLines)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusRecognizing))
	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusRecognizing, got.Status)
	assert.Equal(t, model.DocIDCard, got.DocType)
	assert.Equal(t, "card.png", got.Source)
	assert.Equal(t, model.ModeLines, got.Mode)
	assert.Nil(t, got.Result)

	result := &model.RunResult{
		Record:           json.RawMessage(`{"country":"United Arab Emirates"}`),
		Passes:           4,
		FieldsFound:      6,
		FieldsTotal:      10,
		ValidationStatus: model.StatusConsistent,
	}
	require.NoError(t, s.FinishRun(ctx, run.ID, model.RunStatusComplete, result))

	got, err = s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 4, got.Result.Passes)
	assert.JSONEq(t, `{"country":"United Arab Emirates"}`, string(got.Result.Record))
}

func TestSQLite_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.GetRun(ctx, "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrRunNotFound))

	err = s.UpdateRunStatus(ctx, "missing", model.RunStatusFailed)
	assert.True(t, eris.Is(err, ErrRunNotFound))

	err = s.FinishRun(ctx, "missing", model.RunStatusFailed, &model.RunResult{})
	assert.True(t, eris.Is(err, ErrRunNotFound))
}

func TestSQLite_ListRuns(t *testing.T) {
	t.Parallel()
	s := newTestSQLite(t)
	ctx := context.Background()

	a, err := s.CreateRun(ctx, model.DocIDCard, "a.png", model.ModeLines)
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, model.DocTitleDeed, "b.pdf", model.ModeLines)
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, model.DocIDCard, "c.png", model.ModeAnswers)
	require.NoError(t, err)
	require.NoError(t, s.UpdateRunStatus(ctx, a.ID, model.RunStatusFailed))

	all, err := s.ListRuns(ctx, model.RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	cards, err := s.ListRuns(ctx, model.RunFilter{DocType: model.DocIDCard})
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	failed, err := s.ListRuns(ctx, model.RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, a.ID, failed[0].ID)

	page, err := s.ListRuns(ctx, model.RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := s.ListRuns(ctx, model.RunFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "open.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), "mysql", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}
