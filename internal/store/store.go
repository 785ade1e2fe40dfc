// Package store persists extraction runs.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docextract/internal/model"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = eris.New("store: run not found")

// Store defines the persistence interface for extraction runs.
type Store interface {
	CreateRun(ctx context.Context, docType model.DocumentType, source string, mode model.ExtractionMode) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	// FinishRun stores the result and the terminal status in one write.
	FinishRun(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter model.RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store selected by driver: "sqlite" (dsn is a file path)
// or "postgres" (dsn is a connection string).
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		if dsn == "" {
			dsn = "docextract.db"
		}
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unsupported driver %q", driver)
	}
}

const defaultListLimit = 50

func listLimit(f model.RunFilter) int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}
