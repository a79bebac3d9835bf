package store

import "context"

// Store persists run records. Implementations are safe for concurrent use.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	// ListRuns returns up to limit runs, most recently started first. A
	// non-positive limit returns every run.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}
