/*
Package store persists finished runs for audit and for the API.

The engine itself has no persistence guarantees beyond "recompute from
full input each run"; the store only keeps what a run produced, never
anything a later run would consume.
*/
package store

import (
	"context"
	"errors"
	"time"

	"github.com/warp/consortium-engine/engine"
)

// ErrRunNotFound is returned when no run matches the requested id, or
// when the store holds no runs at all.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted pipeline execution.
type Run struct {
	ID        string
	CreatedAt time.Time
	Result    *engine.Result
}

// RunMeta is the listing view of a run.
type RunMeta struct {
	ID          string
	CreatedAt   time.Time
	PeriodStart string
	PeriodEnd   string
	TeamMembers string
	TeamScore   string
}

// Store persists runs. Implementations: memory (tests, serve-without-db)
// and sqlite.
type Store interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	LatestRun(ctx context.Context) (*Run, error)
	ListRuns(ctx context.Context) ([]RunMeta, error)
	Close() error
}

// MetaOf derives the listing view from a run.
func MetaOf(run *Run) RunMeta {
	return RunMeta{
		ID:          run.ID,
		CreatedAt:   run.CreatedAt,
		PeriodStart: run.Result.Summary.Period.Start.String(),
		PeriodEnd:   run.Result.Summary.Period.End.String(),
		TeamMembers: run.Result.Team.Members.Key(),
		TeamScore:   run.Result.Team.Score.String(),
	}
}
