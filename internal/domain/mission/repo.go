package mission

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/physiocare/dashboard/internal/platform/query"
)

type Repository interface {
	// NextNo returns max(no)+1 over every mission, deleted or not.
	NextNo(ctx context.Context) (int, error)
	// Create inserts the mission and its submissions.
	Create(ctx context.Context, m *Mission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Mission, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Mission, error)
	Update(ctx context.Context, m *Mission) error
	List(ctx context.Context, params query.Params) ([]*Mission, int, error)

	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, id uuid.UUID, at time.Time) error
	// HardDelete removes the mission's submissions and then the mission.
	HardDelete(ctx context.Context, id uuid.UUID) error
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
	CountPurgeable(ctx context.Context, before time.Time) (int64, error)

	AddSubmission(ctx context.Context, s *Submission) error
	GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error)
	ListSubmissions(ctx context.Context) ([]*Submission, error)
	UpdateSubmission(ctx context.Context, s *Submission) error
	// DeleteSubmission removes the submission only when missionID owns it.
	DeleteSubmission(ctx context.Context, missionID, submissionID uuid.UUID) error
}

const submissionCount = `(SELECT COUNT(*) FROM submission s WHERE s.mission_id = mission.id)`

// Entity is the list configuration for /missions.
var Entity = query.MustValidate(query.Entity{
	Name:                "mission",
	Table:               "mission",
	Columns:             missionCols,
	SearchColumns:       []string{"name"},
	NumericSearchColumn: "no",
	DeletedColumn:       "is_deleted",
	Filter: &query.Filter{
		Param:  "missionType",
		Column: "mission_type",
		Values: Types,
	},
	Sorts: map[query.SortKey]string{
		query.SortNewest:          "updated_at DESC, id",
		query.SortOldest:          "updated_at ASC, id",
		query.SortNameAsc:         "name ASC, id",
		query.SortNameDesc:        "name DESC, id",
		query.SortSubmissionsDesc: submissionCount + " DESC, no ASC",
		query.SortSubmissionsAsc:  submissionCount + " ASC, no ASC",
	},
	DefaultLimit: 30,
})
