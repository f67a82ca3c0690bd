package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/physiocare/dashboard/internal/platform/query"
)

type Repository interface {
	// Create inserts the patient and its initial history entries.
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// GetForUpdate locks the row for the surrounding transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	AppendHistory(ctx context.Context, id uuid.UUID, change TherapyChange) error
	List(ctx context.Context, params query.Params) ([]*Patient, int, error)
	// ListAll returns every match of params up to max rows, ignoring the page.
	ListAll(ctx context.Context, params query.Params, max int) ([]*Patient, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, id uuid.UUID, at time.Time) error
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
	CountPurgeable(ctx context.Context, before time.Time) (int64, error)
}

// Entity is the list configuration for /allusers.
var Entity = query.MustValidate(query.Entity{
	Name:          "patient",
	Table:         "patient",
	Columns:       patientCols,
	SearchColumns: []string{"username", "name", "surname"},
	DeletedColumn: "is_deleted",
	Filter: &query.Filter{
		Param:  "userStatus",
		Column: "user_status",
		Values: Statuses,
	},
	Sorts: map[query.SortKey]string{
		query.SortNewest:   "created_at DESC, id",
		query.SortOldest:   "created_at ASC, id",
		query.SortNameAsc:  "name ASC, id",
		query.SortNameDesc: "name DESC, id",
	},
	DefaultLimit: 20,
})
