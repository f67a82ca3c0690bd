package doctor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/physiocare/dashboard/internal/platform/query"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	List(ctx context.Context, params query.Params) ([]*Doctor, int, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, id uuid.UUID, at time.Time) error
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
	CountPurgeable(ctx context.Context, before time.Time) (int64, error)
}

// Entity is the list configuration for /MPersonnel.
var Entity = query.MustValidate(query.Entity{
	Name:          "doctor",
	Table:         "doctor",
	Columns:       doctorCols,
	SearchColumns: []string{"name", "surname"},
	DeletedColumn: "is_deleted",
	Filter: &query.Filter{
		Param:  "nametitle",
		Column: "nametitle",
		Values: Titles,
	},
	Sorts: map[query.SortKey]string{
		query.SortNewest:   "updated_at DESC, id",
		query.SortOldest:   "updated_at ASC, id",
		query.SortNameAsc:  "name ASC, id",
		query.SortNameDesc: "name DESC, id",
	},
	DefaultLimit: 10,
})
