package posture

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/physiocare/dashboard/internal/platform/query"
)

type Repository interface {
	Create(ctx context.Context, p *Posture) error
	GetByID(ctx context.Context, id uuid.UUID) (*Posture, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Posture, error)
	Update(ctx context.Context, p *Posture) error
	List(ctx context.Context, params query.Params) ([]*Posture, int, error)
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	Restore(ctx context.Context, id uuid.UUID, at time.Time) error
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
	CountPurgeable(ctx context.Context, before time.Time) (int64, error)
}

// Entity is the list configuration for /postures.
var Entity = query.MustValidate(query.Entity{
	Name:          "posture",
	Table:         "posture",
	Columns:       postureCols,
	SearchColumns: []string{"name_postures", "no_postures"},
	DeletedColumn: "is_deleted",
	Filter: &query.Filter{
		Param:  "userType",
		Column: "user_type",
		Values: UserTypes,
	},
	Sorts: map[query.SortKey]string{
		query.SortNewest:   "updated_at DESC, id",
		query.SortOldest:   "updated_at ASC, id",
		query.SortNameAsc:  "name_postures ASC, id",
		query.SortNameDesc: "name_postures DESC, id",
	},
	DefaultLimit: 30,
})
