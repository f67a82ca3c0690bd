package posture

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/physiocare/dashboard/internal/platform/apperr"
	"github.com/physiocare/dashboard/internal/platform/db"
	"github.com/physiocare/dashboard/internal/platform/lifecycle"
	"github.com/physiocare/dashboard/internal/platform/query"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const postureCols = `id, no_postures, name_postures, COALESCE(user_type, ''), COALESCE(description, ''),
	image_urls, video_urls, created_by, is_deleted, deleted_at, created_at, updated_at`

func scanPosture(row pgx.Row) (*Posture, error) {
	var p Posture
	err := row.Scan(&p.ID, &p.NoPostures, &p.NamePostures, &p.UserType, &p.Description,
		&p.ImageURLs, &p.VideoURLs, &p.CreatedBy, &p.IsDeleted, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	if p.VideoURLs == nil {
		p.VideoURLs = []string{}
	}
	return &p, nil
}

func (r *repoPG) Create(ctx context.Context, p *Posture) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO posture (id, no_postures, name_postures, user_type, description, image_urls, video_urls,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, $10)`,
		p.ID, p.NoPostures, p.NamePostures, p.UserType, p.Description, p.ImageURLs, p.VideoURLs,
		p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	return apperr.FromStore(err, "posture", p.NoPostures)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Posture, error) {
	p, err := scanPosture(r.conn(ctx).QueryRow(ctx, `SELECT `+postureCols+` FROM posture WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, "posture", id.String())
	}
	return p, nil
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Posture, error) {
	p, err := scanPosture(r.conn(ctx).QueryRow(ctx, `SELECT `+postureCols+` FROM posture WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromStore(err, "posture", id.String())
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Posture) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE posture SET no_postures = $2, name_postures = $3, user_type = NULLIF($4, ''),
			description = NULLIF($5, ''), image_urls = $6, video_urls = $7, updated_at = $8
		WHERE id = $1`,
		p.ID, p.NoPostures, p.NamePostures, p.UserType, p.Description, p.ImageURLs, p.VideoURLs, p.UpdatedAt)
	if err != nil {
		return apperr.FromStore(err, "posture", p.NoPostures)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("posture", p.ID.String())
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, params query.Params) ([]*Posture, int, error) {
	q := query.Build(Entity, params)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("count postures: %w", err))
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(params.Limit, params.Offset())...)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("list postures: %w", err))
	}
	defer rows.Close()

	postures := []*Posture{}
	for rows.Next() {
		p, err := scanPosture(rows)
		if err != nil {
			return nil, 0, apperr.Internal(fmt.Errorf("scan posture: %w", err))
		}
		postures = append(postures, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return postures, total, nil
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	found, err := lifecycle.SoftDelete(ctx, r.conn(ctx), "posture", id, at)
	if err != nil {
		return apperr.Internal(err)
	}
	if !found {
		return apperr.NotFound("posture", id.String())
	}
	return nil
}

func (r *repoPG) Restore(ctx context.Context, id uuid.UUID, at time.Time) error {
	found, err := lifecycle.Restore(ctx, r.conn(ctx), "posture", id, at)
	if err != nil {
		return apperr.Internal(err)
	}
	if !found {
		return apperr.NotFound("posture", id.String())
	}
	return nil
}

func (r *repoPG) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	return lifecycle.PurgeBefore(ctx, r.conn(ctx), "posture", before)
}

func (r *repoPG) CountPurgeable(ctx context.Context, before time.Time) (int64, error) {
	return lifecycle.CountPurgeable(ctx, r.conn(ctx), "posture", before)
}
