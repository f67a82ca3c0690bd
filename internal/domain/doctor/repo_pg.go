package doctor

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

const doctorCols = `id, username, COALESCE(nametitle, ''), name, COALESCE(surname, ''), COALESCE(tel, ''),
	COALESCE(email, ''), created_by, is_deleted, deleted_at, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Username, &d.NameTitle, &d.Name, &d.Surname, &d.Tel,
		&d.Email, &d.CreatedBy, &d.IsDeleted, &d.DeletedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor (id, username, nametitle, name, surname, tel, email, created_by, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9, $10)`,
		d.ID, d.Username, d.NameTitle, d.Name, d.Surname, d.Tel, d.Email, d.CreatedBy, d.CreatedAt, d.UpdatedAt)
	return apperr.FromStore(err, "doctor", d.Username)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, "doctor", id.String())
	}
	return d, nil
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx, `SELECT `+doctorCols+` FROM doctor WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, apperr.FromStore(err, "doctor", id.String())
	}
	return d, nil
}

func (r *repoPG) Update(ctx context.Context, d *Doctor) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor SET username = $2, nametitle = NULLIF($3, ''), name = $4, surname = NULLIF($5, ''),
			tel = NULLIF($6, ''), email = NULLIF($7, ''), updated_at = $8
		WHERE id = $1`,
		d.ID, d.Username, d.NameTitle, d.Name, d.Surname, d.Tel, d.Email, d.UpdatedAt)
	if err != nil {
		return apperr.FromStore(err, "doctor", d.Username)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("doctor", d.ID.String())
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, params query.Params) ([]*Doctor, int, error) {
	q := query.Build(Entity, params)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("count doctors: %w", err))
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(params.Limit, params.Offset())...)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("list doctors: %w", err))
	}
	defer rows.Close()

	doctors := []*Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, apperr.Internal(fmt.Errorf("scan doctor: %w", err))
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return doctors, total, nil
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	found, err := lifecycle.SoftDelete(ctx, r.conn(ctx), "doctor", id, at)
	if err != nil {
		return apperr.Internal(err)
	}
	if !found {
		return apperr.NotFound("doctor", id.String())
	}
	return nil
}

func (r *repoPG) Restore(ctx context.Context, id uuid.UUID, at time.Time) error {
	found, err := lifecycle.Restore(ctx, r.conn(ctx), "doctor", id, at)
	if err != nil {
		return apperr.Internal(err)
	}
	if !found {
		return apperr.NotFound("doctor", id.String())
	}
	return nil
}

func (r *repoPG) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	return lifecycle.PurgeBefore(ctx, r.conn(ctx), "doctor", before)
}

func (r *repoPG) CountPurgeable(ctx context.Context, before time.Time) (int64, error) {
	return lifecycle.CountPurgeable(ctx, r.conn(ctx), "doctor", before)
}
