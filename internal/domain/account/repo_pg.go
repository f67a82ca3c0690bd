package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/physiocare/dashboard/internal/platform/apperr"
	"github.com/physiocare/dashboard/internal/platform/db"
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

const userCols = `id, username, COALESCE(name, ''), COALESCE(surname, ''), COALESCE(email, ''),
	password_hash, role, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Surname, &u.Email,
		&u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO app_user (id, username, name, surname, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9)`,
		u.ID, u.Username, u.Name, u.Surname, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
	return apperr.FromStore(err, "user", u.Username)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, "user", id.String())
	}
	return u, nil
}

func (r *repoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM app_user WHERE username = $1`, username))
	if err != nil {
		return nil, apperr.FromStore(err, "user", username)
	}
	return u, nil
}

// Count locks the table so two concurrent first registrations cannot both
// observe zero accounts. It must run inside a transaction.
func (r *repoPG) Count(ctx context.Context) (int, error) {
	q := r.conn(ctx)
	if _, err := q.Exec(ctx, `LOCK TABLE app_user IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return 0, apperr.FromStore(err, "user", "")
	}
	var n int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM app_user`).Scan(&n); err != nil {
		return 0, apperr.FromStore(err, "user", "")
	}
	return n, nil
}
