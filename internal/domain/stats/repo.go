package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/physiocare/dashboard/internal/platform/db"
)

// Repository reads patient aggregates. Soft-deleted patients never count.
type Repository interface {
	StatusCounts(ctx context.Context) (map[string]int, error)
	Totals(ctx context.Context) (total, physicalTherapy int, err error)
	// Months returns up to limit creation months, newest first.
	Months(ctx context.Context, therapyOnly bool, limit int) ([]MonthRow, error)
	// Ages groups patients with a birthday by gender, age at asOf and flag.
	Ages(ctx context.Context, asOf time.Time) ([]AgeRow, error)
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const live = `is_deleted IS NOT TRUE`

func (r *repoPG) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT user_status, COUNT(*) FROM patient WHERE `+live+` GROUP BY user_status`)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *repoPG) Totals(ctx context.Context) (int, int, error) {
	var total, therapy int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE physical_therapy)
		FROM patient WHERE `+live).Scan(&total, &therapy)
	if err != nil {
		return 0, 0, fmt.Errorf("patient totals: %w", err)
	}
	return total, therapy, nil
}

func (r *repoPG) Months(ctx context.Context, therapyOnly bool, limit int) ([]MonthRow, error) {
	where := live
	if therapyOnly {
		where += ` AND physical_therapy`
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT date_trunc('month', created_at AT TIME ZONE 'UTC') AS month, COUNT(*)
		FROM patient WHERE `+where+`
		GROUP BY month
		ORDER BY month DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("monthly counts: %w", err)
	}
	defer rows.Close()

	out := []MonthRow{}
	for rows.Next() {
		var m MonthRow
		if err := rows.Scan(&m.Month, &m.Count); err != nil {
			return nil, fmt.Errorf("scan monthly count: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repoPG) Ages(ctx context.Context, asOf time.Time) ([]AgeRow, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT gender, EXTRACT(YEAR FROM age($1::date, birthday))::int AS years, physical_therapy, COUNT(*)
		FROM patient
		WHERE `+live+` AND birthday IS NOT NULL
		GROUP BY gender, years, physical_therapy`, asOf)
	if err != nil {
		return nil, fmt.Errorf("age groups: %w", err)
	}
	defer rows.Close()

	out := []AgeRow{}
	for rows.Next() {
		var a AgeRow
		if err := rows.Scan(&a.Gender, &a.Age, &a.PhysicalTherapy, &a.Count); err != nil {
			return nil, fmt.Errorf("scan age group: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
