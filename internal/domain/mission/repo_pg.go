package mission

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

const missionCols = `id, no, name, is_completed, mission_type, is_evaluate, updated_by,
	is_deleted, deleted_at, created_at, updated_at`

const submissionCols = `id, mission_id, name, image_url, video_url, evaluate, is_deleted, created_at, updated_at`

func scanMission(row pgx.Row) (*Mission, error) {
	var m Mission
	err := row.Scan(&m.ID, &m.No, &m.Name, &m.IsCompleted, &m.MissionType, &m.IsEvaluate, &m.UpdatedBy,
		&m.IsDeleted, &m.DeletedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Submissions = []*Submission{}
	return &m, nil
}

func scanSubmission(row pgx.Row) (*Submission, error) {
	var s Submission
	err := row.Scan(&s.ID, &s.MissionID, &s.Name, &s.ImageURL, &s.VideoURL, &s.Evaluate, &s.IsDeleted,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repoPG) NextNo(ctx context.Context) (int, error) {
	var n int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COALESCE(MAX(no), 0) + 1 FROM mission`).Scan(&n); err != nil {
		return 0, apperr.Internal(fmt.Errorf("next mission no: %w", err))
	}
	return n, nil
}

func (r *repoPG) Create(ctx context.Context, m *Mission) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO mission (id, no, name, is_completed, mission_type, is_evaluate, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.No, m.Name, m.IsCompleted, m.MissionType, m.IsEvaluate, m.UpdatedBy, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return apperr.FromStore(err, "mission", fmt.Sprint(m.No))
	}
	for _, s := range m.Submissions {
		if err := r.AddSubmission(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Mission, error) {
	return r.get(ctx, `SELECT `+missionCols+` FROM mission WHERE id = $1`, id)
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Mission, error) {
	return r.get(ctx, `SELECT `+missionCols+` FROM mission WHERE id = $1 FOR UPDATE`, id)
}

func (r *repoPG) get(ctx context.Context, sql string, id uuid.UUID) (*Mission, error) {
	m, err := scanMission(r.conn(ctx).QueryRow(ctx, sql, id))
	if err != nil {
		return nil, apperr.FromStore(err, "mission", id.String())
	}
	if err := r.loadSubmissions(ctx, []*Mission{m}); err != nil {
		return nil, apperr.Internal(err)
	}
	return m, nil
}

func (r *repoPG) Update(ctx context.Context, m *Mission) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE mission SET no = $2, name = $3, is_completed = $4, mission_type = $5, is_evaluate = $6,
			updated_by = $7, updated_at = $8
		WHERE id = $1`,
		m.ID, m.No, m.Name, m.IsCompleted, m.MissionType, m.IsEvaluate, m.UpdatedBy, m.UpdatedAt)
	if err != nil {
		return apperr.FromStore(err, "mission", m.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("mission", m.ID.String())
	}
	return nil
}

// List pages missions in the entity's order, including the computed
// submission-count order, then attaches each page mission's submissions.
func (r *repoPG) List(ctx context.Context, params query.Params) ([]*Mission, int, error) {
	q := query.Build(Entity, params)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("count missions: %w", err))
	}

	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(params.Limit, params.Offset())...)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("list missions: %w", err))
	}
	defer rows.Close()

	missions := []*Mission{}
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, 0, apperr.Internal(fmt.Errorf("scan mission: %w", err))
		}
		missions = append(missions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Internal(err)
	}
	if err := r.loadSubmissions(ctx, missions); err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return missions, total, nil
}

// loadSubmissions fills Submissions in place, so missions keep their order.
func (r *repoPG) loadSubmissions(ctx context.Context, missions []*Mission) error {
	if len(missions) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(missions))
	for _, m := range missions {
		ids = append(ids, m.ID)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+submissionCols+` FROM submission WHERE mission_id = ANY($1) ORDER BY position`, ids)
	if err != nil {
		return fmt.Errorf("load submissions: %w", err)
	}
	defer rows.Close()

	var subs []*Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	attachSubmissions(missions, subs)
	return nil
}

// attachSubmissions hands each submission to its mission in place. The order
// of missions is left as the page query produced it.
func attachSubmissions(missions []*Mission, subs []*Submission) {
	byID := make(map[uuid.UUID]*Mission, len(missions))
	for _, m := range missions {
		byID[m.ID] = m
	}
	for _, s := range subs {
		if m, ok := byID[s.MissionID]; ok {
			m.Submissions = append(m.Submissions, s)
		}
	}
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	found, err := lifecycle.SoftDelete(ctx, r.conn(ctx), "mission", id, at)
	if err != nil {
		return apperr.Internal(err)
	}
	if !found {
		return apperr.NotFound("mission", id.String())
	}
	return r.markSubmissions(ctx, id, true, at)
}

func (r *repoPG) Restore(ctx context.Context, id uuid.UUID, at time.Time) error {
	found, err := lifecycle.Restore(ctx, r.conn(ctx), "mission", id, at)
	if err != nil {
		return apperr.Internal(err)
	}
	if !found {
		return apperr.NotFound("mission", id.String())
	}
	return r.markSubmissions(ctx, id, false, at)
}

func (r *repoPG) markSubmissions(ctx context.Context, missionID uuid.UUID, deleted bool, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE submission SET is_deleted = $2, updated_at = $3 WHERE mission_id = $1`,
		missionID, deleted, at)
	if err != nil {
		return apperr.Internal(fmt.Errorf("mark submissions: %w", err))
	}
	return nil
}

func (r *repoPG) HardDelete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM submission WHERE mission_id = $1`, id); err != nil {
		return apperr.Internal(fmt.Errorf("delete submissions: %w", err))
	}
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM mission WHERE id = $1`, id)
	if err != nil {
		return apperr.Internal(fmt.Errorf("delete mission: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("mission", id.String())
	}
	return nil
}

// PurgeDeleted must run inside a transaction: owned submissions go first.
func (r *repoPG) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	_, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM submission WHERE mission_id IN (
			SELECT id FROM mission WHERE is_deleted AND deleted_at IS NOT NULL AND deleted_at < $1
		)`, before)
	if err != nil {
		return 0, fmt.Errorf("purge mission submissions: %w", err)
	}
	return lifecycle.PurgeBefore(ctx, r.conn(ctx), "mission", before)
}

func (r *repoPG) CountPurgeable(ctx context.Context, before time.Time) (int64, error) {
	return lifecycle.CountPurgeable(ctx, r.conn(ctx), "mission", before)
}

func (r *repoPG) AddSubmission(ctx context.Context, s *Submission) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO submission (id, mission_id, name, image_url, video_url, evaluate, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.MissionID, s.Name, s.ImageURL, s.VideoURL, s.Evaluate, s.IsDeleted, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return apperr.FromStore(err, "submission", s.ID.String())
	}
	return nil
}

func (r *repoPG) GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	s, err := scanSubmission(r.conn(ctx).QueryRow(ctx, `SELECT `+submissionCols+` FROM submission WHERE id = $1`, id))
	if err != nil {
		return nil, apperr.FromStore(err, "submission", id.String())
	}
	return s, nil
}

func (r *repoPG) ListSubmissions(ctx context.Context) ([]*Submission, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+submissionCols+` FROM submission ORDER BY created_at DESC, position`)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list submissions: %w", err))
	}
	defer rows.Close()

	subs := []*Submission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("scan submission: %w", err))
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return subs, nil
}

func (r *repoPG) UpdateSubmission(ctx context.Context, s *Submission) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE submission SET name = $2, image_url = $3, video_url = $4, evaluate = $5, updated_at = $6
		WHERE id = $1`,
		s.ID, s.Name, s.ImageURL, s.VideoURL, s.Evaluate, s.UpdatedAt)
	if err != nil {
		return apperr.FromStore(err, "submission", s.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("submission", s.ID.String())
	}
	return nil
}

func (r *repoPG) DeleteSubmission(ctx context.Context, missionID, submissionID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM submission WHERE id = $1 AND mission_id = $2`, submissionID, missionID)
	if err != nil {
		return apperr.Internal(fmt.Errorf("delete submission: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("submission", submissionID.String())
	}
	return nil
}
