package patient

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

// caregivers is read from the relationship table so both sides of the link
// always agree.
const patientCols = `id, COALESCE(id_patient, ''), username, id_card_number, COALESCE(password_hash, ''),
	COALESCE(email, ''), COALESCE(name, ''), COALESCE(surname, ''), gender, birthday,
	COALESCE(tel, ''), COALESCE(nationality, ''), COALESCE(address, ''), COALESCE(user_type, ''),
	COALESCE(sickness, ''), COALESCE(user_posts, ''), user_status, physical_therapy,
	ARRAY(SELECT r.caregiver_id FROM caregiver_relationship r WHERE r.patient_id = patient.id ORDER BY r.position),
	add_data_first, is_email_verified, created_by, updated_by,
	is_deleted, deleted_at, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.IDPatient, &p.Username, &p.IDCardNumber, &p.PasswordHash,
		&p.Email, &p.Name, &p.Surname, &p.Gender, &p.Birthday,
		&p.Tel, &p.Nationality, &p.Address, &p.UserType,
		&p.Sickness, &p.UserPosts, &p.UserStatus, &p.PhysicalTherapy,
		&p.Caregivers,
		&p.AddDataFirst, &p.IsEmailVerified, &p.CreatedBy, &p.UpdatedBy,
		&p.IsDeleted, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Caregivers == nil {
		p.Caregivers = []uuid.UUID{}
	}
	return &p, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (
			id, id_patient, username, id_card_number, password_hash,
			email, name, surname, gender, birthday,
			tel, nationality, address, user_type, sickness, user_posts,
			user_status, physical_therapy, add_data_first, is_email_verified,
			created_by, updated_by, created_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
			$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
			$21,$22,$23,$24
		)`,
		p.ID, nullable(p.IDPatient), p.Username, p.IDCardNumber, nullable(p.PasswordHash),
		nullable(p.Email), p.Name, p.Surname, p.Gender, p.Birthday,
		nullable(p.Tel), nullable(p.Nationality), nullable(p.Address), nullable(p.UserType),
		nullable(p.Sickness), nullable(p.UserPosts),
		p.UserStatus, p.PhysicalTherapy, p.AddDataFirst, p.IsEmailVerified,
		p.CreatedBy, p.UpdatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return apperr.FromStore(err, "patient", p.ID.String())
	}
	for _, h := range p.TherapyHistory {
		if err := r.AppendHistory(ctx, p.ID, h); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.get(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id)
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return r.get(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1 FOR UPDATE`, id)
}

func (r *repoPG) get(ctx context.Context, sql string, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, sql, id))
	if err != nil {
		return nil, apperr.FromStore(err, "patient", id.String())
	}
	if err := r.loadHistory(ctx, []*Patient{p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET
			id_patient=$2, username=$3, id_card_number=$4, password_hash=$5,
			email=$6, name=$7, surname=$8, gender=$9, birthday=$10,
			tel=$11, nationality=$12, address=$13, user_type=$14, sickness=$15, user_posts=$16,
			user_status=$17, physical_therapy=$18, add_data_first=$19, is_email_verified=$20,
			updated_by=$21, updated_at=$22
		WHERE id = $1`,
		p.ID, nullable(p.IDPatient), p.Username, p.IDCardNumber, nullable(p.PasswordHash),
		nullable(p.Email), p.Name, p.Surname, p.Gender, p.Birthday,
		nullable(p.Tel), nullable(p.Nationality), nullable(p.Address), nullable(p.UserType),
		nullable(p.Sickness), nullable(p.UserPosts),
		p.UserStatus, p.PhysicalTherapy, p.AddDataFirst, p.IsEmailVerified,
		p.UpdatedBy, p.UpdatedAt,
	)
	if err != nil {
		return apperr.FromStore(err, "patient", p.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient", p.ID.String())
	}
	return nil
}

func (r *repoPG) AppendHistory(ctx context.Context, id uuid.UUID, change TherapyChange) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO patient_therapy_history (patient_id, changed_at, value) VALUES ($1, $2, $3)`,
		id, change.ChangedAt, change.Value)
	if err != nil {
		return fmt.Errorf("append therapy history: %w", err)
	}
	return nil
}

// loadHistory fills TherapyHistory for every patient with one query.
func (r *repoPG) loadHistory(ctx context.Context, patients []*Patient) error {
	if len(patients) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Patient, len(patients))
	ids := make([]uuid.UUID, 0, len(patients))
	for _, p := range patients {
		p.TherapyHistory = []TherapyChange{}
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT patient_id, changed_at, value FROM patient_therapy_history
		WHERE patient_id = ANY($1)
		ORDER BY patient_id, changed_at, id`, ids)
	if err != nil {
		return fmt.Errorf("load therapy history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id     uuid.UUID
			change TherapyChange
		)
		if err := rows.Scan(&id, &change.ChangedAt, &change.Value); err != nil {
			return fmt.Errorf("scan therapy history: %w", err)
		}
		if p, ok := byID[id]; ok {
			p.TherapyHistory = append(p.TherapyHistory, change)
		}
	}
	return rows.Err()
}

func (r *repoPG) List(ctx context.Context, params query.Params) ([]*Patient, int, error) {
	q := query.Build(Entity, params)

	var total int
	if err := r.conn(ctx).QueryRow(ctx, q.CountSQL(), q.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("count patients: %w", err))
	}

	patients, err := r.fetch(ctx, q, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func (r *repoPG) ListAll(ctx context.Context, params query.Params, max int) ([]*Patient, error) {
	return r.fetch(ctx, query.Build(Entity, params), max, 0)
}

func (r *repoPG) fetch(ctx context.Context, q *query.Query, limit, offset int) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, q.DataSQL(), q.DataArgs(limit, offset)...)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list patients: %w", err))
	}
	defer rows.Close()

	patients := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("scan patient: %w", err))
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := r.loadHistory(ctx, patients); err != nil {
		return nil, apperr.Internal(err)
	}
	return patients, nil
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	found, err := lifecycle.SoftDelete(ctx, r.conn(ctx), "patient", id, at)
	if err != nil {
		return apperr.Internal(err)
	}
	if !found {
		return apperr.NotFound("patient", id.String())
	}
	return nil
}

func (r *repoPG) Restore(ctx context.Context, id uuid.UUID, at time.Time) error {
	found, err := lifecycle.Restore(ctx, r.conn(ctx), "patient", id, at)
	if err != nil {
		return apperr.Internal(err)
	}
	if !found {
		return apperr.NotFound("patient", id.String())
	}
	return nil
}

// PurgeDeleted removes expired soft-deleted patients. History and
// relationship rows go with them through ON DELETE CASCADE.
func (r *repoPG) PurgeDeleted(ctx context.Context, before time.Time) (int64, error) {
	return lifecycle.PurgeBefore(ctx, r.conn(ctx), "patient", before)
}

func (r *repoPG) CountPurgeable(ctx context.Context, before time.Time) (int64, error) {
	return lifecycle.CountPurgeable(ctx, r.conn(ctx), "patient", before)
}
