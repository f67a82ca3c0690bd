package caregiver

import (
	"context"
	"fmt"
	"time"

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

const caregiverCols = `id, COALESCE(id_card_number, ''), name, surname, COALESCE(tel, ''), created_at, updated_at`

func scanCaregiver(row pgx.Row) (*Caregiver, error) {
	var c Caregiver
	if err := row.Scan(&c.ID, &c.IDCardNumber, &c.Name, &c.Surname, &c.Tel, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Relationships = []Relationship{}
	return &c, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *repoPG) getOne(ctx context.Context, sql string, arg interface{}, key string) (*Caregiver, error) {
	c, err := scanCaregiver(r.conn(ctx).QueryRow(ctx, sql, arg))
	if err != nil {
		return nil, apperr.FromStore(err, "caregiver", key)
	}
	if err := r.loadRelationships(ctx, []*Caregiver{c}); err != nil {
		return nil, apperr.Internal(err)
	}
	return c, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Caregiver, error) {
	return r.getOne(ctx, `SELECT `+caregiverCols+` FROM caregiver WHERE id = $1`, id, id.String())
}

func (r *repoPG) GetForUpdate(ctx context.Context, id uuid.UUID) (*Caregiver, error) {
	return r.getOne(ctx, `SELECT `+caregiverCols+` FROM caregiver WHERE id = $1 FOR UPDATE`, id, id.String())
}

func (r *repoPG) GetByIDCard(ctx context.Context, idCard string) (*Caregiver, error) {
	return r.getOne(ctx, `SELECT `+caregiverCols+` FROM caregiver WHERE id_card_number = $1`, idCard, idCard)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Caregiver, error) {
	return r.list(ctx, `
		SELECT c.id, COALESCE(c.id_card_number, ''), c.name, c.surname, COALESCE(c.tel, ''), c.created_at, c.updated_at
		FROM caregiver c
		JOIN caregiver_relationship rel ON rel.caregiver_id = c.id
		WHERE rel.patient_id = $1
		ORDER BY rel.position`, patientID)
}

func (r *repoPG) List(ctx context.Context) ([]*Caregiver, error) {
	return r.list(ctx, `SELECT `+caregiverCols+` FROM caregiver ORDER BY created_at DESC, id`)
}

func (r *repoPG) list(ctx context.Context, sql string, args ...interface{}) ([]*Caregiver, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("list caregivers: %w", err))
	}
	defer rows.Close()

	caregivers := []*Caregiver{}
	for rows.Next() {
		c, err := scanCaregiver(rows)
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("scan caregiver: %w", err))
		}
		caregivers = append(caregivers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	if err := r.loadRelationships(ctx, caregivers); err != nil {
		return nil, apperr.Internal(err)
	}
	return caregivers, nil
}

func (r *repoPG) loadRelationships(ctx context.Context, caregivers []*Caregiver) error {
	if len(caregivers) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Caregiver, len(caregivers))
	ids := make([]uuid.UUID, 0, len(caregivers))
	for _, c := range caregivers {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT caregiver_id, patient_id, COALESCE(relationship, '')
		FROM caregiver_relationship
		WHERE caregiver_id = ANY($1)
		ORDER BY position`, ids)
	if err != nil {
		return fmt.Errorf("load relationships: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			caregiverID uuid.UUID
			rel         Relationship
		)
		if err := rows.Scan(&caregiverID, &rel.User, &rel.Relationship); err != nil {
			return fmt.Errorf("scan relationship: %w", err)
		}
		if c, ok := byID[caregiverID]; ok {
			c.Relationships = append(c.Relationships, rel)
		}
	}
	return rows.Err()
}

// SaveByIDCard relies on the unique national ID so two concurrent attaches
// for the same person converge on one row. xmax = 0 only for fresh inserts.
func (r *repoPG) SaveByIDCard(ctx context.Context, c *Caregiver) (bool, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	// Only imported legacy caregivers arrive without a national ID. They carry
	// a fixed id, so a repeated import hits the primary key instead.
	if c.IDCardNumber == "" {
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO caregiver (id, id_card_number, name, surname, tel, created_at, updated_at)
			VALUES ($1, NULL, $2, $3, $4, $5, $5)`,
			c.ID, c.Name, c.Surname, nullable(c.Tel), now)
		if err != nil {
			return false, apperr.FromStore(err, "caregiver", c.ID.String())
		}
		return true, nil
	}

	var (
		id       uuid.UUID
		inserted bool
	)
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO caregiver (id, id_card_number, name, surname, tel, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id_card_number) DO UPDATE SET
			name = EXCLUDED.name,
			surname = EXCLUDED.surname,
			tel = EXCLUDED.tel,
			updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0)`,
		c.ID, c.IDCardNumber, c.Name, c.Surname, nullable(c.Tel), now,
	).Scan(&id, &inserted)
	if err != nil {
		return false, apperr.FromStore(err, "caregiver", c.IDCardNumber)
	}
	c.ID = id
	return inserted, nil
}

func (r *repoPG) UpdateFields(ctx context.Context, c *Caregiver) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE caregiver SET id_card_number = $2, name = $3, surname = $4, tel = $5, updated_at = NOW()
		WHERE id = $1`,
		c.ID, nullable(c.IDCardNumber), c.Name, c.Surname, nullable(c.Tel))
	if err != nil {
		return apperr.FromStore(err, "caregiver", c.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("caregiver", c.ID.String())
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM caregiver WHERE id = $1`, id)
	if err != nil {
		return apperr.Internal(fmt.Errorf("delete caregiver: %w", err))
	}
	return nil
}

func (r *repoPG) UpsertRelationship(ctx context.Context, caregiverID, patientID uuid.UUID, label string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO caregiver_relationship (caregiver_id, patient_id, relationship)
		VALUES ($1, $2, $3)
		ON CONFLICT (caregiver_id, patient_id) DO UPDATE SET relationship = EXCLUDED.relationship`,
		caregiverID, patientID, nullable(label))
	if err != nil {
		return apperr.FromStore(err, "caregiver relationship", caregiverID.String())
	}
	return nil
}

func (r *repoPG) RemoveRelationship(ctx context.Context, caregiverID, patientID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM caregiver_relationship WHERE caregiver_id = $1 AND patient_id = $2`,
		caregiverID, patientID)
	if err != nil {
		return apperr.Internal(fmt.Errorf("remove relationship: %w", err))
	}
	return nil
}

func (r *repoPG) CountRelationships(ctx context.Context, caregiverID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM caregiver_relationship WHERE caregiver_id = $1`, caregiverID).Scan(&n)
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("count relationships: %w", err))
	}
	return n, nil
}

func (r *repoPG) PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient WHERE id = $1)`, patientID).Scan(&exists)
	if err != nil {
		return false, apperr.Internal(fmt.Errorf("check patient: %w", err))
	}
	return exists, nil
}

const orphanWhere = `NOT EXISTS (SELECT 1 FROM caregiver_relationship rel WHERE rel.caregiver_id = caregiver.id)`

func (r *repoPG) PurgeDeleted(ctx context.Context, _ time.Time) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM caregiver WHERE `+orphanWhere)
	if err != nil {
		return 0, fmt.Errorf("purge orphaned caregivers: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *repoPG) CountPurgeable(ctx context.Context, _ time.Time) (int64, error) {
	var n int64
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM caregiver WHERE `+orphanWhere).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orphaned caregivers: %w", err)
	}
	return n, nil
}
