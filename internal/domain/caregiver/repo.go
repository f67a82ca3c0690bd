package caregiver

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Caregiver, error)
	// GetForUpdate locks the caregiver row for the surrounding transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Caregiver, error)
	GetByIDCard(ctx context.Context, idCard string) (*Caregiver, error)
	// ListByPatient returns the patient's caregivers in attach order.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Caregiver, error)
	List(ctx context.Context) ([]*Caregiver, error)

	// SaveByIDCard inserts c, or updates the caregiver that already holds
	// c.IDCardNumber. c.ID is set to the stored row; created reports an insert.
	SaveByIDCard(ctx context.Context, c *Caregiver) (created bool, err error)
	UpdateFields(ctx context.Context, c *Caregiver) error
	Delete(ctx context.Context, id uuid.UUID) error

	UpsertRelationship(ctx context.Context, caregiverID, patientID uuid.UUID, label string) error
	RemoveRelationship(ctx context.Context, caregiverID, patientID uuid.UUID) error
	CountRelationships(ctx context.Context, caregiverID uuid.UUID) (int, error)

	PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error)

	// PurgeDeleted removes caregivers left without any relationship, for
	// example after their patients were purged. before is unused.
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
	CountPurgeable(ctx context.Context, before time.Time) (int64, error)
}
