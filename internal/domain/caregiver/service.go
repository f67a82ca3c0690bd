package caregiver

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/physiocare/dashboard/internal/platform/apperr"
	"github.com/physiocare/dashboard/internal/platform/db"
	"github.com/physiocare/dashboard/internal/platform/metrics"
)

// Service keeps the caregiver side and the patient side of every link
// consistent. All writes for one request run in a single transaction.
type Service struct {
	repo   Repository
	tx     db.TxRunner
	logger zerolog.Logger
}

func NewService(repo Repository, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		logger: logger.With().Str("component", "caregiver").Logger(),
	}
}

// Attach resolves the caregiver by explicit id, then by national ID, and
// creates one when neither matches. Scalar fields are overwritten with the
// payload and the relationship to req.PatientID is inserted or relabelled.
func (s *Service) Attach(ctx context.Context, req AttachRequest) (*AttachResult, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	var (
		id      uuid.UUID
		created bool
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		exists, err := s.repo.PatientExists(ctx, req.PatientID)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("patient", req.PatientID.String())
		}

		if req.CaregiverID != nil {
			c, err := s.repo.GetForUpdate(ctx, *req.CaregiverID)
			if err != nil {
				return err
			}
			req.fields(c)
			if err := s.repo.UpdateFields(ctx, c); err != nil {
				return err
			}
			id = c.ID
		} else {
			c := &Caregiver{}
			req.fields(c)
			created, err = s.repo.SaveByIDCard(ctx, c)
			if err != nil {
				return err
			}
			id = c.ID
		}

		return s.repo.UpsertRelationship(ctx, id, req.PatientID, req.Relationship)
	})
	if err != nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().
		Str("caregiver_id", id.String()).
		Str("patient_id", req.PatientID.String()).
		Bool("created", created).
		Msg("caregiver attached")
	return &AttachResult{Caregiver: c, Created: created}, nil
}

// Detach removes the link between the caregiver and the patient. A caregiver
// left without any patient is deleted. Repeating a detach is harmless.
func (s *Service) Detach(ctx context.Context, caregiverID, patientID uuid.UUID) (*DetachResult, error) {
	if patientID == uuid.Nil {
		return nil, apperr.Validation("userId", "userId is required")
	}

	res := &DetachResult{}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, caregiverID); err != nil {
			return err
		}
		if err := s.repo.RemoveRelationship(ctx, caregiverID, patientID); err != nil {
			return err
		}
		n, err := s.repo.CountRelationships(ctx, caregiverID)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if err := s.repo.Delete(ctx, caregiverID); err != nil {
			return err
		}
		res.CaregiverDeleted = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.CaregiverDeleted {
		metrics.RecordOrphanedCaregiverDeleted()
		s.logger.Info().
			Str("caregiver_id", caregiverID.String()).
			Str("patient_id", patientID.String()).
			Msg("caregiver deleted after last patient detached")
	}
	return res, nil
}

func (s *Service) List(ctx context.Context) ([]*Caregiver, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetByIDCard(ctx context.Context, idCard string) (*Caregiver, error) {
	return s.repo.GetByIDCard(ctx, idCard)
}

// ForPatient returns the patient's first caregiver in attach order.
func (s *Service) ForPatient(ctx context.Context, patientID uuid.UUID) (*Caregiver, error) {
	caregivers, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if len(caregivers) == 0 {
		return nil, apperr.NotFound("caregiver", patientID.String())
	}
	return caregivers[0], nil
}
