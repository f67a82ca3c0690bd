package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/physiocare/dashboard/internal/platform/apperr"
	"github.com/physiocare/dashboard/internal/platform/auth"
	"github.com/physiocare/dashboard/internal/platform/db"
	"github.com/physiocare/dashboard/internal/platform/lifecycle"
	"github.com/physiocare/dashboard/internal/platform/metrics"
	"github.com/physiocare/dashboard/internal/platform/query"
)

// MaxExportRows caps a single spreadsheet export.
const MaxExportRows = 5000

type Service struct {
	repo   Repository
	tx     db.TxRunner
	logger zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		tx:     tx,
		logger: logger.With().Str("component", "patient").Logger(),
		now:    time.Now,
	}
}

func (s *Service) Create(ctx context.Context, req CreateRequest, actor uuid.UUID) (*Patient, error) {
	p, err := req.Patient(s.now())
	if err != nil {
		return nil, err
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		p.PasswordHash = hash
	}
	if actor != uuid.Nil {
		p.CreatedBy = &actor
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params query.Params) ([]*Patient, int, error) {
	return s.repo.List(ctx, params)
}

// Update applies a partial update. A userStatus change re-derives
// physicalTherapy and appends one history entry when the flag flips.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch, actor uuid.UUID) (*Patient, error) {
	var (
		updated *Patient
		from    string
		change  *TherapyChange
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.apply(p); err != nil {
			return err
		}
		if patch.Password != nil && *patch.Password != "" {
			hash, err := auth.HashPassword(*patch.Password)
			if err != nil {
				return apperr.Internal(err)
			}
			p.PasswordHash = hash
		}

		now := s.now()
		from = p.UserStatus
		if patch.UserStatus != nil {
			change, err = p.SetStatus(*patch.UserStatus, now)
			if err != nil {
				return err
			}
		}
		if actor != uuid.Nil {
			p.UpdatedBy = &actor
		}
		p.UpdatedAt = now

		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		if change != nil {
			if err := s.repo.AppendHistory(ctx, p.ID, *change); err != nil {
				return err
			}
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if change != nil {
		metrics.RecordTreatmentStatusChange(from, updated.UserStatus)
		s.logger.Info().
			Str("patient_id", id.String()).
			Str("from", from).
			Str("to", updated.UserStatus).
			Bool("physical_therapy", updated.PhysicalTherapy).
			Msg("treatment status changed")
	}
	return updated, nil
}

// Delete soft-deletes the patient and returns the updated record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*Patient, error) {
	if err := s.repo.SoftDelete(ctx, id, s.now()); err != nil {
		return nil, err
	}
	metrics.RecordLifecycle("patient", lifecycle.ActionSoftDelete)
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Restore(ctx context.Context, id uuid.UUID) (*Patient, error) {
	if err := s.repo.Restore(ctx, id, s.now()); err != nil {
		return nil, err
	}
	metrics.RecordLifecycle("patient", lifecycle.ActionRestore)
	return s.repo.GetByID(ctx, id)
}

// Export renders every patient matching params as an xlsx workbook.
func (s *Service) Export(ctx context.Context, params query.Params) ([]byte, error) {
	patients, err := s.repo.ListAll(ctx, params, MaxExportRows)
	if err != nil {
		return nil, err
	}
	data, err := WriteXLSX(patients)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return data, nil
}
