package mission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/physiocare/dashboard/internal/platform/apperr"
	"github.com/physiocare/dashboard/internal/platform/db"
	"github.com/physiocare/dashboard/internal/platform/lifecycle"
	"github.com/physiocare/dashboard/internal/platform/metrics"
	"github.com/physiocare/dashboard/internal/platform/query"
)

// noAttempts bounds retries when two creates race for the same auto no.
const noAttempts = 3

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
		logger: logger.With().Str("component", "mission").Logger(),
		now:    time.Now,
	}
}

// Create inserts the mission with its submissions. A missing no becomes
// max(no)+1.
func (s *Service) Create(ctx context.Context, req CreateRequest, actor uuid.UUID) (*Mission, error) {
	m, err := req.Mission(s.now())
	if err != nil {
		return nil, err
	}
	if actor != uuid.Nil {
		m.UpdatedBy = &actor
	}

	auto := req.No == nil
	for attempt := 1; ; attempt++ {
		err = s.tx.InTx(ctx, func(ctx context.Context) error {
			if auto {
				n, err := s.repo.NextNo(ctx)
				if err != nil {
					return err
				}
				m.No = n
			}
			return s.repo.Create(ctx, m)
		})
		if err == nil || !auto || !apperr.IsConflict(err) || attempt == noAttempts {
			break
		}
		s.logger.Debug().Int("no", m.No).Int("attempt", attempt).Msg("mission no taken, retrying")
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Mission, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params query.Params) ([]*Mission, int, error) {
	return s.repo.List(ctx, params)
}

// Update applies the mission fields and every submissionUpdates entry in
// one transaction. Each entry must belong to the mission.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch, actor uuid.UUID) (*Mission, error) {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.apply(m); err != nil {
			return err
		}
		now := s.now()
		if actor != uuid.Nil {
			m.UpdatedBy = &actor
		}
		m.UpdatedAt = now
		if err := s.repo.Update(ctx, m); err != nil {
			return err
		}

		for _, sp := range patch.SubmissionUpdates {
			sub, err := s.repo.GetSubmission(ctx, sp.ID)
			if err != nil {
				return err
			}
			if sub.MissionID != id {
				return apperr.NotFound("submission", sp.ID.String())
			}
			if err := sp.apply(sub); err != nil {
				return err
			}
			sub.UpdatedAt = now
			if err := s.repo.UpdateSubmission(ctx, sub); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// SoftDelete marks the mission and all of its submissions deleted.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) (*Mission, error) {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.repo.SoftDelete(ctx, id, s.now())
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordLifecycle("mission", lifecycle.ActionSoftDelete)
	return s.repo.GetByID(ctx, id)
}

// Restore clears the deleted flag on the mission and its submissions.
func (s *Service) Restore(ctx context.Context, id uuid.UUID) (*Mission, error) {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.repo.Restore(ctx, id, s.now())
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordLifecycle("mission", lifecycle.ActionRestore)
	return s.repo.GetByID(ctx, id)
}

// Delete permanently removes the mission and every submission it owns.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	var removed int
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		removed = len(m.Submissions)
		return s.repo.HardDelete(ctx, id)
	})
	if err != nil {
		return err
	}
	metrics.RecordLifecycle("mission", lifecycle.ActionHardDelete)
	s.logger.Info().
		Str("mission_id", id.String()).
		Int("submissions", removed).
		Msg("mission deleted")
	return nil
}

func (s *Service) AddSubmission(ctx context.Context, missionID uuid.UUID, in SubmissionInput) (*Mission, error) {
	sub, err := in.Submission(missionID, s.now())
	if err != nil {
		return nil, err
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetForUpdate(ctx, missionID)
		if err != nil {
			return err
		}
		sub.IsDeleted = m.IsDeleted
		return s.repo.AddSubmission(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, missionID)
}

func (s *Service) RemoveSubmission(ctx context.Context, missionID, submissionID uuid.UUID) (*Mission, error) {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, missionID); err != nil {
			return err
		}
		return s.repo.DeleteSubmission(ctx, missionID, submissionID)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, missionID)
}

func (s *Service) ListSubmissions(ctx context.Context) ([]*Submission, error) {
	return s.repo.ListSubmissions(ctx)
}

func (s *Service) GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	return s.repo.GetSubmission(ctx, id)
}

func (s *Service) UpdateSubmission(ctx context.Context, id uuid.UUID, patch SubmissionPatch) (*Submission, error) {
	var updated *Submission
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		sub, err := s.repo.GetSubmission(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.apply(sub); err != nil {
			return err
		}
		sub.UpdatedAt = s.now()
		if err := s.repo.UpdateSubmission(ctx, sub); err != nil {
			return err
		}
		updated = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
