package doctor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/physiocare/dashboard/internal/platform/db"
	"github.com/physiocare/dashboard/internal/platform/lifecycle"
	"github.com/physiocare/dashboard/internal/platform/metrics"
	"github.com/physiocare/dashboard/internal/platform/query"
)

type Service struct {
	repo Repository
	tx   db.TxRunner
	now  func() time.Time
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, tx: tx, now: time.Now}
}

func (s *Service) Create(ctx context.Context, req CreateRequest, actor uuid.UUID) (*Doctor, error) {
	d, err := req.Doctor(s.now())
	if err != nil {
		return nil, err
	}
	if actor != uuid.Nil {
		d.CreatedBy = &actor
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params query.Params) ([]*Doctor, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Doctor, error) {
	var updated *Doctor
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		d, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.apply(d); err != nil {
			return err
		}
		d.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, d); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	if err := s.repo.SoftDelete(ctx, id, s.now()); err != nil {
		return nil, err
	}
	metrics.RecordLifecycle("doctor", lifecycle.ActionSoftDelete)
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Restore(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	if err := s.repo.Restore(ctx, id, s.now()); err != nil {
		return nil, err
	}
	metrics.RecordLifecycle("doctor", lifecycle.ActionRestore)
	return s.repo.GetByID(ctx, id)
}
