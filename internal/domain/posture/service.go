package posture

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

func (s *Service) Create(ctx context.Context, req CreateRequest, actor uuid.UUID) (*Posture, error) {
	p, err := req.Posture(s.now())
	if err != nil {
		return nil, err
	}
	if actor != uuid.Nil {
		p.CreatedBy = &actor
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Posture, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params query.Params) ([]*Posture, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (*Posture, error) {
	var updated *Posture
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := patch.apply(p); err != nil {
			return err
		}
		p.UpdatedAt = s.now()
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (*Posture, error) {
	if err := s.repo.SoftDelete(ctx, id, s.now()); err != nil {
		return nil, err
	}
	metrics.RecordLifecycle("posture", lifecycle.ActionSoftDelete)
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Restore(ctx context.Context, id uuid.UUID) (*Posture, error) {
	if err := s.repo.Restore(ctx, id, s.now()); err != nil {
		return nil, err
	}
	metrics.RecordLifecycle("posture", lifecycle.ActionRestore)
	return s.repo.GetByID(ctx, id)
}
