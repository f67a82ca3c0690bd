package stats

import (
	"context"
	"time"

	"github.com/physiocare/dashboard/internal/domain/patient"
	"github.com/physiocare/dashboard/internal/platform/apperr"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Report computes every dashboard aggregate as of now.
func (s *Service) Report(ctx context.Context) (*Report, error) {
	byStatus, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	total, therapy, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	therapyMonths, err := s.repo.Months(ctx, true, Months)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	allMonths, err := s.repo.Months(ctx, false, Months)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	ages, err := s.repo.Ages(ctx, s.now())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return &Report{
		DefaultStats: DefaultStats{
			Active:          byStatus[patient.StatusActive],
			Ended:           byStatus[patient.StatusEnded],
			Total:           total,
			PhysicalTherapy: therapy,
		},
		MonthlyApplications:           MonthlySeries(therapyMonths),
		MonthlyApplications2:          MonthlySeries(allMonths),
		GenderAgeStats:                GenderAgeHistogram(ages, false),
		GenderAgeStatsPhysicalTherapy: GenderAgeHistogram(ages, true),
	}, nil
}
