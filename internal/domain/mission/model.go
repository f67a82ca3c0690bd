package mission

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/physiocare/dashboard/internal/platform/apperr"
)

// Mission categories.
const (
	TypeLying    = "ท่านอน"
	TypeSitting  = "ท่านั่ง"
	TypeStanding = "ท่ายืน"
)

var Types = []string{TypeLying, TypeSitting, TypeStanding}

func validType(t string) bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}

// Submission is one posture example owned by exactly one mission.
type Submission struct {
	ID        uuid.UUID `json:"_id"`
	MissionID uuid.UUID `json:"missionId"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"imageUrl"`
	VideoURL  string    `json:"videoUrl"`
	Evaluate  bool      `json:"evaluate"`
	IsDeleted bool      `json:"isDeleted"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Mission struct {
	ID          uuid.UUID     `json:"_id"`
	No          int           `json:"no"`
	Name        string        `json:"name"`
	IsCompleted bool          `json:"isCompleted"`
	MissionType string        `json:"missionType"`
	IsEvaluate  bool          `json:"isEvaluate"`
	Submissions []*Submission `json:"submission"`
	UpdatedBy   *uuid.UUID    `json:"updatedBy,omitempty"`
	IsDeleted   bool          `json:"isDeleted"`
	DeletedAt   *time.Time    `json:"deletedAt"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// SubmissionInput creates a submission.
type SubmissionInput struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	VideoURL string `json:"videoUrl"`
	Evaluate bool   `json:"evaluate"`
}

func (in SubmissionInput) Submission(missionID uuid.UUID, now time.Time) (*Submission, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("name", "submission name is required")
	}
	return &Submission{
		ID:        uuid.New(),
		MissionID: missionID,
		Name:      name,
		ImageURL:  strings.TrimSpace(in.ImageURL),
		VideoURL:  strings.TrimSpace(in.VideoURL),
		Evaluate:  in.Evaluate,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CreateRequest is the POST /missions body. No is assigned when absent.
type CreateRequest struct {
	No          *int              `json:"no"`
	Name        string            `json:"name"`
	MissionType string            `json:"missionType"`
	IsEvaluate  bool              `json:"isEvaluate"`
	IsCompleted bool              `json:"isCompleted"`
	Submissions []SubmissionInput `json:"submission"`
}

func (r CreateRequest) Mission(now time.Time) (*Mission, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, apperr.Validation("name", "name is required")
	}
	if r.No != nil && *r.No <= 0 {
		return nil, apperr.Validation("no", "no must be positive")
	}
	missionType := r.MissionType
	if missionType == "" {
		missionType = TypeLying
	}
	if !validType(missionType) {
		return nil, apperr.Validation("missionType", fmt.Sprintf("invalid missionType %q", missionType))
	}

	m := &Mission{
		ID:          uuid.New(),
		Name:        name,
		IsCompleted: r.IsCompleted,
		MissionType: missionType,
		IsEvaluate:  r.IsEvaluate,
		Submissions: []*Submission{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if r.No != nil {
		m.No = *r.No
	}
	for _, in := range r.Submissions {
		s, err := in.Submission(m.ID, now)
		if err != nil {
			return nil, err
		}
		m.Submissions = append(m.Submissions, s)
	}
	return m, nil
}

// SubmissionPatch is a partial update of one submission. ID is required
// inside submissionUpdates and ignored on PATCH /submissions/:id.
type SubmissionPatch struct {
	ID       uuid.UUID `json:"_id"`
	Name     *string   `json:"name"`
	ImageURL *string   `json:"imageUrl"`
	VideoURL *string   `json:"videoUrl"`
	Evaluate *bool     `json:"evaluate"`
}

func (sp SubmissionPatch) apply(s *Submission) error {
	if sp.Name != nil {
		name := strings.TrimSpace(*sp.Name)
		if name == "" {
			return apperr.Validation("name", "submission name must not be empty")
		}
		s.Name = name
	}
	if sp.ImageURL != nil {
		s.ImageURL = strings.TrimSpace(*sp.ImageURL)
	}
	if sp.VideoURL != nil {
		s.VideoURL = strings.TrimSpace(*sp.VideoURL)
	}
	if sp.Evaluate != nil {
		s.Evaluate = *sp.Evaluate
	}
	return nil
}

// Patch is the PATCH /missions/:id body. Nil fields are left untouched.
type Patch struct {
	No                *int              `json:"no"`
	Name              *string           `json:"name"`
	MissionType       *string           `json:"missionType"`
	IsEvaluate        *bool             `json:"isEvaluate"`
	IsCompleted       *bool             `json:"isCompleted"`
	SubmissionUpdates []SubmissionPatch `json:"submissionUpdates"`
}

func (pt Patch) apply(m *Mission) error {
	if pt.No != nil {
		if *pt.No <= 0 {
			return apperr.Validation("no", "no must be positive")
		}
		m.No = *pt.No
	}
	if pt.Name != nil {
		name := strings.TrimSpace(*pt.Name)
		if name == "" {
			return apperr.Validation("name", "name must not be empty")
		}
		m.Name = name
	}
	if pt.MissionType != nil {
		if !validType(*pt.MissionType) {
			return apperr.Validation("missionType", fmt.Sprintf("invalid missionType %q", *pt.MissionType))
		}
		m.MissionType = *pt.MissionType
	}
	if pt.IsEvaluate != nil {
		m.IsEvaluate = *pt.IsEvaluate
	}
	if pt.IsCompleted != nil {
		m.IsCompleted = *pt.IsCompleted
	}
	for _, sp := range pt.SubmissionUpdates {
		if sp.ID == uuid.Nil {
			return apperr.Validation("submissionUpdates", "each submission update needs an _id")
		}
	}
	return nil
}
