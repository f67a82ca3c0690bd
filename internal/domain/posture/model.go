package posture

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/physiocare/dashboard/internal/platform/apperr"
)

// UserTypes are the posture categories.
var UserTypes = []string{"ท่านอน", "ท่านั่ง", "ท่ายืน"}

func validUserType(t string) bool {
	for _, v := range UserTypes {
		if v == t {
			return true
		}
	}
	return false
}

type Posture struct {
	ID           uuid.UUID  `json:"_id"`
	NoPostures   string     `json:"noPostures"`
	NamePostures string     `json:"namePostures"`
	UserType     string     `json:"userType,omitempty"`
	Description  string     `json:"description,omitempty"`
	ImageURLs    []string   `json:"imageUrls"`
	VideoURLs    []string   `json:"videoUrls"`
	CreatedBy    *uuid.UUID `json:"createdBy,omitempty"`
	IsDeleted    bool       `json:"isDeleted"`
	DeletedAt    *time.Time `json:"deletedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// CreateRequest is the POST /postures body. The URL lists are pointers so
// a missing list can be told apart from an empty one.
type CreateRequest struct {
	NoPostures   string    `json:"noPostures"`
	NamePostures string    `json:"namePostures"`
	UserType     string    `json:"userType"`
	Description  string    `json:"description"`
	ImageURLs    *[]string `json:"imageUrls"`
	VideoURLs    *[]string `json:"videoUrls"`
}

func (r CreateRequest) Posture(now time.Time) (*Posture, error) {
	p := &Posture{
		ID:           uuid.New(),
		NoPostures:   strings.TrimSpace(r.NoPostures),
		NamePostures: strings.TrimSpace(r.NamePostures),
		UserType:     strings.TrimSpace(r.UserType),
		Description:  r.Description,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if p.NoPostures == "" {
		return nil, apperr.Validation("noPostures", "noPostures is required")
	}
	if p.NamePostures == "" {
		return nil, apperr.Validation("namePostures", "namePostures is required")
	}
	if p.UserType != "" && !validUserType(p.UserType) {
		return nil, apperr.Validation("userType", fmt.Sprintf("invalid userType %q", p.UserType))
	}
	if r.ImageURLs == nil || r.VideoURLs == nil {
		return nil, apperr.Validation("imageUrls", "imageUrls and videoUrls must be arrays")
	}
	p.ImageURLs = cleanURLs(*r.ImageURLs)
	p.VideoURLs = cleanURLs(*r.VideoURLs)
	return p, nil
}

// cleanURLs trims entries and drops blanks. The result is never nil.
func cleanURLs(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

type Patch struct {
	NoPostures   *string   `json:"noPostures"`
	NamePostures *string   `json:"namePostures"`
	UserType     *string   `json:"userType"`
	Description  *string   `json:"description"`
	ImageURLs    *[]string `json:"imageUrls"`
	VideoURLs    *[]string `json:"videoUrls"`
}

func (pt Patch) apply(p *Posture) error {
	if pt.NoPostures != nil {
		v := strings.TrimSpace(*pt.NoPostures)
		if v == "" {
			return apperr.Validation("noPostures", "noPostures must not be empty")
		}
		p.NoPostures = v
	}
	if pt.NamePostures != nil {
		v := strings.TrimSpace(*pt.NamePostures)
		if v == "" {
			return apperr.Validation("namePostures", "namePostures must not be empty")
		}
		p.NamePostures = v
	}
	if pt.UserType != nil {
		v := strings.TrimSpace(*pt.UserType)
		if v != "" && !validUserType(v) {
			return apperr.Validation("userType", fmt.Sprintf("invalid userType %q", v))
		}
		p.UserType = v
	}
	if pt.Description != nil {
		p.Description = *pt.Description
	}
	if pt.ImageURLs != nil {
		p.ImageURLs = cleanURLs(*pt.ImageURLs)
	}
	if pt.VideoURLs != nil {
		p.VideoURLs = cleanURLs(*pt.VideoURLs)
	}
	return nil
}
