package doctor

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/physiocare/dashboard/internal/platform/apperr"
)

// Name titles used by medical personnel.
var Titles = []string{"นพ.", "พญ.", "กภ.", "ทพ."}

func validTitle(t string) bool {
	for _, v := range Titles {
		if v == t {
			return true
		}
	}
	return false
}

type Doctor struct {
	ID        uuid.UUID  `json:"_id"`
	Username  string     `json:"username"`
	NameTitle string     `json:"nametitle"`
	Name      string     `json:"name"`
	Surname   string     `json:"surname"`
	Tel       string     `json:"tel,omitempty"`
	Email     string     `json:"email,omitempty"`
	CreatedBy *uuid.UUID `json:"createdBy,omitempty"`
	IsDeleted bool       `json:"isDeleted"`
	DeletedAt *time.Time `json:"deletedAt"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CreateRequest struct {
	Username  string `json:"username"`
	NameTitle string `json:"nametitle"`
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	Tel       string `json:"tel"`
	Email     string `json:"email"`
}

func (r CreateRequest) Doctor(now time.Time) (*Doctor, error) {
	d := &Doctor{
		ID:        uuid.New(),
		Username:  strings.TrimSpace(r.Username),
		NameTitle: strings.TrimSpace(r.NameTitle),
		Name:      strings.TrimSpace(r.Name),
		Surname:   strings.TrimSpace(r.Surname),
		Tel:       strings.TrimSpace(r.Tel),
		Email:     strings.TrimSpace(r.Email),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if d.Username == "" {
		return nil, apperr.Validation("username", "username is required")
	}
	if d.Name == "" {
		return nil, apperr.Validation("name", "name is required")
	}
	if d.NameTitle != "" && !validTitle(d.NameTitle) {
		return nil, apperr.Validation("nametitle", fmt.Sprintf("invalid nametitle %q", d.NameTitle))
	}
	return d, nil
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Username  *string `json:"username"`
	NameTitle *string `json:"nametitle"`
	Name      *string `json:"name"`
	Surname   *string `json:"surname"`
	Tel       *string `json:"tel"`
	Email     *string `json:"email"`
}

func (pt Patch) apply(d *Doctor) error {
	if pt.Username != nil {
		v := strings.TrimSpace(*pt.Username)
		if v == "" {
			return apperr.Validation("username", "username must not be empty")
		}
		d.Username = v
	}
	if pt.NameTitle != nil {
		v := strings.TrimSpace(*pt.NameTitle)
		if v != "" && !validTitle(v) {
			return apperr.Validation("nametitle", fmt.Sprintf("invalid nametitle %q", v))
		}
		d.NameTitle = v
	}
	if pt.Name != nil {
		v := strings.TrimSpace(*pt.Name)
		if v == "" {
			return apperr.Validation("name", "name must not be empty")
		}
		d.Name = v
	}
	if pt.Surname != nil {
		d.Surname = strings.TrimSpace(*pt.Surname)
	}
	if pt.Tel != nil {
		d.Tel = strings.TrimSpace(*pt.Tel)
	}
	if pt.Email != nil {
		d.Email = strings.TrimSpace(*pt.Email)
	}
	return nil
}
