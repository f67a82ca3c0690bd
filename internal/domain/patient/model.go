package patient

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/physiocare/dashboard/internal/platform/apperr"
)

// Treatment status values. PhysicalTherapy is true exactly while a patient
// is StatusActive.
const (
	StatusActive = "กำลังรักษา"
	StatusEnded  = "จบการรักษา"
)

const (
	GenderMale   = "ชาย"
	GenderFemale = "หญิง"
)

var (
	Statuses = []string{StatusActive, StatusEnded}
	Genders  = []string{GenderMale, GenderFemale}
)

// TherapyChange is one entry of the append-only physicalTherapy history.
type TherapyChange struct {
	ChangedAt time.Time `json:"changedAt"`
	Value     bool      `json:"value"`
}

type Patient struct {
	ID              uuid.UUID       `json:"_id"`
	IDPatient       string          `json:"idPatient,omitempty"`
	Username        string          `json:"username"`
	IDCardNumber    string          `json:"ID_card_number"`
	PasswordHash    string          `json:"-"`
	Email           string          `json:"email,omitempty"`
	Name            string          `json:"name"`
	Surname         string          `json:"surname"`
	Gender          string          `json:"gender"`
	Birthday        *time.Time      `json:"birthday,omitempty"`
	Tel             string          `json:"tel,omitempty"`
	Nationality     string          `json:"nationality,omitempty"`
	Address         string          `json:"Address,omitempty"`
	UserType        string          `json:"userType,omitempty"`
	Sickness        string          `json:"sickness,omitempty"`
	UserPosts       string          `json:"userPosts,omitempty"`
	UserStatus      string          `json:"userStatus"`
	PhysicalTherapy bool            `json:"physicalTherapy"`
	TherapyHistory  []TherapyChange `json:"physicalTherapyHistory"`
	Caregivers      []uuid.UUID     `json:"caregivers"`
	AddDataFirst    bool            `json:"AdddataFirst"`
	IsEmailVerified bool            `json:"isEmailVerified"`
	CreatedBy       *uuid.UUID      `json:"createdBy,omitempty"`
	UpdatedBy       *uuid.UUID      `json:"updatedBy,omitempty"`
	IsDeleted       bool            `json:"isDeleted"`
	DeletedAt       *time.Time      `json:"deletedAt"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// SetStatus moves the patient to status and derives PhysicalTherapy. It
// returns the history entry to append, or nil when the flag is unchanged.
func (p *Patient) SetStatus(status string, now time.Time) (*TherapyChange, error) {
	if !validStatus(status) {
		return nil, apperr.Validation("userStatus", fmt.Sprintf("invalid userStatus %q", status))
	}
	p.UserStatus = status
	therapy := status == StatusActive
	if therapy == p.PhysicalTherapy {
		return nil, nil
	}
	p.PhysicalTherapy = therapy
	change := TherapyChange{ChangedAt: now, Value: therapy}
	p.TherapyHistory = append(p.TherapyHistory, change)
	return &change, nil
}

// CreateRequest is the POST /allusers body.
type CreateRequest struct {
	ID           *uuid.UUID `json:"_id"`
	IDPatient    string     `json:"idPatient"`
	Username     string     `json:"username"`
	IDCardNumber string     `json:"ID_card_number"`
	Password     string     `json:"password"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	Surname      string     `json:"surname"`
	Gender       string     `json:"gender"`
	Birthday     string     `json:"birthday"`
	Tel          string     `json:"tel"`
	Nationality  string     `json:"nationality"`
	Address      string     `json:"Address"`
	UserType     string     `json:"userType"`
	Sickness     string     `json:"sickness"`
	UserPosts    string     `json:"userPosts"`
	UserStatus   string     `json:"userStatus"`
}

// Patient validates the request and builds a new active-or-ended patient.
// The password is hashed by the service.
func (r CreateRequest) Patient(now time.Time) (*Patient, error) {
	if strings.TrimSpace(r.Username) == "" {
		return nil, apperr.Validation("username", "username is required")
	}
	if strings.TrimSpace(r.IDCardNumber) == "" {
		return nil, apperr.Validation("ID_card_number", "ID_card_number is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return nil, apperr.Validation("name", "name is required")
	}

	p := &Patient{
		IDPatient:    r.IDPatient,
		Username:     strings.TrimSpace(r.Username),
		IDCardNumber: strings.TrimSpace(r.IDCardNumber),
		Email:        r.Email,
		Name:         r.Name,
		Surname:      r.Surname,
		Gender:       GenderMale,
		Tel:          r.Tel,
		Nationality:  r.Nationality,
		Address:      r.Address,
		UserType:     r.UserType,
		Sickness:     r.Sickness,
		UserPosts:    r.UserPosts,
		AddDataFirst: true,
		Caregivers:   []uuid.UUID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if r.ID != nil {
		p.ID = *r.ID
	}
	if r.Gender != "" {
		if !validGender(r.Gender) {
			return nil, apperr.Validation("gender", fmt.Sprintf("invalid gender %q", r.Gender))
		}
		p.Gender = r.Gender
	}
	if r.Birthday != "" {
		b, err := ParseBirthday(r.Birthday)
		if err != nil {
			return nil, err
		}
		p.Birthday = &b
	}

	status := r.UserStatus
	if status == "" {
		status = StatusActive
	}
	if !validStatus(status) {
		return nil, apperr.Validation("userStatus", fmt.Sprintf("invalid userStatus %q", status))
	}
	p.UserStatus = status
	p.PhysicalTherapy = status == StatusActive
	p.TherapyHistory = []TherapyChange{{ChangedAt: now, Value: p.PhysicalTherapy}}
	return p, nil
}

// Patch is a partial update. Nil fields are left untouched. physicalTherapy
// is not patchable: it follows userStatus.
type Patch struct {
	IDPatient       *string `json:"idPatient"`
	Username        *string `json:"username"`
	IDCardNumber    *string `json:"ID_card_number"`
	Password        *string `json:"password"`
	Email           *string `json:"email"`
	Name            *string `json:"name"`
	Surname         *string `json:"surname"`
	Gender          *string `json:"gender"`
	Birthday        *string `json:"birthday"`
	Tel             *string `json:"tel"`
	Nationality     *string `json:"nationality"`
	Address         *string `json:"Address"`
	UserType        *string `json:"userType"`
	Sickness        *string `json:"sickness"`
	UserPosts       *string `json:"userPosts"`
	UserStatus      *string `json:"userStatus"`
	AddDataFirst    *bool   `json:"AdddataFirst"`
	IsEmailVerified *bool   `json:"isEmailVerified"`
}

// apply copies every non-status field onto p. Status is handled by the
// service so the history entry can be persisted alongside.
func (pt Patch) apply(p *Patient) error {
	if pt.Username != nil {
		if strings.TrimSpace(*pt.Username) == "" {
			return apperr.Validation("username", "username must not be empty")
		}
		p.Username = strings.TrimSpace(*pt.Username)
	}
	if pt.IDCardNumber != nil {
		if strings.TrimSpace(*pt.IDCardNumber) == "" {
			return apperr.Validation("ID_card_number", "ID_card_number must not be empty")
		}
		p.IDCardNumber = strings.TrimSpace(*pt.IDCardNumber)
	}
	if pt.Gender != nil {
		if !validGender(*pt.Gender) {
			return apperr.Validation("gender", fmt.Sprintf("invalid gender %q", *pt.Gender))
		}
		p.Gender = *pt.Gender
	}
	if pt.Birthday != nil {
		if *pt.Birthday == "" {
			p.Birthday = nil
		} else {
			b, err := ParseBirthday(*pt.Birthday)
			if err != nil {
				return err
			}
			p.Birthday = &b
		}
	}
	setString(&p.IDPatient, pt.IDPatient)
	setString(&p.Email, pt.Email)
	setString(&p.Name, pt.Name)
	setString(&p.Surname, pt.Surname)
	setString(&p.Tel, pt.Tel)
	setString(&p.Nationality, pt.Nationality)
	setString(&p.Address, pt.Address)
	setString(&p.UserType, pt.UserType)
	setString(&p.Sickness, pt.Sickness)
	setString(&p.UserPosts, pt.UserPosts)
	if pt.AddDataFirst != nil {
		p.AddDataFirst = *pt.AddDataFirst
	}
	if pt.IsEmailVerified != nil {
		p.IsEmailVerified = *pt.IsEmailVerified
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// ParseBirthday accepts a calendar date or an RFC 3339 timestamp and keeps
// only the date.
func ParseBirthday(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, apperr.Validation("birthday", fmt.Sprintf("invalid birthday %q", s))
}

func validStatus(s string) bool {
	return s == StatusActive || s == StatusEnded
}

func validGender(g string) bool {
	return g == GenderMale || g == GenderFemale
}
