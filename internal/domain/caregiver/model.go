package caregiver

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/physiocare/dashboard/internal/platform/apperr"
)

// Relationship links the caregiver to one patient. A caregiver has at most
// one entry per patient.
type Relationship struct {
	User         uuid.UUID `json:"user"`
	Relationship string    `json:"relationship"`
}

type Caregiver struct {
	ID            uuid.UUID      `json:"_id"`
	IDCardNumber  string         `json:"caregiverID_card_number"`
	Name          string         `json:"caregiverName"`
	Surname       string         `json:"caregiverSurname"`
	Tel           string         `json:"caregiverTel"`
	Relationships []Relationship `json:"caregiverRelationship"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// RelationshipTo returns the entry for patientID, if any.
func (c *Caregiver) RelationshipTo(patientID uuid.UUID) (Relationship, bool) {
	for _, r := range c.Relationships {
		if r.User == patientID {
			return r, true
		}
	}
	return Relationship{}, false
}

// AttachRequest is the body of POST /caregiver and PATCH /caregiver/:id.
// CaregiverID is taken from the path on PATCH.
type AttachRequest struct {
	CaregiverID  *uuid.UUID `json:"caregiverId"`
	PatientID    uuid.UUID  `json:"user"`
	IDCardNumber string     `json:"caregiverID_card_number"`
	Name         string     `json:"caregiverName"`
	Surname      string     `json:"caregiverSurname"`
	Tel          string     `json:"caregiverTel"`
	Relationship string     `json:"caregiverRelationship"`
}

func (r *AttachRequest) normalize() error {
	r.IDCardNumber = strings.TrimSpace(r.IDCardNumber)
	r.Name = strings.TrimSpace(r.Name)
	r.Surname = strings.TrimSpace(r.Surname)
	r.Tel = strings.TrimSpace(r.Tel)
	r.Relationship = strings.TrimSpace(r.Relationship)

	if r.PatientID == uuid.Nil {
		return apperr.Validation("user", "user is required")
	}
	if r.Name == "" || r.Surname == "" {
		return apperr.Validation("caregiverName", "ชื่อ และนามสกุล ไม่ควรเป็นค่าว่าง")
	}
	// Without an explicit id the national ID is the only key that lets a
	// repeated attach find the caregiver it created before.
	if r.CaregiverID == nil && r.IDCardNumber == "" {
		return apperr.Validation("caregiverID_card_number", "caregiverID_card_number is required")
	}
	return nil
}

// fields overwrites c's scalar fields with the request payload. An omitted
// national ID keeps the stored one.
func (r AttachRequest) fields(c *Caregiver) {
	if r.IDCardNumber != "" {
		c.IDCardNumber = r.IDCardNumber
	}
	c.Name = r.Name
	c.Surname = r.Surname
	c.Tel = r.Tel
}

// DetachRequest is the body of DELETE /caregiver/:id.
type DetachRequest struct {
	UserID uuid.UUID `json:"userId"`
}

// AttachResult reports what Attach did.
type AttachResult struct {
	Caregiver *Caregiver
	Created   bool
}

// DetachResult reports whether the caregiver itself was removed.
type DetachResult struct {
	CaregiverDeleted bool
}
