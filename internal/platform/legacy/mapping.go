package legacy

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/physiocare/dashboard/internal/domain/caregiver"
	"github.com/physiocare/dashboard/internal/domain/mission"
	"github.com/physiocare/dashboard/internal/domain/patient"
)

// idNamespace seeds the name-based UUIDs derived from legacy ObjectIDs, so
// re-running an import maps every document to the same row.
var idNamespace = uuid.MustParse("6f1c2a4e-8d0b-4c3e-9a57-2b1d4e6f8a90")

// IDFor derives the stable UUID of a legacy ObjectID.
func IDFor(oid primitive.ObjectID) uuid.UUID {
	return uuid.NewSHA1(idNamespace, oid[:])
}

func optionalID(oid *primitive.ObjectID) *uuid.UUID {
	if oid == nil || oid.IsZero() {
		return nil
	}
	id := IDFor(*oid)
	return &id
}

func oneOf(v string, allowed []string, fallback string) string {
	v = strings.TrimSpace(v)
	for _, a := range allowed {
		if a == v {
			return v
		}
	}
	return fallback
}

func stamp(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t
}

// ToPatient maps a legacy patient. Unknown statuses fall back to active, and
// physicalTherapy is derived from the status rather than copied.
func ToPatient(doc PatientDoc, now time.Time) (*patient.Patient, error) {
	username := strings.TrimSpace(doc.Username)
	idCard := strings.TrimSpace(doc.IDCardNumber)
	if username == "" || idCard == "" {
		return nil, fmt.Errorf("patient %s: username and ID card number are required", doc.ID.Hex())
	}

	createdAt := stamp(doc.CreatedAt, now)
	p := &patient.Patient{
		ID:              IDFor(doc.ID),
		IDPatient:       strings.TrimSpace(doc.IDPatient),
		Username:        username,
		IDCardNumber:    idCard,
		PasswordHash:    doc.Password,
		Email:           strings.TrimSpace(doc.Email),
		Name:            strings.TrimSpace(doc.Name),
		Surname:         strings.TrimSpace(doc.Surname),
		Gender:          oneOf(doc.Gender, patient.Genders, patient.GenderMale),
		Birthday:        doc.Birthday,
		Tel:             strings.TrimSpace(doc.Tel),
		Nationality:     strings.TrimSpace(doc.Nationality),
		Address:         strings.TrimSpace(doc.Address),
		UserType:        strings.TrimSpace(doc.UserType),
		Sickness:        doc.Sickness,
		UserPosts:       doc.UserPosts,
		UserStatus:      oneOf(doc.UserStatus, patient.Statuses, patient.StatusActive),
		AddDataFirst:    doc.AddDataFirst == nil || *doc.AddDataFirst,
		IsEmailVerified: doc.IsEmailVerified,
		CreatedBy:       optionalID(doc.CreatedBy),
		UpdatedBy:       optionalID(doc.UpdatedBy),
		IsDeleted:       doc.IsDeleted,
		CreatedAt:       createdAt,
		UpdatedAt:       stamp(doc.UpdatedAt, createdAt),
	}
	p.PhysicalTherapy = p.UserStatus == patient.StatusActive

	for _, h := range doc.TherapyHistory {
		p.TherapyHistory = append(p.TherapyHistory, patient.TherapyChange{
			ChangedAt: stamp(h.ChangedAt, createdAt),
			Value:     h.Value,
		})
	}
	last := len(p.TherapyHistory) - 1
	if last < 0 || p.TherapyHistory[last].Value != p.PhysicalTherapy {
		p.TherapyHistory = append(p.TherapyHistory, patient.TherapyChange{
			ChangedAt: p.UpdatedAt,
			Value:     p.PhysicalTherapy,
		})
	}

	if p.IsDeleted {
		at := p.UpdatedAt
		if doc.DeletedAt != nil {
			at = *doc.DeletedAt
		}
		p.DeletedAt = &at
	}
	return p, nil
}

// ToMission maps a legacy mission and resolves its submission references.
// References to missing submissions are dropped and returned as missing.
func ToMission(doc MissionDoc, subs map[string]SubmissionDoc, now time.Time) (m *mission.Mission, missing []string) {
	createdAt := stamp(doc.CreatedAt, now)
	m = &mission.Mission{
		ID:          IDFor(doc.ID),
		No:          doc.No,
		Name:        strings.TrimSpace(doc.Name),
		IsCompleted: doc.IsCompleted,
		MissionType: oneOf(doc.MissionType, mission.Types, mission.TypeLying),
		IsEvaluate:  doc.IsEvaluate,
		UpdatedBy:   optionalID(doc.UpdatedBy),
		IsDeleted:   doc.IsDeleted,
		CreatedAt:   createdAt,
		UpdatedAt:   stamp(doc.UpdatedAt, createdAt),
	}
	if m.IsDeleted {
		at := m.UpdatedAt
		m.DeletedAt = &at
	}

	seen := make(map[string]bool, len(doc.Submission))
	for _, ref := range doc.Submission {
		ref = strings.TrimSpace(ref)
		if seen[ref] {
			continue
		}
		seen[ref] = true
		sd, ok := subs[ref]
		if !ok {
			missing = append(missing, ref)
			continue
		}
		subCreated := stamp(sd.CreatedAt, createdAt)
		m.Submissions = append(m.Submissions, &mission.Submission{
			ID:        IDFor(sd.ID),
			MissionID: m.ID,
			Name:      strings.TrimSpace(sd.Name),
			ImageURL:  strings.TrimSpace(sd.ImageURL),
			VideoURL:  strings.TrimSpace(sd.VideoURL),
			Evaluate:  sd.Evaluate,
			IsDeleted: sd.IsDeleted || m.IsDeleted,
			CreatedAt: subCreated,
			UpdatedAt: stamp(sd.UpdatedAt, subCreated),
		})
	}
	return m, missing
}

// Link is one caregiver to patient relationship.
type Link struct {
	PatientID    uuid.UUID
	Relationship string
}

// ToCaregiver maps a legacy caregiver and its links. patientSide lists the
// patients whose own caregiver array names this caregiver; links present
// only there are kept with an empty label, so the import repairs one-sided
// references.
func ToCaregiver(doc CaregiverDoc, patientSide []primitive.ObjectID) (*caregiver.Caregiver, []Link) {
	c := &caregiver.Caregiver{
		ID:           IDFor(doc.ID),
		IDCardNumber: strings.TrimSpace(doc.IDCardNumber),
		Name:         strings.TrimSpace(doc.Name),
		Surname:      strings.TrimSpace(doc.Surname),
		Tel:          strings.TrimSpace(doc.Tel),
	}

	var links []Link
	index := make(map[uuid.UUID]int)
	for _, r := range doc.Relationships {
		if r.User.IsZero() {
			continue
		}
		id := IDFor(r.User)
		label := strings.TrimSpace(r.Relationship)
		if i, ok := index[id]; ok {
			links[i].Relationship = label
			continue
		}
		index[id] = len(links)
		links = append(links, Link{PatientID: id, Relationship: label})
	}
	for _, oid := range patientSide {
		id := IDFor(oid)
		if _, ok := index[id]; ok {
			continue
		}
		index[id] = len(links)
		links = append(links, Link{PatientID: id})
	}
	return c, links
}

// PatientSideLinks inverts the patients' caregiver arrays.
func PatientSideLinks(patients []PatientDoc) map[primitive.ObjectID][]primitive.ObjectID {
	out := make(map[primitive.ObjectID][]primitive.ObjectID)
	for _, p := range patients {
		for _, cg := range p.Caregivers {
			out[cg] = append(out[cg], p.ID)
		}
	}
	return out
}
