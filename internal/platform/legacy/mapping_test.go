package legacy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/physiocare/dashboard/internal/domain/mission"
	"github.com/physiocare/dashboard/internal/domain/patient"
)

var (
	created = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	updated = time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	now     = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
)

func TestIDFor_Stable(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, IDFor(oid), IDFor(oid))
	assert.NotEqual(t, IDFor(oid), IDFor(primitive.NewObjectID()))
}

func TestToPatient(t *testing.T) {
	f := false
	admin := primitive.NewObjectID()
	doc := PatientDoc{
		ID:           primitive.NewObjectID(),
		Username:     " somchai ",
		IDCardNumber: "1103700000001",
		Password:     "$2a$10$hash",
		Name:         "สมชาย",
		Gender:       "หญิง",
		UserStatus:   patient.StatusEnded,
		CreatedBy:    &admin,
		AddDataFirst: &f,
		TherapyHistory: []TherapyChangeDoc{
			{ChangedAt: created, Value: true},
		},
		CreatedAt: created,
		UpdatedAt: updated,
	}

	p, err := ToPatient(doc, now)
	require.NoError(t, err)

	assert.Equal(t, IDFor(doc.ID), p.ID)
	assert.Equal(t, "somchai", p.Username)
	assert.Equal(t, "$2a$10$hash", p.PasswordHash)
	assert.Equal(t, patient.GenderFemale, p.Gender)
	assert.False(t, p.PhysicalTherapy)
	assert.False(t, p.AddDataFirst)
	require.NotNil(t, p.CreatedBy)
	assert.Equal(t, IDFor(admin), *p.CreatedBy)

	// The ended status is appended to the history so the flag and the last
	// history entry agree.
	require.Len(t, p.TherapyHistory, 2)
	assert.Equal(t, patient.TherapyChange{ChangedAt: updated, Value: false}, p.TherapyHistory[1])
}

func TestToPatient_Defaults(t *testing.T) {
	doc := PatientDoc{
		ID:           primitive.NewObjectID(),
		Username:     "u1",
		IDCardNumber: "1",
		Gender:       "unknown",
		UserStatus:   "กำลังพักฟื้น",
	}

	p, err := ToPatient(doc, now)
	require.NoError(t, err)

	assert.Equal(t, patient.GenderMale, p.Gender)
	assert.Equal(t, patient.StatusActive, p.UserStatus)
	assert.True(t, p.PhysicalTherapy)
	assert.True(t, p.AddDataFirst)
	assert.Equal(t, now, p.CreatedAt)
	assert.Equal(t, []patient.TherapyChange{{ChangedAt: now, Value: true}}, p.TherapyHistory)
	assert.Nil(t, p.CreatedBy)
}

func TestToPatient_Deleted(t *testing.T) {
	deletedAt := updated.Add(time.Hour)
	doc := PatientDoc{
		ID: primitive.NewObjectID(), Username: "u", IDCardNumber: "1",
		IsDeleted: true, DeletedAt: &deletedAt, CreatedAt: created, UpdatedAt: updated,
	}
	p, err := ToPatient(doc, now)
	require.NoError(t, err)
	require.NotNil(t, p.DeletedAt)
	assert.Equal(t, deletedAt, *p.DeletedAt)

	doc.DeletedAt = nil
	p, err = ToPatient(doc, now)
	require.NoError(t, err)
	assert.Equal(t, updated, *p.DeletedAt)
}

func TestToPatient_RequiresIdentity(t *testing.T) {
	_, err := ToPatient(PatientDoc{ID: primitive.NewObjectID(), Username: "u"}, now)
	assert.Error(t, err)
}

func TestToMission(t *testing.T) {
	s1 := SubmissionDoc{ID: primitive.NewObjectID(), Name: "ยกแขน", CreatedAt: created}
	s2 := SubmissionDoc{ID: primitive.NewObjectID(), Name: "ยกขา", IsDeleted: true}
	subs := map[string]SubmissionDoc{s1.ID.Hex(): s1, s2.ID.Hex(): s2}
	ghost := primitive.NewObjectID().Hex()

	doc := MissionDoc{
		ID:          primitive.NewObjectID(),
		No:          4,
		Name:        " ท่าที่ 4 ",
		MissionType: "ท่าบิน",
		Submission:  []string{s1.ID.Hex(), ghost, s2.ID.Hex(), s1.ID.Hex()},
		CreatedAt:   created,
	}

	m, missing := ToMission(doc, subs, now)

	assert.Equal(t, "ท่าที่ 4", m.Name)
	assert.Equal(t, mission.TypeLying, m.MissionType)
	assert.Equal(t, []string{ghost}, missing)
	require.Len(t, m.Submissions, 2)
	assert.Equal(t, IDFor(s1.ID), m.Submissions[0].ID)
	assert.Equal(t, m.ID, m.Submissions[0].MissionID)
	assert.False(t, m.Submissions[0].IsDeleted)
	assert.True(t, m.Submissions[1].IsDeleted)
	assert.Equal(t, created, m.Submissions[1].CreatedAt)
}

func TestToMission_DeletedCascadesToSubmissions(t *testing.T) {
	s := SubmissionDoc{ID: primitive.NewObjectID(), Name: "a"}
	doc := MissionDoc{
		ID: primitive.NewObjectID(), Name: "m", IsDeleted: true,
		Submission: []string{s.ID.Hex()}, UpdatedAt: updated,
	}

	m, _ := ToMission(doc, map[string]SubmissionDoc{s.ID.Hex(): s}, now)

	require.NotNil(t, m.DeletedAt)
	assert.Equal(t, updated, *m.DeletedAt)
	assert.True(t, m.Submissions[0].IsDeleted)
}

func TestToCaregiver_MergesBothSides(t *testing.T) {
	p1, p2, p3 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	doc := CaregiverDoc{
		ID:           primitive.NewObjectID(),
		IDCardNumber: " 3100500000002 ",
		Name:         "สมศรี",
		Relationships: []RelationshipDoc{
			{User: p1, Relationship: "ลูก"},
			{User: p2, Relationship: "หลาน"},
			{User: p1, Relationship: "บุตร"},
			{Relationship: "orphan"},
		},
	}

	c, links := ToCaregiver(doc, []primitive.ObjectID{p2, p3})

	assert.Equal(t, "3100500000002", c.IDCardNumber)
	assert.Equal(t, []Link{
		{PatientID: IDFor(p1), Relationship: "บุตร"},
		{PatientID: IDFor(p2), Relationship: "หลาน"},
		{PatientID: IDFor(p3)},
	}, links)
}

func TestPatientSideLinks(t *testing.T) {
	cg := primitive.NewObjectID()
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	side := PatientSideLinks([]PatientDoc{
		{ID: a, Caregivers: []primitive.ObjectID{cg}},
		{ID: b, Caregivers: []primitive.ObjectID{cg}},
		{ID: primitive.NewObjectID()},
	})
	assert.Equal(t, []primitive.ObjectID{a, b}, side[cg])
	assert.Len(t, side, 1)
}
