package caregiver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiocare/dashboard/internal/platform/apperr"
)

type inlineTx struct{}

func (inlineTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// -- Mock Repository --

type link struct {
	caregiverID uuid.UUID
	patientID   uuid.UUID
	label       string
}

type mockRepo struct {
	mu         sync.Mutex
	caregivers map[uuid.UUID]*Caregiver
	links      []link
	patients   map[uuid.UUID]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		caregivers: make(map[uuid.UUID]*Caregiver),
		patients:   make(map[uuid.UUID]bool),
	}
}

func (m *mockRepo) addPatient() uuid.UUID {
	id := uuid.New()
	m.patients[id] = true
	return id
}

func (m *mockRepo) withLinks(c *Caregiver) *Caregiver {
	cp := *c
	cp.Relationships = []Relationship{}
	for _, l := range m.links {
		if l.caregiverID == c.ID {
			cp.Relationships = append(cp.Relationships, Relationship{User: l.patientID, Relationship: l.label})
		}
	}
	return &cp
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Caregiver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.caregivers[id]
	if !ok {
		return nil, apperr.NotFound("caregiver", id.String())
	}
	return m.withLinks(c), nil
}

func (m *mockRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*Caregiver, error) {
	return m.GetByID(ctx, id)
}

func (m *mockRepo) GetByIDCard(_ context.Context, idCard string) (*Caregiver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.caregivers {
		if c.IDCardNumber != "" && c.IDCardNumber == idCard {
			return m.withLinks(c), nil
		}
	}
	return nil, apperr.NotFound("caregiver", idCard)
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Caregiver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Caregiver{}
	for _, l := range m.links {
		if l.patientID == patientID {
			out = append(out, m.withLinks(m.caregivers[l.caregiverID]))
		}
	}
	return out, nil
}

func (m *mockRepo) List(_ context.Context) ([]*Caregiver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Caregiver{}
	for _, c := range m.caregivers {
		out = append(out, m.withLinks(c))
	}
	return out, nil
}

func (m *mockRepo) SaveByIDCard(_ context.Context, c *Caregiver) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.IDCardNumber != "" {
		for _, existing := range m.caregivers {
			if existing.IDCardNumber == c.IDCardNumber {
				existing.Name, existing.Surname, existing.Tel = c.Name, c.Surname, c.Tel
				c.ID = existing.ID
				return false, nil
			}
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	m.caregivers[c.ID] = &cp
	return true, nil
}

func (m *mockRepo) UpdateFields(_ context.Context, c *Caregiver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.caregivers {
		if id != c.ID && c.IDCardNumber != "" && existing.IDCardNumber == c.IDCardNumber {
			return apperr.Conflict("caregiver already exists")
		}
	}
	existing, ok := m.caregivers[c.ID]
	if !ok {
		return apperr.NotFound("caregiver", c.ID.String())
	}
	existing.IDCardNumber, existing.Name, existing.Surname, existing.Tel = c.IDCardNumber, c.Name, c.Surname, c.Tel
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.caregivers, id)
	kept := m.links[:0]
	for _, l := range m.links {
		if l.caregiverID != id {
			kept = append(kept, l)
		}
	}
	m.links = kept
	return nil
}

func (m *mockRepo) UpsertRelationship(_ context.Context, caregiverID, patientID uuid.UUID, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.links {
		if l.caregiverID == caregiverID && l.patientID == patientID {
			m.links[i].label = label
			return nil
		}
	}
	m.links = append(m.links, link{caregiverID: caregiverID, patientID: patientID, label: label})
	return nil
}

func (m *mockRepo) RemoveRelationship(_ context.Context, caregiverID, patientID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.links[:0]
	for _, l := range m.links {
		if l.caregiverID != caregiverID || l.patientID != patientID {
			kept = append(kept, l)
		}
	}
	m.links = kept
	return nil
}

func (m *mockRepo) CountRelationships(_ context.Context, caregiverID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.links {
		if l.caregiverID == caregiverID {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) PatientExists(_ context.Context, patientID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.patients[patientID], nil
}

func (m *mockRepo) orphans() []uuid.UUID {
	var out []uuid.UUID
	for id := range m.caregivers {
		linked := false
		for _, l := range m.links {
			if l.caregiverID == id {
				linked = true
				break
			}
		}
		if !linked {
			out = append(out, id)
		}
	}
	return out
}

func (m *mockRepo) PurgeDeleted(_ context.Context, _ time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.orphans()
	for _, id := range ids {
		delete(m.caregivers, id)
	}
	return int64(len(ids)), nil
}

func (m *mockRepo) CountPurgeable(_ context.Context, _ time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.orphans())), nil
}

// linkCount counts entries for the pair, which must never exceed one.
func (m *mockRepo) linkCount(caregiverID, patientID uuid.UUID) int {
	n := 0
	for _, l := range m.links {
		if l.caregiverID == caregiverID && l.patientID == patientID {
			n++
		}
	}
	return n
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, inlineTx{}, zerolog.Nop()), repo
}

func attachReq(patientID uuid.UUID, idCard, label string) AttachRequest {
	return AttachRequest{
		PatientID:    patientID,
		IDCardNumber: idCard,
		Name:         "สมใจ",
		Surname:      "ใจดี",
		Tel:          "0812345678",
		Relationship: label,
	}
}

// -- Tests --

func TestAttach_CreatesCaregiver(t *testing.T) {
	svc, repo := newTestService()
	patient := repo.addPatient()

	res, err := svc.Attach(context.Background(), attachReq(patient, "1100", "ลูก"))
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "1100", res.Caregiver.IDCardNumber)
	require.Len(t, res.Caregiver.Relationships, 1)
	assert.Equal(t, Relationship{User: patient, Relationship: "ลูก"}, res.Caregiver.Relationships[0])
}

func TestAttach_ExistingNationalIDReusesCaregiver(t *testing.T) {
	svc, repo := newTestService()
	p1, p2 := repo.addPatient(), repo.addPatient()

	first, err := svc.Attach(context.Background(), attachReq(p1, "1100", "ลูก"))
	require.NoError(t, err)

	req := attachReq(p2, "1100", "หลาน")
	req.Tel = "0999999999"
	second, err := svc.Attach(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.Caregiver.ID, second.Caregiver.ID)
	assert.Equal(t, "0999999999", second.Caregiver.Tel)
	assert.Len(t, second.Caregiver.Relationships, 2)
	assert.Len(t, repo.caregivers, 1)
}

func TestAttach_IsIdempotent(t *testing.T) {
	svc, repo := newTestService()
	patient := repo.addPatient()

	var id uuid.UUID
	for i := 0; i < 3; i++ {
		res, err := svc.Attach(context.Background(), attachReq(patient, "1100", "ลูก"))
		require.NoError(t, err)
		id = res.Caregiver.ID
	}

	assert.Equal(t, 1, repo.linkCount(id, patient))
	caregivers, err := repo.ListByPatient(context.Background(), patient)
	require.NoError(t, err)
	assert.Len(t, caregivers, 1)
}

func TestAttach_RelabelsExistingRelationship(t *testing.T) {
	svc, repo := newTestService()
	patient := repo.addPatient()

	res, err := svc.Attach(context.Background(), attachReq(patient, "1100", "ลูก"))
	require.NoError(t, err)

	req := attachReq(patient, "", "สามี")
	req.CaregiverID = &res.Caregiver.ID
	updated, err := svc.Attach(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, updated.Caregiver.Relationships, 1)
	assert.Equal(t, "สามี", updated.Caregiver.Relationships[0].Relationship)
	assert.Equal(t, 1, repo.linkCount(res.Caregiver.ID, patient))
	assert.Equal(t, "1100", updated.Caregiver.IDCardNumber)
}

func TestAttach_ExplicitIDOverwritesFields(t *testing.T) {
	svc, repo := newTestService()
	patient := repo.addPatient()

	res, err := svc.Attach(context.Background(), attachReq(patient, "1100", "ลูก"))
	require.NoError(t, err)

	req := attachReq(patient, "2200", "ลูก")
	req.Name = "สมศรี"
	req.CaregiverID = &res.Caregiver.ID
	updated, err := svc.Attach(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, updated.Created)
	assert.Equal(t, "สมศรี", updated.Caregiver.Name)
	assert.Equal(t, "2200", updated.Caregiver.IDCardNumber)
}

func TestAttach_UnknownCaregiverID(t *testing.T) {
	svc, repo := newTestService()
	req := attachReq(repo.addPatient(), "", "ลูก")
	missing := uuid.New()
	req.CaregiverID = &missing

	_, err := svc.Attach(context.Background(), req)
	assert.True(t, apperr.IsNotFound(err))
}

func TestAttach_UnknownPatient(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Attach(context.Background(), attachReq(uuid.New(), "1100", "ลูก"))
	assert.True(t, apperr.IsNotFound(err))
	assert.Empty(t, repo.caregivers)
}

func TestAttach_Validation(t *testing.T) {
	svc, repo := newTestService()
	patient := repo.addPatient()

	tests := []struct {
		name   string
		mutate func(*AttachRequest)
	}{
		{"missing patient", func(r *AttachRequest) { r.PatientID = uuid.Nil }},
		{"blank name", func(r *AttachRequest) { r.Name = "  " }},
		{"blank surname", func(r *AttachRequest) { r.Surname = "" }},
		{"no national id without caregiver id", func(r *AttachRequest) { r.IDCardNumber = " " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := attachReq(patient, "1100", "ลูก")
			tt.mutate(&req)
			_, err := svc.Attach(context.Background(), req)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestAttach_RetryWithoutNationalIDCreatesNothing(t *testing.T) {
	svc, repo := newTestService()
	patient := repo.addPatient()

	for i := 0; i < 2; i++ {
		_, err := svc.Attach(context.Background(), attachReq(patient, "", "ลูก"))
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}
	assert.Empty(t, repo.caregivers)
}

func TestDetach_KeepsCaregiverWithOtherPatients(t *testing.T) {
	svc, repo := newTestService()
	p1, p2 := repo.addPatient(), repo.addPatient()

	res, err := svc.Attach(context.Background(), attachReq(p1, "1100", "ลูก"))
	require.NoError(t, err)
	_, err = svc.Attach(context.Background(), attachReq(p2, "1100", "หลาน"))
	require.NoError(t, err)

	out, err := svc.Detach(context.Background(), res.Caregiver.ID, p1)
	require.NoError(t, err)
	assert.False(t, out.CaregiverDeleted)

	c, err := repo.GetByID(context.Background(), res.Caregiver.ID)
	require.NoError(t, err)
	require.Len(t, c.Relationships, 1)
	assert.Equal(t, p2, c.Relationships[0].User)

	caregivers, err := repo.ListByPatient(context.Background(), p1)
	require.NoError(t, err)
	assert.Empty(t, caregivers)
}

func TestDetach_DeletesOrphanedCaregiver(t *testing.T) {
	svc, repo := newTestService()
	patient := repo.addPatient()

	res, err := svc.Attach(context.Background(), attachReq(patient, "1100", "ลูก"))
	require.NoError(t, err)

	out, err := svc.Detach(context.Background(), res.Caregiver.ID, patient)
	require.NoError(t, err)
	assert.True(t, out.CaregiverDeleted)
	assert.Empty(t, repo.caregivers)
	assert.Empty(t, repo.links)

	_, err = svc.Detach(context.Background(), res.Caregiver.ID, patient)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDetach_UnlinkedPatientStillPrunesOrphan(t *testing.T) {
	svc, repo := newTestService()
	c := &Caregiver{Name: "ก", Surname: "ข"}
	_, err := repo.SaveByIDCard(context.Background(), c)
	require.NoError(t, err)

	out, err := svc.Detach(context.Background(), c.ID, uuid.New())
	require.NoError(t, err)
	assert.True(t, out.CaregiverDeleted)
}

func TestDetach_RequiresUserID(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Detach(context.Background(), uuid.New(), uuid.Nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestForPatient_ReturnsFirstAttached(t *testing.T) {
	svc, repo := newTestService()
	patient := repo.addPatient()

	first, err := svc.Attach(context.Background(), attachReq(patient, "1100", "ลูก"))
	require.NoError(t, err)
	_, err = svc.Attach(context.Background(), attachReq(patient, "2200", "หลาน"))
	require.NoError(t, err)

	got, err := svc.ForPatient(context.Background(), patient)
	require.NoError(t, err)
	assert.Equal(t, first.Caregiver.ID, got.ID)

	_, err = svc.ForPatient(context.Background(), repo.addPatient())
	assert.True(t, apperr.IsNotFound(err))
}

// Every sequence of attaches and detaches leaves each caregiver/patient pair
// linked at most once and no caregiver without a patient.
func TestAttachDetach_SequenceKeepsLinksConsistent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	patients := []uuid.UUID{repo.addPatient(), repo.addPatient(), repo.addPatient()}
	cards := []string{"1100", "2200"}

	for i := 0; i < 24; i++ {
		p := patients[i%len(patients)]
		card := cards[i%len(cards)]
		if i%5 == 4 {
			c, err := repo.GetByIDCard(ctx, card)
			if err == nil {
				_, err = svc.Detach(ctx, c.ID, p)
				require.NoError(t, err)
			}
			continue
		}
		_, err := svc.Attach(ctx, attachReq(p, card, "ญาติ"))
		require.NoError(t, err)
	}

	n, err := repo.CountPurgeable(ctx, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, n)
	for id := range repo.caregivers {
		for _, p := range patients {
			assert.LessOrEqual(t, repo.linkCount(id, p), 1)
		}
	}
}
