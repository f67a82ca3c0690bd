package patient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiocare/dashboard/internal/platform/apperr"
)

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func activePatient() *Patient {
	return &Patient{
		UserStatus:      StatusActive,
		PhysicalTherapy: true,
		TherapyHistory:  []TherapyChange{{ChangedAt: t0, Value: true}},
	}
}

func TestSetStatus_EndTreatment(t *testing.T) {
	p := activePatient()
	now := t0.Add(time.Hour)

	change, err := p.SetStatus(StatusEnded, now)
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.False(t, change.Value)
	assert.Equal(t, now, change.ChangedAt)
	assert.False(t, p.PhysicalTherapy)
	assert.Equal(t, StatusEnded, p.UserStatus)
	require.Len(t, p.TherapyHistory, 2)
	assert.False(t, p.TherapyHistory[1].Value)
}

func TestSetStatus_NoOpAppendsNothing(t *testing.T) {
	p := activePatient()

	change, err := p.SetStatus(StatusActive, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, change)
	assert.Len(t, p.TherapyHistory, 1)
}

func TestSetStatus_InvariantOverSequence(t *testing.T) {
	p := activePatient()
	seq := []string{StatusEnded, StatusEnded, StatusActive, StatusEnded, StatusActive, StatusActive}
	flips := 0
	prev := p.PhysicalTherapy
	for i, s := range seq {
		_, err := p.SetStatus(s, t0.Add(time.Duration(i+1)*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, p.UserStatus == StatusActive, p.PhysicalTherapy)
		if p.PhysicalTherapy != prev {
			flips++
			prev = p.PhysicalTherapy
		}
	}
	assert.Len(t, p.TherapyHistory, 1+flips)
	for i := 1; i < len(p.TherapyHistory); i++ {
		assert.True(t, p.TherapyHistory[i].ChangedAt.After(p.TherapyHistory[i-1].ChangedAt))
		assert.NotEqual(t, p.TherapyHistory[i].Value, p.TherapyHistory[i-1].Value)
	}
}

func TestSetStatus_Invalid(t *testing.T) {
	p := activePatient()
	_, err := p.SetStatus("หายแล้ว", t0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, StatusActive, p.UserStatus)
}

func TestCreateRequest_Defaults(t *testing.T) {
	p, err := CreateRequest{
		Username:     "somchai",
		IDCardNumber: "1100100100100",
		Name:         "สมชาย",
		Birthday:     "1980-02-15",
	}.Patient(t0)
	require.NoError(t, err)

	assert.Equal(t, StatusActive, p.UserStatus)
	assert.True(t, p.PhysicalTherapy)
	assert.Equal(t, GenderMale, p.Gender)
	assert.True(t, p.AddDataFirst)
	assert.Equal(t, []TherapyChange{{ChangedAt: t0, Value: true}}, p.TherapyHistory)
	require.NotNil(t, p.Birthday)
	assert.Equal(t, "1980-02-15", p.Birthday.Format("2006-01-02"))
}

func TestCreateRequest_EndedStartsWithoutTherapy(t *testing.T) {
	p, err := CreateRequest{
		Username: "u", IDCardNumber: "1", Name: "n", UserStatus: StatusEnded,
	}.Patient(t0)
	require.NoError(t, err)
	assert.False(t, p.PhysicalTherapy)
}

func TestCreateRequest_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   CreateRequest
		field string
	}{
		{"no username", CreateRequest{IDCardNumber: "1", Name: "n"}, "username"},
		{"no national id", CreateRequest{Username: "u", Name: "n"}, "ID_card_number"},
		{"no name", CreateRequest{Username: "u", IDCardNumber: "1"}, "name"},
		{"bad gender", CreateRequest{Username: "u", IDCardNumber: "1", Name: "n", Gender: "x"}, "gender"},
		{"bad status", CreateRequest{Username: "u", IDCardNumber: "1", Name: "n", UserStatus: "x"}, "userStatus"},
		{"bad birthday", CreateRequest{Username: "u", IDCardNumber: "1", Name: "n", Birthday: "15/02/1980"}, "birthday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Patient(t0)
			var appErr *apperr.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Details["field"])
		})
	}
}

func TestPatchApply_LeavesUnsetFields(t *testing.T) {
	p := &Patient{Username: "u", Name: "old", Surname: "keep", Tel: "081"}
	name := "new"
	require.NoError(t, Patch{Name: &name}.apply(p))

	assert.Equal(t, "new", p.Name)
	assert.Equal(t, "keep", p.Surname)
	assert.Equal(t, "081", p.Tel)
}

func TestPatchApply_ClearsBirthday(t *testing.T) {
	b := t0
	p := &Patient{Birthday: &b}
	empty := ""
	require.NoError(t, Patch{Birthday: &empty}.apply(p))
	assert.Nil(t, p.Birthday)
}

func TestPatchApply_RejectsEmptyUsername(t *testing.T) {
	blank := "  "
	err := Patch{Username: &blank}.apply(&Patient{Username: "u"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestParseBirthday(t *testing.T) {
	b, err := ParseBirthday("1990-12-31T17:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 12, 31, 0, 0, 0, 0, time.UTC), b)
}
