package stats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgeRange(t *testing.T) {
	tests := map[int]string{
		-1:  "0-19",
		0:   "0-19",
		19:  "0-19",
		20:  "20-39",
		39:  "20-39",
		40:  "40-59",
		59:  "40-59",
		60:  "60-79",
		79:  "60-79",
		80:  "80+",
		104: "80+",
	}
	for age, want := range tests {
		assert.Equal(t, want, AgeRange(age), "age %d", age)
	}
}

func TestAgeRanges(t *testing.T) {
	assert.Equal(t, []string{"0-19", "20-39", "40-59", "60-79", "80+"}, AgeRanges())
}

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func TestMonthlySeries_OldestToNewest(t *testing.T) {
	rows := []MonthRow{
		{month(2024, time.February), 4},
		{month(2024, time.January), 2},
		{month(2023, time.December), 7},
	}
	assert.Equal(t, []MonthlyCount{
		{Date: "Dec 2023", Count: 7},
		{Date: "Jan 2024", Count: 2},
		{Date: "Feb 2024", Count: 4},
	}, MonthlySeries(rows))
}

func TestMonthlySeries_KeepsSixMostRecent(t *testing.T) {
	var rows []MonthRow
	for m := time.December; m >= time.March; m-- {
		rows = append(rows, MonthRow{month(2024, m), int(m)})
	}
	series := MonthlySeries(rows)
	require.Len(t, series, Months)
	assert.Equal(t, "Jul 2024", series[0].Date)
	assert.Equal(t, "Dec 2024", series[5].Date)
}

func TestMonthlySeries_Empty(t *testing.T) {
	series := MonthlySeries(nil)
	assert.NotNil(t, series)
	assert.Empty(t, series)
}

func TestGenderAgeHistogram(t *testing.T) {
	rows := []AgeRow{
		{Gender: "หญิง", Age: 65, PhysicalTherapy: true, Count: 2},
		{Gender: "หญิง", Age: 70, PhysicalTherapy: false, Count: 1},
		{Gender: "ชาย", Age: 20, PhysicalTherapy: true, Count: 3},
		{Gender: "ชาย", Age: 19, PhysicalTherapy: false, Count: 1},
		{Gender: "ชาย", Age: 85, PhysicalTherapy: true, Count: 1},
	}

	assert.Equal(t, []GenderAgeCount{
		{Gender: "ชาย", AgeRange: "0-19", Count: 1},
		{Gender: "ชาย", AgeRange: "20-39", Count: 3},
		{Gender: "ชาย", AgeRange: "80+", Count: 1},
		{Gender: "หญิง", AgeRange: "60-79", Count: 3},
	}, GenderAgeHistogram(rows, false))

	assert.Equal(t, []GenderAgeCount{
		{Gender: "ชาย", AgeRange: "20-39", Count: 3},
		{Gender: "ชาย", AgeRange: "80+", Count: 1},
		{Gender: "หญิง", AgeRange: "60-79", Count: 2},
	}, GenderAgeHistogram(rows, true))
}

func TestDefaultStats_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(DefaultStats{Active: 3, Ended: 1, Total: 4, PhysicalTherapy: 3})
	require.NoError(t, err)

	var got map[string]int
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]int{
		"กำลังรักษา":              3,
		"จบการรักษา":              1,
		"ผู้ป่วยทั้งหมด":          4,
		"ผู้ป่วยที่ทำกายภาพบำบัด": 3,
	}, got)
}
