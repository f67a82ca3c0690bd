package stats

import (
	"encoding/json"
	"sort"
	"time"
)

// Labels used as JSON keys of defaultStats.
const (
	KeyActive          = "กำลังรักษา"
	KeyEnded           = "จบการรักษา"
	KeyTotal           = "ผู้ป่วยทั้งหมด"
	KeyPhysicalTherapy = "ผู้ป่วยที่ทำกายภาพบำบัด"
)

// Months is how many year-months the monthly series cover.
const Months = 6

// MonthLayout renders a month as "Jan 2024".
const MonthLayout = "Jan 2006"

type DefaultStats struct {
	Active          int
	Ended           int
	Total           int
	PhysicalTherapy int
}

// MarshalJSON keys the counts by their Thai labels, which struct tags
// cannot carry.
func (d DefaultStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]int{
		KeyActive:          d.Active,
		KeyEnded:           d.Ended,
		KeyTotal:           d.Total,
		KeyPhysicalTherapy: d.PhysicalTherapy,
	})
}

type MonthlyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type GenderAgeCount struct {
	Gender   string `json:"gender"`
	AgeRange string `json:"ageRange"`
	Count    int    `json:"count"`
}

type Report struct {
	DefaultStats                  DefaultStats     `json:"defaultStats"`
	MonthlyApplications           []MonthlyCount   `json:"monthlyApplications"`
	MonthlyApplications2          []MonthlyCount   `json:"monthlyApplications2"`
	GenderAgeStats                []GenderAgeCount `json:"genderAgeStats"`
	GenderAgeStatsPhysicalTherapy []GenderAgeCount `json:"genderAgeStatsPhysicalTherapy"`
}

// MonthRow is one grouped creation month as returned by the store.
type MonthRow struct {
	Month time.Time
	Count int
}

// AgeRow is one (gender, age, physicalTherapy) group as returned by the store.
type AgeRow struct {
	Gender          string
	Age             int
	PhysicalTherapy bool
	Count           int
}

// ageBuckets are inclusive-lower, exclusive-upper. The last one is open.
var ageBuckets = []struct {
	min   int
	label string
}{
	{0, "0-19"},
	{20, "20-39"},
	{40, "40-59"},
	{60, "60-79"},
	{80, "80+"},
}

// AgeRanges lists the bucket labels in ascending order.
func AgeRanges() []string {
	out := make([]string, len(ageBuckets))
	for i, b := range ageBuckets {
		out[i] = b.label
	}
	return out
}

// AgeRange returns the bucket label for age. Negative ages, from birthdays
// in the future, fall into the first bucket.
func AgeRange(age int) string {
	label := ageBuckets[0].label
	for _, b := range ageBuckets {
		if age >= b.min {
			label = b.label
		}
	}
	return label
}

func bucketIndex(label string) int {
	for i, b := range ageBuckets {
		if b.label == label {
			return i
		}
	}
	return len(ageBuckets)
}

// MonthlySeries turns newest-first month rows into at most Months labelled
// counts ordered oldest to newest.
func MonthlySeries(rows []MonthRow) []MonthlyCount {
	if len(rows) > Months {
		rows = rows[:Months]
	}
	out := make([]MonthlyCount, len(rows))
	for i, r := range rows {
		out[len(rows)-1-i] = MonthlyCount{Date: r.Month.Format(MonthLayout), Count: r.Count}
	}
	return out
}

// GenderAgeHistogram folds age rows into (gender, bucket) counts ordered by
// gender then bucket. therapyOnly keeps rows with physicalTherapy set.
func GenderAgeHistogram(rows []AgeRow, therapyOnly bool) []GenderAgeCount {
	type key struct{ gender, bucket string }
	counts := make(map[key]int)
	for _, r := range rows {
		if therapyOnly && !r.PhysicalTherapy {
			continue
		}
		counts[key{r.Gender, AgeRange(r.Age)}] += r.Count
	}

	out := make([]GenderAgeCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, GenderAgeCount{Gender: k.gender, AgeRange: k.bucket, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Gender != out[j].Gender {
			return out[i].Gender < out[j].Gender
		}
		return bucketIndex(out[i].AgeRange) < bucketIndex(out[j].AgeRange)
	})
	return out
}
