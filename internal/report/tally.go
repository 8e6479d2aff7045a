// Package report turns the stored registrations into the admin dashboard:
// per-course tallies, a bar chart and a tabular view.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"

	"regportal/internal/registration"
)

// CourseCount is the number of registrations for one course.
type CourseCount struct {
	Course string `json:"course"`
	Count  int    `json:"count"`
}

// Summary is everything the dashboard shows.
type Summary struct {
	Total        int                   `json:"total"`
	Courses      []CourseCount         `json:"courses"`
	ExtraColumns []string              `json:"extra_columns"`
	Records      []registration.Record `json:"records"`
}

// Summarize counts records per course, most popular first (ties by name),
// and collects the sorted union of optional field names.
func Summarize(recs []registration.Record) Summary {
	counts := make(map[string]int)
	extras := make(map[string]struct{})
	for _, r := range recs {
		counts[r.Course]++
		for k := range r.Extra {
			extras[k] = struct{}{}
		}
	}

	courses := make([]CourseCount, 0, len(counts))
	for c, n := range counts {
		courses = append(courses, CourseCount{Course: c, Count: n})
	}
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Count != courses[j].Count {
			return courses[i].Count > courses[j].Count
		}
		return courses[i].Course < courses[j].Course
	})

	cols := make([]string, 0, len(extras))
	for k := range extras {
		cols = append(cols, k)
	}
	sort.Strings(cols)

	if recs == nil {
		recs = []registration.Record{}
	}
	return Summary{
		Total:        len(recs),
		Courses:      courses,
		ExtraColumns: cols,
		Records:      recs,
	}
}

// Tally returns the course counts as a map.
func (s Summary) Tally() map[string]int {
	out := make(map[string]int, len(s.Courses))
	for _, c := range s.Courses {
		out[c.Course] = c.Count
	}
	return out
}

// Fingerprint identifies an ordered tally; equal tallies share a chart.
func Fingerprint(courses []CourseCount) string {
	h := sha256.New()
	for _, c := range courses {
		h.Write([]byte(strconv.Quote(c.Course)))
		h.Write([]byte{'='})
		h.Write([]byte(strconv.Itoa(c.Count)))
		h.Write([]byte{';'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
