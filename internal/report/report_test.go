package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"regportal/internal/registration"
)

func rec(id, name, course string) registration.Record {
	return registration.Record{
		ID:        id,
		Name:      name,
		Mobile:    "9000000000",
		Course:    course,
		Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestSummarize_OrdersByCountThenName(t *testing.T) {
	s := Summarize([]registration.Record{
		rec("1", "Asha", "Data Science"),
		rec("2", "Ravi", "Web Dev"),
		rec("3", "Sam", "Data Science"),
		rec("4", "Lin", "AI"),
	})

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, []CourseCount{
		{Course: "Data Science", Count: 2},
		{Course: "AI", Count: 1},
		{Course: "Web Dev", Count: 1},
	}, s.Courses)
	assert.Equal(t, map[string]int{"Data Science": 2, "AI": 1, "Web Dev": 1}, s.Tally())
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Empty(t, s.Courses)
	assert.NotNil(t, s.Records)
}

func TestSummarize_ExtraColumnsUnion(t *testing.T) {
	a := rec("1", "Asha", "AI")
	a.Extra = map[string]string{"email": "a@x.io"}
	b := rec("2", "Ravi", "AI")
	b.Extra = map[string]string{"city": "Pune", "email": "r@x.io"}

	s := Summarize([]registration.Record{a, b})
	assert.Equal(t, []string{"city", "email"}, s.ExtraColumns)
}

func TestSummarize_TallyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		courses := rapid.SliceOfN(rapid.StringMatching(`[A-Z][a-z]{0,6}`), 1, 5).Draw(t, "courses")
		n := rapid.IntRange(0, 40).Draw(t, "n")

		recs := make([]registration.Record, n)
		for i := range recs {
			c := rapid.SampledFrom(courses).Draw(t, "course")
			recs[i] = rec("id", "name", c)
		}

		s := Summarize(recs)
		if s.Total != n {
			t.Fatalf("total %d, want %d", s.Total, n)
		}
		sum := 0
		for i, c := range s.Courses {
			sum += c.Count
			if i > 0 {
				prev := s.Courses[i-1]
				if prev.Count < c.Count || (prev.Count == c.Count && prev.Course >= c.Course) {
					t.Fatalf("courses out of order: %v", s.Courses)
				}
			}
		}
		if sum != n {
			t.Fatalf("tally sums to %d, want %d", sum, n)
		}
	})
}

func TestFingerprint(t *testing.T) {
	a := []CourseCount{{"AI", 2}, {"Web", 1}}
	b := []CourseCount{{"AI", 2}, {"Web", 1}}
	c := []CourseCount{{"AI", 1}, {"Web", 2}}

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}

func TestChartRenderer_PNG(t *testing.T) {
	r := NewChartRenderer(time.Minute)
	courses := []CourseCount{{"Data Science", 2}, {"Web Dev", 1}}

	png, err := r.PNG(courses)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))

	again, err := r.PNG(courses)
	require.NoError(t, err)
	assert.Equal(t, png, again)
	assert.Equal(t, 1, r.cache.ItemCount())
}

func TestChartRenderer_NonPositiveTTLDisablesCache(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Minute} {
		r := NewChartRenderer(ttl)
		assert.Nil(t, r.cache)

		png, err := r.PNG([]CourseCount{{"AI", 2}})
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
	}
}

func TestChartRenderer_SingleCourse(t *testing.T) {
	r := NewChartRenderer(time.Minute)
	_, err := r.PNG([]CourseCount{{"AI", 1}})
	require.NoError(t, err)
}

func TestChartRenderer_DataURI(t *testing.T) {
	r := NewChartRenderer(time.Minute)

	uri, err := r.DataURI(nil)
	require.NoError(t, err)
	assert.Empty(t, uri)

	uri, err = r.DataURI([]CourseCount{{"AI", 3}})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	_, err = r.PNG(nil)
	assert.Error(t, err)
}

func TestBuildDashboard(t *testing.T) {
	a := rec("1", "Asha", "AI")
	a.Extra = map[string]string{"email": "a@x.io"}
	b := rec("2", "Ravi", "Web")

	d := BuildDashboard(Summarize([]registration.Record{a, b}), "data:image/png;base64,AA==")

	assert.True(t, d.HasChart())
	assert.Equal(t, 2, d.Total)
	assert.Equal(t, []string{"id", "name", "mobile", "course", "email", "timestamp"}, d.Columns)
	require.Len(t, d.Rows, 2)
	assert.Equal(t, []string{"1", "Asha", "9000000000", "AI", "a@x.io", "2024-05-01 10:00:00"}, d.Rows[0])
	assert.Equal(t, "", d.Rows[1][4])
}

func TestBuildDashboard_NoChart(t *testing.T) {
	d := BuildDashboard(Summarize(nil), "")
	assert.False(t, d.HasChart())
	assert.Equal(t, Placeholder, d.Placeholder)
	assert.Empty(t, d.Rows)

	d = BuildDashboard(Summarize([]registration.Record{rec("1", "Asha", "AI")}), "")
	assert.Equal(t, ChartUnavailable, d.Placeholder)
}
