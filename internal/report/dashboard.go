package report

import (
	"html/template"

	"regportal/internal/registration"
)

// Placeholders shown instead of the chart.
const (
	Placeholder      = "No registrations found yet."
	ChartUnavailable = "Not enough data for the graph yet."
)

// Dashboard is the view model of the admin dashboard template.
type Dashboard struct {
	Total       int
	Courses     []CourseCount
	ChartURI    template.URL
	Placeholder string
	Columns     []string
	Rows        [][]string
}

// HasChart reports whether a chart image is available.
func (d Dashboard) HasChart() bool { return d.ChartURI != "" }

// BuildDashboard lays out the table: fixed columns, then one column per
// optional field, then the timestamp.
func BuildDashboard(s Summary, chartURI string) Dashboard {
	cols := []string{"id", "name", "mobile", "course"}
	cols = append(cols, s.ExtraColumns...)
	cols = append(cols, "timestamp")

	rows := make([][]string, 0, len(s.Records))
	for _, r := range s.Records {
		rows = append(rows, row(r, s.ExtraColumns))
	}

	placeholder := Placeholder
	if s.Total > 0 {
		placeholder = ChartUnavailable
	}

	// chartURI comes from DataURI over our own PNG bytes.
	return Dashboard{
		Total:       s.Total,
		Courses:     s.Courses,
		ChartURI:    template.URL(chartURI),
		Placeholder: placeholder,
		Columns:     cols,
		Rows:        rows,
	}
}

func row(r registration.Record, extras []string) []string {
	out := make([]string, 0, 5+len(extras))
	out = append(out, r.ID, r.Name, r.Mobile, r.Course)
	for _, k := range extras {
		out = append(out, r.Extra[k])
	}
	return append(out, r.FormattedTimestamp())
}
