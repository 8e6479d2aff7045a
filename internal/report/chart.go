package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const chartTitle = "Live Registration Distribution by Course"

var (
	palette = []drawing.Color{
		drawing.ColorFromHex("003366"),
		drawing.ColorFromHex("FF9933"),
		drawing.ColorFromHex("0070c0"),
		drawing.ColorFromHex("b74c00"),
	}
	titleColor = drawing.ColorFromHex("003366")
)

// ChartRenderer draws course bar charts and caches the PNG per tally.
type ChartRenderer struct {
	Width  int
	Height int
	cache  *gocache.Cache
}

// NewChartRenderer caches rendered charts for ttl. A ttl <= 0 disables
// the cache; go-cache would otherwise keep every tally forever.
func NewChartRenderer(ttl time.Duration) *ChartRenderer {
	r := &ChartRenderer{Width: 900, Height: 500}
	if ttl > 0 {
		r.cache = gocache.New(ttl, 2*ttl)
	}
	return r
}

// PNG renders the bar chart for courses. It needs at least one course.
func (r *ChartRenderer) PNG(courses []CourseCount) ([]byte, error) {
	if len(courses) == 0 {
		return nil, fmt.Errorf("chart: no courses to plot")
	}

	key := Fingerprint(courses)
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			if b, ok := v.([]byte); ok {
				return b, nil
			}
		}
	}

	maxCount := 0
	bars := make([]chart.Value, len(courses))
	for i, c := range courses {
		color := palette[i%len(palette)]
		bars[i] = chart.Value{
			Label: c.Course,
			Value: float64(c.Count),
			Style: chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
		}
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}

	barWidth := r.Width / (2 * len(courses))
	if barWidth > 120 {
		barWidth = 120
	}
	if barWidth < 8 {
		barWidth = 8
	}

	graph := chart.BarChart{
		Title:      chartTitle,
		TitleStyle: chart.Style{FontSize: 16, FontColor: titleColor},
		Background: chart.Style{Padding: chart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20}},
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   barWidth,
		// An explicit range keeps single-course and equal-count tallies drawable.
		YAxis: chart.YAxis{
			Name:  "Number of Students",
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount + 1)},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart: render: %w", err)
	}
	out := buf.Bytes()
	if r.cache != nil {
		r.cache.SetDefault(key, out)
	}
	return out, nil
}

// DataURI renders the chart as a base64 PNG data URI, or "" when there is nothing to plot.
func (r *ChartRenderer) DataURI(courses []CourseCount) (string, error) {
	if len(courses) == 0 {
		return "", nil
	}
	png, err := r.PNG(courses)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
