package leaderboardservice

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	leaderboarddomain "github.com/code-arena-club/arena-backend/app/modules/leaderboard/domain"
)

// ChartPalette carries the colors used by leaderboard chart rendering.
type ChartPalette struct {
	Background drawing.Color
	BarFill    drawing.Color
	BarStroke  drawing.Color
	TextColor  drawing.Color
}

// DefaultChartPalette is a dark theme matching the platform frontend.
var DefaultChartPalette = ChartPalette{
	Background: drawing.Color{R: 24, G: 26, B: 27, A: 255},
	BarFill:    drawing.Color{R: 66, G: 133, B: 244, A: 255},
	BarStroke:  drawing.Color{R: 138, G: 180, B: 248, A: 255},
	TextColor:  drawing.Color{R: 232, G: 234, B: 237, A: 255},
}

// GenerateStandingsChart produces a PNG bar chart of the top-N total scores.
// Rows must already be sorted; only the first limit rows are drawn.
func GenerateStandingsChart(rows leaderboarddomain.Rows, limit int, palette ChartPalette) ([]byte, error) {
	if limit <= 0 || limit > len(rows) {
		limit = len(rows)
	}
	if limit == 0 {
		return renderNoDataPlaceholder(palette)
	}

	bars := make([]chart.Value, 0, limit)
	maxTotal := 0
	for _, row := range rows[:limit] {
		label := row.User.Username
		if label == "" {
			label = row.User.ID.String()[:8]
		}
		if row.TotalScore > maxTotal {
			maxTotal = row.TotalScore
		}
		bars = append(bars, chart.Value{
			Label: label,
			Value: float64(row.TotalScore),
			Style: chart.Style{
				FillColor:   palette.BarFill,
				StrokeColor: palette.BarStroke,
				StrokeWidth: 1,
			},
		})
	}

	graph := chart.BarChart{
		Title:    fmt.Sprintf("Top %d standings", limit),
		Width:    800,
		Height:   400,
		BarWidth: 40,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.Style{
			FontColor: palette.TextColor,
		},
		YAxis: chart.YAxis{
			Name: "Total score",
			Style: chart.Style{
				FontColor: palette.TextColor,
			},
			// An explicit range keeps rendering valid when every plotted
			// total is equal, which the auto-range rejects.
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxTotal) + 1},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder(palette ChartPalette) ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No standings yet"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontColor(palette.TextColor)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
