package valuation

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/foliotracker/folio/internal/models"
)

// RenderHistoryChart renders the snapshot history of the last `days` days
// as a PNG line chart. Two series: portfolio value (blue solid) and total
// cost (gray dashed).
func (s *Service) RenderHistoryChart(ctx context.Context, days int) ([]byte, error) {
	snapshots, err := s.History(ctx, days)
	if err != nil {
		return nil, err
	}
	return renderSnapshotChart(snapshots, s.reportingCurrency)
}

func renderSnapshotChart(snapshots []*models.PortfolioSnapshot, currency string) ([]byte, error) {
	if len(snapshots) < 2 {
		return nil, fmt.Errorf("need at least 2 snapshots to chart, got %d", len(snapshots))
	}

	// History comes back most recent first; the chart wants ascending dates.
	ordered := make([]*models.PortfolioSnapshot, len(snapshots))
	copy(ordered, snapshots)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date < ordered[j].Date })

	xValues := make([]time.Time, 0, len(ordered))
	valueY := make([]float64, 0, len(ordered))
	costY := make([]float64, 0, len(ordered))

	for _, snap := range ordered {
		date, err := time.Parse("2006-01-02", snap.Date)
		if err != nil {
			continue
		}
		xValues = append(xValues, date)
		valueY = append(valueY, snap.TotalValue)
		costY = append(costY, snap.TotalCost)
	}
	if len(xValues) < 2 {
		return nil, fmt.Errorf("need at least 2 dated snapshots to chart")
	}

	valueSeries := chart.TimeSeries{
		Name: "Portfolio Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: valueY,
	}

	costSeries := chart.TimeSeries{
		Name: "Total Cost",
		Style: chart.Style{
			StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
			StrokeWidth:     1.5,
			StrokeDashArray: []float64{5.0, 3.0},
		},
		XValues: xValues,
		YValues: costY,
	}

	graph := chart.Chart{
		Title:  "Portfolio History",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0fk %s", f/1000, currency)
				}
				return ""
			},
		},
		Series: []chart.Series{
			valueSeries,
			costSeries,
		},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
