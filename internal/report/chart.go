package report

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/xuri/excelize/v2"

	"github.com/bunyodbekab/finans-assistent-bot/internal/i18n"
	"github.com/bunyodbekab/finans-assistent-bot/internal/model"
)

// embedTotalsChart renders a per-currency income/expense bar chart and
// places it next to the totals table. Chart failures only skip the picture.
func (g *Generator) embedTotalsChart(f *excelize.File, sheet string, loc model.Locale, totals []CurrencyTotal) {
	png, err := renderTotalsChart(loc, totals)
	if err != nil {
		g.log.WithError(err).Warn("failed to render totals chart")
		return
	}
	if png == nil {
		return
	}
	if err := f.AddPictureFromBytes(sheet, "F2", &excelize.Picture{
		Extension: ".png",
		File:      png,
		Format:    &excelize.GraphicOptions{ScaleX: 0.75, ScaleY: 0.75},
	}); err != nil {
		g.log.WithError(err).Warn("failed to embed totals chart")
	}
}

func renderTotalsChart(loc model.Locale, totals []CurrencyTotal) ([]byte, error) {
	bars := make([]chart.Value, 0, 2*len(totals))
	flat := true
	for _, total := range totals {
		income := total.Income.InexactFloat64()
		expense := total.Expense.InexactFloat64()
		if income != expense || income != 0 {
			flat = false
		}
		bars = append(bars,
			chart.Value{
				Label: fmt.Sprintf("%s %s", i18n.T(loc, i18n.KeyColTotalIncome), total.Currency),
				Value: income,
				Style: chart.Style{FillColor: chart.ColorGreen, StrokeColor: chart.ColorGreen},
			},
			chart.Value{
				Label: fmt.Sprintf("%s %s", i18n.T(loc, i18n.KeyColTotalExpense), total.Currency),
				Value: expense,
				Style: chart.Style{FillColor: chart.ColorRed, StrokeColor: chart.ColorRed},
			},
		)
	}
	// go-chart cannot render a zero value range.
	if len(bars) == 0 || flat {
		return nil, nil
	}

	graph := chart.BarChart{
		Title:    i18n.T(loc, i18n.KeySheetTotals),
		Width:    640,
		Height:   360,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render bar chart: %w", err)
	}
	return buf.Bytes(), nil
}
