package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/couchcryptid/energy-analytics-service/internal/domain"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrEmptySeries is returned when there is nothing to draw.
var ErrEmptySeries = errors.New("no data to chart")

const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 5 * vg.Inch
	// maxTicks bounds the number of labelled periods on the x axis.
	maxTicks = 12
)

var (
	actualColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	predictedColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// MonthlyChartPNG draws the monthly average series as a line chart. Points
// are placed by position; the x axis is labelled with period keys.
func MonthlyChartPNG(series []domain.PeriodAverage) ([]byte, error) {
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}

	p := plot.New()
	p.Title.Text = "Average billed energy per month"
	p.X.Label.Text = "Period"
	p.Y.Label.Text = "Energy (MWh)"

	points := make(plotter.XYs, len(series))
	labels := make([]string, len(series))
	for i, s := range series {
		points[i].X = float64(i)
		points[i].Y = s.Average
		labels[i] = s.Period
	}

	line, marks, err := plotter.NewLinePoints(points)
	if err != nil {
		return nil, fmt.Errorf("monthly line: %w", err)
	}
	line.Color = actualColor
	marks.GlyphStyle.Color = actualColor
	marks.GlyphStyle.Radius = vg.Points(2)

	p.Add(plotter.NewGrid(), line, marks)
	p.X.Tick.Marker = periodTicks(labels)

	return render(p)
}

// FitChartPNG draws predicted against actual values for the train and test
// splits with the identity line for reference.
func FitChartPNG(pairs domain.FitPairs) ([]byte, error) {
	if len(pairs.Train) == 0 && len(pairs.Test) == 0 {
		return nil, ErrEmptySeries
	}

	p := plot.New()
	p.Title.Text = "Predicted vs actual"
	p.X.Label.Text = "Actual (MWh)"
	p.Y.Label.Text = "Predicted (MWh)"
	p.Add(plotter.NewGrid())

	maxValue := 0.0
	for _, split := range []struct {
		name   string
		points []domain.FitPoint
		color  color.Color
	}{
		{"train", pairs.Train, actualColor},
		{"test", pairs.Test, predictedColor},
	} {
		if len(split.points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(split.points))
		for i, fp := range split.points {
			xys[i].X, xys[i].Y = fp.Actual, fp.Predicted
			maxValue = max(maxValue, math.Abs(fp.Actual), math.Abs(fp.Predicted))
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("%s scatter: %w", split.name, err)
		}
		scatter.GlyphStyle.Color = split.color
		scatter.GlyphStyle.Radius = vg.Points(2)
		p.Add(scatter)
		p.Legend.Add(split.name, scatter)
	}

	identity := plotter.NewFunction(func(x float64) float64 { return x })
	identity.Color = color.Black
	identity.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	p.Add(identity)

	if maxValue > 0 {
		p.X.Min, p.Y.Min = 0, 0
		p.X.Max, p.Y.Max = maxValue*1.05, maxValue*1.05
	}
	p.Legend.Top = true
	p.Legend.Left = true

	return render(p)
}

// SeriesChartPNG draws one entity's actual and predicted values over time.
func SeriesChartPNG(s domain.EntitySeries) ([]byte, error) {
	if len(s.Points) == 0 {
		return nil, ErrEmptySeries
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Entity %d: actual vs predicted", s.EntityID)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Energy (MWh)"

	actual := make(plotter.XYs, len(s.Points))
	predicted := make(plotter.XYs, len(s.Points))
	labels := make([]string, len(s.Points))
	for i, pt := range s.Points {
		actual[i] = plotter.XY{X: float64(i), Y: pt.Actual}
		predicted[i] = plotter.XY{X: float64(i), Y: pt.Predicted}
		labels[i] = pt.Date.Format("2006-01")
	}

	la, err := plotter.NewLine(actual)
	if err != nil {
		return nil, fmt.Errorf("actual line: %w", err)
	}
	la.Color = actualColor
	lp, err := plotter.NewLine(predicted)
	if err != nil {
		return nil, fmt.Errorf("predicted line: %w", err)
	}
	lp.Color = predictedColor
	lp.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

	p.Add(plotter.NewGrid(), la, lp)
	p.Legend.Add("actual", la)
	p.Legend.Add("predicted", lp)
	p.Legend.Top = true
	p.X.Tick.Marker = periodTicks(labels)

	return render(p)
}

// periodTicks labels at most maxTicks evenly spaced positions.
func periodTicks(labels []string) plot.ConstantTicks {
	step := max(1, int(math.Ceil(float64(len(labels))/maxTicks)))
	ticks := make(plot.ConstantTicks, 0, maxTicks+1)
	for i := 0; i < len(labels); i += step {
		ticks = append(ticks, plot.Tick{Value: float64(i), Label: labels[i]})
	}
	return ticks
}

func render(p *plot.Plot) ([]byte, error) {
	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}
