package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// RenderChart draws the convergence envelope to a PNG file. A dashed
// horizontal line marks the final cost the envelope converged to, with
// the value annotated next to it.
func RenderChart(envelope []float64, executions int, path string) error {
	if len(envelope) == 0 {
		return fmt.Errorf("envelope has no points")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Convergence chart for %d executions", executions)
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Cost"
	p.Add(plotter.NewGrid())

	points := make(plotter.XYs, len(envelope))
	for i, cost := range envelope {
		points[i].X = float64(i)
		points[i].Y = cost
	}
	line, err := plotter.NewLine(points)
	if err != nil {
		return fmt.Errorf("failed to build envelope line: %w", err)
	}
	line.Color = color.RGBA{B: 255, A: 255}
	p.Add(line)

	final := envelope[len(envelope)-1]
	asymptote, err := plotter.NewLine(plotter.XYs{
		{X: 0, Y: final},
		{X: float64(len(envelope) - 1), Y: final},
	})
	if err != nil {
		return fmt.Errorf("failed to build asymptote line: %w", err)
	}
	asymptote.Color = color.RGBA{R: 255, A: 255}
	asymptote.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(asymptote)

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: float64(len(envelope)-1) * 0.6, Y: final}},
		Labels: []string{fmt.Sprintf("%.0f", final)},
	})
	if err != nil {
		return fmt.Errorf("failed to build annotation: %w", err)
	}
	p.Add(labels)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", path, err)
	}
	return nil
}
