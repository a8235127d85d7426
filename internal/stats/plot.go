package stats

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// PlotOptions sizes are in pixels.
type PlotOptions struct {
	Width  int
	Height int
	Title  string
	XLabel string
	YLabel string
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{
		Width:  800,
		Height: 480,
		Title:  "Best fitness by generation",
		XLabel: "Generation",
		YLabel: "Fitness",
	}
}

const (
	minPlotWidth  = 160
	minPlotHeight = 120
	// One point per pixel.
	plotDPI = 72
)

var (
	plotBackground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	plotLine       = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

// newFitnessPlot builds the chart for history, generation 1 first.
func newFitnessPlot(history []float64, opts PlotOptions) (*plot.Plot, error) {
	if len(history) == 0 {
		return nil, fmt.Errorf("fitness history is empty")
	}
	for i, v := range history {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("fitness history value at generation %d is not finite", i+1)
		}
	}
	if opts.Width < minPlotWidth || opts.Height < minPlotHeight {
		return nil, fmt.Errorf("plot size %dx%d is too small", opts.Width, opts.Height)
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.BackgroundColor = plotBackground
	p.Add(plotter.NewGrid())

	points := make(plotter.XYs, len(history))
	for i, v := range history {
		points[i].X = float64(i + 1)
		points[i].Y = v
	}
	line, scatter, err := plotter.NewLinePoints(points)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Color = plotLine
	line.LineStyle.Width = vg.Points(2)
	scatter.Color = plotLine
	scatter.Shape = draw.CircleGlyph{}
	scatter.Radius = vg.Points(2)
	p.Add(line, scatter)
	return p, nil
}

func renderCanvas(history []float64, opts PlotOptions) (*vgimg.Canvas, error) {
	p, err := newFitnessPlot(history, opts)
	if err != nil {
		return nil, err
	}
	canvas := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.Width), vg.Length(opts.Height)),
		vgimg.UseDPI(plotDPI),
		vgimg.UseBackgroundColor(plotBackground),
	)
	p.Draw(draw.New(canvas))
	return canvas, nil
}

// RenderFitnessPlot draws history as a line chart of opts.Width x opts.Height pixels.
func RenderFitnessPlot(history []float64, opts PlotOptions) (image.Image, error) {
	canvas, err := renderCanvas(history, opts)
	if err != nil {
		return nil, err
	}
	return canvas.Image(), nil
}

func WriteFitnessPlotPNG(path string, history []float64, opts PlotOptions) error {
	canvas, err := renderCanvas(history, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writePNG(file, canvas); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func writePNG(w io.Writer, canvas *vgimg.Canvas) error {
	_, err := vgimg.PngCanvas{Canvas: canvas}.WriteTo(w)
	return err
}
