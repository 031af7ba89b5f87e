// Package timeline renders transition timing diagrams as PNG images.
//
// A diagram has one bar per phase. Each bar shows the lead time before the
// active span (frame deferral), the active span itself (explicit duration
// or probed timeout) and the fallback margin the watcher arms past the
// expected end.
package timeline

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Phase is one bar in a diagram.
type Phase struct {
	// Label names the row: enter, leave, appear.
	Label string
	// Lead is time before the active span starts (frame deferral).
	Lead time.Duration
	// Active is the span completion is expected to take.
	Active time.Duration
	// Fallback is the safety margin armed past the active span.
	Fallback time.Duration
	// Note annotates where the timing came from: explicit, probed,
	// hook-driven.
	Note string
}

// Diagram is a titled set of phase bars sharing one time axis.
type Diagram struct {
	Title  string
	Phases []Phase
}

const (
	imgWidth  = 720
	gutter    = 72
	rightPad  = 16
	headerH   = 26
	rowH      = 30
	barH      = 12
	footerH   = 26
	tickCount = 4
)

var (
	colBackground = color.RGBA{255, 255, 255, 255}
	colText       = color.RGBA{40, 40, 40, 255}
	colFaint      = color.RGBA{150, 150, 150, 255}
	colGrid       = color.RGBA{228, 228, 228, 255}
	colLead       = color.RGBA{205, 205, 205, 255}
	colFallback   = color.RGBA{235, 215, 160, 255}

	// One active-span color per phase kind, keyed by row label.
	colActive = map[string]color.RGBA{
		"enter":  {86, 156, 110, 255},
		"appear": {96, 130, 190, 255},
		"leave":  {200, 130, 80, 255},
	}
	colActiveDefault = color.RGBA{120, 120, 120, 255}
)

// Render draws the diagram into a new image.
func Render(d Diagram) *image.RGBA {
	height := headerH + rowH*len(d.Phases) + footerH
	img := image.NewRGBA(image.Rect(0, 0, imgWidth, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{colBackground}, image.Point{}, draw.Src)

	total := d.span()
	plotX0 := gutter
	plotX1 := imgWidth - rightPad
	pxPerMs := float64(plotX1-plotX0) / float64(total.Milliseconds())

	drawGrid(img, d, total, plotX0, plotX1, pxPerMs)

	label(img, 8, headerH-10, d.Title, colText)

	for i, p := range d.Phases {
		rowTop := headerH + i*rowH
		barTop := rowTop + (rowH-barH)/2
		label(img, 8, barTop+barH-2, p.Label, colText)

		x := plotX0
		x = segment(img, x, barTop, p.Lead, pxPerMs, colLead)
		active := colActive[p.Label]
		if active.A == 0 {
			active = colActiveDefault
		}
		x = segment(img, x, barTop, p.Active, pxPerMs, active)
		x = segment(img, x, barTop, p.Fallback, pxPerMs, colFallback)

		note := p.Note
		if span := p.Active; span > 0 {
			note = fmt.Sprintf("%dms %s", span.Milliseconds(), p.Note)
		}
		label(img, x+6, barTop+barH-2, note, colFaint)
	}

	return img
}

// Encode renders the diagram and writes it to w as PNG.
func Encode(w io.Writer, d Diagram) error {
	return png.Encode(w, Render(d))
}

// WritePNG renders the diagram into the file at path.
func WritePNG(path string, d Diagram) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, d); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// span is the axis length: the longest bar, with a floor so empty
// diagrams still get a sane scale.
func (d Diagram) span() time.Duration {
	total := 100 * time.Millisecond
	for _, p := range d.Phases {
		if t := p.Lead + p.Active + p.Fallback; t > total {
			total = t
		}
	}
	return total
}

// segment fills one bar segment and returns the x it ended at.
func segment(img *image.RGBA, x, top int, span time.Duration, pxPerMs float64, c color.RGBA) int {
	if span <= 0 {
		return x
	}
	w := int(float64(span.Milliseconds()) * pxPerMs)
	if w < 1 {
		w = 1
	}
	draw.Draw(img, image.Rect(x, top, x+w, top+barH), &image.Uniform{c}, image.Point{}, draw.Src)
	return x + w
}

// drawGrid draws vertical time ticks with millisecond labels.
func drawGrid(img *image.RGBA, d Diagram, total time.Duration, x0, x1 int, pxPerMs float64) {
	bottom := headerH + rowH*len(d.Phases)
	for i := 0; i <= tickCount; i++ {
		ms := total.Milliseconds() * int64(i) / tickCount
		x := x0 + int(float64(ms)*pxPerMs)
		if x >= x1 {
			x = x1 - 1
		}
		for y := headerH; y < bottom; y++ {
			img.SetRGBA(x, y, colGrid)
		}
		label(img, x-4, bottom+14, fmt.Sprintf("%d", ms), colFaint)
	}
	label(img, x1-14, bottom+14, "ms", colFaint)
}

// label stamps small text at the given baseline position.
func label(img *image.RGBA, x, y int, text string, c color.RGBA) {
	drawer := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{c},
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(text)
}
