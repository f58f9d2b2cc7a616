// Package drawing rasterizes the freehand-canvas widget's stroke data into a
// PNG. The browser sends finished strokes as polylines; the export itself
// happens server-side so the attachment store only ever holds encoded images.
package drawing

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fogleman/gg"
)

// Canvas size limits. The widget's canvas is a fixed-size drawing area; these
// caps just keep a hostile payload from allocating an arbitrary image.
const (
	MaxDimension     = 4096
	DefaultWidth     = 600
	DefaultHeight    = 400
	defaultLineWidth = 3
)

var (
	ErrEmpty       = errors.New("rysunek jest pusty")
	ErrInvalidSize = errors.New("nieprawidłowy rozmiar płótna")
)

// Point is one sample of a stroke, in canvas pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one finished freehand path.
type Stroke struct {
	Points []Point `json:"points"`
	Width  float64 `json:"width,omitempty"`
	Color  string  `json:"color,omitempty"`
}

// Canvas is the full drawing state for one attribute, as posted by the
// browser after each stroke-completion, undo or clear.
type Canvas struct {
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Strokes []Stroke `json:"strokes"`
}

// Empty reports whether the canvas has zero paths. An empty drawing is
// equivalent to "no file".
func (c Canvas) Empty() bool {
	for _, s := range c.Strokes {
		if len(s.Points) > 0 {
			return false
		}
	}
	return true
}

// Render exports the canvas to a PNG image on a white background. Rendering
// an empty canvas is an error; callers remove the pending attachment instead
// of exporting.
func Render(c Canvas) ([]byte, error) {
	width, height := c.Width, c.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if c.Empty() {
		return nil, ErrEmpty
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	for _, stroke := range c.Strokes {
		if len(stroke.Points) == 0 {
			continue
		}
		if stroke.Color != "" {
			dc.SetHexColor(stroke.Color)
		} else {
			dc.SetRGB(0, 0, 0)
		}
		lineWidth := stroke.Width
		if lineWidth <= 0 {
			lineWidth = defaultLineWidth
		}
		dc.SetLineWidth(lineWidth)

		first := stroke.Points[0]
		if len(stroke.Points) == 1 {
			// A tap leaves a dot, not an invisible zero-length line.
			dc.DrawCircle(first.X, first.Y, lineWidth/2)
			dc.Fill()
			continue
		}
		dc.MoveTo(first.X, first.Y)
		for _, p := range stroke.Points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.Stroke()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
