// Package layout turns a validated template into label coordinates and
// distributes label occupants across pages.
//
// # Coordinates
//
// All coordinates are in points with the origin at the top-left corner of
// the page and y growing downward. This matches the PDF renderer, which is
// configured with a top-left origin, so positions are passed through without
// flipping.
//
// # Preconditions
//
// The functions here do not validate their template. Callers must run
// template.Validate first and refuse templates with blocking issues.
package layout

import (
	"fmt"
	"math"

	"github.com/matzehuels/labelsheet/pkg/template"
)

// previewMargin leaves 5% of the container free around a preview.
const previewMargin = 0.95

// Position is the placement of one label slot on a page.
type Position struct {
	Row    int     `json:"row"`
	Col    int     `json:"col"`
	Index  int     `json:"index"` // 1-based, row-major
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Overlaps reports whether p and q share any interior area.
func (p Position) Overlaps(q Position) bool {
	return p.X < q.X+q.Width && q.X < p.X+p.Width &&
		p.Y < q.Y+q.Height && q.Y < p.Y+p.Height
}

// Content returns the rectangle inside p after applying padding.
func (p Position) Content(padX, padY float64) (x, y, w, h float64) {
	return p.X + padX, p.Y + padY, math.Max(p.Width-2*padX, 0), math.Max(p.Height-2*padY, 0)
}

// ComputePositions returns one page of slots in row-major order.
func ComputePositions(t template.Template) []Position {
	positions := make([]Position, 0, t.SlotsPerPage())
	for row := 0; row < t.Rows; row++ {
		for col := 0; col < t.Columns; col++ {
			positions = append(positions, Position{
				Row:    row,
				Col:    col,
				Index:  len(positions) + 1,
				X:      t.MarginLeft + float64(col)*(t.LabelWidth+t.HorizontalGap),
				Y:      t.MarginTop + float64(row)*(t.LabelHeight+t.VerticalGap),
				Width:  t.LabelWidth,
				Height: t.LabelHeight,
			})
		}
	}
	return positions
}

// CalculateScale returns the factor that fits a page preview into a
// container with a 5% margin.
func CalculateScale(t template.Template, containerWidth, containerHeight float64) float64 {
	if t.PageWidth <= 0 || t.PageHeight <= 0 {
		panic(fmt.Sprintf("layout: page size must be positive, got %gx%g", t.PageWidth, t.PageHeight))
	}
	return previewMargin * math.Min(containerWidth/t.PageWidth, containerHeight/t.PageHeight)
}
