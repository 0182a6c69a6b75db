// Package template describes physical label sheets and validates them.
//
// A [Template] holds every dimension of a sheet in points: the page, its
// four margins, the label grid and its gaps, and the label size. [Validate]
// runs every structural and page-fit check and returns all findings at once
// so callers can present a complete list of corrections.
//
// Named presets live in a [Registry] loaded from TOML. Every preset passes
// through [Validate] at load time, exactly like a user-supplied template.
package template

import (
	"fmt"
	"math"

	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/units"
)

// Thresholds for non-blocking warnings.
const (
	// MaxGridCells is the cell count above which GRID_TOO_LARGE is reported.
	MaxGridCells = 200

	// MaxSlotsPerPage is the hard cell limit; larger grids are GRID_INVALID.
	MaxSlotsPerPage = 10000

	// MinLabelSize is the smallest comfortable label edge (a quarter inch).
	MinLabelSize = 18.0

	// fitTolerance absorbs float noise in presets given to three decimals.
	fitTolerance = 1e-6
)

// Template is a label-sheet description. All lengths are in points.
type Template struct {
	Name        string `json:"name,omitempty" toml:"-"`
	Description string `json:"description,omitempty" toml:"description"`

	PageWidth  float64 `json:"page_width" toml:"page_width"`
	PageHeight float64 `json:"page_height" toml:"page_height"`

	MarginTop    float64 `json:"margin_top" toml:"margin_top"`
	MarginRight  float64 `json:"margin_right" toml:"margin_right"`
	MarginBottom float64 `json:"margin_bottom" toml:"margin_bottom"`
	MarginLeft   float64 `json:"margin_left" toml:"margin_left"`

	Columns int `json:"columns" toml:"columns"`
	Rows    int `json:"rows" toml:"rows"`

	HorizontalGap float64 `json:"horizontal_gap" toml:"horizontal_gap"`
	VerticalGap   float64 `json:"vertical_gap" toml:"vertical_gap"`

	LabelWidth  float64 `json:"label_width" toml:"label_width"`
	LabelHeight float64 `json:"label_height" toml:"label_height"`

	// Inner padding between a label's edge and its content.
	PaddingX float64 `json:"padding_x" toml:"padding_x"`
	PaddingY float64 `json:"padding_y" toml:"padding_y"`
}

// SlotsPerPage returns the number of labels on one sheet. It is only
// meaningful for a template that passed Validate.
func (t Template) SlotsPerPage() int {
	return t.Columns * t.Rows
}

// cells returns Columns*Rows without integer overflow.
func (t Template) cells() float64 {
	return float64(t.Columns) * float64(t.Rows)
}

// PageFit reports whether the label grid fits inside the printable area.
type PageFit struct {
	Fits            bool    `json:"fits"`
	PrintableWidth  float64 `json:"printable_width"`
	PrintableHeight float64 `json:"printable_height"`
	RequiredWidth   float64 `json:"required_width"`
	RequiredHeight  float64 `json:"required_height"`
}

// Fit computes the page-fit result for t. It is recomputed on every call.
func (t Template) Fit() PageFit {
	f := PageFit{
		PrintableWidth:  t.PageWidth - t.MarginLeft - t.MarginRight,
		PrintableHeight: t.PageHeight - t.MarginTop - t.MarginBottom,
		RequiredWidth:   float64(t.Columns)*t.LabelWidth + float64(t.Columns-1)*t.HorizontalGap,
		RequiredHeight:  float64(t.Rows)*t.LabelHeight + float64(t.Rows-1)*t.VerticalGap,
	}
	f.Fits = f.RequiredWidth <= f.PrintableWidth+fitTolerance &&
		f.RequiredHeight <= f.PrintableHeight+fitTolerance
	return f
}

type field struct {
	name  string
	value float64
}

func (t Template) sizes() []field {
	return []field{
		{"page_width", t.PageWidth},
		{"page_height", t.PageHeight},
		{"label_width", t.LabelWidth},
		{"label_height", t.LabelHeight},
	}
}

func (t Template) spacings() []field {
	return []field{
		{"margin_top", t.MarginTop},
		{"margin_right", t.MarginRight},
		{"margin_bottom", t.MarginBottom},
		{"margin_left", t.MarginLeft},
		{"horizontal_gap", t.HorizontalGap},
		{"vertical_gap", t.VerticalGap},
		{"padding_x", t.PaddingX},
		{"padding_y", t.PaddingY},
	}
}

// Validate checks t and returns every issue found. No check short-circuits
// another. The page-fit check is skipped only when a dimension is not a
// finite number or the grid is empty, since the fit is undefined then.
func Validate(t Template) errors.Issues {
	var issues errors.Issues
	blocking := func(field string, code errors.Code, format string, args ...any) {
		issues = append(issues, errors.Issue{
			Field:    field,
			Code:     code,
			Severity: errors.SeverityError,
			Message:  fmt.Sprintf(format, args...),
		})
	}
	warning := func(field string, code errors.Code, format string, args ...any) {
		issues = append(issues, errors.Issue{
			Field:    field,
			Code:     code,
			Severity: errors.SeverityWarning,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	finite := true
	all := append(t.sizes(), t.spacings()...)
	for _, f := range all {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			blocking(f.name, errors.ErrCodeValueInvalid, "%s must be a finite number", f.name)
			finite = false
		}
	}

	for _, f := range t.sizes() {
		if isFinite(f.value) && f.value <= 0 {
			blocking(f.name, errors.ErrCodeValueNegative, "%s must be greater than 0, got %g", f.name, f.value)
		}
	}
	for _, f := range t.spacings() {
		if isFinite(f.value) && f.value < 0 {
			blocking(f.name, errors.ErrCodeValueNegative, "%s must not be negative, got %g", f.name, f.value)
		}
	}

	gridOK := true
	if t.Columns < 1 {
		blocking("columns", errors.ErrCodeGridInvalid, "columns must be at least 1, got %d", t.Columns)
		gridOK = false
	}
	if t.Rows < 1 {
		blocking("rows", errors.ErrCodeGridInvalid, "rows must be at least 1, got %d", t.Rows)
		gridOK = false
	}
	if gridOK && t.cells() > MaxSlotsPerPage {
		blocking("columns", errors.ErrCodeGridInvalid,
			"%d x %d labels per page exceeds the limit of %d", t.Columns, t.Rows, MaxSlotsPerPage)
		gridOK = false
	}

	if finite && gridOK {
		fit := t.Fit()
		if fit.RequiredWidth > fit.PrintableWidth+fitTolerance {
			blocking("columns", errors.ErrCodeLayoutExceedsPage,
				"labels need %.2fpt of width but only %.2fpt is printable",
				fit.RequiredWidth, fit.PrintableWidth)
		}
		if fit.RequiredHeight > fit.PrintableHeight+fitTolerance {
			blocking("rows", errors.ErrCodeLayoutExceedsPage,
				"labels need %.2fpt of height but only %.2fpt is printable",
				fit.RequiredHeight, fit.PrintableHeight)
		}
	}

	if t.Columns >= 1 && t.Rows >= 1 && t.cells() > MaxGridCells {
		warning("columns", errors.ErrCodeGridTooLarge,
			"%.0f labels per page exceeds the recommended maximum of %d", t.cells(), MaxGridCells)
	}
	if isFinite(t.LabelWidth) && t.LabelWidth > 0 && t.LabelWidth < MinLabelSize {
		warning("label_width", errors.ErrCodeLabelTooSmall,
			"label width %.2fpt is below %.0fpt", t.LabelWidth, MinLabelSize)
	}
	if isFinite(t.LabelHeight) && t.LabelHeight > 0 && t.LabelHeight < MinLabelSize {
		warning("label_height", errors.ErrCodeLabelTooSmall,
			"label height %.2fpt is below %.0fpt", t.LabelHeight, MinLabelSize)
	}

	return issues
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// In returns a copy of t with every length converted from points to u,
// rounded to two decimals. Use it for display only.
func (t Template) In(u units.Unit) Template {
	return t.mapLengths(func(v float64) float64 { return units.FromBase(v, u) })
}

// FromUnit returns a copy of t with every length interpreted as u and
// converted to points.
func (t Template) FromUnit(u units.Unit) Template {
	return t.mapLengths(func(v float64) float64 { return units.ToBase(v, u) })
}

func (t Template) mapLengths(fn func(float64) float64) Template {
	out := t
	for _, p := range []*float64{
		&out.PageWidth, &out.PageHeight,
		&out.MarginTop, &out.MarginRight, &out.MarginBottom, &out.MarginLeft,
		&out.HorizontalGap, &out.VerticalGap,
		&out.LabelWidth, &out.LabelHeight,
		&out.PaddingX, &out.PaddingY,
	} {
		*p = fn(*p)
	}
	return out
}
