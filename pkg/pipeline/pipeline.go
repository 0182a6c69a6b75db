// Package pipeline turns a label request into a finished PDF.
//
// This package implements the validate → paginate → resolve → draw
// pipeline shared by the CLI and the HTTP API, so both entry points apply
// the same rules.
//
// # Architecture
//
// A request runs through four stages:
//
//  1. Validate: resolve the template (explicit or preset) and check it
//  2. Paginate: expand selections into slots and split them into pages
//  3. Resolve: look up catalog entries and prefetch their symbols
//  4. Draw: render every page and write the PDF
//
// Any blocking template issue stops the request before anything is
// fetched. Cancellation is honoured between pages, and a cancelled or
// failed request never returns partial output.
//
// # Usage
//
//	runner := pipeline.NewRunner(fetcher, template.Builtin(), logger)
//	result, err := runner.Generate(ctx, pipeline.Request{
//	    Preset: "avery5160",
//	    Selections: []layout.Selection{
//	        {Ref: "neo", Quantity: 2},
//	        {Ref: "dmu", Quantity: 1},
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("labels.pdf", result.PDF, 0o644)
package pipeline

import (
	"time"

	"github.com/matzehuels/labelsheet/pkg/catalog"
	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/layout"
	"github.com/matzehuels/labelsheet/pkg/template"
)

// View modes.
const (
	// ViewSets prints one label per set, selected by set ID or code.
	ViewSets = "sets"
	// ViewTypes prints one label per card type, selected as "Color:Type".
	ViewTypes = "types"
)

const (
	// DefaultViewMode is used when a request names none.
	DefaultViewMode = ViewSets

	// DefaultPrefetch bounds concurrent symbol downloads per request.
	DefaultPrefetch = 8

	// MaxLabels bounds the labels one request may print.
	MaxLabels = 10000
)

// ValidViewModes is the set of supported view modes.
var ValidViewModes = map[string]bool{
	ViewSets:  true,
	ViewTypes: true,
}

// Request describes one document. It supports JSON for API requests.
type Request struct {
	// Template is used as-is when set; otherwise Preset is looked up and
	// an empty Preset selects the registry default.
	Template *template.Template `json:"template,omitempty"`
	Preset   string             `json:"preset,omitempty"`

	ViewMode     string             `json:"view_mode,omitempty"`
	Selections   []layout.Selection `json:"selections"`
	Placeholders int                `json:"placeholders,omitempty"`

	DrawOutlines bool `json:"draw_outlines,omitempty"`
	QRCodes      bool `json:"qr_codes,omitempty"`
}

// ValidateViewMode checks that a view mode is supported.
func ValidateViewMode(mode string) error {
	if !ValidViewModes[mode] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid view_mode: %q (must be one of: sets, types)", mode)
	}
	return nil
}

// validateInput checks the non-template parts of the request and applies
// defaults.
func (r *Request) validateInput() error {
	if r.ViewMode == "" {
		r.ViewMode = DefaultViewMode
	}
	if err := ValidateViewMode(r.ViewMode); err != nil {
		return err
	}
	if r.Placeholders < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "placeholders must not be negative, got %d", r.Placeholders)
	}
	total := 0
	for _, s := range r.Selections {
		if s.Ref == "" {
			return errors.New(errors.ErrCodeInvalidInput, "selection without ref")
		}
		if s.Quantity < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "quantity for %q must not be negative, got %d", s.Ref, s.Quantity)
		}
		if s.Quantity > MaxLabels-total {
			return errors.New(errors.ErrCodeInvalidInput, "selections exceed the limit of %d labels per request", MaxLabels)
		}
		total += s.Quantity
	}
	if total == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no items selected")
	}
	return nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// PDF is the finished document.
	PDF []byte

	// PageCount is the number of pages in PDF.
	PageCount int

	// Pages is the slot assignment that was drawn.
	Pages []layout.Page

	// Template is the template the document was laid out on.
	Template template.Template

	// Warnings collects non-blocking template issues and problems that
	// degraded the output, such as a missing symbol.
	Warnings []string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tells where the catalog data came from.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Labels       int
	Placeholders int
	Symbols      int
	ResolveTime  time.Duration
	RenderTime   time.Duration
}

// CacheInfo tracks how fresh the catalog data was.
type CacheInfo struct {
	Catalog catalog.Status
}
