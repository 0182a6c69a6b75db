package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/labelsheet/pkg/catalog"
	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/layout"
	"github.com/matzehuels/labelsheet/pkg/observability"
	"github.com/matzehuels/labelsheet/pkg/render"
	"github.com/matzehuels/labelsheet/pkg/template"
)

// Runner executes label requests. Both CLI and API use it so that
// validation and rendering rules live in one place.
//
// The Runner holds no per-request state. Multiple goroutines can safely
// use the same Runner; the only shared state is the cache behind Fetcher.
type Runner struct {
	Fetcher *catalog.Fetcher
	Presets *template.Registry
	Logger  *log.Logger

	// Prefetch bounds concurrent symbol downloads. Defaults to DefaultPrefetch.
	Prefetch int
}

// NewRunner creates a runner. A nil presets registry uses the built-in
// presets.
func NewRunner(f *catalog.Fetcher, presets *template.Registry, logger *log.Logger) *Runner {
	if presets == nil {
		presets = template.Builtin()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Fetcher:  f,
		Presets:  presets,
		Logger:   logger,
		Prefetch: DefaultPrefetch,
	}
}

// ResolveTemplate returns the request's explicit template or its preset.
func (r *Runner) ResolveTemplate(req Request) (template.Template, error) {
	if req.Template != nil {
		t := *req.Template
		if t.Name == "" {
			t.Name = "custom"
		}
		return t, nil
	}
	if req.Preset == "" {
		return r.Presets.Default(), nil
	}
	return r.Presets.Get(req.Preset)
}

// Plan is a validated, paginated request.
type Plan struct {
	Template     template.Template
	ViewMode     string
	Positions    []layout.Position
	Pages        []layout.Page
	Labels       int
	Placeholders int
	// Warnings holds the template's non-blocking issues.
	Warnings []string
}

// Plan validates req and assigns its labels to slots without fetching
// anything. A template with blocking issues yields an error carrying all
// of them.
func (r *Runner) Plan(req Request) (*Plan, error) {
	t, err := r.ResolveTemplate(req)
	if err != nil {
		return nil, err
	}
	issues := template.Validate(t)
	if issues.HasBlocking() {
		return nil, issues.Err()
	}
	if err := req.validateInput(); err != nil {
		return nil, err
	}

	slots := t.SlotsPerPage()
	placeholders := layout.ClampPlaceholders(req.Placeholders, slots)
	if placeholders != req.Placeholders {
		r.Logger.Warn("clamped placeholders", "requested", req.Placeholders, "used", placeholders, "slots_per_page", slots)
	}
	occupants := layout.Expand(req.Selections)

	p := &Plan{
		Template:     t,
		ViewMode:     req.ViewMode,
		Positions:    layout.ComputePositions(t),
		Pages:        layout.Paginate(occupants, placeholders, slots),
		Labels:       layout.TotalSlots(occupants),
		Placeholders: placeholders,
	}
	for _, is := range issues.Warnings() {
		p.Warnings = append(p.Warnings, is.String())
	}
	return p, nil
}

// Generate runs the complete pipeline and returns the finished PDF.
// Cancellation is checked between pages; a cancelled or failed request
// returns no output.
func (r *Runner) Generate(ctx context.Context, req Request) (result *Result, err error) {
	start := time.Now()
	plan, err := r.Plan(req)
	if err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnGenerateStart(ctx, plan.Template.Name, plan.Labels)
	defer func() {
		pages := 0
		if result != nil {
			pages = result.PageCount
		}
		hooks.OnGenerateComplete(ctx, pages, time.Since(start), err)
	}()

	result = &Result{
		Pages:    plan.Pages,
		Template: plan.Template,
		Warnings: plan.Warnings,
		Stats: Stats{
			Labels:       plan.Labels,
			Placeholders: plan.Placeholders,
		},
	}

	// Stage 1: Resolve
	resolveStart := time.Now()
	res, err := r.resolve(ctx, plan.ViewMode, req, plan.Pages)
	if err != nil {
		return nil, err
	}
	result.Warnings = append(result.Warnings, res.warnings...)
	result.CacheInfo.Catalog = res.status
	result.Stats.Symbols = res.symbols
	result.Stats.ResolveTime = time.Since(resolveStart)

	r.Logger.Info("resolved labels",
		"labels", plan.Labels,
		"symbols", res.symbols,
		"catalog", res.status,
		"duration", result.Stats.ResolveTime)

	// Stage 2: Draw
	renderStart := time.Now()
	pdf, warnings, err := r.draw(ctx, plan, req, res.contents)
	if err != nil {
		return nil, err
	}
	result.PDF = pdf
	result.PageCount = len(plan.Pages)
	result.Warnings = append(result.Warnings, warnings...)
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Info("rendered pdf",
		"pages", result.PageCount,
		"bytes", len(pdf),
		"duration", result.Stats.RenderTime)

	return result, nil
}

func (r *Runner) draw(ctx context.Context, plan *Plan, req Request, contents map[string]render.Content) ([]byte, []string, error) {
	d := render.NewPDF(plan.Template,
		render.WithOutlines(req.DrawOutlines),
		render.WithTitle("labelsheet: "+plan.Template.Name))
	defer d.Close()

	var warnings []string
	hooks := observability.Pipeline()
	for _, page := range plan.Pages {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		d.BeginPage()
		for _, slot := range page.Slots {
			if slot.Empty() {
				continue
			}
			ref := slot.Occupant.Ref
			err := d.DrawLabel(plan.Positions[slot.Index], contents[ref])
			if err == nil {
				continue
			}
			if !stderrors.Is(err, render.ErrSymbol) {
				return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "draw page %d", page.Number)
			}
			// Drop the symbol so later copies of this label skip it.
			c := contents[ref]
			c.Symbol = nil
			contents[ref] = c
			r.Logger.Warn("skipping symbol", "ref", ref, "err", err)
			warnings = append(warnings, "symbol for "+ref+" could not be drawn")
		}
		hooks.OnPageRendered(ctx, page.Number, page.Occupied())
	}

	var buf bytes.Buffer
	if err := d.Finish(&buf); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "write pdf")
	}
	return buf.Bytes(), warnings, nil
}
