package pipeline

import (
	"bytes"
	"context"
	"io"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/labelsheet/pkg/cache"
	"github.com/matzehuels/labelsheet/pkg/catalog"
	"github.com/matzehuels/labelsheet/pkg/errors"
	"github.com/matzehuels/labelsheet/pkg/httputil"
	"github.com/matzehuels/labelsheet/pkg/layout"
	"github.com/matzehuels/labelsheet/pkg/observability"
	"github.com/matzehuels/labelsheet/pkg/template"
)

const symbolSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 32 32"><path d="M 2 2 L 30 2 L 16 30 L 2 2"/></svg>`

type stubSource struct {
	sets    []catalog.Set
	err     error
	fetches atomic.Int32
}

func (s *stubSource) FetchAll(context.Context) ([]catalog.Set, error) {
	s.fetches.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.sets, nil
}

func (s *stubSource) FetchAsset(_ context.Context, ref string) ([]byte, error) {
	if ref == "https://svgs.scryfall.io/missing.svg" {
		return nil, httputil.ErrNotFound
	}
	return []byte(symbolSVG), nil
}

func (s *stubSource) FetchSymbology(context.Context) (catalog.Symbology, error) {
	return catalog.Symbology{"{W}": "https://svgs.scryfall.io/card-symbols/W.svg"}, nil
}

func newStubSource() *stubSource {
	return &stubSource{sets: []catalog.Set{
		{ID: "id-neo", Code: "neo", Name: "Kamigawa: Neon Dynasty", CardCount: 302, ReleasedAt: "2022-02-18",
			IconSVGURI: "https://svgs.scryfall.io/sets/neo.svg", ScryfallURI: "https://scryfall.com/sets/neo"},
		{ID: "id-dom", Code: "dom", Name: "Dominaria", CardCount: 280, ReleasedAt: "2018-04-27",
			IconSVGURI: "https://svgs.scryfall.io/sets/dom.svg"},
		{ID: "id-old", Code: "old", Name: "Lost Set", CardCount: 100,
			IconSVGURI: "https://svgs.scryfall.io/missing.svg"},
	}}
}

func testRunner(t *testing.T, src catalog.Source) *Runner {
	t.Helper()
	logger := log.New(io.Discard)
	mgr, err := cache.NewManager(cache.Options{Dir: t.TempDir(), Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { mgr.Close() })
	f := catalog.NewFetcher(src, mgr, catalog.WithRetry(2, time.Millisecond), catalog.WithLogger(logger))
	return NewRunner(f, template.Builtin(), logger)
}

func TestGenerate(t *testing.T) {
	r := testRunner(t, newStubSource())

	result, err := r.Generate(context.Background(), Request{
		Preset: "avery5160",
		Selections: []layout.Selection{
			{Ref: "id-neo", Quantity: 2},
			{Ref: "DOM", Quantity: 1},
		},
		DrawOutlines: true,
		QRCodes:      true,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !bytes.HasPrefix(result.PDF, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
	if result.PageCount != 1 || len(result.Pages) != 1 {
		t.Errorf("PageCount = %d, want 1", result.PageCount)
	}
	if result.Stats.Labels != 3 || result.Stats.Symbols != 2 {
		t.Errorf("Stats = %+v", result.Stats)
	}
	if result.CacheInfo.Catalog != catalog.Fresh {
		t.Errorf("catalog status = %v, want fresh", result.CacheInfo.Catalog)
	}
	if result.Template.Name != "avery5160" {
		t.Errorf("template = %q", result.Template.Name)
	}
}

func TestGeneratePageCount(t *testing.T) {
	r := testRunner(t, newStubSource())

	tests := []struct {
		name         string
		quantity     int
		placeholders int
		wantPages    int
	}{
		{"one full page", 30, 0, 1},
		{"spills over", 31, 0, 2},
		{"placeholders push to next page", 26, 5, 2},
		{"placeholders clamped", 1, 100, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Generate(context.Background(), Request{
				Selections:   []layout.Selection{{Ref: "neo", Quantity: tt.quantity}},
				Placeholders: tt.placeholders,
			})
			if err != nil {
				t.Fatal(err)
			}
			if result.PageCount != tt.wantPages {
				t.Errorf("PageCount = %d, want %d", result.PageCount, tt.wantPages)
			}
		})
	}
}

func TestGenerateBlockingTemplate(t *testing.T) {
	src := newStubSource()
	r := testRunner(t, src)
	bad := template.Builtin().Default()
	bad.Columns = 4

	_, err := r.Generate(context.Background(), Request{
		Template:   &bad,
		Selections: []layout.Selection{{Ref: "neo", Quantity: 1}},
	})
	if !errors.Is(err, errors.ErrCodeLayoutExceedsPage) {
		t.Fatalf("expected LAYOUT_EXCEEDS_PAGE, got %v", err)
	}
	if len(errors.GetIssues(err)) == 0 {
		t.Error("error should carry the validation issues")
	}
	if n := src.fetches.Load(); n != 0 {
		t.Errorf("catalog fetched %d times for an invalid template", n)
	}
}

func TestGenerateInvalidInput(t *testing.T) {
	r := testRunner(t, newStubSource())

	tests := []struct {
		name string
		req  Request
		code errors.Code
	}{
		{"empty selection", Request{}, errors.ErrCodeInvalidInput},
		{"zero quantities", Request{Selections: []layout.Selection{{Ref: "neo"}}}, errors.ErrCodeInvalidInput},
		{"negative quantity", Request{Selections: []layout.Selection{{Ref: "neo", Quantity: -1}}}, errors.ErrCodeInvalidInput},
		{"negative placeholders", Request{Placeholders: -1, Selections: []layout.Selection{{Ref: "neo", Quantity: 1}}}, errors.ErrCodeInvalidInput},
		{"bad view mode", Request{ViewMode: "cards", Selections: []layout.Selection{{Ref: "neo", Quantity: 1}}}, errors.ErrCodeInvalidInput},
		{"unknown set", Request{Selections: []layout.Selection{{Ref: "zzz", Quantity: 1}}}, errors.ErrCodeInvalidInput},
		{"unknown preset", Request{Preset: "avery0000", Selections: []layout.Selection{{Ref: "neo", Quantity: 1}}}, errors.ErrCodeUnknownPreset},
		{"bad card type", Request{ViewMode: ViewTypes, Selections: []layout.Selection{{Ref: "Creature", Quantity: 1}}}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Generate(context.Background(), tt.req)
			if !errors.Is(err, tt.code) {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestGenerateTypesView(t *testing.T) {
	r := testRunner(t, newStubSource())

	result, err := r.Generate(context.Background(), Request{
		ViewMode: ViewTypes,
		Selections: []layout.Selection{
			{Ref: "White:Creature", Quantity: 1},
			{Ref: "Blue:Instant", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.PageCount != 1 || result.Stats.Symbols != 1 {
		t.Errorf("result = %+v", result.Stats)
	}
}

func TestGenerateMissingSymbolIsWarning(t *testing.T) {
	r := testRunner(t, newStubSource())

	result, err := r.Generate(context.Background(), Request{
		Selections: []layout.Selection{{Ref: "old", Quantity: 2}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one", result.Warnings)
	}
	if len(result.PDF) == 0 {
		t.Error("expected a PDF despite the missing symbol")
	}
}

func TestGenerateSourceUnavailable(t *testing.T) {
	src := newStubSource()
	src.err = httputil.Retryable(httputil.ErrNetwork)
	r := testRunner(t, src)

	_, err := r.Generate(context.Background(), Request{
		Selections: []layout.Selection{{Ref: "neo", Quantity: 1}},
	})
	if !errors.Is(err, errors.ErrCodeSourceUnavailable) {
		t.Errorf("expected SOURCE_UNAVAILABLE, got %v", err)
	}
}

type cancelAfterPage struct {
	observability.NoopPipelineHooks
	page   int
	cancel context.CancelFunc
}

func (h cancelAfterPage) OnPageRendered(_ context.Context, page, _ int) {
	if page == h.page {
		h.cancel()
	}
}

func TestGenerateCancelledBetweenPages(t *testing.T) {
	r := testRunner(t, newStubSource())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	observability.SetPipelineHooks(cancelAfterPage{page: 1, cancel: cancel})
	t.Cleanup(observability.Reset)

	result, err := r.Generate(ctx, Request{
		Selections: []layout.Selection{{Ref: "neo", Quantity: 61}},
	})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result != nil {
		t.Error("a cancelled request must not return output")
	}
}

func TestPlan(t *testing.T) {
	r := testRunner(t, newStubSource())

	plan, err := r.Plan(Request{
		Selections:   []layout.Selection{{Ref: "neo", Quantity: 2}},
		Placeholders: 40,
	})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Placeholders != 29 {
		t.Errorf("Placeholders = %d, want 29", plan.Placeholders)
	}
	if len(plan.Pages) != 2 || len(plan.Positions) != 30 {
		t.Errorf("pages = %d, positions = %d", len(plan.Pages), len(plan.Positions))
	}
	if plan.ViewMode != ViewSets {
		t.Errorf("ViewMode = %q", plan.ViewMode)
	}
	if !plan.Pages[0].Slots[28].Empty() || plan.Pages[0].Slots[29].Empty() {
		t.Error("first content slot should follow the placeholders")
	}
}

func TestPlanWarnings(t *testing.T) {
	r := testRunner(t, newStubSource())
	tiny := template.Template{
		PageWidth: 612, PageHeight: 792, Columns: 20, Rows: 20,
		LabelWidth: 10, LabelHeight: 10,
	}

	plan, err := r.Plan(Request{Template: &tiny, Selections: []layout.Selection{{Ref: "neo", Quantity: 1}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Warnings) != 3 {
		t.Errorf("Warnings = %v, want grid and two label size warnings", plan.Warnings)
	}
	if plan.Template.Name != "custom" {
		t.Errorf("Name = %q, want custom", plan.Template.Name)
	}
}

func TestPlanLabelLimit(t *testing.T) {
	r := testRunner(t, newStubSource())

	tests := []struct {
		name       string
		selections []layout.Selection
	}{
		{"sum overflows int", []layout.Selection{{Ref: "neo", Quantity: math.MaxInt}, {Ref: "dom", Quantity: 1}}},
		{"single huge quantity", []layout.Selection{{Ref: "neo", Quantity: 1_000_000_000_000}}},
		{"one over the limit", []layout.Selection{{Ref: "neo", Quantity: MaxLabels}, {Ref: "dom", Quantity: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := r.Plan(Request{Selections: tt.selections})
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Fatalf("expected INVALID_INPUT, got %v", err)
			}
			if plan != nil {
				t.Error("a rejected request must not return a plan")
			}
		})
	}

	plan, err := r.Plan(Request{Selections: []layout.Selection{{Ref: "neo", Quantity: MaxLabels}}})
	if err != nil {
		t.Fatal(err)
	}
	if plan.Labels != MaxLabels || len(plan.Pages) != (MaxLabels+29)/30 {
		t.Errorf("labels = %d, pages = %d", plan.Labels, len(plan.Pages))
	}
}

func TestPlanOversizedGrid(t *testing.T) {
	r := testRunner(t, newStubSource())
	huge := template.Template{
		PageWidth: 612, PageHeight: 792, Columns: math.MaxInt, Rows: 2,
		LabelWidth: 1e-12, LabelHeight: 1e-12,
	}

	_, err := r.Plan(Request{Template: &huge, Selections: []layout.Selection{{Ref: "neo", Quantity: 1}}})
	if !errors.Is(err, errors.ErrCodeGridInvalid) {
		t.Errorf("expected GRID_INVALID, got %v", err)
	}
}
