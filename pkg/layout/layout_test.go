package layout

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/labelsheet/pkg/template"
)

func TestComputePositionsBuiltins(t *testing.T) {
	for _, tpl := range template.Builtin().All() {
		t.Run(tpl.Name, func(t *testing.T) {
			positions := ComputePositions(tpl)
			if len(positions) != tpl.Columns*tpl.Rows {
				t.Fatalf("got %d positions, want %d", len(positions), tpl.Columns*tpl.Rows)
			}
			for i, p := range positions {
				if p.Index != i+1 {
					t.Errorf("position %d has index %d", i, p.Index)
				}
				if p.Row != i/tpl.Columns || p.Col != i%tpl.Columns {
					t.Errorf("position %d at row %d col %d, not row-major", i, p.Row, p.Col)
				}
				if p.X+p.Width > tpl.PageWidth-tpl.MarginRight+1e-6 || p.Y+p.Height > tpl.PageHeight-tpl.MarginBottom+1e-6 {
					t.Errorf("position %d leaves the printable area: %+v", i, p)
				}
			}
			for i := range positions {
				for j := i + 1; j < len(positions); j++ {
					if positions[i].Overlaps(positions[j]) {
						t.Fatalf("positions %d and %d overlap", i+1, j+1)
					}
				}
			}
		})
	}
}

func TestComputePositionsFormula(t *testing.T) {
	tpl := template.Template{
		PageWidth: 612, PageHeight: 792,
		MarginTop: 54, MarginLeft: 13.5,
		Columns: 3, Rows: 10,
		HorizontalGap: 9, VerticalGap: 2,
		LabelWidth: 189, LabelHeight: 72,
	}
	positions := ComputePositions(tpl)

	want := []Position{
		{Row: 0, Col: 0, Index: 1, X: 13.5, Y: 54, Width: 189, Height: 72},
		{Row: 0, Col: 1, Index: 2, X: 211.5, Y: 54, Width: 189, Height: 72},
		{Row: 0, Col: 2, Index: 3, X: 409.5, Y: 54, Width: 189, Height: 72},
		{Row: 1, Col: 0, Index: 4, X: 13.5, Y: 128, Width: 189, Height: 72},
	}
	if diff := cmp.Diff(want, positions[:4]); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}

	last := positions[len(positions)-1]
	if last.Index != 30 || last.X != 409.5 || last.Y != 54+9*74 {
		t.Errorf("last position = %+v", last)
	}
}

func TestOverlaps(t *testing.T) {
	a := Position{X: 0, Y: 0, Width: 10, Height: 10}
	tests := []struct {
		name string
		b    Position
		want bool
	}{
		{"touching edge", Position{X: 10, Y: 0, Width: 10, Height: 10}, false},
		{"touching bottom", Position{X: 0, Y: 10, Width: 10, Height: 10}, false},
		{"intersecting", Position{X: 5, Y: 5, Width: 10, Height: 10}, true},
		{"contained", Position{X: 2, Y: 2, Width: 2, Height: 2}, true},
		{"apart", Position{X: 20, Y: 20, Width: 1, Height: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContent(t *testing.T) {
	p := Position{X: 10, Y: 20, Width: 100, Height: 50}
	x, y, w, h := p.Content(7.2, 1)
	if math.Abs(x-17.2) > 1e-9 || y != 21 || math.Abs(w-85.6) > 1e-9 || h != 48 {
		t.Errorf("Content() = %v %v %v %v", x, y, w, h)
	}
	_, _, w, h = p.Content(60, 30)
	if w != 0 || h != 0 {
		t.Errorf("oversized padding should clamp to zero, got %v %v", w, h)
	}
}

func TestCalculateScale(t *testing.T) {
	tpl := template.Template{PageWidth: 612, PageHeight: 792}
	tests := []struct {
		cw, ch float64
		want   float64
	}{
		{612, 792, 0.95},
		{306, 792, 0.475},
		{1224, 792, 0.95},
		{1224, 1584, 1.9},
	}
	for _, tt := range tests {
		if got := CalculateScale(tpl, tt.cw, tt.ch); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("CalculateScale(%v, %v) = %v, want %v", tt.cw, tt.ch, got, tt.want)
		}
	}
}
