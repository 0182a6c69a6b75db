package units

import (
	"math"
	"testing"
)

func TestToBase(t *testing.T) {
	tests := []struct {
		v    float64
		u    Unit
		want float64
	}{
		{1, Inch, 72},
		{8.5, Inch, 612},
		{25.4, Millimeter, 72},
		{2.54, Centimeter, 72},
		{10, Point, 10},
		{1, Pica, 12},
		{0, Millimeter, 0},
	}
	for _, tt := range tests {
		got := ToBase(tt.v, tt.u)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ToBase(%v, %s) = %v, want %v", tt.v, tt.u, got, tt.want)
		}
	}
}

func TestFromBaseRounds(t *testing.T) {
	tests := []struct {
		v    float64
		u    Unit
		want float64
	}{
		{72, Inch, 1},
		{612, Inch, 8.5},
		{100, Millimeter, 35.28},
		{595.2, Millimeter, 209.97},
		{13.5, Inch, 0.19},
		{1, Point, 1},
	}
	for _, tt := range tests {
		if got := FromBase(tt.v, tt.u); got != tt.want {
			t.Errorf("FromBase(%v, %s) = %v, want %v", tt.v, tt.u, got, tt.want)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for _, u := range All() {
		for _, v := range []float64{0, 0.25, 1, 3.14, 210, 297} {
			got := FromBase(ToBase(v, u), u)
			if math.Abs(got-v) > 0.005 {
				t.Errorf("round trip %v %s = %v", v, u, got)
			}
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Unit
		wantErr bool
	}{
		{"pt", Point, false},
		{"Inches", Inch, false},
		{" mm ", Millimeter, false},
		{"centimeter", Centimeter, false},
		{"pica", Pica, false},
		{"furlong", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnknownUnitPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown unit")
		}
	}()
	ToBase(1, Unit("ell"))
}

func TestValid(t *testing.T) {
	if !Inch.Valid() {
		t.Error("Inch should be valid")
	}
	if Unit("ell").Valid() {
		t.Error("ell should not be valid")
	}
}
