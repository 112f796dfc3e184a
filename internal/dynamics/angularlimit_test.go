package dynamics

import (
	"math"
	"testing"
)

func TestAngularLimitDefaultUnlimited(t *testing.T) {
	l := NewAngularLimit()

	for _, angle := range []float64{-3, -1, 0, 1, 3} {
		if l.Test(angle) {
			t.Errorf("unlimited axis reported a violation at %f", angle)
		}
		if l.Correction() != 0 || l.Sign() != 0 {
			t.Errorf("unlimited axis produced correction %f sign %f", l.Correction(), l.Sign())
		}
	}
}

func TestAngularLimitTest(t *testing.T) {
	tests := []struct {
		name           string
		angle          float64
		wantViolation  bool
		wantCorrection float64
		wantSign       float64
	}{
		{"inside", 0, false, 0, 0},
		{"at low bound", -1, false, 0, 0},
		{"at high bound", 1, false, 0, 0},
		{"below", -1.5, true, 0.5, 1},
		{"above", 1.5, true, -0.5, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewAngularLimit()
			l.Set(-1, 1)

			got := l.Test(tt.angle)
			if got != tt.wantViolation {
				t.Fatalf("expected violation %v, got %v", tt.wantViolation, got)
			}
			if got != l.IsLimit() {
				t.Errorf("Test and IsLimit disagree")
			}
			if math.Abs(l.Correction()-tt.wantCorrection) > 1e-12 {
				t.Errorf("expected correction %f, got %f", tt.wantCorrection, l.Correction())
			}
			if l.Sign() != tt.wantSign {
				t.Errorf("expected sign %f, got %f", tt.wantSign, l.Sign())
			}
		})
	}
}

func TestAngularLimitBounds(t *testing.T) {
	l := NewAngularLimit()
	l.Set(0.2, 1.4)

	if math.Abs(l.Low()-0.2) > 1e-12 {
		t.Errorf("expected low 0.2, got %f", l.Low())
	}
	if math.Abs(l.High()-1.4) > 1e-12 {
		t.Errorf("expected high 1.4, got %f", l.High())
	}
	if math.Abs(l.Half()-0.6) > 1e-12 {
		t.Errorf("expected half range 0.6, got %f", l.Half())
	}
}

func TestAngularLimitFit(t *testing.T) {
	l := NewAngularLimit()
	l.Set(-0.5, 0.5)

	tests := []struct {
		name  string
		angle float64
		want  float64
	}{
		{"inside untouched", 0.3, 0.3},
		{"clamped to high", 1.2, 0.5},
		{"clamped to low", -2.0, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := l.Fit(tt.angle)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestAngularLimitWrapAround(t *testing.T) {
	// range straddling pi, so the center normalizes past the wrap
	l := NewAngularLimit()
	l.Set(math.Pi-0.2, math.Pi+0.4)

	if l.Test(math.Pi - 0.1) {
		t.Error("angle inside the wrapped range reported a violation")
	}
	if !l.Test(-math.Pi + 0.5) {
		t.Fatal("angle past the wrapped high bound not reported")
	}
	if math.Abs(l.Correction()+0.1) > 1e-12 {
		t.Errorf("expected correction -0.1, got %f", l.Correction())
	}
	if l.Sign() != -1 {
		t.Errorf("expected sign -1, got %f", l.Sign())
	}
}
