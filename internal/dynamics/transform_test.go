package dynamics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"zero", 0, 0},
		{"inside", 1.5, 1.5},
		{"above pi", math.Pi + 0.5, -math.Pi + 0.5},
		{"below minus pi", -math.Pi - 0.5, math.Pi - 0.5},
		{"full turn", 2 * math.Pi, 0},
		{"three turns", 6*math.Pi + 0.25, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAngle(tt.in)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestPlaneSpaceOrthonormal(t *testing.T) {
	normals := []mgl64.Vec3{
		{0, 0, 1},
		{0, 1, 0},
		{1, 0, 0},
		{0.577, 0.577, 0.577},
		{-0.3, 0.1, -0.95},
	}

	for _, n := range normals {
		n = n.Normalize()
		p, q := PlaneSpace(n)

		if math.Abs(p.Len()-1) > 1e-9 || math.Abs(q.Len()-1) > 1e-9 {
			t.Errorf("plane vectors for %v not unit length: %f, %f", n, p.Len(), q.Len())
		}
		if math.Abs(p.Dot(n)) > 1e-9 || math.Abs(q.Dot(n)) > 1e-9 {
			t.Errorf("plane vectors for %v not orthogonal to normal", n)
		}
		if math.Abs(p.Dot(q)) > 1e-9 {
			t.Errorf("plane vectors for %v not mutually orthogonal", n)
		}
	}
}

func TestIntegrateTransformTranslation(t *testing.T) {
	cur := IdentityTransform()
	next := IntegrateTransform(cur, mgl64.Vec3{1, 2, 3}, mgl64.Vec3{}, 0.5)

	want := mgl64.Vec3{0.5, 1, 1.5}
	if !next.Origin.ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("expected origin %v, got %v", want, next.Origin)
	}
	if !next.Basis.ApproxEqualThreshold(mgl64.Ident3(), 1e-12) {
		t.Errorf("pure translation changed the basis")
	}
}

func TestIntegrateTransformRotation(t *testing.T) {
	cur := IdentityTransform()
	// one radian per second about z for one second
	next := IntegrateTransform(cur, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, 1.0)

	want := mgl64.Rotate3DZ(1.0)
	if !next.Basis.ApproxEqualThreshold(want, 1e-6) {
		t.Errorf("expected basis %v, got %v", want, next.Basis)
	}
}

func TestIntegrateTransformClampsAngularStep(t *testing.T) {
	cur := IdentityTransform()
	// far beyond the half-pi per-step cap
	next := IntegrateTransform(cur, mgl64.Vec3{}, mgl64.Vec3{0, 0, 100}, 1.0)

	q := mgl64.Mat4ToQuat(next.Basis.Mat4())
	angle := 2 * math.Acos(mgl64.Clamp(math.Abs(q.W), 0, 1))
	if angle > math.Pi/2+1e-6 {
		t.Errorf("rotation step %f exceeds the cap", angle)
	}
}

func TestTransformInverse(t *testing.T) {
	tr := Transform{
		Basis:  mgl64.Rotate3DY(0.7),
		Origin: mgl64.Vec3{1, -2, 3},
	}

	p := mgl64.Vec3{0.5, 4, -1}
	back := tr.Inverse().TransformPoint(tr.TransformPoint(p))
	if !back.ApproxEqualThreshold(p, 1e-9) {
		t.Errorf("expected round trip to recover %v, got %v", p, back)
	}

	id := tr.Mul(tr.Inverse())
	if !id.Basis.ApproxEqualThreshold(mgl64.Ident3(), 1e-9) {
		t.Errorf("t * t^-1 basis not identity")
	}
	if id.Origin.Len() > 1e-9 {
		t.Errorf("t * t^-1 origin not zero: %v", id.Origin)
	}
}

func TestMatrixToEulerXYZ(t *testing.T) {
	want := mgl64.Vec3{0.3, -0.4, 0.2}
	m := mgl64.Rotate3DX(want.X()).Mul3(mgl64.Rotate3DY(want.Y())).Mul3(mgl64.Rotate3DZ(want.Z()))

	got, ok := matrixToEulerXYZ(m)
	if !ok {
		t.Fatal("unexpected gimbal lock report")
	}
	if !got.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("expected angles %v, got %v", want, got)
	}
}

func TestMatrixToEulerXYZGimbalLock(t *testing.T) {
	m := mgl64.Rotate3DY(math.Pi / 2)
	if _, ok := matrixToEulerXYZ(m); ok {
		t.Error("expected gimbal lock to be reported")
	}
}
