package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Shape is the collision-geometry boundary this package depends on. The
// core only ever asks a shape for its bounds and its local inertia;
// support functions, narrow phase and broadphase live elsewhere.
type Shape interface {
	// AABB returns the world-space bounds of the shape under t.
	AABB(t Transform) (min, max mgl64.Vec3)

	// CalculateLocalInertia returns the diagonal of the body-local
	// inertia tensor for the given mass.
	CalculateLocalInertia(mass float64) mgl64.Vec3
}

// Box is an axis-aligned box shape given by half extents.
type Box struct {
	HalfExtents mgl64.Vec3
}

func NewBox(halfExtents mgl64.Vec3) *Box {
	return &Box{HalfExtents: halfExtents}
}

func (b *Box) AABB(t Transform) (mgl64.Vec3, mgl64.Vec3) {
	// project each local axis onto the world axes
	var ext mgl64.Vec3
	for i := 0; i < 3; i++ {
		ext[i] = math.Abs(t.Basis.At(i, 0))*b.HalfExtents.X() +
			math.Abs(t.Basis.At(i, 1))*b.HalfExtents.Y() +
			math.Abs(t.Basis.At(i, 2))*b.HalfExtents.Z()
	}
	return t.Origin.Sub(ext), t.Origin.Add(ext)
}

func (b *Box) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	x := 2 * b.HalfExtents.X()
	y := 2 * b.HalfExtents.Y()
	z := 2 * b.HalfExtents.Z()
	k := mass / 12
	return mgl64.Vec3{k * (y*y + z*z), k * (x*x + z*z), k * (x*x + y*y)}
}

// Sphere is a sphere shape of a given radius.
type Sphere struct {
	Radius float64
}

func NewSphere(radius float64) *Sphere {
	return &Sphere{Radius: radius}
}

func (s *Sphere) AABB(t Transform) (mgl64.Vec3, mgl64.Vec3) {
	ext := mgl64.Vec3{s.Radius, s.Radius, s.Radius}
	return t.Origin.Sub(ext), t.Origin.Add(ext)
}

func (s *Sphere) CalculateLocalInertia(mass float64) mgl64.Vec3 {
	i := 0.4 * mass * s.Radius * s.Radius
	return mgl64.Vec3{i, i, i}
}
