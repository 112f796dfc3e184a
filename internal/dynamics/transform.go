package dynamics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a rigid motion: rotation basis plus origin.
type Transform struct {
	Basis  mgl64.Mat3
	Origin mgl64.Vec3
}

func IdentityTransform() Transform {
	return Transform{Basis: mgl64.Ident3()}
}

// TransformPoint maps a point from local space to the transform's space.
func (t Transform) TransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	return t.Basis.Mul3x1(p).Add(t.Origin)
}

// Mul composes two transforms: (t * u)(p) == t(u(p)).
func (t Transform) Mul(u Transform) Transform {
	return Transform{
		Basis:  t.Basis.Mul3(u.Basis),
		Origin: t.TransformPoint(u.Origin),
	}
}

func (t Transform) Inverse() Transform {
	inv := t.Basis.Transpose()
	return Transform{
		Basis:  inv,
		Origin: inv.Mul3x1(t.Origin.Mul(-1)),
	}
}

// InvXform maps a point from the transform's space back to local space.
func (t Transform) InvXform(p mgl64.Vec3) mgl64.Vec3 {
	return t.Basis.Transpose().Mul3x1(p.Sub(t.Origin))
}

func (t Transform) Rotation() mgl64.Quat {
	return mgl64.Mat4ToQuat(t.Basis.Mat4())
}

func (t *Transform) SetRotation(q mgl64.Quat) {
	t.Basis = q.Normalize().Mat4().Mat3()
}

// IntegrateTransform advances a transform by linear and angular velocity
// over dt using an exponential-map orientation update. The input transform
// is not mutated.
func IntegrateTransform(cur Transform, linVel, angVel mgl64.Vec3, dt float64) Transform {
	out := Transform{Origin: cur.Origin.Add(linVel.Mul(dt))}

	angle := angVel.Len()
	// Limit the angular motion per step so the small-angle series below
	// stays accurate.
	if angle*dt > maxAngularStep {
		angle = maxAngularStep / dt
	}
	var axis mgl64.Vec3
	if angle < 0.001 {
		// Taylor expansion of sin(angle*dt/2)/angle around zero.
		axis = angVel.Mul(0.5*dt - dt*dt*dt*0.020833333333*angle*angle)
	} else {
		axis = angVel.Mul(math.Sin(0.5*angle*dt) / angle)
	}
	dorn := mgl64.Quat{W: math.Cos(0.5 * angle * dt), V: axis}
	orn := dorn.Mul(cur.Rotation()).Normalize()
	out.Basis = orn.Mat4().Mat3()
	return out
}

// maxAngularStep bounds per-step rotation to a half turn.
const maxAngularStep = math.Pi / 2

// NormalizeAngle maps an angle into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < -math.Pi {
		return a + 2*math.Pi
	} else if a > math.Pi {
		return a - 2*math.Pi
	}
	return a
}

// PlaneSpace returns two unit vectors spanning the plane orthogonal to n.
func PlaneSpace(n mgl64.Vec3) (p, q mgl64.Vec3) {
	if math.Abs(n.Z()) > math.Sqrt2/2 {
		// choose p in y-z plane
		a := n.Y()*n.Y() + n.Z()*n.Z()
		k := 1 / math.Sqrt(a)
		p = mgl64.Vec3{0, -n.Z() * k, n.Y() * k}
		q = mgl64.Vec3{a * k, -n.X() * p.Z(), n.X() * p.Y()}
	} else {
		// choose p in x-y plane
		a := n.X()*n.X() + n.Y()*n.Y()
		k := 1 / math.Sqrt(a)
		p = mgl64.Vec3{-n.Y() * k, n.X() * k, 0}
		q = mgl64.Vec3{-n.Z() * p.Y(), n.Z() * p.X(), a * k}
	}
	return p, q
}

// safeNormalize returns v normalized, falling back to a fixed default
// direction for zero-length input rather than producing NaNs.
func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l2 := v.Dot(v)
	if l2 < mgl64.Epsilon*mgl64.Epsilon {
		return mgl64.Vec3{1, 0, 0}
	}
	return v.Mul(1 / math.Sqrt(l2))
}

// mulElem multiplies two vectors componentwise.
func mulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

// skewRows returns the rows of the skew-symmetric cross-product matrix of
// v, so that skew(v)*w == v x w.
func skewRows(v mgl64.Vec3) (r0, r1, r2 mgl64.Vec3) {
	r0 = mgl64.Vec3{0, -v.Z(), v.Y()}
	r1 = mgl64.Vec3{v.Z(), 0, -v.X()}
	r2 = mgl64.Vec3{-v.Y(), v.X(), 0}
	return r0, r1, r2
}

// matrixToEulerXYZ decomposes a rotation matrix into X-Y-Z Euler angles.
// Reports false in the gimbal-lock configuration, where only the sum or
// difference of the x and z rotations is recoverable.
func matrixToEulerXYZ(m mgl64.Mat3) (xyz mgl64.Vec3, ok bool) {
	fi := m.At(0, 2)
	if fi < 1 {
		if fi > -1 {
			return mgl64.Vec3{
				math.Atan2(-m.At(1, 2), m.At(2, 2)),
				math.Asin(fi),
				math.Atan2(-m.At(0, 1), m.At(0, 0)),
			}, true
		}
		return mgl64.Vec3{-math.Atan2(m.At(1, 0), m.At(1, 1)), -math.Pi / 2, 0}, false
	}
	return mgl64.Vec3{math.Atan2(m.At(1, 0), m.At(1, 1)), math.Pi / 2, 0}, false
}
