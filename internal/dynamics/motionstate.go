package dynamics

// MotionState mirrors a body's transform to and from an external
// representation (a renderer, a recorded trajectory, a network snapshot).
// The world reads it once at construction and writes it after every tick.
type MotionState interface {
	GetWorldTransform(out *Transform)
	SetWorldTransform(in Transform)
}

// DefaultMotionState stores the transform in place.
type DefaultMotionState struct {
	Transform Transform
}

func NewDefaultMotionState(t Transform) *DefaultMotionState {
	return &DefaultMotionState{Transform: t}
}

func (m *DefaultMotionState) GetWorldTransform(out *Transform) {
	*out = m.Transform
}

func (m *DefaultMotionState) SetWorldTransform(in Transform) {
	m.Transform = in
}
