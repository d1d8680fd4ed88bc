package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/arena/internal/broadphase"
	"github.com/san-kum/arena/internal/dynamo"
	"github.com/san-kum/arena/internal/wallfield"
)

// Model exposes the arena force model as a dynamo.System. Every Derive call
// reruns the broad phase on the positions it was given, so each RK stage sees
// contacts consistent with its own intermediate state.
//
// A Model reuses its hash grid and position buffer and must not be shared
// between goroutines.
type Model struct {
	props  []Props
	field  *wallfield.Field
	params Params
	radius float64

	grid *broadphase.Grid
	pos  []mgl64.Vec2
}

func NewModel(props []Props, field *wallfield.Field, params Params) (*Model, error) {
	if len(props) == 0 {
		return nil, fmt.Errorf("no bodies: %w", dynamo.ErrDimensionMismatch)
	}
	if err := ValidateProps(props); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if field == nil {
		return nil, fmt.Errorf("nil wall field: %w", dynamo.ErrInvalidField)
	}
	return &Model{
		props:  props,
		field:  field,
		params: params,
		radius: MaxRadius(props),
		grid:   broadphase.NewGrid(),
		pos:    make([]mgl64.Vec2, len(props)),
	}, nil
}

func (m *Model) StateDim() int   { return len(m.props) * dynamo.StateStride }
func (m *Model) ControlDim() int { return len(m.props) * dynamo.ControlStride }

func (m *Model) Bodies() int             { return len(m.props) }
func (m *Model) Props() []Props          { return m.props }
func (m *Model) Field() *wallfield.Field { return m.field }
func (m *Model) Params() Params          { return m.params }

// Derive returns a freshly allocated derivative of x.
func (m *Model) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, len(x))
	Evaluate(dx, Inputs{
		State:   x,
		Props:   m.props,
		Control: u,
		Pairs:   m.Candidates(x),
		Field:   m.field,
		Params:  m.params,
	})
	return dx
}

// Candidates runs the broad phase on x. The slice is reused by the next call.
func (m *Model) Candidates(x dynamo.State) []broadphase.Pair {
	for i := range m.pos {
		s := x.Body(i)
		m.pos[i] = mgl64.Vec2{s[dynamo.X], s[dynamo.Y]}
	}
	return m.grid.Find(m.pos, m.radius)
}

// Contacts counts candidate pairs whose circles actually overlap.
func (m *Model) Contacts(x dynamo.State) int {
	n := 0
	for _, p := range m.Candidates(x) {
		a, b := x.Body(p.A), x.Body(p.B)
		d := mgl64.Vec2{b[dynamo.X] - a[dynamo.X], b[dynamo.Y] - a[dynamo.Y]}.Len() + m.params.Epsilon
		if d < m.props[p.A].Radius+m.props[p.B].Radius {
			n++
		}
	}
	return n
}

// MaxPenetration is the deepest wall overlap over all bodies, 0 when none
// touches a wall.
func (m *Model) MaxPenetration(x dynamo.State) float64 {
	for i := range m.pos {
		s := x.Body(i)
		m.pos[i] = mgl64.Vec2{s[dynamo.X], s[dynamo.Y]}
	}
	samples := make([]wallfield.Sample, len(m.pos))
	m.field.SampleBatch(m.pos, samples)

	deepest := 0.0
	for i, s := range samples {
		if depth := m.props[i].Radius - s.Dist; depth > deepest {
			deepest = depth
		}
	}
	return deepest
}

// Energy is the kinetic energy of all bodies. Spring energy stored in open
// contacts is not counted.
func (m *Model) Energy(x dynamo.State) float64 {
	return KineticEnergy(x, m.props)
}
