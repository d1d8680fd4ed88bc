package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/arena/internal/dynamo"
	"github.com/san-kum/arena/internal/wallfield"
)

func TestNewModelValidation(t *testing.T) {
	field := openField()
	badParams := DefaultParams()
	badParams.Stiffness = -1

	tests := []struct {
		name   string
		props  []Props
		field  *wallfield.Field
		params Params
		want   error
	}{
		{"no bodies", nil, field, DefaultParams(), dynamo.ErrDimensionMismatch},
		{"zero mass", []Props{{Mass: 0, Inertia: 1, Radius: 1}}, field, DefaultParams(), dynamo.ErrParameterBounds},
		{"zero inertia", []Props{{Mass: 1, Inertia: 0, Radius: 1}}, field, DefaultParams(), dynamo.ErrParameterBounds},
		{"negative radius", []Props{{Mass: 1, Inertia: 1, Radius: -1}}, field, DefaultParams(), dynamo.ErrParameterBounds},
		{"negative drag", []Props{{Mass: 1, Inertia: 1, Radius: 1, DragArea: -1}}, field, DefaultParams(), dynamo.ErrParameterBounds},
		{"NaN mass", []Props{{Mass: math.NaN(), Inertia: 1, Radius: 1}}, field, DefaultParams(), dynamo.ErrParameterBounds},
		{"bad params", []Props{unitCraft}, field, badParams, dynamo.ErrParameterBounds},
		{"nil field", []Props{unitCraft}, nil, DefaultParams(), dynamo.ErrInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(tt.props, tt.field, tt.params)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestModelDims(t *testing.T) {
	m, err := NewModel([]Props{unitCraft, unitCraft, unitCraft}, openField(), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if m.StateDim() != 18 || m.ControlDim() != 6 || m.Bodies() != 3 {
		t.Errorf("dims = %d/%d/%d", m.StateDim(), m.ControlDim(), m.Bodies())
	}
}

func TestModelUsesLargestRadiusForHashing(t *testing.T) {
	props := []Props{
		{Mass: 1, Inertia: 1, Radius: 0.2},
		{Mass: 1, Inertia: 1, Radius: 3},
	}
	m, err := NewModel(props, openField(), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	// 3.1 apart: overlapping (0.2 + 3) but far beyond 2 * 0.2.
	x := dynamo.State{
		0, 0, 0, 0, 0, 0,
		3.1, 0, 0, 0, 0, 0,
	}
	if len(m.Candidates(x)) != 1 {
		t.Fatal("broad phase missed a pair of unequal bodies")
	}
	if m.Contacts(x) != 1 {
		t.Errorf("Contacts = %d, want 1", m.Contacts(x))
	}

	dx := m.Derive(x, dynamo.NewControl(2), 0)
	if dx[dynamo.VX] >= 0 {
		t.Errorf("small body not pushed away: %v", dx[dynamo.VX])
	}
}

func TestModelMaxPenetration(t *testing.T) {
	field, err := wallfield.Box(wallfield.Bounds{XMin: 0, XMax: 10, YMin: 0, YMax: 10}, 4)
	if err != nil {
		t.Fatal(err)
	}
	m, err := NewModel([]Props{unitCraft, unitCraft}, field, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	x := dynamo.State{
		5, 5, 0, 0, 0, 0,
		5, 9.75, 0, 0, 0, 0,
	}
	if got := m.MaxPenetration(x); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("MaxPenetration = %v, want 0.75", got)
	}

	x[dynamo.StateStride+dynamo.Y] = 5
	x[dynamo.StateStride+dynamo.X] = 2.5
	if got := m.MaxPenetration(x); got != 0 {
		t.Errorf("MaxPenetration = %v, want 0", got)
	}
}

func TestModelEnergy(t *testing.T) {
	m, err := NewModel([]Props{unitCraft}, openField(), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	x := dynamo.State{0, 0, 0, 3, 4, 2}
	if e := m.Energy(x); e != 0.5*25+0.5*0.25*4 {
		t.Errorf("Energy = %v", e)
	}

	px, py := Momentum(x, m.Props())
	if px != 3 || py != 4 {
		t.Errorf("Momentum = (%v, %v)", px, py)
	}
}
