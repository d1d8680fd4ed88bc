package dynamo

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/zeebo/xxh3"
)

const (
	// StateStride is the number of state entries per body: x, y, θ, vx, vy, ω.
	StateStride = 6
	// ControlStride is the number of control entries per body: thrust, torque.
	ControlStride = 2
)

// Offsets into a body's state block.
const (
	X = iota
	Y
	Theta
	VX
	VY
	Omega
)

type State []float64

// NewState allocates a zeroed state for n bodies.
func NewState(n int) State {
	return make(State, n*StateStride)
}

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// Bodies returns the number of bodies the state holds.
func (s State) Bodies() int {
	return len(s) / StateStride
}

// Body returns the 6-entry block of body i. The slice aliases s.
func (s State) Body(i int) []float64 {
	return s[i*StateStride : (i+1)*StateStride]
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// Checksum hashes the exact bit pattern of the state. Two runs from the same
// inputs produce the same checksum.
func (s State) Checksum() uint64 {
	buf := make([]byte, 8*len(s))
	for i, v := range s {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return xxh3.Hash(buf)
}

type Control []float64

// NewControl allocates a zeroed control vector for n bodies.
func NewControl(n int) Control {
	return make(Control, n*ControlStride)
}

func (c Control) Clone() Control {
	d := make(Control, len(c))
	copy(d, c)
	return d
}

// Set assigns thrust and torque for body i.
func (c Control) Set(i int, thrust, torque float64) {
	c[i*ControlStride] = thrust
	c[i*ControlStride+1] = torque
}

type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Hamiltonian is implemented by systems that can report their mechanical energy.
type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

// InPlaceIntegrator advances x without allocating a result vector.
type InPlaceIntegrator interface {
	Integrator
	StepInPlace(dyn System, x State, u Control, t float64, dt float64)
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
