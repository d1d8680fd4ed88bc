package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/arena/internal/dynamo"
)

// Seek turns every body toward Target and thrusts while roughly facing it.
// Thrust scales with the cosine of the heading error and is cut inside
// ArriveRadius.
type Seek struct {
	Target       mgl64.Vec2
	Thrust       float64
	MaxTorque    float64
	ArriveRadius float64

	kp, ki, kd float64
	loops      []*PID
	u          dynamo.Control
}

func NewSeek(target mgl64.Vec2, thrust, maxTorque, kp, ki, kd float64) *Seek {
	return &Seek{
		Target:       target,
		Thrust:       thrust,
		MaxTorque:    maxTorque,
		ArriveRadius: 1,
		kp:           kp,
		ki:           ki,
		kd:           kd,
	}
}

func (s *Seek) Compute(x dynamo.State, t float64) dynamo.Control {
	n := x.Bodies()
	if len(s.loops) != n {
		s.loops = make([]*PID, n)
		for i := range s.loops {
			s.loops[i] = NewPID(s.kp, s.ki, s.kd)
		}
		s.u = dynamo.NewControl(n)
	}

	for i := 0; i < n; i++ {
		b := x.Body(i)
		d := s.Target.Sub(mgl64.Vec2{b[dynamo.X], b[dynamo.Y]})
		if d.Len() < s.ArriveRadius {
			s.u.Set(i, 0, s.clampTorque(-s.kd*b[dynamo.Omega]))
			continue
		}

		err := HeadingError(b[dynamo.Theta], d)
		torque := s.loops[i].Update(err, -b[dynamo.Omega], t)
		thrust := s.Thrust * math.Max(0, math.Cos(err))
		s.u.Set(i, thrust, s.clampTorque(torque))
	}
	return s.u
}

func (s *Seek) clampTorque(v float64) float64 {
	if s.MaxTorque <= 0 {
		return v
	}
	return math.Max(-s.MaxTorque, math.Min(s.MaxTorque, v))
}

// HeadingError is the signed angle in (-π, π] from heading theta to
// direction d, positive counter-clockwise.
func HeadingError(theta float64, d mgl64.Vec2) float64 {
	sin, cos := math.Sincos(theta)
	h := mgl64.Vec2{cos, sin}
	return math.Atan2(h[0]*d[1]-h[1]*d[0], h.Dot(d))
}
