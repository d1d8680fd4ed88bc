package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/arena/internal/broadphase"
	"github.com/san-kum/arena/internal/dynamo"
	"github.com/san-kum/arena/internal/wallfield"
)

// Inputs is everything one derivative evaluation reads. Nothing in it is
// modified by Evaluate.
type Inputs struct {
	State   dynamo.State
	Props   []Props
	Control dynamo.Control
	Pairs   []broadphase.Pair
	Field   *wallfield.Field
	Params  Params
}

// Evaluate writes dX/dt for every body into dst, which must have the length of
// in.State. Lengths are not checked here; callers validate once per step.
func Evaluate(dst dynamo.State, in Inputs) {
	p := in.Params
	x := in.State

	// Accumulate force and torque into the acceleration slots, divide at the end.
	for i, pr := range in.Props {
		s := x.Body(i)
		d := dst.Body(i)

		thrust := in.Control[i*dynamo.ControlStride]
		torque := in.Control[i*dynamo.ControlStride+1]

		sin, cos := math.Sincos(s[dynamo.Theta])
		v := mgl64.Vec2{s[dynamo.VX], s[dynamo.VY]}
		w := s[dynamo.Omega]

		f := mgl64.Vec2{cos, sin}.Mul(thrust).Sub(v.Mul(pr.DragArea * p.AirDensity * v.Len()))
		torque -= p.SpinDragRatio * pr.DragArea * p.AirDensity * w * math.Abs(w) * pr.Radius * pr.Radius

		d[dynamo.X], d[dynamo.Y], d[dynamo.Theta] = s[dynamo.VX], s[dynamo.VY], w
		d[dynamo.VX], d[dynamo.VY], d[dynamo.Omega] = f[0], f[1], torque
	}

	for _, pair := range in.Pairs {
		collide(dst, x, in.Props, pair.A, pair.B, p)
	}

	if in.Field != nil {
		for i, pr := range in.Props {
			s := x.Body(i)
			wall(dst.Body(i), s, pr, in.Field.Sample(mgl64.Vec2{s[dynamo.X], s[dynamo.Y]}), p)
		}
	}

	for i, pr := range in.Props {
		d := dst.Body(i)
		d[dynamo.VX] /= pr.Mass
		d[dynamo.VY] /= pr.Mass
		d[dynamo.Omega] /= pr.Inertia
	}
}

// collide applies the penalty spring and surface friction between bodies i
// and j if their circles overlap.
func collide(dst, x dynamo.State, props []Props, i, j int, p Params) {
	si, sj := x.Body(i), x.Body(j)
	dP := mgl64.Vec2{sj[dynamo.X] - si[dynamo.X], sj[dynamo.Y] - si[dynamo.Y]}
	dist := dP.Len() + p.Epsilon
	ri, rj := props[i].Radius, props[j].Radius
	diameter := ri + rj
	if dist >= diameter {
		return
	}

	normal := dP.Mul(1 / dist)
	magnitude := (diameter - dist) * p.Stiffness

	// Tangent is the line of centres turned 90 degrees left. v_rel is the slip
	// of i's surface past j's at the contact point.
	perp := mgl64.Vec2{-normal[1], normal[0]}
	vi := mgl64.Vec2{si[dynamo.VX], si[dynamo.VY]}
	vj := mgl64.Vec2{sj[dynamo.VX], sj[dynamo.VY]}
	vRel := ri*si[dynamo.Omega] + rj*sj[dynamo.Omega] + vi.Sub(vj).Dot(perp)
	fric := magnitude * p.Friction * sigmoid(vRel)

	fi := normal.Mul(-magnitude).Sub(perp.Mul(fric))
	di, dj := dst.Body(i), dst.Body(j)
	di[dynamo.VX] += fi[0]
	di[dynamo.VY] += fi[1]
	dj[dynamo.VX] -= fi[0]
	dj[dynamo.VY] -= fi[1]
	di[dynamo.Omega] -= fric * ri
	dj[dynamo.Omega] -= fric * rj
}

// wall applies the penalty spring and friction against the wall field.
func wall(d, s []float64, pr Props, sample wallfield.Sample, p Params) {
	penetration := sample.Dist - pr.Radius
	if penetration >= 0 {
		return
	}

	n := sample.Normal
	magnitude := -penetration * p.Stiffness

	perp := mgl64.Vec2{-n[1], n[0]}
	v := mgl64.Vec2{s[dynamo.VX], s[dynamo.VY]}
	vRel := s[dynamo.Omega]*pr.Radius - v.Dot(perp)
	fric := magnitude * p.WallFriction * sigmoid(vRel)

	f := n.Mul(magnitude).Add(perp.Mul(fric))
	d[dynamo.VX] += f[0]
	d[dynamo.VY] += f[1]
	d[dynamo.Omega] -= fric * pr.Radius
}

// sigmoid is a smooth sign function bounded in (-1, 1). It stands in for
// sign(v) in Coulomb friction so low slip speeds do not chatter.
func sigmoid(v float64) float64 {
	return -1 + 2/(1+math.Exp(-v))
}
