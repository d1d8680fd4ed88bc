package analysis

import (
	"math"

	"github.com/san-kum/arena/internal/dynamo"
)

// LyapunovExponent estimates the largest Lyapunov exponent of sys from x0
// by the trajectory separation method. The twin trajectory starts with body
// 0 shifted by perturbation along x; both are driven by the same constant
// control u. Separation is renormalised back to perturbation whenever it
// exceeds one length unit.
func LyapunovExponent(
	sys dynamo.System,
	integ dynamo.InPlaceIntegrator,
	x0 dynamo.State,
	u dynamo.Control,
	dt, duration float64,
	perturbation float64,
) float64 {
	if len(x0) == 0 || perturbation <= 0 {
		return 0
	}

	x := x0.Clone()
	xp := x0.Clone()
	xp[dynamo.X] += perturbation

	t := 0.0
	sumLog := 0.0
	count := 0

	for t < duration {
		integ.StepInPlace(sys, x, u, t, dt)
		integ.StepInPlace(sys, xp, u, t, dt)
		t += dt

		sep := separation(x, xp)
		if math.IsNaN(sep) || math.IsInf(sep, 0) {
			break
		}
		if sep > 0 {
			sumLog += math.Log(sep / perturbation)
			count++
		}

		if sep > 1.0 {
			scale := perturbation / sep
			for i := range xp {
				xp[i] = x[i] + (xp[i]-x[i])*scale
			}
		}
	}

	if count == 0 {
		return 0
	}
	return sumLog / (float64(count) * dt)
}

func separation(a, b dynamo.State) float64 {
	sep := 0.0
	for i := range a {
		diff := b[i] - a[i]
		sep += diff * diff
	}
	return math.Sqrt(sep)
}
