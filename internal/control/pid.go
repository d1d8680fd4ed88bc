package control

// PID is a scalar PID loop. Update takes the error rate from the caller, so a
// wrapped quantity such as a heading can use a measured angular velocity
// instead of a finite difference across the wrap.
type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	integral float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{
		Kp:    kp,
		Ki:    ki,
		Kd:    kd,
		first: true,
	}
}

func (p *PID) Update(err, rate, t float64) float64 {
	if p.first {
		p.prevT = t
		p.first = false
	} else if dt := t - p.prevT; dt > 0 {
		p.integral += err * dt
		p.prevT = t
	}
	return p.Kp*err + p.Ki*p.integral + p.Kd*rate
}

func (p *PID) Reset() {
	p.integral = 0
	p.prevT = 0
	p.first = true
}
