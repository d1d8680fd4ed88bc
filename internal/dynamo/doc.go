// Package dynamo provides the core primitives shared by the arena simulation.
//
// The package defines flat state and control vectors and the interfaces that
// connect the force model, the integrators and the runner:
//
//   - [State]: flat vector of per-body kinematics, stride [StateStride]
//   - [Control]: flat vector of per-body (thrust, torque), stride [ControlStride]
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Controller]: produces a control vector from the current state
//
// # Layout
//
// Body i occupies x[6i:6i+6] = (x, y, θ, vx, vy, ω) and u[2i:2i+2] =
// (thrust, torque). Index i is the body's identity for the whole run.
//
// # Thread Safety
//
// Nothing in this package synchronises. A state vector must be owned by a
// single goroutine while it is being stepped.
package dynamo
