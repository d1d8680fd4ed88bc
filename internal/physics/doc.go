// Package physics implements the arena force model.
//
// [Evaluate] is a pure function from a snapshot of every body (state, static
// properties, control input, candidate contact pairs, wall field) to the time
// derivative of the state. It applies, in order:
//
//   - thrust along the heading and direct control torque
//   - quadratic linear drag and quadratic spin drag
//   - penalty springs with sigmoid-smoothed friction between overlapping bodies
//   - penalty springs with friction against the wall field
//
// [Model] wraps Evaluate as a [dynamo.System], rerunning the broad phase for
// each state it differentiates.
//
// # Units
//
// Nothing is clamped. Stiffness, mass and dt together decide whether a contact
// resolves or explodes; the defaults are stable for unit-sized craft at
// dt=0.02 under RK4.
package physics
