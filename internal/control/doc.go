// Package control provides controllers that drive every craft in an arena.
//
// Controllers implement the [dynamo.Controller] interface and return one
// (thrust, torque) pair per body:
//
//   - [None]: zero control
//   - [Constant]: the same thrust and torque for every body
//   - [Random]: seeded random key presses, like a field of idle players
//   - [Seek]: steers each body toward a waypoint with a heading [PID]
//
// Controllers with internal state size themselves from the first state they
// see and must not be shared between arenas.
package control
