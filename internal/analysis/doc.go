// Package analysis characterises arena runs after the fact.
//
//   - [Spectrum]: power spectrum and dominant frequency of a sampled series
//   - [LyapunovExponent]: growth rate of the separation between two arenas
//     started a small perturbation apart
//
// Body-body contacts make the arena strongly sensitive to initial
// conditions, so crowded scenarios usually report a positive exponent:
//
//	lambda := analysis.LyapunovExponent(model, integ, x0, u, dt, duration, 1e-6)
package analysis
