// Package session drives a packing model through a backend in two phases.
// The probe phase runs a limited solve to collect model statistics; the
// commit phase runs the solve whose result is reported. A failure in either
// phase comes back as a *PhaseError naming the phase.
package session
