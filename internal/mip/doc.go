// Package mip describes mixed-integer linear models in a solver-neutral form
// and the contract a solving backend has to satisfy. Concrete backends live in
// the sub-packages and register themselves by name.
package mip
