//go:build lpsolve

package main

import "github.com/eugenenazirov/binpack/internal/mip/lpsolve"

func init() {
	lpsolve.Register()
}
