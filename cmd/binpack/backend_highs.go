//go:build highs

package main

import "github.com/eugenenazirov/binpack/internal/mip/highs"

func init() {
	highs.Register()
}
