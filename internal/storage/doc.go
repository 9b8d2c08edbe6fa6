// Package storage holds the packing instance served by default, guarded for
// concurrent access from HTTP handlers.
package storage
