package mip

import "errors"

var (
	// ErrUnknownBackend is returned by Lookup for names nobody registered.
	ErrUnknownBackend = errors.New("unknown solver backend")
	// ErrInvalidModel is returned when a model references missing columns or has inverted bounds.
	ErrInvalidModel = errors.New("invalid model")
	// ErrStartShape is returned when a start vector does not match the model columns.
	ErrStartShape = errors.New("start vector does not match model columns")
)
