package library

import "errors"

var (
	ErrNotFound     = errors.New("library: not found")
	ErrNotOpen      = errors.New("library: index not open")
	ErrInvalidRange = errors.New("library: feature out of range")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
