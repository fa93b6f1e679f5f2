package engine

import "fmt"

// UnknownIDError is returned when a command names an id that is not in the collection.
// The model is left unchanged.
type UnknownIDError struct {
	Kind string
	ID   string
}

func (e UnknownIDError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ErrClosed is returned by commands issued after Close.
var ErrClosed = fmt.Errorf("engine closed")
