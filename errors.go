package goudcore

import "github.com/rotisserie/eris"

var (
	// ErrUnknownEntity is returned when an operation receives an entity handle
	// that is stale or was never spawned. Callers can treat it as "already
	// gone".
	ErrUnknownEntity = eris.New("unknown entity")
	// ErrDuplicateComponent is returned by AddComponent when the entity already
	// carries a component of that type.
	ErrDuplicateComponent = eris.New("duplicate component")
	// ErrComponentNotFound is returned by RemoveComponent when the entity does
	// not carry a component of that type.
	ErrComponentNotFound = eris.New("component not found")
)
