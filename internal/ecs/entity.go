// Package ecs implements the dense entity-component registry: 32-bit
// recyclable entity handles, per-type dense component arrays, bitmask
// signatures, and signature-based system dispatch. One Registry backs
// one active game room; no entity reference crosses registries.
package ecs

import "errors"

// Entity is an opaque handle into one Registry. It is never valid
// outside the Registry that issued it.
type Entity uint32

// MaxComponents bounds the signature bitmask width, per spec.md section 4.3.
const MaxComponents = 32

// DefaultCapacity is the default entity capacity of a fresh Registry.
const DefaultCapacity = 5000

var (
	// ErrCapacityExhausted is returned by CreateEntity when the registry
	// has no free slots left. Per spec.md section 7 this is a resource
	// error: fatal for the owning room.
	ErrCapacityExhausted = errors.New("ecs: entity capacity exhausted")

	// ErrComponentBudgetExhausted is returned by RegisterComponent once
	// all 32 signature bits are assigned.
	ErrComponentBudgetExhausted = errors.New("ecs: component bit budget exhausted")

	// ErrAlreadyRegistered is returned when a component type is
	// registered twice on the same Registry.
	ErrAlreadyRegistered = errors.New("ecs: component type already registered")

	// ErrNotRegistered is returned by Add/Remove/Get when the component
	// type was never registered on this Registry.
	ErrNotRegistered = errors.New("ecs: component type not registered")

	// ErrInvalidEntity is returned for operations against a handle that
	// does not refer to a currently-alive entity.
	ErrInvalidEntity = errors.New("ecs: invalid or destroyed entity")

	// ErrMissingComponent is returned by GetComponent when the entity is
	// alive but does not carry the requested component.
	ErrMissingComponent = errors.New("ecs: entity has no such component")
)
