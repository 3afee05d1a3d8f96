package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type movementSystem struct {
	posBit, velBit uint32
}

func (s *movementSystem) Required() uint32 { return s.posBit | s.velBit }

func TestRegisterSystem_InitialMembership(t *testing.T) {
	r := NewRegistry(8)
	posBit, err := RegisterComponent[Position](r)
	require.NoError(t, err)
	velBit, err := RegisterComponent[Velocity](r)
	require.NoError(t, err)

	e1, _ := r.CreateEntity() // pos + vel, should match
	e2, _ := r.CreateEntity() // pos only, should not match
	require.NoError(t, AddComponent(r, e1, Position{}))
	require.NoError(t, AddComponent(r, e1, Velocity{}))
	require.NoError(t, AddComponent(r, e2, Position{}))

	sys := &movementSystem{posBit: posBit, velBit: velBit}
	r.RegisterSystem(sys)

	members := r.Members(sys)
	assert.ElementsMatch(t, []Entity{e1}, members)
}

func TestSystemMembership_UpdatesOnComponentChange(t *testing.T) {
	r := NewRegistry(8)
	posBit, _ := RegisterComponent[Position](r)
	velBit, _ := RegisterComponent[Velocity](r)

	e, _ := r.CreateEntity()
	sys := &movementSystem{posBit: posBit, velBit: velBit}
	r.RegisterSystem(sys)

	assert.Empty(t, r.Members(sys))

	require.NoError(t, AddComponent(r, e, Position{}))
	assert.Empty(t, r.Members(sys), "missing Velocity should keep it out of membership")

	require.NoError(t, AddComponent(r, e, Velocity{}))
	assert.ElementsMatch(t, []Entity{e}, r.Members(sys))

	require.NoError(t, RemoveComponent[Velocity](r, e))
	assert.Empty(t, r.Members(sys))
}

func TestSystemMembership_ClearsOnDestroy(t *testing.T) {
	r := NewRegistry(8)
	posBit, _ := RegisterComponent[Position](r)
	velBit, _ := RegisterComponent[Velocity](r)

	e, _ := r.CreateEntity()
	require.NoError(t, AddComponent(r, e, Position{}))
	require.NoError(t, AddComponent(r, e, Velocity{}))

	sys := &movementSystem{posBit: posBit, velBit: velBit}
	r.RegisterSystem(sys)
	require.ElementsMatch(t, []Entity{e}, r.Members(sys))

	require.NoError(t, r.DestroyEntity(e))
	assert.Empty(t, r.Members(sys))
}

func TestMatchesSignature(t *testing.T) {
	assert.True(t, MatchesSignature(0b111, 0b011))
	assert.False(t, MatchesSignature(0b100, 0b011))
	assert.True(t, MatchesSignature(0b000, 0b000))
}
