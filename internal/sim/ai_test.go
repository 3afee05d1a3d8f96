package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironwing/arena-server/internal/ecs"
)

func TestStepBasicFighterMovesLeft(t *testing.T) {
	r := newTestRegistry(t)
	e, err := r.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, ecs.AddComponent(r, e, ecs.Velocity{}))
	require.NoError(t, ecs.AddComponent(r, e, ecs.Shoot{Interval: 1}))

	outcome := StepBasicFighter(r, e, 0.1, 0, false)
	require.Equal(t, AINoAction, outcome)

	vel, err := ecs.GetComponent[ecs.Velocity](r, e)
	require.NoError(t, err)
	require.Equal(t, -EnemyBasicFighterSpeed, vel.VX)
}

func TestStepBasicFighterFiresWhenCooldownElapsedAndTargetPresent(t *testing.T) {
	r := newTestRegistry(t)
	e, err := r.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, ecs.AddComponent(r, e, ecs.Velocity{}))
	require.NoError(t, ecs.AddComponent(r, e, ecs.Shoot{Interval: 1}))

	target, err := r.CreateEntity()
	require.NoError(t, err)

	outcome := StepBasicFighter(r, e, 1.5, target, true)
	require.Equal(t, AIFired, outcome)

	shoot, err := ecs.GetComponent[ecs.Shoot](r, e)
	require.NoError(t, err)
	require.Equal(t, float32(0), shoot.Timer)
}

func TestStepBasicFighterDoesNotFireWithoutTarget(t *testing.T) {
	r := newTestRegistry(t)
	e, err := r.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, ecs.AddComponent(r, e, ecs.Velocity{}))
	require.NoError(t, ecs.AddComponent(r, e, ecs.Shoot{Interval: 1}))

	outcome := StepBasicFighter(r, e, 2, 0, false)
	require.Equal(t, AINoAction, outcome)
}

func TestAimAtNormalizesAndScales(t *testing.T) {
	vx, vy := AimAt(0, 0, 10, 0, 5)
	require.InDelta(t, 5, vx, 0.001)
	require.InDelta(t, 0, vy, 0.001)
}

func TestAimAtZeroDistanceReturnsZero(t *testing.T) {
	vx, vy := AimAt(5, 5, 5, 5, 10)
	require.Equal(t, float32(0), vx)
	require.Equal(t, float32(0), vy)
}

func TestNearestAlivePlayerSkipsDead(t *testing.T) {
	r := newTestRegistry(t)

	dead, err := r.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, ecs.AddComponent(r, dead, ecs.Position{X: 1, Y: 1}))
	require.NoError(t, ecs.AddComponent(r, dead, ecs.Player{Alive: false}))

	alive, err := r.CreateEntity()
	require.NoError(t, err)
	require.NoError(t, ecs.AddComponent(r, alive, ecs.Position{X: 100, Y: 100}))
	require.NoError(t, ecs.AddComponent(r, alive, ecs.Player{Alive: true}))

	found, ok := NearestAlivePlayer(r, 0, 0)
	require.True(t, ok)
	require.Equal(t, alive, found)
}

func TestNearestAlivePlayerNoneFound(t *testing.T) {
	r := newTestRegistry(t)
	_, ok := NearestAlivePlayer(r, 0, 0)
	require.False(t, ok)
}
