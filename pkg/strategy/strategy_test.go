package strategy

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSimulator() *Simulator {
	return NewSimulator(DefaultConfig(), zerolog.Nop())
}

func TestFuelCriticalDominates(t *testing.T) {
	s := newTestSimulator()

	rec := s.Analyze(RaceState{
		CurrentLap:  10,
		TotalLaps:   30, // 20 laps remaining
		FuelLevel:   10.0,
		TireAgeLaps: 0, // fresh tires would otherwise say stay out
	})

	assert.Equal(t, ActionBoxNow, rec.Action)
	assert.Equal(t, 1.0, rec.Confidence)
	assert.Contains(t, rec.Reasoning, "Fuel critical")
}

func TestStayOutOnFreshTiresAndFullTank(t *testing.T) {
	s := newTestSimulator()

	rec := s.Analyze(RaceState{
		CurrentLap:  2,
		TotalLaps:   30,
		FuelLevel:   100,
		TireAgeLaps: 2,
	})

	assert.Equal(t, ActionStayOut, rec.Action)
	assert.Greater(t, rec.Confidence, 0.0)
	assert.NotEmpty(t, rec.Reasoning)
}

func TestWornTiresForceStop(t *testing.T) {
	s := newTestSimulator()

	rec := s.Analyze(RaceState{
		CurrentLap:  20,
		TotalLaps:   25,
		FuelLevel:   100,
		TireAgeLaps: 26, // under 20% life
	})

	assert.Equal(t, ActionBoxNow, rec.Action)
	assert.Greater(t, rec.Confidence, 0.0)
}

func TestPitWindowOpenBehind(t *testing.T) {
	s := newTestSimulator()

	rec := s.Analyze(RaceState{
		CurrentLap:   15,
		TotalLaps:    30,
		FuelLevel:    100,
		TireAgeLaps:  20, // ~33% life
		GapBehindSec: 30, // more than the pit loss
	})

	assert.Equal(t, ActionBoxNextLap, rec.Action)
	assert.Greater(t, rec.Confidence, 0.0)
}

func TestTireLife(t *testing.T) {
	s := newTestSimulator()

	assert.InDelta(t, 100.0, s.TireLife(0), 1e-9)
	assert.InDelta(t, 50.0, s.TireLife(15), 1e-9)
	assert.InDelta(t, 0.0, s.TireLife(30), 1e-9)
	assert.Equal(t, 0.0, s.TireLife(40), "never negative")

	prev := 101.0
	for age := 0; age <= 40; age++ {
		life := s.TireLife(age)
		require.LessOrEqual(t, life, prev, "life must not increase with age")
		prev = life
	}
}

func TestUndercutOpportunity(t *testing.T) {
	s := newTestSimulator()

	msg, ok := s.UndercutOpportunity(RaceState{GapAheadSec: 10, TireAgeLaps: 20})
	require.True(t, ok)
	assert.Contains(t, msg, "Undercut")

	_, ok = s.UndercutOpportunity(RaceState{GapAheadSec: 40, TireAgeLaps: 20})
	assert.False(t, ok, "gap wider than the pit loss")

	_, ok = s.UndercutOpportunity(RaceState{GapAheadSec: 10, TireAgeLaps: 5})
	assert.False(t, ok, "tires not stale yet")
}
