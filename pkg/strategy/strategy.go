package strategy

import (
	"fmt"

	"github.com/rs/zerolog"

	"pitwallrelay/pkg/helper"
)

// Action is a pit-wall call.
type Action string

const (
	ActionBoxNow     Action = "BOX_NOW"
	ActionBoxNextLap Action = "BOX_NEXT_LAP"
	ActionStayOut    Action = "STAY_OUT"
)

// Recommendation is immutable once produced and regenerated on every query.
type Recommendation struct {
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// RaceState is the strategy input, copied out of the current snapshot.
type RaceState struct {
	CurrentLap   int
	TotalLaps    int
	FuelLevel    float64
	TireAgeLaps  int
	GapAheadSec  float64
	GapBehindSec float64
}

// Config holds the strategy constants.
type Config struct {
	FuelPerLap        float64 // burn estimate, units per lap
	PitLossSec        float64 // time lost to a stop
	TireStalenessLaps int     // age beyond which an undercut pays off
	TireWearLimitLaps int     // age at which tire life reaches zero
}

func DefaultConfig() Config {
	return Config{
		FuelPerLap:        2.5,
		PitLossSec:        25,
		TireStalenessLaps: 15,
		TireWearLimitLaps: 30,
	}
}

// Simulator is a pure decision function over the current race state; it keeps
// no memory between calls.
type Simulator struct {
	cfg Config
	log zerolog.Logger
}

func NewSimulator(cfg Config, log zerolog.Logger) *Simulator {
	return &Simulator{
		cfg: cfg,
		log: log.With().Str("component", "strategy").Logger(),
	}
}

// Analyze picks a pit call for the given state. Fuel shortfall dominates
// everything else; after that, tire life and track position decide.
func (s *Simulator) Analyze(rs RaceState) Recommendation {
	lapsRemaining := rs.TotalLaps - rs.CurrentLap
	fuelLaps := rs.FuelLevel / s.cfg.FuelPerLap
	if fuelLaps < float64(lapsRemaining)+1 {
		return Recommendation{
			Action:     ActionBoxNow,
			Confidence: 1.0,
			Reasoning: fmt.Sprintf("Fuel critical: %.1f laps of fuel for %d laps remaining",
				fuelLaps, lapsRemaining),
		}
	}

	life := s.TireLife(rs.TireAgeLaps)
	switch {
	case life < 20:
		return Recommendation{
			Action:     ActionBoxNow,
			Confidence: 0.85,
			Reasoning:  fmt.Sprintf("Tires done, %.0f%% life left", life),
		}
	case life < 40 && rs.GapBehindSec > s.cfg.PitLossSec:
		return Recommendation{
			Action:     ActionBoxNextLap,
			Confidence: 0.7,
			Reasoning: fmt.Sprintf("Pit window open, %s clear behind and %.0f%% tire life",
				helper.SecondsToDiff(rs.GapBehindSec), life),
		}
	case life < 40:
		return Recommendation{
			Action:     ActionBoxNextLap,
			Confidence: 0.55,
			Reasoning:  fmt.Sprintf("Tires fading at %.0f%%, expect to lose track position", life),
		}
	}

	confidence := 0.5 + life/200 // more life, more certain staying out is right
	return Recommendation{
		Action:     ActionStayOut,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("Tires at %.0f%%, fuel good for %.1f laps", life, fuelLaps),
	}
}

// UndercutOpportunity reports whether pitting before the car ahead would gain
// position. Returns an advisory string when it would.
func (s *Simulator) UndercutOpportunity(rs RaceState) (string, bool) {
	if rs.GapAheadSec <= 0 || rs.GapAheadSec >= s.cfg.PitLossSec {
		return "", false
	}
	if rs.TireAgeLaps <= s.cfg.TireStalenessLaps {
		return "", false
	}
	return fmt.Sprintf("Undercut available: %s to the car ahead, their tires are %d laps old",
		helper.SecondsToDiff(rs.GapAheadSec), rs.TireAgeLaps), true
}

// TireLife estimates remaining tire performance in [0, 100], decaying
// linearly to zero at the wear limit.
func (s *Simulator) TireLife(ageLaps int) float64 {
	life := 100 - float64(ageLaps)/float64(s.cfg.TireWearLimitLaps)*100
	if life < 0 {
		return 0
	}
	return life
}
