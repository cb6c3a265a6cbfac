package telemetry

import (
	"github.com/pkg/errors"
)

// SurfaceState describes where a car currently is relative to the track.
type SurfaceState int

const (
	SurfaceNotInWorld SurfaceState = iota
	SurfaceOffTrack
	SurfaceInPit
	SurfaceOnTrack
)

func (s SurfaceState) String() string {
	switch s {
	case SurfaceNotInWorld:
		return "not_in_world"
	case SurfaceOffTrack:
		return "off_track"
	case SurfaceInPit:
		return "in_pit"
	case SurfaceOnTrack:
		return "on_track"
	}
	return "unknown"
}

// Left/right proximity bits as reported by the sim.
const (
	FlagCarLeft     = 1 << 0
	FlagCarRight    = 1 << 1
	FlagCarTwoLeft  = 1 << 2
	FlagCarTwoRight = 1 << 3
)

// Driver is one roster entry for the running session.
type Driver struct {
	Slot     int    `json:"slot"`
	Name     string `json:"name"`
	CarClass string `json:"carClass"`
}

// SessionInfo holds the slow-changing session fields.
type SessionInfo struct {
	TrackName   string `json:"trackName"`
	SessionType string `json:"session"`
	PlayerName  string `json:"playerName"`
	NumCars     int    `json:"numberOfVehicles"`
}

// Vec3 is a world-space position.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Snapshot is the canonical per-tick telemetry record. All per-car slices are
// indexed by car slot and must share the same length. It is produced fresh
// every tick by an Adapter and is read-only downstream; analysis components
// copy out anything they keep.
type Snapshot struct {
	Session SessionInfo
	Roster  []Driver

	PlayerSlot    int
	LapDistance   []float64 // fraction of a lap, [0, 1)
	TrackSurface  []SurfaceState
	Speed         []float64 // m/s
	Gear          []int
	Throttle      []float64
	Brake         []float64
	Steering      []float64
	WorldPos      []Vec3
	CarLeftRight  int // proximity bitfield, Flag* constants
	IncidentCount int

	// Player race state consumed by the strategy pass.
	CurrentLap     int
	TotalLaps      int
	FuelLevel      float64
	TireAgeLaps    int
	GapAheadSec    float64
	GapBehindSec   float64
	SessionTimeSec float64
}

// Validate checks the fields the analysis core cannot run without. A failed
// tick is skipped and logged, never fatal.
func (s *Snapshot) Validate() error {
	if s == nil {
		return errors.New("nil snapshot")
	}
	if s.LapDistance == nil {
		return errors.New("snapshot missing lap distance array")
	}
	if s.TrackSurface == nil {
		return errors.New("snapshot missing track surface array")
	}
	if len(s.TrackSurface) != len(s.LapDistance) {
		return errors.Errorf("car arrays disagree: %d surface entries vs %d lap distances",
			len(s.TrackSurface), len(s.LapDistance))
	}
	if s.PlayerSlot < 0 || s.PlayerSlot >= len(s.LapDistance) {
		return errors.Errorf("player slot %d outside car array of %d", s.PlayerSlot, len(s.LapDistance))
	}
	return nil
}

// WrapGap returns the signed fraction of track from `to` ahead to `from`,
// unwrapped across the start/finish line and normalized into (-0.5, 0.5].
// Positive means `from` is ahead of `to`.
func WrapGap(from, to float64) float64 {
	gap := from - to
	if gap > 0.5 {
		gap -= 1.0
	} else if gap <= -0.5 {
		gap += 1.0
	}
	return gap
}
