package spotter

import (
	"github.com/rs/zerolog"

	"pitwallrelay/pkg/telemetry"
)

// Config holds the spotter's tunables.
type Config struct {
	AheadWindow float64 // forward gap window for incident warnings, fraction of track
}

func DefaultConfig() Config {
	return Config{AheadWindow: 0.05}
}

// Engine watches the player's immediate surroundings. It keeps exactly one
// tick of history, enough to debounce off-track warnings and nothing more.
type Engine struct {
	cfg Config
	log zerolog.Logger

	prevOffTrack map[int]bool
	hasHistory   bool
}

func NewEngine(cfg Config, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:          cfg,
		log:          log.With().Str("component", "spotter").Logger(),
		prevOffTrack: make(map[int]bool),
	}
}

// Update returns this tick's spotter calls.
func (e *Engine) Update(snap *telemetry.Snapshot) []string {
	var alerts []string

	if alert := threeWideCall(snap.CarLeftRight); alert != "" {
		alerts = append(alerts, alert)
	}

	alerts = append(alerts, e.incidentsAhead(snap)...)

	e.remember(snap)
	return alerts
}

// threeWideCall maps the left/right proximity bitfield to a call. At most one
// three-wide alert per tick, independent of history.
func threeWideCall(flags int) string {
	switch flags {
	case telemetry.FlagCarLeft | telemetry.FlagCarRight:
		return "Three wide, you're in the middle."
	case telemetry.FlagCarLeft | telemetry.FlagCarTwoLeft:
		return "Three wide, you're on the right."
	case telemetry.FlagCarRight | telemetry.FlagCarTwoRight:
		return "Three wide, you're on the left."
	}
	return ""
}

// incidentsAhead warns once per car that goes off inside the forward window.
// The first tick after startup has no history and stays quiet.
func (e *Engine) incidentsAhead(snap *telemetry.Snapshot) []string {
	if !e.hasHistory {
		return nil
	}

	var alerts []string
	playerDist := snap.LapDistance[snap.PlayerSlot]
	for slot := range snap.LapDistance {
		if slot == snap.PlayerSlot || slot >= len(snap.TrackSurface) {
			continue
		}
		if snap.TrackSurface[slot] != telemetry.SurfaceOffTrack {
			continue
		}
		gap := telemetry.WrapGap(snap.LapDistance[slot], playerDist)
		if gap <= 0 || gap >= e.cfg.AheadWindow {
			continue
		}
		if e.prevOffTrack[slot] {
			continue // already called last tick
		}
		alerts = append(alerts, "Car off track ahead!")
	}
	return alerts
}

func (e *Engine) remember(snap *telemetry.Snapshot) {
	next := make(map[int]bool, len(snap.TrackSurface))
	for slot, surface := range snap.TrackSurface {
		if surface == telemetry.SurfaceOffTrack {
			next[slot] = true
		}
	}
	e.prevOffTrack = next
	e.hasHistory = true
}
