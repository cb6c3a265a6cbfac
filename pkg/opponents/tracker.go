package opponents

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pitwallrelay/pkg/telemetry"
)

// Config carries every tunable the tracker uses. Nothing is read from
// process-wide state.
type Config struct {
	ProximityWindow     float64       // fraction of track length
	AggressionThreshold float64
	MistakeThreshold    int
	MistakeDebounce     time.Duration // one mistake counted per car per window
	WarnCooldown        time.Duration
	AnalysisInterval    time.Duration // full pass runs at most this often
	AggressionIncrement float64
	AggressionDecay     float64 // subtracted per analysis pass, floored at 0
}

func DefaultConfig() Config {
	return Config{
		ProximityWindow:     0.05,
		AggressionThreshold: 7.0,
		MistakeThreshold:    3,
		MistakeDebounce:     5 * time.Second,
		WarnCooldown:        60 * time.Second,
		AnalysisInterval:    time.Second,
		AggressionIncrement: 1.0,
		AggressionDecay:     0.1,
	}
}

// Profile is the per-car-slot behavior record. Created lazily when a roster
// entry first appears, kept for the whole session, owned by the tracker.
type Profile struct {
	CarSlot         int
	DriverName      string
	AggressionScore float64
	MistakeCount    int

	incidents       []time.Time
	lastWarn        time.Time // zero until the first aggression warning
	lastMistakeWarn time.Time // zero until the first mistake warning
}

// Tracker profiles opponent behavior and emits proximity warnings.
type Tracker struct {
	cfg      Config
	log      zerolog.Logger
	profiles map[int]*Profile
	lastPass time.Time

	now func() time.Time
}

func NewTracker(cfg Config, log zerolog.Logger) *Tracker {
	return &Tracker{
		cfg:      cfg,
		log:      log.With().Str("component", "opponents").Logger(),
		profiles: make(map[int]*Profile),
		now:      time.Now,
	}
}

// Profiles returns the live profile set, keyed by car slot. Used by the
// status table and tests; callers must not mutate the entries.
func (t *Tracker) Profiles() map[int]*Profile {
	return t.profiles
}

// Update syncs the roster, scores mistakes, and returns zero or more warning
// strings. The scoring body runs at most once per AnalysisInterval of
// wall-clock time; calls inside that window only sync the roster.
func (t *Tracker) Update(snap *telemetry.Snapshot) []string {
	for _, d := range snap.Roster {
		t.ensureProfile(d)
	}

	now := t.now()
	if !t.lastPass.IsZero() && now.Sub(t.lastPass) < t.cfg.AnalysisInterval {
		return nil
	}
	t.lastPass = now

	var alerts []string
	for slot, p := range t.profiles {
		if slot == snap.PlayerSlot || slot >= len(snap.TrackSurface) {
			continue
		}

		p.AggressionScore -= t.cfg.AggressionDecay
		if p.AggressionScore < 0 {
			p.AggressionScore = 0
		}

		if snap.TrackSurface[slot] == telemetry.SurfaceOffTrack && t.countMistake(p, now) {
			t.log.Debug().Str("driver", p.DriverName).Int("mistakes", p.MistakeCount).
				Msg("off-track excursion recorded")
		}

		if alert := t.warningFor(p, snap, now); alert != "" {
			alerts = append(alerts, alert)
		}
	}
	return alerts
}

func (t *Tracker) ensureProfile(d telemetry.Driver) {
	if _, ok := t.profiles[d.Slot]; ok {
		return
	}
	t.profiles[d.Slot] = &Profile{
		CarSlot:    d.Slot,
		DriverName: d.Name,
	}
}

// countMistake records an off-track excursion unless one was already counted
// inside the debounce window. Reports whether it counted.
func (t *Tracker) countMistake(p *Profile, now time.Time) bool {
	if n := len(p.incidents); n > 0 && now.Sub(p.incidents[n-1]) < t.cfg.MistakeDebounce {
		return false
	}
	p.incidents = append(p.incidents, now)
	p.MistakeCount++
	p.AggressionScore += t.cfg.AggressionIncrement
	return true
}

// warningFor emits at most one alert per profile per pass; the aggression
// check takes priority over the mistake check.
func (t *Tracker) warningFor(p *Profile, snap *telemetry.Snapshot, now time.Time) string {
	gap := telemetry.WrapGap(snap.LapDistance[p.CarSlot], snap.LapDistance[snap.PlayerSlot])
	if gap < 0 {
		gap = -gap
	}
	if gap >= t.cfg.ProximityWindow {
		return ""
	}

	if p.AggressionScore > t.cfg.AggressionThreshold &&
		(p.lastWarn.IsZero() || now.Sub(p.lastWarn) >= t.cfg.WarnCooldown) {
		p.lastWarn = now
		return fmt.Sprintf("Careful with %s, they are driving aggressively.", p.DriverName)
	}
	if p.MistakeCount >= t.cfg.MistakeThreshold &&
		(p.lastMistakeWarn.IsZero() || now.Sub(p.lastMistakeWarn) >= t.cfg.WarnCooldown) {
		p.lastMistakeWarn = now
		return fmt.Sprintf("Watch out for %s, they've gone off %d times.", p.DriverName, p.MistakeCount)
	}
	return ""
}
