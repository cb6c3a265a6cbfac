package opponents

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitwallrelay/pkg/telemetry"
)

func testSnapshot() *telemetry.Snapshot {
	return &telemetry.Snapshot{
		Roster: []telemetry.Driver{
			{Slot: 0, Name: "Player One"},
			{Slot: 1, Name: "Max Verstappen"},
			{Slot: 2, Name: "Lewis Hamilton"},
		},
		PlayerSlot:   0,
		LapDistance:  []float64{0.50, 0.51, 0.10},
		TrackSurface: []telemetry.SurfaceState{telemetry.SurfaceOnTrack, telemetry.SurfaceOnTrack, telemetry.SurfaceOnTrack},
	}
}

func newTestTracker(t *testing.T) (*Tracker, *time.Time) {
	t.Helper()
	tr := NewTracker(DefaultConfig(), zerolog.Nop())
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return now }
	return tr, &now
}

func TestUpdateSyncsRoster(t *testing.T) {
	tr, _ := newTestTracker(t)

	tr.Update(testSnapshot())

	profiles := tr.Profiles()
	require.Len(t, profiles, 3)
	assert.Equal(t, "Max Verstappen", profiles[1].DriverName)
	assert.Equal(t, "Lewis Hamilton", profiles[2].DriverName)
	assert.Zero(t, profiles[1].AggressionScore)
	assert.Zero(t, profiles[1].MistakeCount)
}

func TestMistakeCountingAndDebounce(t *testing.T) {
	tr, now := newTestTracker(t)

	snap := testSnapshot()
	tr.Update(snap)

	snap.TrackSurface[2] = telemetry.SurfaceOffTrack
	*now = now.Add(2 * time.Second)
	tr.Update(snap)

	p := tr.Profiles()[2]
	assert.Equal(t, 1, p.MistakeCount)
	assert.Greater(t, p.AggressionScore, 0.0)

	// still off track 3s later, inside the 5s window: not counted again
	*now = now.Add(3 * time.Second)
	tr.Update(snap)
	assert.Equal(t, 1, p.MistakeCount)

	// a fresh excursion outside the window counts
	*now = now.Add(6 * time.Second)
	tr.Update(snap)
	assert.Equal(t, 2, p.MistakeCount)
}

func TestAnalysisRateLimit(t *testing.T) {
	tr, now := newTestTracker(t)

	snap := testSnapshot()
	tr.Update(snap)

	snap.TrackSurface[2] = telemetry.SurfaceOffTrack
	*now = now.Add(200 * time.Millisecond) // inside the 1s gate
	tr.Update(snap)
	assert.Equal(t, 0, tr.Profiles()[2].MistakeCount)
}

func TestAggressionAlertNeedsProximity(t *testing.T) {
	tr, now := newTestTracker(t)

	snap := testSnapshot()
	tr.Update(snap)

	tr.Profiles()[1].AggressionScore = 8.0

	// slot 1 is 0.01 ahead of the player
	*now = now.Add(time.Second)
	alerts := tr.Update(snap)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "Max Verstappen")
	assert.Contains(t, alerts[0], "aggressively")

	// identical score but half a track away: silence
	tr2, now2 := newTestTracker(t)
	far := testSnapshot()
	far.LapDistance[1] = 0.0 // 0.5 from the player
	tr2.Update(far)
	tr2.Profiles()[1].AggressionScore = 8.0
	*now2 = now2.Add(time.Second)
	assert.Empty(t, tr2.Update(far))
}

func TestAggressionWarnCooldown(t *testing.T) {
	tr, now := newTestTracker(t)

	snap := testSnapshot()
	tr.Update(snap)
	tr.Profiles()[1].AggressionScore = 20.0

	*now = now.Add(time.Second)
	require.Len(t, tr.Update(snap), 1)

	*now = now.Add(10 * time.Second)
	assert.Empty(t, tr.Update(snap), "second warning inside the cooldown")

	*now = now.Add(60 * time.Second)
	assert.Len(t, tr.Update(snap), 1)
}

func TestMistakeAlertSecondPriority(t *testing.T) {
	tr, now := newTestTracker(t)

	snap := testSnapshot()
	tr.Update(snap)

	p := tr.Profiles()[1]
	p.MistakeCount = 4

	*now = now.Add(time.Second)
	alerts := tr.Update(snap)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "gone off 4 times")
}

func TestRenderProfiles(t *testing.T) {
	tr, _ := newTestTracker(t)
	tr.Update(testSnapshot())

	out := tr.RenderProfiles()
	assert.Contains(t, out, "Max Verstappen")
	assert.Contains(t, out, "MVE")
}
