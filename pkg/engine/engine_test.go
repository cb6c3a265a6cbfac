package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitwallrelay/pkg/damage"
	"pitwallrelay/pkg/model"
	"pitwallrelay/pkg/opponents"
	"pitwallrelay/pkg/protocol"
	"pitwallrelay/pkg/pubsub"
	"pitwallrelay/pkg/relay"
	"pitwallrelay/pkg/spotter"
	"pitwallrelay/pkg/strategy"
	"pitwallrelay/pkg/telemetry"
)

type stubAdapter struct {
	snap *telemetry.Snapshot
	err  error
}

func (s *stubAdapter) Poll(context.Context) (*telemetry.Snapshot, error) {
	return s.snap, s.err
}

type captureEmitter struct {
	messages []any
}

func (c *captureEmitter) Emit(msg any) bool {
	c.messages = append(c.messages, msg)
	return true
}

func (c *captureEmitter) IsConnected() bool { return true }

func (c *captureEmitter) byType(msgType string) []any {
	var out []any
	for _, m := range c.messages {
		data, _ := json.Marshal(m)
		var h protocol.Header
		_ = json.Unmarshal(data, &h)
		if h.Type == msgType {
			out = append(out, m)
		}
	}
	return out
}

type stubRegistrar struct {
	handlers map[string]relay.Handler
}

func (s *stubRegistrar) OnMessage(msgType string, h relay.Handler) {
	if s.handlers == nil {
		s.handlers = make(map[string]relay.Handler)
	}
	s.handlers[msgType] = h
}

func goodSnapshot() *telemetry.Snapshot {
	return &telemetry.Snapshot{
		Session: telemetry.SessionInfo{TrackName: "Spa", SessionType: "Race", NumCars: 2},
		Roster: []telemetry.Driver{
			{Slot: 0, Name: "Player One"},
			{Slot: 1, Name: "Rival"},
		},
		PlayerSlot:   0,
		LapDistance:  []float64{0.5, 0.6},
		TrackSurface: []telemetry.SurfaceState{telemetry.SurfaceOnTrack, telemetry.SurfaceOnTrack},
		CurrentLap:   2,
		TotalLaps:    20,
		FuelLevel:    100,
		TireAgeLaps:  2,
	}
}

func newTestEngine(adapter telemetry.Adapter, emitter Emitter) (*Engine, *pubsub.PubSub[model.Alert]) {
	alerts := pubsub.NewPubSub[model.Alert]()
	eng := New(
		Config{SessionID: "gp-42", PollInterval: 100 * time.Millisecond},
		zerolog.Nop(),
		adapter,
		emitter,
		opponents.NewTracker(opponents.DefaultConfig(), zerolog.Nop()),
		spotter.NewEngine(spotter.DefaultConfig(), zerolog.Nop()),
		strategy.NewSimulator(strategy.DefaultConfig(), zerolog.Nop()),
		damage.NewAnalyzer(zerolog.Nop(), nil),
		alerts,
	)
	return eng, alerts
}

func TestTickEmitsTelemetryAndMetadata(t *testing.T) {
	emitter := &captureEmitter{}
	eng, _ := newTestEngine(&stubAdapter{snap: goodSnapshot()}, emitter)

	eng.Tick(context.Background())

	require.Len(t, emitter.byType(protocol.TypeSessionMetadata), 1)
	require.Len(t, emitter.byType(protocol.TypeTelemetry), 1)

	// metadata only repeats when the track changes
	eng.Tick(context.Background())
	assert.Len(t, emitter.byType(protocol.TypeSessionMetadata), 1)
	assert.Len(t, emitter.byType(protocol.TypeTelemetry), 2)
}

func TestTickSkipsOnPollError(t *testing.T) {
	emitter := &captureEmitter{}
	eng, _ := newTestEngine(&stubAdapter{err: context.DeadlineExceeded}, emitter)

	eng.Tick(context.Background())
	assert.Empty(t, emitter.messages)
}

func TestTickSkipsMalformedSnapshot(t *testing.T) {
	emitter := &captureEmitter{}
	bad := goodSnapshot()
	bad.LapDistance = nil
	eng, _ := newTestEngine(&stubAdapter{snap: bad}, emitter)

	eng.Tick(context.Background())
	assert.Empty(t, emitter.messages)
}

func TestSpotterAlertReachesSubscribersAndRelay(t *testing.T) {
	emitter := &captureEmitter{}
	snap := goodSnapshot()
	snap.CarLeftRight = telemetry.FlagCarLeft | telemetry.FlagCarRight
	eng, alerts := newTestEngine(&stubAdapter{snap: snap}, emitter)

	ch := alerts.Subscribe(AlertTopic)
	eng.Tick(context.Background())

	select {
	case a := <-ch:
		assert.Equal(t, model.CategorySpotter, a.Category)
		assert.Contains(t, a.Text, "Three wide")
	default:
		t.Fatal("no alert published")
	}

	events := emitter.byType(protocol.TypeRaceEvent)
	require.NotEmpty(t, events)
}

func TestAnalysisPanicDoesNotKillTick(t *testing.T) {
	emitter := &captureEmitter{}
	eng, _ := newTestEngine(&stubAdapter{snap: goodSnapshot()}, emitter)

	// force a panic inside one pass
	eng.opponents = nil

	assert.NotPanics(t, func() { eng.Tick(context.Background()) })
	assert.NotEmpty(t, emitter.byType(protocol.TypeTelemetry),
		"telemetry still flows after a pass fails")
}

func TestStewardCommandQueuedForTickLoop(t *testing.T) {
	emitter := &captureEmitter{}
	eng, _ := newTestEngine(&stubAdapter{snap: goodSnapshot()}, emitter)

	reg := &stubRegistrar{}
	eng.RegisterHandlers(reg)
	require.Contains(t, reg.handlers, protocol.TypeStewardCommand)

	reg.handlers[protocol.TypeStewardCommand]([]byte(`{"command":"meatball","reason":"debris"}`))
	assert.Equal(t, 1, eng.commands.Len())

	eng.Tick(context.Background())
	assert.Equal(t, 0, eng.commands.Len(), "tick drains the command queue")
}

func TestRemoteRecommendationPublishedLocally(t *testing.T) {
	emitter := &captureEmitter{}
	eng, alerts := newTestEngine(&stubAdapter{snap: goodSnapshot()}, emitter)

	reg := &stubRegistrar{}
	eng.RegisterHandlers(reg)

	ch := alerts.Subscribe(AlertTopic)
	reg.handlers[protocol.TypeRecommendation]([]byte(`{"action":"box","details":"box this lap","confidence":0.9}`))

	select {
	case a := <-ch:
		assert.Equal(t, model.CategoryStrategy, a.Category)
		assert.Contains(t, a.Text, "box this lap")
	case <-time.After(time.Second):
		t.Fatal("recommendation never published")
	}
}
