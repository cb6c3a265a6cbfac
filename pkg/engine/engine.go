package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"pitwallrelay/pkg/damage"
	"pitwallrelay/pkg/model"
	"pitwallrelay/pkg/opponents"
	"pitwallrelay/pkg/protocol"
	"pitwallrelay/pkg/pubsub"
	"pitwallrelay/pkg/queues"
	"pitwallrelay/pkg/relay"
	"pitwallrelay/pkg/spotter"
	"pitwallrelay/pkg/strategy"
	"pitwallrelay/pkg/telemetry"
)

// AlertTopic is the pubsub topic every analysis alert is published on.
const AlertTopic = "alerts"

// Emitter is the outbound side of the relay as the engine sees it.
type Emitter interface {
	Emit(msg any) bool
	IsConnected() bool
}

// Config holds the tick-loop settings.
type Config struct {
	SessionID    string
	PollInterval time.Duration
	StatusEvery  int // ticks between profile table dumps, 0 disables
}

// Engine drives one analysis tick per poll interval: pull a snapshot, run the
// four passes, fan alerts out locally, and map results onto the relay. The
// passes share no mutable state and a failure in one never stops the others.
type Engine struct {
	cfg Config
	log zerolog.Logger

	adapter   telemetry.Adapter
	emitter   Emitter
	opponents *opponents.Tracker
	spotter   *spotter.Engine
	strategy  *strategy.Simulator
	damage    *damage.Analyzer
	alerts    *pubsub.PubSub[model.Alert]
	commands  *queues.Queue[protocol.StewardCommand]

	lastTrack    string
	lastAction   strategy.Action
	lastSeverity damage.Severity
	undercutSeen bool
	ticks        int
}

func New(cfg Config, log zerolog.Logger, adapter telemetry.Adapter, emitter Emitter,
	tracker *opponents.Tracker, spot *spotter.Engine, strat *strategy.Simulator,
	dmg *damage.Analyzer, alerts *pubsub.PubSub[model.Alert]) *Engine {
	return &Engine{
		cfg:       cfg,
		log:       log.With().Str("component", "engine").Logger(),
		adapter:   adapter,
		emitter:   emitter,
		opponents: tracker,
		spotter:   spot,
		strategy:  strat,
		damage:    dmg,
		alerts:    alerts,
		commands:  queues.NewQueue[protocol.StewardCommand](),
	}
}

// Registrar is the inbound side of the relay as the engine sees it.
type Registrar interface {
	OnMessage(msgType string, h relay.Handler)
}

// RegisterHandlers wires the inbound side of the relay to the engine. The
// handlers run on the transport's goroutine; anything they leave for the tick
// loop goes through the synchronized command queue.
func (e *Engine) RegisterHandlers(r Registrar) {
	r.OnMessage(protocol.TypeRecommendation, func(body json.RawMessage) {
		var rec protocol.Recommendation
		if err := json.Unmarshal(body, &rec); err != nil {
			e.log.Warn().Err(err).Msg("bad recommendation payload")
			return
		}
		e.log.Info().Str("action", rec.Action).Float64("confidence", rec.Confidence).
			Msg("remote recommendation")
		e.alerts.Publish(AlertTopic, model.Alert{
			Category: model.CategoryStrategy,
			Text:     "Remote engineer: " + rec.Details,
			Time:     time.Now(),
		})
	})
	r.OnMessage(protocol.TypeProfileLoaded, func(body json.RawMessage) {
		var pl protocol.ProfileLoaded
		if err := json.Unmarshal(body, &pl); err != nil {
			e.log.Warn().Err(err).Msg("bad profile_loaded payload")
			return
		}
		e.log.Info().Str("profile", pl.Profile).Str("category", pl.Category).
			Msg("remote profile loaded")
	})
	r.OnMessage(protocol.TypeAck, func(body json.RawMessage) {
		var ack protocol.Ack
		if err := json.Unmarshal(body, &ack); err != nil {
			return
		}
		e.log.Debug().Str("of", ack.Of).Msg("remote ack")
	})
	r.OnMessage(protocol.TypeStewardCommand, func(body json.RawMessage) {
		var cmd protocol.StewardCommand
		if err := json.Unmarshal(body, &cmd); err != nil {
			e.log.Warn().Err(err).Msg("bad steward_command payload")
			return
		}
		e.commands.Push(cmd)
	})
}

// Run drives the tick loop until the context ends.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick runs one full analysis pass. Exported so tests and alternative drivers
// can step the engine manually.
func (e *Engine) Tick(ctx context.Context) {
	e.ticks++
	now := time.Now()

	snap, err := e.adapter.Poll(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("telemetry poll failed, skipping tick")
		return
	}
	if err := snap.Validate(); err != nil {
		e.log.Warn().Err(err).Msg("malformed snapshot, skipping tick")
		return
	}

	if snap.Session.TrackName != e.lastTrack {
		e.lastTrack = snap.Session.TrackName
		e.emitter.Emit(protocol.NewSessionMetadata(e.cfg.SessionID, now, snap.Session))
	}

	for _, text := range e.runPass(model.CategoryOpponents, func() []string {
		return e.opponents.Update(snap)
	}) {
		e.publish(model.CategoryOpponents, text, now)
	}

	for _, text := range e.runPass(model.CategorySpotter, func() []string {
		return e.spotter.Update(snap)
	}) {
		e.publish(model.CategorySpotter, text, now)
	}

	e.runStrategy(snap, now)
	e.runDamage(snap, now)

	e.emitter.Emit(protocol.NewTelemetry(e.cfg.SessionID, now, snap))

	for _, cmd := range e.commands.Drain() {
		e.log.Info().Str("command", cmd.Command).Str("reason", cmd.Reason).
			Msg("steward command received, execution out of scope")
	}

	if e.cfg.StatusEvery > 0 && e.ticks%e.cfg.StatusEvery == 0 {
		e.log.Debug().Msg("opponent profiles\n" + e.opponents.RenderProfiles())
	}
}

// runPass isolates one analysis component; a panic inside it is logged and
// treated as zero alerts so the rest of the tick still runs.
func (e *Engine) runPass(name string, f func() []string) (alerts []string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Str("pass", name).Msg("analysis pass failed")
			alerts = nil
		}
	}()
	return f()
}

func (e *Engine) runStrategy(snap *telemetry.Snapshot, now time.Time) {
	e.runPass(model.CategoryStrategy, func() []string {
		rs := strategy.RaceState{
			CurrentLap:   snap.CurrentLap,
			TotalLaps:    snap.TotalLaps,
			FuelLevel:    snap.FuelLevel,
			TireAgeLaps:  snap.TireAgeLaps,
			GapAheadSec:  snap.GapAheadSec,
			GapBehindSec: snap.GapBehindSec,
		}

		rec := e.strategy.Analyze(rs)
		if rec.Action != e.lastAction {
			e.lastAction = rec.Action
			if rec.Action != strategy.ActionStayOut {
				e.publish(model.CategoryStrategy, rec.Reasoning, now)
			}
			e.emitter.Emit(protocol.NewDriverUpdate(e.cfg.SessionID, now, rec))
		}

		if msg, ok := e.strategy.UndercutOpportunity(rs); ok {
			if !e.undercutSeen {
				e.undercutSeen = true
				e.publish(model.CategoryStrategy, msg, now)
			}
		} else {
			e.undercutSeen = false
		}
		return nil
	})
}

func (e *Engine) runDamage(snap *telemetry.Snapshot, now time.Time) {
	e.runPass(model.CategoryDamage, func() []string {
		est := e.damage.Analyze(snap)
		if est == nil || est.Severity == e.lastSeverity {
			return nil
		}
		e.lastSeverity = est.Severity
		text := damage.VoiceAlert(est)
		e.publish(model.CategoryDamage, text, now)
		e.emitter.Emit(protocol.NewIncident(e.cfg.SessionID, now, est, text))
		return nil
	})
}

// publish fans an alert out locally and mirrors it to the remote consumer.
// Local delivery never depends on the relay being up.
func (e *Engine) publish(category, text string, now time.Time) {
	e.alerts.Publish(AlertTopic, model.Alert{Category: category, Text: text, Time: now})
	e.emitter.Emit(protocol.NewRaceEvent(e.cfg.SessionID, now, category, text))
}
