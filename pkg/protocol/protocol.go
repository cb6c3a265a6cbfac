package protocol

import (
	"time"

	"pitwallrelay/pkg/damage"
	"pitwallrelay/pkg/strategy"
	"pitwallrelay/pkg/telemetry"
)

// Outbound message types understood by the remote consumer.
const (
	TypeSessionMetadata = "session_metadata"
	TypeTelemetry       = "telemetry"
	TypeRaceEvent       = "race_event"
	TypeIncident        = "incident"
	TypeDriverUpdate    = "driver_update"
)

// Inbound message types dispatched to registered handlers.
const (
	TypeRecommendation = "recommendation"
	TypeProfileLoaded  = "profile_loaded"
	TypeAck            = "ack"
	TypeStewardCommand = "steward_command"
)

// Header is common to every outbound message. SessionID and Timestamp must
// survive a round trip through the remote consumer's schema untouched.
type Header struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"` // milliseconds since epoch
}

func newHeader(msgType, sessionID string, at time.Time) Header {
	return Header{
		Type:      msgType,
		SessionID: sessionID,
		Timestamp: at.UnixMilli(),
	}
}

type SessionMetadata struct {
	Header
	TrackName   string `json:"trackName"`
	SessionType string `json:"sessionType"`
	PlayerName  string `json:"playerName"`
	NumCars     int    `json:"numCars"`
}

// CarFrame is one car's slice of a telemetry message.
type CarFrame struct {
	Slot       int     `json:"slot"`
	Driver     string  `json:"driver,omitempty"`
	Speed      float64 `json:"speed"`
	Gear       int     `json:"gear"`
	LapDistPct float64 `json:"lapDistPct"`
	Throttle   float64 `json:"throttle"`
	Brake      float64 `json:"brake"`
	Steering   float64 `json:"steering"`
	WorldX     float64 `json:"worldX"`
	WorldY     float64 `json:"worldY"`
	WorldZ     float64 `json:"worldZ"`
}

type Telemetry struct {
	Header
	Cars []CarFrame `json:"cars"`
}

type RaceEvent struct {
	Header
	Source  string `json:"source"` // which analysis pass produced it
	Message string `json:"message"`
}

type Incident struct {
	Header
	AeroDamagePct       float64  `json:"aeroDamagePct"`
	SuspensionDamagePct float64  `json:"suspensionDamagePct"`
	EstimatedLapDelta   float64  `json:"estimatedLapDelta"`
	Severity            string   `json:"severity"`
	AffectedCorners     []string `json:"affectedCorners"`
	Message             string   `json:"message"`
}

type DriverUpdate struct {
	Header
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func NewSessionMetadata(sessionID string, at time.Time, info telemetry.SessionInfo) SessionMetadata {
	return SessionMetadata{
		Header:      newHeader(TypeSessionMetadata, sessionID, at),
		TrackName:   info.TrackName,
		SessionType: info.SessionType,
		PlayerName:  info.PlayerName,
		NumCars:     info.NumCars,
	}
}

func NewTelemetry(sessionID string, at time.Time, snap *telemetry.Snapshot) Telemetry {
	msg := Telemetry{Header: newHeader(TypeTelemetry, sessionID, at)}
	names := make(map[int]string, len(snap.Roster))
	for _, d := range snap.Roster {
		names[d.Slot] = d.Name
	}
	for slot := range snap.LapDistance {
		frame := CarFrame{
			Slot:       slot,
			Driver:     names[slot],
			LapDistPct: snap.LapDistance[slot],
		}
		if slot < len(snap.Speed) {
			frame.Speed = snap.Speed[slot]
		}
		if slot < len(snap.Gear) {
			frame.Gear = snap.Gear[slot]
		}
		if slot < len(snap.Throttle) {
			frame.Throttle = snap.Throttle[slot]
		}
		if slot < len(snap.Brake) {
			frame.Brake = snap.Brake[slot]
		}
		if slot < len(snap.Steering) {
			frame.Steering = snap.Steering[slot]
		}
		if slot < len(snap.WorldPos) {
			frame.WorldX = snap.WorldPos[slot].X
			frame.WorldY = snap.WorldPos[slot].Y
			frame.WorldZ = snap.WorldPos[slot].Z
		}
		msg.Cars = append(msg.Cars, frame)
	}
	return msg
}

func NewRaceEvent(sessionID string, at time.Time, source, message string) RaceEvent {
	return RaceEvent{
		Header:  newHeader(TypeRaceEvent, sessionID, at),
		Source:  source,
		Message: message,
	}
}

func NewIncident(sessionID string, at time.Time, est *damage.Estimate, message string) Incident {
	corners := make([]string, 0, len(est.AffectedCorners))
	for _, c := range est.AffectedCorners {
		corners = append(corners, string(c))
	}
	return Incident{
		Header:              newHeader(TypeIncident, sessionID, at),
		AeroDamagePct:       est.AeroDamagePct,
		SuspensionDamagePct: est.SuspensionDamagePct,
		EstimatedLapDelta:   est.EstimatedLapDelta,
		Severity:            string(est.Severity),
		AffectedCorners:     corners,
		Message:             message,
	}
}

func NewDriverUpdate(sessionID string, at time.Time, rec strategy.Recommendation) DriverUpdate {
	return DriverUpdate{
		Header:     newHeader(TypeDriverUpdate, sessionID, at),
		Action:     string(rec.Action),
		Confidence: rec.Confidence,
		Reasoning:  rec.Reasoning,
	}
}
