package protocol

import "encoding/json"

// Inbound is the envelope the relay reads off the wire. Only the type is
// decoded up front; the rest is handed to the registered handler raw.
type Inbound struct {
	Type string          `json:"type"`
	Body json.RawMessage `json:"body,omitempty"`
}

// Recommendation is a remote engineer's suggestion.
type Recommendation struct {
	Action     string  `json:"action"`
	Details    string  `json:"details"`
	Confidence float64 `json:"confidence"` // 0-1
}

// ProfileLoaded reports that the remote consumer loaded a driver profile.
type ProfileLoaded struct {
	Profile  string `json:"profile"`
	Category string `json:"category"`
}

// Ack confirms receipt of an outbound message.
type Ack struct {
	Of string `json:"of"` // original message type
}

// StewardCommand is accepted and surfaced locally; executing it against the
// simulator is out of scope.
type StewardCommand struct {
	Command string `json:"command"`
	Reason  string `json:"reason"`
}
