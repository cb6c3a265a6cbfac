package telemetry

import "context"

// Adapter produces one Snapshot per poll. How the snapshot is acquired from
// the simulator is the adapter's business; the core only sees the canonical
// record.
type Adapter interface {
	Poll(ctx context.Context) (*Snapshot, error)
}
