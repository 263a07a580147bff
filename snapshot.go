package noema

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
)

// Snapshot is the opaque persisted form of a conductor: its observable
// state and lifetime statistics, serialized as JSON blobs. The only
// contract is lossless round-tripping.
type Snapshot struct {
	ID          string    `db:"id" type:"uuid" constraints:"primarykey" default:"gen_random_uuid()"`
	ConductorID string    `db:"conductor_id" type:"text" constraints:"notnull"`
	State       []byte    `db:"state" type:"jsonb" constraints:"notnull"`
	Stats       []byte    `db:"stats" type:"jsonb" constraints:"notnull"`
	Created     time.Time `db:"created" type:"timestamp" constraints:"notnull"`
}

// SnapshotStore persists conductor snapshots. Implementations must treat
// failures as unavailability: the conductor degrades, it never crashes over
// a persistence error.
type SnapshotStore interface {
	// Save persists a snapshot.
	Save(ctx context.Context, snap *Snapshot) error
	// Latest returns the most recent snapshot for a conductor.
	Latest(ctx context.Context, conductorID string) (*Snapshot, error)
}

// snapshotState is the serialized conductor state, including the running
// confidence sum so MeanConfidence keeps accumulating after a restore.
type snapshotState struct {
	State         CognitiveState `json:"state"`
	ConfidenceSum float64        `json:"confidence_sum"`
}

// Snapshot serializes the conductor's state and stats.
func (c *Conductor) Snapshot() (*Snapshot, error) {
	stateBlob, err := json.Marshal(snapshotState{
		State:         c.State(),
		ConfidenceSum: c.confidenceSum,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	statsBlob, err := json.Marshal(c.stats)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stats: %w", err)
	}
	return &Snapshot{
		ConductorID: c.id,
		State:       stateBlob,
		Stats:       statsBlob,
		Created:     c.clock.Now(),
	}, nil
}

// RestoreSnapshot loads previously serialized state and stats. Component
// contents (memories, network) are not part of the snapshot contract.
func (c *Conductor) RestoreSnapshot(snap *Snapshot) error {
	var st snapshotState
	if err := json.Unmarshal(snap.State, &st); err != nil {
		return fmt.Errorf("failed to unmarshal state: %w", err)
	}
	var stats Stats
	if err := json.Unmarshal(snap.Stats, &stats); err != nil {
		return fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	c.state = st.State
	c.confidenceSum = st.ConfidenceSum
	c.stats = stats
	return nil
}

// Persist saves the current snapshot to the store. Failures are reported
// and returned; the conductor itself stays fully operational.
func (c *Conductor) Persist(ctx context.Context, store SnapshotStore) error {
	snap, err := c.Snapshot()
	if err != nil {
		capitan.Error(ctx, SnapshotFailed,
			FieldProcessID.Field(c.id),
			FieldError.Field(err),
		)
		return err
	}
	if err := store.Save(ctx, snap); err != nil {
		capitan.Error(ctx, SnapshotFailed,
			FieldProcessID.Field(c.id),
			FieldError.Field(err),
		)
		return err
	}
	capitan.Emit(ctx, SnapshotSaved,
		FieldProcessID.Field(c.id),
	)
	return nil
}

// Restore loads the latest snapshot for this conductor from the store.
func (c *Conductor) Restore(ctx context.Context, store SnapshotStore) error {
	snap, err := store.Latest(ctx, c.id)
	if err != nil {
		capitan.Error(ctx, SnapshotFailed,
			FieldProcessID.Field(c.id),
			FieldError.Field(err),
		)
		return err
	}
	if err := c.RestoreSnapshot(snap); err != nil {
		capitan.Error(ctx, SnapshotFailed,
			FieldProcessID.Field(c.id),
			FieldError.Field(err),
		)
		return err
	}
	capitan.Emit(ctx, SnapshotRestored,
		FieldProcessID.Field(c.id),
	)
	return nil
}
