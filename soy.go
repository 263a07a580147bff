package noema

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql/postgres"
	"github.com/zoobzio/soy"
)

// SoySnapshotStore implements SnapshotStore using soy for persistence.
type SoySnapshotStore struct {
	snapshots *soy.Soy[Snapshot]
	db        *sqlx.DB
}

// NewSoySnapshotStore creates a new soy-backed SnapshotStore.
func NewSoySnapshotStore(db *sqlx.DB) (*SoySnapshotStore, error) {
	snapshots, err := soy.New[Snapshot](db, "snapshots", postgres.New())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshots table: %w", err)
	}
	return &SoySnapshotStore{
		snapshots: snapshots,
		db:        db,
	}, nil
}

// Save persists a snapshot and fills in its generated ID.
func (s *SoySnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	inserted, err := s.snapshots.Insert().Exec(ctx, snap)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	snap.ID = inserted.ID
	return nil
}

// Latest returns the most recent snapshot for a conductor.
func (s *SoySnapshotStore) Latest(ctx context.Context, conductorID string) (*Snapshot, error) {
	snaps, err := s.snapshots.Query().
		Where("conductor_id", "=", "conductor_id").
		OrderBy("created", "desc").
		Limit(1).
		Exec(ctx, map[string]any{"conductor_id": conductorID})
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("no snapshot for conductor %s", conductorID)
	}
	return snaps[0], nil
}

// Prune deletes a conductor's snapshots created before the cutoff.
func (s *SoySnapshotStore) Prune(ctx context.Context, conductorID string, before time.Time) error {
	_, err := s.snapshots.Remove().
		Where("conductor_id", "=", "conductor_id").
		Where("created", "<", "before").
		Exec(ctx, map[string]any{
			"conductor_id": conductorID,
			"before":       before,
		})
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SoySnapshotStore) Close() error {
	return s.db.Close()
}

var _ SnapshotStore = (*SoySnapshotStore)(nil)
