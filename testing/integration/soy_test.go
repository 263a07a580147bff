//go:build integration

package integration_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/zoobzio/noema"
)

func getTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}

	return db
}

func TestSoySnapshotStore_SaveLatest(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	store, err := noema.NewSoySnapshotStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	conductor := noema.NewConductor()

	outcome := conductor.Run(ctx, noema.Text("integration probe"), nil)
	if outcome.Solution.IsEmpty() {
		t.Fatal("expected a solution")
	}

	if err := conductor.Persist(ctx, store); err != nil {
		t.Fatalf("failed to persist: %v", err)
	}

	snap, err := store.Latest(ctx, conductor.ID())
	if err != nil {
		t.Fatalf("failed to load latest: %v", err)
	}
	if snap.ConductorID != conductor.ID() {
		t.Errorf("expected conductor ID %q, got %q", conductor.ID(), snap.ConductorID)
	}
	if len(snap.State) == 0 || len(snap.Stats) == 0 {
		t.Error("expected non-empty state and stats blobs")
	}

	// Clean up.
	_ = store.Prune(ctx, conductor.ID(), time.Now().Add(time.Hour))
}

func TestSoySnapshotStore_RoundTrip(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	store, err := noema.NewSoySnapshotStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	conductor := noema.NewConductor()
	conductor.Run(ctx, noema.Text("first problem"), nil)
	conductor.Run(ctx, noema.Text("second problem"), nil)

	wantStats := conductor.Statistics()

	if err := conductor.Persist(ctx, store); err != nil {
		t.Fatalf("failed to persist: %v", err)
	}

	restored := noema.NewConductor()
	snap, err := store.Latest(ctx, conductor.ID())
	if err != nil {
		t.Fatalf("failed to load latest: %v", err)
	}
	if err := restored.RestoreSnapshot(snap); err != nil {
		t.Fatalf("failed to restore: %v", err)
	}

	if restored.Statistics() != wantStats {
		t.Errorf("expected stats %+v, got %+v", wantStats, restored.Statistics())
	}

	// Clean up.
	_ = store.Prune(ctx, conductor.ID(), time.Now().Add(time.Hour))
}

func TestSoySnapshotStore_Prune(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()

	store, err := noema.NewSoySnapshotStore(db)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	conductor := noema.NewConductor()

	if err := conductor.Persist(ctx, store); err != nil {
		t.Fatalf("failed to persist: %v", err)
	}
	if err := store.Prune(ctx, conductor.ID(), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("failed to prune: %v", err)
	}

	if _, err := store.Latest(ctx, conductor.ID()); err == nil {
		t.Error("expected no snapshot after prune")
	}
}
