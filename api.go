// Package noema provides a dual-process cognitive core for Go: cooperating
// memory, attention, decision, and metacognitive components orchestrated
// into a System 1 / System 2 problem-solving architecture.
//
// # Core Types
//
// The package is built around a small set of cooperating components:
//
//   - [Content] - Tagged-union value flowing through every component
//   - [WorkingMemory] - Capacity-bounded, activation-decaying short-term store
//   - [LongTermMemory] - Episodic and semantic stores over a spreading-activation concept network
//   - [Attention] - Bottom-up saliency and top-down goal relevance with bounded capacity
//   - [DecisionMaker] - Multi-attribute choice with prospect-theory utilities
//   - [MetaCognition] - Confidence monitoring, calibration, and regulation
//   - [HRM] - Two-timescale iterative state machine used as the System 2 substrate
//   - [Conductor] - Top-level orchestrator routing problems between the two systems
//
// # Processing
//
// Use [NewConductor] to assemble a core and [Conductor.Run] to solve:
//
//	conductor := noema.NewConductor()
//	outcome := conductor.Run(ctx, noema.Text("schedule the three pending maintenance windows"), nil)
//	fmt.Println(outcome.Solution.Text(), outcome.Confidence)
//
// The conductor executes a pipz pipeline over a [Process] payload:
// Attend, StoreWorking, RetrieveLongTerm, Assess, then System 1 (analogy
// and associative retrieval) or System 2 (decomposition, recursive System-1
// solves, HRM deliberation, synthesis), followed by Decide, Monitor, and
// Learn.
//
// # Determinism
//
// There is no background scheduler. All activation decay is computed lazily
// from wall-clock deltas against an injectable clock, so results are
// deterministic under a mock clock:
//
//	mock := clock.NewMock()
//	conductor := noema.NewConductor(noema.WithClock(mock))
//
// # Providers
//
// Optional collaborators are explicit capability interfaces resolved at
// construction (with a per-call context override):
//
//   - [AnalogyProvider] - Fast pattern/analogy matching for System 1
//   - [ReasoningProvider] - Deliberate reasoning supplementing HRM in System 2
//
// Absence of a provider is never an error; the core degrades to its native
// heuristics. [ZynReasoner] adapts any zyn-compatible LLM provider into a
// ReasoningProvider.
//
// # Pipeline Helpers
//
// noema wraps pipz connectors for Process handling:
//
//   - [Sequence] - Sequential execution
//   - [Filter] - Conditional execution
//   - [Switch] - Route to different processors
//   - [Fallback] - Try alternatives on failure
//   - [Retry] / [Backoff] - Retry on failure
//   - [Timeout] - Enforce time limits
//   - [Concurrent] / [Race] - Parallel execution
//
// # Persistence
//
// The conductor exposes [Conductor.Snapshot] and [Conductor.RestoreSnapshot]
// as opaque, losslessly round-tripping blobs. [SoySnapshotStore] persists
// them to PostgreSQL via soy:
//
//	store, err := noema.NewSoySnapshotStore(db)
//
// # Observability
//
// noema emits capitan signals throughout execution, including [ItemStored],
// [ItemEvicted], [EpisodeStored], [AttentionAllocated], [DecisionMade],
// [RegulationIssued], [ProcessCompleted], and [SnapshotSaved].
package noema
