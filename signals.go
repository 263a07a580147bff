package noema

import "github.com/zoobzio/capitan"

// Signal definitions for noema cognitive events.
// Signals follow the pattern: noema.<component>.<event>.
var (
	// Working memory signals.
	ItemStored = capitan.NewSignal(
		"noema.working.item_stored",
		"New item entered working memory",
	)
	ItemRehearsed = capitan.NewSignal(
		"noema.working.item_rehearsed",
		"Existing item re-activated instead of duplicated",
	)
	ItemEvicted = capitan.NewSignal(
		"noema.working.item_evicted",
		"Lowest-activation item displaced at capacity",
	)
	ItemPurged = capitan.NewSignal(
		"noema.working.item_purged",
		"Item removed after activation decayed below threshold",
	)
	ChunkCreated = capitan.NewSignal(
		"noema.working.chunk_created",
		"Items merged into a higher-level chunk",
	)
	ItemSuppressed = capitan.NewSignal(
		"noema.working.item_suppressed",
		"Activation reduced by interference from similar content",
	)

	// Long-term memory signals.
	EpisodeStored = capitan.NewSignal(
		"noema.longterm.episode_stored",
		"New episodic entry created",
	)
	EpisodeMerged = capitan.NewSignal(
		"noema.longterm.episode_merged",
		"Episodic store deduplicated into an existing entry",
	)
	ConceptStored = capitan.NewSignal(
		"noema.longterm.concept_stored",
		"Semantic entry created or reinforced",
	)
	MemoryConsolidated = capitan.NewSignal(
		"noema.longterm.consolidated",
		"Working memory item promoted to long-term memory",
	)
	MemoryDecayed = capitan.NewSignal(
		"noema.longterm.decayed",
		"Decay cycle applied to long-term stores and network edges",
	)

	// Attention signals.
	AttentionAllocated = capitan.NewSignal(
		"noema.attention.allocated",
		"Stimuli selected into the current focus",
	)
	AttentionBlinked = capitan.NewSignal(
		"noema.attention.blinked",
		"Stimuli ignored during the attentional blink window",
	)
	AttentionSwitched = capitan.NewSignal(
		"noema.attention.switched",
		"Focus moved to a new target with a vigilance cost",
	)
	AttentionDivided = capitan.NewSignal(
		"noema.attention.divided",
		"Capacity split across concurrent tasks",
	)

	// Decision signals.
	DecisionMade = capitan.NewSignal(
		"noema.decision.made",
		"Alternative selected under a decision strategy",
	)
	DecisionEvaluated = capitan.NewSignal(
		"noema.decision.evaluated",
		"Outcome compared against expectation, risk tolerance adapted",
	)

	// Metacognition signals.
	PerformanceMonitored = capitan.NewSignal(
		"noema.meta.monitored",
		"Confidence and feeling-of-knowing estimated for an output",
	)
	RegulationIssued = capitan.NewSignal(
		"noema.meta.regulated",
		"Regulatory actions recommended from monitoring history",
	)

	// Conductor signals.
	ProcessStarted = capitan.NewSignal(
		"noema.conductor.process_started",
		"Problem entered the cognitive pipeline",
	)
	ProcessCompleted = capitan.NewSignal(
		"noema.conductor.process_completed",
		"Problem solved and state updated",
	)
	ProcessFailed = capitan.NewSignal(
		"noema.conductor.process_failed",
		"Pipeline stage reported an error; heuristic fallback engaged",
	)
	SystemEngaged = capitan.NewSignal(
		"noema.conductor.system_engaged",
		"Problem routed to System 1 or System 2",
	)

	// Persistence signals.
	SnapshotSaved = capitan.NewSignal(
		"noema.snapshot.saved",
		"Conductor state persisted to the snapshot store",
	)
	SnapshotRestored = capitan.NewSignal(
		"noema.snapshot.restored",
		"Conductor state reloaded from a snapshot",
	)
	SnapshotFailed = capitan.NewSignal(
		"noema.snapshot.failed",
		"Snapshot store unavailable; operation degraded",
	)
)

// Field keys for noema event data.
var (
	// Identity.
	FieldProcessID = capitan.NewStringKey("process_id")
	FieldItemID    = capitan.NewStringKey("item_id")
	FieldConcept   = capitan.NewStringKey("concept")
	FieldTaskType  = capitan.NewStringKey("task_type")

	// Magnitudes.
	FieldActivation = capitan.NewFloat32Key("activation")
	FieldStrength   = capitan.NewFloat32Key("strength")
	FieldConfidence = capitan.NewFloat32Key("confidence")
	FieldVigilance  = capitan.NewFloat32Key("vigilance")
	FieldUtility    = capitan.NewFloat32Key("utility")
	FieldComplexity = capitan.NewFloat32Key("complexity")
	FieldLoad       = capitan.NewFloat32Key("load")

	// Counts.
	FieldItemCount   = capitan.NewIntKey("item_count")
	FieldEdgeCount   = capitan.NewIntKey("edge_count")
	FieldFocusCount  = capitan.NewIntKey("focus_count")
	FieldActionCount = capitan.NewIntKey("action_count")
	FieldSystem      = capitan.NewIntKey("system")

	// Labels.
	FieldStrategy = capitan.NewStringKey("strategy")
	FieldSelected = capitan.NewStringKey("selected")
	FieldStage    = capitan.NewStringKey("stage")

	// Timing.
	FieldDuration = capitan.NewDurationKey("duration")

	// Error information.
	FieldError = capitan.NewErrorKey("error")
)
