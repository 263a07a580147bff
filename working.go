package noema

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// RetrievalMode selects how WorkingMemory.Retrieve matches a cue.
type RetrievalMode int

const (
	// RetrieveExact matches by content identity and requires the item's
	// activation to clear the retrieval threshold.
	RetrieveExact RetrievalMode = iota
	// RetrieveFuzzy scores every item by similarity, activation, recency,
	// and access frequency, returning the best match above threshold.
	RetrieveFuzzy
)

// WorkingMemoryConfig tunes the short-term store.
type WorkingMemoryConfig struct {
	// Capacity is the maximum number of concurrently held items.
	// Defaults to 7 (Miller's law).
	Capacity int
	// BaseActivation is the activation assigned on store and rehearsal.
	BaseActivation float64
	// DecayRate is the exponent of the power-law activation decay.
	DecayRate float64
	// RetrievalThreshold is the minimum activation for retrieval.
	RetrievalThreshold float64
	// PurgeAfter is how long an item below half the retrieval threshold
	// may go unaccessed before it is removed.
	PurgeAfter time.Duration
}

// DefaultWorkingMemoryConfig returns the standard parameters.
func DefaultWorkingMemoryConfig() WorkingMemoryConfig {
	return WorkingMemoryConfig{
		Capacity:           7,
		BaseActivation:     1.0,
		DecayRate:          0.5,
		RetrievalThreshold: 0.2,
		PurgeAfter:         30 * time.Second,
	}
}

// WorkingItem is a read-only snapshot of a stored item with its activation
// evaluated at observation time.
type WorkingItem struct {
	ID           string
	Content      Content
	Context      map[string]Content
	Activation   float64
	CreatedAt    time.Time
	LastAccess   time.Time
	AccessCount  int
	ChunkMembers []string
}

type workingItem struct {
	id           string
	content      Content
	context      map[string]Content
	base         float64
	createdAt    time.Time
	lastAccess   time.Time
	accessCount  int
	chunkMembers []string
}

// WorkingMemory is a capacity-bounded short-term store with lazy power-law
// activation decay. Not safe for concurrent use; callers embedding the core
// in a concurrent host must serialize access externally.
type WorkingMemory struct {
	cfg   WorkingMemoryConfig
	clock clock.Clock
	items map[string]*workingItem
}

// NewWorkingMemory creates a store with the given config and clock.
func NewWorkingMemory(cfg WorkingMemoryConfig, clk clock.Clock) *WorkingMemory {
	if cfg.Capacity <= 0 {
		cfg = DefaultWorkingMemoryConfig()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &WorkingMemory{
		cfg:   cfg,
		clock: clk,
		items: make(map[string]*workingItem),
	}
}

// activationAt evaluates the power-law decay lazily:
// base × (seconds since access + 1)^(-decay).
func (wm *WorkingMemory) activationAt(it *workingItem, now time.Time) float64 {
	elapsed := now.Sub(it.lastAccess).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return it.base * math.Pow(elapsed+1, -wm.cfg.DecayRate)
}

// purgeExpired removes items whose activation fell under half the retrieval
// threshold and that have gone unaccessed past the purge window.
func (wm *WorkingMemory) purgeExpired(ctx context.Context, now time.Time) {
	for id, it := range wm.items {
		if wm.activationAt(it, now) < wm.cfg.RetrievalThreshold/2 &&
			now.Sub(it.lastAccess) > wm.cfg.PurgeAfter {
			delete(wm.items, id)
			capitan.Emit(ctx, ItemPurged,
				FieldItemID.Field(id),
				FieldItemCount.Field(len(wm.items)),
			)
		}
	}
}

// Store inserts content, returning the item ID. Storing content identical
// to an existing item rehearses it (activation reset to base) instead of
// duplicating. At capacity the lowest-activation item is evicted first.
// Empty content is a no-op returning "".
func (wm *WorkingMemory) Store(ctx context.Context, content Content, itemCtx map[string]Content) string {
	if content.IsEmpty() {
		return ""
	}

	now := wm.clock.Now()
	wm.purgeExpired(ctx, now)

	for _, it := range wm.items {
		if it.content.Equal(content) {
			it.base = wm.cfg.BaseActivation
			it.lastAccess = now
			it.accessCount++
			capitan.Emit(ctx, ItemRehearsed,
				FieldItemID.Field(it.id),
				FieldActivation.Field(float32(it.base)),
			)
			return it.id
		}
	}

	if len(wm.items) >= wm.cfg.Capacity {
		wm.evictWeakest(ctx, now)
	}

	copied := make(map[string]Content, len(itemCtx))
	for k, v := range itemCtx {
		copied[k] = v
	}
	it := &workingItem{
		id:          uuid.New().String(),
		content:     content,
		context:     copied,
		base:        wm.cfg.BaseActivation,
		createdAt:   now,
		lastAccess:  now,
		accessCount: 1,
	}
	wm.items[it.id] = it

	capitan.Emit(ctx, ItemStored,
		FieldItemID.Field(it.id),
		FieldActivation.Field(float32(it.base)),
		FieldItemCount.Field(len(wm.items)),
	)
	return it.id
}

func (wm *WorkingMemory) evictWeakest(ctx context.Context, now time.Time) {
	var weakest *workingItem
	lowest := math.Inf(1)
	for _, it := range wm.items {
		if a := wm.activationAt(it, now); a < lowest {
			lowest = a
			weakest = it
		}
	}
	if weakest == nil {
		return
	}
	delete(wm.items, weakest.id)
	capitan.Emit(ctx, ItemEvicted,
		FieldItemID.Field(weakest.id),
		FieldActivation.Field(float32(lowest)),
		FieldItemCount.Field(len(wm.items)),
	)
}

// Retrieve looks up an item by cue. Exact mode matches content identity;
// fuzzy mode scores similarity × activation with recency and frequency
// boosts. Returns false when nothing clears the retrieval threshold.
func (wm *WorkingMemory) Retrieve(ctx context.Context, cue Content, mode RetrievalMode) (WorkingItem, bool) {
	now := wm.clock.Now()
	wm.purgeExpired(ctx, now)

	switch mode {
	case RetrieveExact:
		for _, it := range wm.items {
			if it.content.Equal(cue) && wm.activationAt(it, now) >= wm.cfg.RetrievalThreshold {
				return wm.touch(it, now), true
			}
		}
		return WorkingItem{}, false
	default:
		var best *workingItem
		bestScore := 0.0
		for _, it := range wm.items {
			score := Similarity(cue, it.content) * wm.activationAt(it, now)
			score *= math.Exp(-wm.cfg.DecayRate * now.Sub(it.lastAccess).Seconds() * 0.1)
			score += math.Log(float64(it.accessCount)+1) * 0.1
			if score > bestScore {
				bestScore = score
				best = it
			}
		}
		if best == nil || bestScore < wm.cfg.RetrievalThreshold {
			return WorkingItem{}, false
		}
		return wm.touch(best, now), true
	}
}

// touch registers an access: activation resets to base and stats refresh.
func (wm *WorkingMemory) touch(it *workingItem, now time.Time) WorkingItem {
	it.base = wm.cfg.BaseActivation
	it.lastAccess = now
	it.accessCount++
	return wm.snapshot(it, now)
}

func (wm *WorkingMemory) snapshot(it *workingItem, now time.Time) WorkingItem {
	ctxCopy := make(map[string]Content, len(it.context))
	for k, v := range it.context {
		ctxCopy[k] = v
	}
	members := make([]string, len(it.chunkMembers))
	copy(members, it.chunkMembers)
	return WorkingItem{
		ID:           it.id,
		Content:      it.content,
		Context:      ctxCopy,
		Activation:   wm.activationAt(it, now),
		CreatedAt:    it.createdAt,
		LastAccess:   it.lastAccess,
		AccessCount:  it.accessCount,
		ChunkMembers: members,
	}
}

// Get returns a snapshot of a specific item without registering an access.
func (wm *WorkingMemory) Get(id string) (WorkingItem, bool) {
	it, ok := wm.items[id]
	if !ok {
		return WorkingItem{}, false
	}
	return wm.snapshot(it, wm.clock.Now()), true
}

// Items returns snapshots of all currently held items.
func (wm *WorkingMemory) Items() []WorkingItem {
	now := wm.clock.Now()
	out := make([]WorkingItem, 0, len(wm.items))
	for _, it := range wm.items {
		out = append(out, wm.snapshot(it, now))
	}
	return out
}

// Len returns the current item count.
func (wm *WorkingMemory) Len() int {
	return len(wm.items)
}

// Load reports occupancy in [0,1], feeding metacognitive load tracking.
func (wm *WorkingMemory) Load() float64 {
	return clamp01(float64(len(wm.items)) / float64(wm.cfg.Capacity))
}

// CreateChunk merges the named items into one higher-level item and removes
// the originals. It fails (false, no mutation) if any referenced ID is
// absent. Chunking is the explicit capacity-relief operation.
func (wm *WorkingMemory) CreateChunk(ctx context.Context, ids []string, label string) (string, bool) {
	if len(ids) == 0 {
		return "", false
	}
	members := make([]*workingItem, 0, len(ids))
	for _, id := range ids {
		it, ok := wm.items[id]
		if !ok {
			return "", false
		}
		members = append(members, it)
	}

	now := wm.clock.Now()
	parts := make([]Content, len(members))
	mergedCtx := make(map[string]Content)
	for i, m := range members {
		parts[i] = m.content
		for k, v := range m.context {
			mergedCtx[k] = v
		}
		delete(wm.items, m.id)
	}
	mergedCtx["label"] = Text(label)

	chunk := &workingItem{
		id:           uuid.New().String(),
		content:      List(parts...),
		context:      mergedCtx,
		base:         wm.cfg.BaseActivation,
		createdAt:    now,
		lastAccess:   now,
		accessCount:  1,
		chunkMembers: append([]string(nil), ids...),
	}
	wm.items[chunk.id] = chunk

	capitan.Emit(ctx, ChunkCreated,
		FieldItemID.Field(chunk.id),
		FieldItemCount.Field(len(wm.items)),
	)
	return chunk.id, true
}

// ApplyInterference suppresses items similar to newly arrived content:
// any item whose similarity exceeds 0.7 has its activation scaled down in
// proportion to that similarity.
func (wm *WorkingMemory) ApplyInterference(ctx context.Context, newContent Content) {
	now := wm.clock.Now()
	for _, it := range wm.items {
		sim := Similarity(newContent, it.content)
		if sim <= 0.7 || it.content.Equal(newContent) {
			continue
		}
		// Fold the current decayed activation into the base, then suppress.
		it.base = wm.activationAt(it, now) * (1 - sim*0.3)
		it.lastAccess = now
		capitan.Emit(ctx, ItemSuppressed,
			FieldItemID.Field(it.id),
			FieldActivation.Field(float32(it.base)),
		)
	}
}
