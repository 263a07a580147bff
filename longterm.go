package noema

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
)

// EpisodeContext situates an episodic entry in time, space, and affect.
type EpisodeContext struct {
	Time             time.Time
	Location         string
	EmotionalValence float64
	Importance       float64
}

// EpisodicEntry is an autobiographical memory trace.
type EpisodicEntry struct {
	ID           string
	Content      Content
	Context      EpisodeContext
	Strength     float64
	AccessCount  int
	LastAccess   time.Time
	Associations map[string]float64
}

// SemanticEntry is a concept-keyed knowledge record, unique per concept.
type SemanticEntry struct {
	ID           string
	Concept      string
	Knowledge    Content
	Properties   map[string]Content
	Strength     float64
	Category     string
	AccessCount  int
	LastAccess   time.Time
	Associations map[string]float64
}

// EpisodicCues describe a partial retrieval probe. Absent cues (empty
// content, nil time, empty location) are excluded from score normalization.
type EpisodicCues struct {
	Content  Content
	Time     *time.Time
	Location string
}

// ScoredEpisode pairs a retrieved entry with its blended cue score.
type ScoredEpisode struct {
	Entry EpisodicEntry
	Score float64
}

// ActivatedConcept pairs a semantic entry with its spreading activation.
type ActivatedConcept struct {
	Entry      SemanticEntry
	Activation float64
}

// LongTermConfig tunes the episodic and semantic stores.
type LongTermConfig struct {
	// EpisodicDedupSimilarity and EpisodicDedupWindow define the "same
	// episode" merge criteria on store.
	EpisodicDedupSimilarity float64
	EpisodicDedupWindow     time.Duration
	// ConsolidationThreshold is the working-memory access count required
	// to promote an item without force.
	ConsolidationThreshold int
	// SemanticIncrement is the strength gain on repeated semantic stores,
	// accumulating up to SemanticCeiling.
	SemanticIncrement float64
	SemanticCeiling   float64
	// Decay parameters. Episodic entries are hard-deleted below 0.05 after
	// EpisodicDeleteAfter without access; semantic strength floors at 0.01.
	EpisodicDecayRate   float64
	SemanticDecayRate   float64
	AssociationDecay    float64
	EpisodicDeleteAfter time.Duration
	// TemporalRadius scales the exp(-Δt/radius) proximity term during
	// episodic retrieval.
	TemporalRadius time.Duration
	// RetrievalThreshold is the minimum blended score for episodic recall.
	RetrievalThreshold float64
}

// DefaultLongTermConfig returns the standard parameters.
func DefaultLongTermConfig() LongTermConfig {
	return LongTermConfig{
		EpisodicDedupSimilarity: 0.85,
		EpisodicDedupWindow:     time.Hour,
		ConsolidationThreshold:  3,
		SemanticIncrement:       0.1,
		SemanticCeiling:         10.0,
		EpisodicDecayRate:       0.3,
		SemanticDecayRate:       0.1,
		AssociationDecay:        0.95,
		EpisodicDeleteAfter:     7 * 24 * time.Hour,
		TemporalRadius:          24 * time.Hour,
		RetrievalThreshold:      0.3,
	}
}

// maxExtractedConcepts caps keyword extraction per episode.
const maxExtractedConcepts = 8

// keywordAssociation is the link strength between an episode and the
// concepts extracted from it.
const keywordAssociation = 0.6

// LongTermMemory is the unbounded episodic and semantic store backed by a
// spreading-activation concept network. Like the rest of the core it is
// single-writer; hosts must serialize access externally.
type LongTermMemory struct {
	cfg      LongTermConfig
	clock    clock.Clock
	episodic map[string]*EpisodicEntry
	semantic map[string]*SemanticEntry
	network  *SemanticNetwork
}

// NewLongTermMemory creates a store with the given config and clock.
func NewLongTermMemory(cfg LongTermConfig, clk clock.Clock) *LongTermMemory {
	if cfg.ConsolidationThreshold <= 0 {
		cfg = DefaultLongTermConfig()
	}
	if clk == nil {
		clk = clock.New()
	}
	return &LongTermMemory{
		cfg:      cfg,
		clock:    clk,
		episodic: make(map[string]*EpisodicEntry),
		semantic: make(map[string]*SemanticEntry),
		network:  NewSemanticNetwork(),
	}
}

// Network exposes the concept graph.
func (ltm *LongTermMemory) Network() *SemanticNetwork {
	return ltm.network
}

// StoreEpisodic records an episode. Content similar to an existing entry
// (similarity above the dedup threshold) within the dedup time window is
// merged into that entry instead of duplicated. New entries auto-extract
// keyword concepts into semantic memory, each linked back with a fixed
// association strength. Empty content is a no-op returning "".
func (ltm *LongTermMemory) StoreEpisodic(ctx context.Context, content Content, epCtx EpisodeContext) string {
	if content.IsEmpty() {
		return ""
	}
	now := ltm.clock.Now()
	if epCtx.Time.IsZero() {
		epCtx.Time = now
	}

	for _, e := range ltm.episodic {
		dt := epCtx.Time.Sub(e.Context.Time)
		if dt < 0 {
			dt = -dt
		}
		if dt < ltm.cfg.EpisodicDedupWindow &&
			Similarity(content, e.Content) > ltm.cfg.EpisodicDedupSimilarity {
			e.Strength = math.Min(e.Strength+ltm.cfg.SemanticIncrement, ltm.cfg.SemanticCeiling)
			if epCtx.Importance > e.Context.Importance {
				e.Context.Importance = epCtx.Importance
			}
			e.AccessCount++
			e.LastAccess = now
			capitan.Emit(ctx, EpisodeMerged,
				FieldItemID.Field(e.ID),
				FieldStrength.Field(float32(e.Strength)),
			)
			return e.ID
		}
	}

	entry := &EpisodicEntry{
		ID:           uuid.New().String(),
		Content:      content,
		Context:      epCtx,
		Strength:     1.0,
		AccessCount:  1,
		LastAccess:   now,
		Associations: make(map[string]float64),
	}
	ltm.episodic[entry.ID] = entry

	concepts := extractConcepts(content)
	for _, concept := range concepts {
		sem := ltm.ensureSemantic(ctx, concept, content, "episodic-keyword")
		entry.Associations[concept] = keywordAssociation
		sem.Associations[entry.ID] = keywordAssociation
	}
	// Co-occurring keywords associate in the concept network.
	for i := 0; i < len(concepts); i++ {
		for j := i + 1; j < len(concepts); j++ {
			ltm.network.AddEdge(concepts[i], concepts[j], keywordAssociation)
		}
	}

	capitan.Emit(ctx, EpisodeStored,
		FieldItemID.Field(entry.ID),
		FieldItemCount.Field(len(ltm.episodic)),
	)
	return entry.ID
}

// extractConcepts pulls distinct keyword tokens longer than three runes.
func extractConcepts(content Content) []string {
	tokens := Tokens(Render(content))
	seen := make(map[string]struct{})
	out := make([]string, 0, maxExtractedConcepts)
	for _, t := range tokens {
		if len(t) <= 3 {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == maxExtractedConcepts {
			break
		}
	}
	return out
}

func (ltm *LongTermMemory) ensureSemantic(ctx context.Context, concept string, knowledge Content, category string) *SemanticEntry {
	if existing, ok := ltm.semantic[concept]; ok {
		return existing
	}
	entry := &SemanticEntry{
		ID:           uuid.New().String(),
		Concept:      concept,
		Knowledge:    knowledge,
		Properties:   make(map[string]Content),
		Strength:     1.0,
		Category:     category,
		AccessCount:  1,
		LastAccess:   ltm.clock.Now(),
		Associations: make(map[string]float64),
	}
	ltm.semantic[concept] = entry
	capitan.Emit(ctx, ConceptStored,
		FieldConcept.Field(concept),
		FieldStrength.Field(float32(entry.Strength)),
	)
	return entry
}

// StoreSemantic upserts knowledge keyed by concept identity. Repeated
// stores accumulate strength by a fixed increment up to the ceiling and
// refresh access stats. Network edges are created from the "related_to"
// and "category" properties.
func (ltm *LongTermMemory) StoreSemantic(ctx context.Context, concept string, knowledge Content, properties map[string]Content) string {
	if concept == "" {
		return ""
	}
	now := ltm.clock.Now()

	entry, exists := ltm.semantic[concept]
	if exists {
		entry.Knowledge = knowledge
		entry.Strength = math.Min(entry.Strength+ltm.cfg.SemanticIncrement, ltm.cfg.SemanticCeiling)
		entry.AccessCount++
		entry.LastAccess = now
		for k, v := range properties {
			entry.Properties[k] = v
		}
	} else {
		props := make(map[string]Content, len(properties))
		for k, v := range properties {
			props[k] = v
		}
		entry = &SemanticEntry{
			ID:           uuid.New().String(),
			Concept:      concept,
			Knowledge:    knowledge,
			Properties:   props,
			Strength:     1.0,
			AccessCount:  1,
			LastAccess:   now,
			Associations: make(map[string]float64),
		}
		ltm.semantic[concept] = entry
	}

	if related, ok := properties["related_to"]; ok {
		for _, target := range relatedConcepts(related) {
			ltm.network.AddEdge(concept, target, 0.7)
		}
	}
	if category, ok := properties["category"]; ok && category.Kind() == KindText {
		entry.Category = category.Text()
		ltm.network.AddEdge(concept, category.Text(), 0.5)
	}

	capitan.Emit(ctx, ConceptStored,
		FieldConcept.Field(concept),
		FieldStrength.Field(float32(entry.Strength)),
	)
	return entry.ID
}

// relatedConcepts accepts a single concept name or a list of them.
func relatedConcepts(c Content) []string {
	switch c.Kind() {
	case KindText:
		return []string{c.Text()}
	case KindList:
		out := make([]string, 0, len(c.Items()))
		for _, item := range c.Items() {
			if item.Kind() == KindText && item.Text() != "" {
				out = append(out, item.Text())
			}
		}
		return out
	default:
		return nil
	}
}

// GetSemantic returns the entry for a concept without touching access stats.
func (ltm *LongTermMemory) GetSemantic(concept string) (SemanticEntry, bool) {
	entry, ok := ltm.semantic[concept]
	if !ok {
		return SemanticEntry{}, false
	}
	return *entry, true
}

// RetrieveEpisodic scores every entry by a weighted blend of content
// similarity (0.5), temporal proximity (0.3), and spatial proximity (0.2),
// normalized by the weights of cues actually present, multiplied by entry
// strength. Entries scoring above the retrieval threshold return in
// descending order; their access stats refresh.
func (ltm *LongTermMemory) RetrieveEpisodic(ctx context.Context, cues EpisodicCues) []ScoredEpisode {
	now := ltm.clock.Now()
	var results []ScoredEpisode

	for _, e := range ltm.episodic {
		score, ok := ltm.scoreEpisode(e, cues)
		if !ok {
			continue
		}
		score *= e.Strength
		if score <= ltm.cfg.RetrievalThreshold {
			continue
		}
		e.AccessCount++
		e.LastAccess = now
		results = append(results, ScoredEpisode{Entry: *e, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

func (ltm *LongTermMemory) scoreEpisode(e *EpisodicEntry, cues EpisodicCues) (float64, bool) {
	total := 0.0
	weight := 0.0

	if !cues.Content.IsEmpty() {
		total += 0.5 * Similarity(cues.Content, e.Content)
		weight += 0.5
	}
	if cues.Time != nil {
		dt := cues.Time.Sub(e.Context.Time).Seconds()
		if dt < 0 {
			dt = -dt
		}
		total += 0.3 * math.Exp(-dt/ltm.cfg.TemporalRadius.Seconds())
		weight += 0.3
	}
	if cues.Location != "" {
		proximity := 0.0
		if cues.Location == e.Context.Location {
			proximity = 1.0
		}
		total += 0.2 * proximity
		weight += 0.2
	}
	if weight == 0 {
		return 0, false
	}
	return total / weight, true
}

// RetrieveSemantic runs spreading activation from the given concept and
// returns the semantic entries matching any activated concept, sorted by
// activation descending.
func (ltm *LongTermMemory) RetrieveSemantic(ctx context.Context, concept string, maxHops int) []ActivatedConcept {
	now := ltm.clock.Now()
	activation := ltm.network.Spread(concept, maxHops)

	var results []ActivatedConcept
	for name, act := range activation {
		entry, ok := ltm.semantic[name]
		if !ok {
			continue
		}
		entry.AccessCount++
		entry.LastAccess = now
		results = append(results, ActivatedConcept{Entry: *entry, Activation: act})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Activation != results[j].Activation {
			return results[i].Activation > results[j].Activation
		}
		return results[i].Entry.Concept < results[j].Entry.Concept
	})
	return results
}

// Consolidate promotes a working-memory item once its access count reaches
// the consolidation threshold, or unconditionally when forced. Items whose
// context carries temporal, spatial, or affective fields route to episodic
// memory; everything else becomes semantic knowledge.
func (ltm *LongTermMemory) Consolidate(ctx context.Context, item WorkingItem, force bool) bool {
	if item.Content.IsEmpty() {
		return false
	}
	if !force && item.AccessCount < ltm.cfg.ConsolidationThreshold {
		return false
	}

	if epCtx, episodic := episodeContextOf(item); episodic {
		id := ltm.StoreEpisodic(ctx, item.Content, epCtx)
		capitan.Emit(ctx, MemoryConsolidated,
			FieldItemID.Field(id),
			FieldStage.Field("episodic"),
		)
		return id != ""
	}

	concept := conceptLabel(item.Content)
	if concept == "" {
		return false
	}
	id := ltm.StoreSemantic(ctx, concept, item.Content, item.Context)
	capitan.Emit(ctx, MemoryConsolidated,
		FieldItemID.Field(id),
		FieldStage.Field("semantic"),
		FieldConcept.Field(concept),
	)
	return id != ""
}

// episodeContextOf detects temporal/spatial/affective context fields.
func episodeContextOf(item WorkingItem) (EpisodeContext, bool) {
	epCtx := EpisodeContext{Time: item.CreatedAt}
	found := false

	if loc, ok := item.Context["location"]; ok && loc.Kind() == KindText {
		epCtx.Location = loc.Text()
		found = true
	}
	if valence, ok := item.Context["valence"]; ok && valence.Kind() == KindScalar {
		epCtx.EmotionalValence = valence.Scalar()
		found = true
	}
	if importance, ok := item.Context["importance"]; ok && importance.Kind() == KindScalar {
		epCtx.Importance = importance.Scalar()
		found = true
	}
	if _, ok := item.Context["time"]; ok {
		found = true
	}
	return epCtx, found
}

// conceptLabel derives a semantic key from content: the first keyword
// token, falling back to the first token, then to the rendered prefix.
func conceptLabel(content Content) string {
	tokens := Tokens(Render(content))
	for _, t := range tokens {
		if len(t) > 3 {
			return t
		}
	}
	if len(tokens) > 0 {
		return tokens[0]
	}
	rendered := Render(content)
	if len(rendered) > 32 {
		rendered = rendered[:32]
	}
	return rendered
}

// ApplyDecay runs one decay cycle: episodic strength follows a power law
// over days since access and entries below 0.05 unaccessed past the delete
// window are removed; semantic strength decays more slowly and floors at
// 0.01 instead of deletion; network edges decay multiplicatively and prune.
func (ltm *LongTermMemory) ApplyDecay(ctx context.Context) {
	now := ltm.clock.Now()
	removed := 0

	for id, e := range ltm.episodic {
		days := now.Sub(e.LastAccess).Hours() / 24
		if days < 0 {
			days = 0
		}
		e.Strength *= math.Pow(days+1, -ltm.cfg.EpisodicDecayRate)
		if e.Strength < 0.05 && now.Sub(e.LastAccess) > ltm.cfg.EpisodicDeleteAfter {
			delete(ltm.episodic, id)
			removed++
		}
	}

	for _, s := range ltm.semantic {
		days := now.Sub(s.LastAccess).Hours() / 24
		if days < 0 {
			days = 0
		}
		s.Strength *= math.Pow(days+1, -ltm.cfg.SemanticDecayRate)
		if s.Strength < 0.01 {
			s.Strength = 0.01
		}
	}

	pruned := ltm.network.Decay(ltm.cfg.AssociationDecay)

	capitan.Emit(ctx, MemoryDecayed,
		FieldItemCount.Field(removed),
		FieldEdgeCount.Field(pruned),
	)
}

// EpisodicCount returns the number of stored episodes.
func (ltm *LongTermMemory) EpisodicCount() int {
	return len(ltm.episodic)
}

// SemanticCount returns the number of stored concepts.
func (ltm *LongTermMemory) SemanticCount() int {
	return len(ltm.semantic)
}
