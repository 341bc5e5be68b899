package retrieval

import (
	"context"
	"sort"
	"sync"

	"ai-companion-be/internal/entity"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/pkg/events"
	"ai-companion-be/pkg/rag/score"

	"github.com/google/uuid"
)

// DefaultTopK bounds the merged ranked list after all kinds are combined.
const DefaultTopK = 8

// Request describes one retrieval pass over the user's sources.
type Request struct {
	QueryText      string
	UserId         uuid.UUID
	SourceKinds    []entity.SourceKind
	MatchThreshold float64
	MatchCount     int // per-kind bound before merging
	TopK           int // global bound after merging, DefaultTopK when zero
}

// Result carries the merged ranked sources. Degraded is true when the
// embedding call failed and ranking fell back to local keyword scoring.
type Result struct {
	Sources  []entity.ContextSource
	Degraded bool
}

// Embedder turns query text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher runs one ranked similarity search for a single source kind.
type Searcher interface {
	Search(ctx context.Context, kind entity.SourceKind, vector []float32, limit int, userId uuid.UUID, threshold float64) ([]entity.ContextSource, error)
}

// CandidateProvider supplies locally cached sources for degraded ranking.
type CandidateProvider interface {
	GetAll(userId uuid.UUID) []entity.ContextSource
}

// EventPublisher receives observability events. Failures to publish are
// ignored, events never gate the retrieval path.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Aggregator struct {
	embedder   Embedder
	searcher   Searcher
	candidates CandidateProvider
	publisher  EventPublisher
	log        logger.ILogger
}

func NewAggregator(embedder Embedder, searcher Searcher, candidates CandidateProvider, publisher EventPublisher, log logger.ILogger) *Aggregator {
	return &Aggregator{
		embedder:   embedder,
		searcher:   searcher,
		candidates: candidates,
		publisher:  publisher,
		log:        log,
	}
}

// Retrieve embeds the query once, fans out one ranked search per source kind,
// merges the results in kind iteration order and truncates to the global
// top-K. A failed embedding call degrades to keyword scoring over cached
// candidates; a single kind's search failure only empties that kind.
func (a *Aggregator) Retrieve(ctx context.Context, req Request) (*Result, error) {
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	kinds := req.SourceKinds
	if len(kinds) == 0 {
		kinds = entity.KindOrder
	}

	vector, err := a.embedder.Embed(ctx, req.QueryText)
	if err != nil {
		a.log.Warn("retrieval", "embedding unavailable, falling back to keyword scoring", map[string]interface{}{
			"error": err.Error(),
		})
		a.publish(ctx, events.NewRetrievalDegradedEvent(req.UserId.String(), err.Error()))
		return &Result{
			Sources:  a.scoreCandidates(req, kinds, topK),
			Degraded: true,
		}, nil
	}

	// Fan out one search per kind; results land in a fixed slot per kind so
	// the merge order stays the kind iteration order regardless of which
	// goroutine finishes first.
	perKind := make([][]entity.ContextSource, len(kinds))
	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind entity.SourceKind) {
			defer wg.Done()
			sources, err := a.searcher.Search(ctx, kind, vector, req.MatchCount, req.UserId, req.MatchThreshold)
			if err != nil {
				a.log.Warn("retrieval", "source kind search failed, continuing without it", map[string]interface{}{
					"kind":  string(kind),
					"error": err.Error(),
				})
				a.publish(ctx, events.NewRetrievalKindFailedEvent(req.UserId.String(), string(kind), err.Error()))
				return
			}
			perKind[i] = sources
		}(i, kind)
	}
	wg.Wait()

	var merged []entity.ContextSource
	for _, sources := range perKind {
		merged = append(merged, sources...)
	}

	return &Result{
		Sources: rank(merged, topK),
	}, nil
}

// scoreCandidates is the degraded path: keyword scoring over the cached
// candidate set, restricted to the requested kinds.
func (a *Aggregator) scoreCandidates(req Request, kinds []entity.SourceKind, topK int) []entity.ContextSource {
	wanted := make(map[entity.SourceKind]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	var scored []entity.ContextSource
	for _, candidate := range a.candidates.GetAll(req.UserId) {
		if !wanted[candidate.Kind] {
			continue
		}
		relevance := score.Score(req.QueryText, candidate.Title+" "+candidate.Content)
		if relevance < req.MatchThreshold || relevance == 0 {
			continue
		}
		candidate.Relevance = relevance
		scored = append(scored, candidate)
	}

	return rank(scored, topK)
}

// rank sorts descending by relevance with a stable sort, then truncates.
// Ties keep first-seen order, which is the kind iteration order.
func rank(sources []entity.ContextSource, topK int) []entity.ContextSource {
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Relevance > sources[j].Relevance
	})
	if len(sources) > topK {
		sources = sources[:topK]
	}
	return sources
}

func (a *Aggregator) publish(ctx context.Context, event events.Event) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(ctx, event); err != nil {
		a.log.Debug("retrieval", "event publish failed", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}
