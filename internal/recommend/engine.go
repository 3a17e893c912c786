package recommend

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cinesense/cinesense/internal/models"
)

// ErrNoSnapshot is returned when a request arrives before the first catalog
// build has been published.
var ErrNoSnapshot = errors.New("no catalog snapshot loaded")

// EmptyPoolMessage is returned with an empty result list when the anchor
// resolved but has no eligible candidates.
const EmptyPoolMessage = "no similar titles found for this type"

// Engine answers recommendation requests against the current snapshot.
// Publish swaps snapshots atomically; requests already running continue on
// the snapshot they loaded.
type Engine struct {
	current     atomic.Pointer[Snapshot]
	defaultTopN int
	maxTopN     int
	logger      *zap.Logger
}

// NewEngine creates an engine with no snapshot loaded. defaultTopN <= 0 falls
// back to models.DefaultTopN; maxTopN <= 0 disables the TopN clamp.
func NewEngine(defaultTopN, maxTopN int, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{defaultTopN: defaultTopN, maxTopN: maxTopN, logger: logger}
}

// Publish makes snap the serving snapshot. The previous snapshot stays valid
// for requests that already loaded it.
func (e *Engine) Publish(snap *Snapshot) {
	e.current.Store(snap)
	st := snap.Stats()
	e.logger.Info("published catalog snapshot",
		zap.Int("items", st.Items),
		zap.Int("clusters", st.Clusters),
	)
}

// Snapshot returns the serving snapshot, or nil before the first Publish.
func (e *Engine) Snapshot() *Snapshot {
	return e.current.Load()
}

// Recommend resolves the request's title and returns ranked same-type
// recommendations. Title misses surface catalog.ErrTitleNotFound; a resolved
// anchor with no candidates yields an empty result set with a message.
func (e *Engine) Recommend(ctx context.Context, req *models.RecommendRequest) (*models.RecommendResponse, error) {
	start := time.Now()

	snap := e.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	if err := req.Validate(e.defaultTopN, e.maxTopN); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	anchor, err := snap.Resolver.Resolve(req)
	if err != nil {
		return nil, err
	}

	scored := snap.Ranker.Rank(anchor, req.TopN, req.Sort)
	resp := &models.RecommendResponse{
		Results: make([]*models.Recommendation, 0, len(scored)),
		Query:   req.Title,
		Anchor:  anchor.ID,
	}
	for _, sc := range scored {
		resp.Results = append(resp.Results, &models.Recommendation{
			ID:          sc.Item.ID,
			Title:       sc.Item.Title,
			Type:        sc.Item.Type,
			Similarity:  sc.Score,
			Overview:    sc.Item.Metadata.Overview,
			Rating:      sc.Item.Metadata.Rating,
			ReleaseDate: sc.Item.Metadata.ReleaseDate,
		})
	}
	if len(resp.Results) == 0 {
		resp.Message = EmptyPoolMessage
	}
	resp.QueryTime = time.Since(start).Milliseconds()

	e.logger.Debug("served recommendation",
		zap.String("query", req.Title),
		zap.String("anchor", anchor.ID),
		zap.Int("results", len(resp.Results)),
		zap.Int64("ms", resp.QueryTime),
	)
	return resp, nil
}
