package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cinesense/cinesense/internal/catalog"
	"github.com/cinesense/cinesense/internal/enrich"
	"github.com/cinesense/cinesense/internal/models"
	"github.com/cinesense/cinesense/internal/recommend"
)

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("recommend request",
		zap.String("title", req.Title), zap.String("type", req.Type), zap.Int("top_n", req.TopN))

	resp, err := s.engine.Recommend(r.Context(), &req)
	switch {
	case err == nil:
	case errors.Is(err, catalog.ErrTitleNotFound):
		s.respondError(w, http.StatusNotFound, "title not found in catalog")
		return
	case errors.Is(err, recommend.ErrNoSnapshot):
		s.respondError(w, http.StatusServiceUnavailable, "catalog not loaded yet")
		return
	case errors.Is(err, r.Context().Err()):
		s.respondError(w, http.StatusRequestTimeout, "request cancelled")
		return
	default:
		// Validation problems are the caller's; anything else would have
		// surfaced as one of the sentinels above.
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.enrichResults(r, resp.Results)
	s.respondJSON(w, http.StatusOK, resp)
}

// enrichResults fills posters and missing overviews concurrently. Provider
// failures leave placeholders; they never fail the response.
func (s *Server) enrichResults(r *http.Request, results []*models.Recommendation) {
	var wg sync.WaitGroup
	for _, rec := range results {
		wg.Add(1)
		go func(rec *models.Recommendation) {
			defer wg.Done()
			enrich.Apply(rec, s.enricher.Lookup(r.Context(), rec.Title, rec.Type))
		}(rec)
	}
	wg.Wait()
}

type browseEntry struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Type        models.ContentType `json:"type"`
	Genre       string             `json:"genre,omitempty"`
	Rating      float64            `json:"rating,omitempty"`
	Year        int                `json:"year,omitempty"`
	ReleaseDate string             `json:"release_date,omitempty"`
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	ct, err := models.ParseContentType(chi.URLParam(r, "type"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap := s.engine.Snapshot()
	if snap == nil {
		s.respondError(w, http.StatusServiceUnavailable, "catalog not loaded yet")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	items := snap.Store.ItemsByType(ct)
	switch models.SortMode(r.URL.Query().Get("sort")) {
	case models.SortRelevance:
		// Catalog order (ascending id) is the browse default.
	case models.SortLatest:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Metadata.Year > items[j].Metadata.Year })
	case models.SortOldest:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Metadata.Year < items[j].Metadata.Year })
	case models.SortPopular:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Metadata.Popularity > items[j].Metadata.Popularity })
	case models.SortTopRated:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Metadata.Rating > items[j].Metadata.Rating })
	default:
		s.respondError(w, http.StatusBadRequest, "unknown sort mode")
		return
	}
	if len(items) > limit {
		items = items[:limit]
	}

	entries := make([]browseEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, browseEntry{
			ID:          it.ID,
			Title:       it.Title,
			Type:        it.Type,
			Genre:       it.Metadata.Genre,
			Rating:      it.Metadata.Rating,
			Year:        it.Metadata.Year,
			ReleaseDate: it.Metadata.ReleaseDate,
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"type":  ct,
		"count": len(entries),
		"items": entries,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	if snap == nil {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"loaded": false})
		return
	}
	st := snap.Stats()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"loaded":   true,
		"items":    st.Items,
		"by_type":  st.ByType,
		"clusters": st.Clusters,
		"built_at": st.BuiltAt,
	})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if s.rebuild == nil {
		s.respondError(w, http.StatusNotImplemented, "no catalog dump configured")
		return
	}
	s.logger.Info("rebuild requested")
	if err := s.rebuild(r.Context()); err != nil {
		s.logger.Error("rebuild failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
