package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/cinesense/cinesense/internal/catalog"
	"github.com/cinesense/cinesense/internal/cluster"
	"github.com/cinesense/cinesense/internal/config"
	"github.com/cinesense/cinesense/internal/enrich"
	"github.com/cinesense/cinesense/internal/models"
	"github.com/cinesense/cinesense/internal/recommend"
)

type stubEnricher struct{ d enrich.Details }

func (s stubEnricher) Lookup(context.Context, string, models.ContentType) enrich.Details {
	return s.d
}

func testItems() []*models.CatalogItem {
	unit := func(angle float64) []float32 {
		return []float32{float32(math.Cos(angle)), float32(math.Sin(angle)), 0}
	}
	return []*models.CatalogItem{
		{ID: "m1", Title: "Inception", Type: models.TypeMovie, Embedding: unit(0),
			Metadata: models.Metadata{Overview: "A thief enters dreams.", Rating: 8.8, Year: 2010}},
		{ID: "m2", Title: "Interstellar", Type: models.TypeMovie, Embedding: unit(0.1),
			Metadata: models.Metadata{Rating: 8.6, Year: 2014}},
		{ID: "m3", Title: "The Prestige", Type: models.TypeMovie, Embedding: unit(0.2),
			Metadata: models.Metadata{Rating: 8.5, Year: 2006}},
		{ID: "a1", Title: "Attack on Titan", Type: models.TypeAnime, Embedding: unit(0),
			Metadata: models.Metadata{Year: 2013}},
	}
}

func testServer(t *testing.T, enricher enrich.Enricher, rebuild RebuildFunc) *Server {
	t.Helper()
	items := testItems()
	store, err := catalog.NewStore(items, catalog.DefaultFuzzyThreshold)
	if err != nil {
		t.Fatal(err)
	}
	index := cluster.Restore([]*cluster.Cluster{
		{ID: 0, Type: models.TypeMovie, Centroid: items[0].Embedding, Members: []string{"m1", "m2", "m3"}},
		{ID: 1, Type: models.TypeAnime, Centroid: items[3].Embedding, Members: []string{"a1"}},
	})
	snap, err := recommend.NewSnapshot(store, index, nil)
	if err != nil {
		t.Fatal(err)
	}
	engine := recommend.NewEngine(0, 50, zap.NewNop())
	engine.Publish(snap)
	return NewServer(engine, enricher, rebuild, &config.ServerConfig{Host: "localhost", Port: 0}, zap.NewNop())
}

func postRecommend(t *testing.T, srv *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/recommend", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHandleRecommend_OK(t *testing.T) {
	srv := testServer(t, stubEnricher{d: enrich.Details{Poster: "https://img/p.jpg"}}, nil)
	w := postRecommend(t, srv, `{"title":"Inception","type":"movie","top_n":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.RecommendResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Anchor != "m1" || len(resp.Results) != 2 {
		t.Fatalf("anchor=%s results=%d", resp.Anchor, len(resp.Results))
	}
	if resp.Results[0].ID != "m2" {
		t.Errorf("top result %s, want m2", resp.Results[0].ID)
	}
	for _, r := range resp.Results {
		if r.Poster != "https://img/p.jpg" {
			t.Errorf("result %s not enriched: poster %q", r.ID, r.Poster)
		}
		if r.Overview == "" || r.ReleaseDate == "" {
			t.Errorf("result %s missing placeholder fields: %+v", r.ID, r)
		}
	}
}

func TestHandleRecommend_PlaceholdersWithoutProvider(t *testing.T) {
	srv := testServer(t, nil, nil)
	w := postRecommend(t, srv, `{"title":"Inception","type":"movie","top_n":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.RecommendResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Results[0].Poster != enrich.PlaceholderPoster {
		t.Errorf("poster = %q", resp.Results[0].Poster)
	}
}

func TestHandleRecommend_NotFound(t *testing.T) {
	srv := testServer(t, nil, nil)
	w := postRecommend(t, srv, `{"title":"Totally Unknown Feature","type":"movie"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHandleRecommend_BadRequests(t *testing.T) {
	srv := testServer(t, nil, nil)
	cases := []string{
		`{not json`,
		`{"type":"movie"}`,
		`{"title":"Inception","type":"podcast"}`,
		`{"title":"Inception","type":"movie","sort":"best"}`,
	}
	for _, body := range cases {
		if w := postRecommend(t, srv, body); w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestHandleRecommend_EmptyPool(t *testing.T) {
	srv := testServer(t, nil, nil)
	w := postRecommend(t, srv, `{"title":"Attack on Titan","type":"anime"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.RecommendResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 || resp.Message == "" {
		t.Errorf("expected empty results with message, got %+v", resp)
	}
}

func TestHandleRecommend_NoSnapshot(t *testing.T) {
	engine := recommend.NewEngine(0, 50, zap.NewNop())
	srv := NewServer(engine, nil, nil, &config.ServerConfig{}, zap.NewNop())
	w := postRecommend(t, srv, `{"title":"Inception","type":"movie"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestHandleBrowse(t *testing.T) {
	srv := testServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/browse/movie?sort=latest&limit=2", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Count int `json:"count"`
		Items []struct {
			ID   string `json:"id"`
			Year int    `json:"year"`
		} `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 2 {
		t.Fatalf("count = %d, want 2", resp.Count)
	}
	if resp.Items[0].ID != "m2" || resp.Items[1].ID != "m1" {
		t.Errorf("latest-first order wrong: %+v", resp.Items)
	}
}

func TestHandleBrowse_BadType(t *testing.T) {
	srv := testServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/browse/podcast", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := testServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["loaded"] != true || resp["items"].(float64) != 4 {
		t.Errorf("status payload: %v", resp)
	}
}

func TestHandleRebuild(t *testing.T) {
	called := false
	srv := testServer(t, nil, func(context.Context) error {
		called = true
		return nil
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/rebuild", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK || !called {
		t.Fatalf("status = %d, called = %v", w.Code, called)
	}

	srv = testServer(t, nil, func(context.Context) error { return errors.New("dump unreadable") })
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/rebuild", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	srv = testServer(t, nil, nil)
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/rebuild", nil))
	if w.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := testServer(t, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
