package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/cinesense/cinesense/internal/models"
)

const tmdbImageBase = "https://image.tmdb.org/t/p/w500"

// TMDBClient looks up movies and series on The Movie Database. Anime titles
// are out of its scope and always miss.
type TMDBClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewTMDBClient creates a TMDB client. An empty apiKey yields a client that
// always misses, so callers need no special casing.
func NewTMDBClient(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger) *TMDBClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TMDBClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type tmdbResult struct {
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	VoteAverage  float64 `json:"vote_average"`
}

type tmdbResponse struct {
	Results []tmdbResult `json:"results"`
}

// Lookup searches /search/movie or /search/tv depending on the content type
// and returns the first hit.
func (c *TMDBClient) Lookup(ctx context.Context, title string, ct models.ContentType) Details {
	if c.apiKey == "" {
		return Details{}
	}
	var endpoint string
	switch ct {
	case models.TypeMovie:
		endpoint = "/search/movie"
	case models.TypeSeries:
		endpoint = "/search/tv"
	default:
		return Details{}
	}

	r, ok := c.search(ctx, endpoint, title)
	if !ok {
		// Retitled or oddly categorized entries sometimes only show up in
		// the cross-type search.
		r, ok = c.search(ctx, "/search/multi", title)
	}
	if !ok {
		return Details{}
	}

	d := Details{
		Overview:    r.Overview,
		ReleaseDate: r.ReleaseDate,
		Rating:      r.VoteAverage,
	}
	if d.ReleaseDate == "" {
		d.ReleaseDate = r.FirstAirDate
	}
	if r.PosterPath != "" {
		d.Poster = tmdbImageBase + r.PosterPath
	}
	return d
}

func (c *TMDBClient) search(ctx context.Context, endpoint, title string) (tmdbResult, bool) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", title)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, endpoint, q.Encode())

	var body tmdbResponse
	if err := c.getJSON(ctx, reqURL, &body); err != nil {
		c.logger.Debug("tmdb lookup failed",
			zap.String("title", title), zap.String("endpoint", endpoint), zap.Error(err))
		return tmdbResult{}, false
	}
	if len(body.Results) == 0 {
		return tmdbResult{}, false
	}
	return body.Results[0], true
}

func (c *TMDBClient) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
