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

// JikanClient looks up anime on the Jikan (MyAnimeList) API. It needs no
// API key. Non-anime titles always miss.
type JikanClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewJikanClient creates a Jikan client.
func NewJikanClient(baseURL string, timeout time.Duration, logger *zap.Logger) *JikanClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JikanClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type jikanAnime struct {
	Synopsis string  `json:"synopsis"`
	Score    float64 `json:"score"`
	Images   struct {
		JPG struct {
			LargeImageURL string `json:"large_image_url"`
			ImageURL      string `json:"image_url"`
		} `json:"jpg"`
	} `json:"images"`
	Aired struct {
		From string `json:"from"`
	} `json:"aired"`
}

type jikanResponse struct {
	Data []jikanAnime `json:"data"`
}

// Lookup searches /anime with the title and returns the top hit.
func (c *JikanClient) Lookup(ctx context.Context, title string, ct models.ContentType) Details {
	if ct != models.TypeAnime {
		return Details{}
	}

	q := url.Values{}
	q.Set("q", title)
	q.Set("limit", "1")
	reqURL := fmt.Sprintf("%s/anime?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Details{}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("jikan lookup failed", zap.String("title", title), zap.Error(err))
		return Details{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("jikan lookup failed", zap.String("title", title), zap.Int("status", resp.StatusCode))
		return Details{}
	}
	var body jikanResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Debug("jikan decode failed", zap.String("title", title), zap.Error(err))
		return Details{}
	}
	if len(body.Data) == 0 {
		return Details{}
	}
	a := body.Data[0]

	d := Details{
		Overview: a.Synopsis,
		Rating:   a.Score,
	}
	if a.Images.JPG.LargeImageURL != "" {
		d.Poster = a.Images.JPG.LargeImageURL
	} else {
		d.Poster = a.Images.JPG.ImageURL
	}
	// Aired.From is an RFC 3339 timestamp; keep the date part.
	if len(a.Aired.From) >= 10 {
		d.ReleaseDate = a.Aired.From[:10]
	}
	return d
}
