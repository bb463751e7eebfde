package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/campus-research/portal/internal/models"
)

// Client asks an external recommendation service which active studies fit a
// participant. Strictly best-effort: every failure path returns an empty
// result, never an error, and only highlighting is lost.
type Client struct {
	url    string
	http   *http.Client
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a recommendation client. url may be empty (recommendations
// disabled) and cache may be nil (no caching).
func New(url string, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:    url,
		http:   &http.Client{Timeout: 10 * time.Second},
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

type request struct {
	User     profile        `json:"user"`
	Studies  []studySummary `json:"studies"`
	Language string         `json:"language"`
}

type profile struct {
	Name  string `json:"name"`
	Major string `json:"major,omitempty"`
	Age   int    `json:"age,omitempty"`
}

type studySummary struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

// RecommendStudies returns study ids the service considers most relevant for
// the user, in the user's preferred language.
func (c *Client) RecommendStudies(ctx context.Context, user models.User, studies []*models.Study, lang string) []uuid.UUID {
	if c.url == "" || len(studies) == 0 {
		return nil
	}

	cacheKey := "recommend:" + user.ID.String() + ":" + lang
	if ids, ok := c.fromCache(ctx, cacheKey); ok {
		return ids
	}

	req := request{
		User:     profile{Name: user.Name},
		Studies:  make([]studySummary, 0, len(studies)),
		Language: lang,
	}
	if user.Metadata != nil {
		req.User.Major = user.Metadata.Major
		req.User.Age = user.Metadata.Age
	}
	for _, st := range studies {
		req.Studies = append(req.Studies, studySummary{ID: st.ID, Title: st.Title, Description: st.Description})
	}

	raw, err := json.Marshal(req)
	if err != nil {
		c.logger.Warn("recommendation request marshal failed", zap.Error(err))
		return nil
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(raw))
	if err != nil {
		c.logger.Warn("recommendation request failed", zap.Error(err))
		return nil
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Warn("recommendation service unreachable", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("recommendation service error", zap.Int("status", resp.StatusCode))
		return nil
	}

	var ids []uuid.UUID
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		c.logger.Warn("recommendation response decode failed", zap.Error(err))
		return nil
	}

	c.toCache(ctx, cacheKey, ids)
	return ids
}

func (c *Client) fromCache(ctx context.Context, key string) ([]uuid.UUID, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("recommendation cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var ids []uuid.UUID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (c *Client) toCache(ctx context.Context, key string, ids []uuid.UUID) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("recommendation cache write failed", zap.Error(err))
	}
}
