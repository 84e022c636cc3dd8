package recommender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"swapp/api/internal/apperr"
	"swapp/api/internal/metrics"
	"swapp/api/internal/utils"
)

const serviceName = "recommender"

// HTTPConfig configures HTTPClient.
type HTTPConfig struct {
	EngineURL  string         // query endpoint base, e.g. http://pio:8000
	EventURL   string         // event server base, e.g. http://pio:7070
	AccessKeys map[App]string // per event store
	Timeout    time.Duration
	MinScore   float64 // scores must be strictly greater
}

// HTTPClient implements Client against the PredictionIO REST API.
type HTTPClient struct {
	cfg  HTTPConfig
	http *http.Client
}

func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &HTTPClient{cfg: cfg, http: &http.Client{}}
}

type queryRequest struct {
	User string `json:"user"`
	Num  int    `json:"num"`
}

type queryResponse struct {
	ItemScores []struct {
		Item  string  `json:"item"`
		Score float64 `json:"score"`
	} `json:"itemScores"`
}

// Query returns the items scored above MinScore, best first as served.
func (c *HTTPClient) Query(ctx context.Context, userID utils.SixID, num int) (scores []ItemScore, err error) {
	start := time.Now()
	defer func() { metrics.RecordRecommenderCall("query", err, time.Since(start)) }()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(queryRequest{User: UserEntity(userID), Num: num})
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := c.post(ctx, strings.TrimRight(c.cfg.EngineURL, "/")+"/queries.json", body, &resp); err != nil {
		return nil, err
	}

	scores = make([]ItemScore, 0, len(resp.ItemScores))
	for _, is := range resp.ItemScores {
		if is.Score <= c.cfg.MinScore {
			continue
		}
		id, perr := ParseItemEntity(is.Item)
		if perr != nil {
			return nil, apperr.Upstream(serviceName, fmt.Errorf("unresolvable item %q: %w", is.Item, perr))
		}
		scores = append(scores, ItemScore{ItemID: id, Score: is.Score})
	}
	return scores, nil
}

// SendEvent posts a single event to the store selected by app.
func (c *HTTPClient) SendEvent(ctx context.Context, app App, ev Event) (err error) {
	start := time.Now()
	defer func() { metrics.RecordRecommenderCall("event", err, time.Since(start)) }()

	key, ok := c.cfg.AccessKeys[app]
	if !ok || key == "" {
		return fmt.Errorf("no access key configured for %s events", app)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	endpoint := strings.TrimRight(c.cfg.EventURL, "/") + "/events.json?accessKey=" + url.QueryEscape(key)
	return c.post(ctx, endpoint, body, nil)
}

func (c *HTTPClient) post(ctx context.Context, endpoint string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return apperr.Upstream(serviceName, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return apperr.Upstream(serviceName, fmt.Errorf("status %d: %s", res.StatusCode, bytes.TrimSpace(snippet)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return apperr.Upstream(serviceName, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
