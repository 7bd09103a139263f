package resultsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/identity"
	"github.com/yourusername/gridline/internal/models"
)

// F1OfficialClient implements ResultSource for the official F1 data feed.
// The feed requires an API key; without one the source reports itself
// disabled and the chain moves on.
type F1OfficialClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	enabled    bool
	logger     *logrus.Logger
}

type f1ClassificationRow struct {
	Position   int     `json:"position"`
	DriverName string  `json:"driverName"`
	Points     float64 `json:"points"`
	Retired    bool    `json:"retired"`
}

// NewF1OfficialClient creates a new official F1 feed client
func NewF1OfficialClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, enabled bool, logger *logrus.Logger) *F1OfficialClient {
	return &F1OfficialClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		enabled:    enabled,
		logger:     logger,
	}
}

// Name returns the result source name
func (c *F1OfficialClient) Name() string { return "f1_official" }

// Enabled returns whether this source is enabled and has credentials
func (c *F1OfficialClient) Enabled() bool { return c.enabled && c.apiKey != "" }

// FetchResults retrieves the final classification for the event
func (c *F1OfficialClient) FetchResults(ctx context.Context, event *models.Event) Outcome {
	if !c.Enabled() {
		return Exhausted("source disabled")
	}

	url := fmt.Sprintf("%s/races/%d/%d/classification", c.baseURL, event.Season, event.Round)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Retryable("failed to build request", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return Retryable("request failed", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Exhausted("classification not published")
	case http.StatusUnauthorized, http.StatusForbidden:
		// A bad key will not fix itself on the next poll.
		return Exhausted("credentials rejected")
	default:
		return Retryable(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var rows []f1ClassificationRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return Retryable("failed to parse response", err)
	}
	if len(rows) == 0 {
		return Exhausted("classification not published")
	}

	now := time.Now().UTC()
	results := make([]models.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, models.Result{
			ID:            uuid.New(),
			EventID:       event.ID,
			Driver:        identity.Normalize(row.DriverName),
			FinalPosition: row.Position,
			Points:        decimal.NewFromFloat(row.Points),
			DidNotFinish:  row.Retired,
			Source:        c.Name(),
			RecordedAt:    now,
		})
	}

	c.logger.WithFields(logrus.Fields{
		"source": c.Name(),
		"event":  event.Name,
		"rows":   len(results),
	}).Info("Fetched race classification")

	return Ok(results)
}
