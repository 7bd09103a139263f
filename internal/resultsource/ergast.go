package resultsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/identity"
	"github.com/yourusername/gridline/internal/models"
)

// ErgastClient implements ResultSource for the Ergast historical results
// API (and mirrors such as jolpica that serve the same envelope).
type ErgastClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	enabled    bool
	logger     *logrus.Logger
}

// ergastEnvelope is the MRData wrapper every Ergast response carries
type ergastEnvelope struct {
	MRData struct {
		RaceTable struct {
			Races []ergastRace `json:"Races"`
		} `json:"RaceTable"`
	} `json:"MRData"`
}

type ergastRace struct {
	RaceName string         `json:"raceName"`
	Season   string         `json:"season"`
	Round    string         `json:"round"`
	Results  []ergastResult `json:"Results"`
}

type ergastResult struct {
	Position string `json:"position"`
	Points   string `json:"points"`
	Status   string `json:"status"`
	Driver   struct {
		GivenName  string `json:"givenName"`
		FamilyName string `json:"familyName"`
	} `json:"Driver"`
}

// NewErgastClient creates a new Ergast API client
func NewErgastClient(httpClient *RateLimitedHTTPClient, baseURL string, enabled bool, logger *logrus.Logger) *ErgastClient {
	if baseURL == "" {
		baseURL = "https://api.jolpi.ca/ergast/f1"
	}
	return &ErgastClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		enabled:    enabled,
		logger:     logger,
	}
}

// Name returns the result source name
func (c *ErgastClient) Name() string { return "ergast" }

// Enabled returns whether this source is enabled
func (c *ErgastClient) Enabled() bool { return c.enabled }

// FetchResults retrieves the final classification for the event
func (c *ErgastClient) FetchResults(ctx context.Context, event *models.Event) Outcome {
	if !c.enabled {
		return Exhausted("source disabled")
	}

	url := fmt.Sprintf("%s/%d/%d/results.json", c.baseURL, event.Season, event.Round)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return Retryable("request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Exhausted("results not published")
	case resp.StatusCode != http.StatusOK:
		return Retryable(fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var envelope ergastEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return Retryable("failed to parse response", err)
	}

	races := envelope.MRData.RaceTable.Races
	if len(races) == 0 || len(races[0].Results) == 0 {
		// Ergast returns an empty race table until the classification
		// is official.
		return Exhausted("results not published")
	}

	results := make([]models.Result, 0, len(races[0].Results))
	now := time.Now().UTC()
	for _, row := range races[0].Results {
		position, err := strconv.Atoi(row.Position)
		if err != nil {
			return Retryable(fmt.Sprintf("malformed position %q", row.Position), err)
		}

		points, err := decimal.NewFromString(row.Points)
		if err != nil {
			points = decimal.Zero
		}

		name := strings.TrimSpace(row.Driver.GivenName + " " + row.Driver.FamilyName)
		results = append(results, models.Result{
			ID:            uuid.New(),
			EventID:       event.ID,
			Driver:        identity.Normalize(name),
			FinalPosition: position,
			Points:        points,
			DidNotFinish:  isDNF(row.Status),
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

// isDNF interprets the Ergast status column. "Finished" and lapped
// statuses such as "+1 Lap" count as classified finishes; everything
// else (Accident, Engine, Retired, ...) is a DNF.
func isDNF(status string) bool {
	if status == "Finished" {
		return false
	}
	return !strings.HasPrefix(status, "+")
}
