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

// OpenF1Client implements ResultSource for the OpenF1 live-telemetry API.
// OpenF1 has no single "final classification" endpoint: the adapter joins
// the session list, the position time series, and the driver roster, and
// keeps the last recorded position per driver.
type OpenF1Client struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	enabled    bool
	logger     *logrus.Logger
}

// openF1Session represents a session from the OpenF1 API
type openF1Session struct {
	SessionKey  int    `json:"session_key"`
	SessionName string `json:"session_name"`
	SessionType string `json:"session_type"`
	CountryName string `json:"country_name"`
	Year        int    `json:"year"`
	DateStart   string `json:"date_start"`
}

// openF1Position is one entry in the position time series
type openF1Position struct {
	DriverNumber int    `json:"driver_number"`
	Position     int    `json:"position"`
	Date         string `json:"date"`
}

// openF1Driver represents a driver entry for a session
type openF1Driver struct {
	DriverNumber int    `json:"driver_number"`
	FullName     string `json:"full_name"`
	TeamName     string `json:"team_name"`
}

// NewOpenF1Client creates a new OpenF1 API client
func NewOpenF1Client(httpClient *RateLimitedHTTPClient, baseURL string, enabled bool, logger *logrus.Logger) *OpenF1Client {
	if baseURL == "" {
		baseURL = "https://api.openf1.org/v1"
	}
	return &OpenF1Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		enabled:    enabled,
		logger:     logger,
	}
}

// Name returns the result source name
func (c *OpenF1Client) Name() string { return "openf1" }

// Enabled returns whether this source is enabled
func (c *OpenF1Client) Enabled() bool { return c.enabled }

// FetchResults retrieves the final classification for the event
func (c *OpenF1Client) FetchResults(ctx context.Context, event *models.Event) Outcome {
	if !c.enabled {
		return Exhausted("source disabled")
	}

	session, outcome := c.findRaceSession(ctx, event)
	if session == nil {
		return outcome
	}

	positions, err := c.fetchPositions(ctx, session.SessionKey)
	if err != nil {
		return Retryable("failed to fetch positions", err)
	}
	if len(positions) == 0 {
		return Exhausted("no position data recorded for session")
	}

	drivers, err := c.fetchDrivers(ctx, session.SessionKey)
	if err != nil {
		return Retryable("failed to fetch drivers", err)
	}

	return Ok(c.assemble(event, positions, drivers))
}

// findRaceSession locates the race session matching the event's round.
// A missing session is an exhausted outcome (the race weekend may not
// have been ingested yet), not a transient failure.
func (c *OpenF1Client) findRaceSession(ctx context.Context, event *models.Event) (*openF1Session, Outcome) {
	url := fmt.Sprintf("%s/sessions?year=%d&session_name=Race", c.baseURL, event.Season)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, Retryable("failed to list sessions", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, Retryable(fmt.Sprintf("unexpected status %d listing sessions", resp.StatusCode), nil)
	}

	var sessions []openF1Session
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, Retryable("failed to parse session list", err)
	}

	// Sessions come back in calendar order; the event round indexes into
	// the season's races.
	if event.Round < 1 || event.Round > len(sessions) {
		return nil, Exhausted(fmt.Sprintf("no race session for round %d yet", event.Round))
	}

	return &sessions[event.Round-1], Outcome{}
}

func (c *OpenF1Client) fetchPositions(ctx context.Context, sessionKey int) ([]openF1Position, error) {
	url := fmt.Sprintf("%s/position?session_key=%d", c.baseURL, sessionKey)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewSourceError(c.Name(), ErrCodeServerError, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var positions []openF1Position
	if err := json.NewDecoder(resp.Body).Decode(&positions); err != nil {
		return nil, NewSourceError(c.Name(), ErrCodeInvalidData, "failed to parse positions", err)
	}

	return positions, nil
}

func (c *OpenF1Client) fetchDrivers(ctx context.Context, sessionKey int) (map[int]openF1Driver, error) {
	url := fmt.Sprintf("%s/drivers?session_key=%d", c.baseURL, sessionKey)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewSourceError(c.Name(), ErrCodeServerError, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var drivers []openF1Driver
	if err := json.NewDecoder(resp.Body).Decode(&drivers); err != nil {
		return nil, NewSourceError(c.Name(), ErrCodeInvalidData, "failed to parse drivers", err)
	}

	byNumber := make(map[int]openF1Driver, len(drivers))
	for _, d := range drivers {
		byNumber[d.DriverNumber] = d
	}
	return byNumber, nil
}

// assemble reduces the position time series to the last recorded position
// per driver and maps everything into the canonical Result shape.
func (c *OpenF1Client) assemble(event *models.Event, positions []openF1Position, drivers map[int]openF1Driver) []models.Result {
	final := make(map[int]openF1Position)
	for _, pos := range positions {
		last, seen := final[pos.DriverNumber]
		if !seen || pos.Date > last.Date {
			final[pos.DriverNumber] = pos
		}
	}

	now := time.Now().UTC()
	results := make([]models.Result, 0, len(final))
	for driverNum, pos := range final {
		driver, ok := drivers[driverNum]
		name := driver.FullName
		if !ok || name == "" {
			name = fmt.Sprintf("Driver %d", driverNum)
		}

		results = append(results, models.Result{
			ID:            uuid.New(),
			EventID:       event.ID,
			Driver:        identity.Normalize(name),
			FinalPosition: pos.Position,
			Points:        decimal.Zero, // OpenF1 does not expose championship points
			Source:        c.Name(),
			RecordedAt:    now,
		})
	}

	c.logger.WithFields(logrus.Fields{
		"source": c.Name(),
		"event":  event.Name,
		"rows":   len(results),
	}).Info("Fetched race classification")

	return results
}
