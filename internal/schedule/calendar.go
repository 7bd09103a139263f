// Package schedule maintains the season race calendar and decides which
// completed events are due for reconciliation.
package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/models"
	"github.com/yourusername/gridline/internal/resultsource"
)

// raceDuration is the margin added to the scheduled start to estimate
// when the classification could first exist.
const raceDuration = 3 * time.Hour

// CalendarClient fetches the season calendar from an Ergast-shape API
type CalendarClient struct {
	httpClient *resultsource.RateLimitedHTTPClient
	baseURL    string
	logger     *logrus.Logger
}

type calendarEnvelope struct {
	MRData struct {
		RaceTable struct {
			Races []calendarRace `json:"Races"`
		} `json:"RaceTable"`
	} `json:"MRData"`
}

type calendarRace struct {
	RaceName string `json:"raceName"`
	Season   string `json:"season"`
	Round    string `json:"round"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Circuit  struct {
		CircuitName string `json:"circuitName"`
		Location    struct {
			Country  string `json:"country"`
			Locality string `json:"locality"`
		} `json:"Location"`
	} `json:"Circuit"`
}

// NewCalendarClient creates a calendar client
func NewCalendarClient(httpClient *resultsource.RateLimitedHTTPClient, baseURL string, logger *logrus.Logger) *CalendarClient {
	if baseURL == "" {
		baseURL = "https://api.jolpi.ca/ergast/f1"
	}
	return &CalendarClient{httpClient: httpClient, baseURL: baseURL, logger: logger}
}

// FetchSeason retrieves the full race calendar for a season
func (c *CalendarClient) FetchSeason(ctx context.Context, season int) ([]models.Event, error) {
	url := fmt.Sprintf("%s/%d.json", c.baseURL, season)

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch season calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar API returned status %d", resp.StatusCode)
	}

	var envelope calendarEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to parse season calendar: %w", err)
	}

	races := envelope.MRData.RaceTable.Races
	events := make([]models.Event, 0, len(races))
	now := time.Now().UTC()
	for _, race := range races {
		round, err := strconv.Atoi(race.Round)
		if err != nil {
			c.logger.WithField("round", race.Round).Warn("Skipping race with malformed round")
			continue
		}

		start, err := parseRaceStart(race.Date, race.Time)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"race": race.RaceName,
				"date": race.Date,
			}).Warn("Skipping race with malformed start time")
			continue
		}

		events = append(events, models.Event{
			ID:                  uuid.New(),
			Name:                race.RaceName,
			Season:              season,
			Round:               round,
			Country:             race.Circuit.Location.Country,
			Location:            race.Circuit.Location.Locality,
			ScheduledCompletion: start.Add(raceDuration),
			Status:              models.EventStatusScheduled,
			CreatedAt:           now,
			UpdatedAt:           now,
		})
	}

	c.logger.WithFields(logrus.Fields{
		"season": season,
		"races":  len(events),
	}).Info("Fetched season calendar")

	return events, nil
}

// parseRaceStart combines the calendar's date and optional time columns.
// Races without a published time default to midday UTC.
func parseRaceStart(date, timeOfDay string) (time.Time, error) {
	if timeOfDay == "" {
		timeOfDay = "12:00:00Z"
	}
	return time.Parse(time.RFC3339, date+"T"+timeOfDay)
}
