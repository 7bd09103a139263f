package resultsource

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/gridline/internal/metrics"
	"github.com/yourusername/gridline/internal/models"
)

// Chain queries result sources in priority order until one yields a
// classification. A source failing, whether transiently or terminally,
// never prevents a lower-priority source from being tried.
type Chain struct {
	sources []ResultSource
	logger  *logrus.Logger
}

// NewChain creates a provider chain. Sources are tried in the order given.
func NewChain(logger *logrus.Logger, sources ...ResultSource) *Chain {
	return &Chain{sources: sources, logger: logger}
}

// Sources returns the configured sources in priority order
func (c *Chain) Sources() []ResultSource {
	return c.sources
}

// Fetch tries each enabled source in turn and returns the first
// successful classification together with the name of the source that
// produced it. When every source is exhausted or failing it returns
// ErrResultsNotAvailable; the caller decides whether to retry later.
func (c *Chain) Fetch(ctx context.Context, event *models.Event) ([]models.Result, string, error) {
	for _, source := range c.sources {
		if !source.Enabled() {
			continue
		}

		log := c.logger.WithFields(logrus.Fields{
			"source": source.Name(),
			"event":  event.Name,
			"season": event.Season,
			"round":  event.Round,
		})

		start := time.Now()
		outcome := source.FetchResults(ctx, event)
		metrics.SourceFetchLatency.WithLabelValues(source.Name()).Observe(time.Since(start).Seconds())

		switch outcome.Status {
		case StatusOK:
			if len(outcome.Results) == 0 {
				log.Warn("Source returned empty classification, trying next")
				metrics.SourceFailures.WithLabelValues(source.Name(), "empty").Inc()
				continue
			}
			metrics.SourceFetches.WithLabelValues(source.Name()).Inc()
			return outcome.Results, source.Name(), nil

		case StatusRetryable:
			log.WithError(outcome.Err).WithField("reason", outcome.Reason).
				Warn("Source failed transiently, trying next")
			metrics.SourceFailures.WithLabelValues(source.Name(), "retryable").Inc()

		case StatusExhausted:
			log.WithField("reason", outcome.Reason).
				Debug("Source has no results for event, trying next")
			metrics.SourceFailures.WithLabelValues(source.Name(), "exhausted").Inc()
		}

		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
	}

	return nil, "", ErrResultsNotAvailable
}
