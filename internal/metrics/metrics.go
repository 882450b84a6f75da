package metrics

import (
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/rs/zerolog/log"
)

// Client wraps a DogStatsD client. A nil Client is valid and drops every
// metric, so callers never need to guard emission sites.
type Client struct {
	dogstatsd *statsd.Client
}

func Init(agentAddr, namespace string, tags []string) *Client {
	dogstatsd, err := statsd.New(agentAddr)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create DogStatsD client")
		return nil
	}

	dogstatsd.Namespace = namespace
	dogstatsd.Tags = tags

	log.Info().
		Str("addr", agentAddr).
		Str("namespace", namespace).
		Strs("tags", tags).
		Msg("Datadog metrics initialized")

	return &Client{dogstatsd: dogstatsd}
}

func (c *Client) Count(name string, tags ...string) {
	if c == nil || c.dogstatsd == nil {
		return
	}
	if err := c.dogstatsd.Incr(name, tags, 1); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("Failed to emit count metric")
	}
}

func (c *Client) Gauge(name string, value float64, tags ...string) {
	if c == nil || c.dogstatsd == nil {
		return
	}
	if err := c.dogstatsd.Gauge(name, value, tags, 1); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("Failed to emit gauge metric")
	}
}

func (c *Client) Timing(name string, d time.Duration, tags ...string) {
	if c == nil || c.dogstatsd == nil {
		return
	}
	if err := c.dogstatsd.Timing(name, d, tags, 1); err != nil {
		log.Warn().Err(err).Str("metric", name).Msg("Failed to emit timing metric")
	}
}
