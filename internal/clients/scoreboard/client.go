// Package scoreboard consumes a live scoreboard websocket feed and applies
// final results to stored games, which is what lets the validator close the
// loop without manual score entry.
package scoreboard

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/courtsight/courtsight/internal/domain"
)

// Event is one scoreboard feed message.
type Event struct {
	GameID     string     `json:"game_id"`
	Status     string     `json:"status"`
	HomeScore  *int       `json:"home_score,omitempty"`
	AwayScore  *int       `json:"away_score,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Client maintains a websocket connection to the scoreboard feed and applies
// final scores. It reconnects with exponential backoff on any failure.
type Client struct {
	url   string
	games domain.GameWriter
	log   zerolog.Logger
}

// NewClient creates a new scoreboard client
func NewClient(url string, games domain.GameWriter, log zerolog.Logger) *Client {
	return &Client{
		url:   url,
		games: games,
		log:   log.With().Str("client", "scoreboard").Logger(),
	}
}

// Run connects and consumes events until the context is cancelled. Each
// dropped connection is retried with exponential backoff; a successful
// session resets the backoff.
func (c *Client) Run(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = time.Minute
	policy.MaxElapsedTime = 0 // retry forever

	for {
		connected, err := c.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			policy.Reset()
		}

		wait := policy.NextBackOff()
		c.log.Warn().Err(err).Dur("retry_in", wait).Msg("Scoreboard connection lost")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// consume runs one websocket session. It reports whether the dial succeeded,
// which is what resets the retry backoff in Run.
func (c *Client) consume(ctx context.Context) (bool, error) {
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	c.log.Info().Str("url", c.url).Msg("Connected to scoreboard feed")

	for {
		var event Event
		if err := wsjson.Read(ctx, conn, &event); err != nil {
			return true, err
		}

		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	if event.GameID == "" {
		return
	}

	if domain.GameStatus(event.Status) != domain.GameStatusFinal {
		c.log.Debug().
			Str("game_id", event.GameID).
			Str("status", event.Status).
			Msg("Ignoring non-final scoreboard event")
		return
	}
	if event.HomeScore == nil || event.AwayScore == nil {
		c.log.Warn().Str("game_id", event.GameID).Msg("Final event without scores")
		return
	}

	finishedAt := time.Now().UTC()
	if event.FinishedAt != nil {
		finishedAt = event.FinishedAt.UTC()
	}

	if err := c.games.ApplyResult(event.GameID, *event.HomeScore, *event.AwayScore, finishedAt); err != nil {
		c.log.Error().Err(err).Str("game_id", event.GameID).Msg("Failed to apply final score")
		return
	}

	c.log.Info().
		Str("game_id", event.GameID).
		Int("home_score", *event.HomeScore).
		Int("away_score", *event.AwayScore).
		Msg("Applied final score")
}
