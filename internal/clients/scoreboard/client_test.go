package scoreboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/courtsight/courtsight/internal/domain"
)

type recordingWriter struct {
	applied []string
}

func (w *recordingWriter) ApplyResult(gameID string, homeScore, awayScore int, finishedAt time.Time) error {
	w.applied = append(w.applied, gameID)
	return nil
}

func intPtr(v int) *int { return &v }

func TestHandleEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		applied int
	}{
		{"final with scores applies", Event{GameID: "g-1", Status: string(domain.GameStatusFinal), HomeScore: intPtr(101), AwayScore: intPtr(99)}, 1},
		{"in-progress ignored", Event{GameID: "g-1", Status: "in_progress", HomeScore: intPtr(50), AwayScore: intPtr(48)}, 0},
		{"final without scores ignored", Event{GameID: "g-1", Status: string(domain.GameStatusFinal)}, 0},
		{"missing game id ignored", Event{Status: string(domain.GameStatusFinal), HomeScore: intPtr(101), AwayScore: intPtr(99)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &recordingWriter{}
			client := NewClient("ws://unused", writer, zerolog.Nop())

			client.handleEvent(tt.event)

			assert.Len(t, writer.applied, tt.applied)
		})
	}
}

func TestConsumeAppliesFinalEvents(t *testing.T) {
	writer := &recordingWriter{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		event := Event{
			GameID:    "g-1",
			Status:    string(domain.GameStatusFinal),
			HomeScore: intPtr(101),
			AwayScore: intPtr(99),
		}
		assert.NoError(t, wsjson.Write(r.Context(), conn, event))
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer srv.Close()

	client := NewClient("ws"+strings.TrimPrefix(srv.URL, "http"), writer, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connected, err := client.consume(ctx)
	assert.True(t, connected)
	assert.Error(t, err) // the session ends when the server hangs up

	assert.Equal(t, []string{"g-1"}, writer.applied)
}

func TestConsumeReportsFailedDial(t *testing.T) {
	client := NewClient("ws://127.0.0.1:1", &recordingWriter{}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	connected, err := client.consume(ctx)
	assert.False(t, connected)
	assert.Error(t, err)
}
