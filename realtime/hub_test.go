package realtime

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	return hub
}

func waitForMessage(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data := <-c.Send:
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return nil
	}
}

func TestBroadcastReachesOnlyItsRoom(t *testing.T) {
	hub := newTestHub()

	subscriber := NewClient(hub, nil, "1")
	other := NewClient(hub, nil, "2")
	hub.Register <- subscriber
	hub.Register <- other

	hub.BroadcastToRoom("1", Message{
		Type:    TypeTournamentUpdated,
		Payload: CapacityPayload{TournamentID: 1, Spots: 16, UsedSpots: 4},
	})

	data := waitForMessage(t, subscriber)
	var msg struct {
		Type    string          `json:"type"`
		Payload CapacityPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, TypeTournamentUpdated, msg.Type)
	assert.Equal(t, 4, msg.Payload.UsedSpots)

	assert.Empty(t, other.Send)
}

func TestBroadcastToEmptyRoomIsNoop(t *testing.T) {
	hub := newTestHub()

	// Просто не должно паниковать без подписчиков.
	hub.BroadcastToRoom("99", Message{Type: TypeTournamentUpdated})
}

func TestUnregisteredClientStopsReceiving(t *testing.T) {
	hub := newTestHub()

	client := NewClient(hub, nil, "1")
	hub.Register <- client
	hub.Unregister <- client

	// Unregister обрабатывается тем же циклом, что и Register; после него
	// канал клиента закрыт и рассылка его не трогает.
	_, open := <-client.Send
	assert.False(t, open)

	hub.BroadcastToRoom("1", Message{Type: TypeTournamentUpdated})
}

func TestSlowClientDoesNotBlockBroadcast(t *testing.T) {
	hub := newTestHub()

	slow := NewClient(hub, nil, "1")
	hub.Register <- slow
	// Второй Register гарантирует, что первый уже обработан циклом хаба.
	hub.Register <- NewClient(hub, nil, "sync")

	// Переполняем буфер: лишние сообщения молча отбрасываются.
	payload := Message{Type: TypeTournamentUpdated}
	for i := 0; i < cap(slow.Send)+8; i++ {
		hub.BroadcastToRoom("1", payload)
	}
	assert.Len(t, slow.Send, cap(slow.Send))
}
