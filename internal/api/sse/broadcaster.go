package sse

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mcoot/veriloc/internal/model"
)

// SSE event names
const (
	EventConnected   = "connected"
	EventRoomStatus  = "room-status"
	EventRoomDeleted = "room-deleted"
)

// RoomStatusPayload is the JSON data of a room-status event
type RoomStatusPayload struct {
	RoomNumber    string    `json:"room_number"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	AdminID       string    `json:"admin_id"`
	AdminUsername string    `json:"admin_username"`
	FingerprintID int       `json:"fingerprint_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// Broadcaster publishes room events to the hubs watching them
type Broadcaster struct {
	hubManager *HubManager
	logger     *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// BroadcastRoomStatus publishes a status change; rooms nobody watches are skipped
func (b *Broadcaster) BroadcastRoomStatus(event model.RoomStatusEvent) {
	hub := b.hubManager.GetHub(event.RoomNumber)
	if hub == nil {
		return
	}

	data, err := json.Marshal(RoomStatusPayload{
		RoomNumber:    event.RoomNumber,
		OldStatus:     string(event.OldStatus),
		NewStatus:     string(event.NewStatus),
		AdminID:       string(event.AdminID),
		AdminUsername: event.AdminUsername,
		FingerprintID: int(event.FingerprintID),
		Timestamp:     event.Timestamp,
	})
	if err != nil {
		b.logger.Error("sse failed to encode room status",
			slog.String("room", event.RoomNumber),
			slog.Any("error", err))
		return
	}

	hub.BroadcastEvent(EventRoomStatus, string(data))
}

// BroadcastRoomDeleted tells watchers the room is gone
func (b *Broadcaster) BroadcastRoomDeleted(room string) {
	hub := b.hubManager.GetHub(room)
	if hub == nil {
		return
	}
	hub.BroadcastEvent(EventRoomDeleted, roomJSON(room))
}

func roomJSON(room string) string {
	data, _ := json.Marshal(map[string]string{"room_number": room})
	return string(data)
}
