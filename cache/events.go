package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/meinhoongagan/healthcoach-api/logger"
	"github.com/meinhoongagan/healthcoach-api/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrRealtimeDisabled is returned by Subscribe when no broker is configured.
var ErrRealtimeDisabled = errors.New("realtime events are disabled")

const EventMessageCreated = "message.created"

type RoomEvent struct {
	Type    string              `json:"type"`
	RoomID  uint                `json:"room_id"`
	Message *models.ChatMessage `json:"message,omitempty"`
}

func RoomChannel(roomID uint) string {
	return fmt.Sprintf("rooms:%d:events", roomID)
}

// RoomEvents fans chat events out over Redis pub/sub.
type RoomEvents struct {
	rdb *redis.Client
}

func NewRoomEvents(rdb *redis.Client) *RoomEvents {
	return &RoomEvents{rdb: rdb}
}

func (e *RoomEvents) PublishMessage(ctx context.Context, msg *models.ChatMessage) error {
	payload, err := json.Marshal(RoomEvent{Type: EventMessageCreated, RoomID: msg.RoomID, Message: msg})
	if err != nil {
		return err
	}
	return e.rdb.Publish(ctx, RoomChannel(msg.RoomID), payload).Err()
}

// Subscribe streams the room's events until ctx is done. The channel is
// closed when the subscription ends.
func (e *RoomEvents) Subscribe(ctx context.Context, roomID uint) (<-chan RoomEvent, error) {
	sub := e.rdb.Subscribe(ctx, RoomChannel(roomID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan RoomEvent, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var ev RoomEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					logger.Log.Warn("RoomEvents.Subscribe: bad payload", zap.Uint("room_id", roomID), zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// NopRoomEvents drops every event. Used when Redis is not configured.
type NopRoomEvents struct{}

func (NopRoomEvents) PublishMessage(context.Context, *models.ChatMessage) error { return nil }

func (NopRoomEvents) Subscribe(context.Context, uint) (<-chan RoomEvent, error) {
	return nil, ErrRealtimeDisabled
}
