package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/GitProjsStack/chess-arena/room"
)

type Event struct {
	Type    string          `json:"type"`
	TraceID string          `json:"trace_id"`
	Payload json.RawMessage `json:"payload"`
}

type EventHandler func(ctx context.Context, evt Event, c *Client) error

// Inbound events. Outbound game events use the room.Kind values.
const (
	EventJoinRoom  = "join"
	EventMove      = "move"
	EventResetGame = "reset"
	EventLeaveRoom = "leave"
	EventError     = "error"
)

type PayloadError struct {
	Message string `json:"message"`
}

type PayloadRoom struct {
	RoomID string `json:"room_id" validate:"required,max=128,printascii"`
}

type PayloadMove struct {
	RoomID    string  `json:"room_id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Promotion *string `json:"promotion,omitempty"`
}

func NewEvent(evtType string, payload any) (Event, error) {
	b, err := json.Marshal(payload)

	if err != nil {
		return Event{}, err
	}

	evt := NewEventStruct(evtType, b, "")

	return evt, nil
}

// NewErrorEvent builds an error event. When the failed request carried a
// trace id the type is suffixed with it so the client can match the reply.
func NewErrorEvent(traceId, message string) (Event, error) {
	payload := PayloadError{Message: message}
	b, err := json.Marshal(payload)

	if err != nil {
		return Event{}, err
	}

	evtType := EventError
	if traceId != "" {
		evtType = fmt.Sprintf("%v_%v", EventError, traceId)
	}

	evt := NewEventStruct(evtType, b, traceId)

	return evt, nil
}

func NewEventStruct(evtType string, payload []byte, traceId string) Event {
	return Event{
		Type:    evtType,
		TraceID: traceId,
		Payload: payload,
	}
}

// eventFromMessage turns a coordinator message into a wire event.
func eventFromMessage(msg room.Message) (Event, error) {
	evt, err := NewEvent(string(msg.Kind), msg.Payload)
	if err != nil {
		return Event{}, err
	}

	evt.TraceID = msg.TraceID
	return evt, nil
}
