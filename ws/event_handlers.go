package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/GitProjsStack/chess-arena/room"
	"github.com/GitProjsStack/chess-arena/rules"
	"github.com/GitProjsStack/chess-arena/util"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

func decodeRoomPayload(e Event) (PayloadRoom, error) {
	var payload PayloadRoom

	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return payload, fmt.Errorf("invalid %s payload: %w", e.Type, err)
	}

	if err := util.Validate.Struct(payload); err != nil {
		return payload, validationError(e.Type, err)
	}

	return payload, nil
}

func validationError(evtType string, err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := lo.Map(verrs, func(item validator.FieldError, _ int) string {
		return fmt.Sprintf("%s failed on %s", item.Field(), item.Tag())
	})

	return fmt.Errorf("invalid %s payload: %s", evtType, strings.Join(fields, ", "))
}

// JoinRoomHandler subscribes the client to a room and sends it the state.
func JoinRoomHandler(ctx context.Context, e Event, c *Client) error {
	payload, err := decodeRoomPayload(e)
	if err != nil {
		return err
	}

	c.manager.coordinator.Join(payload.RoomID, e.TraceID, c)
	return nil
}

// MoveHandler forwards a move intent. A payload that cannot be read is a
// rejected move, reported the same way an illegal one is.
func MoveHandler(ctx context.Context, e Event, c *Client) error {
	var payload PayloadMove

	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return c.Send(room.Message{
			Kind:    room.KindMoveRejected,
			TraceID: e.TraceID,
			Payload: room.Rejection{Reason: "invalid move payload"},
		})
	}

	intent := room.MoveIntent{
		RoomID:    payload.RoomID,
		From:      payload.From,
		To:        payload.To,
		Promotion: rules.None[string](),
		TraceID:   e.TraceID,
	}

	if payload.Promotion != nil && *payload.Promotion != "" {
		intent.Promotion = rules.Some(*payload.Promotion)
	}

	c.manager.coordinator.Move(c, intent)
	return nil
}

func ResetGameHandler(ctx context.Context, e Event, c *Client) error {
	payload, err := decodeRoomPayload(e)
	if err != nil {
		return err
	}

	c.manager.coordinator.Reset(payload.RoomID, e.TraceID)
	return nil
}

func LeaveRoomHandler(ctx context.Context, e Event, c *Client) error {
	payload, err := decodeRoomPayload(e)
	if err != nil {
		return err
	}

	c.manager.coordinator.Leave(payload.RoomID, c)
	return nil
}
