package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/GitProjsStack/chess-arena/room"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	pongWait     = 10 * time.Second
	pingInterval = (pongWait * 9) / 10
	writeWait    = 5 * time.Second

	maxMessageSize int64 = 1024
)

var (
	ErrEgressFull   = errors.New("client egress full")
	ErrClientClosed = errors.New("client closed")
)

type Client struct {
	id         string
	connection *websocket.Conn
	manager    *Manager
	egress     chan Event
	err        chan error
	closed     chan struct{}
	closeOnce  sync.Once
	done       chan struct{}
	readDone   chan struct{}
	log        *zap.Logger
}

func NewClient(conn *websocket.Conn, manager *Manager) *Client {
	id := uuid.NewString()

	return &Client{
		id:         id,
		connection: conn,
		manager:    manager,
		egress:     make(chan Event, manager.sendBuffer),
		err:        make(chan error, 1),
		closed:     make(chan struct{}),
		done:       make(chan struct{}),
		readDone:   make(chan struct{}),
		log:        manager.log.With(zap.String("participant_id", id)),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send implements room.Participant.
func (c *Client) Send(msg room.Message) error {
	evt, err := eventFromMessage(msg)
	if err != nil {
		return err
	}

	return c.PushToEgress(evt)
}

// Reads incoming messages from the clients websocket connection
func (c *Client) readMessages(ctx context.Context) {
	defer close(c.readDone)

	c.connection.SetReadLimit(maxMessageSize)

	if err := c.connection.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.handleError(err)
		return
	}

	c.connection.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, payload, err := c.connection.ReadMessage()

			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
					c.log.Warn("error reading message", zap.Error(err))
				}
				c.handleError(err)
				return
			}

			var evt Event

			if err := json.Unmarshal(payload, &evt); err != nil {
				c.pushError("", "cannot unmarshal json payload")
				continue
			}

			// frames still buffered after close must not reach the rooms
			if c.isClosed() {
				return
			}

			if evt.TraceID == "" {
				evt.TraceID = uuid.NewString()
			}

			c.log.Debug("event received", zap.String("event", evt.Type), zap.String("trace_id", evt.TraceID))

			// errors from event handlers are emitted to the client using the trace id
			if err := c.manager.routeEvent(ctx, evt, c); err != nil {
				c.log.Info("error handling event",
					zap.String("event", evt.Type),
					zap.String("trace_id", evt.TraceID),
					zap.Error(err),
				)
				c.pushError(evt.TraceID, err.Error())
			}
		}
	}
}

// writes messages pushed to the client's egress channel
func (c *Client) writeMessages(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		close(c.done)
	}()

	for {
		select {
		// if the context is cancelled, return
		case <-ctx.Done():
			return
		case message := <-c.egress:
			data, err := json.Marshal(message)

			if err != nil {
				c.log.Error("cannot marshal event", zap.String("event", message.Type), zap.Error(err))
				continue
			}

			if err := c.write(websocket.TextMessage, data); err != nil {
				c.handleError(err)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte("")); err != nil {
				c.handleError(err)
				return
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if err := c.connection.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.connection.WriteMessage(messageType, data)
}

// Sets a new read deadline when a pong is received for a ping message.
func (c *Client) pongHandler(pongMsg string) error {
	return c.connection.SetReadDeadline(time.Now().Add(pongWait))
}

// Push error to client error channel. ServeWS waits on this channel and
// tears the connection down on the first error; later errors are dropped.
func (c *Client) handleError(e error) {
	select {
	case c.err <- e:
	default:
	}
}

// Returns the error channel
func (c *Client) Err() chan error {
	return c.err
}

// Pushes an event to the client's egress to be delivered via the websocket
// connection. It never blocks: a client that cannot keep up is disconnected.
func (c *Client) PushToEgress(evt Event) error {
	if c.isClosed() {
		return ErrClientClosed
	}

	select {
	case c.egress <- evt:
		return nil
	default:
		c.handleError(ErrEgressFull)
		return ErrEgressFull
	}
}

func (c *Client) pushError(traceID, message string) {
	evt, err := NewErrorEvent(traceID, message)
	if err != nil {
		c.log.Error("cannot build error event", zap.Error(err))
		return
	}

	if err := c.PushToEgress(evt); err != nil {
		c.log.Warn("cannot deliver error event", zap.Error(err))
	}
}

func (c *Client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.connection.Close()
	})
}
