package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/GitProjsStack/chess-arena/room"
	"github.com/GitProjsStack/chess-arena/util"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

type ClientList map[string]*Client

type Options struct {
	AllowedOrigins []string
	SendBuffer     int
}

type Manager struct {
	clients ClientList
	sync.RWMutex
	handlers    map[string]EventHandler
	coordinator *room.Coordinator
	upgrader    websocket.Upgrader
	origins     []string
	sendBuffer  int
	log         *zap.Logger
}

func NewManager(coordinator *room.Coordinator, opts Options, log *zap.Logger) *Manager {
	util.InitValidator()

	if opts.SendBuffer < 1 {
		opts.SendBuffer = util.DefaultSendBuffer
	}

	m := &Manager{
		clients:     make(ClientList),
		handlers:    make(map[string]EventHandler),
		coordinator: coordinator,
		origins:     opts.AllowedOrigins,
		sendBuffer:  opts.SendBuffer,
		log:         log,
	}

	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}

	m.setupEventHandlers()

	return m
}

func (m *Manager) setupEventHandlers() {
	m.handlers[EventJoinRoom] = JoinRoomHandler
	m.handlers[EventMove] = MoveHandler
	m.handlers[EventResetGame] = ResetGameHandler
	m.handlers[EventLeaveRoom] = LeaveRoomHandler
}

func (m *Manager) routeEvent(ctx context.Context, evt Event, c *Client) error {
	if handler, ok := m.handlers[evt.Type]; ok {
		if err := handler(ctx, evt, c); err != nil {
			return err
		}

		return nil
	}

	return fmt.Errorf("there is no such event type %q", evt.Type)
}

func (m *Manager) addClient(client *Client) {
	m.Lock()
	defer m.Unlock()

	m.clients[client.ID()] = client
}

// removeClient closes the connection and unsubscribes the client from every
// room it joined. The reader must have stopped first, or an event it is still
// handling could join a room after the unsubscribe.
func (m *Manager) removeClient(client *Client) {
	client.close()
	<-client.readDone

	m.coordinator.Disconnect(client)

	m.Lock()
	delete(m.clients, client.ID())
	m.Unlock()
}

func (m *Manager) ClientCount() int {
	m.RLock()
	defer m.RUnlock()

	return len(m.clients)
}

// Close disconnects every client. Hijacked connections are not tracked by
// http.Server, so this is part of shutdown.
func (m *Manager) Close() {
	m.RLock()
	clients := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.RUnlock()

	for _, c := range clients {
		c.handleError(errors.New("server shutting down"))
	}
}

// Websocket connection handler
func (m *Manager) ServeWS(c *gin.Context) {
	conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)

	if err != nil {
		// the upgrader has already written the error response
		m.log.Info("error upgrading to websocket connection", zap.Error(err))
		return
	}

	client := NewClient(conn, m)

	m.addClient(client)

	client.log.Info("client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	ctx, cancel := context.WithCancel(context.Background())

	defer func() {
		cancel()
		<-client.done

		err := conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			client.log.Debug("error sending close message", zap.Error(err))
		}

		m.removeClient(client)
	}()

	go client.readMessages(ctx)
	go client.writeMessages(ctx)

	err = <-client.Err()

	client.log.Info("client disconnected", zap.Error(err))
}

func (m *Manager) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// non browser clients do not send an origin
	if origin == "" || slices.Contains(m.origins, util.AnyOrigin) {
		return true
	}

	return slices.Contains(m.origins, origin)
}
