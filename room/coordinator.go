package room

import (
	"fmt"

	"github.com/GitProjsStack/chess-arena/rules"
	"go.uber.org/zap"
)

// MoveIntent is a move request addressed to a room.
type MoveIntent struct {
	RoomID    string
	From      string
	To        string
	Promotion rules.Optional[string]
	TraceID   string
}

func (i MoveIntent) request() rules.MoveRequest {
	return rules.MoveRequest{From: i.From, To: i.To, Promotion: i.Promotion}
}

type MoveOutcome int

const (
	MoveDropped MoveOutcome = iota
	MoveRejected
	MoveApplied
)

func (o MoveOutcome) String() string {
	switch o {
	case MoveDropped:
		return "dropped"
	case MoveRejected:
		return "rejected"
	case MoveApplied:
		return "applied"
	}
	return fmt.Sprintf("MoveOutcome(%d)", int(o))
}

// Coordinator serializes intents per room against the registry, consults
// the oracle and fans the results out to participants.
type Coordinator struct {
	registry *Registry
	oracle   Oracle
	log      *zap.Logger
}

func NewCoordinator(registry *Registry, oracle Oracle, log *zap.Logger) *Coordinator {
	return &Coordinator{
		registry: registry,
		oracle:   oracle,
		log:      log,
	}
}

func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// Join subscribes p to the room, creating it if needed, sends p the current
// state and tells the other members that p arrived.
func (c *Coordinator) Join(roomID, traceID string, p Participant) {
	room, _ := c.registry.acquire(roomID, true)
	defer room.mu.Unlock()

	room.members[p.ID()] = p
	room.lastActive = c.registry.now()
	c.registry.addMembership(p.ID(), roomID)

	c.send(room, p, Message{
		Kind:    KindStateSnapshot,
		TraceID: traceID,
		Payload: c.state(room, ""),
	})

	notice := Message{
		Kind:    KindJoined,
		Payload: JoinedNotice{RoomID: roomID, ParticipantID: p.ID()},
	}
	for id, member := range room.members {
		if id == p.ID() {
			continue
		}
		c.send(room, member, notice)
	}

	c.log.Info("participant joined",
		zap.String("room_id", roomID),
		zap.String("participant_id", p.ID()),
		zap.Int("members", len(room.members)),
	)
}

// Move applies the intent to the room's position. An unknown room drops the
// intent. A rejection goes to p alone; an accepted move is broadcast to the
// whole room.
func (c *Coordinator) Move(p Participant, intent MoveIntent) MoveOutcome {
	log := c.log.With(
		zap.String("room_id", intent.RoomID),
		zap.String("participant_id", p.ID()),
		zap.String("trace_id", intent.TraceID),
	)

	room, ok := c.registry.acquire(intent.RoomID, false)
	if !ok {
		log.Debug("move for unknown room dropped")
		return MoveDropped
	}
	defer room.mu.Unlock()

	room.lastActive = c.registry.now()

	req := intent.request()
	res := c.apply(room.position, req, log)

	if !res.Accepted {
		reason := res.Reason
		if reason == "" {
			reason = rules.DefaultRejectReason
		}

		log.Info("move rejected", zap.String("move", req.String()), zap.String("reason", reason))

		c.send(room, p, Message{
			Kind:    KindMoveRejected,
			TraceID: intent.TraceID,
			Payload: Rejection{RoomID: room.ID, Reason: reason},
		})
		return MoveRejected
	}

	room.replace(res.Position, room.lastActive)

	log.Info("move applied", zap.String("move", res.Move), zap.Uint64("version", room.version))

	c.broadcast(room, Message{
		Kind:    KindStateUpdate,
		TraceID: intent.TraceID,
		Payload: c.acceptedState(room, res),
	})
	return MoveApplied
}

// Reset starts a new game in the room, creating the room if needed, and
// broadcasts the starting position to every member.
func (c *Coordinator) Reset(roomID, traceID string) {
	room, _ := c.registry.acquire(roomID, true)
	defer room.mu.Unlock()

	room.replace(c.oracle.Start(), c.registry.now())

	c.log.Info("game reset", zap.String("room_id", roomID), zap.Uint64("version", room.version))

	c.broadcast(room, Message{
		Kind:    KindGameReset,
		TraceID: traceID,
		Payload: c.state(room, ""),
	})
}

// Describe reports the room's state and member ids without subscribing.
func (c *Coordinator) Describe(roomID string) (State, []string, bool) {
	room, ok := c.registry.acquire(roomID, false)
	if !ok {
		return State{}, nil, false
	}
	defer room.mu.Unlock()

	return c.state(room, ""), room.memberIDs(), true
}

// Leave unsubscribes p from one room. Nobody is notified.
func (c *Coordinator) Leave(roomID string, p Participant) {
	c.registry.removeMembership(p.ID(), roomID)
	c.leave(roomID, p)
}

// Disconnect unsubscribes p from every room it joined. Rooms and their
// positions are kept.
func (c *Coordinator) Disconnect(p Participant) {
	for _, roomID := range c.registry.dropMemberships(p.ID()) {
		c.leave(roomID, p)
	}
}

func (c *Coordinator) leave(roomID string, p Participant) {
	room, ok := c.registry.acquire(roomID, false)
	if !ok {
		return
	}
	defer room.mu.Unlock()

	if _, ok := room.members[p.ID()]; !ok {
		return
	}

	delete(room.members, p.ID())
	room.lastActive = c.registry.now()

	c.log.Info("participant left",
		zap.String("room_id", roomID),
		zap.String("participant_id", p.ID()),
		zap.Int("members", len(room.members)),
	)
}

// apply runs the oracle, turning a panic into a rejection so a faulting
// computation can never leave the room half updated.
func (c *Coordinator) apply(pos rules.Position, req rules.MoveRequest, log *zap.Logger) (res rules.Result) {
	defer func() {
		if v := recover(); v != nil {
			log.Error("rules oracle fault", zap.String("move", req.String()), zap.Any("panic", v))

			reason := rules.DefaultRejectReason
			if err, ok := v.(error); ok {
				reason = err.Error()
			}
			res = rules.Reject(reason)
		}
	}()

	return c.oracle.Apply(pos, req)
}

func (c *Coordinator) state(room *Room, lastMove string) State {
	st := newState(room.ID, room.position, room.version, c.status(room))
	st.LastMove = lastMove
	return st
}

// acceptedState uses the status the oracle computed while applying the move,
// falling back to deriving it from the stored position.
func (c *Coordinator) acceptedState(room *Room, res rules.Result) State {
	st := res.Status
	if st == (rules.Status{}) {
		st = c.status(room)
	}

	state := newState(room.ID, room.position, room.version, st)
	state.LastMove = res.Move
	return state
}

func (c *Coordinator) status(room *Room) (st rules.Status) {
	defer func() {
		if v := recover(); v != nil {
			c.log.Error("rules oracle fault computing status", zap.String("room_id", room.ID), zap.Any("panic", v))
			st = rules.Status{Outcome: rules.Ongoing}
		}
	}()

	return c.oracle.Status(room.position)
}

func (c *Coordinator) broadcast(room *Room, msg Message) {
	for _, member := range room.members {
		c.send(room, member, msg)
	}
}

func (c *Coordinator) send(room *Room, p Participant, msg Message) {
	if err := p.Send(msg); err != nil {
		c.log.Warn("send failed",
			zap.String("room_id", room.ID),
			zap.String("participant_id", p.ID()),
			zap.String("event", string(msg.Kind)),
			zap.Error(err),
		)
	}
}
