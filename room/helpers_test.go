package room

import (
	"sync"
	"testing"
	"time"

	"github.com/GitProjsStack/chess-arena/rules"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recorder struct {
	id string

	mu   sync.Mutex
	msgs []Message
	err  error
}

func newRecorder(id string) *recorder {
	return &recorder{id: id}
}

func (r *recorder) ID() string {
	return r.id
}

func (r *recorder) Send(msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.msgs = append(r.msgs, msg)
	return r.err
}

// take returns the messages received so far and clears them.
func (r *recorder) take() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs := r.msgs
	r.msgs = nil
	return msgs
}

func (r *recorder) last(t *testing.T) Message {
	t.Helper()

	msgs := r.take()
	require.NotEmpty(t, msgs, "participant %s received nothing", r.id)
	return msgs[len(msgs)-1]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type faultyOracle struct {
	*rules.Oracle
	fault any
}

func (f faultyOracle) Apply(rules.Position, rules.MoveRequest) rules.Result {
	panic(f.fault)
}

type silentOracle struct {
	*rules.Oracle
}

func (silentOracle) Apply(rules.Position, rules.MoveRequest) rules.Result {
	return rules.Result{}
}

func newTestCoordinator(t *testing.T, oracle Oracle, opts ...Option) *Coordinator {
	t.Helper()

	if oracle == nil {
		oracle = rules.NewOracle()
	}

	return NewCoordinator(NewRegistry(oracle.Start(), opts...), oracle, zaptest.NewLogger(t))
}

func move(roomID, uci string) MoveIntent {
	intent := MoveIntent{RoomID: roomID, From: uci[0:2], To: uci[2:4]}
	if len(uci) == 5 {
		intent.Promotion = rules.Some(uci[4:])
	}
	return intent
}

func stateOf(t *testing.T, msg Message, kind Kind) State {
	t.Helper()

	require.Equal(t, kind, msg.Kind)
	st, ok := msg.Payload.(State)
	require.True(t, ok, "payload is %T", msg.Payload)
	return st
}
