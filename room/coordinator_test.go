package room

import (
	"errors"
	"sync"
	"testing"

	"github.com/GitProjsStack/chess-arena/rules"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorScenario(t *testing.T) {
	c := newTestCoordinator(t, nil)
	start := rules.StartingPosition().Encode()

	white := newRecorder("white")
	black := newRecorder("black")

	// join on an empty registry yields the starting position
	c.Join("r1", "t1", white)
	msg := white.last(t)
	st := stateOf(t, msg, KindStateSnapshot)
	require.Equal(t, "t1", msg.TraceID)
	require.Equal(t, start, st.FEN)
	require.Equal(t, "white", st.Turn)
	require.Equal(t, "ongoing", st.Status)
	require.Zero(t, st.Version)

	// second joiner gets the snapshot, the first gets a joined notice
	c.Join("r1", "", black)
	stateOf(t, black.last(t), KindStateSnapshot)
	notice := white.take()
	require.Len(t, notice, 1)
	require.Equal(t, KindJoined, notice[0].Kind)
	require.Equal(t, JoinedNotice{RoomID: "r1", ParticipantID: "black"}, notice[0].Payload)

	require.Equal(t, MoveApplied, c.Move(white, move("r1", "e2e4")))
	for _, p := range []*recorder{white, black} {
		st := stateOf(t, p.last(t), KindStateUpdate)
		require.Equal(t, "black", st.Turn)
		require.Equal(t, "e2e4", st.LastMove)
		require.Equal(t, uint64(1), st.Version)
	}

	require.Equal(t, MoveApplied, c.Move(black, move("r1", "e7e5")))
	white.take()
	black.take()

	before, _ := c.Registry().Snapshot("r1")

	// blocked pawn: only the requester hears about it
	intent := move("r1", "e4e5")
	intent.TraceID = "t9"
	require.Equal(t, MoveRejected, c.Move(white, intent))

	rejected := white.take()
	require.Len(t, rejected, 1)
	require.Equal(t, KindMoveRejected, rejected[0].Kind)
	require.Equal(t, "t9", rejected[0].TraceID)
	require.Equal(t, Rejection{RoomID: "r1", Reason: "illegal move e4e5"}, rejected[0].Payload)
	require.Empty(t, black.take())

	after, _ := c.Registry().Snapshot("r1")
	require.Equal(t, before.Position.Encode(), after.Position.Encode())
	require.Equal(t, before.Version, after.Version)

	c.Reset("r1", "")
	for _, p := range []*recorder{white, black} {
		st := stateOf(t, p.last(t), KindGameReset)
		require.Equal(t, start, st.FEN)
		require.Equal(t, uint64(3), st.Version)
	}
}

func TestJoinExistingRoomKeepsPosition(t *testing.T) {
	c := newTestCoordinator(t, nil)
	alice := newRecorder("alice")
	bob := newRecorder("bob")

	c.Join("r1", "", alice)
	c.Move(alice, move("r1", "d2d4"))
	moved := stateOf(t, alice.last(t), KindStateUpdate)

	c.Join("r1", "", bob)
	snap := stateOf(t, bob.last(t), KindStateSnapshot)

	require.Equal(t, moved.FEN, snap.FEN)
	require.Equal(t, moved.Version, snap.Version)
}

func TestJoinTwiceIsIdempotent(t *testing.T) {
	c := newTestCoordinator(t, nil)
	alice := newRecorder("alice")

	c.Join("r1", "", alice)
	c.Join("r1", "", alice)

	for _, msg := range alice.take() {
		require.Equal(t, KindStateSnapshot, msg.Kind)
	}

	snap, _ := c.Registry().Snapshot("r1")
	require.Equal(t, []string{"alice"}, snap.Participants)
	require.Equal(t, []string{"r1"}, c.Registry().RoomsOf("alice"))
}

func TestMoveUnknownRoomIsDropped(t *testing.T) {
	c := newTestCoordinator(t, nil)
	alice := newRecorder("alice")

	require.Equal(t, MoveDropped, c.Move(alice, move("ghost", "e2e4")))
	require.Empty(t, alice.take())
	require.Zero(t, c.Registry().Len())
}

func TestMoveFromNonMember(t *testing.T) {
	c := newTestCoordinator(t, nil)
	alice := newRecorder("alice")
	outsider := newRecorder("outsider")

	c.Join("r1", "", alice)
	alice.take()

	require.Equal(t, MoveApplied, c.Move(outsider, move("r1", "e2e4")))
	stateOf(t, alice.last(t), KindStateUpdate)
	require.Empty(t, outsider.take())
}

func TestMalformedIntentIsRejected(t *testing.T) {
	c := newTestCoordinator(t, nil)
	alice := newRecorder("alice")
	c.Join("r1", "", alice)
	alice.take()

	res := c.Move(alice, MoveIntent{RoomID: "r1", From: "", To: "e4"})
	require.Equal(t, MoveRejected, res)

	msg := alice.last(t)
	require.Equal(t, KindMoveRejected, msg.Kind)
	require.Equal(t, `invalid square ""`, msg.Payload.(Rejection).Reason)
}

func TestOracleFault(t *testing.T) {
	cases := []struct {
		name   string
		fault  any
		reason string
	}{
		{name: "error value", fault: errors.New("encoding exploded"), reason: "encoding exploded"},
		{name: "non error value", fault: 42, reason: rules.DefaultRejectReason},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestCoordinator(t, faultyOracle{Oracle: rules.NewOracle(), fault: tc.fault})
			alice := newRecorder("alice")
			bob := newRecorder("bob")

			c.Join("r1", "", alice)
			c.Join("r1", "", bob)
			alice.take()
			bob.take()

			require.NotPanics(t, func() {
				require.Equal(t, MoveRejected, c.Move(alice, move("r1", "e2e4")))
			})

			msg := alice.last(t)
			require.Equal(t, KindMoveRejected, msg.Kind)
			require.Equal(t, tc.reason, msg.Payload.(Rejection).Reason)
			require.Empty(t, bob.take())

			snap, _ := c.Registry().Snapshot("r1")
			require.Equal(t, rules.StartingPosition().Encode(), snap.Position.Encode())
			require.Zero(t, snap.Version)
		})
	}
}

func TestRejectionWithoutReason(t *testing.T) {
	c := newTestCoordinator(t, silentOracle{Oracle: rules.NewOracle()})
	alice := newRecorder("alice")
	c.Join("r1", "", alice)
	alice.take()

	require.Equal(t, MoveRejected, c.Move(alice, move("r1", "e2e4")))
	require.Equal(t, rules.DefaultRejectReason, alice.last(t).Payload.(Rejection).Reason)
}

func TestConcurrentMovesAreSerialized(t *testing.T) {
	c := newTestCoordinator(t, nil)
	watcher := newRecorder("watcher")
	c.Join("r1", "", watcher)
	watcher.take()

	const n = 32

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes = map[MoveOutcome]int{}
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			p := newRecorder("p")
			res := c.Move(p, move("r1", "e2e4"))

			mu.Lock()
			outcomes[res]++
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	// the first e2e4 wins; every later one sees the pawn already gone
	require.Equal(t, 1, outcomes[MoveApplied])
	require.Equal(t, n-1, outcomes[MoveRejected])

	updates := watcher.take()
	require.Len(t, updates, 1)
	require.Equal(t, uint64(1), stateOf(t, updates[0], KindStateUpdate).Version)
}

func TestBroadcastOrderMatchesApplyOrder(t *testing.T) {
	c := newTestCoordinator(t, nil)
	watcher := newRecorder("watcher")
	c.Join("r1", "", watcher)
	watcher.take()

	moves := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6"}

	var wg sync.WaitGroup
	for _, m := range moves {
		wg.Add(1)
		go func(m string) {
			defer wg.Done()
			// retry until it is this move's turn
			for c.Move(newRecorder("p"), move("r1", m)) != MoveApplied {
			}
		}(m)
	}
	wg.Wait()

	updates := watcher.take()
	require.Len(t, updates, len(moves))

	for i, msg := range updates {
		require.Equal(t, uint64(i+1), stateOf(t, msg, KindStateUpdate).Version)
	}
}

func TestResetAlwaysStartsOver(t *testing.T) {
	c := newTestCoordinator(t, nil)
	alice := newRecorder("alice")
	start := rules.StartingPosition().Encode()

	t.Run("creates an unknown room", func(t *testing.T) {
		c.Reset("fresh", "")

		snap, ok := c.Registry().Snapshot("fresh")
		require.True(t, ok)
		require.Equal(t, start, snap.Position.Encode())
	})

	t.Run("after checkmate", func(t *testing.T) {
		c.Join("r1", "", alice)
		for _, m := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
			require.Equal(t, MoveApplied, c.Move(alice, move("r1", m)))
		}

		mate := stateOf(t, alice.last(t), KindStateUpdate)
		require.Equal(t, "checkmate", mate.Status)
		require.Equal(t, "black", mate.Winner)
		require.True(t, mate.Check)

		require.Equal(t, MoveRejected, c.Move(alice, move("r1", "a2a3")))
		require.Equal(t, "game is over", alice.last(t).Payload.(Rejection).Reason)

		c.Reset("r1", "")
		st := stateOf(t, alice.last(t), KindGameReset)
		require.Equal(t, start, st.FEN)
		require.Equal(t, "ongoing", st.Status)
	})
}

func TestPromotionThroughCoordinator(t *testing.T) {
	c := newTestCoordinator(t, nil)
	alice := newRecorder("alice")
	c.Join("r1", "", alice)

	pos, err := rules.Decode("8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	require.NoError(t, err)
	require.NoError(t, c.Registry().ReplacePosition("r1", pos))
	alice.take()

	require.Equal(t, MoveRejected, c.Move(alice, move("r1", "e7e8")))
	require.Equal(t, "promotion piece required", alice.last(t).Payload.(Rejection).Reason)

	require.Equal(t, MoveApplied, c.Move(alice, move("r1", "e7e8q")))
	st := stateOf(t, alice.last(t), KindStateUpdate)
	require.Equal(t, "4Q3/8/8/8/8/8/k7/4K3 b - - 0 1", st.FEN)
}

func TestDisconnect(t *testing.T) {
	c := newTestCoordinator(t, nil)
	alice := newRecorder("alice")
	bob := newRecorder("bob")

	c.Join("r1", "", alice)
	c.Join("r2", "", alice)
	c.Join("r1", "", bob)
	c.Move(alice, move("r1", "e2e4"))
	alice.take()
	bob.take()

	before, _ := c.Registry().Snapshot("r1")

	c.Disconnect(bob)

	require.Empty(t, alice.take())
	require.Empty(t, c.Registry().RoomsOf("bob"))

	after, _ := c.Registry().Snapshot("r1")
	require.Equal(t, before.Position.Encode(), after.Position.Encode())
	require.Equal(t, before.Version, after.Version)
	require.Equal(t, []string{"alice"}, after.Participants)

	// the mover leaves one room explicitly, then disconnects entirely
	c.Leave("r2", alice)
	require.Equal(t, []string{"r1"}, c.Registry().RoomsOf("alice"))

	c.Disconnect(alice)
	snap, ok := c.Registry().Snapshot("r1")
	require.True(t, ok)
	require.Empty(t, snap.Participants)
	require.Equal(t, before.Position.Encode(), snap.Position.Encode())

	c.Move(bob, move("r1", "e7e5"))
	require.Empty(t, bob.take())
}

func TestSendFailureDoesNotStopBroadcast(t *testing.T) {
	c := newTestCoordinator(t, nil)
	broken := newRecorder("broken")
	broken.err = errors.New("egress full")
	alice := newRecorder("alice")

	c.Join("r1", "", broken)
	c.Join("r1", "", alice)
	alice.take()

	require.Equal(t, MoveApplied, c.Move(alice, move("r1", "e2e4")))
	stateOf(t, alice.last(t), KindStateUpdate)
}

func TestDescribe(t *testing.T) {
	c := newTestCoordinator(t, rules.NewOracle())

	_, _, ok := c.Describe("missing")
	require.False(t, ok)

	a := newRecorder("a")
	c.Join("d1", "", a)
	require.Equal(t, MoveApplied, c.Move(a, move("d1", "e2e4")))

	state, members, ok := c.Describe("d1")
	require.True(t, ok)
	require.Equal(t, []string{"a"}, members)
	require.Equal(t, uint64(1), state.Version)
	require.Equal(t, "black", state.Turn)
	require.Equal(t, "ongoing", state.Status)
}

func TestMoveOutcomeString(t *testing.T) {
	require.Equal(t, "dropped", MoveDropped.String())
	require.Equal(t, "rejected", MoveRejected.String())
	require.Equal(t, "applied", MoveApplied.String())
	require.Equal(t, "MoveOutcome(7)", MoveOutcome(7).String())
}

func TestStateUpdateReportsCheck(t *testing.T) {
	c := newTestCoordinator(t, nil)
	alice := newRecorder("alice")
	c.Join("r1", "", alice)

	pos, err := rules.Decode("4k3/8/8/8/8/8/8/R3K3 w - - 0 1")
	require.NoError(t, err)
	require.NoError(t, c.Registry().ReplacePosition("r1", pos))
	alice.take()

	require.Equal(t, MoveApplied, c.Move(alice, move("r1", "a1a8")))

	st := stateOf(t, alice.last(t), KindStateUpdate)
	require.True(t, st.Check)
	require.Equal(t, "black", st.Turn)
	require.Equal(t, "a1a8", st.LastMove)
}
