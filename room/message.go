package room

import "github.com/GitProjsStack/chess-arena/rules"

// Kind names an outbound message. The values double as wire event types.
type Kind string

const (
	KindStateSnapshot Kind = "state_snapshot"
	KindStateUpdate   Kind = "state_update"
	KindJoined        Kind = "joined"
	KindMoveRejected  Kind = "move_rejected"
	KindGameReset     Kind = "game_reset"
)

type Message struct {
	Kind    Kind
	TraceID string
	Payload any
}

// Participant is a connected client as seen by the coordinator. Send must not
// block; it is called while the room is held.
type Participant interface {
	ID() string
	Send(msg Message) error
}

// Oracle is the rules engine the coordinator delegates to.
type Oracle interface {
	Start() rules.Position
	Apply(pos rules.Position, req rules.MoveRequest) rules.Result
	Status(pos rules.Position) rules.Status
}

type State struct {
	RoomID   string `json:"room_id"`
	FEN      string `json:"fen"`
	Version  uint64 `json:"version"`
	Turn     string `json:"turn"`
	Status   string `json:"status"`
	Winner   string `json:"winner"`
	Check    bool   `json:"check"`
	Method   string `json:"method,omitempty"`
	LastMove string `json:"last_move,omitempty"`
}

type JoinedNotice struct {
	RoomID        string `json:"room_id"`
	ParticipantID string `json:"participant_id"`
}

type Rejection struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason"`
}

func newState(id string, pos rules.Position, version uint64, st rules.Status) State {
	return State{
		RoomID:  id,
		FEN:     pos.Encode(),
		Version: version,
		Turn:    string(st.Turn),
		Status:  string(st.Outcome),
		Winner:  string(st.Winner),
		Check:   st.Check,
		Method:  st.Method,
	}
}
