package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

var (
	ErrInvalidSquare    = errors.New("invalid square")
	ErrInvalidPromotion = errors.New("invalid promotion piece")
)

// Optional holds a value that may be absent.
type Optional[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Optional[T]) IsSet() bool {
	return o.ok
}

// MoveRequest is a move in square coordinates ("e2" -> "e4"). Promotion is
// only meaningful for a pawn reaching the last rank.
type MoveRequest struct {
	From      string
	To        string
	Promotion Optional[string]
}

func (m MoveRequest) String() string {
	s := m.From + m.To
	if p, ok := m.Promotion.Get(); ok {
		s += p
	}
	return strings.ToLower(s)
}

// Result is the outcome of applying a MoveRequest: either the resulting
// Position and its Status or the reason the move was refused.
type Result struct {
	Accepted bool
	Position Position
	Status   Status
	Move     string
	Reason   string
}

func Accept(pos Position, st Status, move string) Result {
	return Result{Accepted: true, Position: pos, Status: st, Move: move}
}

func Reject(reason string) Result {
	return Result{Reason: reason}
}

func Rejectf(format string, args ...any) Result {
	return Reject(fmt.Sprintf(format, args...))
}

func parseSquare(s string) (chess.Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return chess.NoSquare, fmt.Errorf("%w %q", ErrInvalidSquare, s)
	}

	return chess.Square(int(s[1]-'1')*8 + int(s[0]-'a')), nil
}

func parsePromotion(s string) (chess.PieceType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "q":
		return chess.Queen, nil
	case "r":
		return chess.Rook, nil
	case "b":
		return chess.Bishop, nil
	case "n":
		return chess.Knight, nil
	}

	return chess.NoPieceType, fmt.Errorf("%w %q", ErrInvalidPromotion, s)
}
