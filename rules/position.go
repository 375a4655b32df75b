package rules

import (
	"fmt"
	"strings"

	"github.com/GitProjsStack/chess-arena/util"
	"github.com/notnil/chess"
)

// Position is an immutable board state encoded as FEN. A new Position is
// produced for every accepted move; existing values are never modified.
type Position struct {
	fen string
}

func StartingPosition() Position {
	return Position{fen: util.DefaultFEN}
}

// Decode parses a FEN string and returns the normalized Position.
func Decode(fen string) (Position, error) {
	game, err := loadGame(strings.TrimSpace(fen))
	if err != nil {
		return Position{}, err
	}

	return Position{fen: game.FEN()}, nil
}

// Encode returns the FEN string of the position.
func (p Position) Encode() string {
	if p.fen == "" {
		return util.DefaultFEN
	}
	return p.fen
}

func (p Position) String() string {
	return p.Encode()
}

func (p Position) IsZero() bool {
	return p.fen == ""
}

func (p Position) Equal(other Position) bool {
	return p.Encode() == other.Encode()
}

func (p Position) game() (*chess.Game, error) {
	return loadGame(p.Encode())
}

func loadGame(fen string) (*chess.Game, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("decode position %q: %w", fen, err)
	}

	return chess.NewGame(opt), nil
}
