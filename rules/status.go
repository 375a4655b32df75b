package rules

import "github.com/notnil/chess"

type Side string

const (
	NoSide Side = ""
	White  Side = "white"
	Black  Side = "black"
)

type Outcome string

const (
	Ongoing   Outcome = "ongoing"
	Checkmate Outcome = "checkmate"
	Stalemate Outcome = "stalemate"
	Draw      Outcome = "draw"
)

// Status is derived from a Position on demand and never stored.
type Status struct {
	Turn    Side
	Outcome Outcome
	Winner  Side
	Check   bool
	Method  string
}

func (s Status) Terminal() bool {
	return s.Outcome != Ongoing
}

func sideOf(c chess.Color) Side {
	switch c {
	case chess.White:
		return White
	case chess.Black:
		return Black
	}
	return NoSide
}

func status(game *chess.Game) Status {
	pos := game.Position()
	turn := pos.Turn()

	s := Status{
		Turn:    sideOf(turn),
		Outcome: Ongoing,
		Check:   checkOf(game),
	}

	if len(game.ValidMoves()) == 0 {
		if s.Check {
			s.Outcome = Checkmate
			s.Winner = sideOf(turn.Other())
			s.Method = "checkmate"
		} else {
			s.Outcome = Stalemate
			s.Method = "stalemate"
		}
		return s
	}

	if game.Outcome() == chess.Draw {
		s.Outcome = Draw
		s.Method = drawMethod(game.Method())
	}

	return s
}

// checkOf reads the engine's check tag on the last played move. A game
// decoded from a bare position has no history, so its board is scanned.
func checkOf(game *chess.Game) bool {
	if moves := game.Moves(); len(moves) > 0 {
		return moves[len(moves)-1].HasTag(chess.Check)
	}

	pos := game.Position()
	return inCheck(pos.Board(), pos.Turn())
}

func drawMethod(m chess.Method) string {
	switch m {
	case chess.InsufficientMaterial:
		return "insufficient_material"
	case chess.SeventyFiveMoveRule:
		return "seventy_five_move_rule"
	case chess.FivefoldRepetition:
		return "fivefold_repetition"
	case chess.Stalemate:
		return "stalemate"
	}
	return "draw"
}

var (
	knightSteps  = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps    = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	straightRays = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonalRays = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// inCheck reports whether side's king is attacked on board. Only used for
// positions without move history.
func inCheck(board *chess.Board, side chess.Color) bool {
	pieces := board.SquareMap()

	king := chess.NoSquare
	for sq, p := range pieces {
		if p.Type() == chess.King && p.Color() == side {
			king = sq
			break
		}
	}
	if king == chess.NoSquare {
		return false
	}

	file, rank := int(king)%8, int(king)/8
	enemy := side.Other()

	at := func(f, r int) (chess.Piece, bool) {
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return chess.NoPiece, false
		}
		p, ok := pieces[chess.Square(r*8+f)]
		return p, ok
	}

	is := func(p chess.Piece, types ...chess.PieceType) bool {
		if p.Color() != enemy {
			return false
		}
		for _, t := range types {
			if p.Type() == t {
				return true
			}
		}
		return false
	}

	// pawns attack toward the opposing side
	pawnRank := rank + 1
	if side == chess.Black {
		pawnRank = rank - 1
	}
	for _, df := range []int{-1, 1} {
		if p, ok := at(file+df, pawnRank); ok && is(p, chess.Pawn) {
			return true
		}
	}

	for _, st := range knightSteps {
		if p, ok := at(file+st[0], rank+st[1]); ok && is(p, chess.Knight) {
			return true
		}
	}

	for _, st := range kingSteps {
		if p, ok := at(file+st[0], rank+st[1]); ok && is(p, chess.King) {
			return true
		}
	}

	slide := func(rays [][2]int, types ...chess.PieceType) bool {
		for _, ray := range rays {
			f, r := file+ray[0], rank+ray[1]
			for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
				if p, ok := at(f, r); ok {
					if is(p, types...) {
						return true
					}
					break
				}
				f, r = f+ray[0], r+ray[1]
			}
		}
		return false
	}

	return slide(straightRays, chess.Rook, chess.Queen) || slide(diagonalRays, chess.Bishop, chess.Queen)
}
