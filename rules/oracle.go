package rules

import (
	"github.com/notnil/chess"
)

// DefaultRejectReason is used when a move is refused without a more
// specific explanation.
const DefaultRejectReason = "invalid move"

// Oracle validates and applies moves. It holds no state; every call works
// from the Position it is given.
type Oracle struct{}

func NewOracle() *Oracle {
	return &Oracle{}
}

func (o *Oracle) Start() Position {
	return StartingPosition()
}

// Apply validates req against pos and returns the resulting Position, or a
// rejection carrying a human readable reason.
func (o *Oracle) Apply(pos Position, req MoveRequest) Result {
	from, err := parseSquare(req.From)
	if err != nil {
		return Reject(err.Error())
	}

	to, err := parseSquare(req.To)
	if err != nil {
		return Reject(err.Error())
	}

	promo := chess.NoPieceType
	if p, ok := req.Promotion.Get(); ok {
		if promo, err = parsePromotion(p); err != nil {
			return Reject(err.Error())
		}
	}

	game, err := pos.game()
	if err != nil {
		return Reject(err.Error())
	}

	if st := status(game); st.Terminal() {
		return Reject("game is over")
	}

	board := game.Position().Board()
	turn := game.Position().Turn()

	piece := board.Piece(from)
	if piece == chess.NoPiece {
		return Rejectf("no piece on %s", from)
	}
	if piece.Color() != turn {
		return Rejectf("it is %s's turn", sideOf(turn))
	}

	var exact, plain *chess.Move
	needsPromotion := false

	for _, m := range game.ValidMoves() {
		if m.S1() != from || m.S2() != to {
			continue
		}
		switch {
		case m.Promo() == promo:
			exact = m
		case m.Promo() == chess.NoPieceType:
			plain = m
		default:
			needsPromotion = true
		}
	}

	move := exact
	if move == nil && plain != nil {
		// a promotion piece sent along with an ordinary move is ignored
		move = plain
	}

	if move == nil {
		if needsPromotion && promo == chess.NoPieceType {
			return Reject("promotion piece required")
		}
		return Rejectf("illegal move %s%s", from, to)
	}

	if err := game.Move(move); err != nil {
		return Reject(err.Error())
	}

	return Accept(Position{fen: game.FEN()}, status(game), move.String())
}

func (o *Oracle) Status(pos Position) Status {
	game, err := pos.game()
	if err != nil {
		return Status{Outcome: Ongoing}
	}

	return status(game)
}
