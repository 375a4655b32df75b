package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/GitProjsStack/chess-arena/http_utils"
	"github.com/GitProjsStack/chess-arena/room"
	"github.com/GitProjsStack/chess-arena/util"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type roomView struct {
	ID           string   `json:"id"`
	FEN          string   `json:"fen"`
	Version      uint64   `json:"version"`
	Status       string   `json:"status"`
	Turn         string   `json:"turn"`
	Participants []string `json:"participants"`
}

func (s *Server) describeRoom(id string) (roomView, bool) {
	state, members, ok := s.coordinator.Describe(id)
	if !ok {
		return roomView{}, false
	}

	return roomView{
		ID:           id,
		FEN:          state.FEN,
		Version:      state.Version,
		Status:       state.Status,
		Turn:         state.Turn,
		Participants: members,
	}, true
}

type createRoomRequest struct {
	RoomID string `json:"room_id" validate:"omitempty,max=128,printascii"`
}

// CreateRoom opens a room at the starting position. The body is optional;
// without a room_id a uuid is generated.
func (s *Server) CreateRoom(c *gin.Context) {
	var data createRoomRequest

	if err := c.ShouldBindJSON(&data); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	if res, ok := http_utils.ValidateStruct(util.Validate, data); !ok {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}

	roomID := data.RoomID
	if roomID == "" {
		roomID = uuid.NewString()
	}

	if err := s.coordinator.Registry().Create(roomID); err != nil {
		if errors.Is(err, room.ErrRoomExists) {
			c.JSON(http.StatusConflict, errorResponse(err.Error()))
			return
		}

		s.log.Error("cannot create room", zap.String("room_id", roomID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse(ErrorMessage500))
		return
	}

	view, ok := s.describeRoom(roomID)
	if !ok {
		// swept before it could be read back
		s.log.Error("room vanished after create", zap.String("room_id", roomID))
		c.JSON(http.StatusInternalServerError, errorResponse(ErrorMessage500))
		return
	}

	s.log.Info("room created", zap.String("room_id", roomID))

	c.JSON(http.StatusCreated, successResponse("Room created", view))
}

type checkRoomRequest struct {
	RoomID string `uri:"id" binding:"required"`
}

func (s *Server) CheckRoom(c *gin.Context) {
	var data checkRoomRequest

	if err := c.ShouldBindUri(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResponse(err.Error()))
		return
	}

	view, ok := s.describeRoom(data.RoomID)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse(room.ErrRoomNotFound.Error()))
		return
	}

	c.JSON(http.StatusOK, successResponse("room data", view))
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"rooms":  s.coordinator.Registry().Len(),
	})
}
