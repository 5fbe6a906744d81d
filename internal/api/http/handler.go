package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hidden-quest/internal/room"
	"hidden-quest/internal/shared"
)

// TokenHeader carries the seat token on requests without a body.
const TokenHeader = "X-Player-Token"

// statusFor maps a refusal code onto an HTTP status.
func statusFor(code shared.Code) int {
	switch code {
	case shared.CodeRoomNotFound, shared.CodePlayerNotFound:
		return http.StatusNotFound
	case shared.CodeInvalidName, shared.CodeInvalidCode:
		return http.StatusBadRequest
	case shared.CodeInvalidToken:
		return http.StatusForbidden
	default:
		return http.StatusConflict
	}
}

func respond(c *gin.Context, log *zap.Logger, ok int, rep room.Reply, err error) {
	if err != nil {
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "code": "internal", "message": "internal error"})
		return
	}
	if !rep.Accepted {
		c.JSON(statusFor(rep.Code), rep)
		return
	}
	c.JSON(ok, rep)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "code": "bad_request", "message": err.Error()})
}

// authorized checks the seat token for the room in the path and writes the
// refusal itself when it does not match.
func authorized(c *gin.Context, rm *room.Manager, log *zap.Logger, playerID, token string) bool {
	rep, err := rm.Authorize(c.Request.Context(), c.Param("code"), playerID, token)
	if err != nil || !rep.Accepted {
		respond(c, log, http.StatusOK, rep, err)
		return false
	}
	return true
}

// CreateRoomHandler creates a room with the caller as host.
// @Summary Create new room
// @Description Create a waiting room with the caller as host. The reply carries the host's player id and seat token
// @Tags Room
// @Accept json
// @Produce json
// @Param request body http.CreateRoomRequest true "Player info"
// @Success 201 {object} map[string]interface{}
// @Router /api/rooms [post]
func CreateRoomHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		rep, err := rm.CreateRoom(c.Request.Context(), req.PlayerName, "")
		respond(c, log, http.StatusCreated, rep, err)
	}
}

// @Summary Join a room
// @Description Take a seat in a waiting room. The reply carries the new player id and seat token
// @Tags Room
// @Accept json
// @Produce json
// @Param request body http.JoinRoomRequest true "Room code and player name"
// @Success 200 {object} map[string]interface{}
// @Router /api/rooms/join [post]
func JoinRoomHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req JoinRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		rep, err := rm.JoinRoom(c.Request.Context(), req.RoomCode, req.PlayerName, "")
		respond(c, log, http.StatusOK, rep, err)
	}
}

// GetRoomHandler returns the room and, once started, the public game view.
// @Summary Get room
// @Tags Room
// @Produce json
// @Param code path string true "Room Code"
// @Success 200 {object} map[string]interface{}
// @Router /api/rooms/{code} [get]
func GetRoomHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, err := rm.Room(c.Request.Context(), c.Param("code"))
		respond(c, log, http.StatusOK, rep, err)
	}
}

// @Summary Get public game state
// @Description Returns the view of the game every player shares. Hands and quests are never included
// @Tags Game
// @Produce json
// @Param code path string true "Room Code"
// @Success 200 {object} game.PublicView
// @Router /api/rooms/{code}/state [get]
func StateHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rep, err := rm.Room(c.Request.Context(), c.Param("code"))
		if err == nil && rep.Accepted && rep.State == nil {
			rep = room.Reply{Code: shared.CodeNotPlaying, Message: "game has not started"}
		}
		if err != nil || !rep.Accepted {
			respond(c, log, http.StatusOK, rep, err)
			return
		}
		c.JSON(http.StatusOK, rep.State)
	}
}

// @Summary Get private player data
// @Description Returns the hand, quest and trap of one player. Requires that player's seat token
// @Tags Game
// @Produce json
// @Param code path string true "Room Code"
// @Param playerId path string true "Player ID"
// @Param X-Player-Token header string true "Seat token"
// @Success 200 {object} game.PrivateView
// @Router /api/rooms/{code}/players/{playerId}/private [get]
func PrivateHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := c.Param("playerId")
		if !authorized(c, rm, log, playerID, c.GetHeader(TokenHeader)) {
			return
		}
		rep, err := rm.Private(c.Request.Context(), c.Param("code"), playerID)
		if err != nil || !rep.Accepted {
			respond(c, log, http.StatusOK, rep, err)
			return
		}
		c.JSON(http.StatusOK, rep.Private)
	}
}

// playerAction binds a PlayerRequest, checks its token and runs fn with the
// room code from the path.
func playerAction(rm *room.Manager, log *zap.Logger, fn func(ctx context.Context, code, playerID string) (room.Reply, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlayerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if !authorized(c, rm, log, req.PlayerID, req.Token) {
			return
		}
		rep, err := fn(c.Request.Context(), c.Param("code"), req.PlayerID)
		respond(c, log, http.StatusOK, rep, err)
	}
}

// @Summary Leave a room
// @Description Before the game starts the seat is freed; afterwards the player is only marked disconnected
// @Tags Room
// @Accept json
// @Produce json
// @Param code path string true "Room Code"
// @Param request body http.PlayerRequest true "Player and seat token"
// @Success 200 {object} map[string]interface{}
// @Router /api/rooms/{code}/leave [post]
func LeaveHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return playerAction(rm, log, rm.LeaveRoom)
}

// @Summary Start the game
// @Description Host only. Needs at least four ready players
// @Tags Room
// @Accept json
// @Produce json
// @Param code path string true "Room Code"
// @Param request body http.PlayerRequest true "Host and seat token"
// @Success 200 {object} map[string]interface{}
// @Router /api/rooms/{code}/start [post]
func StartHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return playerAction(rm, log, rm.StartGame)
}

// @Summary Add a bot
// @Description Host only. Seats a computer player in a waiting room
// @Tags Room
// @Accept json
// @Produce json
// @Param code path string true "Room Code"
// @Param request body http.PlayerRequest true "Host and seat token"
// @Success 200 {object} map[string]interface{}
// @Router /api/rooms/{code}/bots [post]
func AddBotHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return playerAction(rm, log, rm.AddBot)
}

// @Summary Draw a card
// @Tags Game
// @Accept json
// @Produce json
// @Param code path string true "Room Code"
// @Param request body http.PlayerRequest true "Player and seat token"
// @Success 200 {object} map[string]interface{}
// @Router /api/rooms/{code}/draw [post]
func DrawHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return playerAction(rm, log, rm.Draw)
}

// @Summary End the turn
// @Tags Game
// @Accept json
// @Produce json
// @Param code path string true "Room Code"
// @Param request body http.PlayerRequest true "Player and seat token"
// @Success 200 {object} map[string]interface{}
// @Router /api/rooms/{code}/end-turn [post]
func EndTurnHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return playerAction(rm, log, rm.EndTurn)
}

// @Summary Reconnect to a room
// @Description Marks the player connected and returns the room, public state and private data
// @Tags Room
// @Accept json
// @Produce json
// @Param code path string true "Room Code"
// @Param request body http.PlayerRequest true "Player and seat token"
// @Success 200 {object} map[string]interface{}
// @Router /api/rooms/{code}/reconnect [post]
func ReconnectHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return playerAction(rm, log, func(ctx context.Context, code, playerID string) (room.Reply, error) {
		return rm.Reconnect(ctx, code, playerID, "")
	})
}

// @Summary Set ready
// @Description Ready defaults to true when omitted
// @Tags Room
// @Accept json
// @Produce json
// @Param code path string true "Room Code"
// @Param request body http.ReadyRequest true "Player, seat token and ready flag"
// @Success 200 {object} map[string]interface{}
// @Router /api/rooms/{code}/ready [post]
func ReadyHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReadyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if !authorized(c, rm, log, req.PlayerID, req.Token) {
			return
		}
		ready := true
		if req.Ready != nil {
			ready = *req.Ready
		}
		rep, err := rm.SetReady(c.Request.Context(), c.Param("code"), req.PlayerID, ready)
		respond(c, log, http.StatusOK, rep, err)
	}
}

// @Summary Select a quest
// @Description Locks in one of the quests offered to the player
// @Tags Game
// @Accept json
// @Produce json
// @Param code path string true "Room Code"
// @Param request body http.QuestRequest true "Player, seat token and quest"
// @Success 200 {object} map[string]interface{}
// @Router /api/rooms/{code}/quest [post]
func QuestHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req QuestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if !authorized(c, rm, log, req.PlayerID, req.Token) {
			return
		}
		rep, err := rm.SelectQuest(c.Request.Context(), c.Param("code"), req.PlayerID, req.QuestID)
		respond(c, log, http.StatusOK, rep, err)
	}
}

// @Summary Play a card
// @Description Attacks and damage spells need a living target other than the player
// @Tags Game
// @Accept json
// @Produce json
// @Param code path string true "Room Code"
// @Param request body http.CardRequest true "Player, seat token, card and target"
// @Success 200 {object} map[string]interface{}
// @Router /api/rooms/{code}/play [post]
func PlayHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if !authorized(c, rm, log, req.PlayerID, req.Token) {
			return
		}
		rep, err := rm.PlayCard(c.Request.Context(), c.Param("code"), req.PlayerID, req.CardID, req.TargetID)
		respond(c, log, http.StatusOK, rep, err)
	}
}

// @Summary Discard a card
// @Tags Game
// @Accept json
// @Produce json
// @Param code path string true "Room Code"
// @Param request body http.CardRequest true "Player, seat token and card"
// @Success 200 {object} map[string]interface{}
// @Router /api/rooms/{code}/discard [post]
func DiscardHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if !authorized(c, rm, log, req.PlayerID, req.Token) {
			return
		}
		rep, err := rm.Discard(c.Request.Context(), c.Param("code"), req.PlayerID, req.CardID)
		respond(c, log, http.StatusOK, rep, err)
	}
}

// @Summary Transmute two cards
// @Description Alchemist only, once per turn. Discards two cards from hand and draws one
// @Tags Game
// @Accept json
// @Produce json
// @Param code path string true "Room Code"
// @Param request body http.TransmuteRequest true "Player, seat token and two card ids"
// @Success 200 {object} map[string]interface{}
// @Router /api/rooms/{code}/transmute [post]
func TransmuteHandler(rm *room.Manager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TransmuteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		if !authorized(c, rm, log, req.PlayerID, req.Token) {
			return
		}
		rep, err := rm.Transmute(c.Request.Context(), c.Param("code"), req.PlayerID, req.CardIDs)
		respond(c, log, http.StatusOK, rep, err)
	}
}
