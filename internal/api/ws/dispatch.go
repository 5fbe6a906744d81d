package ws

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"hidden-quest/internal/room"
)

const actionTimeout = 10 * time.Second

type createPayload struct {
	PlayerName string `json:"playerName"`
}

type joinPayload struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type readyPayload struct {
	Ready bool `json:"ready"`
}

type questPayload struct {
	QuestID string `json:"questId"`
}

type cardPayload struct {
	CardID   string `json:"cardId"`
	TargetID string `json:"targetId"`
}

type transmutePayload struct {
	CardIDs []string `json:"cardIds"`
}

type reconnectPayload struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	Token    string `json:"token"`
}

func (h *Hub) dispatch(cl *client, msg message) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	var (
		rep room.Reply
		err error
	)
	code, playerID := cl.roomCode, cl.playerID
	seated := func() bool {
		if playerID == "" {
			h.fail(cl, "not_in_room", "create, join or reconnect first")
			return false
		}
		return true
	}

	switch msg.Action {
	case "room:create":
		var p createPayload
		if !h.decode(cl, msg, &p) {
			return
		}
		rep, err = h.rm.CreateRoom(ctx, p.PlayerName, cl.id)
		if err == nil && rep.Accepted {
			h.attach(cl, rep.Room.Code, rep.PlayerID)
		}
	case "room:join":
		var p joinPayload
		if !h.decode(cl, msg, &p) {
			return
		}
		rep, err = h.rm.JoinRoom(ctx, p.RoomCode, p.PlayerName, cl.id)
		if err == nil && rep.Accepted {
			h.attach(cl, rep.Room.Code, rep.PlayerID)
		}
	case "reconnect:attempt":
		var p reconnectPayload
		if !h.decode(cl, msg, &p) {
			return
		}
		target := p.RoomCode
		if target == "" {
			found, ok, lerr := h.rm.Locate(ctx, p.PlayerID)
			if lerr != nil {
				err = lerr
				break
			}
			if !ok {
				h.fail(cl, "player_not_found", "no room for this player")
				return
			}
			target = found
		}
		rep, err = h.rm.Authorize(ctx, target, p.PlayerID, p.Token)
		if err != nil || !rep.Accepted {
			break
		}
		rep, err = h.rm.Reconnect(ctx, target, p.PlayerID, cl.id)
		if err == nil && rep.Accepted {
			h.attach(cl, rep.Room.Code, p.PlayerID)
		}
	case "room:leave":
		if !seated() {
			return
		}
		rep, err = h.rm.LeaveRoom(ctx, code, playerID)
		if err == nil && rep.Accepted {
			h.detach(cl)
		}
	case "room:ready":
		if !seated() {
			return
		}
		p := readyPayload{Ready: true}
		if !h.decode(cl, msg, &p) {
			return
		}
		rep, err = h.rm.SetReady(ctx, code, playerID, p.Ready)
	case "room:addBot":
		if !seated() {
			return
		}
		rep, err = h.rm.AddBot(ctx, code, playerID)
	case "room:start":
		if !seated() {
			return
		}
		rep, err = h.rm.StartGame(ctx, code, playerID)
	case "game:selectQuest":
		var p questPayload
		if !seated() || !h.decode(cl, msg, &p) {
			return
		}
		rep, err = h.rm.SelectQuest(ctx, code, playerID, p.QuestID)
	case "game:drawCard":
		if !seated() {
			return
		}
		rep, err = h.rm.Draw(ctx, code, playerID)
	case "game:playCard":
		var p cardPayload
		if !seated() || !h.decode(cl, msg, &p) {
			return
		}
		rep, err = h.rm.PlayCard(ctx, code, playerID, p.CardID, p.TargetID)
	case "game:discardCard":
		var p cardPayload
		if !seated() || !h.decode(cl, msg, &p) {
			return
		}
		rep, err = h.rm.Discard(ctx, code, playerID, p.CardID)
	case "game:transmute":
		var p transmutePayload
		if !seated() || !h.decode(cl, msg, &p) {
			return
		}
		rep, err = h.rm.Transmute(ctx, code, playerID, p.CardIDs)
	case "game:endTurn":
		if !seated() {
			return
		}
		rep, err = h.rm.EndTurn(ctx, code, playerID)
	default:
		h.fail(cl, "unknown_action", "unknown action "+msg.Action)
		return
	}

	if err != nil {
		h.log.Error("action failed",
			zap.String("action", msg.Action),
			zap.String("room_code", code),
			zap.String("conn_id", cl.id),
			zap.Error(err),
		)
		h.fail(cl, "internal", "internal error")
		return
	}
	h.reply(cl, msg.Action, rep)
}

// decode fills v from the message data. Missing data leaves v as is.
func (h *Hub) decode(cl *client, msg message, v interface{}) bool {
	if len(msg.Data) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Data, v); err != nil {
		h.fail(cl, "bad_request", "invalid data for "+msg.Action)
		return false
	}
	return true
}
