package http

// CreateRoomRequest is the payload for POST /api/rooms.
type CreateRoomRequest struct {
	PlayerName string `json:"playerName" binding:"required"`
}

// JoinRoomRequest is the payload for POST /api/rooms/join.
type JoinRoomRequest struct {
	RoomCode   string `json:"roomCode" binding:"required"`
	PlayerName string `json:"playerName" binding:"required"`
}

// PlayerRequest identifies the acting player for leave, start, draw,
// end-turn, reconnect and bot requests. Token is the seat token returned by
// create and join.
type PlayerRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
	Token    string `json:"token" binding:"required"`
}

type ReadyRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
	Token    string `json:"token" binding:"required"`
	Ready    *bool  `json:"ready"`
}

type QuestRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
	Token    string `json:"token" binding:"required"`
	QuestID  string `json:"questId" binding:"required"`
}

// CardRequest is used by play and discard. TargetID is only read by play.
type CardRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
	Token    string `json:"token" binding:"required"`
	CardID   string `json:"cardId" binding:"required"`
	TargetID string `json:"targetId"`
}

type TransmuteRequest struct {
	PlayerID string   `json:"playerId" binding:"required"`
	Token    string   `json:"token" binding:"required"`
	CardIDs  []string `json:"cardIds" binding:"required"`
}
