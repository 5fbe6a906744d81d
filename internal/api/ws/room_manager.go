package ws

import (
	"context"

	"hidden-quest/internal/room"
)

// RoomManager is the part of room.Manager the hub drives.
type RoomManager interface {
	CreateRoom(ctx context.Context, hostName, connID string) (room.Reply, error)
	JoinRoom(ctx context.Context, code, name, connID string) (room.Reply, error)
	LeaveRoom(ctx context.Context, code, playerID string) (room.Reply, error)
	SetReady(ctx context.Context, code, playerID string, ready bool) (room.Reply, error)
	AddBot(ctx context.Context, code, hostID string) (room.Reply, error)
	StartGame(ctx context.Context, code, playerID string) (room.Reply, error)
	SelectQuest(ctx context.Context, code, playerID, questID string) (room.Reply, error)
	Draw(ctx context.Context, code, playerID string) (room.Reply, error)
	PlayCard(ctx context.Context, code, playerID, cardID, targetID string) (room.Reply, error)
	Discard(ctx context.Context, code, playerID, cardID string) (room.Reply, error)
	EndTurn(ctx context.Context, code, playerID string) (room.Reply, error)
	Transmute(ctx context.Context, code, playerID string, cardIDs []string) (room.Reply, error)
	Authorize(ctx context.Context, code, playerID, token string) (room.Reply, error)
	Reconnect(ctx context.Context, code, playerID, connID string) (room.Reply, error)
	Disconnect(ctx context.Context, code, playerID, connID string) error
	Locate(ctx context.Context, playerID string) (string, bool, error)
}
