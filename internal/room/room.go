package room

import (
	"context"
	"time"

	"hidden-quest/internal/game"
	"hidden-quest/internal/shared"
)

type Status string

const (
	StatusWaiting        Status = "waiting"
	StatusQuestSelection Status = "quest_selection"
	StatusPlaying        Status = "playing"
	StatusFinished       Status = "finished"
)

// Member is a room seat. It outlives its connection: after the game starts a
// member is only ever marked disconnected, never removed.
type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ConnID    string    `json:"connId,omitempty"`
	Token     string    `json:"token,omitempty"`
	IsHost    bool      `json:"isHost"`
	IsBot     bool      `json:"isBot"`
	Connected bool      `json:"isConnected"`
	Ready     bool      `json:"isReady"`
	JoinedAt  time.Time `json:"joinedAt"`
}

type Room struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	HostID     string    `json:"hostId"`
	Members    []*Member `json:"members"`
	Status     Status    `json:"status"`
	MaxPlayers int       `json:"maxPlayers"`
	GameID     string    `json:"gameId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (r *Room) member(id string) *Member {
	for _, m := range r.Members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (r *Room) remove(id string) {
	for i, m := range r.Members {
		if m.ID == id {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return
		}
	}
}

func (r *Room) connected(id string) bool {
	m := r.member(id)
	return m != nil && m.Connected
}

// CanStart reports whether the host may start, and if not, why.
func (r *Room) CanStart(rules game.Rules) (bool, string) {
	if len(r.Members) < rules.MinPlayers {
		return false, "need more players"
	}
	for _, m := range r.Members {
		if !m.Ready {
			return false, "not all players are ready"
		}
	}
	return true, ""
}

type MemberView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsHost    bool   `json:"isHost"`
	IsBot     bool   `json:"isBot"`
	Connected bool   `json:"isConnected"`
	Ready     bool   `json:"isReady"`
}

// View is the room as every member sees it; connection ids and seat tokens
// stay server side.
type View struct {
	ID         string       `json:"id"`
	Code       string       `json:"code"`
	HostID     string       `json:"hostId"`
	Status     Status       `json:"status"`
	MaxPlayers int          `json:"maxPlayers"`
	Members    []MemberView `json:"members"`
	GameID     string       `json:"gameId,omitempty"`
	CanStart   bool         `json:"canStart"`
}

func (r *Room) view(rules game.Rules) View {
	ok, _ := r.CanStart(rules)
	v := View{
		ID:         r.ID,
		Code:       r.Code,
		HostID:     r.HostID,
		Status:     r.Status,
		MaxPlayers: r.MaxPlayers,
		GameID:     r.GameID,
		CanStart:   ok && r.Status == StatusWaiting,
		Members:    make([]MemberView, 0, len(r.Members)),
	}
	for _, m := range r.Members {
		v.Members = append(v.Members, MemberView{
			ID: m.ID, Name: m.Name, IsHost: m.IsHost, IsBot: m.IsBot,
			Connected: m.Connected, Ready: m.Ready,
		})
	}
	return v
}

// Reply answers every manager call. Expected refusals come back with
// Accepted false and a Code; faults come back as the error return instead.
type Reply struct {
	Accepted bool              `json:"success"`
	Code     shared.Code       `json:"code,omitempty"`
	Message  string            `json:"message,omitempty"`
	PlayerID string            `json:"playerId,omitempty"`
	Token    string            `json:"token,omitempty"`
	Room     *View             `json:"room,omitempty"`
	Outcome  *game.Outcome     `json:"result,omitempty"`
	State    *game.PublicView  `json:"state,omitempty"`
	Private  *game.PrivateView `json:"private,omitempty"`
}

func refuse(code shared.Code, msg string) Reply {
	return Reply{Code: code, Message: msg}
}

// Store is the key-value persistence the manager writes through to.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Sweep(ctx context.Context, now time.Time) (int, error)
}

func roomKey(code string) string      { return "room:" + code }
func sessionKey(roomID string) string { return "session:" + roomID }
func playerKey(id string) string      { return "player:" + id }
