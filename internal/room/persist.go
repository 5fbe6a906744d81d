package room

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hidden-quest/internal/game"
)

// playerRecord is the player:<id> index entry used to find a player's room
// without knowing its code.
type playerRecord struct {
	RoomCode  string    `json:"roomCode"`
	ConnID    string    `json:"connId,omitempty"`
	Connected bool      `json:"connected"`
	LastSeen  time.Time `json:"lastSeen"`
}

// persist writes the room, its session snapshot and the player index. Every
// write refreshes the retention window.
func (m *Manager) persist(ctx context.Context, sl *slot) error {
	r := sl.room
	r.UpdatedAt = m.now()

	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", r.Code, err)
	}
	if err := m.store.Set(ctx, roomKey(r.Code), b, m.retention); err != nil {
		return fmt.Errorf("save room %s: %w", r.Code, err)
	}
	if sl.session != nil {
		snap, err := sl.session.MarshalSnapshot()
		if err != nil {
			return fmt.Errorf("encode session %s: %w", sl.session.ID, err)
		}
		if err := m.store.Set(ctx, sessionKey(r.ID), snap, m.retention); err != nil {
			return fmt.Errorf("save session %s: %w", sl.session.ID, err)
		}
	}
	for _, mem := range r.Members {
		pb, err := json.Marshal(playerRecord{
			RoomCode:  r.Code,
			ConnID:    mem.ConnID,
			Connected: mem.Connected,
			LastSeen:  r.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("encode player %s: %w", mem.ID, err)
		}
		if err := m.store.Set(ctx, playerKey(mem.ID), pb, m.retention); err != nil {
			return fmt.Errorf("save player %s: %w", mem.ID, err)
		}
	}
	return nil
}

// load reads a room and its session back. A nil room with a nil error means
// the store has no such room.
func (m *Manager) load(ctx context.Context, code string) (*Room, *game.Session, error) {
	b, ok, err := m.store.Get(ctx, roomKey(code))
	if err != nil {
		return nil, nil, fmt.Errorf("load room %s: %w", code, err)
	}
	if !ok {
		return nil, nil, nil
	}
	var r Room
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, nil, fmt.Errorf("decode room %s: %w", code, err)
	}
	if r.GameID == "" {
		return &r, nil, nil
	}
	snap, ok, err := m.store.Get(ctx, sessionKey(r.ID))
	if err != nil {
		return nil, nil, fmt.Errorf("load session for %s: %w", code, err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("load session for %s: snapshot missing", code)
	}
	s, err := game.RestoreSession(snap, m.sessionOptions()...)
	if err != nil {
		return nil, nil, fmt.Errorf("restore session for %s: %w", code, err)
	}
	return &r, s, nil
}
