package game

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// SnapshotVersion is bumped whenever the record layout below changes.
const SnapshotVersion = 1

var (
	ErrSnapshotVersion  = errors.New("game: unsupported snapshot version")
	ErrSnapshotChecksum = errors.New("game: snapshot checksum mismatch")
	ErrUnknownCard      = errors.New("game: snapshot references unknown card")
	ErrUnknownQuest     = errors.New("game: snapshot references unknown quest")
)

type snapshotEnvelope struct {
	Version  int             `json:"version"`
	Checksum string          `json:"checksum"`
	Session  json.RawMessage `json:"session"`
}

// Cards, quests and characters are stored by id and resolved against the
// catalog on restore.
type sessionRecord struct {
	ID           string              `json:"id"`
	RoomID       string              `json:"roomId"`
	Rules        Rules               `json:"rules"`
	Players      []playerRecord      `json:"players"`
	Current      int                 `json:"current"`
	Turn         int                 `json:"turn"`
	Phase        Phase               `json:"phase"`
	Stage        Stage               `json:"stage"`
	DrawPile     []string            `json:"drawPile"`
	DiscardPile  []string            `json:"discardPile"`
	Trap         *trapRecord         `json:"trap,omitempty"`
	WinnerID     string              `json:"winnerId,omitempty"`
	GameOver     bool                `json:"gameOver"`
	TurnOrder    []string            `json:"turnOrder"`
	QuestPool    []string            `json:"questPool"`
	QuestOptions map[string][]string `json:"questOptions"`
	Played       bool                `json:"played"`
	AbilityUsed  bool                `json:"abilityUsed"`
	FirstBlood   bool                `json:"firstBlood"`
	Log          []LogEntry          `json:"log"`
	TotalCards   int                 `json:"totalCards"`
	CreatedAt    time.Time           `json:"createdAt"`
}

type trapRecord struct {
	CardID  string `json:"cardId"`
	OwnerID string `json:"ownerId"`
}

type playerRecord struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	CharacterID string   `json:"characterId,omitempty"`
	HP          int      `json:"hp"`
	MaxHP       int      `json:"maxHp"`
	ATK         int      `json:"atk"`
	Armor       int      `json:"armor"`
	Hand        []string `json:"hand"`
	QuestID     string   `json:"questId,omitempty"`
	Progress    []int    `json:"progress,omitempty"`
	Complete    bool     `json:"complete"`
	Buffs       []Buff   `json:"buffs"`
	Alive       bool     `json:"alive"`
	DamagedBy   []string `json:"damagedBy,omitempty"`
	DealtDamage bool     `json:"dealtDamage"`
	Owed        int      `json:"owed,omitempty"`
}

func cardIDs(cards []Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.Info().ID
	}
	return ids
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// MarshalSnapshot encodes the full session, hidden state included.
func (s *Session) MarshalSnapshot() ([]byte, error) {
	rec := sessionRecord{
		ID:           s.ID,
		RoomID:       s.RoomID,
		Rules:        s.rules,
		Current:      s.Current,
		Turn:         s.Turn,
		Phase:        s.Phase,
		Stage:        s.Stage,
		DrawPile:     cardIDs(s.Deck.DrawPile),
		DiscardPile:  cardIDs(s.Deck.DiscardPile),
		WinnerID:     s.WinnerID,
		GameOver:     s.GameOver,
		TurnOrder:    s.TurnOrder,
		QuestPool:    s.QuestPool,
		QuestOptions: s.QuestOptions,
		Played:       s.Played,
		AbilityUsed:  s.AbilityUsed,
		FirstBlood:   s.FirstBlood,
		Log:          s.Log,
		TotalCards:   s.TotalCards,
		CreatedAt:    s.CreatedAt,
	}
	if s.Trap != nil {
		rec.Trap = &trapRecord{CardID: s.Trap.Card.ID, OwnerID: s.Trap.OwnerID}
	}
	for _, p := range s.Players {
		pr := playerRecord{
			ID:          p.ID,
			Name:        p.Name,
			HP:          p.HP,
			MaxHP:       p.MaxHP,
			ATK:         p.ATK,
			Armor:       p.Armor,
			Hand:        cardIDs(p.Hand),
			Progress:    p.Progress,
			Complete:    p.Complete,
			Buffs:       p.Buffs,
			Alive:       p.Alive,
			DealtDamage: p.dealtDamage,
			Owed:        p.owed,
		}
		if p.Character != nil {
			pr.CharacterID = p.Character.ID
		}
		if p.Quest != nil {
			pr.QuestID = p.Quest.ID
		}
		for id := range p.damagedBy {
			pr.DamagedBy = append(pr.DamagedBy, id)
		}
		sort.Strings(pr.DamagedBy)
		rec.Players = append(rec.Players, pr)
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	out, err := json.Marshal(snapshotEnvelope{Version: SnapshotVersion, Checksum: checksum(body), Session: body})
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %s: %w", s.ID, err)
	}
	return out, nil
}

// RestoreSession rebuilds a session from MarshalSnapshot output. Options
// supply the catalog, randomness and clock; rules always come from the
// snapshot.
func RestoreSession(data []byte, opts ...Option) (*Session, error) {
	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if env.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, env.Version)
	}
	if checksum(env.Session) != env.Checksum {
		return nil, ErrSnapshotChecksum
	}
	var rec sessionRecord
	if err := json.Unmarshal(env.Session, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	s := &Session{}
	s.apply(opts)
	s.rules = rec.Rules

	cards := func(ids []string) ([]Card, error) {
		out := make([]Card, 0, len(ids))
		for _, id := range ids {
			c, ok := s.catalog.Card(id)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownCard, id)
			}
			out = append(out, c)
		}
		return out, nil
	}

	var err error
	if s.Deck.DrawPile, err = cards(rec.DrawPile); err != nil {
		return nil, err
	}
	if s.Deck.DiscardPile, err = cards(rec.DiscardPile); err != nil {
		return nil, err
	}
	if rec.Trap != nil {
		c, ok := s.catalog.Card(rec.Trap.CardID)
		trap, isTrap := c.(TrapCard)
		if !ok || !isTrap {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCard, rec.Trap.CardID)
		}
		s.Trap = &ActiveTrap{Card: trap, OwnerID: rec.Trap.OwnerID}
	}

	for _, pr := range rec.Players {
		p := &Player{
			ID:          pr.ID,
			Name:        pr.Name,
			HP:          pr.HP,
			MaxHP:       pr.MaxHP,
			ATK:         pr.ATK,
			Armor:       pr.Armor,
			Progress:    pr.Progress,
			Complete:    pr.Complete,
			Buffs:       pr.Buffs,
			Alive:       pr.Alive,
			damagedBy:   make(map[string]bool),
			dealtDamage: pr.DealtDamage,
			owed:        pr.Owed,
		}
		if pr.CharacterID != "" {
			p.Character, _ = s.catalog.Character(pr.CharacterID)
		}
		if pr.QuestID != "" {
			q, ok := s.catalog.Quest(pr.QuestID)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownQuest, pr.QuestID)
			}
			p.Quest = q
			if len(p.Progress) != len(q.Conditions) {
				p.Progress = make([]int, len(q.Conditions))
			}
		}
		if p.Hand, err = cards(pr.Hand); err != nil {
			return nil, err
		}
		for _, id := range pr.DamagedBy {
			p.damagedBy[id] = true
		}
		s.Players = append(s.Players, p)
	}

	s.ID = rec.ID
	s.RoomID = rec.RoomID
	s.Current = rec.Current
	s.Turn = rec.Turn
	s.Phase = rec.Phase
	s.Stage = rec.Stage
	s.WinnerID = rec.WinnerID
	s.GameOver = rec.GameOver
	s.TurnOrder = rec.TurnOrder
	s.QuestPool = rec.QuestPool
	s.QuestOptions = rec.QuestOptions
	if s.QuestOptions == nil {
		s.QuestOptions = make(map[string][]string)
	}
	s.Played = rec.Played
	s.AbilityUsed = rec.AbilityUsed
	s.FirstBlood = rec.FirstBlood
	s.Log = rec.Log
	s.TotalCards = rec.TotalCards
	s.CreatedAt = rec.CreatedAt
	return s, nil
}
