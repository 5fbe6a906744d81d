package game

type BuffView struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Remaining int    `json:"remaining"`
}

// PublicPlayer is what every room member may know about a player.
type PublicPlayer struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Character     string     `json:"character,omitempty"`
	Passive       string     `json:"passive,omitempty"`
	HP            int        `json:"hp"`
	MaxHP         int        `json:"maxHp"`
	ATK           int        `json:"atk"`
	Armor         int        `json:"armor"`
	HandCount     int        `json:"handCount"`
	Buffs         []BuffView `json:"buffs"`
	Alive         bool       `json:"isAlive"`
	Connected     bool       `json:"isConnected"`
	HasQuest      bool       `json:"hasQuest"`
	QuestProgress int        `json:"questProgress"`
}

// PublicView is safe to broadcast to the whole room.
type PublicView struct {
	SessionID       string         `json:"sessionId"`
	RoomID          string         `json:"roomId"`
	Players         []PublicPlayer `json:"players"`
	CurrentPlayerID string         `json:"currentPlayerId"`
	TurnOrder       []string       `json:"turnOrder"`
	Turn            int            `json:"turn"`
	Phase           Phase          `json:"phase"`
	Stage           Stage          `json:"stage"`
	DrawPileSize    int            `json:"drawPileSize"`
	DiscardPileSize int            `json:"discardPileSize"`
	TrapActive      bool           `json:"hasActiveTrap"`
	GameOver        bool           `json:"isGameOver"`
	WinnerID        string         `json:"winnerId,omitempty"`
}

type CardView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`
	Target      Target `json:"target"`
}

type ConditionView struct {
	Type        Condition `json:"type"`
	Description string    `json:"description"`
	Current     int       `json:"current"`
	Target      int       `json:"target"`
}

type QuestView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Conditions  []ConditionView `json:"conditions"`
	Complete    bool            `json:"isComplete"`
}

// PrivateView goes to its owner only.
type PrivateView struct {
	PlayerID     string      `json:"playerId"`
	Hand         []CardView  `json:"hand"`
	Quest        *QuestView  `json:"quest,omitempty"`
	QuestOptions []QuestView `json:"questOptions,omitempty"`
	Trap         *CardView   `json:"trap,omitempty"`
	MustDiscard  int         `json:"mustDiscard"`
}

func NewCardView(c Card) CardView {
	info := c.Info()
	return CardView{ID: info.ID, Name: info.Name, Description: info.Description, Kind: c.Kind(), Target: c.Target()}
}

func questView(q *Quest, progress []int, complete bool) QuestView {
	v := QuestView{ID: q.ID, Name: q.Name, Description: q.Description, Complete: complete}
	for i, c := range q.Conditions {
		cur := 0
		if i < len(progress) {
			cur = progress[i]
		}
		v.Conditions = append(v.Conditions, ConditionView{Type: c.Type, Description: c.Description, Current: cur, Target: c.Target})
	}
	return v
}

// PublicView projects the session for broadcast. connected may be nil, in
// which case every player is reported connected.
func (s *Session) PublicView(connected func(playerID string) bool) PublicView {
	v := PublicView{
		SessionID:       s.ID,
		RoomID:          s.RoomID,
		TurnOrder:       append([]string(nil), s.TurnOrder...),
		Turn:            s.Turn,
		Phase:           s.Phase,
		Stage:           s.Stage,
		DrawPileSize:    len(s.Deck.DrawPile),
		DiscardPileSize: len(s.Deck.DiscardPile),
		TrapActive:      s.Trap != nil,
		GameOver:        s.GameOver,
		WinnerID:        s.WinnerID,
	}
	if cp := s.CurrentPlayer(); cp != nil {
		v.CurrentPlayerID = cp.ID
	}
	for _, p := range s.Players {
		pp := PublicPlayer{
			ID:            p.ID,
			Name:          p.Name,
			HP:            p.HP,
			MaxHP:         p.MaxHP,
			ATK:           p.ATK,
			Armor:         p.Armor,
			HandCount:     len(p.Hand),
			Buffs:         make([]BuffView, 0, len(p.Buffs)),
			Alive:         p.Alive,
			Connected:     connected == nil || connected(p.ID),
			HasQuest:      p.Quest != nil,
			QuestProgress: p.QuestPercent(),
		}
		if p.Character != nil {
			pp.Character = p.Character.Name
			pp.Passive = p.Character.Passive.Name
		}
		for _, b := range p.Buffs {
			pp.Buffs = append(pp.Buffs, BuffView{Name: b.Name, Kind: string(b.Kind), Remaining: b.Remaining})
		}
		v.Players = append(v.Players, pp)
	}
	return v
}

// PrivateView projects what only playerID may see.
func (s *Session) PrivateView(playerID string) (PrivateView, bool) {
	p := s.Player(playerID)
	if p == nil {
		return PrivateView{}, false
	}
	v := PrivateView{PlayerID: p.ID, Hand: make([]CardView, 0, len(p.Hand))}
	for _, c := range p.Hand {
		v.Hand = append(v.Hand, NewCardView(c))
	}
	if p.Quest != nil {
		qv := questView(p.Quest, p.Progress, p.Complete)
		v.Quest = &qv
	}
	for _, q := range s.Options(p.ID) {
		v.QuestOptions = append(v.QuestOptions, questView(q, nil, false))
	}
	if s.Trap != nil && s.Trap.OwnerID == p.ID {
		cv := NewCardView(s.Trap.Card)
		v.Trap = &cv
	}
	if extra := len(p.Hand) - s.rules.HandLimit; extra > 0 {
		v.MustDiscard = extra
	}
	v.MustDiscard = max(v.MustDiscard, p.owed)
	return v, true
}
