package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"hidden-quest/internal/shared"
)

var ErrPlayerCount = errors.New("game: player count out of range")

// Rules are the tunable numbers of a session.
type Rules struct {
	HandLimit    int `json:"handLimit"`
	MinPlayers   int `json:"minPlayers"`
	MaxPlayers   int `json:"maxPlayers"`
	StartingHand int `json:"startingHand"`
	QuestChoices int `json:"questChoices"`
	StartHP      int `json:"startHp"`
	StartATK     int `json:"startAtk"`
	BuffDuration int `json:"buffDuration"`
}

func DefaultRules() Rules {
	return Rules{
		HandLimit:    4,
		MinPlayers:   4,
		MaxPlayers:   6,
		StartingHand: 3,
		QuestChoices: 2,
		StartHP:      40,
		StartATK:     4,
		BuffDuration: 3,
	}
}

// ActionKind names an entry in the action log and an Outcome.
type ActionKind string

const (
	ActionRollOff     ActionKind = "roll_off"
	ActionSelectQuest ActionKind = "select_quest"
	ActionDraw        ActionKind = "draw"
	ActionPlay        ActionKind = "play"
	ActionDiscard     ActionKind = "discard"
	ActionEndTurn     ActionKind = "end_turn"
	ActionTransmute   ActionKind = "transmute"
	ActionGameOver    ActionKind = "game_over"
)

// LogEntry is one line of the append-only action log. It is never projected
// into the public view.
type LogEntry struct {
	Turn     int        `json:"turn"`
	PlayerID string     `json:"playerId"`
	Action   ActionKind `json:"action"`
	CardID   string     `json:"cardId,omitempty"`
	TargetID string     `json:"targetId,omitempty"`
	Roll     int        `json:"roll,omitempty"`
	Message  string     `json:"message"`
	At       time.Time  `json:"at"`
}

// Outcome is the structured answer to every session action. A rejected
// outcome never comes with a state change.
type Outcome struct {
	Accepted bool          `json:"accepted"`
	Reason   shared.Code   `json:"reason,omitempty"`
	Message  string        `json:"message"`
	Action   ActionKind    `json:"action"`
	ActorID  string        `json:"actorId"`
	TargetID string        `json:"targetId,omitempty"`
	CardName string        `json:"cardName,omitempty"`
	Effect   *EffectResult `json:"effect,omitempty"`
	GameOver bool          `json:"gameOver"`
	WinnerID string        `json:"winnerId,omitempty"`

	// Drawn is private to the actor and stays out of broadcasts.
	Drawn []Card `json:"-"`
}

func rejected(action ActionKind, actorID string, rej *shared.Rejection) Outcome {
	return Outcome{Action: action, ActorID: actorID, Reason: rej.Code, Message: rej.Message}
}

// Seat is one entrant handed to NewSession. An empty CharacterID gets a
// random character.
type Seat struct {
	ID          string
	Name        string
	CharacterID string
}

// Session is the authoritative state of one game. It is not safe for
// concurrent use; callers serialize access per room.
type Session struct {
	ID           string
	RoomID       string
	Players      []*Player
	Current      int
	Turn         int
	Phase        Phase
	Stage        Stage
	Deck         Deck
	Trap         *ActiveTrap
	WinnerID     string
	GameOver     bool
	TurnOrder    []string
	QuestPool    []string
	QuestOptions map[string][]string
	Played       bool
	AbilityUsed  bool
	FirstBlood   bool
	Log          []LogEntry
	TotalCards   int
	CreatedAt    time.Time

	rules   Rules
	catalog *Catalog
	rng     *rand.Rand
	dice    Roller
	now     func() time.Time
}

type Option func(*Session)

func WithRules(r Rules) Option { return func(s *Session) { s.rules = r } }

func WithCatalog(c *Catalog) Option { return func(s *Session) { s.catalog = c } }

// WithRand seeds every shuffle. Unless WithRoller is also given the dice
// share the same source.
func WithRand(rng *rand.Rand) Option { return func(s *Session) { s.rng = rng } }

func WithRoller(r Roller) Option { return func(s *Session) { s.dice = r } }

func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

func (s *Session) apply(opts []Option) {
	s.rules = DefaultRules()
	s.catalog = DefaultCatalog()
	s.now = time.Now
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.dice == nil {
		s.dice = NewRoller(s.rng)
	}
}

// NewSession deals the opening hands, rolls for the first player and offers
// each player their quest choices.
func NewSession(id, roomID string, seats []Seat, opts ...Option) (*Session, error) {
	s := &Session{ID: id, RoomID: roomID, QuestOptions: make(map[string][]string)}
	s.apply(opts)
	if len(seats) < s.rules.MinPlayers || len(seats) > s.rules.MaxPlayers {
		return nil, fmt.Errorf("%w: got %d, want %d-%d", ErrPlayerCount, len(seats), s.rules.MinPlayers, s.rules.MaxPlayers)
	}
	s.CreatedAt = s.now().UTC()

	chars := make([]*Character, len(s.catalog.Characters))
	for i := range s.catalog.Characters {
		chars[i] = &s.catalog.Characters[i]
	}
	s.rng.Shuffle(len(chars), func(i, j int) { chars[i], chars[j] = chars[j], chars[i] })

	for i, seat := range seats {
		p := &Player{
			ID:        seat.ID,
			Name:      seat.Name,
			HP:        s.rules.StartHP,
			MaxHP:     s.rules.StartHP,
			ATK:       s.rules.StartATK,
			Alive:     true,
			damagedBy: make(map[string]bool),
		}
		if ch, ok := s.catalog.Character(seat.CharacterID); ok {
			p.Character = ch
		} else if i < len(chars) {
			p.Character = chars[i]
		}
		if pv, ok := p.passive(PassiveStartArmor); ok {
			p.Armor = pv.Value
		}
		s.Players = append(s.Players, p)
	}

	s.Deck = newDeck(s.catalog.Cards, s.rng)
	s.TotalCards = len(s.catalog.Cards)
	for _, p := range s.Players {
		p.Hand = s.Deck.DrawN(s.rules.StartingHand, s.rng)
	}

	s.Current = s.rollOff()
	for i := range s.Players {
		s.TurnOrder = append(s.TurnOrder, s.Players[(s.Current+i)%len(s.Players)].ID)
	}
	s.Turn = 1
	s.Phase = PhaseDraw
	s.Stage = StageQuestSelection

	for _, p := range s.Players {
		s.AssignOptions(p.ID)
	}
	s.logAction(LogEntry{
		PlayerID: s.Players[s.Current].ID,
		Action:   ActionRollOff,
		Message:  s.Players[s.Current].Name + " won the opening roll",
	})
	return s, nil
}

// rollOff has every player roll a d8. Ties re-roll among the tied only.
func (s *Session) rollOff() int {
	candidates := make([]int, len(s.Players))
	for i := range candidates {
		candidates[i] = i
	}
	for len(candidates) > 1 {
		best := 0
		var top []int
		for _, idx := range candidates {
			r := s.dice.Roll()
			switch {
			case r > best:
				best = r
				top = []int{idx}
			case r == best:
				top = append(top, idx)
			}
		}
		candidates = top
	}
	return candidates[0]
}

func (s *Session) Rules() Rules { return s.rules }

func (s *Session) Catalog() *Catalog { return s.catalog }

func (s *Session) Player(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *Session) CurrentPlayer() *Player {
	if s.Current < 0 || s.Current >= len(s.Players) {
		return nil
	}
	return s.Players[s.Current]
}

func (s *Session) aliveCount() int {
	n := 0
	for _, p := range s.Players {
		if p.Alive {
			n++
		}
	}
	return n
}

// CardCount is the number of cards across piles, hands and the trap slot.
func (s *Session) CardCount() int {
	n := s.Deck.Size()
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	if s.Trap != nil {
		n++
	}
	return n
}

func (s *Session) logAction(e LogEntry) {
	if e.Turn == 0 {
		e.Turn = s.Turn
	}
	e.At = s.now().UTC()
	s.Log = append(s.Log, e)
}

func (s *Session) drawInto(p *Player, n int) []Card {
	drawn := s.Deck.DrawN(n, s.rng)
	p.Hand = append(p.Hand, drawn...)
	s.Record(p, CondDrawCards, len(drawn))
	return drawn
}

func (s *Session) finalize(out Outcome) Outcome {
	out.GameOver = s.GameOver
	out.WinnerID = s.WinnerID
	return out
}

// Draw moves the top card into the current player's hand and opens the
// action phase.
func (s *Session) Draw(actorID string) Outcome {
	if rej := ValidateDraw(s, actorID); rej != nil {
		return rejected(ActionDraw, actorID, rej)
	}
	p := s.Player(actorID)
	reshuffle := len(s.Deck.DrawPile) == 0
	n := 1
	if _, ok := p.passive(PassiveBallad); ok {
		n = 2
	}
	drawn := s.drawInto(p, n)
	s.Phase = PhaseAction

	msg := p.Name + " drew a card"
	if len(drawn) > 1 {
		p.owed = len(drawn) - 1
		s.Record(p, CondUsePassive, 1)
		msg = fmt.Sprintf("%s drew %d cards", p.Name, len(drawn))
	}
	if reshuffle {
		msg = "the discard pile was reshuffled; " + msg
	}
	s.logAction(LogEntry{PlayerID: p.ID, Action: ActionDraw, CardID: drawn[0].Info().ID, Message: msg})
	s.observeGauges()
	s.checkWin(s.Current)
	return s.finalize(Outcome{Accepted: true, Action: ActionDraw, ActorID: p.ID, Message: msg, Drawn: drawn})
}

// PlayCard plays one card from the current player's hand.
func (s *Session) PlayCard(actorID, cardID, targetID string) Outcome {
	if rej := ValidatePlay(s, actorID, cardID, targetID); rej != nil {
		return rejected(ActionPlay, actorID, rej)
	}
	p := s.Player(actorID)
	card := p.takeFromHand(p.handIndex(cardID))
	var target *Player
	if card.Target() == TargetEnemy {
		target = s.Player(targetID)
	} else {
		targetID = ""
	}

	leaders := s.leaders()
	actorIdx := s.Current
	res := s.resolve(card, p, target)
	s.Played = true
	s.Phase = PhaseEnd
	s.Record(p, Condition("play_"+string(card.Kind())), 1)
	res.Killed = s.settleDeaths(p, leaders)

	s.logAction(LogEntry{
		PlayerID: p.ID,
		Action:   ActionPlay,
		CardID:   card.Info().ID,
		TargetID: targetID,
		Roll:     res.Roll,
		Message:  res.Message,
	})
	s.observeGauges()
	s.checkWin(actorIdx)
	if !s.GameOver && !p.Alive {
		s.passTurn()
	}
	// a trap stays face down: the room only learns that one was set
	name := card.Info().Name
	if card.Kind() == KindTrap {
		name = ""
	}
	return s.finalize(Outcome{
		Accepted: true,
		Action:   ActionPlay,
		ActorID:  p.ID,
		TargetID: targetID,
		CardName: name,
		Message:  res.Message,
		Effect:   &res,
		Drawn:    res.drawn,
	})
}

// Discard drops a card from any player's hand onto the discard pile.
func (s *Session) Discard(actorID, cardID string) Outcome {
	if rej := ValidateDiscard(s, actorID, cardID); rej != nil {
		return rejected(ActionDiscard, actorID, rej)
	}
	p := s.Player(actorID)
	card := p.takeFromHand(p.handIndex(cardID))
	s.Deck.Discard(card)
	s.Record(p, CondDiscardCards, 1)
	if p.owed > 0 {
		p.owed--
	}

	msg := fmt.Sprintf("%s discarded %s", p.Name, card.Info().Name)
	s.logAction(LogEntry{PlayerID: p.ID, Action: ActionDiscard, CardID: card.Info().ID, Message: msg})
	s.observeGauges()
	s.checkWin(s.indexOf(p.ID))
	return s.finalize(Outcome{Accepted: true, Action: ActionDiscard, ActorID: p.ID, CardName: card.Info().Name, Message: msg})
}

// Transmute is the Alchemist ability: two cards from hand go to the discard
// pile and one is drawn in their place. It does not count as the turn's play.
func (s *Session) Transmute(actorID string, cardIDs []string) Outcome {
	if rej := ValidateTransmute(s, actorID, cardIDs); rej != nil {
		return rejected(ActionTransmute, actorID, rej)
	}
	p := s.Player(actorID)
	for _, id := range cardIDs {
		s.Deck.Discard(p.takeFromHand(p.handIndex(id)))
	}
	s.Record(p, CondDiscardCards, len(cardIDs))
	if p.owed > 0 {
		p.owed -= min(p.owed, len(cardIDs))
	}
	drawn := s.drawInto(p, 1)
	s.AbilityUsed = true
	s.Record(p, CondUsePassive, 1)

	msg := fmt.Sprintf("%s transmuted 2 cards into %d", p.Name, len(drawn))
	s.logAction(LogEntry{PlayerID: p.ID, Action: ActionTransmute, Message: msg})
	s.observeGauges()
	s.checkWin(s.Current)
	return s.finalize(Outcome{Accepted: true, Action: ActionTransmute, ActorID: p.ID, Message: msg, Drawn: drawn})
}

// EndTurn closes the current player's turn and hands play to the next
// living player.
func (s *Session) EndTurn(actorID string) Outcome {
	if rej := ValidateEndTurn(s, actorID); rej != nil {
		return rejected(ActionEndTurn, actorID, rej)
	}
	p := s.Player(actorID)
	if !p.dealtDamage {
		s.Record(p, CondPeacefulTurns, 1)
	}
	// a Ballad discard nobody paid is taken from the newest card
	var dropped string
	for ; p.owed > 0 && len(p.Hand) > 0; p.owed-- {
		c := p.takeFromHand(len(p.Hand) - 1)
		s.Deck.Discard(c)
		s.Record(p, CondDiscardCards, 1)
		dropped = c.Info().Name
	}
	if len(p.Hand) == 0 {
		s.Record(p, CondEmptyHand, 1)
	}
	actorIdx := s.Current
	s.passTurn()

	next := s.CurrentPlayer()
	msg := fmt.Sprintf("%s ended their turn; %s is up", p.Name, next.Name)
	if dropped != "" {
		msg = fmt.Sprintf("%s discarded %s and ended their turn; %s is up", p.Name, dropped, next.Name)
	}
	s.logAction(LogEntry{PlayerID: p.ID, Action: ActionEndTurn, Message: msg})
	s.observeGauges()
	s.checkWin(actorIdx)
	return s.finalize(Outcome{Accepted: true, Action: ActionEndTurn, ActorID: p.ID, Message: msg})
}

// passTurn expires the departing player's buffs, moves to the next living
// player and runs their start-of-turn effects.
func (s *Session) passTurn() {
	p := s.CurrentPlayer()
	p.dealtDamage = false
	p.owed = 0
	tickBuffs(p)

	n := len(s.Players)
	for i := 1; i < n; i++ {
		j := (s.Current + i) % n
		if s.Players[j].Alive {
			s.Current = j
			break
		}
	}
	s.Turn++
	s.Phase = PhaseDraw
	s.Played = false
	s.AbilityUsed = false
	s.startTurn(s.CurrentPlayer())
}

func tickBuffs(p *Player) {
	kept := p.Buffs[:0]
	for _, b := range p.Buffs {
		if b.Remaining == -1 {
			kept = append(kept, b)
			continue
		}
		b.Remaining--
		if b.Remaining > 0 {
			kept = append(kept, b)
		}
	}
	p.Buffs = kept
}

func (s *Session) startTurn(p *Player) {
	if !p.Alive {
		return
	}
	if pv, ok := p.passive(PassiveRegen); ok {
		if healed := heal(p, pv.Value); healed > 0 {
			s.Record(p, CondHealHP, healed)
			s.Record(p, CondUsePassive, 1)
		}
	}
	p.Armor += p.buffTotal(BuffArmorBoost)
}

func (s *Session) indexOf(id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return s.Current
}
