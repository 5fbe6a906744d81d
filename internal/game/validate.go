package game

import (
	"fmt"

	"hidden-quest/internal/shared"
)

// The Validate functions never mutate the session and are safe to call
// repeatedly. A nil result means the action is legal right now.

func turnGate(s *Session, actorID string) (*Player, *shared.Rejection) {
	if s.GameOver {
		return nil, shared.Reject(shared.CodeGameOver, "the game is over")
	}
	if s.Stage != StagePlaying {
		return nil, shared.Reject(shared.CodeNotPlaying, "the game has not started yet")
	}
	p := s.Player(actorID)
	if p == nil {
		return nil, shared.Reject(shared.CodeNotInGame, "player is not in this game")
	}
	if s.CurrentPlayer() != p {
		return nil, shared.Reject(shared.CodeNotYourTurn, "it is not your turn")
	}
	return p, nil
}

func ValidateDraw(s *Session, actorID string) *shared.Rejection {
	if _, rej := turnGate(s, actorID); rej != nil {
		return rej
	}
	if s.Phase != PhaseDraw {
		return shared.Reject(shared.CodeWrongPhase, "you can only draw at the start of your turn")
	}
	if s.Deck.Empty() {
		return shared.Reject(shared.CodeEmptyDeck, "there are no cards left to draw")
	}
	return nil
}

func ValidatePlay(s *Session, actorID, cardID, targetID string) *shared.Rejection {
	p, rej := turnGate(s, actorID)
	if rej != nil {
		return rej
	}
	if s.Played {
		return shared.Reject(shared.CodeAlreadyPlayed, "you already played a card this turn")
	}
	if s.Phase != PhaseAction {
		return shared.Reject(shared.CodeWrongPhase, "cards can only be played in the action phase")
	}
	i := p.handIndex(cardID)
	if i < 0 {
		return shared.Reject(shared.CodeCardNotInHand, "card is not in your hand")
	}
	card := p.Hand[i]

	if _, ok := card.(TrapCard); ok && s.Trap != nil {
		return shared.Reject(shared.CodeTrapActive, "a trap is already set")
	}
	if card.Target() != TargetEnemy {
		return nil
	}
	if targetID == "" {
		return shared.Reject(shared.CodeTargetRequired, fmt.Sprintf("%s needs a target", card.Info().Name))
	}
	if targetID == actorID {
		return shared.Reject(shared.CodeSelfTarget, "you cannot target yourself")
	}
	t := s.Player(targetID)
	if t == nil {
		return shared.Reject(shared.CodeTargetNotFound, "target is not in this game")
	}
	if !t.Alive {
		return shared.Reject(shared.CodeTargetDead, "target has been eliminated")
	}
	return nil
}

// ValidateDiscard allows a discard in any phase, on or off turn.
func ValidateDiscard(s *Session, actorID, cardID string) *shared.Rejection {
	if s.GameOver {
		return shared.Reject(shared.CodeGameOver, "the game is over")
	}
	if s.Stage != StagePlaying {
		return shared.Reject(shared.CodeNotPlaying, "the game has not started yet")
	}
	p := s.Player(actorID)
	if p == nil {
		return shared.Reject(shared.CodeNotInGame, "player is not in this game")
	}
	if p.handIndex(cardID) < 0 {
		return shared.Reject(shared.CodeCardNotInHand, "card is not in your hand")
	}
	return nil
}

func ValidateEndTurn(s *Session, actorID string) *shared.Rejection {
	p, rej := turnGate(s, actorID)
	if rej != nil {
		return rej
	}
	if len(p.Hand) > s.rules.HandLimit {
		return shared.Reject(shared.CodeHandLimit,
			fmt.Sprintf("discard down to %d cards before ending your turn", s.rules.HandLimit))
	}
	return nil
}

func ValidateTransmute(s *Session, actorID string, cardIDs []string) *shared.Rejection {
	p, rej := turnGate(s, actorID)
	if rej != nil {
		return rej
	}
	if _, ok := p.passive(PassiveTransmute); !ok {
		return shared.Reject(shared.CodeNoAbility, "your character cannot transmute")
	}
	if s.AbilityUsed {
		return shared.Reject(shared.CodeAbilityUsed, "you already transmuted this turn")
	}
	if len(cardIDs) != 2 || cardIDs[0] == cardIDs[1] {
		return shared.Reject(shared.CodeInvalidCards, "pick two different cards to transmute")
	}
	for _, id := range cardIDs {
		if p.handIndex(id) < 0 {
			return shared.Reject(shared.CodeCardNotInHand, "card is not in your hand")
		}
	}
	return nil
}

func ValidateQuestSelect(s *Session, actorID, questID string) *shared.Rejection {
	if s.GameOver {
		return shared.Reject(shared.CodeGameOver, "the game is over")
	}
	p := s.Player(actorID)
	if p == nil {
		return shared.Reject(shared.CodeNotInGame, "player is not in this game")
	}
	if p.Quest != nil {
		return shared.Reject(shared.CodeQuestHeld, "you already hold a quest")
	}
	if s.Stage != StageQuestSelection {
		return shared.Reject(shared.CodeWrongPhase, "quest selection is closed")
	}
	for _, id := range s.QuestOptions[actorID] {
		if id == questID {
			return nil
		}
	}
	return shared.Reject(shared.CodeQuestNotOffered, "that quest was not offered to you")
}
