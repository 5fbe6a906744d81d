package game

// Move is one legal card play.
type Move struct {
	CardID   string `json:"cardId"`
	TargetID string `json:"targetId,omitempty"`
}

// GenerateLegalMoves lists every play the validator would accept right now.
func GenerateLegalMoves(s *Session, playerID string) []Move {
	p := s.Player(playerID)
	if p == nil {
		return nil
	}
	var moves []Move
	for _, c := range p.Hand {
		id := c.Info().ID
		if c.Target() != TargetEnemy {
			if ValidatePlay(s, playerID, id, "") == nil {
				moves = append(moves, Move{CardID: id})
			}
			continue
		}
		for _, t := range s.Players {
			if ValidatePlay(s, playerID, id, t.ID) == nil {
				moves = append(moves, Move{CardID: id, TargetID: t.ID})
			}
		}
	}
	return moves
}

// expectedAttack is the average pre-armor damage of an attack card over the
// d8 bands, without touching quest progress.
func expectedAttack(p *Player, c AttackCard) int {
	dmg := p.ATK + c.Bonus + p.buffTotal(BuffATKBoost)
	if pv, ok := p.passive(PassiveLowHPAttack); ok && p.HP < berserkThreshold {
		dmg += pv.Value
	}
	// 5 hit faces, 1 critical face at double
	return dmg * 7 / 8
}

// PlayAutoTurn drives a whole turn for a computer seat: draw, play the best
// scoring move, discard down to the hand limit and end the turn.
func PlayAutoTurn(s *Session, playerID string, w Weights) []Outcome {
	var outs []Outcome
	if s.Phase == PhaseDraw && ValidateDraw(s, playerID) == nil {
		outs = append(outs, s.Draw(playerID))
	}
	if s.GameOver {
		return outs
	}
	if m, ok := BestMove(s, playerID, w); ok {
		outs = append(outs, s.PlayCard(playerID, m.CardID, m.TargetID))
	}
	if s.GameOver || s.CurrentPlayer() == nil || s.CurrentPlayer().ID != playerID {
		return outs
	}
	p := s.Player(playerID)
	for len(p.Hand) > s.rules.HandLimit || (p.owed > 0 && len(p.Hand) > 0) {
		outs = append(outs, s.Discard(playerID, worstCard(p, w).Info().ID))
	}
	outs = append(outs, s.EndTurn(playerID))
	return outs
}

func worstCard(p *Player, w Weights) Card {
	worst := p.Hand[0]
	best := cardValue(p, worst, w)
	for _, c := range p.Hand[1:] {
		if v := cardValue(p, c, w); v < best {
			worst, best = c, v
		}
	}
	return worst
}
