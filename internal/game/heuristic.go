package game

// Weights tune the computer player.
type Weights struct {
	Kill       int `mapstructure:"kill"`
	Damage     int `mapstructure:"damage"`
	Heal       int `mapstructure:"heal"`
	Armor      int `mapstructure:"armor"`
	Buff       int `mapstructure:"buff"`
	Trap       int `mapstructure:"trap"`
	Draw       int `mapstructure:"draw"`
	QuestMatch int `mapstructure:"quest_match"`
	SelfHarm   int `mapstructure:"self_harm"`
}

func DefaultWeights() Weights {
	return Weights{
		Kill:       1000,
		Damage:     10,
		Heal:       8,
		Armor:      6,
		Buff:       12,
		Trap:       25,
		Draw:       15,
		QuestMatch: 40,
		SelfHarm:   15,
	}
}

// conditionsFor lists the quest conditions a card kind can push forward.
var conditionsFor = map[Kind][]Condition{
	KindAttack: {CondPlayAttack, CondDealDamage, CondCriticalHit, CondKillPlayer, CondFirstBlood},
	KindHeal:   {CondPlayHeal, CondHealHP},
	KindArmor:  {CondPlayArmor, CondHaveArmor},
	KindBuff:   {CondPlayBuff, CondActiveBuffs},
	KindSpell:  {CondPlaySpell, CondSpellDamage, CondDrawCards},
	KindTrap:   {CondPlayTrap, CondTriggerTrap},
}

func questWants(p *Player, k Kind) bool {
	if p.Quest == nil {
		return false
	}
	for _, want := range conditionsFor[k] {
		for i, qc := range p.Quest.Conditions {
			if qc.Type == want && p.Progress[i] < qc.Target {
				return true
			}
		}
	}
	return false
}

// HeuristicScore rates a legal move for the acting player using only what
// that player is allowed to know. Higher is better.
func HeuristicScore(s *Session, m Move, w Weights) int {
	p := s.CurrentPlayer()
	if p == nil {
		return 0
	}
	i := p.handIndex(m.CardID)
	if i < 0 {
		return 0
	}
	card := p.Hand[i]
	score := 0
	if questWants(p, card.Kind()) {
		score += w.QuestMatch
	}

	t := s.Player(m.TargetID)
	switch c := card.(type) {
	case AttackCard:
		dmg := expectedAttack(p, c)
		if s.Trap != nil {
			// the owner is hidden, so any target might be holding it
			dmg = dmg * 3 / 4
		}
		through := dmg - t.Armor
		if through < 0 {
			through = 0
		}
		score += through * w.Damage
		if through >= t.HP {
			score += w.Kill
		}
		if n := s.nemesisOf(p); n != nil && n == t {
			score += w.Damage
		}
	case SpellCard:
		switch c.Effect {
		case SpellDamage:
			if !t.hasBuff(BuffSpellImmunity) {
				score += c.Value * w.Damage
				if c.Value >= t.HP {
					score += w.Kill
				}
			}
		case SpellDraw:
			score += c.Value * w.Draw
		case SpellDestroyTrap:
			if s.Trap != nil && s.Trap.OwnerID != p.ID {
				score += w.Trap / (s.aliveCount() - 1)
			}
		}
	case HealCard:
		missing := p.MaxHP - p.HP
		if missing > c.Amount {
			missing = c.Amount
		}
		score += missing * w.Heal
	case ArmorCard:
		score += c.Amount * w.Armor
	case BuffCard:
		score += c.Value * c.Duration * w.Buff / 2
	case TrapCard:
		score += w.Trap
	case RareCard:
		switch c.Effect {
		case RareHealFull:
			score += (p.MaxHP - p.HP) * w.Heal
		case RareDamageAll:
			if p.HP <= c.Value {
				return -w.Kill
			}
			for _, q := range s.Players {
				if q != p && q.Alive {
					score += c.Value * w.Damage / 2
				}
			}
			score -= c.Value * w.SelfHarm
		case RareShuffleQuests:
			score -= p.QuestPercent() * w.QuestMatch / 100
		}
	}
	return score
}

// cardValue is how much a card is worth keeping, used to pick discards.
func cardValue(p *Player, c Card, w Weights) int {
	v := 0
	if questWants(p, c.Kind()) {
		v += w.QuestMatch
	}
	switch c := c.(type) {
	case AttackCard:
		v += (p.ATK + c.Bonus) * w.Damage
	case HealCard:
		v += c.Amount * w.Heal
	case ArmorCard:
		v += c.Amount * w.Armor
	case BuffCard:
		v += c.Value * w.Buff
	case SpellCard:
		v += c.Value*w.Damage + w.Draw
	case TrapCard:
		v += w.Trap
	case RareCard:
		v += w.Trap * 2
	}
	return v
}

// BestMove picks the highest scoring legal move. It returns false when no
// move is legal or every move scores below zero.
func BestMove(s *Session, playerID string, w Weights) (Move, bool) {
	moves := GenerateLegalMoves(s, playerID)
	best := Move{}
	bestScore := -1
	for _, m := range moves {
		if sc := HeuristicScore(s, m, w); sc > bestScore {
			best, bestScore = m, sc
		}
	}
	return best, bestScore >= 0
}
