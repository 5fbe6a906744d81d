package game

const berserkThreshold = 15

// rollAttack rolls the attack die. A Ranger re-rolls a natural 1 once.
func (s *Session) rollAttack(p *Player) int {
	roll := s.dice.Roll()
	if roll == 1 {
		if _, ok := p.passive(PassiveRerollOne); ok {
			s.Record(p, CondUsePassive, 1)
			roll = s.dice.Roll()
		}
	}
	return roll
}

// hitDamage is the pre-armor damage of a landed attack.
func (s *Session) hitDamage(p *Player, c AttackCard, outcome DiceOutcome) int {
	dmg := p.ATK + c.Bonus + p.buffTotal(BuffATKBoost)
	if pv, ok := p.passive(PassiveLowHPAttack); ok && p.HP < berserkThreshold {
		dmg += pv.Value
		s.Record(p, CondUsePassive, 1)
	}
	if outcome == OutcomeCritical {
		if _, ok := p.passive(PassiveCritBoost); ok {
			s.Record(p, CondUsePassive, 1)
			return dmg * 5 / 2
		}
		return dmg * 2
	}
	return dmg
}

// absorb runs raw damage through armor and returns the hp that would be lost.
// Armor is consumed by the raw amount, not by what got through.
func absorb(t *Player, dmg int) int {
	loss := dmg - t.Armor
	if loss < 0 {
		loss = 0
	}
	t.Armor -= dmg
	if t.Armor < 0 {
		t.Armor = 0
	}
	return loss
}

// heal restores hp up to max and returns the amount actually restored.
func heal(p *Player, amount int) int {
	if amount <= 0 || !p.Alive || p.hasBuff(BuffHealBlock) {
		return 0
	}
	before := p.HP
	p.HP += amount
	if p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	return p.HP - before
}

// hurt applies dmg from src to dst and records every quest signal the hit
// produces. src may be nil for sourceless damage. Deaths are settled later by
// settleDeaths so a multi-target effect lands on everyone first.
func (s *Session) hurt(src, dst *Player, dmg int, armored bool) int {
	if dmg <= 0 || !dst.Alive || dst.HP == 0 {
		return 0
	}
	loss := dmg
	if armored {
		loss = absorb(dst, dmg)
	}
	if loss > dst.HP {
		loss = dst.HP
	}
	if loss == 0 {
		return 0
	}
	dst.HP -= loss
	s.Record(dst, CondTakeDamage, loss)

	if src != nil && src != dst {
		src.dealtDamage = true
		if dst.damagedBy == nil {
			dst.damagedBy = make(map[string]bool)
		}
		dst.damagedBy[src.ID] = true
		s.Record(src, CondDealDamage, loss)
		if n := s.nemesisOf(src); n != nil && n.ID == dst.ID {
			s.Record(src, CondDamageNemesis, loss)
		}
		if !s.FirstBlood {
			s.FirstBlood = true
			s.Record(src, CondFirstBlood, 1)
		}
		if pv, ok := src.passive(PassiveLifesteal); ok && src.HP > 0 {
			if heal(src, pv.Value) > 0 {
				s.Record(src, CondUsePassive, 1)
			}
		}
	}

	for _, q := range s.Players {
		if q == dst || !q.Alive || q.HP == 0 {
			continue
		}
		if pv, ok := q.passive(PassiveMaxHPGain); ok {
			q.MaxHP += pv.Value
			s.Record(q, CondUsePassive, 1)
		}
	}
	return loss
}

// nemesisOf is the next player after p in turn order.
func (s *Session) nemesisOf(p *Player) *Player {
	for i, id := range s.TurnOrder {
		if id == p.ID {
			return s.Player(s.TurnOrder[(i+1)%len(s.TurnOrder)])
		}
	}
	return nil
}

// leaders are the living players tied for the highest hp.
func (s *Session) leaders() map[string]bool {
	best := 0
	for _, p := range s.Players {
		if p.Alive && p.HP > best {
			best = p.HP
		}
	}
	out := make(map[string]bool)
	for _, p := range s.Players {
		if p.Alive && p.HP == best {
			out[p.ID] = true
		}
	}
	return out
}

// settleDeaths flips every player at 0 hp to not-alive and hands out the kill
// signals. leaders is the leader set taken before the effect was applied.
func (s *Session) settleDeaths(killer *Player, leaders map[string]bool) []string {
	var dead []*Player
	for _, p := range s.Players {
		if p.Alive && p.HP == 0 {
			p.Alive = false
			p.Buffs = nil
			dead = append(dead, p)
		}
	}
	if len(dead) == 0 {
		return nil
	}

	ids := make([]string, 0, len(dead))
	for _, d := range dead {
		ids = append(ids, d.ID)
		if s.Trap != nil && s.Trap.OwnerID == d.ID {
			s.Deck.Discard(s.Trap.Card)
			s.Trap = nil
		}
		if killer != nil && killer != d {
			s.Record(killer, CondKillPlayer, 1)
			if killer.damagedBy[d.ID] {
				s.Record(killer, CondKillAttacker, 1)
			}
			if leaders[d.ID] {
				s.Record(killer, CondKillLeader, 1)
			}
		}
		for _, w := range s.Players {
			if w.Alive {
				s.Record(w, CondWitnessDeath, 1)
			}
		}
	}
	return ids
}
