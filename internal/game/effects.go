package game

import (
	"fmt"

	"github.com/google/uuid"
)

// EffectResult is what a resolved card did. The numeric fields drive quest
// progress and win checks; Message is for people.
type EffectResult struct {
	Message       string      `json:"message"`
	Roll          int         `json:"roll,omitempty"`
	Outcome       DiceOutcome `json:"outcome,omitempty"`
	Damage        int         `json:"damage,omitempty"`
	Healed        int         `json:"healed,omitempty"`
	ArmorGained   int         `json:"armorGained,omitempty"`
	CardsDrawn    int         `json:"cardsDrawn,omitempty"`
	Reflected     int         `json:"reflected,omitempty"`
	Dodged        bool        `json:"dodged,omitempty"`
	TrapTriggered string      `json:"trapTriggered,omitempty"`
	Killed        []string    `json:"killed,omitempty"`

	drawn []Card
}

// resolve dispatches a played card by kind. The card has already left the
// owner's hand; resolve decides where it ends up.
func (s *Session) resolve(card Card, owner, target *Player) EffectResult {
	switch c := card.(type) {
	case AttackCard:
		s.Deck.Discard(c)
		return s.resolveAttack(c, owner, target)
	case HealCard:
		s.Deck.Discard(c)
		return s.resolveHeal(c, owner)
	case ArmorCard:
		s.Deck.Discard(c)
		owner.Armor += c.Amount
		return EffectResult{
			Message:     fmt.Sprintf("%s gained %d armor", owner.Name, c.Amount),
			ArmorGained: c.Amount,
		}
	case BuffCard:
		s.Deck.Discard(c)
		return s.resolveBuff(c, owner)
	case SpellCard:
		return s.resolveSpell(c, owner, target)
	case TrapCard:
		s.Trap = &ActiveTrap{Card: c, OwnerID: owner.ID}
		return EffectResult{Message: owner.Name + " set a trap"}
	case RareCard:
		s.Deck.Discard(c)
		return s.resolveRare(c, owner)
	}
	return EffectResult{Message: "nothing happened"}
}

func (s *Session) resolveAttack(c AttackCard, p, t *Player) EffectResult {
	res := EffectResult{}
	roll := s.rollAttack(p)
	res.Roll = roll
	res.Outcome = Classify(roll)
	if res.Outcome == OutcomeMiss && p.hasBuff(BuffGuaranteedHit) {
		res.Outcome = OutcomeHit
	}
	defer s.shieldBash(p)

	if res.Outcome == OutcomeMiss {
		res.Message = fmt.Sprintf("%s rolled %d and missed %s", p.Name, roll, t.Name)
		return res
	}
	dmg := s.hitDamage(p, c, res.Outcome)
	if res.Outcome == OutcomeCritical {
		s.Record(p, CondCriticalHit, 1)
	}

	if pv, ok := t.passive(PassiveDodge); ok && s.rng.Intn(100) < pv.Value {
		s.Record(t, CondUsePassive, 1)
		res.Dodged = true
		res.Message = fmt.Sprintf("%s dodged %s's attack", t.Name, p.Name)
		return res
	}

	if trap := s.Trap; trap != nil && trap.OwnerID == t.ID && trap.Card.Trigger == TriggerOnAttack {
		s.Trap = nil
		s.Deck.Discard(trap.Card)
		s.Record(t, CondTriggerTrap, 1)
		back := trap.Card.Value
		if trap.Card.Effect == TrapReflectAll {
			back = dmg
		}
		res.TrapTriggered = trap.Card.Name
		res.Reflected = s.hurt(t, p, back, true)
		res.Message = fmt.Sprintf("%s triggered %s: %s took %d damage", t.Name, trap.Card.Name, p.Name, res.Reflected)
		return res
	}

	if b, ok := t.buff(BuffDamageReflection); ok {
		back := b.Value
		if back <= 0 {
			back = dmg
		}
		res.Reflected = s.hurt(t, p, back, true)
		res.Message = fmt.Sprintf("attack reflected: %s took %d damage", p.Name, res.Reflected)
		return res
	}

	res.Damage = s.hurt(p, t, dmg, true)
	if res.Outcome == OutcomeCritical {
		res.Message = fmt.Sprintf("critical hit! %s dealt %d damage to %s", p.Name, res.Damage, t.Name)
	} else {
		res.Message = fmt.Sprintf("%s dealt %d damage to %s", p.Name, res.Damage, t.Name)
	}
	return res
}

// shieldBash is the Warrior passive, applied after every attack.
func (s *Session) shieldBash(p *Player) {
	if pv, ok := p.passive(PassiveArmorOnAttack); ok && p.Alive && p.HP > 0 {
		p.Armor += pv.Value
		s.Record(p, CondUsePassive, 1)
	}
}

func (s *Session) resolveHeal(c HealCard, p *Player) EffectResult {
	amount := c.Amount
	if pv, ok := p.passive(PassiveHealBoost); ok {
		amount += pv.Value
		s.Record(p, CondUsePassive, 1)
	}
	healed := heal(p, amount)
	s.Record(p, CondHealHP, healed)
	return EffectResult{
		Message: fmt.Sprintf("%s healed %d HP", p.Name, healed),
		Healed:  healed,
	}
}

func (s *Session) resolveBuff(c BuffCard, p *Player) EffectResult {
	dur := c.Duration
	if dur == 0 {
		dur = s.rules.BuffDuration
	}
	p.Buffs = append(p.Buffs, Buff{
		ID:        uuid.NewString(),
		Name:      c.Name,
		Kind:      c.Buff,
		Value:     c.Value,
		Remaining: dur,
		Source:    c.ID,
	})
	return EffectResult{Message: fmt.Sprintf("%s applied %s", p.Name, c.Name)}
}

func (s *Session) resolveSpell(c SpellCard, p, t *Player) EffectResult {
	if trap := s.Trap; trap != nil && trap.OwnerID != p.ID && trap.Card.Trigger == TriggerOnSpell {
		thief := s.Player(trap.OwnerID)
		s.Trap = nil
		s.Deck.Discard(trap.Card)
		thief.Hand = append(thief.Hand, c)
		s.Record(thief, CondTriggerTrap, 1)
		return EffectResult{
			TrapTriggered: trap.Card.Name,
			Message:       fmt.Sprintf("%s was stolen by %s", c.Name, trap.Card.Name),
		}
	}
	s.Deck.Discard(c)

	switch c.Effect {
	case SpellDamage:
		if t.hasBuff(BuffSpellImmunity) {
			return EffectResult{Message: t.Name + " is immune to spells"}
		}
		dmg := c.Value
		if pv, ok := p.passive(PassiveSpellBoost); ok {
			dmg += pv.Value
			s.Record(p, CondUsePassive, 1)
		}
		loss := s.hurt(p, t, dmg, false)
		s.Record(p, CondSpellDamage, loss)
		return EffectResult{
			Message: fmt.Sprintf("%s dealt %d damage to %s", c.Name, loss, t.Name),
			Damage:  loss,
		}
	case SpellDraw:
		drawn := s.drawInto(p, c.Value)
		return EffectResult{
			Message:    fmt.Sprintf("%s drew %d cards", p.Name, len(drawn)),
			CardsDrawn: len(drawn),
			drawn:      drawn,
		}
	case SpellDestroyTrap:
		if s.Trap != nil && s.Trap.OwnerID == t.ID {
			name := s.Trap.Card.Name
			s.Deck.Discard(s.Trap.Card)
			s.Trap = nil
			return EffectResult{Message: fmt.Sprintf("%s destroyed %s's %s", c.Name, t.Name, name)}
		}
		return EffectResult{Message: fmt.Sprintf("%s found no trap on %s", c.Name, t.Name)}
	}
	return EffectResult{Message: p.Name + " cast " + c.Name}
}

func (s *Session) resolveRare(c RareCard, p *Player) EffectResult {
	switch c.Effect {
	case RareDamageAll:
		total := 0
		for _, q := range s.Players {
			if q.Alive {
				total += s.hurt(p, q, c.Value, true)
			}
		}
		return EffectResult{
			Message: fmt.Sprintf("%s: every player takes %d damage", c.Name, c.Value),
			Damage:  total,
		}
	case RareShuffleQuests:
		s.shuffleQuests()
		return EffectResult{Message: c.Name + ": every quest has been replaced"}
	case RareHealFull:
		healed := heal(p, p.MaxHP)
		s.Record(p, CondHealHP, healed)
		return EffectResult{
			Message: fmt.Sprintf("%s: %s is fully healed", c.Name, p.Name),
			Healed:  healed,
		}
	}
	return EffectResult{Message: p.Name + " used " + c.Name}
}
