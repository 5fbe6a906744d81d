package game

// Kind tags the closed set of playable card variants.
type Kind string

const (
	KindAttack Kind = "attack"
	KindHeal   Kind = "heal"
	KindArmor  Kind = "armor"
	KindBuff   Kind = "buff"
	KindSpell  Kind = "spell"
	KindTrap   Kind = "trap"
	KindRare   Kind = "rare"
)

// Target describes who a card may be aimed at.
type Target string

const (
	TargetSelf  Target = "self"
	TargetEnemy Target = "enemy"
	TargetNone  Target = "none"
)

// CardInfo is the identity shared by every card variant.
type CardInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Card is implemented only by the variant structs in this package.
type Card interface {
	Info() CardInfo
	Kind() Kind
	Target() Target
	isCard()
}

type AttackCard struct {
	CardInfo
	Value int // printed damage with base ATK
	Bonus int // added on top of the attacker's ATK
}

type HealCard struct {
	CardInfo
	Amount int
}

type ArmorCard struct {
	CardInfo
	Amount int
}

type BuffCard struct {
	CardInfo
	Buff     BuffKind
	Value    int
	Duration int
}

type SpellEffect string

const (
	SpellDamage      SpellEffect = "spell_damage"
	SpellDraw        SpellEffect = "draw"
	SpellDestroyTrap SpellEffect = "destroy_trap"
)

type SpellCard struct {
	CardInfo
	Effect  SpellEffect
	Value   int
	Targets Target
}

type TrapTrigger string

const (
	TriggerOnAttack TrapTrigger = "on_attack"
	TriggerOnSpell  TrapTrigger = "on_spell"
)

type TrapEffect string

const (
	TrapReflectDamage TrapEffect = "reflect_damage"
	TrapReflectAll    TrapEffect = "reflect_all"
	TrapStealSpell    TrapEffect = "steal_spell"
)

type TrapCard struct {
	CardInfo
	Trigger TrapTrigger
	Effect  TrapEffect
	Value   int
}

type RareEffect string

const (
	RareShuffleQuests RareEffect = "shuffle_quests"
	RareDamageAll     RareEffect = "damage_all"
	RareHealFull      RareEffect = "heal_full"
)

type RareCard struct {
	CardInfo
	Effect RareEffect
	Value  int
	Chaos  bool
}

func (c AttackCard) Info() CardInfo { return c.CardInfo }
func (c HealCard) Info() CardInfo   { return c.CardInfo }
func (c ArmorCard) Info() CardInfo  { return c.CardInfo }
func (c BuffCard) Info() CardInfo   { return c.CardInfo }
func (c SpellCard) Info() CardInfo  { return c.CardInfo }
func (c TrapCard) Info() CardInfo   { return c.CardInfo }
func (c RareCard) Info() CardInfo   { return c.CardInfo }

func (AttackCard) Kind() Kind { return KindAttack }
func (HealCard) Kind() Kind   { return KindHeal }
func (ArmorCard) Kind() Kind  { return KindArmor }
func (BuffCard) Kind() Kind   { return KindBuff }
func (SpellCard) Kind() Kind  { return KindSpell }
func (TrapCard) Kind() Kind   { return KindTrap }
func (RareCard) Kind() Kind   { return KindRare }

func (AttackCard) Target() Target  { return TargetEnemy }
func (HealCard) Target() Target    { return TargetSelf }
func (ArmorCard) Target() Target   { return TargetSelf }
func (BuffCard) Target() Target    { return TargetSelf }
func (c SpellCard) Target() Target { return c.Targets }
func (TrapCard) Target() Target    { return TargetNone }
func (RareCard) Target() Target    { return TargetNone }

func (AttackCard) isCard() {}
func (HealCard) isCard()   {}
func (ArmorCard) isCard()  {}
func (BuffCard) isCard()   {}
func (SpellCard) isCard()  {}
func (TrapCard) isCard()   {}
func (RareCard) isCard()   {}

// BuffKind identifies a timed modifier.
type BuffKind string

const (
	BuffATKBoost         BuffKind = "atk_boost"
	BuffArmorBoost       BuffKind = "armor_boost"
	BuffSpellImmunity    BuffKind = "spell_immunity"
	BuffGuaranteedHit    BuffKind = "guaranteed_hit"
	BuffDamageReflection BuffKind = "damage_reflection"
	BuffHealBlock        BuffKind = "heal_block"
)

// Buff is attached to a player. Remaining of -1 never expires.
type Buff struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Kind      BuffKind `json:"kind"`
	Value     int      `json:"value"`
	Remaining int      `json:"remaining"`
	Source    string   `json:"source"`
}

type PassiveKind string

const (
	PassiveArmorOnAttack PassiveKind = "gain_armor"
	PassiveSpellBoost    PassiveKind = "spell_damage_boost"
	PassiveCritBoost     PassiveKind = "crit_damage_boost"
	PassiveHealBoost     PassiveKind = "heal_boost"
	PassiveStartArmor    PassiveKind = "start_armor"
	PassiveLifesteal     PassiveKind = "lifesteal"
	PassiveRerollOne     PassiveKind = "reroll_miss_1"
	PassiveRegen         PassiveKind = "regen"
	PassiveLowHPAttack   PassiveKind = "low_hp_atk"
	PassiveMaxHPGain     PassiveKind = "max_hp_gain"
	PassiveDodge         PassiveKind = "dodge_chance"
	PassiveBallad        PassiveKind = "draw_discard"
	PassiveTransmute     PassiveKind = "transmute"
)

type Passive struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Kind        PassiveKind `json:"kind"`
	Value       int         `json:"value"`
}

type Character struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Passive Passive `json:"passive"`
}

// Condition is the measurable event a quest counts.
type Condition string

const (
	CondDealDamage       Condition = "deal_damage"
	CondKillPlayer       Condition = "kill_player"
	CondSpellDamage      Condition = "spell_damage"
	CondCriticalHit      Condition = "critical_hit"
	CondPlayersRemaining Condition = "players_remaining"
	CondHaveArmor        Condition = "have_armor"
	CondHealHP           Condition = "heal_hp"
	CondTakeDamage       Condition = "take_damage"
	CondDrawCards        Condition = "draw_cards"
	CondTriggerTrap      Condition = "trigger_trap"
	CondActiveBuffs      Condition = "active_buffs"
	CondPeacefulTurns    Condition = "peaceful_turns"
	CondDamageNemesis    Condition = "damage_nemesis"
	CondSameTypeHand     Condition = "same_type_hand"
	CondPlayAttack       Condition = "play_attack"
	CondPlayHeal         Condition = "play_heal"
	CondPlayArmor        Condition = "play_armor"
	CondPlayBuff         Condition = "play_buff"
	CondPlaySpell        Condition = "play_spell"
	CondPlayTrap         Condition = "play_trap"
	CondWitnessDeath     Condition = "witness_death"
	CondKillAttacker     Condition = "kill_attacker"
	CondFirstBlood       Condition = "first_blood"
	CondDiscardCards     Condition = "discard_cards"
	CondUsePassive       Condition = "use_passive"
	CondKillLeader       Condition = "kill_leader"
	CondEmptyHand        Condition = "empty_hand"
	CondLastStand        Condition = "last_stand"
)

type QuestCondition struct {
	Type        Condition `json:"type"`
	Description string    `json:"description"`
	Target      int       `json:"target"`
}

type Quest struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Conditions  []QuestCondition `json:"conditions"`
}

// Player is the in-game entity, distinct from room membership.
type Player struct {
	ID        string
	Name      string
	Character *Character
	HP        int
	MaxHP     int
	ATK       int
	Armor     int
	Hand      []Card
	Quest     *Quest
	Progress  []int
	Complete  bool
	Buffs     []Buff
	Alive     bool

	damagedBy   map[string]bool
	dealtDamage bool
	// owed is how many cards a Ballad draw still expects back this turn.
	owed int
}

func (p *Player) passive(kind PassiveKind) (Passive, bool) {
	if p.Character == nil || p.Character.Passive.Kind != kind {
		return Passive{}, false
	}
	return p.Character.Passive, true
}

func (p *Player) hasBuff(kind BuffKind) bool {
	_, ok := p.buff(kind)
	return ok
}

func (p *Player) buff(kind BuffKind) (Buff, bool) {
	for _, b := range p.Buffs {
		if b.Kind == kind {
			return b, true
		}
	}
	return Buff{}, false
}

func (p *Player) buffTotal(kind BuffKind) int {
	total := 0
	for _, b := range p.Buffs {
		if b.Kind == kind {
			total += b.Value
		}
	}
	return total
}

func (p *Player) handIndex(cardID string) int {
	for i, c := range p.Hand {
		if c.Info().ID == cardID {
			return i
		}
	}
	return -1
}

func (p *Player) takeFromHand(i int) Card {
	c := p.Hand[i]
	p.Hand = append(p.Hand[:i:i], p.Hand[i+1:]...)
	return c
}

// Phase is the step within one player's turn.
type Phase string

const (
	PhaseDraw   Phase = "draw"
	PhaseAction Phase = "action"
	PhaseEnd    Phase = "end"
)

// Stage is the session-wide lifecycle, mirrored into the room status.
type Stage string

const (
	StageQuestSelection Stage = "quest_selection"
	StagePlaying        Stage = "playing"
	StageFinished       Stage = "finished"
)

// ActiveTrap is the single face-down card on the table.
type ActiveTrap struct {
	Card    TrapCard
	OwnerID string
}
