package game

import (
	"fmt"
	"sort"
)

// Catalog is the static card, quest and character data a session draws from.
type Catalog struct {
	Cards      []Card
	Quests     []Quest
	Characters []Character

	cards  map[string]Card
	quests map[string]*Quest
	chars  map[string]*Character
}

func NewCatalog(cards []Card, quests []Quest, chars []Character) *Catalog {
	c := &Catalog{
		Cards:      cards,
		Quests:     quests,
		Characters: chars,
		cards:      make(map[string]Card, len(cards)),
		quests:     make(map[string]*Quest, len(quests)),
		chars:      make(map[string]*Character, len(chars)),
	}
	for _, card := range cards {
		c.cards[card.Info().ID] = card
	}
	for i := range quests {
		c.quests[quests[i].ID] = &c.Quests[i]
	}
	for i := range chars {
		c.chars[chars[i].ID] = &c.Characters[i]
	}
	return c
}

func (c *Catalog) Card(id string) (Card, bool) {
	card, ok := c.cards[id]
	return card, ok
}

func (c *Catalog) Quest(id string) (*Quest, bool) {
	q, ok := c.quests[id]
	return q, ok
}

func (c *Catalog) Character(id string) (*Character, bool) {
	ch, ok := c.chars[id]
	return ch, ok
}

// QuestIDs returns the quest ids in a stable order.
func (c *Catalog) QuestIDs() []string {
	ids := make([]string, 0, len(c.Quests))
	for _, q := range c.Quests {
		ids = append(ids, q.ID)
	}
	sort.Strings(ids)
	return ids
}

var defaultCatalog = NewCatalog(defaultCards(), defaultQuests(), defaultCharacters())

// DefaultCatalog is the built-in 54 card deck with its quests and characters.
func DefaultCatalog() *Catalog { return defaultCatalog }

func copies(prefix string, n int, mk func(info CardInfo) Card) []Card {
	out := make([]Card, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, mk(CardInfo{ID: fmt.Sprintf("%s_%d", prefix, i)}))
	}
	return out
}

func named(info CardInfo, name, desc string) CardInfo {
	info.Name = name
	info.Description = desc
	return info
}

func defaultCards() []Card {
	var deck []Card

	// attacks: 12
	deck = append(deck, copies("atk_strike", 8, func(i CardInfo) Card {
		return AttackCard{CardInfo: named(i, "Strike", "Deal 4 damage."), Value: 4, Bonus: 0}
	})...)
	deck = append(deck, copies("atk_heavy", 4, func(i CardInfo) Card {
		return AttackCard{CardInfo: named(i, "Heavy Swing", "Deal 7 damage."), Value: 7, Bonus: 3}
	})...)

	// heals: 8
	deck = append(deck, copies("heal_potion", 4, func(i CardInfo) Card {
		return HealCard{CardInfo: named(i, "Health Potion", "Heal 5 HP."), Amount: 5}
	})...)
	deck = append(deck, copies("heal_great", 4, func(i CardInfo) Card {
		return HealCard{CardInfo: named(i, "Greater Potion", "Heal 10 HP."), Amount: 10}
	})...)

	// armor: 5
	deck = append(deck, copies("armor_buckler", 3, func(i CardInfo) Card {
		return ArmorCard{CardInfo: named(i, "Buckler", "Gain 3 Armor."), Amount: 3}
	})...)
	deck = append(deck, copies("armor_plate", 2, func(i CardInfo) Card {
		return ArmorCard{CardInfo: named(i, "Plate Mail", "Gain 6 Armor."), Amount: 6}
	})...)

	// buffs: 6
	deck = append(deck, copies("buff_sharpen", 3, func(i CardInfo) Card {
		return BuffCard{CardInfo: named(i, "Sharpen", "+2 ATK for 3 turns."), Buff: BuffATKBoost, Value: 2, Duration: 3}
	})...)
	deck = append(deck, copies("buff_stone", 3, func(i CardInfo) Card {
		return BuffCard{CardInfo: named(i, "Stone Skin", "Gain +2 Armor every turn start for 3 turns."), Buff: BuffArmorBoost, Value: 2, Duration: 3}
	})...)

	// spells: 9
	deck = append(deck, copies("spell_fireball", 3, func(i CardInfo) Card {
		return SpellCard{CardInfo: named(i, "Fireball", "Deal 8 damage (ignores armor)."), Effect: SpellDamage, Value: 8, Targets: TargetEnemy}
	})...)
	deck = append(deck, copies("spell_zap", 3, func(i CardInfo) Card {
		return SpellCard{CardInfo: named(i, "Lightning Zap", "Destroy the target's trap if one is set."), Effect: SpellDestroyTrap, Targets: TargetEnemy}
	})...)
	deck = append(deck, copies("spell_greed", 3, func(i CardInfo) Card {
		return SpellCard{CardInfo: named(i, "Pot of Greed", "Draw 2 cards."), Effect: SpellDraw, Value: 2, Targets: TargetSelf}
	})...)

	// traps: 9
	deck = append(deck, copies("trap_counter", 3, func(i CardInfo) Card {
		return TrapCard{CardInfo: named(i, "Counter Attack", "When attacked, deal 4 damage back."), Trigger: TriggerOnAttack, Effect: TrapReflectDamage, Value: 4}
	})...)
	deck = append(deck, copies("trap_mirror", 3, func(i CardInfo) Card {
		return TrapCard{CardInfo: named(i, "Mirror Force", "Reflect all damage back to attacker."), Trigger: TriggerOnAttack, Effect: TrapReflectAll}
	})...)
	deck = append(deck, copies("trap_thief", 3, func(i CardInfo) Card {
		return TrapCard{CardInfo: named(i, "Mana Thief", "When an opponent plays a Spell, steal it."), Trigger: TriggerOnSpell, Effect: TrapStealSpell}
	})...)

	// rares: 5
	deck = append(deck, copies("rare_chaos", 2, func(i CardInfo) Card {
		return RareCard{CardInfo: named(i, "Chaos Warp", "Shuffle everyone's quests and deal new ones."), Effect: RareShuffleQuests, Chaos: true}
	})...)
	deck = append(deck, copies("rare_doom", 1, func(i CardInfo) Card {
		return RareCard{CardInfo: named(i, "Doomsday", "Deal 10 damage to ALL players (including self)."), Effect: RareDamageAll, Value: 10, Chaos: true}
	})...)
	deck = append(deck, copies("rare_miracle", 2, func(i CardInfo) Card {
		return RareCard{CardInfo: named(i, "Miracle", "Fully restore HP."), Effect: RareHealFull}
	})...)

	return deck
}

func quest(id, name, desc string, conds ...QuestCondition) Quest {
	return Quest{ID: id, Name: name, Description: desc, Conditions: conds}
}

func cond(t Condition, desc string, target int) QuestCondition {
	return QuestCondition{Type: t, Description: desc, Target: target}
}

func defaultQuests() []Quest {
	return []Quest{
		quest("quest_01", "Bloodthirsty", "Deal a total of 50 damage to opponents.", cond(CondDealDamage, "Deal Damage", 50)),
		quest("quest_02", "Executioner", "Deal the killing blow to a player.", cond(CondKillPlayer, "Kill Player", 1)),
		quest("quest_03", "Spellweaver", "Deal 30 damage using Spell cards.", cond(CondSpellDamage, "Spell Damage", 30)),
		quest("quest_04", "Critical Master", "Land 3 Critical Hits.", cond(CondCriticalHit, "Critical Hits", 3)),
		quest("quest_05", "Survivor", "Survive until only 2 players remain (including you).", cond(CondPlayersRemaining, "Players Left", 2)),
		quest("quest_06", "Ironclad", "Accumulate 10 Armor at once.", cond(CondHaveArmor, "Current Armor", 10)),
		quest("quest_07", "Unkillable", "Heal a total of 40 HP.", cond(CondHealHP, "Total Healed", 40)),
		quest("quest_08", "Masochist", "Take 40 damage and still be alive.", cond(CondTakeDamage, "Damage Taken", 40)),
		quest("quest_09", "Scholar", "Draw 20 cards total.", cond(CondDrawCards, "Cards Drawn", 20)),
		quest("quest_10", "Trap Master", "Trigger 3 Trap cards.", cond(CondTriggerTrap, "Traps Triggered", 3)),
		quest("quest_11", "Buffer", "Have 3 active Buffs on yourself at once.", cond(CondActiveBuffs, "Active Buffs", 3)),
		quest("quest_12", "Pacifist", "End 5 turns without dealing damage.", cond(CondPeacefulTurns, "Peaceful Turns", 5)),
		quest("quest_13", "Nemesis", "Deal 20 damage to the player after you in turn order.", cond(CondDamageNemesis, "Damage to Nemesis", 20)),
		quest("quest_15", "Hoarder", "Hold 4 cards of the same type in hand.", cond(CondSameTypeHand, "Same Type Count", 4)),
		quest("quest_16", "Jack of All Trades", "Play one of each card type: Attack, Heal, Armor, Buff, Spell, Trap.",
			cond(CondPlayAttack, "Attack Played", 1),
			cond(CondPlayHeal, "Heal Played", 1),
			cond(CondPlayArmor, "Armor Played", 1),
			cond(CondPlayBuff, "Buff Played", 1),
			cond(CondPlaySpell, "Spell Played", 1),
			cond(CondPlayTrap, "Trap Played", 1),
		),
		quest("quest_17", "Chaos Agent", "Witness 2 players being eliminated.", cond(CondWitnessDeath, "Deaths Witnessed", 2)),
		quest("quest_18", "Avenger", "Eliminate a player who dealt damage to you.", cond(CondKillAttacker, "Kill Attacker", 1)),
		quest("quest_19", "Last Stand", "Win with 1 HP remaining.", cond(CondLastStand, "Standing at 1 HP", 1)),
		quest("quest_20", "Speedster", "Be the first to deal damage in the game.", cond(CondFirstBlood, "First Blood", 1)),
		quest("quest_21", "Rich", "Discard 10 cards total.", cond(CondDiscardCards, "Cards Discarded", 10)),
		quest("quest_22", "Technician", "Use your character passive 5 times.", cond(CondUsePassive, "Passive Used", 5)),
		quest("quest_23", "Kingslayer", "Kill the player with the most HP.", cond(CondKillLeader, "Kill Leader", 1)),
		quest("quest_24", "Empty Hand", "Have 0 cards in hand at the end of your turn 3 times.", cond(CondEmptyHand, "Empty Hand Turns", 3)),
	}
}

func character(id, name string, p Passive) Character {
	return Character{ID: id, Name: name, Passive: p}
}

func defaultCharacters() []Character {
	return []Character{
		character("char_warrior", "Warrior", Passive{Name: "Shield Bash", Description: "Gain 1 Armor when you attack.", Kind: PassiveArmorOnAttack, Value: 1}),
		character("char_mage", "Mage", Passive{Name: "Arcane Mastery", Description: "Spell damage +2.", Kind: PassiveSpellBoost, Value: 2}),
		character("char_rogue", "Rogue", Passive{Name: "Precision", Description: "Critical hits deal 2.5x damage.", Kind: PassiveCritBoost, Value: 1}),
		character("char_cleric", "Cleric", Passive{Name: "Divine Light", Description: "Heals restore 2 extra HP.", Kind: PassiveHealBoost, Value: 2}),
		character("char_paladin", "Paladin", Passive{Name: "Holy Aura", Description: "Start the game with 2 Armor.", Kind: PassiveStartArmor, Value: 2}),
		character("char_warlock", "Warlock", Passive{Name: "Life Drain", Description: "Heal 1 HP when dealing damage.", Kind: PassiveLifesteal, Value: 1}),
		character("char_ranger", "Ranger", Passive{Name: "Eagle Eye", Description: "Re-roll an attack die showing 1, once.", Kind: PassiveRerollOne, Value: 1}),
		character("char_bard", "Bard", Passive{Name: "Ballad", Description: "Draw 2 cards instead of 1, then discard 1.", Kind: PassiveBallad, Value: 1}),
		character("char_monk", "Monk", Passive{Name: "Evasion", Description: "10% chance to dodge an attack.", Kind: PassiveDodge, Value: 10}),
		character("char_alchemist", "Alchemist", Passive{Name: "Transmute", Description: "Discard 2 cards to draw 1, once per turn.", Kind: PassiveTransmute, Value: 1}),
		character("char_druid", "Druid", Passive{Name: "Nature's Grace", Description: "Heal 1 HP at the start of your turn.", Kind: PassiveRegen, Value: 1}),
		character("char_barbarian", "Barbarian", Passive{Name: "Berserk", Description: "+2 ATK while below 15 HP.", Kind: PassiveLowHPAttack, Value: 2}),
		character("char_necromancer", "Necromancer", Passive{Name: "Soul Harvest", Description: "Gain 1 max HP whenever another player takes damage.", Kind: PassiveMaxHPGain, Value: 1}),
	}
}
