package game

// drawQuests pops n quest ids from the pool, refilling it with the whole
// shuffled catalog when fewer than the number of simultaneous choices remain.
func (s *Session) drawQuests(n int) []string {
	need := s.rules.QuestChoices
	if n > need {
		need = n
	}
	if len(s.QuestPool) < need {
		s.QuestPool = s.catalog.QuestIDs()
		s.rng.Shuffle(len(s.QuestPool), func(i, j int) {
			s.QuestPool[i], s.QuestPool[j] = s.QuestPool[j], s.QuestPool[i]
		})
	}
	out := make([]string, 0, n)
	for i := 0; i < n && len(s.QuestPool) > 0; i++ {
		last := len(s.QuestPool) - 1
		out = append(out, s.QuestPool[last])
		s.QuestPool = s.QuestPool[:last]
	}
	return out
}

// AssignOptions deals the player a fresh set of quest choices.
func (s *Session) AssignOptions(playerID string) []string {
	opts := s.drawQuests(s.rules.QuestChoices)
	s.QuestOptions[playerID] = opts
	return opts
}

// Options returns the quests currently offered to the player.
func (s *Session) Options(playerID string) []*Quest {
	var out []*Quest
	for _, id := range s.QuestOptions[playerID] {
		if q, ok := s.catalog.Quest(id); ok {
			out = append(out, q)
		}
	}
	return out
}

// SelectQuest locks in one of the offered quests. Once every player holds a
// quest the session moves on to play.
func (s *Session) SelectQuest(playerID, questID string) Outcome {
	if rej := ValidateQuestSelect(s, playerID, questID); rej != nil {
		return rejected(ActionSelectQuest, playerID, rej)
	}
	p := s.Player(playerID)
	q, _ := s.catalog.Quest(questID)
	s.assignQuest(p, q)
	delete(s.QuestOptions, playerID)

	msg := p.Name + " chose a quest"
	s.logAction(LogEntry{PlayerID: p.ID, Action: ActionSelectQuest, Message: msg})

	if s.allQuestsChosen() {
		s.Stage = StagePlaying
	}
	return Outcome{Accepted: true, Action: ActionSelectQuest, ActorID: p.ID, Message: msg}
}

func (s *Session) allQuestsChosen() bool {
	for _, p := range s.Players {
		if p.Quest == nil {
			return false
		}
	}
	return true
}

// assignQuest replaces the quest and its progress together.
func (s *Session) assignQuest(p *Player, q *Quest) {
	p.Quest = q
	p.Progress = make([]int, len(q.Conditions))
	p.Complete = false
}

// Record adds amount to every condition of the player's quest that matches.
func (s *Session) Record(p *Player, c Condition, amount int) {
	if p == nil || p.Quest == nil || amount == 0 {
		return
	}
	for i, qc := range p.Quest.Conditions {
		if qc.Type == c {
			p.Progress[i] += amount
		}
	}
	p.recompute()
}

// Observe raises gauge conditions to value if it exceeds what was seen before.
func (s *Session) Observe(p *Player, c Condition, value int) {
	if p == nil || p.Quest == nil {
		return
	}
	for i, qc := range p.Quest.Conditions {
		if qc.Type == c && value > p.Progress[i] {
			p.Progress[i] = value
		}
	}
	p.recompute()
}

func (p *Player) recompute() {
	if p.Quest == nil {
		p.Complete = false
		return
	}
	for i, qc := range p.Quest.Conditions {
		if p.Progress[i] < qc.Target {
			p.Complete = false
			return
		}
	}
	p.Complete = true
}

// QuestPercent is the mean per-condition completion, 0-100.
func (p *Player) QuestPercent() int {
	if p.Quest == nil || len(p.Quest.Conditions) == 0 {
		return 0
	}
	total := 0
	for i, qc := range p.Quest.Conditions {
		v := p.Progress[i]
		if v > qc.Target {
			v = qc.Target
		}
		if qc.Target > 0 {
			total += v * 100 / qc.Target
		} else {
			total += 100
		}
	}
	return total / len(p.Quest.Conditions)
}

// observeGauges samples the state-based conditions for every living player.
func (s *Session) observeGauges() {
	alive := s.aliveCount()
	for _, p := range s.Players {
		if !p.Alive {
			continue
		}
		s.Observe(p, CondHaveArmor, p.Armor)
		s.Observe(p, CondActiveBuffs, len(p.Buffs))
		s.Observe(p, CondSameTypeHand, sameKindCount(p.Hand))
		if p.HP == 1 {
			s.Observe(p, CondLastStand, 1)
		}
		if alive <= 2 {
			s.Observe(p, CondPlayersRemaining, 2)
		}
	}
}

func sameKindCount(hand []Card) int {
	counts := make(map[Kind]int)
	best := 0
	for _, c := range hand {
		counts[c.Kind()]++
		if counts[c.Kind()] > best {
			best = counts[c.Kind()]
		}
	}
	return best
}

// shuffleQuests hands every living player a brand new quest with zeroed progress.
func (s *Session) shuffleQuests() {
	for _, p := range s.Players {
		if !p.Alive {
			continue
		}
		ids := s.drawQuests(1)
		if len(ids) == 0 {
			continue
		}
		q, _ := s.catalog.Quest(ids[0])
		s.assignQuest(p, q)
	}
}
