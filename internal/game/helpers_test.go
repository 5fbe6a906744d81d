package game

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptRoller returns queued rolls, then fallback forever.
type scriptRoller struct {
	rolls    []int
	fallback int
}

func (r *scriptRoller) Roll() int {
	if len(r.rolls) == 0 {
		return r.fallback
	}
	v := r.rolls[0]
	r.rolls = r.rolls[1:]
	return v
}

func (r *scriptRoller) push(v ...int) { r.rolls = append(r.rolls, v...) }

func plainCatalog() *Catalog {
	return NewCatalog(defaultCards(), defaultQuests(), nil)
}

func seats(n int) []Seat {
	out := make([]Seat, n)
	for i := range out {
		out[i] = Seat{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Player %d", i)}
	}
	return out
}

// newTestSession builds an n player session where seat 0 wins the opening
// roll, nobody has a character and everybody holds the slow healing quest.
func newTestSession(t *testing.T, n int) (*Session, *scriptRoller) {
	t.Helper()
	roller := &scriptRoller{fallback: 5}
	roller.push(8)
	for i := 1; i < n; i++ {
		roller.push(1)
	}
	s, err := NewSession("s1", "r1", seats(n),
		WithRand(rand.New(rand.NewSource(7))),
		WithRoller(roller),
		WithCatalog(plainCatalog()),
	)
	require.NoError(t, err)
	require.Equal(t, 0, s.Current)

	slow, ok := s.catalog.Quest("quest_07")
	require.True(t, ok)
	for _, p := range s.Players {
		out := s.SelectQuest(p.ID, s.QuestOptions[p.ID][0])
		require.True(t, out.Accepted, out.Message)
		s.assignQuest(p, slow)
	}
	require.Equal(t, StagePlaying, s.Stage)
	return s, roller
}

// give moves a card whose id starts with prefix into p's hand, taking it from
// the draw pile or another hand so the card total stays put.
func give(t *testing.T, s *Session, p *Player, prefix string) string {
	t.Helper()
	for i, c := range s.Deck.DrawPile {
		if strings.HasPrefix(c.Info().ID, prefix) {
			s.Deck.DrawPile = append(s.Deck.DrawPile[:i:i], s.Deck.DrawPile[i+1:]...)
			p.Hand = append(p.Hand, c)
			return c.Info().ID
		}
	}
	for _, q := range s.Players {
		if q == p {
			continue
		}
		for i, c := range q.Hand {
			if strings.HasPrefix(c.Info().ID, prefix) {
				q.takeFromHand(i)
				p.Hand = append(p.Hand, c)
				return c.Info().ID
			}
		}
	}
	t.Fatalf("no %s card available", prefix)
	return ""
}

// arm sets a trap face down for owner.
func arm(t *testing.T, s *Session, owner *Player, prefix string) {
	t.Helper()
	id := give(t, s, owner, prefix)
	c := owner.takeFromHand(owner.handIndex(id))
	s.Trap = &ActiveTrap{Card: c.(TrapCard), OwnerID: owner.ID}
}

func toAction(s *Session) {
	s.Phase = PhaseAction
	s.Played = false
}
