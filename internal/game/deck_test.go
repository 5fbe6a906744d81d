package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	cat := DefaultCatalog()
	require.Len(t, cat.Cards, 54)

	counts := map[Kind]int{}
	seen := map[string]bool{}
	for _, c := range cat.Cards {
		counts[c.Kind()]++
		assert.False(t, seen[c.Info().ID], "duplicate id %s", c.Info().ID)
		seen[c.Info().ID] = true
	}
	assert.Equal(t, map[Kind]int{
		KindAttack: 12, KindHeal: 8, KindArmor: 5, KindBuff: 6,
		KindSpell: 9, KindTrap: 9, KindRare: 5,
	}, counts)
	assert.Len(t, cat.Quests, 23)
	assert.Len(t, cat.Characters, 13)

	strike, ok := cat.Card("atk_strike_1")
	require.True(t, ok)
	assert.Equal(t, TargetEnemy, strike.Target())
}

func TestDeckReshuffleOnExhaustion(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	d := Deck{DiscardPile: append([]Card(nil), DefaultCatalog().Cards[:10]...)}

	c, reshuffled, ok := d.Draw(rng)
	require.True(t, ok)
	assert.True(t, reshuffled)
	assert.NotNil(t, c)
	assert.Len(t, d.DrawPile, 9)
	assert.Empty(t, d.DiscardPile)

	_, reshuffled, ok = d.Draw(rng)
	require.True(t, ok)
	assert.False(t, reshuffled)
	assert.Len(t, d.DrawPile, 8)
}

func TestDeckDrawEmpty(t *testing.T) {
	d := Deck{}
	_, _, ok := d.Draw(rand.New(rand.NewSource(1)))
	assert.False(t, ok)
	assert.True(t, d.Empty())
	assert.Empty(t, d.DrawN(3, rand.New(rand.NewSource(1))))
}
