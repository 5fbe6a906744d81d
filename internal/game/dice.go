package game

import "math/rand"

// Roller produces d8 values in [1, 8].
type Roller interface {
	Roll() int
}

type randRoller struct {
	rng *rand.Rand
}

func (r randRoller) Roll() int { return r.rng.Intn(8) + 1 }

// NewRoller returns a d8 backed by rng.
func NewRoller(rng *rand.Rand) Roller { return randRoller{rng: rng} }

// DiceOutcome is the band a d8 roll lands in.
type DiceOutcome string

const (
	OutcomeMiss     DiceOutcome = "miss"
	OutcomeHit      DiceOutcome = "hit"
	OutcomeCritical DiceOutcome = "critical"
)

// Classify maps a roll to its band: 1-2 miss, 3-7 hit, 8 critical.
func Classify(roll int) DiceOutcome {
	switch {
	case roll <= 2:
		return OutcomeMiss
	case roll >= 8:
		return OutcomeCritical
	default:
		return OutcomeHit
	}
}
