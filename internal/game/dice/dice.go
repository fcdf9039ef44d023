// Package dice provides the randomness abstraction, the dice-expression
// parser, and the roll-result types for the combat engine. All randomness
// flows through the Source interface so that play sessions can be replayed
// deterministically from a seed.
package dice

import "fmt"

// Mode selects how a d20 roll is performed.
type Mode string

const (
	// ModeNormal rolls each die once.
	ModeNormal Mode = "normal"
	// ModeAdvantage rolls two d20 and keeps the higher. Only meaningful for
	// a single d20; other expressions fall back to ModeNormal.
	ModeAdvantage Mode = "advantage"
	// ModeDisadvantage rolls two d20 and keeps the lower.
	ModeDisadvantage Mode = "disadvantage"
)

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string `json:"expression"`          // original expression string, e.g. "2d6+3"
	Dice       []int  `json:"dice"`                // kept die results before modifier
	Discarded  []int  `json:"discarded,omitempty"` // dice dropped by advantage/disadvantage
	Modifier   int    `json:"modifier"`            // flat modifier (may be negative)
	Mode       Mode   `json:"mode"`                // mode actually applied to this roll
	Critical   bool   `json:"critical"`            // kept die was a natural 20 on a single d20
	Fumble     bool   `json:"fumble"`              // kept die was a natural 1 on a single d20
	IsD20      bool   `json:"is_d20"`              // expression was a single d20
}

// Total returns the sum of all kept die results plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5] +3 = 12"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	diceStr := fmt.Sprintf("%v", r.Dice)
	modStr := fmt.Sprintf("%+d", r.Modifier)
	return fmt.Sprintf("%s → %s %s = %d", r.Expression, diceStr, modStr, r.Total())
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
