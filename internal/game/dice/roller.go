package dice

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// StandardArray is the fixed ability score array offered as a deterministic
// alternative to rolling.
var StandardArray = []int{15, 14, 13, 12, 10, 8}

// Ability score generation methods accepted by RollAbilityArray.
const (
	MethodFourD6DropLowest = "4d6_drop_lowest"
	MethodThreeD6          = "3d6"
	MethodStandardArray    = "standard_array"
)

// Roller rolls dice expressions against a Source and logs every roll.
//
// Invariant: all randomness a Roller consumes comes from its Source, so a
// seeded Source makes every roll sequence reproducible.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller backed by src. A nil logger is replaced with a
// no-op logger.
//
// Precondition: src must not be nil.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	if src == nil {
		panic("dice: NewRoller requires a non-nil Source")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Source returns the underlying randomness source.
func (r *Roller) Source() Source {
	return r.src
}

// Roll parses and rolls a dice expression under the given mode.
//
// Postcondition: on success the result carries the canonical expression form
// and the individual die values in roll order.
func (r *Roller) Roll(expr string, mode Mode) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.RollExpr(e, mode), nil
}

// RollExpr rolls an already-parsed expression under the given mode.
//
// Advantage and disadvantage apply only to a single d20; for any other shape
// the mode is silently downgraded to normal and the result records the mode
// actually applied. Under advantage or disadvantage two d20 are rolled, the
// kept value lands in Dice and the other in Discarded.
func (r *Roller) RollExpr(e Expression, mode Mode) RollResult {
	if mode != ModeNormal && !e.IsD20() {
		mode = ModeNormal
	}

	result := RollResult{
		Expression: e.String(),
		Modifier:   e.Modifier,
		Mode:       mode,
		IsD20:      e.IsD20(),
	}

	switch mode {
	case ModeAdvantage, ModeDisadvantage:
		first := r.die(e.Sides)
		second := r.die(e.Sides)
		kept, dropped := first, second
		if (mode == ModeAdvantage) == (second > first) {
			kept, dropped = second, first
		}
		result.Dice = []int{kept}
		result.Discarded = []int{dropped}
	default:
		result.Dice = make([]int, e.Count)
		for i := range result.Dice {
			result.Dice[i] = r.die(e.Sides)
		}
	}

	if result.IsD20 {
		result.Critical = result.Dice[0] == 20
		result.Fumble = result.Dice[0] == 1
	}

	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.String("mode", string(mode)),
		zap.Ints("dice", result.Dice),
		zap.Ints("discarded", result.Discarded),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
		zap.Bool("critical", result.Critical),
		zap.Bool("fumble", result.Fumble),
	)
	return result
}

// RollD20 rolls 1d20 plus a flat bonus under the given mode. Attack rolls,
// saving throws, skill checks and initiative all reduce to this shape.
func (r *Roller) RollD20(bonus int, mode Mode) RollResult {
	return r.RollExpr(Expression{Count: 1, Sides: 20, Modifier: bonus}, mode)
}

// RollAttack rolls an attack: 1d20 plus the attack bonus.
func (r *Roller) RollAttack(bonus int, mode Mode) RollResult {
	return r.RollD20(bonus, mode)
}

// RollSave rolls a saving throw: 1d20 plus the save bonus.
func (r *Roller) RollSave(bonus int, mode Mode) RollResult {
	return r.RollD20(bonus, mode)
}

// RollSkill rolls a skill check: 1d20 plus the skill total.
func (r *Roller) RollSkill(bonus int, mode Mode) RollResult {
	return r.RollD20(bonus, mode)
}

// RollInitiative rolls initiative: 1d20 plus the Dexterity modifier.
func (r *Roller) RollInitiative(dexMod int) RollResult {
	return r.RollD20(dexMod, ModeNormal)
}

// RollDamage rolls a damage expression, doubling the number of dice when the
// triggering attack was a critical hit. The flat modifier is never doubled.
func (r *Roller) RollDamage(expr string, critical bool) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	if critical {
		e.Count *= 2
		if e.Count > MaxDiceCount {
			e.Count = MaxDiceCount
		}
	}
	return r.RollExpr(e, ModeNormal), nil
}

// RollAbilityArray generates six ability scores using the named method and
// returns them sorted descending.
//
// MethodFourD6DropLowest rolls 4d6 dropping the lowest die for each score.
// MethodThreeD6 rolls 3d6 per score. MethodStandardArray returns a copy of
// StandardArray and consumes no randomness.
func (r *Roller) RollAbilityArray(method string) ([]int, error) {
	scores := make([]int, 6)
	switch method {
	case MethodFourD6DropLowest:
		for i := range scores {
			rolls := []int{r.die(6), r.die(6), r.die(6), r.die(6)}
			sort.Ints(rolls)
			scores[i] = rolls[1] + rolls[2] + rolls[3]
		}
	case MethodThreeD6:
		for i := range scores {
			scores[i] = r.die(6) + r.die(6) + r.die(6)
		}
	case MethodStandardArray:
		copy(scores, StandardArray)
	default:
		return nil, fmt.Errorf("dice: unknown ability score method %q", method)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scores)))

	r.logger.Debug("ability scores generated",
		zap.String("method", method),
		zap.Ints("scores", scores),
	)
	return scores, nil
}

// die rolls a single die with the given number of faces.
//
// Postcondition: the returned value is in [1, sides].
func (r *Roller) die(sides int) int {
	return r.src.Intn(sides) + 1
}
