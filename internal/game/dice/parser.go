package dice

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDie is returned when an expression names a die outside the
// supported face set {4, 6, 8, 10, 12, 20, 100}.
var ErrInvalidDie = errors.New("dice: unsupported die faces")

// MaxDiceCount caps the number of dice in a single expression.
const MaxDiceCount = 100

// validFaces is the closed set of die sizes the engine recognizes.
var validFaces = map[int]bool{4: true, 6: true, 8: true, 10: true, 12: true, 20: true, 100: true}

// Expression represents a parsed dice expression ready to be rolled.
//
// Invariant: after a successful Parse, 1 <= Count <= MaxDiceCount and Sides
// is one of the supported faces.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative)
}

// IsD20 reports whether the expression is a single d20, the only shape
// advantage and disadvantage apply to.
func (e Expression) IsD20() bool {
	return e.Count == 1 && e.Sides == 20
}

// String reassembles the canonical form of the expression, e.g. "2d6+3".
func (e Expression) String() string {
	s := fmt.Sprintf("%dd%d", e.Count, e.Sides)
	if e.Modifier != 0 {
		s += fmt.Sprintf("%+d", e.Modifier)
	}
	return s
}

// Parse parses a dice expression of the form "[N]dX[+M|-M]" into an
// Expression. Supported forms: "d20", "2d6", "2d6+3", "4d8-2".
//
// Precondition: expr must be non-empty.
// Postcondition: Returns an Expression with Count in [1, MaxDiceCount] and
// Sides in the supported face set, or a descriptive error. Unsupported faces
// return an error wrapping ErrInvalidDie.
func Parse(expr string) (Expression, error) {
	if expr == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	raw := expr
	s := strings.ToLower(strings.TrimSpace(expr))

	dIdx := strings.Index(s, "d")
	if dIdx < 0 {
		return Expression{}, fmt.Errorf("dice: missing 'd' in expression %q", raw)
	}

	// Parse count (the part before 'd'); defaults to 1 when omitted.
	count := 1
	if countStr := s[:dIdx]; countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", raw, err)
		}
		if n <= 0 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", raw)
		}
		count = n
	}
	if count > MaxDiceCount {
		return Expression{}, fmt.Errorf("dice: die count %d in %q exceeds maximum %d", count, raw, MaxDiceCount)
	}

	// Split sides and optional modifier. The first '+' or '-' after the 'd'
	// starts the modifier; a sign directly after 'd' is malformed.
	rest := s[dIdx+1:]
	modOffset := -1
	for i := 1; i < len(rest); i++ {
		if rest[i] == '+' || rest[i] == '-' {
			modOffset = i
			break
		}
	}

	sidesStr, modStr := rest, ""
	if modOffset >= 0 {
		sidesStr, modStr = rest[:modOffset], rest[modOffset:]
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", raw, err)
	}
	if !validFaces[sides] {
		return Expression{}, fmt.Errorf("dice: d%d in %q: %w", sides, raw, ErrInvalidDie)
	}

	modifier := 0
	if modStr != "" {
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
	}

	return Expression{
		Raw:      raw,
		Count:    count,
		Sides:    sides,
		Modifier: modifier,
	}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}
