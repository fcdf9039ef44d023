package rules

// Armor category identifiers matching the compendium.
const (
	ArmorNone   = "sin_armadura"
	ArmorLight  = "ligera"
	ArmorMedium = "media"
	ArmorHeavy  = "pesada"
)

// ShieldBonus is the flat AC bonus a readied shield grants.
const ShieldBonus = 2

// ArmorProfile describes how a piece of armor combines with Dexterity.
//
// Invariant: when AddDex is false MaxDex is ignored; a nil MaxDex with
// AddDex true means the full Dexterity modifier applies.
type ArmorProfile struct {
	BaseAC   int
	AddDex   bool
	MaxDex   *int
	Category string
}

// Unarmored is the profile used when no armor is equipped: AC 10 plus the
// full Dexterity modifier.
var Unarmored = ArmorProfile{BaseAC: 10, AddDex: true, Category: ArmorNone}

// ArmorClass combines an armor profile with the wearer's Dexterity modifier
// and shield state.
//
// Postcondition: light armor adds the full modifier, medium caps it at
// MaxDex (conventionally 2), heavy ignores Dexterity entirely, and a shield
// adds ShieldBonus on top. A negative Dexterity modifier is applied even
// under a cap.
func ArmorClass(profile ArmorProfile, dexMod int, shield bool) int {
	ac := profile.BaseAC
	if profile.AddDex {
		mod := dexMod
		if profile.MaxDex != nil && mod > *profile.MaxDex {
			mod = *profile.MaxDex
		}
		ac += mod
	}
	if shield {
		ac += ShieldBonus
	}
	return ac
}
