package rules

// classHitDie maps class ids to hit die size. English aliases are accepted
// because imported sheets sometimes carry them.
var classHitDie = map[string]int{
	"picaro":     8,
	"rogue":      8,
	"guerrero":   10,
	"fighter":    10,
	"mago":       6,
	"wizard":     6,
	"clerigo":    8,
	"cleric":     8,
	"barbaro":    12,
	"barbarian":  12,
	"bardo":      8,
	"bard":       8,
	"druida":     8,
	"druid":      8,
	"monje":      8,
	"monk":       8,
	"paladin":    10,
	"explorador": 10,
	"ranger":     10,
	"hechicero":  6,
	"sorcerer":   6,
	"brujo":      8,
	"warlock":    8,
}

// ClassHitDie returns the hit die size for a class id, accent and case
// insensitive. Unknown classes default to 8.
func ClassHitDie(class string) int {
	if die, ok := classHitDie[Slug(class)]; ok {
		return die
	}
	return 8
}

// HPAtLevelOne returns the level-1 hit point base for a class: the hit die
// maximum. The Constitution modifier is added by the caller.
func HPAtLevelOne(class string) int {
	return ClassHitDie(class)
}

// HPPerLevel returns the fixed per-level hit point gain beyond level 1
// (average of the hit die rounded up). The Constitution modifier is added
// by the caller, with a minimum total gain of 1 per level.
func HPPerLevel(class string) int {
	return ClassHitDie(class)/2 + 1
}
