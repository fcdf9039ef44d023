package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/icruces/mazmorra/internal/game/action"
)

// defaultHealingPotionID is adopted when the player asks for a potion
// without naming a concrete item.
const defaultHealingPotionID = "pocion_curacion"

var (
	castingLevelRe = regexp.MustCompile(`nivel\s+(\d+)`)
	feetRe         = regexp.MustCompile(`(\d+)\s*(?:pies|ft|feet|pie)`)
	metersRe       = regexp.MustCompile(`(\d+)\s*(?:metros?|m)\b`)
	squaresRe      = regexp.MustCompile(`(\d+)\s*casillas?`)

	// Destination patterns in priority order. An article between the
	// preposition and the noun is skipped.
	destinationRes = []*regexp.Regexp{
		regexp.MustCompile(`hacia\s+(?:el|la|los|las)?\s*([\p{L}\p{N}_]+)`),
		regexp.MustCompile(`a\s+(?:el|la|los|las)?\s*([\p{L}\p{N}_]+)`),
	}
)

// extractAttack builds an attack from preprocessed text. Unarmed terms win
// over weapon names; a trailing ranged marker overrides the subtype.
func (n *Normalizer) extractAttack(text string, scene *action.SceneContext) *action.CanonicalAction {
	a := action.New(action.KindAttack, "")
	a.Attack.AttackerID = scene.ActorID
	a.Attack.Subtype = action.SubtypeMelee
	a.Attack.Mode = action.ModeNormal
	a.Confidence = 0.7

	if n.vocab.IsUnarmed(text) {
		a.Attack.WeaponID = action.UnarmedWeaponID
		a.Attack.Subtype = action.SubtypeUnarmed
	} else if weaponID := n.findWeapon(text, scene); weaponID != "" {
		a.Attack.WeaponID = weaponID
		a.Raise(0.1, 1.0)
	} else {
		a.MarkMissing(action.FieldWeapon)
	}

	if targetID := n.findTarget(text, scene); targetID != "" {
		a.Attack.TargetID = targetID
		a.Raise(0.1, 1.0)
	} else {
		a.MarkMissing(action.FieldTarget)
	}

	if n.vocab.HasAdvantage(text) {
		a.Attack.Mode = action.ModeAdvantage
	} else if n.vocab.HasDisadvantage(text) {
		a.Attack.Mode = action.ModeDisadvantage
	}

	if n.vocab.IsRanged(text) {
		a.Attack.Subtype = action.SubtypeRanged
	}
	return a
}

// extractSpell builds a spell cast. The casting level starts at the spell's
// base level; an explicit "nivel N" in the text overrides it. A missing
// target is left for the resolver, never marked missing: plenty of spells
// have no target at all.
func (n *Normalizer) extractSpell(text string, scene *action.SceneContext) *action.CanonicalAction {
	a := action.New(action.KindSpell, "")
	a.Spell.CasterID = scene.ActorID
	a.Confidence = 0.6

	if spellID := n.findSpell(text, scene); spellID != "" {
		a.Spell.SpellID = spellID
		a.Raise(0.2, 1.0)
		if sp, ok := n.comp.Spell(spellID); ok {
			a.Spell.CastingLevel = sp.Level
		}
	} else {
		a.MarkMissing(action.FieldSpell)
	}

	if m := castingLevelRe.FindStringSubmatch(text); m != nil {
		a.Spell.CastingLevel = atoi(m[1])
	}

	a.Spell.TargetID = n.findTarget(text, scene)
	return a
}

// extractMove builds a movement. Distances in meters convert at 3.28 feet
// per meter truncated, squares at 5 feet each.
func (n *Normalizer) extractMove(text string, scene *action.SceneContext) *action.CanonicalAction {
	a := action.New(action.KindMove, "")
	a.Move.ActorID = scene.ActorID
	a.Confidence = 0.7

	if m := feetRe.FindStringSubmatch(text); m != nil {
		a.Move.DistanceFeet = atoi(m[1])
	} else if m := metersRe.FindStringSubmatch(text); m != nil {
		a.Move.DistanceFeet = int(float64(atoi(m[1])) * 3.28)
	} else if m := squaresRe.FindStringSubmatch(text); m != nil {
		a.Move.DistanceFeet = atoi(m[1]) * 5
	} else {
		a.MarkMissing(action.FieldDistance)
	}

	for _, re := range destinationRes {
		if m := re.FindStringSubmatch(text); m != nil {
			a.Move.Destination = m[1]
			break
		}
	}
	return a
}

// extractSkill builds a skill check. A literal skill name beats a verb
// mapping; with neither, the whole check needs clarification.
func (n *Normalizer) extractSkill(text string, scene *action.SceneContext) *action.CanonicalAction {
	a := action.New(action.KindSkill, "")
	a.Skill.ActorID = scene.ActorID

	if skill := skillLiteral(text); skill != "" {
		a.Skill.Skill = skill
		a.Confidence = 0.9
	} else if skill, ok := n.vocab.DetectSkill(text); ok {
		a.Skill.Skill = skill
		a.Confidence = 0.85
	} else {
		a.MarkMissing(action.FieldSkill)
		a.Confidence = 0.4
	}
	return a
}

func (n *Normalizer) extractGeneric(text string, scene *action.SceneContext) *action.CanonicalAction {
	a := action.New(action.KindGeneric, "")
	a.Generic.ActorID = scene.ActorID
	a.Confidence = 0.5

	if id, ok := n.vocab.DetectGenericAction(text); ok {
		a.Generic.ActionID = id
		a.Confidence = 0.9
	} else {
		a.MarkMissing(action.FieldAction)
	}
	return a
}

// extractItem builds an item use. A bare potion mention falls back to the
// healing potion when the compendium carries one.
func (n *Normalizer) extractItem(text string, scene *action.SceneContext) *action.CanonicalAction {
	a := action.New(action.KindItem, "")
	a.Item.ActorID = scene.ActorID
	a.Confidence = 0.5
	a.MarkMissing(action.FieldItem)

	for _, item := range n.comp.Items() {
		if containsName(text, item.Name) || containsName(text, item.ID) {
			a.Item.ItemID = item.ID
			a.ClearMissing(action.FieldItem)
			a.Confidence = 0.85
			break
		}
	}

	if a.Item.ItemID == "" && n.vocab.MentionsPotion(text) {
		if _, ok := n.comp.Item(defaultHealingPotionID); ok {
			a.Item.ItemID = defaultHealingPotionID
			a.ClearMissing(action.FieldItem)
			a.Confidence = 0.6
		}
	}
	return a
}

// findWeapon resolves a weapon reference from the text: the character's
// carried weapons by name, then the compendium catalog, then colloquial
// synonyms ("espadazo" finds a sword).
func (n *Normalizer) findWeapon(text string, scene *action.SceneContext) string {
	for _, w := range scene.AvailableWeapons {
		if containsName(text, w.Name) {
			return w.ID
		}
	}
	for _, w := range n.comp.Weapons() {
		if containsName(text, w.Name) {
			return w.ID
		}
	}
	if candidates := n.vocab.WeaponCandidates(text); len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}

// findTarget resolves an enemy instance from the text in three passes: full
// name substring, any name word longer than three runes, compendium ref.
func (n *Normalizer) findTarget(text string, scene *action.SceneContext) string {
	for _, e := range scene.LivingEnemies {
		if containsName(text, e.Name) {
			return e.InstanceID
		}
	}
	for _, e := range scene.LivingEnemies {
		for _, word := range strings.Fields(strings.ToLower(e.Name)) {
			if utf8.RuneCountInString(word) > 3 && strings.Contains(text, word) {
				return e.InstanceID
			}
		}
	}
	for _, e := range scene.LivingEnemies {
		if containsName(text, e.CompendiumRef) {
			return e.InstanceID
		}
	}
	return ""
}

// findSpell resolves a spell from the text, preferring the caster's known
// list. Catalog names also match with spaces written as underscores.
func (n *Normalizer) findSpell(text string, scene *action.SceneContext) string {
	for _, id := range scene.KnownSpells {
		if sp, ok := n.comp.Spell(id); ok && containsName(text, sp.Name) {
			return sp.ID
		}
	}
	for _, sp := range n.comp.Spells() {
		name := strings.ToLower(sp.Name)
		if name == "" {
			continue
		}
		if strings.Contains(text, name) || strings.Contains(text, strings.ReplaceAll(name, " ", "_")) {
			return sp.ID
		}
	}
	return ""
}

// atoi converts a digits-only regex capture, 0 on overflow.
func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
