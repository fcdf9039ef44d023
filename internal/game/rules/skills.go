package rules

import "sort"

// Skills maps each of the eighteen skill identifiers to its governing
// ability. The identifiers are Spanish and keep their diacritics; matching
// against player input goes through StripAccents first.
var Skills = map[string]string{
	"acrobacias":     Destreza,
	"arcanos":        Inteligencia,
	"atletismo":      Fuerza,
	"engaño":         Carisma,
	"historia":       Inteligencia,
	"interpretacion": Carisma,
	"intimidacion":   Carisma,
	"investigacion":  Inteligencia,
	"juego_manos":    Destreza,
	"medicina":       Sabiduria,
	"naturaleza":     Inteligencia,
	"percepcion":     Sabiduria,
	"perspicacia":    Sabiduria,
	"persuasion":     Carisma,
	"religion":       Inteligencia,
	"sigilo":         Destreza,
	"supervivencia":  Sabiduria,
	"trato_animales": Sabiduria,
}

// SkillIDs returns the eighteen skill identifiers in sorted order.
func SkillIDs() []string {
	ids := make([]string, 0, len(Skills))
	for id := range Skills {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SkillAbility resolves a skill identifier to its governing ability. Lookup
// is accent-insensitive, so "engano" finds "engaño".
func SkillAbility(skill string) (string, bool) {
	if ability, ok := Skills[skill]; ok {
		return ability, true
	}
	folded := StripAccents(skill)
	for id, ability := range Skills {
		if StripAccents(id) == folded {
			return ability, true
		}
	}
	return "", false
}

// CanonicalSkill returns the canonical identifier for a skill named with or
// without diacritics.
func CanonicalSkill(skill string) (string, bool) {
	if _, ok := Skills[skill]; ok {
		return skill, true
	}
	folded := StripAccents(skill)
	for id := range Skills {
		if StripAccents(id) == folded {
			return id, true
		}
	}
	return "", false
}

// ValidSkill reports whether skill names one of the eighteen skills,
// accent-insensitively.
func ValidSkill(skill string) bool {
	_, ok := CanonicalSkill(skill)
	return ok
}
