package vocab

import (
	"strings"
	"unicode"
)

// words splits text into a lookup set of word tokens. A token is a run of
// letters, digits or underscores, which mirrors the word boundaries the
// normalizer relies on for verb and marker matching.
func words(text string) map[string]struct{} {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func anyWord(text string, terms []string) bool {
	ws := words(text)
	for _, term := range terms {
		if _, ok := ws[term]; ok {
			return true
		}
	}
	return false
}

// DetectIntent returns the intent of the first intent verb present in text
// as a whole word. Text is expected to be lowercased already.
//
// Postcondition: ok is false iff no verb matched.
func (t *Table) DetectIntent(text string) (Intent, bool) {
	ws := words(text)
	for _, e := range t.IntentVerbs {
		if _, found := ws[e.Verb]; found {
			return e.Intent, true
		}
	}
	return "", false
}

// DetectSkill returns the skill of the first skill verb present in text as a
// whole word.
func (t *Table) DetectSkill(text string) (string, bool) {
	ws := words(text)
	for _, e := range t.SkillVerbs {
		if _, found := ws[e.Verb]; found {
			return e.Skill, true
		}
	}
	return "", false
}

// DetectGenericAction returns the action id of the first generic action
// phrase contained in text. Phrases match as substrings so multi-word forms
// like "me pongo a esquivar" work.
func (t *Table) DetectGenericAction(text string) (string, bool) {
	for _, e := range t.GenericActions {
		if strings.Contains(text, e.Phrase) {
			return e.Action, true
		}
	}
	return "", false
}

// WeaponCandidates returns the compendium candidates of the first weapon
// synonym contained in text, most common first. Nil when no synonym matches.
func (t *Table) WeaponCandidates(text string) []string {
	for _, e := range t.WeaponSynonyms {
		if strings.Contains(text, e.Term) {
			return e.Candidates
		}
	}
	return nil
}

// IsUnarmed reports whether text mentions an unarmed attack term.
func (t *Table) IsUnarmed(text string) bool {
	for _, term := range t.UnarmedTerms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// HasAdvantage reports whether text carries an advantage marker as a whole
// word. "desventaja" does not contain the word "ventaja", so both markers can
// be checked independently.
func (t *Table) HasAdvantage(text string) bool {
	return anyWord(text, t.AdvantageMarkers)
}

// HasDisadvantage reports whether text carries a disadvantage marker.
func (t *Table) HasDisadvantage(text string) bool {
	return anyWord(text, t.DisadvantageMarkers)
}

// IsRanged reports whether text mentions a ranged attack marker.
func (t *Table) IsRanged(text string) bool {
	return anyWord(text, t.RangedMarkers)
}

// MentionsPotion reports whether text names a potion.
func (t *Table) MentionsPotion(text string) bool {
	return anyWord(text, t.PotionTerms)
}
