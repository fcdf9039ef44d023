package vocab

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// overrideFile is the YAML schema for vocabulary extensions.
type overrideFile struct {
	IntentVerbs         []VerbIntent    `yaml:"intent_verbs"`
	SkillVerbs          []VerbSkill     `yaml:"skill_verbs"`
	GenericActions      []PhraseAction  `yaml:"generic_actions"`
	WeaponSynonyms      []WeaponSynonym `yaml:"weapon_synonyms"`
	UnarmedTerms        []string        `yaml:"unarmed_terms"`
	AdvantageMarkers    []string        `yaml:"advantage_markers"`
	DisadvantageMarkers []string        `yaml:"disadvantage_markers"`
	RangedMarkers       []string        `yaml:"ranged_markers"`
	PotionTerms         []string        `yaml:"potion_terms"`
}

var validIntents = map[Intent]bool{
	IntentAttack:  true,
	IntentSpell:   true,
	IntentMove:    true,
	IntentSkill:   true,
	IntentGeneric: true,
	IntentItem:    true,
}

// LoadFile merges vocabulary entries from a YAML file into the table. File
// entries are prepended, so under first-match priority they shadow built-in
// entries for the same verb or phrase.
//
// Precondition: path names a readable YAML file.
// Postcondition: on error the table is unchanged.
func (t *Table) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening vocabulary file: %w", err)
	}
	defer f.Close()

	var ov overrideFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&ov); err != nil {
		return fmt.Errorf("parsing vocabulary file %s: %w", path, err)
	}

	for _, e := range ov.IntentVerbs {
		if e.Verb == "" {
			return fmt.Errorf("vocabulary file %s: intent verb with empty verb", path)
		}
		if !validIntents[e.Intent] {
			return fmt.Errorf("vocabulary file %s: verb %q has unknown intent %q", path, e.Verb, e.Intent)
		}
	}
	for _, e := range ov.SkillVerbs {
		if e.Verb == "" || e.Skill == "" {
			return fmt.Errorf("vocabulary file %s: skill verb entries need both verb and skill", path)
		}
	}
	for _, e := range ov.GenericActions {
		if e.Phrase == "" || e.Action == "" {
			return fmt.Errorf("vocabulary file %s: generic action entries need both phrase and action", path)
		}
	}
	for _, e := range ov.WeaponSynonyms {
		if e.Term == "" || len(e.Candidates) == 0 {
			return fmt.Errorf("vocabulary file %s: weapon synonym %q needs at least one candidate", path, e.Term)
		}
	}

	t.IntentVerbs = append(ov.IntentVerbs, t.IntentVerbs...)
	t.SkillVerbs = append(ov.SkillVerbs, t.SkillVerbs...)
	t.GenericActions = append(ov.GenericActions, t.GenericActions...)
	t.WeaponSynonyms = append(ov.WeaponSynonyms, t.WeaponSynonyms...)
	t.UnarmedTerms = append(ov.UnarmedTerms, t.UnarmedTerms...)
	t.AdvantageMarkers = append(ov.AdvantageMarkers, t.AdvantageMarkers...)
	t.DisadvantageMarkers = append(ov.DisadvantageMarkers, t.DisadvantageMarkers...)
	t.RangedMarkers = append(ov.RangedMarkers, t.RangedMarkers...)
	t.PotionTerms = append(ov.PotionTerms, t.PotionTerms...)
	return nil
}
