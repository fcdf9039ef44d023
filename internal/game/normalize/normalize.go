// Package normalize turns free Spanish player text into canonical actions.
// A deterministic pattern pass detects the intent, extracts kind-specific
// fields and resolves ambiguities from the scene; an optional LLM fallback
// fills whatever the patterns could not. The normalizer proposes, it never
// rules: legality checks belong to the validator.
package normalize

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/rules"
	"github.com/icruces/mazmorra/internal/game/vocab"
)

// ErrEmptyInput reports player text that is empty or all punctuation.
var ErrEmptyInput = errors.New("texto del jugador vacío")

// completeThreshold is the confidence floor below which an action still
// counts as incomplete and the LLM fallback is consulted.
const completeThreshold = 0.7

// Normalizer maps player text onto canonical actions using the compendium
// for names, the vocabulary for verbs and markers, and an optional fallback
// for leftovers.
type Normalizer struct {
	comp  *compendium.Compendium
	vocab *vocab.Table
	llm   Fallback
	log   *zap.Logger
}

// New builds a Normalizer. table may be nil for the built-in vocabulary,
// llm may be nil to run pattern-only, log may be nil for silence.
func New(comp *compendium.Compendium, table *vocab.Table, llm Fallback, log *zap.Logger) *Normalizer {
	if table == nil {
		table = vocab.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{comp: comp, vocab: table, llm: llm, log: log}
}

// Normalize converts one line of player text into a canonical action.
//
// Precondition: scene describes the acting character's current turn.
// Postcondition: the returned action has the payload matching its kind,
// needs_clarification set from the missing critical fields, and the raw
// player text preserved in original_text.
func (n *Normalizer) Normalize(ctx context.Context, text string, scene *action.SceneContext) (*action.CanonicalAction, error) {
	clean := preprocess(text)
	if clean == "" {
		return nil, ErrEmptyInput
	}

	kind := n.detectIntent(clean, scene)

	var a *action.CanonicalAction
	switch kind {
	case action.KindAttack:
		a = n.extractAttack(clean, scene)
	case action.KindSpell:
		a = n.extractSpell(clean, scene)
	case action.KindMove:
		a = n.extractMove(clean, scene)
	case action.KindSkill:
		a = n.extractSkill(clean, scene)
	case action.KindGeneric:
		a = n.extractGeneric(clean, scene)
	case action.KindItem:
		a = n.extractItem(clean, scene)
	default:
		a = action.New(action.KindUnknown, "")
		a.Confidence = 0
		a.MarkMissing(action.FieldKind)
	}

	n.resolveAmbiguities(a, scene)

	if n.llm != nil && a.Kind != action.KindUnknown && !a.Complete(completeThreshold) {
		n.runFallback(ctx, a, text, scene)
	}

	n.canonicalize(a)
	a.OriginalText = text

	n.log.Debug("normalized player text",
		zap.String("kind", string(a.Kind)),
		zap.Float64("confidence", a.Confidence),
		zap.Strings("missing", a.MissingFields),
		zap.Bool("needs_clarification", a.NeedsClarification),
	)
	return a, nil
}

// preprocess lowercases the text, replaces everything except letters, digits,
// underscores and hyphens with spaces, and collapses whitespace runs.
func preprocess(text string) string {
	text = strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// detectIntent classifies preprocessed text. Priority: generic action
// phrases, spell names (the caster's own spells first), skill names, intent
// verbs, potion mentions. Anything else is unknown.
func (n *Normalizer) detectIntent(text string, scene *action.SceneContext) action.Kind {
	if _, ok := n.vocab.DetectGenericAction(text); ok {
		return action.KindGeneric
	}
	if n.mentionsSpell(text, scene) {
		return action.KindSpell
	}
	if skillLiteral(text) != "" {
		return action.KindSkill
	}
	if intent, ok := n.vocab.DetectIntent(text); ok {
		return kindOf(intent)
	}
	if n.vocab.MentionsPotion(text) {
		return action.KindItem
	}
	return action.KindUnknown
}

// mentionsSpell reports whether the text names any compendium spell,
// checking the caster's known list before the full catalog.
func (n *Normalizer) mentionsSpell(text string, scene *action.SceneContext) bool {
	for _, id := range scene.KnownSpells {
		if sp, ok := n.comp.Spell(id); ok && containsName(text, sp.Name) {
			return true
		}
	}
	for _, sp := range n.comp.Spells() {
		if containsName(text, sp.Name) {
			return true
		}
	}
	return false
}

// skillLiteral returns the first skill whose identifier appears in the text,
// matching without diacritics on either side.
func skillLiteral(text string) string {
	folded := rules.StripAccents(text)
	for _, id := range rules.SkillIDs() {
		if strings.Contains(folded, rules.StripAccents(id)) {
			return id
		}
	}
	return ""
}

// containsName reports a case-insensitive substring match against a
// compendium display name. Empty names never match.
func containsName(text, name string) bool {
	name = strings.ToLower(name)
	return name != "" && strings.Contains(text, name)
}

func kindOf(intent vocab.Intent) action.Kind {
	switch intent {
	case vocab.IntentAttack:
		return action.KindAttack
	case vocab.IntentSpell:
		return action.KindSpell
	case vocab.IntentMove:
		return action.KindMove
	case vocab.IntentSkill:
		return action.KindSkill
	case vocab.IntentGeneric:
		return action.KindGeneric
	case vocab.IntentItem:
		return action.KindItem
	}
	return action.KindUnknown
}
