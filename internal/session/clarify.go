package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/pipeline"
	"github.com/icruces/mazmorra/internal/game/rules"
)

// resolveOption matches a reply against the pending clarification
// options: a 1-based number, or a case and accent insensitive substring
// of an option text. Anything else is not an answer.
func resolveOption(res *pipeline.Result, input string) (pipeline.Option, bool) {
	input = strings.TrimSpace(input)
	if input == "" || len(res.Options) == 0 {
		return pipeline.Option{}, false
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(res.Options) {
			return res.Options[n-1], true
		}
		return pipeline.Option{}, false
	}
	slug := rules.Slug(input)
	if slug == "" {
		return pipeline.Option{}, false
	}
	for _, opt := range res.Options {
		if strings.Contains(rules.Slug(opt.Text), slug) {
			return opt, true
		}
	}
	return pipeline.Option{}, false
}

// replyText rewrites a picked option into the action sentence the
// pipeline would have understood in the first place, folding in what
// the half-parsed action already knew.
func (s *Session) replyText(res *pipeline.Result, opt pipeline.Option) string {
	a := res.Action
	switch toString(opt.Data["tipo"]) {
	case "objetivo":
		if a != nil && a.Kind == action.KindSpell && a.Spell != nil && a.Spell.SpellID != "" {
			return fmt.Sprintf("Lanzo %s a %s", s.spellName(a.Spell.SpellID), opt.Text)
		}
		if a != nil && a.Kind == action.KindAttack && a.Attack != nil &&
			a.Attack.WeaponID != "" && a.Attack.WeaponID != action.UnarmedWeaponID {
			return fmt.Sprintf("Ataco a %s con %s", opt.Text, s.weaponName(a.Attack.WeaponID))
		}
		return "Ataco a " + opt.Text

	case "arma":
		if name := s.targetName(a); name != "" {
			return fmt.Sprintf("Ataco a %s con %s", name, opt.Text)
		}
		return "Ataco con " + opt.Text

	case "conjuro":
		if name := s.targetName(a); name != "" {
			return fmt.Sprintf("Lanzo %s a %s", opt.Text, name)
		}
		return "Lanzo " + opt.Text

	case "habilidad":
		return "Uso " + opt.Text

	case "distancia":
		return "Me muevo " + opt.Text
	}
	// "intencion" and anything newer: the option text is the action.
	return opt.Text
}

// targetName resolves the half-parsed action's target to its table
// name, empty when unknown or out of combat.
func (s *Session) targetName(a *action.CanonicalAction) string {
	if a == nil || s.mgr == nil {
		return ""
	}
	id := a.TargetID()
	if id == "" {
		return ""
	}
	if c, ok := s.mgr.Combatant(id); ok {
		return c.Name
	}
	return ""
}
