package normalize

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/game/action"
)

// Fallback completes an action the patterns could not. Implementations
// return a map keyed by wire field name; empty and null values are ignored.
// A fallback proposes field values only. It never changes the detected kind
// and it never decides legality.
type Fallback interface {
	Complete(ctx context.Context, prompt string, req FallbackRequest) (map[string]any, error)
}

// NamedRef pairs an identifier with its display name for the fallback
// context.
type NamedRef struct {
	ID   string `json:"id"`
	Name string `json:"nombre"`
}

// FallbackRequest is the structured scene context handed to the fallback
// alongside the rendered prompt.
type FallbackRequest struct {
	PlayerText      string          `json:"texto_jugador"`
	DetectedKind    action.Kind     `json:"tipo_detectado"`
	PartialData     json.RawMessage `json:"datos_parciales,omitempty"`
	Missing         []string        `json:"faltantes"`
	EquippedWeapons []NamedRef      `json:"armas_equipadas"`
	LivingEnemies   []NamedRef      `json:"enemigos_vivos"`
}

// runFallback asks the LLM to fill the remaining gaps. A fallback error is
// downgraded to a warning on the action: the pattern result stands and the
// turn goes on without it.
func (n *Normalizer) runFallback(ctx context.Context, a *action.CanonicalAction, text string, scene *action.SceneContext) {
	req := FallbackRequest{
		PlayerText:      text,
		DetectedKind:    a.Kind,
		PartialData:     a.PayloadJSON(),
		Missing:         append([]string(nil), a.MissingFields...),
		EquippedWeapons: n.equippedWeapons(scene),
		LivingEnemies:   enemyRefs(scene.LivingEnemies),
	}

	fields, err := n.llm.Complete(ctx, buildPrompt(req), req)
	if err != nil {
		n.log.Warn("normalizer fallback failed", zap.Error(err))
		a.Warn("Error LLM: " + err.Error())
		return
	}
	if len(fields) == 0 {
		return
	}

	n.applyFallback(a, fields)
	a.Source = action.SourceLLM
	a.Raise(0.15, 0.9)
}

// buildPrompt renders the completion request. The model is told to answer
// with bare JSON so the reply parses without prose stripping.
func buildPrompt(req FallbackRequest) string {
	missing, _ := json.Marshal(req.Missing)
	ctxJSON, _ := json.Marshal(req)
	return fmt.Sprintf(`Completa los campos faltantes de esta acción:
Texto: %q
Tipo: %s
Faltantes: %s
Contexto: %s
Responde SOLO con JSON.`, req.PlayerText, req.DetectedKind, missing, ctxJSON)
}

// applyFallback merges returned fields into unfilled slots only. The
// pattern pass stays authoritative for everything it already extracted.
func (n *Normalizer) applyFallback(a *action.CanonicalAction, fields map[string]any) {
	merge := func(field string, set func()) {
		if !missingContains(a, field) {
			return
		}
		set()
		a.ClearMissing(field)
	}

	switch a.Kind {
	case action.KindAttack:
		if v, ok := stringField(fields, action.FieldTarget); ok {
			merge(action.FieldTarget, func() { a.Attack.TargetID = v })
		}
		if v, ok := stringField(fields, action.FieldWeapon); ok {
			merge(action.FieldWeapon, func() { a.Attack.WeaponID = v })
		}
	case action.KindSpell:
		if v, ok := stringField(fields, action.FieldSpell); ok {
			merge(action.FieldSpell, func() { a.Spell.SpellID = v })
		}
	case action.KindMove:
		if v, ok := intField(fields, action.FieldDistance); ok {
			merge(action.FieldDistance, func() { a.Move.DistanceFeet = v })
		}
	case action.KindSkill:
		if v, ok := stringField(fields, action.FieldSkill); ok {
			merge(action.FieldSkill, func() { a.Skill.Skill = v })
		}
	case action.KindGeneric:
		if v, ok := stringField(fields, action.FieldAction); ok {
			merge(action.FieldAction, func() { a.Generic.ActionID = v })
		}
	case action.KindItem:
		if v, ok := stringField(fields, action.FieldItem); ok {
			merge(action.FieldItem, func() { a.Item.ItemID = v })
		}
	}
}

// equippedWeapons lists the actor's primary and secondary weapon refs with
// display names, skipping empty slots.
func (n *Normalizer) equippedWeapons(scene *action.SceneContext) []NamedRef {
	refs := make([]NamedRef, 0, 2)
	for _, id := range []string{scene.PrimaryWeapon, scene.SecondaryWeapon} {
		if id == "" {
			continue
		}
		refs = append(refs, NamedRef{ID: id, Name: n.weaponName(id, scene)})
	}
	return refs
}

// weaponName resolves a display name for a weapon ref: the scene's carried
// list first, then the compendium, then the ref itself.
func (n *Normalizer) weaponName(id string, scene *action.SceneContext) string {
	for _, w := range scene.AvailableWeapons {
		if w.ID == id && w.Name != "" {
			return w.Name
		}
	}
	if w, ok := n.comp.Weapon(id); ok {
		return w.Name
	}
	return id
}

func enemyRefs(enemies []action.Participant) []NamedRef {
	refs := make([]NamedRef, 0, len(enemies))
	for _, e := range enemies {
		refs = append(refs, NamedRef{ID: e.InstanceID, Name: e.Name})
	}
	return refs
}

func stringField(fields map[string]any, key string) (string, bool) {
	v, ok := fields[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func intField(fields map[string]any, key string) (int, bool) {
	switch v := fields[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
