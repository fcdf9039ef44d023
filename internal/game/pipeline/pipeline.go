// Package pipeline runs one player turn end to end: normalize the typed
// text, validate the canonical action, execute it into events and a
// state delta, commit the delta, and narrate the outcome. Every step
// answers with a Result; the pipeline never panics across its boundary
// and never mutates combat state outside Manager.Apply.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/combat"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/dice"
	"github.com/icruces/mazmorra/internal/game/narrate"
	"github.com/icruces/mazmorra/internal/game/normalize"
	"github.com/icruces/mazmorra/internal/game/validate"
)

// Outcome is the verdict of one pipeline run.
type Outcome string

const (
	// OutcomeNeedsClarification asks the player a question before anything
	// happens. Combat state is untouched.
	OutcomeNeedsClarification Outcome = "necesita_clarificar"
	// OutcomeRejected refuses an illegal action. Combat state is untouched
	// and the turn economy is not consumed.
	OutcomeRejected Outcome = "accion_rechazada"
	// OutcomeApplied means the action resolved and its delta is committed.
	OutcomeApplied Outcome = "accion_aplicada"
	// OutcomeInternalError marks an invariant violation, never a player
	// mistake. The session should end cleanly rather than guess.
	OutcomeInternalError Outcome = "error_interno"
)

// Option is one answer the player can pick for a clarification question.
type Option struct {
	ID   string         `json:"id"`
	Text string         `json:"texto"`
	Data map[string]any `json:"datos,omitempty"`
}

// Result is everything one pipeline run produced. Which fields are set
// depends on Outcome.
type Result struct {
	Outcome Outcome `json:"tipo"`

	Question string   `json:"pregunta,omitempty"`
	Options  []Option `json:"opciones,omitempty"`

	Code       validate.Code `json:"codigo,omitempty"`
	Reason     string        `json:"motivo,omitempty"`
	Suggestion string        `json:"sugerencia,omitempty"`

	Events    []combat.Event     `json:"eventos,omitempty"`
	Delta     *combat.StateDelta `json:"cambios_estado,omitempty"`
	Narration string             `json:"mensaje_dm,omitempty"`

	Warnings []string `json:"avisos,omitempty"`
	Err      string   `json:"error,omitempty"`

	Action     *action.CanonicalAction `json:"accion_normalizada,omitempty"`
	Validation *validate.Validation    `json:"validacion,omitempty"`
}

// DamageHook adjusts outgoing damage before it becomes an event and a
// delta. The scripting layer implements it; returning the amount
// unchanged is always safe.
type DamageHook interface {
	OnDamage(attackerID, targetID string, amount int) int
}

// Pipeline wires the turn stages together. Build one per session; it is
// not safe for concurrent use.
type Pipeline struct {
	comp     *compendium.Compendium
	norm     *normalize.Normalizer
	val      *validate.Validator
	roller   *dice.Roller
	narrator narrate.Narrator
	fallback *narrate.Fallback
	hook     DamageHook
	log      *zap.Logger
}

// New builds a Pipeline. A nil normalizer gets a pattern-only one, a nil
// validator a lenient one, and a nil logger a no-op logger.
//
// Precondition: roller must not be nil.
func New(comp *compendium.Compendium, norm *normalize.Normalizer, val *validate.Validator, roller *dice.Roller, logger *zap.Logger) *Pipeline {
	if roller == nil {
		panic("pipeline: New requires a non-nil Roller")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if norm == nil {
		norm = normalize.New(comp, nil, nil, logger)
	}
	if val == nil {
		val = validate.New(comp, false)
	}
	return &Pipeline{
		comp:     comp,
		norm:     norm,
		val:      val,
		roller:   roller,
		fallback: narrate.NewFallback(narrate.StyleEpic),
		log:      logger,
	}
}

// SetNarrator installs a narrator for the applied path, wrapped with the
// default wall-clock deadline. Pass nil to go back to the deterministic
// fallback only.
func (p *Pipeline) SetNarrator(n narrate.Narrator) {
	if n == nil {
		p.narrator = nil
		return
	}
	p.narrator = narrate.WithTimeout(n, narrate.DefaultTimeout)
}

// SetStyle changes the voice of the deterministic fallback.
func (p *Pipeline) SetStyle(style narrate.Style) {
	p.fallback = narrate.NewFallback(style)
}

// SetDamageHook installs the outgoing-damage hook.
func (p *Pipeline) SetDamageHook(h DamageHook) {
	p.hook = h
}

// Process runs one player turn. mgr may be nil for out-of-combat actions
// such as exploration skill checks; events then stand on their own and
// no delta is committed.
//
// Postcondition: a clarification or rejection leaves mgr byte-identical;
// only OutcomeApplied changes combat state, through Manager.Apply.
func (p *Pipeline) Process(ctx context.Context, text string, scene *action.SceneContext, mgr *combat.Manager) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("pipeline panic", zap.Any("panic", r), zap.String("text", text))
			res = &Result{Outcome: OutcomeInternalError, Code: validate.CodeInternal, Err: fmt.Sprintf("%v", r)}
		}
	}()
	if scene == nil {
		scene = &action.SceneContext{}
	}

	a, err := p.norm.Normalize(ctx, text, scene)
	if err != nil {
		if errors.Is(err, normalize.ErrEmptyInput) {
			// The player sent nothing; treat it like text nobody understood.
			blank := action.New(action.KindUnknown, text)
			blank.MarkMissing(action.FieldKind)
			blank.NeedsClarification = true
			return p.clarify(blank, scene)
		}
		return internalResult(fmt.Errorf("normalizing %q: %w", text, err))
	}

	if a.NeedsClarification {
		return p.clarify(a, scene)
	}

	v := p.validateAction(a, scene, mgr)
	if !v.Valid {
		return &Result{
			Outcome:    OutcomeRejected,
			Code:       v.Code,
			Reason:     v.Reason,
			Suggestion: p.suggestion(v, scene),
			Warnings:   append([]string(nil), v.Warnings...),
			Action:     a,
			Validation: &v,
		}
	}

	exec, err := p.execute(a, v, scene, mgr)
	if err != nil {
		return internalResult(err)
	}
	return p.applyAndNarrate(ctx, a, v, scene, mgr, exec)
}

// applyAndNarrate commits the execution to the manager, narrates the
// final event list, and assembles the applied Result.
func (p *Pipeline) applyAndNarrate(ctx context.Context, a *action.CanonicalAction, v validate.Validation, scene *action.SceneContext, mgr *combat.Manager, exec execution) *Result {
	events := exec.events
	if mgr != nil && mgr.State() == combat.StateRunning {
		followUps, err := mgr.Apply(exec.delta, events)
		if err != nil {
			return internalResult(fmt.Errorf("applying state delta: %w", err))
		}
		events = append(events, followUps...)
	}

	res := &Result{
		Outcome:    OutcomeApplied,
		Events:     events,
		Delta:      &exec.delta,
		Warnings:   append([]string(nil), v.Warnings...),
		Action:     a,
		Validation: &v,
	}

	res.Narration = p.fallback.Render(events, scene)
	if p.narrator != nil {
		text, err := p.narrator.Narrate(ctx, events, scene)
		switch {
		case err != nil:
			p.log.Warn("narrator failed, using fallback", zap.Error(err))
			res.Warnings = append(res.Warnings, "Error del narrador: "+err.Error())
		case text != "":
			res.Narration = text
		}
	}
	return res
}

// validateAction dispatches to the validator check matching the kind.
func (p *Pipeline) validateAction(a *action.CanonicalAction, scene *action.SceneContext, mgr *combat.Manager) validate.Validation {
	actor := p.actorState(scene, mgr)
	switch a.Kind {
	case action.KindAttack:
		target := p.targetState(a.Attack.TargetID, scene, mgr)
		loadout := validate.Loadout{Primary: scene.PrimaryWeapon, Secondary: scene.SecondaryWeapon}
		return p.val.Attack(actor, target, a.Attack.WeaponID, loadout)
	case action.KindSpell:
		book := validate.Spellbook{Known: scene.KnownSpells, Slots: scene.AvailableSlots}
		return p.val.Spell(actor, book, a.Spell.SpellID, a.Spell.CastingLevel, a.Spell.TargetID != "")
	case action.KindMove:
		speed, used := p.movementBudget(scene, mgr)
		return p.val.Move(actor, a.Move.DistanceFeet, speed, used)
	case action.KindSkill:
		return p.val.SkillCheck(actor, a.Skill.Skill)
	case action.KindGeneric:
		return p.val.GenericAction(actor, a.Generic.ActionID)
	case action.KindItem:
		return p.val.UseItem(actor, a.Item.ItemID)
	}
	return validate.Validation{
		Valid:  false,
		Code:   validate.CodeInternal,
		Reason: fmt.Sprintf("tipo de acción no soportado: %s", a.Kind),
	}
}

// actorState assembles the validator's view of the acting combatant. In
// combat it comes from the manager; outside, there is no sheet to
// consult and a nominal 1 HP lets exploration actions pass the
// incapacity checks.
func (p *Pipeline) actorState(scene *action.SceneContext, mgr *combat.Manager) validate.ActorState {
	if mgr != nil {
		if c, ok := mgr.Combatant(scene.ActorID); ok {
			conditions := []string{}
			if c.Conditions != nil {
				conditions = c.Conditions.IDs()
			}
			return validate.ActorState{
				Name:        c.Name,
				HP:          c.HP,
				Dead:        c.Dead,
				Unconscious: c.Unconscious,
				Conditions:  conditions,
			}
		}
	}
	return validate.ActorState{Name: scene.ActorName, HP: 1}
}

// targetState resolves a target id to the validator's view of it, nil
// when no such combatant exists. The manager sees dead combatants the
// scene no longer lists, so stale ids still reject as TARGET_DEAD
// instead of NO_TARGET.
func (p *Pipeline) targetState(targetID string, scene *action.SceneContext, mgr *combat.Manager) *validate.TargetState {
	if targetID == "" {
		return nil
	}
	if mgr != nil {
		if c, ok := mgr.Combatant(targetID); ok {
			return &validate.TargetState{Name: c.Name, Dead: c.Dead}
		}
		return nil
	}
	if e, ok := scene.Enemy(targetID); ok {
		return &validate.TargetState{Name: e.Name}
	}
	for _, ally := range scene.Allies {
		if ally.InstanceID == targetID {
			return &validate.TargetState{Name: ally.Name}
		}
	}
	return nil
}

// movementBudget returns the speed and movement already spent this turn.
// Outside combat the scene's remaining movement acts as the full budget.
func (p *Pipeline) movementBudget(scene *action.SceneContext, mgr *combat.Manager) (speed, used int) {
	if mgr != nil {
		if c, ok := mgr.Combatant(scene.ActorID); ok {
			return c.Speed, c.MovementUsed
		}
	}
	return scene.MovementRemaining, 0
}

// clarify builds the follow-up question for an action that cannot be
// executed as heard. Nothing is rolled and nothing changes.
func (p *Pipeline) clarify(a *action.CanonicalAction, scene *action.SceneContext) *Result {
	res := &Result{Outcome: OutcomeNeedsClarification, Action: a}
	missing := a.MissingCritical()

	switch a.Kind {
	case action.KindAttack:
		if fieldMissing(missing, action.FieldTarget) {
			res.Code = validate.CodeAmbiguousTarget
			res.Question = "¿A quién quieres atacar?"
			for _, e := range scene.LivingEnemies {
				res.Options = append(res.Options, Option{
					ID:   e.InstanceID,
					Text: e.Name,
					Data: map[string]any{"tipo": "objetivo", "ref": e.CompendiumRef},
				})
			}
			return res
		}
		// Unreachable while the weapon is not a critical field; kept so the
		// question exists the day it becomes one.
		res.Code = validate.CodeAmbiguousWeapon
		res.Question = "¿Con qué arma quieres atacar?"
		for _, w := range scene.AvailableWeapons {
			res.Options = append(res.Options, Option{ID: w.ID, Text: w.Name, Data: map[string]any{"tipo": "arma"}})
		}
		res.Options = append(res.Options, Option{
			ID:   action.UnarmedWeaponID,
			Text: "Ataque desarmado",
			Data: map[string]any{"tipo": "arma"},
		})
		return res

	case action.KindSpell:
		res.Code = validate.CodeAmbiguousSpell
		res.Question = "¿Qué conjuro quieres lanzar?"
		for _, id := range scene.KnownSpells {
			name := id
			if spell, ok := p.comp.Spell(id); ok {
				name = spell.Name
			}
			res.Options = append(res.Options, Option{ID: id, Text: name, Data: map[string]any{"tipo": "conjuro"}})
		}
		return res

	case action.KindSkill:
		res.Question = "¿Qué habilidad quieres usar?"
		for _, name := range []string{"Percepción", "Sigilo", "Atletismo", "Acrobacias", "Investigación", "Persuasión", "Engaño", "Intimidación"} {
			res.Options = append(res.Options, Option{
				ID:   strings.ToLower(name),
				Text: name,
				Data: map[string]any{"tipo": "habilidad"},
			})
		}
		return res

	case action.KindMove:
		// Unreachable while the distance is not a critical field; same
		// reasoning as the weapon question above.
		res.Question = "¿Cuántos pies quieres moverte?"
		for _, distance := range []int{5, 10, 15, 20, 25, 30} {
			if distance > scene.MovementRemaining {
				continue
			}
			res.Options = append(res.Options, Option{
				ID:   strconv.Itoa(distance),
				Text: fmt.Sprintf("%d pies", distance),
				Data: map[string]any{"tipo": "distancia", "valor": distance},
			})
		}
		return res
	}

	res.Question = "No entendí tu acción. ¿Qué quieres hacer?"
	res.Options = []Option{
		{ID: "atacar", Text: "Atacar a un enemigo", Data: map[string]any{"tipo": "intencion"}},
		{ID: "conjuro", Text: "Lanzar un conjuro", Data: map[string]any{"tipo": "intencion"}},
		{ID: "mover", Text: "Moverme", Data: map[string]any{"tipo": "intencion"}},
		{ID: "habilidad", Text: "Usar una habilidad", Data: map[string]any{"tipo": "intencion"}},
	}
	return res
}

// suggestion tells the player how to get unstuck after a rejection.
func (p *Pipeline) suggestion(v validate.Validation, scene *action.SceneContext) string {
	switch v.Code {
	case validate.CodeWeaponNotEquipped:
		return "Usa una interacción de objeto para equipar el arma primero, o ataca desarmado."
	case validate.CodeTargetDead:
		if len(scene.LivingEnemies) > 0 {
			names := make([]string, 0, len(scene.LivingEnemies))
			for _, e := range scene.LivingEnemies {
				names = append(names, e.Name)
			}
			return "Elige otro objetivo: " + strings.Join(names, ", ")
		}
		return "No hay enemigos vivos."
	case validate.CodeNoSlots:
		return "Usa un truco (nivel 0) o descansa para recuperar ranuras."
	case validate.CodeNoMovement:
		return "Usa la acción Dash para duplicar tu movimiento este turno."
	case validate.CodeCannotAct, validate.CodeConditionBlocks:
		if strings.Contains(v.Reason, "paralizado") || strings.Contains(v.Reason, "incapacitado") {
			return "No puedes actuar mientras tengas esta condición."
		}
	}
	return ""
}

func fieldMissing(missing []string, field string) bool {
	for _, f := range missing {
		if f == field {
			return true
		}
	}
	return false
}

func internalResult(err error) *Result {
	return &Result{Outcome: OutcomeInternalError, Code: validate.CodeInternal, Err: err.Error()}
}
