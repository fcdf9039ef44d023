// Package validate decides whether declared actions are legal against the
// current game state. It answers with a verdict, a reason and warnings,
// never mutating anything: execution belongs to the pipeline, state to the
// combat manager.
package validate

import (
	"fmt"
	"strings"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/rules"
)

// Code classifies a rejection, a clarification or a degraded step.
type Code string

// Rejection codes. An empty code means the verdict is positive.
const (
	CodeNoTarget          Code = "NO_TARGET"
	CodeTargetDead        Code = "TARGET_DEAD"
	CodeWeaponNotFound    Code = "WEAPON_NOT_FOUND"
	CodeWeaponNotEquipped Code = "WEAPON_NOT_EQUIPPED"
	CodeSpellNotFound     Code = "SPELL_NOT_FOUND"
	CodeNoSlots           Code = "NO_SLOTS"
	CodeLevelTooLow       Code = "LEVEL_TOO_LOW"
	CodeCannotAct         Code = "CANNOT_ACT"
	CodeNoMovement        Code = "NO_MOVEMENT"
	CodeConditionBlocks   Code = "CONDITION_BLOCKS"
	CodeInvalidSkill      Code = "INVALID_SKILL"
	CodeItemNotFound      Code = "ITEM_NOT_FOUND"
)

// Clarification codes. These never reject an action; the pipeline attaches
// them to the questions it sends back to the player.
const (
	CodeAmbiguousTarget Code = "AMBIGUOUS_TARGET"
	CodeAmbiguousWeapon Code = "AMBIGUOUS_WEAPON"
	CodeAmbiguousSpell  Code = "AMBIGUOUS_SPELL"
)

// CodeInternal marks invariant violations, never player mistakes. It must
// end the session cleanly.
const CodeInternal Code = "INTERNAL"

// Validation is a legality verdict.
type Validation struct {
	Valid    bool
	Code     Code
	Reason   string
	Warnings []string
	Extra    map[string]any
}

func allowed(reason string) Validation {
	return Validation{Valid: true, Reason: reason}
}

func rejected(code Code, reason string) Validation {
	return Validation{Valid: false, Code: code, Reason: reason}
}

// ActorState is the caller-assembled snapshot of the acting combatant.
type ActorState struct {
	Name        string
	HP          int
	Dead        bool
	Unconscious bool
	Conditions  []string
}

func (a ActorState) displayName() string {
	if a.Name == "" {
		return "La entidad"
	}
	return a.Name
}

func (a ActorState) hasCondition(id string) bool {
	for _, cond := range a.Conditions {
		if strings.EqualFold(cond, id) {
			return true
		}
	}
	return false
}

// TargetState is what the validator needs to know about a target.
type TargetState struct {
	Name string
	Dead bool
}

// Loadout is the pair of equipped weapon refs; either slot may be empty.
type Loadout struct {
	Primary   string
	Secondary string
}

func (l Loadout) holds(weaponID string) bool {
	return weaponID != "" && (weaponID == l.Primary || weaponID == l.Secondary)
}

// Spellbook is the casting view of an actor: the spells it knows or has
// prepared and the slots it has left per level.
type Spellbook struct {
	Known    []string
	Prepared []string
	Slots    map[int]int
}

func (b Spellbook) hasSpell(id string) bool {
	for _, known := range b.Known {
		if known == id {
			return true
		}
	}
	for _, prepared := range b.Prepared {
		if prepared == id {
			return true
		}
	}
	return false
}

func (b Spellbook) slotsLeft(level int) int {
	return b.Slots[level]
}

// incapacitating conditions deny all actions.
var incapacitating = map[string]bool{
	"paralizado":   true,
	"petrificado":  true,
	"aturdido":     true,
	"incapacitado": true,
}

// immobilizing conditions deny movement specifically.
var immobilizing = map[string]bool{
	"paralizado":   true,
	"petrificado":  true,
	"aturdido":     true,
	"inconsciente": true,
	"agarrado":     true,
	"apresado":     true,
}

// Validator checks declared actions against compendium data and actor
// state. strictEquipment turns the unequipped-weapon warning into a
// rejection.
type Validator struct {
	comp            *compendium.Compendium
	strictEquipment bool
}

// New builds a Validator.
func New(comp *compendium.Compendium, strictEquipment bool) *Validator {
	return &Validator{comp: comp, strictEquipment: strictEquipment}
}

// CanAct reports whether the actor can take actions at all: above zero HP,
// alive, conscious and free of incapacitating conditions.
func (v *Validator) CanAct(actor ActorState) Validation {
	name := actor.displayName()
	if actor.HP <= 0 {
		return rejected(CodeCannotAct, fmt.Sprintf("%s tiene 0 PG", name))
	}
	if actor.Dead {
		return rejected(CodeCannotAct, fmt.Sprintf("%s está muerto", name))
	}
	if actor.Unconscious {
		return rejected(CodeCannotAct, fmt.Sprintf("%s está inconsciente", name))
	}
	for _, cond := range actor.Conditions {
		if incapacitating[strings.ToLower(cond)] {
			return rejected(CodeCannotAct, fmt.Sprintf("%s está %s y no puede actuar", name, cond))
		}
	}
	return allowed(fmt.Sprintf("%s puede actuar", name))
}

// Attack validates an attack declaration. weaponID may be empty or
// "unarmed" for an unarmed strike; those skip the compendium and equipment
// checks. Range is not enforced.
func (v *Validator) Attack(actor ActorState, target *TargetState, weaponID string, loadout Loadout) Validation {
	if state := v.CanAct(actor); !state.Valid {
		return state
	}
	if target == nil {
		return rejected(CodeNoTarget, "No hay objetivo seleccionado")
	}
	if target.Dead {
		name := target.Name
		if name == "" {
			name = "El objetivo"
		}
		return rejected(CodeTargetDead, fmt.Sprintf("%s ya está muerto", name))
	}

	var warnings []string
	if weaponID != "" && weaponID != action.UnarmedWeaponID {
		weapon, ok := v.comp.Weapon(weaponID)
		if !ok {
			return rejected(CodeWeaponNotFound, fmt.Sprintf("Arma '%s' no existe en el compendio", weaponID))
		}
		if !loadout.holds(weaponID) {
			if v.strictEquipment {
				out := rejected(CodeWeaponNotEquipped, fmt.Sprintf("'%s' no está equipada (modo estricto activado)", weapon.Name))
				out.Warnings = []string{"Usar interacción de objeto para equipar primero"}
				return out
			}
			warnings = append(warnings, fmt.Sprintf("'%s' no está equipada", weapon.Name))
		}
	}

	targetName := target.Name
	if targetName == "" {
		targetName = "objetivo"
	}
	out := allowed(fmt.Sprintf("Ataque válido contra %s", targetName))
	out.Warnings = warnings
	out.Extra = map[string]any{
		"arma_id":     weaponID,
		"tipo_ataque": attackType(weaponID),
	}
	return out
}

func attackType(weaponID string) string {
	if weaponID == "" || weaponID == action.UnarmedWeaponID {
		return "cuerpo a cuerpo"
	}
	return "con arma"
}

// Spell validates casting spellID with a slot of castingLevel; zero adopts
// the spell's own level. An unknown-to-the-caster spell warns rather than
// rejects. hasTarget reports whether the declaration names a target.
func (v *Validator) Spell(actor ActorState, book Spellbook, spellID string, castingLevel int, hasTarget bool) Validation {
	if state := v.CanAct(actor); !state.Valid {
		return state
	}
	spell, ok := v.comp.Spell(spellID)
	if !ok {
		return rejected(CodeSpellNotFound, fmt.Sprintf("Conjuro '%s' no existe en el compendio", spellID))
	}

	var warnings []string
	if !book.hasSpell(spellID) {
		warnings = append(warnings, fmt.Sprintf("'%s' no está en conjuros conocidos/preparados", spell.Name))
	}

	slotLevel := spell.Level
	if spell.Level > 0 {
		if castingLevel > 0 {
			slotLevel = castingLevel
		}
		if slotLevel < spell.Level {
			return rejected(CodeLevelTooLow, fmt.Sprintf("'%s' es nivel %d, no puede lanzarse con ranura de nivel %d", spell.Name, spell.Level, slotLevel))
		}
		if book.slotsLeft(slotLevel) <= 0 {
			return rejected(CodeNoSlots, fmt.Sprintf("No quedan ranuras de nivel %d disponibles", slotLevel))
		}
	}

	if requiresTarget(spell) && !hasTarget {
		warnings = append(warnings, fmt.Sprintf("'%s' podría requerir un objetivo", spell.Name))
	}

	out := allowed(fmt.Sprintf("Puede lanzar '%s'", spell.Name))
	out.Warnings = warnings
	out.Extra = map[string]any{
		"conjuro_id":   spell.ID,
		"nivel_ranura": slotLevel,
		"es_truco":     spell.Level == 0,
	}
	return out
}

// requiresTarget reports whether the spell's target entry names a creature
// rather than the caster.
func requiresTarget(spell *compendium.Spell) bool {
	switch strings.ToLower(spell.Target) {
	case "", "personal", "self":
		return false
	}
	return true
}

// UseItem validates consuming or activating an item.
func (v *Validator) UseItem(actor ActorState, itemID string) Validation {
	if state := v.CanAct(actor); !state.Valid {
		return state
	}
	item, ok := v.comp.Item(itemID)
	if !ok {
		return rejected(CodeItemNotFound, fmt.Sprintf("Objeto '%s' no existe en el compendio", itemID))
	}
	out := allowed(fmt.Sprintf("Puede usar '%s'", item.Name))
	out.Extra = map[string]any{"objeto_id": item.ID}
	return out
}

// Move validates spending distanceFeet against the turn's remaining
// movement. Movement has its own blocking set instead of CanAct: a grappled
// creature still acts, it just stays put.
func (v *Validator) Move(actor ActorState, distanceFeet, speedFeet, movementUsed int) Validation {
	if actor.Unconscious {
		return rejected(CodeConditionBlocks, "No puede moverse: está inconsciente")
	}
	for _, cond := range actor.Conditions {
		if immobilizing[strings.ToLower(cond)] {
			return rejected(CodeConditionBlocks, fmt.Sprintf("No puede moverse: está %s", cond))
		}
	}

	remaining := speedFeet - movementUsed
	if distanceFeet > remaining {
		return rejected(CodeNoMovement, fmt.Sprintf("No tiene suficiente movimiento: necesita %d pies, le quedan %d pies", distanceFeet, remaining))
	}

	out := allowed(fmt.Sprintf("Puede moverse %d pies (quedarán %d pies)", distanceFeet, remaining-distanceFeet))
	out.Extra = map[string]any{
		"velocidad_total":             speedFeet,
		"movimiento_restante_despues": remaining - distanceFeet,
	}
	return out
}

// SkillCheck validates a skill test. Matching tolerates spaces and missing
// diacritics; the canonical id is returned in extra. Skill tests carry no
// action-economy gate.
func (v *Validator) SkillCheck(actor ActorState, skill string) Validation {
	normalized := strings.ReplaceAll(strings.ToLower(skill), " ", "_")
	canonical, ok := rules.CanonicalSkill(normalized)
	if !ok {
		out := rejected(CodeInvalidSkill, fmt.Sprintf("'%s' no es una habilidad válida", skill))
		out.Extra = map[string]any{"habilidades_validas": rules.SkillIDs()}
		return out
	}

	var warnings []string
	if actor.hasCondition("cegado") && canonical == "percepcion" {
		warnings = append(warnings, "Está cegado: desventaja en Percepción que dependa de la vista")
	}
	if actor.hasCondition("asustado") {
		warnings = append(warnings, "Está asustado: desventaja en pruebas mientras vea la fuente del miedo")
	}

	out := allowed(fmt.Sprintf("Puede hacer prueba de %s", skill))
	out.Warnings = warnings
	out.Extra = map[string]any{"habilidad": canonical}
	return out
}

var genericReasons = map[string]string{
	"dash":      "%s puede usar Dash (duplica movimiento este turno)",
	"disengage": "%s puede usar Disengage (no provoca ataques de oportunidad)",
	"dodge":     "%s puede usar Dodge (ataques contra él tienen desventaja)",
	"help":      "%s puede usar Help (da ventaja a un aliado)",
	"hide":      "%s puede intentar Hide (tirada de Sigilo)",
	"search":    "%s puede usar Search (tirada de Percepción/Investigación)",
	"ready":     "%s puede preparar una acción",
}

// GenericAction validates the closed set of standard actions.
func (v *Validator) GenericAction(actor ActorState, actionID string) Validation {
	if state := v.CanAct(actor); !state.Valid {
		return state
	}
	name := actor.Name
	if name == "" {
		name = "El personaje"
	}
	format, ok := genericReasons[actionID]
	if !ok {
		format = "%s puede realizar la acción"
	}
	return allowed(fmt.Sprintf(format, name))
}
