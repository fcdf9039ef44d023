// Package action defines the canonical action: the structured form a free
// Spanish sentence is normalized into, carried through validation and
// execution. It also defines the scene context handed to the normalizer and
// the JSON wire format of both.
package action

// Kind tags the canonical action variants. The values are the Spanish
// intent ids the vocabulary detects.
type Kind string

const (
	KindAttack  Kind = "ataque"
	KindSpell   Kind = "conjuro"
	KindMove    Kind = "movimiento"
	KindSkill   Kind = "habilidad"
	KindGeneric Kind = "accion"
	KindItem    Kind = "objeto"
	KindUnknown Kind = "desconocido"
)

// Valid reports whether k is one of the seven kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindAttack, KindSpell, KindMove, KindSkill, KindGeneric, KindItem, KindUnknown:
		return true
	}
	return false
}

// Attack subtypes.
const (
	SubtypeMelee   = "melee"
	SubtypeRanged  = "ranged"
	SubtypeUnarmed = "unarmed"
)

// Roll modes.
const (
	ModeNormal       = "normal"
	ModeAdvantage    = "advantage"
	ModeDisadvantage = "disadvantage"
)

// UnarmedWeaponID is the weapon id of an attack made without a weapon.
const UnarmedWeaponID = "unarmed"

// Action sources.
const (
	SourcePattern = "pattern"
	SourceLLM     = "llm"
)

// Wire field names, used in MissingFields and the critical sets.
const (
	FieldKind     = "kind"
	FieldTarget   = "target_id"
	FieldWeapon   = "weapon_id"
	FieldSpell    = "spell_id"
	FieldSkill    = "skill"
	FieldAction   = "action_id"
	FieldItem     = "item_id"
	FieldDistance = "distance_feet"
)

// Attack is the payload for KindAttack.
type Attack struct {
	AttackerID string `json:"attacker_id"`
	TargetID   string `json:"target_id,omitempty"`
	WeaponID   string `json:"weapon_id,omitempty"`
	Subtype    string `json:"subtype,omitempty"`
	Mode       string `json:"mode,omitempty"`
}

// Spell is the payload for KindSpell. CastingLevel 0 casts a cantrip.
type Spell struct {
	CasterID     string `json:"caster_id"`
	TargetID     string `json:"target_id,omitempty"`
	SpellID      string `json:"spell_id,omitempty"`
	CastingLevel int    `json:"casting_level"`
}

// Move is the payload for KindMove.
type Move struct {
	ActorID      string `json:"actor_id"`
	DistanceFeet int    `json:"distance_feet"`
	Destination  string `json:"destination,omitempty"`
}

// Skill is the payload for KindSkill.
type Skill struct {
	ActorID  string `json:"actor_id"`
	Skill    string `json:"skill,omitempty"`
	TargetID string `json:"target_id,omitempty"`
}

// Generic is the payload for KindGeneric: dash, dodge, disengage, help,
// hide, search or ready.
type Generic struct {
	ActorID  string `json:"actor_id"`
	ActionID string `json:"action_id,omitempty"`
}

// UseItem is the payload for KindItem.
type UseItem struct {
	ActorID string `json:"actor_id"`
	ItemID  string `json:"item_id,omitempty"`
}

// CanonicalAction is the structured form of one player intent.
//
// Invariant: exactly the payload matching Kind is non-nil (none for
// KindUnknown). Confidence stays in [0, 1].
type CanonicalAction struct {
	Kind    Kind     `json:"kind"`
	Attack  *Attack  `json:"-"`
	Spell   *Spell   `json:"-"`
	Move    *Move    `json:"-"`
	Skill   *Skill   `json:"-"`
	Generic *Generic `json:"-"`
	Item    *UseItem `json:"-"`

	Confidence         float64  `json:"confidence"`
	MissingFields      []string `json:"missing_fields"`
	Warnings           []string `json:"warnings"`
	OriginalText       string   `json:"original_text"`
	NeedsClarification bool     `json:"needs_clarification"`
	Source             string   `json:"source"`
}

// New returns a canonical action of the given kind with its payload
// allocated and empty bookkeeping slices.
func New(kind Kind, originalText string) *CanonicalAction {
	a := &CanonicalAction{
		Kind:          kind,
		OriginalText:  originalText,
		Source:        SourcePattern,
		MissingFields: []string{},
		Warnings:      []string{},
	}
	switch kind {
	case KindAttack:
		a.Attack = &Attack{}
	case KindSpell:
		a.Spell = &Spell{}
	case KindMove:
		a.Move = &Move{}
	case KindSkill:
		a.Skill = &Skill{}
	case KindGeneric:
		a.Generic = &Generic{}
	case KindItem:
		a.Item = &UseItem{}
	}
	return a
}

// criticalFields maps each kind to the payload fields an action cannot be
// executed without.
var criticalFields = map[Kind][]string{
	KindAttack:  {FieldTarget},
	KindSpell:   {FieldSpell},
	KindMove:    {},
	KindSkill:   {FieldSkill},
	KindGeneric: {FieldAction},
	KindItem:    {FieldItem},
	KindUnknown: {FieldKind},
}

// CriticalFields returns the fields of the kind that block execution when
// missing. The returned slice must not be mutated.
func CriticalFields(kind Kind) []string {
	return criticalFields[kind]
}

// MissingCritical returns the intersection of MissingFields with the kind's
// critical set, preserving critical-set order.
func (a *CanonicalAction) MissingCritical() []string {
	var out []string
	for _, critical := range criticalFields[a.Kind] {
		for _, missing := range a.MissingFields {
			if missing == critical {
				out = append(out, critical)
				break
			}
		}
	}
	return out
}

// Complete reports whether the action can skip the LLM fallback: nothing
// missing and confidence at or above the threshold.
func (a *CanonicalAction) Complete(minConfidence float64) bool {
	return len(a.MissingFields) == 0 && a.Confidence >= minConfidence
}

// MarkMissing records a missing field, once.
func (a *CanonicalAction) MarkMissing(field string) {
	for _, f := range a.MissingFields {
		if f == field {
			return
		}
	}
	a.MissingFields = append(a.MissingFields, field)
}

// ClearMissing removes a field from the missing list after it is filled.
func (a *CanonicalAction) ClearMissing(field string) {
	for i, f := range a.MissingFields {
		if f == field {
			a.MissingFields = append(a.MissingFields[:i], a.MissingFields[i+1:]...)
			return
		}
	}
}

// Warn appends a warning.
func (a *CanonicalAction) Warn(message string) {
	a.Warnings = append(a.Warnings, message)
}

// Raise bumps confidence by delta, clamped to limit.
//
// Postcondition: Confidence never decreases and never exceeds limit unless
// it already did.
func (a *CanonicalAction) Raise(delta, limit float64) {
	if a.Confidence >= limit {
		return
	}
	a.Confidence += delta
	if a.Confidence > limit {
		a.Confidence = limit
	}
}

// ActorID returns the acting combatant's id for any kind, empty for
// KindUnknown.
func (a *CanonicalAction) ActorID() string {
	switch a.Kind {
	case KindAttack:
		if a.Attack != nil {
			return a.Attack.AttackerID
		}
	case KindSpell:
		if a.Spell != nil {
			return a.Spell.CasterID
		}
	case KindMove:
		if a.Move != nil {
			return a.Move.ActorID
		}
	case KindSkill:
		if a.Skill != nil {
			return a.Skill.ActorID
		}
	case KindGeneric:
		if a.Generic != nil {
			return a.Generic.ActorID
		}
	case KindItem:
		if a.Item != nil {
			return a.Item.ActorID
		}
	}
	return ""
}

// TargetID returns the target id for the kinds that carry one.
func (a *CanonicalAction) TargetID() string {
	switch a.Kind {
	case KindAttack:
		if a.Attack != nil {
			return a.Attack.TargetID
		}
	case KindSpell:
		if a.Spell != nil {
			return a.Spell.TargetID
		}
	case KindSkill:
		if a.Skill != nil {
			return a.Skill.TargetID
		}
	}
	return ""
}
