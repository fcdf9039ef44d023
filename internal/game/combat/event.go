package combat

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Event types. The narrator and the session log consume these; their
// names and payload keys are part of the persisted history format.
const (
	EventAttack           = "ataque_realizado"
	EventDamage           = "daño_calculado"
	EventSpell            = "conjuro_lanzado"
	EventSlotSpent        = "ranura_gastada"
	EventMove             = "movimiento_realizado"
	EventSkillCheck       = "prueba_habilidad"
	EventGeneric          = "accion_generica"
	EventItemUsed         = "objeto_usado"
	EventHealing          = "curacion_aplicada"
	EventConditionApplied = "condicion_aplicada"
	EventConditionExpired = "condicion_expirada"
	EventCombatantDown    = "combatiente_derribado"
	EventDeathSave        = "salvacion_muerte"
	EventCombatEnded      = "combate_terminado"
)

// Event is one structured fact about something that happened during a
// turn. Events never change state; they describe it for the history and
// the narrator.
type Event struct {
	Type    string         `json:"tipo"`
	ActorID string         `json:"actor_id,omitempty"`
	Data    map[string]any `json:"datos,omitempty"`
}

// HistoryEntry places an event in the encounter timeline.
//
// Invariant: entries are totally ordered by (Round, TurnIndex, EventIndex).
type HistoryEntry struct {
	Round      int    `json:"ronda"`
	TurnIndex  int    `json:"indice_turno"`
	EventIndex int    `json:"indice_evento"`
	ActorID    string `json:"actor_id,omitempty"`
	Event      Event  `json:"evento"`
}

// DamageDelta deals damage to one target.
type DamageDelta struct {
	TargetID string `json:"objetivo_id"`
	Amount   int    `json:"cantidad"`
	Type     string `json:"tipo,omitempty"`
}

// SlotDelta spends one spell slot of the given level.
type SlotDelta struct {
	Level int `json:"nivel"`
}

// HealDelta restores hit points to one target.
type HealDelta struct {
	TargetID string `json:"objetivo_id"`
	Amount   int    `json:"cantidad"`
}

// StateDelta is the only vehicle for changing combat state. Action
// resolution builds one; Manager.Apply commits it exactly once per turn.
//
// Invariant: the struct holds no map fields, so its JSON encoding is
// deterministic and Fingerprint is stable across processes.
type StateDelta struct {
	ActionUsed    bool         `json:"accion_usada,omitempty"`
	BonusUsed     bool         `json:"accion_bonus_usada,omitempty"`
	MovementSpent int          `json:"movimiento_usado,omitempty"`
	MovementBonus int          `json:"movimiento_bonus,omitempty"`
	TempCondition string       `json:"condicion_temporal,omitempty"`
	Damage        *DamageDelta `json:"daño_infligido,omitempty"`
	SlotSpent     *SlotDelta   `json:"ranura_gastada,omitempty"`
	Healing       *HealDelta   `json:"curacion,omitempty"`
}

// Empty reports whether applying the delta would change nothing.
func (d StateDelta) Empty() bool {
	return d == StateDelta{}
}

// Fingerprint returns a short stable hash of the delta, used as the
// idempotency key that detects the same change being applied twice in
// one turn.
func (d StateDelta) Fingerprint() string {
	payload, err := json.Marshal(d)
	if err != nil {
		return "invalid"
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:12]
}
