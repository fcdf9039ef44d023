package combat

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/character"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/condition"
	"github.com/icruces/mazmorra/internal/game/dice"
)

// CombatantSnapshot is the serialized form of one roster entry.
type CombatantSnapshot struct {
	ID            string `json:"id"`
	Name          string `json:"nombre"`
	Side          Side   `json:"tipo"`
	CompendiumRef string `json:"compendio_ref,omitempty"`

	HPMax       int            `json:"hp_maximo"`
	AC          int            `json:"clase_armadura"`
	Speed       int            `json:"velocidad"`
	Abilities   map[string]int `json:"atributos,omitempty"`
	Proficiency int            `json:"bonificador_competencia,omitempty"`

	PrimaryWeapon   *action.SceneWeapon        `json:"arma_principal,omitempty"`
	SecondaryWeapon *action.SceneWeapon        `json:"arma_secundaria,omitempty"`
	KnownSpells     []string                   `json:"conjuros_conocidos,omitempty"`
	Actions         []compendium.MonsterAction `json:"acciones,omitempty"`

	HP              int                  `json:"hp_actual"`
	HPTemp          int                  `json:"hp_temporal,omitempty"`
	SlotsRemaining  map[int]int          `json:"ranuras_restantes,omitempty"`
	Conditions      []condition.Snapshot `json:"condiciones,omitempty"`
	ConcentratingOn string               `json:"concentracion_en,omitempty"`

	Initiative   int  `json:"iniciativa"`
	ActionUsed   bool `json:"accion_usada,omitempty"`
	BonusUsed    bool `json:"accion_bonus_usada,omitempty"`
	ReactionUsed bool `json:"reaccion_usada,omitempty"`
	MovementUsed int  `json:"movimiento_usado,omitempty"`

	Unconscious bool                 `json:"inconsciente,omitempty"`
	Dead        bool                 `json:"muerto,omitempty"`
	Stable      bool                 `json:"estable,omitempty"`
	DeathSaves  character.DeathSaves `json:"salvaciones_muerte"`
}

// Snapshot is the full serializable state of a Manager. Restoring one
// and snapshotting again yields an identical value.
type Snapshot struct {
	State      State               `json:"estado"`
	Round      int                 `json:"ronda"`
	TurnIndex  int                 `json:"indice_turno"`
	CurrentID  string              `json:"combatiente_actual,omitempty"`
	Added      []string            `json:"orden_entrada"`
	Order      []string            `json:"orden_iniciativa,omitempty"`
	Combatants []CombatantSnapshot `json:"combatientes"`
	History    []HistoryEntry      `json:"historial,omitempty"`
	Applied    []string            `json:"cambios_aplicados,omitempty"`
	EventSeq   int                 `json:"secuencia_eventos,omitempty"`
}

// Snapshot captures the complete encounter state for persistence.
//
// Postcondition: later mutations of the Manager do not affect the result.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		State:     m.state,
		Round:     m.round,
		TurnIndex: m.turnIndex,
		CurrentID: m.currentID,
		Added:     append([]string{}, m.added...),
		Order:     append([]string{}, m.order...),
		EventSeq:  m.eventSeq,
	}
	for _, id := range m.added {
		snap.Combatants = append(snap.Combatants, snapshotCombatant(m.combatants[id]))
	}
	if len(m.history) > 0 {
		snap.History = append([]HistoryEntry{}, m.history...)
	}
	for key := range m.applied {
		snap.Applied = append(snap.Applied, key)
	}
	sort.Strings(snap.Applied)
	return snap
}

func snapshotCombatant(c *Combatant) CombatantSnapshot {
	cs := CombatantSnapshot{
		ID:              c.ID,
		Name:            c.Name,
		Side:            c.Side,
		CompendiumRef:   c.CompendiumRef,
		HPMax:           c.HPMax,
		AC:              c.AC,
		Speed:           c.Speed,
		Proficiency:     c.Proficiency,
		HP:              c.HP,
		HPTemp:          c.HPTemp,
		ConcentratingOn: c.ConcentratingOn,
		Initiative:      c.Initiative,
		ActionUsed:      c.ActionUsed,
		BonusUsed:       c.BonusUsed,
		ReactionUsed:    c.ReactionUsed,
		MovementUsed:    c.MovementUsed,
		Unconscious:     c.Unconscious,
		Dead:            c.Dead,
		Stable:          c.Stable,
		DeathSaves:      c.DeathSaves,
	}
	if len(c.Abilities) > 0 {
		cs.Abilities = make(map[string]int, len(c.Abilities))
		for ability, score := range c.Abilities {
			cs.Abilities[ability] = score
		}
	}
	if c.PrimaryWeapon != nil {
		w := *c.PrimaryWeapon
		cs.PrimaryWeapon = &w
	}
	if c.SecondaryWeapon != nil {
		w := *c.SecondaryWeapon
		cs.SecondaryWeapon = &w
	}
	if len(c.KnownSpells) > 0 {
		cs.KnownSpells = append([]string{}, c.KnownSpells...)
	}
	if len(c.Actions) > 0 {
		cs.Actions = append([]compendium.MonsterAction{}, c.Actions...)
	}
	if len(c.SlotsRemaining) > 0 {
		cs.SlotsRemaining = make(map[int]int, len(c.SlotsRemaining))
		for level, left := range c.SlotsRemaining {
			cs.SlotsRemaining[level] = left
		}
	}
	if c.Conditions != nil {
		cs.Conditions = c.Conditions.Snapshots()
	}
	return cs
}

// Restore rebuilds a Manager from a snapshot. The compendium, condition
// registry, roller and logger are runtime wiring and come from the
// caller, not the snapshot.
//
// Postcondition: Snapshot() on the result equals the input.
func Restore(snap Snapshot, comp *compendium.Compendium, reg *condition.Registry, roller *dice.Roller, logger *zap.Logger) (*Manager, error) {
	m := NewManager(comp, reg, roller, logger)

	for _, cs := range snap.Combatants {
		c, err := restoreCombatant(cs, m.reg)
		if err != nil {
			return nil, err
		}
		m.combatants[c.ID] = c
	}

	m.added = append([]string{}, snap.Added...)
	if len(m.added) == 0 {
		for _, cs := range snap.Combatants {
			m.added = append(m.added, cs.ID)
		}
	}
	m.order = append([]string{}, snap.Order...)
	for _, id := range append(append([]string{}, m.added...), m.order...) {
		if _, ok := m.combatants[id]; !ok {
			return nil, fmt.Errorf("snapshot references unknown combatant %q", id)
		}
	}

	m.state = snap.State
	if m.state == "" {
		m.state = StateNotStarted
	}
	m.round = snap.Round
	m.turnIndex = snap.TurnIndex
	m.currentID = snap.CurrentID
	m.eventSeq = snap.EventSeq
	if len(snap.History) > 0 {
		m.history = append([]HistoryEntry{}, snap.History...)
	}
	for _, key := range snap.Applied {
		m.applied[key] = struct{}{}
	}

	if m.state == StateRunning {
		if _, ok := m.combatants[m.currentID]; !ok {
			return nil, fmt.Errorf("snapshot running but current combatant %q unknown", m.currentID)
		}
		if m.turnIndex < 0 || m.turnIndex >= len(m.order) {
			return nil, fmt.Errorf("snapshot turn index %d out of range", m.turnIndex)
		}
	}
	return m, nil
}

func restoreCombatant(cs CombatantSnapshot, reg *condition.Registry) (*Combatant, error) {
	conditions, err := condition.RestoreSet(reg, cs.Conditions)
	if err != nil {
		return nil, fmt.Errorf("restoring conditions for %q: %w", cs.ID, err)
	}

	c := &Combatant{
		ID:              cs.ID,
		Name:            cs.Name,
		Side:            cs.Side,
		CompendiumRef:   cs.CompendiumRef,
		HPMax:           cs.HPMax,
		AC:              cs.AC,
		Speed:           cs.Speed,
		Proficiency:     cs.Proficiency,
		HP:              cs.HP,
		HPTemp:          cs.HPTemp,
		Conditions:      conditions,
		ConcentratingOn: cs.ConcentratingOn,
		Initiative:      cs.Initiative,
		ActionUsed:      cs.ActionUsed,
		BonusUsed:       cs.BonusUsed,
		ReactionUsed:    cs.ReactionUsed,
		MovementUsed:    cs.MovementUsed,
		Unconscious:     cs.Unconscious,
		Dead:            cs.Dead,
		Stable:          cs.Stable,
		DeathSaves:      cs.DeathSaves,
	}
	if len(cs.Abilities) > 0 {
		c.Abilities = make(map[string]int, len(cs.Abilities))
		for ability, score := range cs.Abilities {
			c.Abilities[ability] = score
		}
	}
	if cs.PrimaryWeapon != nil {
		w := *cs.PrimaryWeapon
		c.PrimaryWeapon = &w
	}
	if cs.SecondaryWeapon != nil {
		w := *cs.SecondaryWeapon
		c.SecondaryWeapon = &w
	}
	if len(cs.KnownSpells) > 0 {
		c.KnownSpells = append([]string{}, cs.KnownSpells...)
	}
	if len(cs.Actions) > 0 {
		c.Actions = append([]compendium.MonsterAction{}, cs.Actions...)
	}
	if len(cs.SlotsRemaining) > 0 {
		c.SlotsRemaining = make(map[int]int, len(cs.SlotsRemaining))
		for level, left := range cs.SlotsRemaining {
			c.SlotsRemaining[level] = left
		}
	}
	return c, nil
}
