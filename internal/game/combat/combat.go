// Package combat tracks turn-ordered encounters: who fights, in which
// order, what each combatant has left this turn, and how the fight ends.
//
// The Manager owns all mutable encounter state. Actions never touch it
// directly; they describe their effects as a StateDelta plus Events, and
// Apply commits them exactly once. That split keeps action resolution
// pure and makes replays detectable.
package combat

import (
	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/character"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/condition"
	"github.com/icruces/mazmorra/internal/game/rules"
)

// Side says which team a combatant fights for. Victory and defeat are
// decided by counting standing PCs against standing enemies; allies and
// neutrals influence the fight but never its outcome.
type Side string

const (
	SidePC      Side = "pc"
	SideAlly    Side = "aliado"
	SideEnemy   Side = "enemigo"
	SideNeutral Side = "neutral"
)

// State is the lifecycle of an encounter.
type State string

const (
	StateNotStarted State = "no_iniciado"
	StateRunning    State = "en_curso"
	StateVictory    State = "victoria"
	StateDefeat     State = "derrota"
	StateDraw       State = "empate"
	StateFled       State = "huida"
	StateEnded      State = "terminado"
)

// Over reports whether the encounter has reached a terminal state.
func (s State) Over() bool {
	return s != StateNotStarted && s != StateRunning
}

const defaultSpeedFt = 30

// Combatant is one roster entry. The stat block fields are fixed at the
// moment the combatant joins; everything below them changes as the fight
// runs.
//
// Invariant: 0 <= HP <= HPMax and HPTemp >= 0 at all times.
// Invariant: a Dead combatant never becomes alive again.
type Combatant struct {
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
	HPTemp          int                  `json:"hp_temporal"`
	SlotsRemaining  map[int]int          `json:"ranuras_restantes,omitempty"`
	Conditions      *condition.ActiveSet `json:"-"`
	ConcentratingOn string               `json:"concentracion_en,omitempty"`

	Initiative   int  `json:"iniciativa"`
	ActionUsed   bool `json:"accion_usada"`
	BonusUsed    bool `json:"accion_bonus_usada"`
	ReactionUsed bool `json:"reaccion_usada"`
	MovementUsed int  `json:"movimiento_usado"`

	Unconscious bool                 `json:"inconsciente"`
	Dead        bool                 `json:"muerto"`
	Stable      bool                 `json:"estable"`
	DeathSaves  character.DeathSaves `json:"salvaciones_muerte"`
}

// Alive reports whether the combatant still holds a place in the turn
// order. Unconscious combatants are alive: they keep their turns so death
// saving throws can happen on them.
func (c *Combatant) Alive() bool {
	return !c.Dead
}

// Down reports whether the combatant is out of the fight, dead or
// unconscious. Termination checks count the standing, not the down.
func (c *Combatant) Down() bool {
	return c.Dead || c.Unconscious
}

// CanAct reports whether the combatant may take actions right now.
func (c *Combatant) CanAct() bool {
	if c.Dead || c.Unconscious {
		return false
	}
	if c.Conditions != nil {
		if _, blocked := c.Conditions.BlocksActions(); blocked {
			return false
		}
	}
	return true
}

// MovementRemaining returns the feet of movement left this turn. Dash is
// modeled as negative MovementUsed, so the result can exceed Speed.
func (c *Combatant) MovementRemaining() int {
	remaining := c.Speed - c.MovementUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetTurn restores the per-turn action economy. Called when the
// combatant's turn begins.
//
// Postcondition: action, bonus action and reaction are available and
// MovementRemaining equals Speed.
func (c *Combatant) ResetTurn() {
	c.ActionUsed = false
	c.BonusUsed = false
	c.ReactionUsed = false
	c.MovementUsed = 0
}

// AbilityScore returns the named ability score, defaulting to 10 when the
// combatant has no entry for it.
func (c *Combatant) AbilityScore(name string) int {
	if score, ok := c.Abilities[name]; ok {
		return score
	}
	return 10
}

// DexMod returns the Dexterity modifier, the initiative bonus and
// tie-breaker.
func (c *Combatant) DexMod() int {
	return rules.AbilityModifier(c.AbilityScore(rules.Destreza))
}

// conditionIDs returns the active condition identifiers, nil-safe.
func (c *Combatant) conditionIDs() []string {
	if c.Conditions == nil {
		return []string{}
	}
	return c.Conditions.IDs()
}

// normalize fills the defaults a sparsely built Combatant relies on.
// Called once when the combatant joins a Manager. A combatant at 0 HP that
// is neither down nor dead is treated as unset and starts at full HP.
func (c *Combatant) normalize() {
	if c.Speed <= 0 {
		c.Speed = defaultSpeedFt
	}
	if c.HP == 0 && !c.Dead && !c.Unconscious {
		c.HP = c.HPMax
	}
	if c.Conditions == nil {
		c.Conditions = condition.NewActiveSet()
	}
}
