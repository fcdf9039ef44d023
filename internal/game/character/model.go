// Package character models the player character sheet as three regions:
// Source holds the player-chosen facts, Derived holds everything computable
// from Source, and Current holds the mutable play state. Derived is never
// edited by hand; Recompute rebuilds it whenever Source changes.
package character

import (
	"errors"
	"fmt"
	"time"

	"github.com/icruces/mazmorra/internal/game/condition"
	"github.com/icruces/mazmorra/internal/game/rules"
)

// Trait ids with mechanical effects on derivation. Option carries the chosen
// variant for features that have one.
const (
	// TraitFightingStyle with StyleDefense grants +1 AC while wearing armor.
	TraitFightingStyle = "estilo_combate"
	StyleDefense       = "defensa"

	// TraitDwarvenToughness grants +1 hit point per level.
	TraitDwarvenToughness = "dureza_enana"
)

// Trait is a racial or class feature reference.
type Trait struct {
	ID     string `json:"id"`
	Option string `json:"opcion,omitempty"`
}

// Equipment references the compendium entries the character has readied.
// An empty ref means the slot is empty.
type Equipment struct {
	ArmorRef    string `json:"armadura,omitempty"`
	ShieldRef   string `json:"escudo,omitempty"`
	MainHandRef string `json:"arma_principal,omitempty"`
	OffHandRef  string `json:"arma_secundaria,omitempty"`
}

// InventoryEntry is one stack of carried items.
type InventoryEntry struct {
	Ref      string `json:"ref"`
	Quantity int    `json:"cantidad"`
}

// Spellcasting holds the casting facts for classes that cast. Ability is the
// governing ability id; SlotsMax is keyed by slot level 1-9.
type Spellcasting struct {
	Ability  string      `json:"atributo"`
	Known    []string    `json:"conocidos,omitempty"`
	Prepared []string    `json:"preparados,omitempty"`
	SlotsMax map[int]int `json:"ranuras_maximas,omitempty"`
}

// Knows reports whether the spell is on the character's list. Known covers
// cantrips and always-known spells; Prepared covers preparing classes.
func (s *Spellcasting) Knows(spellID string) bool {
	if s == nil {
		return false
	}
	for _, id := range s.Known {
		if id == spellID {
			return true
		}
	}
	for _, id := range s.Prepared {
		if id == spellID {
			return true
		}
	}
	return false
}

// Proficiencies lists what the character is trained in. Skill ids use the
// canonical Spanish spellings; Expertise doubles the proficiency bonus and
// implies membership in Skills.
type Proficiencies struct {
	Saves     []string `json:"salvaciones,omitempty"`
	Skills    []string `json:"habilidades,omitempty"`
	Expertise []string `json:"especializacion,omitempty"`
}

// Source is the player-authored half of the sheet, mutated only by level-up
// and explicit equip or learn actions. Abilities are the final scores with
// racial bonuses already applied. SpeedFt of zero means the default of 30.
type Source struct {
	Name          string           `json:"nombre"`
	Race          string           `json:"raza,omitempty"`
	Class         string           `json:"clase"`
	Level         int              `json:"nivel"`
	Background    string           `json:"trasfondo,omitempty"`
	Abilities     map[string]int   `json:"caracteristicas"`
	SpeedFt       int              `json:"velocidad,omitempty"`
	Traits        []Trait          `json:"rasgos,omitempty"`
	Proficiencies Proficiencies    `json:"competencias"`
	Equipment     Equipment        `json:"equipo"`
	Inventory     []InventoryEntry `json:"inventario,omitempty"`
	Spellcasting  *Spellcasting    `json:"conjuros,omitempty"`
}

// HasTrait reports whether the character has the trait. A non-empty option
// additionally requires the trait to have been taken with that option.
func (s *Source) HasTrait(id, option string) bool {
	for _, t := range s.Traits {
		if t.ID != id {
			continue
		}
		if option == "" || t.Option == option {
			return true
		}
	}
	return false
}

// Validate checks the facts a sheet cannot function without.
func (s *Source) Validate() error {
	if s.Name == "" {
		return errors.New("character needs a name")
	}
	if s.Class == "" {
		return fmt.Errorf("character %q needs a class", s.Name)
	}
	if s.Level < 1 || s.Level > 20 {
		return fmt.Errorf("character %q level %d out of range 1-20", s.Name, s.Level)
	}
	for _, ability := range rules.Abilities {
		score, ok := s.Abilities[ability]
		if !ok {
			return fmt.Errorf("character %q missing ability %q", s.Name, ability)
		}
		if score < 1 || score > 30 {
			return fmt.Errorf("character %q ability %q score %d out of range 1-30", s.Name, ability, score)
		}
	}
	if s.Spellcasting != nil {
		if _, ok := s.Abilities[s.Spellcasting.Ability]; !ok {
			return fmt.Errorf("character %q casting ability %q unknown", s.Name, s.Spellcasting.Ability)
		}
		for level, count := range s.Spellcasting.SlotsMax {
			if level < 1 || level > 9 {
				return fmt.Errorf("character %q slot level %d out of range 1-9", s.Name, level)
			}
			if count < 0 {
				return fmt.Errorf("character %q has %d slots of level %d", s.Name, count, level)
			}
		}
	}
	return nil
}

// Derived is everything computable from Source. Recompute overwrites it
// wholesale; nothing else may write to it.
type Derived struct {
	Abilities        map[string]int `json:"caracteristicas"`
	Modifiers        map[string]int `json:"modificadores"`
	ProfBonus        int            `json:"bonificador_competencia"`
	HPMax            int            `json:"puntos_golpe_maximo"`
	HitDie           string         `json:"dado_golpe"`
	AC               int            `json:"clase_armadura"`
	SpeedFt          int            `json:"velocidad"`
	InitiativeMod    int            `json:"iniciativa"`
	Saves            map[string]int `json:"salvaciones"`
	Skills           map[string]int `json:"habilidades"`
	SpellSaveDC      int            `json:"cd_conjuros,omitempty"`
	SpellAttackBonus int            `json:"ataque_conjuros,omitempty"`
	CarryCapacityLb  int            `json:"capacidad_carga_lb"`
	RecomputedAt     time.Time      `json:"recalculado_en"`
}

// DeathSaves tracks the saving throws of a dying character. Both counters
// stay in 0-3.
type DeathSaves struct {
	Successes int `json:"exitos"`
	Failures  int `json:"fallos"`
}

// Current is the mutable play state.
//
// Invariant: 0 <= HP <= Derived.HPMax and HPTemp >= 0.
// Invariant: Dead and Stable never hold together, and each one stops
// death-save rolling.
type Current struct {
	HP             int                  `json:"puntos_golpe_actual"`
	HPTemp         int                  `json:"puntos_golpe_temporales"`
	Conditions     []condition.Snapshot `json:"condiciones"`
	Unconscious    bool                 `json:"inconsciente"`
	Stable         bool                 `json:"estable"`
	Dead           bool                 `json:"muerto"`
	DeathSaves     DeathSaves           `json:"salvaciones_muerte"`
	SlotsRemaining map[int]int          `json:"ranuras_restantes,omitempty"`
	HitDiceLeft    int                  `json:"dados_golpe_restantes"`
	XP             int                  `json:"experiencia"`
}

// Character is a full sheet. The JSON region names mirror the three-region
// split.
type Character struct {
	ID      string  `json:"id"`
	Source  Source  `json:"source"`
	Derived Derived `json:"derived"`
	Current Current `json:"current"`
}
