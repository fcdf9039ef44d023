// Package condition holds the 5e condition catalog and per-combatant
// condition tracking. Definitions come from a built-in registry and can be
// extended or overridden with YAML files.
package condition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Duration types for conditions.
const (
	DurationRounds    = "rounds"
	DurationUntilSave = "until_save"
	DurationPermanent = "permanent"
)

// Definition is the static definition of a condition.
//
// The boolean flags are what the rest of the engine consumes: the validator
// checks BlocksActions and BlocksMovement, the attack resolution checks the
// advantage flags.
type Definition struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// DurationType is "rounds", "until_save" or "permanent".
	DurationType string `yaml:"duration_type"`
	// MaxStacks is 0 for unstackable conditions.
	MaxStacks int `yaml:"max_stacks"`
	// BlocksActions prevents taking any action while active.
	BlocksActions bool `yaml:"blocks_actions"`
	// BlocksMovement prevents voluntary movement while active.
	BlocksMovement bool `yaml:"blocks_movement"`
	// AttackDisadvantage imposes disadvantage on the bearer's attack rolls.
	AttackDisadvantage bool `yaml:"attack_disadvantage"`
	// IncomingAdvantage grants advantage to attacks against the bearer.
	IncomingAdvantage bool `yaml:"incoming_advantage"`
	// IncomingDisadvantage imposes disadvantage on attacks against the bearer.
	IncomingDisadvantage bool `yaml:"incoming_disadvantage"`
}

// Registry holds all known Definitions keyed by ID.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Definition) {
	r.defs[def.ID] = def
}

// Get returns the Definition for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Definitions.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// LoadDirectory reads every *.yaml file in dir and registers each as a
// Definition, overriding any built-in with the same ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: every parsed file is registered, or an error names the file
// that failed.
func (r *Registry) LoadDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading condition dir %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		var def Definition
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return fmt.Errorf("parsing %q: %w", path, err)
		}
		if def.ID == "" {
			return fmt.Errorf("parsing %q: condition id must not be empty", path)
		}
		r.Register(&def)
	}
	return nil
}

// BuiltinRegistry returns a registry preloaded with the standard 5e
// conditions under their Spanish identifiers.
func BuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, def := range builtins {
		d := def
		r.Register(&d)
	}
	return r
}

var builtins = []Definition{
	{
		ID: "agarrado", Name: "Agarrado",
		Description:    "Su velocidad es 0 mientras dure el agarre.",
		DurationType:   DurationPermanent,
		BlocksMovement: true,
	},
	{
		ID: "agotamiento", Name: "Agotamiento",
		Description:  "Penalizaciones acumulativas por fatiga, hasta seis niveles.",
		DurationType: DurationPermanent,
		MaxStacks:    6,
	},
	{
		ID: "apresado", Name: "Apresado",
		Description:        "Velocidad 0, desventaja en sus ataques y ventaja en los ataques que recibe.",
		DurationType:       DurationPermanent,
		BlocksMovement:     true,
		AttackDisadvantage: true,
		IncomingAdvantage:  true,
	},
	{
		ID: "asustado", Name: "Asustado",
		Description:        "Desventaja en ataques y pruebas mientras la fuente del miedo esté a la vista.",
		DurationType:       DurationUntilSave,
		AttackDisadvantage: true,
	},
	{
		ID: "aturdido", Name: "Aturdido",
		Description:       "No puede actuar ni moverse; los ataques contra él tienen ventaja.",
		DurationType:      DurationRounds,
		BlocksActions:     true,
		BlocksMovement:    true,
		IncomingAdvantage: true,
	},
	{
		ID: "cegado", Name: "Cegado",
		Description:        "No ve: sus ataques tienen desventaja y los que recibe, ventaja.",
		DurationType:       DurationPermanent,
		AttackDisadvantage: true,
		IncomingAdvantage:  true,
	},
	{
		ID: "derribado", Name: "Derribado",
		Description:        "Tumbado en el suelo; sus ataques tienen desventaja y los cuerpo a cuerpo contra él, ventaja.",
		DurationType:       DurationPermanent,
		AttackDisadvantage: true,
		IncomingAdvantage:  true,
	},
	{
		ID: "ensordecido", Name: "Ensordecido",
		Description:  "No oye; falla automáticamente las pruebas que dependan del oído.",
		DurationType: DurationPermanent,
	},
	{
		ID: "envenenado", Name: "Envenenado",
		Description:        "Desventaja en tiradas de ataque y pruebas de característica.",
		DurationType:       DurationUntilSave,
		AttackDisadvantage: true,
	},
	{
		ID: "esquivando", Name: "Esquivando",
		Description:          "Hasta su próximo turno los ataques contra él tienen desventaja.",
		DurationType:         DurationRounds,
		IncomingDisadvantage: true,
	},
	{
		ID: "hechizado", Name: "Hechizado",
		Description:  "No puede atacar a quien lo hechizó.",
		DurationType: DurationUntilSave,
	},
	{
		ID: "incapacitado", Name: "Incapacitado",
		Description:   "No puede realizar acciones ni reacciones.",
		DurationType:  DurationRounds,
		BlocksActions: true,
	},
	{
		ID: "inconsciente", Name: "Inconsciente",
		Description:       "Inerte: no actúa, no se mueve y los ataques contra él tienen ventaja.",
		DurationType:      DurationPermanent,
		BlocksActions:     true,
		BlocksMovement:    true,
		IncomingAdvantage: true,
	},
	{
		ID: "invisible", Name: "Invisible",
		Description:          "No puede ser visto: sus ataques tienen ventaja y los que recibe, desventaja.",
		DurationType:         DurationPermanent,
		IncomingDisadvantage: true,
	},
	{
		ID: "paralizado", Name: "Paralizado",
		Description:       "Incapacitado por completo; los ataques contra él tienen ventaja.",
		DurationType:      DurationUntilSave,
		BlocksActions:     true,
		BlocksMovement:    true,
		IncomingAdvantage: true,
	},
	{
		ID: "petrificado", Name: "Petrificado",
		Description:    "Convertido en piedra; no puede actuar ni moverse.",
		DurationType:   DurationPermanent,
		BlocksActions:  true,
		BlocksMovement: true,
	},
}
