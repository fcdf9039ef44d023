package compendium

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SupportedVersion is the content schema version this build understands.
const SupportedVersion = 1

// ErrSchemaVersion is returned when a content set declares a version this
// build does not support.
var ErrSchemaVersion = errors.New("compendium: unsupported content version")

// Meta is the content set descriptor stored in _meta.json.
type Meta struct {
	Version     int    `json:"version"`
	Name        string `json:"nombre,omitempty"`
	Description string `json:"descripcion,omitempty"`
}

type weaponsFile struct {
	Weapons []*Weapon `json:"armas"`
}

type armorsFile struct {
	Armors  []*Armor  `json:"armaduras"`
	Shields []*Shield `json:"escudos"`
}

type spellsFile struct {
	Spells []*Spell `json:"conjuros"`
}

type monstersFile struct {
	Monsters []*Monster `json:"monstruos"`
}

type itemsFile struct {
	Items []*Item `json:"objetos"`
}

// readCollection decodes one collection file into out. A missing file is
// not an error: content sets may omit whole categories.
func readCollection(dir, name string, out any) error {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %q: %w", path, err)
	}
	return nil
}

// Load reads a content directory into a validated Compendium.
//
// Precondition: dir contains a _meta.json declaring a supported version.
// Postcondition: returns ErrSchemaVersion (wrapped) on a version mismatch;
// on any error the partial result is discarded.
func Load(dir string) (*Compendium, error) {
	metaPath := filepath.Join(dir, "_meta.json")
	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", metaPath, err)
	}
	var meta Meta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, fmt.Errorf("parsing %q: %w", metaPath, err)
	}
	if meta.Version != SupportedVersion {
		return nil, fmt.Errorf("%w: content declares version %d, this build supports %d",
			ErrSchemaVersion, meta.Version, SupportedVersion)
	}

	var (
		weapons  weaponsFile
		armors   armorsFile
		spells   spellsFile
		monsters monstersFile
		items    itemsFile
	)
	if err := readCollection(dir, "armas.json", &weapons); err != nil {
		return nil, err
	}
	if err := readCollection(dir, "armaduras_escudos.json", &armors); err != nil {
		return nil, err
	}
	if err := readCollection(dir, "conjuros.json", &spells); err != nil {
		return nil, err
	}
	if err := readCollection(dir, "monstruos.json", &monsters); err != nil {
		return nil, err
	}
	if err := readCollection(dir, "miscelanea.json", &items); err != nil {
		return nil, err
	}

	return New(Content{
		Weapons:  weapons.Weapons,
		Armors:   armors.Armors,
		Shields:  armors.Shields,
		Spells:   spells.Spells,
		Monsters: monsters.Monsters,
		Items:    items.Items,
	})
}
