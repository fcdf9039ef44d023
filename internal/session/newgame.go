package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/icruces/mazmorra/internal/game/character"
	"github.com/icruces/mazmorra/internal/game/rules"
)

// classKit is a ready-to-play level 1 loadout. Kits keep campaign
// creation to two questions: a name and a class.
type classKit struct {
	Class     string
	Label     string
	Blurb     string
	Race      string
	SpeedFt   int
	Abilities map[string]int
	Saves     []string
	Skills    []string
	Equipment character.Equipment
	Inventory []character.InventoryEntry
	Casting   *character.Spellcasting
	Money     Purse
}

// classKits returns the playable starting kits. Every compendium
// reference here must exist in the shipped content pack.
func classKits() []classKit {
	return []classKit{
		{
			Class:   "guerrero",
			Label:   "Guerrero",
			Blurb:   "Cota de malla, escudo y espada larga. Aguanta y golpea fuerte.",
			Race:    "humano",
			SpeedFt: 30,
			Abilities: map[string]int{
				rules.Fuerza: 15, rules.Destreza: 13, rules.Constitucion: 14,
				rules.Inteligencia: 8, rules.Sabiduria: 12, rules.Carisma: 10,
			},
			Saves:  []string{rules.Fuerza, rules.Constitucion},
			Skills: []string{"atletismo", "intimidacion"},
			Equipment: character.Equipment{
				ArmorRef:    "cota_malla",
				ShieldRef:   "escudo",
				MainHandRef: "espada_larga",
			},
			Inventory: []character.InventoryEntry{
				{Ref: "pocion_curacion", Quantity: 2},
				{Ref: "racion", Quantity: 5},
				{Ref: "antorcha", Quantity: 3},
			},
			Money: Purse{Gold: 10},
		},
		{
			Class:   "explorador",
			Label:   "Explorador",
			Blurb:   "Arco corto, daga y armadura de cuero. Dispara antes de ser visto.",
			Race:    "elfo",
			SpeedFt: 30,
			Abilities: map[string]int{
				rules.Fuerza: 12, rules.Destreza: 15, rules.Constitucion: 13,
				rules.Inteligencia: 10, rules.Sabiduria: 14, rules.Carisma: 8,
			},
			Saves:  []string{rules.Fuerza, rules.Destreza},
			Skills: []string{"percepcion", "sigilo", "supervivencia"},
			Equipment: character.Equipment{
				ArmorRef:    "armadura_cuero",
				MainHandRef: "arco_corto",
				OffHandRef:  "daga",
			},
			Inventory: []character.InventoryEntry{
				{Ref: "pocion_curacion", Quantity: 1},
				{Ref: "racion", Quantity: 10},
			},
			Money: Purse{Gold: 8},
		},
		{
			Class:   "mago",
			Label:   "Mago",
			Blurb:   "Bastón, libro de conjuros y poca armadura. Quema desde lejos.",
			Race:    "gnomo",
			SpeedFt: 25,
			Abilities: map[string]int{
				rules.Fuerza: 8, rules.Destreza: 14, rules.Constitucion: 13,
				rules.Inteligencia: 15, rules.Sabiduria: 12, rules.Carisma: 10,
			},
			Saves:  []string{rules.Inteligencia, rules.Sabiduria},
			Skills: []string{"arcanos", "investigacion"},
			Equipment: character.Equipment{
				MainHandRef: "baston",
			},
			Inventory: []character.InventoryEntry{
				{Ref: "pocion_curacion", Quantity: 1},
				{Ref: "racion", Quantity: 5},
			},
			Casting: &character.Spellcasting{
				Ability:  rules.Inteligencia,
				Known:    []string{"rayo_escarcha", "proyectil_magico", "manos_ardientes"},
				SlotsMax: map[int]int{1: 2},
			},
			Money: Purse{Gold: 15},
		},
		{
			Class:   "clerigo",
			Label:   "Clérigo",
			Blurb:   "Maza, escamas y favor divino. Cura a los suyos y castiga al resto.",
			Race:    "enano",
			SpeedFt: 25,
			Abilities: map[string]int{
				rules.Fuerza: 13, rules.Destreza: 10, rules.Constitucion: 14,
				rules.Inteligencia: 8, rules.Sabiduria: 15, rules.Carisma: 12,
			},
			Saves:  []string{rules.Sabiduria, rules.Carisma},
			Skills: []string{"medicina", "religion"},
			Equipment: character.Equipment{
				ArmorRef:    "armadura_escamas",
				ShieldRef:   "escudo",
				MainHandRef: "maza",
			},
			Inventory: []character.InventoryEntry{
				{Ref: "pocion_curacion", Quantity: 1},
				{Ref: "racion", Quantity: 5},
			},
			Casting: &character.Spellcasting{
				Ability:  rules.Sabiduria,
				Known:    []string{"llama_sagrada"},
				Prepared: []string{"curar_heridas"},
				SlotsMax: map[int]int{1: 2},
			},
			Money: Purse{Gold: 12},
		},
	}
}

// source assembles the level 1 character sheet for this kit.
func (k classKit) source(name string) character.Source {
	return character.Source{
		Name:      name,
		Race:      k.Race,
		Class:     k.Class,
		Level:     1,
		Abilities: k.Abilities,
		SpeedFt:   k.SpeedFt,
		Proficiencies: character.Proficiencies{
			Saves:  k.Saves,
			Skills: k.Skills,
		},
		Equipment:    k.Equipment,
		Inventory:    k.Inventory,
		Spellcasting: k.Casting,
	}
}

// kitByChoice matches player input against the kits: a 1-based number,
// the class id or the label, ignoring case and accents.
func kitByChoice(kits []classKit, input string) (classKit, bool) {
	input = strings.TrimSpace(input)
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(kits) {
			return kits[n-1], true
		}
		return classKit{}, false
	}
	slug := rules.Slug(input)
	for _, k := range kits {
		if slug == k.Class || slug == rules.Slug(k.Label) {
			return k, true
		}
	}
	return classKit{}, false
}

// ClassChoice lists the starting kits for the new-game interview.
func (r *Renderer) ClassChoice(kits []classKit) {
	r.print("%s\n", r.paint(ansiBold, "Elige una clase:"))
	for i, k := range kits {
		r.print("  %s %-12s %s\n", r.paint(ansiBold, fmt.Sprintf("%d.", i+1)), k.Label, r.paint(ansiDim, k.Blurb))
	}
}

// createCampaign interviews the player and founds a fresh campaign.
//
// Postcondition: on success the session holds a live character and the
// repository has the initial row.
func (s *Session) createCampaign(ctx context.Context, name string) error {
	s.render.Notice("Creamos una partida nueva.")

	if name == "" {
		answer, err := s.ask("Nombre de la partida")
		if err != nil {
			return err
		}
		name = strings.TrimSpace(answer)
		if name == "" {
			name = "Partida " + time.Now().Format("2006-01-02")
		}
	}

	hero, err := s.ask("Nombre de tu personaje")
	if err != nil {
		return err
	}
	hero = strings.TrimSpace(hero)
	if hero == "" {
		hero = "Aventurero"
	}

	kits := classKits()
	s.render.ClassChoice(kits)
	var kit classKit
	for {
		answer, err := s.ask("Clase (número o nombre)")
		if err != nil {
			return err
		}
		var ok bool
		if kit, ok = kitByChoice(kits, answer); ok {
			break
		}
		s.render.Info("No conozco esa clase. Prueba con el número o el nombre de la lista.")
	}

	pc, err := character.New(kit.source(hero), s.comp, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("create character: %w", err)
	}
	if err := s.foundCampaign(ctx, name, kit, pc); err != nil {
		return err
	}

	s.render.Info(fmt.Sprintf("Partida %q creada.", name))
	s.render.Sheet(s.pc, s.journal.Stats)
	return nil
}

// foundCampaign installs the fresh state and writes the initial row.
// It holds the state lock so a shutdown save never sees half a campaign.
func (s *Session) foundCampaign(ctx context.Context, name string, kit classKit, pc *character.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.campaign = name
	s.pc = pc
	s.inv = Inventory{Equipment: pc.Source.Equipment, Items: pc.Source.Inventory, Money: kit.Money}
	s.roster = Roster{}
	s.journal = Journal{}
	s.meta = Metadata{NarrationStyle: string(s.style)}
	if seed, ok := s.rollerSeed(); ok {
		s.meta.Seed = &seed
	}
	s.journal.Append(journalSystem, fmt.Sprintf("Comienza la aventura de %s, %s de nivel 1.", pc.Source.Name, strings.ToLower(kit.Label)))

	camp, err := s.buildCampaign()
	if err != nil {
		return err
	}
	created, err := s.repo.Create(ctx, camp)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	s.campaignID = created.ID
	return nil
}
