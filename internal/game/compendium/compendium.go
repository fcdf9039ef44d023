// Package compendium provides read-only access to the game's reference
// content (weapons, armor, shields, spells, monsters, misc items) and an
// instance factory for materializing entries into play. It is a data
// adapter: rule consequences (spell scaling, attack ability choice) belong
// to the rules and pipeline packages.
package compendium

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/icruces/mazmorra/internal/game/dice"
	"github.com/icruces/mazmorra/internal/game/rules"
)

// ErrNotFound is returned by the factory when a compendium reference does
// not resolve.
var ErrNotFound = errors.New("compendium: entry not found")

// Category identifies which collection an entry belongs to. Values match
// the persisted save format.
type Category string

// Category values.
const (
	CategoryWeapon  Category = "arma"
	CategoryArmor   Category = "armadura"
	CategoryShield  Category = "escudo"
	CategorySpell   Category = "conjuro"
	CategoryMonster Category = "monstruo"
	CategoryItem    Category = "objeto"
)

// Weapon category values for the categoria field.
const (
	WeaponMelee  = "cuerpo_a_cuerpo"
	WeaponRanged = "distancia"
)

// Weapon is a weapon entry.
type Weapon struct {
	ID          string   `json:"id"`
	Name        string   `json:"nombre"`
	Damage      string   `json:"daño"`
	DamageType  string   `json:"tipo_daño"`
	Properties  []string `json:"propiedades,omitempty"`
	Category    string   `json:"categoria,omitempty"`
	Range       string   `json:"alcance,omitempty"`
	WeightLb    float64  `json:"peso,omitempty"`
	IsMagical   bool     `json:"is_magical,omitempty"`
	Description string   `json:"descripcion,omitempty"`
}

// IsRanged reports whether the weapon attacks at range.
func (w *Weapon) IsRanged() bool {
	return w.Category == WeaponRanged
}

// HasProperty reports whether the weapon carries the named property
// (e.g. "sutil", "versatil", "arrojadiza").
func (w *Weapon) HasProperty(name string) bool {
	for _, p := range w.Properties {
		if p == name {
			return true
		}
	}
	return false
}

func (w *Weapon) validate() error {
	if w.ID == "" {
		return fmt.Errorf("weapon: id must not be empty")
	}
	if w.Name == "" {
		return fmt.Errorf("weapon %q: nombre must not be empty", w.ID)
	}
	if _, err := dice.Parse(w.Damage); err != nil {
		return fmt.Errorf("weapon %q: daño %q: %w", w.ID, w.Damage, err)
	}
	if w.DamageType == "" {
		return fmt.Errorf("weapon %q: tipo_daño must not be empty", w.ID)
	}
	return nil
}

// Armor is an armor entry. MaxDexMod nil means the DEX modifier is uncapped.
type Armor struct {
	ID                  string  `json:"id"`
	Name                string  `json:"nombre"`
	BaseAC              int     `json:"ca_base"`
	MaxDexMod           *int    `json:"max_mod_destreza"`
	StrengthReq         int     `json:"requisito_fuerza,omitempty"`
	StealthDisadvantage bool    `json:"desventaja_sigilo,omitempty"`
	Type                string  `json:"tipo,omitempty"`
	WeightLb            float64 `json:"peso,omitempty"`
	IsMagical           bool    `json:"is_magical,omitempty"`
	Description         string  `json:"descripcion,omitempty"`
}

// Profile converts the entry into the AC computation shape.
func (a *Armor) Profile() rules.ArmorProfile {
	return rules.ArmorProfile{
		BaseAC:   a.BaseAC,
		AddDex:   a.Type != rules.ArmorHeavy,
		MaxDex:   a.MaxDexMod,
		Category: a.Type,
	}
}

func (a *Armor) validate() error {
	if a.ID == "" {
		return fmt.Errorf("armor: id must not be empty")
	}
	if a.Name == "" {
		return fmt.Errorf("armor %q: nombre must not be empty", a.ID)
	}
	if a.BaseAC < 1 {
		return fmt.Errorf("armor %q: ca_base must be >= 1", a.ID)
	}
	switch a.Type {
	case rules.ArmorLight, rules.ArmorMedium, rules.ArmorHeavy:
	default:
		return fmt.Errorf("armor %q: tipo %q is not one of %s, %s, %s",
			a.ID, a.Type, rules.ArmorLight, rules.ArmorMedium, rules.ArmorHeavy)
	}
	return nil
}

// Shield is a shield entry.
type Shield struct {
	ID          string  `json:"id"`
	Name        string  `json:"nombre"`
	ACBonus     int     `json:"bonificador_ca"`
	WeightLb    float64 `json:"peso,omitempty"`
	Description string  `json:"descripcion,omitempty"`
}

func (s *Shield) validate() error {
	if s.ID == "" {
		return fmt.Errorf("shield: id must not be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("shield %q: nombre must not be empty", s.ID)
	}
	if s.ACBonus < 1 {
		return fmt.Errorf("shield %q: bonificador_ca must be >= 1", s.ID)
	}
	return nil
}

// SpellScaling describes extra effect per slot level above the base:
// upcasting adds DicePerLevel dice for every level above Spell.Level.
type SpellScaling struct {
	DicePerLevel string `json:"daño_por_nivel,omitempty"`
	Note         string `json:"nota,omitempty"`
}

// Spell is a spell entry. Level 0 is a cantrip.
type Spell struct {
	ID          string        `json:"id"`
	Name        string        `json:"nombre"`
	Level       int           `json:"nivel"`
	School      string        `json:"escuela,omitempty"`
	Classes     []string      `json:"clases,omitempty"`
	CastTime    string        `json:"tiempo_lanzamiento,omitempty"`
	Range       string        `json:"alcance,omitempty"`
	Duration    string        `json:"duracion,omitempty"`
	Target      string        `json:"objetivo,omitempty"`
	Targets     int           `json:"num_objetivos,omitempty"`
	AttackRoll  bool          `json:"tirada_ataque,omitempty"`
	Save        string        `json:"salvacion,omitempty"`
	HalfOnSave  bool          `json:"mitad_si_salva,omitempty"`
	Damage      string        `json:"daño,omitempty"`
	DamageType  string        `json:"tipo_daño,omitempty"`
	Healing     string        `json:"curacion,omitempty"`
	Scaling     *SpellScaling `json:"escalado,omitempty"`
	Description string        `json:"descripcion,omitempty"`
}

// IsCantrip reports whether the spell is level 0 and needs no slot.
func (s *Spell) IsCantrip() bool {
	return s.Level == 0
}

// TargetsCreature reports whether the spell expects a creature target.
func (s *Spell) TargetsCreature() bool {
	return strings.HasPrefix(s.Target, "criatura")
}

func (s *Spell) validate() error {
	if s.ID == "" {
		return fmt.Errorf("spell: id must not be empty")
	}
	if s.Name == "" {
		return fmt.Errorf("spell %q: nombre must not be empty", s.ID)
	}
	if s.Level < 0 || s.Level > 9 {
		return fmt.Errorf("spell %q: nivel must be in [0, 9], got %d", s.ID, s.Level)
	}
	if s.Damage != "" {
		if _, err := dice.Parse(s.Damage); err != nil {
			return fmt.Errorf("spell %q: daño %q: %w", s.ID, s.Damage, err)
		}
	}
	if s.Healing != "" {
		if _, err := dice.Parse(s.Healing); err != nil {
			return fmt.Errorf("spell %q: curacion %q: %w", s.ID, s.Healing, err)
		}
	}
	if s.Save != "" && !validSaveAbility(s.Save) {
		return fmt.Errorf("spell %q: salvacion %q is not an ability", s.ID, s.Save)
	}
	return nil
}

func validSaveAbility(name string) bool {
	for _, a := range rules.Abilities {
		if a == name {
			return true
		}
	}
	return false
}

// MonsterAction is one attack or special action on a monster stat block.
type MonsterAction struct {
	Name        string `json:"nombre"`
	AttackBonus int    `json:"bonificador_ataque,omitempty"`
	Reach       string `json:"alcance,omitempty"`
	Damage      string `json:"daño,omitempty"`
	DamageType  string `json:"tipo_daño,omitempty"`
	Save        string `json:"salvacion,omitempty"`
	SaveDC      int    `json:"cd,omitempty"`
	Description string `json:"descripcion,omitempty"`
}

// IsRanged reports whether the action's reach uses the "short/long" range
// notation (e.g. "80/320"), which marks a ranged attack.
func (a MonsterAction) IsRanged() bool {
	return strings.Contains(a.Reach, "/")
}

// Trait kinds with structured fields. Any other kind (including empty) is
// carried as text plus tags and must be tolerated downstream.
const (
	TraitResistance    = "resistencia"
	TraitImmunity      = "inmunidad"
	TraitVulnerability = "vulnerabilidad"
	TraitRecharge      = "recarga"
	TraitRegeneration  = "regeneracion"
	TraitSense         = "sentido"
	TraitAdvantage     = "ventaja"
	TraitDisadvantage  = "desventaja"
)

// MonsterTrait is a stat-block trait. Structured kinds populate the typed
// fields; everything else keeps the original text with optional tags.
type MonsterTrait struct {
	Name         string   `json:"nombre"`
	Kind         string   `json:"tipo,omitempty"`
	DamageTypes  []string `json:"tipos_daño,omitempty"`
	Recharge     string   `json:"recarga,omitempty"`
	Regeneration int      `json:"regeneracion,omitempty"`
	Senses       []string `json:"sentidos,omitempty"`
	Rolls        []string `json:"tiradas,omitempty"`
	Text         string   `json:"texto,omitempty"`
	Tags         []string `json:"etiquetas,omitempty"`
}

// Structured reports whether the trait belongs to the parsed tier.
func (t MonsterTrait) Structured() bool {
	switch t.Kind {
	case TraitResistance, TraitImmunity, TraitVulnerability, TraitRecharge,
		TraitRegeneration, TraitSense, TraitAdvantage, TraitDisadvantage:
		return true
	}
	return false
}

// Monster is a monster entry.
type Monster struct {
	ID          string          `json:"id"`
	Name        string          `json:"nombre"`
	Type        string          `json:"tipo,omitempty"`
	HP          int             `json:"puntos_golpe"`
	HitDice     string          `json:"dados_golpe,omitempty"`
	AC          int             `json:"clase_armadura"`
	Speed       int             `json:"velocidad,omitempty"`
	Abilities   map[string]int  `json:"atributos"`
	Actions     []MonsterAction `json:"acciones,omitempty"`
	Traits      []MonsterTrait  `json:"rasgos,omitempty"`
	CR          string          `json:"nivel_desafio,omitempty"`
	XP          int             `json:"experiencia,omitempty"`
	Description string          `json:"descripcion,omitempty"`
}

func (m *Monster) validate() error {
	if m.ID == "" {
		return fmt.Errorf("monster: id must not be empty")
	}
	if m.Name == "" {
		return fmt.Errorf("monster %q: nombre must not be empty", m.ID)
	}
	if m.HP < 1 {
		return fmt.Errorf("monster %q: puntos_golpe must be >= 1", m.ID)
	}
	if m.AC < 1 {
		return fmt.Errorf("monster %q: clase_armadura must be >= 1", m.ID)
	}
	for _, ability := range rules.Abilities {
		score, ok := m.Abilities[ability]
		if !ok {
			return fmt.Errorf("monster %q: atributos missing %q", m.ID, ability)
		}
		if score < 1 || score > 30 {
			return fmt.Errorf("monster %q: atributo %q must be in [1, 30], got %d", m.ID, ability, score)
		}
	}
	for i, action := range m.Actions {
		if action.Name == "" {
			return fmt.Errorf("monster %q: accion %d has no nombre", m.ID, i)
		}
		if action.Damage != "" {
			if _, err := dice.Parse(action.Damage); err != nil {
				return fmt.Errorf("monster %q: accion %q daño %q: %w", m.ID, action.Name, action.Damage, err)
			}
		}
	}
	return nil
}

// Item is a miscellaneous item entry (consumables, gear, treasure).
type Item struct {
	ID          string         `json:"id"`
	Name        string         `json:"nombre"`
	Category    string         `json:"categoria,omitempty"`
	WeightLb    float64        `json:"peso,omitempty"`
	IsMagical   bool           `json:"is_magical,omitempty"`
	Healing     string         `json:"curacion,omitempty"`
	Properties  map[string]any `json:"propiedades,omitempty"`
	Description string         `json:"descripcion,omitempty"`
}

func (i *Item) validate() error {
	if i.ID == "" {
		return fmt.Errorf("item: id must not be empty")
	}
	if i.Name == "" {
		return fmt.Errorf("item %q: nombre must not be empty", i.ID)
	}
	if i.Healing != "" {
		if _, err := dice.Parse(i.Healing); err != nil {
			return fmt.Errorf("item %q: curacion %q: %w", i.ID, i.Healing, err)
		}
	}
	return nil
}

// Content is the raw collection set handed to New. Tests build it inline;
// Load fills it from a content directory.
type Content struct {
	Weapons  []*Weapon
	Armors   []*Armor
	Shields  []*Shield
	Spells   []*Spell
	Monsters []*Monster
	Items    []*Item
}

// Compendium is an indexed, immutable view over loaded content.
//
// Invariant: entries are never mutated after New returns; callers receive
// shared pointers and must treat them as read-only.
type Compendium struct {
	weapons  map[string]*Weapon
	armors   map[string]*Armor
	shields  map[string]*Shield
	spells   map[string]*Spell
	monsters map[string]*Monster
	items    map[string]*Item
}

// New indexes content into a Compendium.
//
// Postcondition: returns an error if any entry fails validation or an id
// repeats within its category.
func New(content Content) (*Compendium, error) {
	c := &Compendium{
		weapons:  make(map[string]*Weapon, len(content.Weapons)),
		armors:   make(map[string]*Armor, len(content.Armors)),
		shields:  make(map[string]*Shield, len(content.Shields)),
		spells:   make(map[string]*Spell, len(content.Spells)),
		monsters: make(map[string]*Monster, len(content.Monsters)),
		items:    make(map[string]*Item, len(content.Items)),
	}
	for _, w := range content.Weapons {
		if err := w.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.weapons[w.ID]; dup {
			return nil, fmt.Errorf("weapon %q: duplicate id", w.ID)
		}
		c.weapons[w.ID] = w
	}
	for _, a := range content.Armors {
		if err := a.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.armors[a.ID]; dup {
			return nil, fmt.Errorf("armor %q: duplicate id", a.ID)
		}
		c.armors[a.ID] = a
	}
	for _, s := range content.Shields {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.shields[s.ID]; dup {
			return nil, fmt.Errorf("shield %q: duplicate id", s.ID)
		}
		c.shields[s.ID] = s
	}
	for _, s := range content.Spells {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.spells[s.ID]; dup {
			return nil, fmt.Errorf("spell %q: duplicate id", s.ID)
		}
		c.spells[s.ID] = s
	}
	for _, m := range content.Monsters {
		if err := m.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.monsters[m.ID]; dup {
			return nil, fmt.Errorf("monster %q: duplicate id", m.ID)
		}
		c.monsters[m.ID] = m
	}
	for _, i := range content.Items {
		if err := i.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.items[i.ID]; dup {
			return nil, fmt.Errorf("item %q: duplicate id", i.ID)
		}
		c.items[i.ID] = i
	}
	return c, nil
}

// Weapon looks up a weapon by id.
func (c *Compendium) Weapon(id string) (*Weapon, bool) {
	w, ok := c.weapons[id]
	return w, ok
}

// Armor looks up an armor by id.
func (c *Compendium) Armor(id string) (*Armor, bool) {
	a, ok := c.armors[id]
	return a, ok
}

// Shield looks up a shield by id.
func (c *Compendium) Shield(id string) (*Shield, bool) {
	s, ok := c.shields[id]
	return s, ok
}

// Spell looks up a spell by id.
func (c *Compendium) Spell(id string) (*Spell, bool) {
	s, ok := c.spells[id]
	return s, ok
}

// Monster looks up a monster by id.
func (c *Compendium) Monster(id string) (*Monster, bool) {
	m, ok := c.monsters[id]
	return m, ok
}

// Item looks up a miscellaneous item by id.
func (c *Compendium) Item(id string) (*Item, bool) {
	i, ok := c.items[id]
	return i, ok
}

// Weapons returns all weapons ordered by id.
func (c *Compendium) Weapons() []*Weapon {
	out := make([]*Weapon, 0, len(c.weapons))
	for _, w := range c.weapons {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Spells returns all spells ordered by id.
func (c *Compendium) Spells() []*Spell {
	out := make([]*Spell, 0, len(c.spells))
	for _, s := range c.spells {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Monsters returns all monsters ordered by id.
func (c *Compendium) Monsters() []*Monster {
	out := make([]*Monster, 0, len(c.monsters))
	for _, m := range c.monsters {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Items returns all miscellaneous items ordered by id.
func (c *Compendium) Items() []*Item {
	out := make([]*Item, 0, len(c.items))
	for _, i := range c.items {
		out = append(out, i)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Has reports whether id exists in any category.
func (c *Compendium) Has(id string) bool {
	_, ok := c.CategoryOf(id)
	return ok
}

// CategoryOf reports which category an id belongs to, checking in the
// order monster, weapon, armor, shield, spell, item.
func (c *Compendium) CategoryOf(id string) (Category, bool) {
	if _, ok := c.monsters[id]; ok {
		return CategoryMonster, true
	}
	if _, ok := c.weapons[id]; ok {
		return CategoryWeapon, true
	}
	if _, ok := c.armors[id]; ok {
		return CategoryArmor, true
	}
	if _, ok := c.shields[id]; ok {
		return CategoryShield, true
	}
	if _, ok := c.spells[id]; ok {
		return CategorySpell, true
	}
	if _, ok := c.items[id]; ok {
		return CategoryItem, true
	}
	return "", false
}
