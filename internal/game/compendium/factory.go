package compendium

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDSource mints instance ids. Production uses UUIDSource; tests use
// SequentialSource for stable assertions.
type IDSource interface {
	NewID() string
}

// UUIDSource mints random UUID ids.
type UUIDSource struct{}

// NewID returns a fresh UUID string.
func (UUIDSource) NewID() string {
	return uuid.NewString()
}

// SequentialSource mints "prefix-1", "prefix-2", ... ids. Safe for
// concurrent use.
type SequentialSource struct {
	prefix string
	n      atomic.Int64
}

// NewSequentialSource returns a SequentialSource with the given prefix.
func NewSequentialSource(prefix string) *SequentialSource {
	return &SequentialSource{prefix: prefix}
}

// NewID returns the next sequential id.
func (s *SequentialSource) NewID() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.n.Add(1))
}

// MonsterInstance is a materialized monster ready to join combat. Fields
// are copied from the entry so combat never mutates shared content.
type MonsterInstance struct {
	InstanceID    string          `json:"instancia_id"`
	CompendiumRef string          `json:"compendio_ref"`
	Category      Category        `json:"categoria"`
	Name          string          `json:"nombre"`
	HPMax         int             `json:"puntos_golpe_maximo"`
	HPCurrent     int             `json:"puntos_golpe_actual"`
	AC            int             `json:"clase_armadura"`
	Abilities     map[string]int  `json:"atributos"`
	Actions       []MonsterAction `json:"acciones"`
	Traits        []MonsterTrait  `json:"rasgos"`
	Speed         int             `json:"velocidad"`
	XP            int             `json:"experiencia"`
	Conditions    []string        `json:"condiciones"`
}

// WeaponProperties is the weapon payload on an item instance.
type WeaponProperties struct {
	Damage     string   `json:"daño"`
	DamageType string   `json:"tipo_daño"`
	Properties []string `json:"propiedades"`
	Category   string   `json:"categoria_arma"`
	MagicBonus *int     `json:"bonificador_magico"`
}

// ArmorProperties is the armor payload on an item instance.
type ArmorProperties struct {
	BaseAC              int    `json:"ca_base"`
	MaxDexMod           *int   `json:"max_mod_destreza"`
	StrengthReq         int    `json:"requisito_fuerza"`
	StealthDisadvantage bool   `json:"desventaja_sigilo"`
	Type                string `json:"tipo_armadura"`
	MagicBonus          *int   `json:"bonificador_magico"`
}

// ItemInstance is a materialized inventory item. Exactly one of Weapon or
// Armor is set for those categories; plain items carry neither.
type ItemInstance struct {
	InstanceID    string            `json:"instancia_id"`
	CompendiumRef string            `json:"compendio_ref"`
	Category      Category          `json:"categoria"`
	Name          string            `json:"nombre"`
	Quantity      int               `json:"cantidad"`
	UnitWeightLb  float64           `json:"peso_unitario_lb"`
	IsMagical     bool              `json:"is_magical"`
	Description   string            `json:"descripcion,omitempty"`
	Weapon        *WeaponProperties `json:"propiedades_arma,omitempty"`
	Armor         *ArmorProperties  `json:"propiedades_armadura,omitempty"`
}

// Factory materializes compendium entries into instances with fresh ids.
type Factory struct {
	comp *Compendium
	ids  IDSource
}

// NewFactory builds a Factory over comp. A nil ids defaults to UUIDSource.
//
// Precondition: comp must not be nil.
func NewFactory(comp *Compendium, ids IDSource) *Factory {
	if comp == nil {
		panic("compendium: NewFactory requires a non-nil compendium")
	}
	if ids == nil {
		ids = UUIDSource{}
	}
	return &Factory{comp: comp, ids: ids}
}

// CreateMonster materializes a monster entry. customName, when non-empty,
// replaces the display name (e.g. "Goblin 2").
//
// Postcondition: HPCurrent equals HPMax; conditions start empty; ability
// and action data are copies, never shared with the entry.
func (f *Factory) CreateMonster(ref, customName string) (*MonsterInstance, error) {
	entry, ok := f.comp.Monster(ref)
	if !ok {
		return nil, fmt.Errorf("%w: monster %q", ErrNotFound, ref)
	}

	name := entry.Name
	if customName != "" {
		name = customName
	}
	speed := entry.Speed
	if speed == 0 {
		speed = 30
	}
	abilities := make(map[string]int, len(entry.Abilities))
	for k, v := range entry.Abilities {
		abilities[k] = v
	}
	actions := make([]MonsterAction, len(entry.Actions))
	copy(actions, entry.Actions)
	traits := make([]MonsterTrait, len(entry.Traits))
	copy(traits, entry.Traits)

	return &MonsterInstance{
		InstanceID:    f.ids.NewID(),
		CompendiumRef: ref,
		Category:      CategoryMonster,
		Name:          name,
		HPMax:         entry.HP,
		HPCurrent:     entry.HP,
		AC:            entry.AC,
		Abilities:     abilities,
		Actions:       actions,
		Traits:        traits,
		Speed:         speed,
		XP:            entry.XP,
		Conditions:    []string{},
	}, nil
}

// CreateWeapon materializes a weapon entry into an inventory instance.
//
// Postcondition: MagicBonus starts nil; enchanting is a later mutation on
// the instance, never on the entry.
func (f *Factory) CreateWeapon(ref string) (*ItemInstance, error) {
	entry, ok := f.comp.Weapon(ref)
	if !ok {
		return nil, fmt.Errorf("%w: weapon %q", ErrNotFound, ref)
	}

	props := make([]string, len(entry.Properties))
	copy(props, entry.Properties)

	return &ItemInstance{
		InstanceID:    f.ids.NewID(),
		CompendiumRef: ref,
		Category:      CategoryWeapon,
		Name:          entry.Name,
		Quantity:      1,
		UnitWeightLb:  entry.WeightLb,
		IsMagical:     entry.IsMagical,
		Description:   entry.Description,
		Weapon: &WeaponProperties{
			Damage:     entry.Damage,
			DamageType: entry.DamageType,
			Properties: props,
			Category:   entry.Category,
			MagicBonus: nil,
		},
	}, nil
}

// CreateArmor materializes an armor entry into an inventory instance.
func (f *Factory) CreateArmor(ref string) (*ItemInstance, error) {
	entry, ok := f.comp.Armor(ref)
	if !ok {
		return nil, fmt.Errorf("%w: armor %q", ErrNotFound, ref)
	}

	var maxDex *int
	if entry.MaxDexMod != nil {
		v := *entry.MaxDexMod
		maxDex = &v
	}

	return &ItemInstance{
		InstanceID:    f.ids.NewID(),
		CompendiumRef: ref,
		Category:      CategoryArmor,
		Name:          entry.Name,
		Quantity:      1,
		UnitWeightLb:  entry.WeightLb,
		IsMagical:     entry.IsMagical,
		Description:   entry.Description,
		Armor: &ArmorProperties{
			BaseAC:              entry.BaseAC,
			MaxDexMod:           maxDex,
			StrengthReq:         entry.StrengthReq,
			StealthDisadvantage: entry.StealthDisadvantage,
			Type:                entry.Type,
			MagicBonus:          nil,
		},
	}, nil
}

// CreateItem materializes a miscellaneous item entry with the given
// quantity.
//
// Precondition: quantity >= 1.
func (f *Factory) CreateItem(ref string, quantity int) (*ItemInstance, error) {
	entry, ok := f.comp.Item(ref)
	if !ok {
		return nil, fmt.Errorf("%w: item %q", ErrNotFound, ref)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("item %q: quantity must be >= 1, got %d", ref, quantity)
	}

	category := CategoryItem
	if entry.Category != "" {
		category = Category(entry.Category)
	}

	return &ItemInstance{
		InstanceID:    f.ids.NewID(),
		CompendiumRef: ref,
		Category:      category,
		Name:          entry.Name,
		Quantity:      quantity,
		UnitWeightLb:  entry.WeightLb,
		IsMagical:     entry.IsMagical,
		Description:   entry.Description,
	}, nil
}
