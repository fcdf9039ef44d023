package action

// Participant is the scene's view of one combatant other than the actor.
type Participant struct {
	InstanceID    string `json:"instance_id"`
	Name          string `json:"name"`
	CompendiumRef string `json:"compendium_ref,omitempty"`
}

// SceneWeapon is one weapon the actor could attack with.
type SceneWeapon struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SceneContext is what the normalizer and pipeline know about the current
// turn. Weapon fields carry compendium ids; an empty PrimaryWeapon means no
// weapon is equipped.
type SceneContext struct {
	ActorID           string        `json:"actor"`
	ActorName         string        `json:"actor_name,omitempty"`
	PrimaryWeapon     string        `json:"primary_weapon,omitempty"`
	SecondaryWeapon   string        `json:"secondary_weapon,omitempty"`
	AvailableWeapons  []SceneWeapon `json:"available_weapons,omitempty"`
	KnownSpells       []string      `json:"known_spells,omitempty"`
	AvailableSlots    map[int]int   `json:"available_slots,omitempty"`
	LivingEnemies     []Participant `json:"living_enemies,omitempty"`
	Allies            []Participant `json:"allies,omitempty"`
	MovementRemaining int           `json:"movement_remaining"`
	ActionAvailable   bool          `json:"action_available"`
	BonusAvailable    bool          `json:"bonus_available"`
}

// Enemy returns the living enemy with the given instance id.
func (s *SceneContext) Enemy(instanceID string) (Participant, bool) {
	for _, e := range s.LivingEnemies {
		if e.InstanceID == instanceID {
			return e, true
		}
	}
	return Participant{}, false
}

// HasSlot reports whether the actor has a remaining slot of the level.
func (s *SceneContext) HasSlot(level int) bool {
	return s.AvailableSlots[level] > 0
}
