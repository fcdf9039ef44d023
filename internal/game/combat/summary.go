package combat

// CombatantStatus is one roster line in a combat summary.
type CombatantStatus struct {
	ID          string   `json:"id"`
	Name        string   `json:"nombre"`
	Side        Side     `json:"tipo"`
	HP          int      `json:"hp_actual"`
	HPMax       int      `json:"hp_maximo"`
	HPTemp      int      `json:"hp_temporal,omitempty"`
	AC          int      `json:"clase_armadura"`
	Conditions  []string `json:"condiciones"`
	Initiative  int      `json:"iniciativa"`
	Unconscious bool     `json:"inconsciente"`
	Dead        bool     `json:"muerto"`
	CanAct      bool     `json:"puede_actuar"`
}

// Summary is the queryable picture of where the encounter stands. Once
// the encounter is over it also carries the XP the fallen enemies were
// worth and the survivor and casualty name lists.
type Summary struct {
	State      State             `json:"estado"`
	Round      int               `json:"ronda"`
	TurnOf     string            `json:"turno_de,omitempty"`
	Order      []string          `json:"orden_iniciativa"`
	Combatants []CombatantStatus `json:"combatientes"`
	XPEarned   int               `json:"experiencia_ganada,omitempty"`
	Survivors  []string          `json:"supervivientes,omitempty"`
	Fallen     []string          `json:"caidos,omitempty"`
}

// Summary reports the encounter state, the roster in initiative order,
// and, once the fight is over, the XP and casualty tally.
func (m *Manager) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.order
	if len(ids) == 0 {
		ids = m.added
	}
	s := Summary{
		State: m.state,
		Round: m.round,
		Order: append([]string{}, m.order...),
	}
	if m.state == StateRunning {
		s.TurnOf = m.currentID
	}

	for _, id := range ids {
		c := m.combatants[id]
		s.Combatants = append(s.Combatants, CombatantStatus{
			ID:          c.ID,
			Name:        c.Name,
			Side:        c.Side,
			HP:          c.HP,
			HPMax:       c.HPMax,
			HPTemp:      c.HPTemp,
			AC:          c.AC,
			Conditions:  c.conditionIDs(),
			Initiative:  c.Initiative,
			Unconscious: c.Unconscious,
			Dead:        c.Dead,
			CanAct:      c.CanAct(),
		})
	}

	if m.state.Over() {
		for _, id := range ids {
			c := m.combatants[id]
			if c.Dead {
				s.Fallen = append(s.Fallen, c.Name)
				if c.Side == SideEnemy {
					s.XPEarned += m.monsterXPLocked(c)
				}
				continue
			}
			s.Survivors = append(s.Survivors, c.Name)
		}
	}
	return s
}

// monsterXPLocked looks up the XP a compendium-backed combatant awards.
func (m *Manager) monsterXPLocked(c *Combatant) int {
	if m.comp == nil || c.CompendiumRef == "" {
		return 0
	}
	monster, ok := m.comp.Monster(c.CompendiumRef)
	if !ok {
		return 0
	}
	return monster.XP
}
