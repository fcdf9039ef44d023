package combat

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/character"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/condition"
	"github.com/icruces/mazmorra/internal/game/dice"
)

var (
	// ErrNotRunning is returned by operations that need an encounter in
	// progress.
	ErrNotRunning = errors.New("combat is not running")

	// ErrDeltaReplayed is returned by Apply when the same state delta is
	// committed twice within one turn.
	ErrDeltaReplayed = errors.New("state delta already applied this turn")
)

// EndReasonFled is the End reason that marks the party as having run away
// rather than finishing the fight.
const EndReasonFled = "huida"

// Manager runs one encounter: roster, initiative order, turn advancement,
// state deltas and the event history. All methods are safe for concurrent
// use.
//
// Invariant: once the encounter starts, the roster is frozen.
// Invariant: every state change lands in the history as events.
type Manager struct {
	mu     sync.RWMutex
	comp   *compendium.Compendium
	reg    *condition.Registry
	roller *dice.Roller
	log    *zap.Logger

	combatants map[string]*Combatant
	added      []string
	order      []string
	round      int
	turnIndex  int
	currentID  string
	state      State

	history  []HistoryEntry
	applied  map[string]struct{}
	eventSeq int
}

// NewManager builds an empty encounter.
//
// Precondition: roller is not nil. A nil registry falls back to the
// builtin condition set; a nil logger disables logging.
func NewManager(comp *compendium.Compendium, reg *condition.Registry, roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("combat: NewManager requires a non-nil roller")
	}
	if reg == nil {
		reg = condition.BuiltinRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		comp:       comp,
		reg:        reg,
		roller:     roller,
		log:        logger,
		combatants: make(map[string]*Combatant),
		added:      []string{},
		state:      StateNotStarted,
		history:    []HistoryEntry{},
		applied:    make(map[string]struct{}),
	}
}

// Add puts a combatant on the roster.
//
// Precondition: the encounter has not started and the id is unused.
func (m *Manager) Add(c *Combatant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateNotStarted {
		return fmt.Errorf("cannot add %q: combat already started", c.ID)
	}
	if c.ID == "" {
		return errors.New("combatant needs an id")
	}
	if _, exists := m.combatants[c.ID]; exists {
		return fmt.Errorf("combatant %q already on the roster", c.ID)
	}
	if c.HPMax < 1 {
		return fmt.Errorf("combatant %q needs positive max HP", c.ID)
	}

	c.normalize()
	m.combatants[c.ID] = c
	m.added = append(m.added, c.ID)
	m.log.Debug("combatant added",
		zap.String("id", c.ID),
		zap.String("side", string(c.Side)),
		zap.Int("hp", c.HP))
	return nil
}

// AddFromCompendium builds a combatant from a monster stat block and adds
// it. An empty instanceID allocates "<monsterID>_N" with the first free N;
// an empty name uses the monster's. Only attack actions carry over.
func (m *Manager) AddFromCompendium(monsterID, instanceID, name string, side Side) (*Combatant, error) {
	if m.comp == nil {
		return nil, errors.New("no compendium configured")
	}
	monster, ok := m.comp.Monster(monsterID)
	if !ok {
		return nil, fmt.Errorf("monster %q not found in compendium", monsterID)
	}

	if instanceID == "" {
		instanceID = m.freeInstanceID(monsterID)
	}
	if name == "" {
		name = monster.Name
	}

	abilities := make(map[string]int, len(monster.Abilities))
	for ability, score := range monster.Abilities {
		abilities[ability] = score
	}
	var attacks []compendium.MonsterAction
	for _, a := range monster.Actions {
		if a.AttackBonus != 0 {
			attacks = append(attacks, a)
		}
	}

	c := &Combatant{
		ID:            instanceID,
		Name:          name,
		Side:          side,
		CompendiumRef: monster.ID,
		HPMax:         monster.HP,
		AC:            monster.AC,
		Speed:         monster.Speed,
		Abilities:     abilities,
		Actions:       attacks,
	}
	if err := m.Add(c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddFromCharacter builds a PC combatant from a character sheet and adds
// it. An empty instanceID uses the character's own id. Equipped weapon
// names resolve through the compendium; active conditions carry over.
func (m *Manager) AddFromCharacter(pc *character.Character, instanceID string) (*Combatant, error) {
	if instanceID == "" {
		instanceID = pc.ID
	}

	conditions, err := condition.RestoreSet(m.reg, pc.Current.Conditions)
	if err != nil {
		return nil, fmt.Errorf("restoring conditions for %q: %w", instanceID, err)
	}

	abilities := make(map[string]int, len(pc.Source.Abilities))
	for ability, score := range pc.Source.Abilities {
		abilities[ability] = score
	}
	var slots map[int]int
	if len(pc.Current.SlotsRemaining) > 0 {
		slots = make(map[int]int, len(pc.Current.SlotsRemaining))
		for level, left := range pc.Current.SlotsRemaining {
			slots[level] = left
		}
	}
	var spells []string
	if sc := pc.Source.Spellcasting; sc != nil {
		seen := make(map[string]bool)
		for _, id := range append(append([]string{}, sc.Known...), sc.Prepared...) {
			if !seen[id] {
				seen[id] = true
				spells = append(spells, id)
			}
		}
	}

	c := &Combatant{
		ID:              instanceID,
		Name:            pc.Source.Name,
		Side:            SidePC,
		HPMax:           pc.Derived.HPMax,
		AC:              pc.Derived.AC,
		Speed:           pc.Derived.SpeedFt,
		Abilities:       abilities,
		Proficiency:     pc.Derived.ProfBonus,
		PrimaryWeapon:   m.sceneWeapon(pc.Source.Equipment.MainHandRef),
		SecondaryWeapon: m.sceneWeapon(pc.Source.Equipment.OffHandRef),
		KnownSpells:     spells,
		HP:              pc.Current.HP,
		HPTemp:          pc.Current.HPTemp,
		SlotsRemaining:  slots,
		Conditions:      conditions,
		Unconscious:     pc.Current.Unconscious,
		Dead:            pc.Current.Dead,
		Stable:          pc.Current.Stable,
		DeathSaves:      pc.Current.DeathSaves,
	}
	if err := m.Add(c); err != nil {
		return nil, err
	}
	return c, nil
}

// sceneWeapon resolves an equipment ref to a scene weapon, keeping the ref
// as display name when the compendium has no entry.
func (m *Manager) sceneWeapon(ref string) *action.SceneWeapon {
	if ref == "" {
		return nil
	}
	name := ref
	if m.comp != nil {
		if w, ok := m.comp.Weapon(ref); ok {
			name = w.Name
		}
	}
	return &action.SceneWeapon{ID: ref, Name: name}
}

// freeInstanceID returns "<base>_N" for the smallest N not on the roster.
func (m *Manager) freeInstanceID(base string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for n := 1; ; n++ {
		id := fmt.Sprintf("%s_%d", base, n)
		if _, taken := m.combatants[id]; !taken {
			return id
		}
	}
}

// Begin rolls initiative for everyone and starts round 1.
//
// Precondition: at least two combatants and the encounter not yet started.
// Postcondition: the order is sorted by initiative total descending, ties
// broken by Dexterity modifier, then by join order.
func (m *Manager) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateNotStarted {
		return fmt.Errorf("combat already started (state %s)", m.state)
	}
	if len(m.combatants) < 2 {
		return fmt.Errorf("need at least 2 combatants, have %d", len(m.combatants))
	}

	for _, id := range m.added {
		c := m.combatants[id]
		c.Initiative = m.roller.RollInitiative(c.DexMod()).Total()
		c.ResetTurn()
	}
	m.order = append([]string{}, m.added...)
	sortForInitiative(m.order, m.combatants)

	m.round = 1
	m.turnIndex = 0
	m.currentID = m.order[0]
	m.eventSeq = 0
	m.state = StateRunning

	m.log.Info("combat started",
		zap.Int("combatants", len(m.combatants)),
		zap.Strings("order", m.order),
		zap.String("first", m.currentID))
	return nil
}

// TurnInfo is a read-only view of whose turn it is and what remains of
// their action economy.
type TurnInfo struct {
	ID                string `json:"id"`
	Name              string `json:"nombre"`
	Side              Side   `json:"tipo"`
	Round             int    `json:"ronda"`
	TurnIndex         int    `json:"indice_turno"`
	MovementRemaining int    `json:"movimiento_restante"`
	ActionAvailable   bool   `json:"accion_disponible"`
	BonusAvailable    bool   `json:"accion_bonus_disponible"`
	ReactionAvailable bool   `json:"reaccion_disponible"`
	CanAct            bool   `json:"puede_actuar"`
	Unconscious       bool   `json:"inconsciente"`
}

func (m *Manager) turnInfoLocked(c *Combatant) TurnInfo {
	return TurnInfo{
		ID:                c.ID,
		Name:              c.Name,
		Side:              c.Side,
		Round:             m.round,
		TurnIndex:         m.turnIndex,
		MovementRemaining: c.MovementRemaining(),
		ActionAvailable:   !c.ActionUsed,
		BonusAvailable:    !c.BonusUsed,
		ReactionAvailable: !c.ReactionUsed,
		CanAct:            c.CanAct(),
		Unconscious:       c.Unconscious,
	}
}

// CurrentTurn reports whose turn it is. ok is false when no encounter is
// running.
func (m *Manager) CurrentTurn() (TurnInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state != StateRunning {
		return TurnInfo{}, false
	}
	c, ok := m.combatants[m.currentID]
	if !ok {
		return TurnInfo{}, false
	}
	return m.turnInfoLocked(c), true
}

// EndTurn advances to the next living combatant, wrapping into a new
// round when the order is exhausted. Dead combatants are skipped;
// unconscious ones keep their turns so death saves can be rolled.
//
// Postcondition: when ok, the new combatant's turn economy is reset and
// its timed conditions have ticked.
func (m *Manager) EndTurn() (TurnInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRunning {
		return TurnInfo{}, false
	}
	if ended := m.checkTerminationLocked(); ended != nil {
		return TurnInfo{}, false
	}

	for attempts := 0; attempts < len(m.order); attempts++ {
		m.turnIndex++
		if m.turnIndex >= len(m.order) {
			m.turnIndex = 0
			m.round++
		}
		c := m.combatants[m.order[m.turnIndex]]
		if !c.Alive() {
			continue
		}
		m.currentID = c.ID
		m.eventSeq = 0
		m.startTurnLocked(c)
		m.log.Debug("turn advanced",
			zap.Int("round", m.round),
			zap.String("combatant", c.ID))
		return m.turnInfoLocked(c), true
	}

	// Nobody left to take a turn.
	m.state = StateDraw
	m.recordEventLocked(Event{Type: EventCombatEnded, Data: map[string]any{"estado": string(StateDraw)}})
	return TurnInfo{}, false
}

// startTurnLocked ticks timed conditions and resets the action economy
// for a combatant whose turn begins.
func (m *Manager) startTurnLocked(c *Combatant) {
	for _, id := range c.Conditions.Tick() {
		m.recordEventLocked(Event{
			Type:    EventConditionExpired,
			ActorID: c.ID,
			Data:    map[string]any{"condicion": id},
		})
	}
	c.ResetTurn()
}

// Apply commits one action's effects: the events go to the history and
// the delta mutates the active combatant and its targets. The returned
// events are the follow-ups the commit itself produced (condition
// applications, combatants going down, the encounter ending).
//
// Precondition: the encounter is running.
// Postcondition: committing an identical non-empty delta again within the
// same turn fails with ErrDeltaReplayed and changes nothing.
func (m *Manager) Apply(delta StateDelta, events []Event) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRunning {
		return nil, ErrNotRunning
	}
	active, ok := m.combatants[m.currentID]
	if !ok {
		return nil, fmt.Errorf("no active combatant %q", m.currentID)
	}

	if !delta.Empty() {
		key := fmt.Sprintf("%d|%d|%s|%s", m.round, m.turnIndex, active.ID, delta.Fingerprint())
		if _, seen := m.applied[key]; seen {
			m.log.Warn("state delta replayed",
				zap.String("actor", active.ID),
				zap.Int("round", m.round))
			return nil, ErrDeltaReplayed
		}
		m.applied[key] = struct{}{}
	}

	for _, ev := range events {
		m.recordEventLocked(ev)
	}

	var followUps []Event
	if delta.ActionUsed {
		active.ActionUsed = true
	}
	if delta.BonusUsed {
		active.BonusUsed = true
	}
	if delta.MovementSpent != 0 {
		active.MovementUsed += delta.MovementSpent
	}
	if delta.MovementBonus != 0 {
		active.MovementUsed -= delta.MovementBonus
	}
	if delta.TempCondition != "" {
		if ev := m.applyConditionLocked(active, delta.TempCondition); ev != nil {
			followUps = append(followUps, *ev)
		}
	}
	if delta.Damage != nil {
		followUps = append(followUps, m.applyDamageLocked(delta.Damage)...)
	}
	if delta.SlotSpent != nil {
		m.applySlotLocked(active, delta.SlotSpent.Level)
	}
	if delta.Healing != nil {
		m.applyHealLocked(delta.Healing)
	}

	if ended := m.checkTerminationLocked(); ended != nil {
		followUps = append(followUps, *ended)
	}
	return followUps, nil
}

// applyConditionLocked puts a timed condition on the combatant, expiring
// at the start of its next turn.
func (m *Manager) applyConditionLocked(c *Combatant, conditionID string) *Event {
	def, ok := m.reg.Get(conditionID)
	if !ok {
		m.log.Warn("unknown condition in delta", zap.String("condition", conditionID))
		return nil
	}
	if err := c.Conditions.Apply(def, 1, 1); err != nil {
		m.log.Warn("condition not applied",
			zap.String("condition", conditionID),
			zap.Error(err))
		return nil
	}
	ev := Event{
		Type:    EventConditionApplied,
		ActorID: c.ID,
		Data:    map[string]any{"condicion": conditionID, "duracion_rondas": 1},
	}
	m.recordEventLocked(ev)
	return &ev
}

// applyDamageLocked deals damage to the target: temporary hit points
// absorb first, HP floors at zero, and hitting zero downs the target.
// PCs fall unconscious and start death saves; everyone else dies.
func (m *Manager) applyDamageLocked(d *DamageDelta) []Event {
	target, ok := m.combatants[d.TargetID]
	if !ok || target.Dead {
		return nil
	}
	amount := d.Amount
	if amount <= 0 {
		return nil
	}

	if target.HPTemp > 0 {
		absorbed := amount
		if absorbed > target.HPTemp {
			absorbed = target.HPTemp
		}
		target.HPTemp -= absorbed
		amount -= absorbed
	}
	if amount >= target.HP {
		target.HP = 0
	} else {
		target.HP -= amount
	}
	if target.HP > 0 {
		return nil
	}

	if target.Side == SidePC {
		if target.Unconscious {
			return nil
		}
		target.Unconscious = true
		target.Stable = false
		target.DeathSaves = character.DeathSaves{}
	} else {
		target.Dead = true
	}
	m.log.Info("combatant down",
		zap.String("id", target.ID),
		zap.Bool("dead", target.Dead))

	ev := Event{
		Type:    EventCombatantDown,
		ActorID: target.ID,
		Data: map[string]any{
			"nombre":       target.Name,
			"muerto":       target.Dead,
			"inconsciente": target.Unconscious,
		},
	}
	m.recordEventLocked(ev)
	return []Event{ev}
}

// applySlotLocked spends one slot of the level, flooring at zero. Levels
// the combatant has no slots for are ignored.
func (m *Manager) applySlotLocked(c *Combatant, level int) {
	left, ok := c.SlotsRemaining[level]
	if !ok {
		return
	}
	if left > 0 {
		c.SlotsRemaining[level] = left - 1
	}
}

// applyHealLocked restores HP, capped at the maximum. Healing above zero
// wakes an unconscious combatant and resets its death saves; the dead
// stay dead.
func (m *Manager) applyHealLocked(h *HealDelta) {
	target, ok := m.combatants[h.TargetID]
	if !ok || target.Dead || h.Amount <= 0 {
		return
	}
	target.HP += h.Amount
	if target.HP > target.HPMax {
		target.HP = target.HPMax
	}
	if target.HP > 0 && target.Unconscious {
		target.Unconscious = false
		target.Stable = false
		target.DeathSaves = character.DeathSaves{}
	}
}

// RollDeathSave rolls a death saving throw for the active combatant and
// applies the ladder: 10+ is a success, three successes stabilize; below
// 10 is a failure, a natural 1 counts twice, three failures kill; a
// natural 20 brings the combatant back with 1 HP.
//
// Precondition: the active combatant is an unconscious PC at 0 HP that is
// neither dead nor stable.
func (m *Manager) RollDeathSave() (character.DeathSaveOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRunning {
		return character.DeathSaveOutcome{}, ErrNotRunning
	}
	active, ok := m.combatants[m.currentID]
	if !ok {
		return character.DeathSaveOutcome{}, fmt.Errorf("no active combatant %q", m.currentID)
	}
	switch {
	case active.Dead:
		return character.DeathSaveOutcome{}, fmt.Errorf("%s is dead", active.Name)
	case active.Stable:
		return character.DeathSaveOutcome{}, fmt.Errorf("%s is stable and needs no death saves", active.Name)
	case !active.Unconscious || active.HP > 0:
		return character.DeathSaveOutcome{}, fmt.Errorf("%s is conscious", active.Name)
	}

	roll := m.roller.RollD20(0, dice.ModeNormal)
	outcome := character.DeathSaveOutcome{Roll: roll.Total()}

	switch {
	case outcome.Roll == 20:
		active.HP = 1
		active.Unconscious = false
		active.DeathSaves = character.DeathSaves{}
		outcome.Regained = true
	case outcome.Roll == 1:
		active.DeathSaves.Failures += 2
	case outcome.Roll < 10:
		active.DeathSaves.Failures++
	default:
		active.DeathSaves.Successes++
	}
	if active.DeathSaves.Failures >= 3 {
		active.DeathSaves.Failures = 3
		active.Dead = true
		outcome.Dead = true
	} else if active.DeathSaves.Successes >= 3 {
		active.Stable = true
		outcome.Stable = true
	}
	outcome.Successes = active.DeathSaves.Successes
	outcome.Failures = active.DeathSaves.Failures

	m.recordEventLocked(Event{
		Type:    EventDeathSave,
		ActorID: active.ID,
		Data: map[string]any{
			"tirada":   outcome.Roll,
			"exitos":   outcome.Successes,
			"fallos":   outcome.Failures,
			"recupera": outcome.Regained,
			"estable":  outcome.Stable,
			"muerto":   outcome.Dead,
		},
	})
	if outcome.Dead {
		m.checkTerminationLocked()
	}
	return outcome, nil
}

// End closes the encounter by fiat: "huida" marks the party as fled, any
// other reason just ends it.
func (m *Manager) End(reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Over() {
		return fmt.Errorf("combat already over (state %s)", m.state)
	}
	if reason == EndReasonFled {
		m.state = StateFled
	} else {
		m.state = StateEnded
	}
	m.recordEventLocked(Event{
		Type: EventCombatEnded,
		Data: map[string]any{"estado": string(m.state), "motivo": reason},
	})
	m.log.Info("combat ended", zap.String("state", string(m.state)), zap.String("reason", reason))
	return nil
}

// checkTerminationLocked counts standing PCs against standing enemies and
// closes the encounter when one side is gone. Allies and neutrals do not
// count. Returns the closing event, nil while the fight continues.
func (m *Manager) checkTerminationLocked() *Event {
	if m.state != StateRunning {
		return nil
	}
	var pcs, enemies int
	for _, c := range m.combatants {
		if c.Down() {
			continue
		}
		switch c.Side {
		case SidePC:
			pcs++
		case SideEnemy:
			enemies++
		}
	}

	switch {
	case enemies == 0 && pcs > 0:
		m.state = StateVictory
	case pcs == 0 && enemies > 0:
		m.state = StateDefeat
	case pcs == 0 && enemies == 0:
		m.state = StateDraw
	default:
		return nil
	}

	ev := Event{Type: EventCombatEnded, Data: map[string]any{"estado": string(m.state)}}
	m.recordEventLocked(ev)
	m.log.Info("combat finished", zap.String("state", string(m.state)), zap.Int("round", m.round))
	return &ev
}

// recordEventLocked appends an event to the history at the current
// timeline position.
func (m *Manager) recordEventLocked(ev Event) {
	m.history = append(m.history, HistoryEntry{
		Round:      m.round,
		TurnIndex:  m.turnIndex,
		EventIndex: m.eventSeq,
		ActorID:    m.currentID,
		Event:      ev,
	})
	m.eventSeq++
}

// SceneContext builds the active combatant's view of the scene: living
// enemies and allies from its perspective, its weapons, spells, slots and
// remaining action economy.
func (m *Manager) SceneContext() (action.SceneContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state != StateRunning {
		return action.SceneContext{}, ErrNotRunning
	}
	active, ok := m.combatants[m.currentID]
	if !ok {
		return action.SceneContext{}, fmt.Errorf("no active combatant %q", m.currentID)
	}

	scene := action.SceneContext{
		ActorID:           active.ID,
		ActorName:         active.Name,
		MovementRemaining: active.MovementRemaining(),
		ActionAvailable:   !active.ActionUsed,
		BonusAvailable:    !active.BonusUsed,
	}

	for _, id := range m.order {
		other := m.combatants[id]
		if other.ID == active.ID || other.Down() {
			continue
		}
		p := action.Participant{InstanceID: other.ID, Name: other.Name, CompendiumRef: other.CompendiumRef}
		if hostile(active.Side, other.Side) {
			scene.LivingEnemies = append(scene.LivingEnemies, p)
		} else {
			scene.Allies = append(scene.Allies, p)
		}
	}

	if active.PrimaryWeapon != nil {
		scene.PrimaryWeapon = active.PrimaryWeapon.ID
		scene.AvailableWeapons = append(scene.AvailableWeapons, *active.PrimaryWeapon)
	}
	if active.SecondaryWeapon != nil {
		scene.SecondaryWeapon = active.SecondaryWeapon.ID
		scene.AvailableWeapons = append(scene.AvailableWeapons, *active.SecondaryWeapon)
	}
	if len(active.KnownSpells) > 0 {
		scene.KnownSpells = append([]string{}, active.KnownSpells...)
	}
	if len(active.SlotsRemaining) > 0 {
		scene.AvailableSlots = make(map[int]int, len(active.SlotsRemaining))
		for level, left := range active.SlotsRemaining {
			scene.AvailableSlots[level] = left
		}
	}
	return scene, nil
}

// hostile says whether two sides oppose each other. PCs and allies fight
// enemies; neutrals oppose nobody.
func hostile(actor, other Side) bool {
	switch actor {
	case SidePC, SideAlly:
		return other == SideEnemy
	case SideEnemy:
		return other == SidePC || other == SideAlly
	default:
		return false
	}
}

// Combatant returns the roster entry with the id. Callers must treat the
// result as read-only; all mutation goes through Apply.
func (m *Manager) Combatant(id string) (*Combatant, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.combatants[id]
	return c, ok
}

// Combatants returns the roster in initiative order, or join order before
// the encounter starts.
func (m *Manager) Combatants() []*Combatant {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.order
	if len(ids) == 0 {
		ids = m.added
	}
	out := make([]*Combatant, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.combatants[id])
	}
	return out
}

// Order returns the initiative order, empty before the encounter starts.
func (m *Manager) Order() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.order...)
}

// State returns the encounter state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Round returns the current round number, zero before the encounter
// starts.
func (m *Manager) Round() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.round
}

// History returns a copy of the event timeline.
func (m *Manager) History() []HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]HistoryEntry{}, m.history...)
}
