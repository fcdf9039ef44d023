package condition

import (
	"fmt"
	"sort"
)

// Active tracks one applied condition on a combatant.
type Active struct {
	Def               *Definition
	Stacks            int
	DurationRemaining int // -1 = permanent or until_save
}

// Snapshot is the serializable form of an active condition.
type Snapshot struct {
	ID                string `json:"id"`
	Stacks            int    `json:"stacks"`
	DurationRemaining int    `json:"duration_remaining"`
}

// ActiveSet tracks all conditions currently applied to one combatant.
// It is not safe for concurrent use; the caller must serialise access.
type ActiveSet struct {
	conditions map[string]*Active
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{conditions: make(map[string]*Active)}
}

// Apply adds or updates a condition on this combatant.
// If the condition is already present, stacks are incremented (capped at MaxStacks).
// If MaxStacks == 0 (unstackable), stacks is always stored as 1.
// duration is rounds remaining; use -1 for permanent or until_save.
//
// Precondition: def must not be nil.
// Postcondition: Has(def.ID) is true; stacks are incremented on re-apply (capped at MaxStacks);
// DurationRemaining is updated to max(existing, duration) on re-apply.
func (s *ActiveSet) Apply(def *Definition, stacks, duration int) error {
	if def == nil {
		return fmt.Errorf("Apply: def must not be nil")
	}

	if existing, ok := s.conditions[def.ID]; ok {
		if def.MaxStacks == 0 {
			// unstackable: stacks stays at 1; extend duration if longer
			if duration > existing.DurationRemaining {
				existing.DurationRemaining = duration
			}
			return nil
		}
		newStacks := existing.Stacks + stacks
		if newStacks > def.MaxStacks {
			newStacks = def.MaxStacks
		}
		existing.Stacks = newStacks
		if duration > existing.DurationRemaining {
			existing.DurationRemaining = duration
		}
		return nil
	}

	effectiveStacks := stacks
	if def.MaxStacks == 0 {
		effectiveStacks = 1
	}
	capped := effectiveStacks
	if def.MaxStacks > 0 && capped > def.MaxStacks {
		capped = def.MaxStacks
	}
	s.conditions[def.ID] = &Active{
		Def:               def,
		Stacks:            capped,
		DurationRemaining: duration,
	}
	return nil
}

// Remove deletes the condition with the given ID from the set.
// If the condition is not present, Remove is a no-op.
//
// Postcondition: Has(id) is false.
func (s *ActiveSet) Remove(id string) {
	delete(s.conditions, id)
}

// Tick decrements the DurationRemaining of all "rounds"-type conditions by 1.
// Conditions that reach 0 are removed. "permanent" and "until_save" conditions
// (DurationRemaining == -1) are not affected.
//
// Postcondition: For every id in the returned slice, Has(id) is false.
func (s *ActiveSet) Tick() []string {
	var expired []string
	for id, ac := range s.conditions {
		if ac.Def.DurationType != DurationRounds || ac.DurationRemaining < 0 {
			continue
		}
		ac.DurationRemaining--
		if ac.DurationRemaining <= 0 {
			expired = append(expired, id)
			delete(s.conditions, id)
		}
	}
	sort.Strings(expired)
	return expired
}

// Has reports whether the condition with id is currently active.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.conditions[id]
	return ok
}

// Stacks returns the current stack count for condition id, or 0 if not present.
func (s *ActiveSet) Stacks(id string) int {
	if ac, ok := s.conditions[id]; ok {
		return ac.Stacks
	}
	return 0
}

// IDs returns the active condition ids in sorted order.
func (s *ActiveSet) IDs() []string {
	out := make([]string, 0, len(s.conditions))
	for id := range s.conditions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// All returns a slice of pointers to the active conditions.
// The slice itself is a new allocation (mutating the slice does not affect the set),
// but the pointed-to Active values are shared; callers must not modify them.
func (s *ActiveSet) All() []*Active {
	out := make([]*Active, 0, len(s.conditions))
	for _, ac := range s.conditions {
		out = append(out, ac)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Def.ID < out[j].Def.ID })
	return out
}

// BlocksActions reports whether any active condition prevents taking actions.
func (s *ActiveSet) BlocksActions() (string, bool) {
	for _, ac := range s.All() {
		if ac.Def.BlocksActions {
			return ac.Def.ID, true
		}
	}
	return "", false
}

// BlocksMovement reports whether any active condition prevents movement.
func (s *ActiveSet) BlocksMovement() (string, bool) {
	for _, ac := range s.All() {
		if ac.Def.BlocksMovement {
			return ac.Def.ID, true
		}
	}
	return "", false
}

// AttackDisadvantage reports whether the bearer attacks at disadvantage.
func (s *ActiveSet) AttackDisadvantage() bool {
	for _, ac := range s.conditions {
		if ac.Def.AttackDisadvantage {
			return true
		}
	}
	return false
}

// IncomingAdvantage reports whether attacks against the bearer have advantage.
func (s *ActiveSet) IncomingAdvantage() bool {
	for _, ac := range s.conditions {
		if ac.Def.IncomingAdvantage {
			return true
		}
	}
	return false
}

// IncomingDisadvantage reports whether attacks against the bearer have disadvantage.
func (s *ActiveSet) IncomingDisadvantage() bool {
	for _, ac := range s.conditions {
		if ac.Def.IncomingDisadvantage {
			return true
		}
	}
	return false
}

// Snapshots returns the serializable state of the set, sorted by id.
func (s *ActiveSet) Snapshots() []Snapshot {
	out := make([]Snapshot, 0, len(s.conditions))
	for _, ac := range s.All() {
		out = append(out, Snapshot{
			ID:                ac.Def.ID,
			Stacks:            ac.Stacks,
			DurationRemaining: ac.DurationRemaining,
		})
	}
	return out
}

// RestoreSet rebuilds an ActiveSet from snapshots, resolving definitions
// through reg. Unknown condition ids are an error so a bad save surfaces
// instead of silently dropping state.
func RestoreSet(reg *Registry, snaps []Snapshot) (*ActiveSet, error) {
	s := NewActiveSet()
	for _, snap := range snaps {
		def, ok := reg.Get(snap.ID)
		if !ok {
			return nil, fmt.Errorf("restoring conditions: unknown condition %q", snap.ID)
		}
		s.conditions[snap.ID] = &Active{
			Def:               def,
			Stacks:            snap.Stacks,
			DurationRemaining: snap.DurationRemaining,
		}
	}
	return s, nil
}
