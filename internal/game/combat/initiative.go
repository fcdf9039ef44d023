package combat

import "sort"

// sortForInitiative orders combatant IDs into the turn sequence: highest
// initiative first, higher Dexterity modifier breaking ties. The sort is
// stable, so combatants tied on both keep their join order.
func sortForInitiative(ids []string, byID map[string]*Combatant) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := byID[ids[i]], byID[ids[j]]
		if a.Initiative != b.Initiative {
			return a.Initiative > b.Initiative
		}
		return a.DexMod() > b.DexMod()
	})
}
