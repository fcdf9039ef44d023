package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/icruces/mazmorra/internal/game/character"
)

// The campaign row stores six JSON documents. Their shapes live here:
// the repositories treat them as opaque bytes and the game packages
// never see them, so the session is the single place that knows how a
// running game folds into a save and back.

// Purse holds the party's coins by denomination: copper, silver,
// electrum, gold and platinum pieces.
type Purse struct {
	Copper   int `json:"pc"`
	Silver   int `json:"pp"`
	Electrum int `json:"pe"`
	Gold     int `json:"po"`
	Platinum int `json:"ppt"`
}

// Total returns the purse value in copper pieces.
func (p Purse) Total() int {
	return p.Copper + p.Silver*10 + p.Electrum*50 + p.Gold*100 + p.Platinum*1000
}

// String lists the non-empty denominations, largest first.
func (p Purse) String() string {
	var parts []string
	if p.Platinum > 0 {
		parts = append(parts, fmt.Sprintf("%d ppt", p.Platinum))
	}
	if p.Gold > 0 {
		parts = append(parts, fmt.Sprintf("%d po", p.Gold))
	}
	if p.Electrum > 0 {
		parts = append(parts, fmt.Sprintf("%d pe", p.Electrum))
	}
	if p.Silver > 0 {
		parts = append(parts, fmt.Sprintf("%d pp", p.Silver))
	}
	if p.Copper > 0 {
		parts = append(parts, fmt.Sprintf("%d pc", p.Copper))
	}
	if len(parts) == 0 {
		return "sin monedas"
	}
	return strings.Join(parts, ", ")
}

// Inventory is the carried-goods document. Equipment and Items mirror
// the character sheet at save time; the purse lives here because the
// sheet has no slot for money.
type Inventory struct {
	Equipment character.Equipment        `json:"equipado"`
	Items     []character.InventoryEntry `json:"objetos"`
	Money     Purse                      `json:"dinero"`
}

// NPC is one creature or character the party has met.
type NPC struct {
	ID       string `json:"id"`
	Name     string `json:"nombre"`
	Ref      string `json:"compendio_ref,omitempty"`
	Attitude string `json:"actitud,omitempty"`
	Dead     bool   `json:"muerto,omitempty"`
	Notes    string `json:"notas,omitempty"`
}

// Roster is the NPC document.
type Roster struct {
	NPCs []NPC `json:"npcs"`
}

// Record upserts an entry by id, so a creature met twice keeps one line.
func (r *Roster) Record(npc NPC) {
	for i := range r.NPCs {
		if r.NPCs[i].ID == npc.ID {
			r.NPCs[i] = npc
			return
		}
	}
	r.NPCs = append(r.NPCs, npc)
}

// Journal entry kinds.
const (
	journalNarration = "narracion"
	journalCombat    = "combate"
	journalSystem    = "sistema"
)

// JournalEntry is one line of the campaign log.
type JournalEntry struct {
	At   time.Time `json:"fecha"`
	Kind string    `json:"tipo"`
	Text string    `json:"texto"`
}

// CampaignStats carries the running totals shown on the sheet and kept
// across sessions.
type CampaignStats struct {
	Combats         int `json:"combates_totales"`
	EnemiesDefeated int `json:"enemigos_derrotados"`
	Deaths          int `json:"muertes_personaje"`
}

// Journal is the history document: an append-only campaign log plus the
// running totals.
type Journal struct {
	Entries []JournalEntry `json:"eventos"`
	Stats   CampaignStats  `json:"estadisticas"`
}

// Append adds one entry stamped with the current time.
func (j *Journal) Append(kind, text string) {
	j.Entries = append(j.Entries, JournalEntry{
		At:   time.Now().UTC(),
		Kind: kind,
		Text: text,
	})
}

// Tail returns the most recent n entries, oldest first.
func (j *Journal) Tail(n int) []JournalEntry {
	if n <= 0 || len(j.Entries) <= n {
		return j.Entries
	}
	return j.Entries[len(j.Entries)-n:]
}

// Metadata is the campaign settings document.
type Metadata struct {
	NarrationStyle string  `json:"estilo_narracion,omitempty"`
	RulesMode      bool    `json:"modo_reglas,omitempty"`
	SessionsPlayed int     `json:"sesiones_jugadas"`
	Seed           *uint64 `json:"semilla,omitempty"`
	Notes          string  `json:"notas,omitempty"`
}
