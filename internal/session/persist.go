package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/game/character"
	"github.com/icruces/mazmorra/internal/game/combat"
	"github.com/icruces/mazmorra/internal/game/narrate"
	"github.com/icruces/mazmorra/internal/storage"
)

// buildCampaign folds the running session into a storage row.
//
// Invariant: the inventory document mirrors the character sheet for
// equipment and items; the sheet is authoritative and the mirror exists
// so the document reads complete on its own.
func (s *Session) buildCampaign() (*storage.Campaign, error) {
	s.inv.Equipment = s.pc.Source.Equipment
	s.inv.Items = s.pc.Source.Inventory

	camp := &storage.Campaign{
		Summary: storage.Summary{
			ID:            s.campaignID,
			Name:          s.campaign,
			CharacterName: s.pc.Source.Name,
			Class:         s.pc.Source.Class,
			Level:         s.pc.Source.Level,
		},
	}

	var err error
	if camp.Character, err = json.Marshal(s.pc); err != nil {
		return nil, fmt.Errorf("marshal character: %w", err)
	}
	if camp.Inventory, err = json.Marshal(s.inv); err != nil {
		return nil, fmt.Errorf("marshal inventory: %w", err)
	}
	if camp.NPCs, err = json.Marshal(s.roster); err != nil {
		return nil, fmt.Errorf("marshal npcs: %w", err)
	}
	if camp.History, err = json.Marshal(s.journal); err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}
	if camp.Metadata, err = json.Marshal(s.meta); err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	// The combat document only exists mid-encounter. Finished or absent
	// encounters save as null so loading never resurrects a dead fight.
	if s.mgr != nil && s.mgr.State() == combat.StateRunning {
		snap := s.mgr.Snapshot()
		if camp.Combat, err = json.Marshal(snap); err != nil {
			return nil, fmt.Errorf("marshal combat: %w", err)
		}
	}
	return camp, nil
}

// save persists the session. Safe to call from the shutdown hook while
// the play loop is blocked reading input: the loop only holds the mutex
// while processing a line, never while waiting for one.
func (s *Session) save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

// saveLocked persists the session. The caller holds s.mu.
func (s *Session) saveLocked(ctx context.Context) error {
	if s.pc == nil || s.campaignID == uuid.Nil {
		// Nothing to save: the campaign interview did not finish.
		return nil
	}
	camp, err := s.buildCampaign()
	if err != nil {
		return err
	}
	if err := s.repo.Save(ctx, camp); err != nil {
		return fmt.Errorf("save campaign %q: %w", s.campaign, err)
	}
	s.log.Debug("campaign saved",
		zap.String("campaign", s.campaign),
		zap.Int("journal_entries", len(s.journal.Entries)))
	return nil
}

func emptyDoc(doc json.RawMessage) bool {
	doc = bytes.TrimSpace(doc)
	return len(doc) == 0 || bytes.Equal(doc, []byte("null"))
}

// restoreCampaign rebuilds session state from a storage row.
//
// The character document wins over the inventory mirror for equipment
// and items; derived stats are recomputed against the loaded compendium
// so content fixes reach old saves.
func (s *Session) restoreCampaign(c *storage.Campaign) error {
	var pc character.Character
	if err := json.Unmarshal(c.Character, &pc); err != nil {
		return fmt.Errorf("decode character: %w", err)
	}
	if err := pc.Recompute(s.comp, time.Now().UTC()); err != nil {
		return fmt.Errorf("restore character: %w", err)
	}

	inv := Inventory{}
	if !emptyDoc(c.Inventory) {
		if err := json.Unmarshal(c.Inventory, &inv); err != nil {
			return fmt.Errorf("decode inventory: %w", err)
		}
	}
	inv.Equipment = pc.Source.Equipment
	inv.Items = pc.Source.Inventory

	roster := Roster{}
	if !emptyDoc(c.NPCs) {
		if err := json.Unmarshal(c.NPCs, &roster); err != nil {
			return fmt.Errorf("decode npcs: %w", err)
		}
	}

	journal := Journal{}
	if !emptyDoc(c.History) {
		if err := json.Unmarshal(c.History, &journal); err != nil {
			return fmt.Errorf("decode history: %w", err)
		}
	}

	meta := Metadata{}
	if !emptyDoc(c.Metadata) {
		if err := json.Unmarshal(c.Metadata, &meta); err != nil {
			return fmt.Errorf("decode metadata: %w", err)
		}
	}

	var mgr *combat.Manager
	if !emptyDoc(c.Combat) {
		var snap combat.Snapshot
		if err := json.Unmarshal(c.Combat, &snap); err != nil {
			return fmt.Errorf("decode combat: %w", err)
		}
		restored, err := combat.Restore(snap, s.comp, s.conds, s.roller, s.log)
		if err != nil {
			return fmt.Errorf("restore combat: %w", err)
		}
		if restored.State() == combat.StateRunning {
			mgr = restored
		}
	}

	s.mu.Lock()
	s.campaignID = c.ID
	s.campaign = c.Name
	s.pc = &pc
	s.inv = inv
	s.roster = roster
	s.journal = journal
	s.meta = meta
	s.mgr = mgr
	if meta.NarrationStyle != "" {
		s.setStyle(narrate.ParseStyle(meta.NarrationStyle))
	}
	s.rules = meta.RulesMode
	s.mu.Unlock()
	return nil
}
