// Package memory provides an in-memory campaign repository for tests and
// for playing without a database.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/icruces/mazmorra/internal/storage"
)

// Repository keeps campaigns in process memory. It honors the same
// contract as the PostgreSQL repository, including the error sentinels,
// schema version check and last-played bookkeeping, so sessions behave
// identically on either backend. Safe for concurrent use.
type Repository struct {
	mu        sync.RWMutex
	campaigns map[uuid.UUID]*storage.Campaign
	byName    map[string]uuid.UUID
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		campaigns: make(map[uuid.UUID]*storage.Campaign),
		byName:    make(map[string]uuid.UUID),
	}
}

// Create stores a new campaign and returns an independent copy with ID,
// schema version and timestamps set.
//
// Postcondition: Returns storage.ErrNameTaken when the name or a caller
// supplied id is already in use.
func (r *Repository) Create(ctx context.Context, c *storage.Campaign) (*storage.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[c.Name]; taken {
		return nil, storage.ErrNameTaken
	}

	stored := clone(c)
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if _, exists := r.campaigns[stored.ID]; exists {
		return nil, storage.ErrNameTaken
	}
	stored.SchemaVersion = storage.SchemaVersion
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.LastPlayedAt = now

	r.campaigns[stored.ID] = stored
	r.byName[stored.Name] = stored.ID
	return clone(stored), nil
}

// Load returns the campaign with the given id and marks it as played now.
//
// Postcondition: Returns storage.ErrNotFound when absent or
// storage.ErrSchemaVersion on a layout mismatch. A refused load does not
// update the last-played time.
func (r *Repository) Load(ctx context.Context, id uuid.UUID) (*storage.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.campaigns[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r.loadLocked(stored)
}

// LoadByName behaves like Load but looks the campaign up by name.
func (r *Repository) LoadByName(ctx context.Context, name string) (*storage.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byName[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r.loadLocked(r.campaigns[id])
}

// loadLocked checks the schema version, advances the last-played time and
// returns an independent copy.
//
// Precondition: r.mu must be held for writing.
func (r *Repository) loadLocked(stored *storage.Campaign) (*storage.Campaign, error) {
	if stored.SchemaVersion != storage.SchemaVersion {
		return nil, fmt.Errorf("campaign %q has schema %s, engine expects %s: %w",
			stored.Name, stored.SchemaVersion, storage.SchemaVersion, storage.ErrSchemaVersion)
	}
	stored.LastPlayedAt = time.Now().UTC()
	return clone(stored), nil
}

// Save overwrites the documents and summary fields of an existing campaign
// and marks it as played now. The name, creation time and schema version
// never change after Create.
//
// Postcondition: Returns nil on success, storage.ErrNotFound for unknown ids.
func (r *Repository) Save(ctx context.Context, c *storage.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.campaigns[c.ID]
	if !ok {
		return storage.ErrNotFound
	}

	stored.CharacterName = c.CharacterName
	stored.Class = c.Class
	stored.Level = c.Level
	stored.Character = bytes.Clone(c.Character)
	stored.Inventory = bytes.Clone(c.Inventory)
	stored.Combat = bytes.Clone(c.Combat)
	stored.NPCs = bytes.Clone(c.NPCs)
	stored.History = bytes.Clone(c.History)
	stored.Metadata = bytes.Clone(c.Metadata)
	stored.LastPlayedAt = time.Now().UTC()
	return nil
}

// List returns all campaign summaries, most recently played first. Ties
// are broken by name so the order is deterministic.
func (r *Repository) List(ctx context.Context) ([]storage.Summary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]storage.Summary, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		summaries = append(summaries, c.Summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].LastPlayedAt.Equal(summaries[j].LastPlayedAt) {
			return summaries[i].LastPlayedAt.After(summaries[j].LastPlayedAt)
		}
		return summaries[i].Name < summaries[j].Name
	})
	return summaries, nil
}

// LastPlayed returns the summary of the most recently played campaign.
//
// Postcondition: Returns storage.ErrNotFound when no campaign exists.
func (r *Repository) LastPlayed(ctx context.Context) (*storage.Summary, error) {
	summaries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, storage.ErrNotFound
	}
	s := summaries[0]
	return &s, nil
}

// clone deep-copies a campaign so callers never alias the stored
// documents. bytes.Clone preserves nil, keeping a nil Combat nil.
func clone(c *storage.Campaign) *storage.Campaign {
	out := *c
	out.Character = bytes.Clone(c.Character)
	out.Inventory = bytes.Clone(c.Inventory)
	out.Combat = bytes.Clone(c.Combat)
	out.NPCs = bytes.Clone(c.NPCs)
	out.History = bytes.Clone(c.History)
	out.Metadata = bytes.Clone(c.Metadata)
	return &out
}
