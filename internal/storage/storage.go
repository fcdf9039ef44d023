// Package storage defines the campaign persistence model shared by the
// PostgreSQL and in-memory repositories.
//
// A campaign keeps a few indexed summary fields for listing plus the six
// JSON documents that make up a saved game: personaje, inventario, combate,
// npcs, historial and meta. Repositories treat the documents as opaque
// JSON; only the session layer knows their shape.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the document layout version this engine reads and
// writes. Campaigns saved with a different version are refused on load
// rather than migrated silently.
const SchemaVersion = "1.1"

var (
	// ErrNotFound is returned when a campaign lookup yields no results.
	ErrNotFound = errors.New("campaign not found")

	// ErrNameTaken is returned when creating a campaign whose name is
	// already in use.
	ErrNameTaken = errors.New("campaign name already taken")

	// ErrSchemaVersion is returned when a stored campaign uses a document
	// layout this engine does not understand.
	ErrSchemaVersion = errors.New("unsupported campaign schema version")
)

// Summary is the campaign list entry: enough to render a load menu
// without deserializing any document.
type Summary struct {
	ID            uuid.UUID
	Name          string
	CharacterName string
	Class         string
	Level         int
	CreatedAt     time.Time
	LastPlayedAt  time.Time
}

// Campaign is a complete saved game: the summary plus the six JSON
// documents.
type Campaign struct {
	Summary

	// SchemaVersion records the document layout the campaign was written
	// with. Load refuses campaigns whose version differs from the package
	// SchemaVersion constant.
	SchemaVersion string

	Character json.RawMessage // personaje: sheet, derived stats, resources
	Inventory json.RawMessage // inventario: equipment, carried items, coins
	Combat    json.RawMessage // combate: encounter snapshot, nil outside combat
	NPCs      json.RawMessage // npcs: named NPCs met so far
	History   json.RawMessage // historial: event log and session summaries
	Metadata  json.RawMessage // meta: campaign id, versions, settings
}

// Repository persists campaigns.
//
// Implementations return ErrNotFound, ErrNameTaken and ErrSchemaVersion
// so callers can branch without knowing the backend.
type Repository interface {
	// Create stores a new campaign and returns it with store-assigned
	// fields set. A zero c.ID is replaced with a fresh UUID, the current
	// SchemaVersion is stamped regardless of what c carries, and both
	// timestamps are assigned by the store. Returns ErrNameTaken when the
	// campaign name is already in use.
	Create(ctx context.Context, c *Campaign) (*Campaign, error)

	// Load returns the campaign with the given id and marks it as played
	// now. Returns ErrNotFound when absent and ErrSchemaVersion when the
	// stored documents use a layout this engine does not understand.
	Load(ctx context.Context, id uuid.UUID) (*Campaign, error)

	// LoadByName behaves like Load but looks the campaign up by name.
	LoadByName(ctx context.Context, name string) (*Campaign, error)

	// Save overwrites the documents and summary fields of an existing
	// campaign and marks it as played now. The name, creation time and
	// schema version are fixed at Create. Returns ErrNotFound for unknown
	// ids.
	Save(ctx context.Context, c *Campaign) error

	// List returns all campaign summaries, most recently played first.
	List(ctx context.Context) ([]Summary, error)

	// LastPlayed returns the summary of the most recently played campaign,
	// or ErrNotFound when no campaign exists.
	LastPlayed(ctx context.Context) (*Summary, error)
}
