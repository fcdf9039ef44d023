package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/icruces/mazmorra/internal/storage"
)

// CampaignRepository provides campaign persistence on PostgreSQL. The six
// game documents are stored as JSONB columns named after the documents
// themselves (personaje, inventario, combate, npcs, historial, meta); the
// summary fields are plain columns so listing never touches a document.
type CampaignRepository struct {
	db *pgxpool.Pool
}

// NewCampaignRepository creates a CampaignRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewCampaignRepository(db *pgxpool.Pool) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Create inserts a new campaign and returns it with ID, schema version and
// timestamps set.
//
// Precondition: c.Name must be non-empty.
// Postcondition: Returns the created campaign, or storage.ErrNameTaken when
// the name is already in use.
func (r *CampaignRepository) Create(ctx context.Context, c *storage.Campaign) (*storage.Campaign, error) {
	out := *c
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	out.SchemaVersion = storage.SchemaVersion

	err := r.db.QueryRow(ctx, `
		INSERT INTO campaigns
			(id, name, character_name, class, level, schema_version,
			 personaje, inventario, combate, npcs, historial, meta)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, last_played_at`,
		out.ID, out.Name, out.CharacterName, out.Class, out.Level, out.SchemaVersion,
		out.Character, out.Inventory, out.Combat, out.NPCs, out.History, out.Metadata,
	).Scan(&out.CreatedAt, &out.LastPlayedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, storage.ErrNameTaken
		}
		return nil, fmt.Errorf("inserting campaign: %w", err)
	}
	return &out, nil
}

// Load retrieves a campaign by id and marks it as played now.
//
// Postcondition: Returns the campaign, storage.ErrNotFound when absent, or
// storage.ErrSchemaVersion when the stored layout is not the one this
// engine writes. A refused load does not update last_played_at.
func (r *CampaignRepository) Load(ctx context.Context, id uuid.UUID) (*storage.Campaign, error) {
	var c storage.Campaign
	err := r.db.QueryRow(ctx, `
		SELECT id, name, character_name, class, level, schema_version,
		       personaje, inventario, combate, npcs, historial, meta,
		       created_at, last_played_at
		FROM campaigns WHERE id = $1`,
		id,
	).Scan(
		&c.ID, &c.Name, &c.CharacterName, &c.Class, &c.Level, &c.SchemaVersion,
		&c.Character, &c.Inventory, &c.Combat, &c.NPCs, &c.History, &c.Metadata,
		&c.CreatedAt, &c.LastPlayedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying campaign: %w", err)
	}
	if c.SchemaVersion != storage.SchemaVersion {
		return nil, fmt.Errorf("campaign %q has schema %s, engine expects %s: %w",
			c.Name, c.SchemaVersion, storage.SchemaVersion, storage.ErrSchemaVersion)
	}
	if err := r.touch(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadByName retrieves a campaign by its unique name and marks it as
// played now. Semantics match Load.
func (r *CampaignRepository) LoadByName(ctx context.Context, name string) (*storage.Campaign, error) {
	var c storage.Campaign
	err := r.db.QueryRow(ctx, `
		SELECT id, name, character_name, class, level, schema_version,
		       personaje, inventario, combate, npcs, historial, meta,
		       created_at, last_played_at
		FROM campaigns WHERE name = $1`,
		name,
	).Scan(
		&c.ID, &c.Name, &c.CharacterName, &c.Class, &c.Level, &c.SchemaVersion,
		&c.Character, &c.Inventory, &c.Combat, &c.NPCs, &c.History, &c.Metadata,
		&c.CreatedAt, &c.LastPlayedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying campaign: %w", err)
	}
	if c.SchemaVersion != storage.SchemaVersion {
		return nil, fmt.Errorf("campaign %q has schema %s, engine expects %s: %w",
			c.Name, c.SchemaVersion, storage.SchemaVersion, storage.ErrSchemaVersion)
	}
	if err := r.touch(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save overwrites the documents and summary fields of an existing campaign
// and marks it as played now. The name, creation time and schema version
// never change after Create.
//
// Precondition: c.ID must identify an existing campaign.
// Postcondition: Returns nil on success, storage.ErrNotFound if no row
// was updated.
func (r *CampaignRepository) Save(ctx context.Context, c *storage.Campaign) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE campaigns SET
			character_name = $2, class = $3, level = $4,
			personaje = $5, inventario = $6, combate = $7,
			npcs = $8, historial = $9, meta = $10,
			last_played_at = NOW()
		WHERE id = $1`,
		c.ID, c.CharacterName, c.Class, c.Level,
		c.Character, c.Inventory, c.Combat, c.NPCs, c.History, c.Metadata,
	)
	if err != nil {
		return fmt.Errorf("saving campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List returns all campaign summaries, most recently played first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *CampaignRepository) List(ctx context.Context) ([]storage.Summary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, character_name, class, level, created_at, last_played_at
		FROM campaigns ORDER BY last_played_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing campaigns: %w", err)
	}
	defer rows.Close()

	summaries := make([]storage.Summary, 0)
	for rows.Next() {
		var s storage.Summary
		if err := rows.Scan(
			&s.ID, &s.Name, &s.CharacterName, &s.Class, &s.Level,
			&s.CreatedAt, &s.LastPlayedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning campaign row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// LastPlayed returns the summary of the most recently played campaign.
//
// Postcondition: Returns the summary or storage.ErrNotFound when no
// campaign exists.
func (r *CampaignRepository) LastPlayed(ctx context.Context) (*storage.Summary, error) {
	var s storage.Summary
	err := r.db.QueryRow(ctx, `
		SELECT id, name, character_name, class, level, created_at, last_played_at
		FROM campaigns ORDER BY last_played_at DESC LIMIT 1`,
	).Scan(
		&s.ID, &s.Name, &s.CharacterName, &s.Class, &s.Level,
		&s.CreatedAt, &s.LastPlayedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying last played campaign: %w", err)
	}
	return &s, nil
}

// touch advances last_played_at and refreshes the in-memory copy.
func (r *CampaignRepository) touch(ctx context.Context, c *storage.Campaign) error {
	err := r.db.QueryRow(ctx,
		`UPDATE campaigns SET last_played_at = NOW() WHERE id = $1 RETURNING last_played_at`,
		c.ID,
	).Scan(&c.LastPlayedAt)
	if err != nil {
		return fmt.Errorf("touching campaign: %w", err)
	}
	return nil
}

// isDuplicateKeyError reports whether err is a PostgreSQL unique
// constraint violation (SQLSTATE 23505).
func isDuplicateKeyError(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
