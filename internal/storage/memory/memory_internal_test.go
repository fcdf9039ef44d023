package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icruces/mazmorra/internal/storage"
)

// Create always stamps the current schema version, so a mismatch can only
// be produced by reaching into the store directly.
func TestLoad_SchemaVersionMismatch(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &storage.Campaign{
		Summary:   storage.Summary{Name: "antigua", CharacterName: "Tharivol", Class: "explorador", Level: 1},
		Character: json.RawMessage(`{"nombre": "Tharivol"}`),
		Inventory: json.RawMessage(`{"objetos": []}`),
		NPCs:      json.RawMessage(`{"npcs": []}`),
		History:   json.RawMessage(`{"eventos": []}`),
		Metadata:  json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	repo.campaigns[created.ID].SchemaVersion = "0.9"
	before := repo.campaigns[created.ID].LastPlayedAt

	_, err = repo.Load(ctx, created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrSchemaVersion)

	_, err = repo.LoadByName(ctx, "antigua")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrSchemaVersion)

	assert.True(t, repo.campaigns[created.ID].LastPlayedAt.Equal(before),
		"a refused load should not advance the last played time")
}
