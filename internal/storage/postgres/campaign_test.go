package postgres_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/icruces/mazmorra/internal/storage"
	"github.com/icruces/mazmorra/internal/storage/postgres"
	"github.com/icruces/mazmorra/internal/testutil"
)

var _ storage.Repository = (*postgres.CampaignRepository)(nil)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func newCampaignRepo(t *testing.T) *postgres.CampaignRepository {
	t.Helper()
	pool := testutil.NewPool(t)
	return postgres.NewCampaignRepository(pool.DB())
}

func makeTestCampaign(name string) *storage.Campaign {
	return &storage.Campaign{
		Summary: storage.Summary{
			Name:          name,
			CharacterName: "Tharivol",
			Class:         "explorador",
			Level:         1,
		},
		Character: json.RawMessage(`{"nombre": "Tharivol", "clase": "explorador", "nivel": 1, "hp_actual": 12}`),
		Inventory: json.RawMessage(`{"equipado": {"arma_principal": "espada_corta"}, "objetos": [], "dinero": {"po": 10}}`),
		NPCs:      json.RawMessage(`{"npcs": []}`),
		History:   json.RawMessage(`{"eventos": [], "resumenes": []}`),
		Metadata:  json.RawMessage(`{"nombre_partida": "` + name + `", "version_framework": "1.0.0-alpha"}`),
	}
}

func TestCampaignRepository_Create(t *testing.T) {
	repo := newCampaignRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestCampaign("la_cripta"))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "la_cripta", created.Name)
	assert.Equal(t, "Tharivol", created.CharacterName)
	assert.Equal(t, "explorador", created.Class)
	assert.Equal(t, 1, created.Level)
	assert.Equal(t, storage.SchemaVersion, created.SchemaVersion)
	assert.False(t, created.CreatedAt.IsZero())
	assert.True(t, created.CreatedAt.Equal(created.LastPlayedAt),
		"a new campaign should have equal creation and last played times")
	assert.Nil(t, created.Combat, "a new campaign has no active combat")
}

func TestCampaignRepository_Create_KeepsCallerID(t *testing.T) {
	repo := newCampaignRepo(t)
	ctx := context.Background()

	id := uuid.New()
	c := makeTestCampaign("la_cripta")
	c.ID = id

	created, err := repo.Create(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, id, created.ID)
}

func TestCampaignRepository_Create_DuplicateName(t *testing.T) {
	repo := newCampaignRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, makeTestCampaign("la_cripta"))
	require.NoError(t, err)

	_, err = repo.Create(ctx, makeTestCampaign("la_cripta"))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNameTaken)
}

func TestCampaignRepository_Load(t *testing.T) {
	repo := newCampaignRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestCampaign("la_cripta"))
	require.NoError(t, err)

	loaded, err := repo.Load(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, loaded.ID)
	assert.Equal(t, "la_cripta", loaded.Name)
	assert.Equal(t, storage.SchemaVersion, loaded.SchemaVersion)
	assert.JSONEq(t, string(created.Character), string(loaded.Character))
	assert.JSONEq(t, string(created.Inventory), string(loaded.Inventory))
	assert.JSONEq(t, string(created.NPCs), string(loaded.NPCs))
	assert.JSONEq(t, string(created.History), string(loaded.History))
	assert.JSONEq(t, string(created.Metadata), string(loaded.Metadata))
	assert.Nil(t, loaded.Combat)
}

func TestCampaignRepository_Load_NotFound(t *testing.T) {
	repo := newCampaignRepo(t)
	_, err := repo.Load(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCampaignRepository_Load_UpdatesLastPlayed(t *testing.T) {
	repo := newCampaignRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestCampaign("la_cripta"))
	require.NoError(t, err)

	// NOW() has microsecond resolution; keep the two statements apart.
	time.Sleep(5 * time.Millisecond)

	loaded, err := repo.Load(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, loaded.LastPlayedAt.After(created.LastPlayedAt),
		"loading a campaign should advance its last played time")
	assert.True(t, loaded.CreatedAt.Equal(created.CreatedAt),
		"loading a campaign should not change its creation time")
}

func TestCampaignRepository_Load_SchemaVersionMismatch(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	repo := postgres.NewCampaignRepository(pc.RawPool)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestCampaign("la_cripta"))
	require.NoError(t, err)

	_, err = pc.RawPool.Exec(ctx,
		`UPDATE campaigns SET schema_version = '0.9' WHERE id = $1`, created.ID)
	require.NoError(t, err)

	_, err = repo.Load(ctx, created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrSchemaVersion)

	_, err = repo.LoadByName(ctx, "la_cripta")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrSchemaVersion)
}

func TestCampaignRepository_LoadByName(t *testing.T) {
	repo := newCampaignRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestCampaign("la_cripta"))
	require.NoError(t, err)

	loaded, err := repo.LoadByName(ctx, "la_cripta")
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)
	assert.JSONEq(t, string(created.Character), string(loaded.Character))
}

func TestCampaignRepository_LoadByName_NotFound(t *testing.T) {
	repo := newCampaignRepo(t)
	_, err := repo.LoadByName(context.Background(), "no_existe")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCampaignRepository_Save(t *testing.T) {
	repo := newCampaignRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestCampaign("la_cripta"))
	require.NoError(t, err)

	created.Level = 2
	created.Character = json.RawMessage(`{"nombre": "Tharivol", "clase": "explorador", "nivel": 2, "hp_actual": 19}`)
	created.Combat = json.RawMessage(`{"activo": true, "ronda": 3}`)
	require.NoError(t, repo.Save(ctx, created))

	loaded, err := repo.Load(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Level)
	assert.JSONEq(t, string(created.Character), string(loaded.Character))
	assert.JSONEq(t, `{"activo": true, "ronda": 3}`, string(loaded.Combat))
}

func TestCampaignRepository_Save_NotFound(t *testing.T) {
	repo := newCampaignRepo(t)

	c := makeTestCampaign("la_cripta")
	c.ID = uuid.New()
	err := repo.Save(context.Background(), c)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCampaignRepository_Save_ClearsCombat(t *testing.T) {
	repo := newCampaignRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, makeTestCampaign("la_cripta"))
	require.NoError(t, err)

	created.Combat = json.RawMessage(`{"activo": true, "ronda": 1}`)
	require.NoError(t, repo.Save(ctx, created))

	loaded, err := repo.Load(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Combat)

	loaded.Combat = nil
	require.NoError(t, repo.Save(ctx, loaded))

	reloaded, err := repo.Load(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Combat, "a finished combat should clear the stored snapshot")
}

func TestCampaignRepository_List(t *testing.T) {
	repo := newCampaignRepo(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, makeTestCampaign("alfa"))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = repo.Create(ctx, makeTestCampaign("beta"))
	require.NoError(t, err)

	summaries, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "beta", summaries[0].Name)
	assert.Equal(t, "alfa", summaries[1].Name)

	// Loading the older campaign moves it to the front.
	time.Sleep(5 * time.Millisecond)
	_, err = repo.Load(ctx, first.ID)
	require.NoError(t, err)

	summaries, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "alfa", summaries[0].Name)
}

func TestCampaignRepository_List_Empty(t *testing.T) {
	repo := newCampaignRepo(t)
	summaries, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}

func TestCampaignRepository_LastPlayed(t *testing.T) {
	repo := newCampaignRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, makeTestCampaign("alfa"))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := repo.Create(ctx, makeTestCampaign("beta"))
	require.NoError(t, err)

	last, err := repo.LastPlayed(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, last.ID)
	assert.Equal(t, "beta", last.Name)
}

func TestCampaignRepository_LastPlayed_Empty(t *testing.T) {
	repo := newCampaignRepo(t)
	_, err := repo.LastPlayed(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// newCampaignRepoShared creates a single pool for use across multiple rapid
// iterations within one property test. Each iteration uses a unique campaign
// name to ensure isolation without spawning a new container per iteration.
func newCampaignRepoShared(t *testing.T) *postgres.CampaignRepository {
	t.Helper()
	pool := testutil.NewPool(t)
	return postgres.NewCampaignRepository(pool.DB())
}

// TestCampaignRepository_Property_CreateThenLoadRoundTrips verifies that for
// any summary fields and document content, Create followed by Load returns
// the campaign that was stored.
func TestCampaignRepository_Property_CreateThenLoadRoundTrips(t *testing.T) {
	repo := newCampaignRepoShared(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		name := uniqueName(rapid.StringMatching(`[a-z][a-z0-9_]{1,12}`).Draw(rt, "name"))
		level := rapid.IntRange(1, 20).Draw(rt, "level")
		hp := rapid.IntRange(1, 200).Draw(rt, "hp")

		c := makeTestCampaign(name)
		c.Level = level
		c.Character = json.RawMessage(fmt.Sprintf(`{"nombre": "Tharivol", "nivel": %d, "hp_actual": %d}`, level, hp))

		created, err := repo.Create(ctx, c)
		require.NoError(rt, err)

		loaded, err := repo.Load(ctx, created.ID)
		require.NoError(rt, err)

		assert.Equal(rt, created.ID, loaded.ID)
		assert.Equal(rt, name, loaded.Name)
		assert.Equal(rt, level, loaded.Level)
		assert.JSONEq(rt, string(c.Character), string(loaded.Character))
	})
}

// TestCampaignRepository_Property_DuplicateNameAlwaysErrors verifies that
// creating two campaigns with the same name always returns ErrNameTaken.
func TestCampaignRepository_Property_DuplicateNameAlwaysErrors(t *testing.T) {
	repo := newCampaignRepoShared(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		name := uniqueName(rapid.StringMatching(`[a-z][a-z0-9_]{1,12}`).Draw(rt, "name"))

		_, err := repo.Create(ctx, makeTestCampaign(name))
		require.NoError(rt, err)

		_, err = repo.Create(ctx, makeTestCampaign(name))
		require.Error(rt, err)
		assert.ErrorIs(rt, err, storage.ErrNameTaken)
	})
}
