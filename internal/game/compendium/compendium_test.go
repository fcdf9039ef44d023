package compendium_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/icruces/mazmorra/internal/game/compendium"
)

func loadTestContent(t *testing.T) *compendium.Compendium {
	t.Helper()
	comp, err := compendium.Load(filepath.Join("testdata", "compendio"))
	require.NoError(t, err, "test content should load")
	return comp
}

func TestLoadDirectory(t *testing.T) {
	comp := loadTestContent(t)

	t.Run("weapons", func(t *testing.T) {
		sword, ok := comp.Weapon("espada_larga")
		require.True(t, ok)
		assert.Equal(t, "Espada larga", sword.Name)
		assert.Equal(t, "1d8", sword.Damage)
		assert.Equal(t, "cortante", sword.DamageType)
		assert.False(t, sword.IsRanged())
		assert.True(t, sword.HasProperty("versatil"))
		assert.False(t, sword.HasProperty("sutil"))

		bow, ok := comp.Weapon("arco_corto")
		require.True(t, ok)
		assert.True(t, bow.IsRanged())

		dagger, ok := comp.Weapon("daga")
		require.True(t, ok)
		assert.False(t, dagger.IsRanged(), "a thrown melee weapon is still melee")
	})

	t.Run("armors and shields", func(t *testing.T) {
		leather, ok := comp.Armor("cuero")
		require.True(t, ok)
		assert.Equal(t, 11, leather.BaseAC)
		assert.Nil(t, leather.MaxDexMod, "light armor has no DEX cap")
		assert.True(t, leather.Profile().AddDex)

		chainShirt, ok := comp.Armor("camisote_mallas")
		require.True(t, ok)
		require.NotNil(t, chainShirt.MaxDexMod)
		assert.Equal(t, 2, *chainShirt.MaxDexMod)

		chainMail, ok := comp.Armor("cota_mallas")
		require.True(t, ok)
		assert.False(t, chainMail.Profile().AddDex, "heavy armor ignores DEX")
		assert.True(t, chainMail.StealthDisadvantage)
		assert.Equal(t, 13, chainMail.StrengthReq)

		shield, ok := comp.Shield("escudo")
		require.True(t, ok)
		assert.Equal(t, 2, shield.ACBonus)
	})

	t.Run("spells", func(t *testing.T) {
		ray, ok := comp.Spell("rayo_escarcha")
		require.True(t, ok)
		assert.True(t, ray.IsCantrip())
		assert.True(t, ray.AttackRoll)
		assert.True(t, ray.TargetsCreature())

		cure, ok := comp.Spell("curar_heridas")
		require.True(t, ok)
		assert.False(t, cure.IsCantrip())
		assert.Equal(t, "1d8", cure.Healing)

		hands, ok := comp.Spell("manos_ardientes")
		require.True(t, ok)
		assert.Equal(t, "destreza", hands.Save)
		assert.True(t, hands.HalfOnSave)
		assert.False(t, hands.TargetsCreature())
		require.NotNil(t, hands.Scaling)
		assert.Equal(t, "1d6", hands.Scaling.DicePerLevel)
	})

	t.Run("monsters", func(t *testing.T) {
		goblin, ok := comp.Monster("goblin")
		require.True(t, ok)
		assert.Equal(t, 7, goblin.HP)
		assert.Equal(t, 15, goblin.AC)
		assert.Equal(t, 14, goblin.Abilities["destreza"])
		assert.Equal(t, 50, goblin.XP)
		require.Len(t, goblin.Actions, 2)
		assert.False(t, goblin.Actions[0].IsRanged())
		assert.True(t, goblin.Actions[1].IsRanged(), `alcance "80/320" marks a ranged action`)

		wolf, ok := comp.Monster("lobo")
		require.True(t, ok)
		require.Len(t, wolf.Traits, 2)
		assert.True(t, wolf.Traits[0].Structured())

		// Text-only traits are tolerated and keep text plus tags.
		require.Len(t, goblin.Traits, 1)
		assert.False(t, goblin.Traits[0].Structured())
		assert.NotEmpty(t, goblin.Traits[0].Text)
		assert.Equal(t, []string{"economia_acciones"}, goblin.Traits[0].Tags)
	})

	t.Run("items", func(t *testing.T) {
		potion, ok := comp.Item("pocion_curacion")
		require.True(t, ok)
		assert.Equal(t, "2d4+2", potion.Healing)
		assert.True(t, potion.IsMagical)

		_, ok = comp.Item("no_existe")
		assert.False(t, ok)
	})

	t.Run("category lookup", func(t *testing.T) {
		cat, ok := comp.CategoryOf("goblin")
		require.True(t, ok)
		assert.Equal(t, compendium.CategoryMonster, cat)

		cat, ok = comp.CategoryOf("espada_larga")
		require.True(t, ok)
		assert.Equal(t, compendium.CategoryWeapon, cat)

		cat, ok = comp.CategoryOf("pocion_curacion")
		require.True(t, ok)
		assert.Equal(t, compendium.CategoryItem, cat)

		assert.True(t, comp.Has("escudo"))
		assert.False(t, comp.Has("dragon_rojo"))
	})

	t.Run("listings are sorted", func(t *testing.T) {
		weapons := comp.Weapons()
		require.Len(t, weapons, 3)
		assert.Equal(t, "arco_corto", weapons[0].ID)
		assert.Equal(t, "daga", weapons[1].ID)
		assert.Equal(t, "espada_larga", weapons[2].ID)

		monsters := comp.Monsters()
		require.Len(t, monsters, 3)
		assert.Equal(t, "esqueleto", monsters[0].ID)
	})
}

func TestLoadVersionGuard(t *testing.T) {
	t.Run("unsupported version", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "_meta.json"), []byte(`{"version": 99}`), 0o644))

		_, err := compendium.Load(dir)
		require.Error(t, err)
		assert.ErrorIs(t, err, compendium.ErrSchemaVersion)
	})

	t.Run("missing meta", func(t *testing.T) {
		_, err := compendium.Load(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("missing collections tolerated", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "_meta.json"), []byte(`{"version": 1}`), 0o644))

		comp, err := compendium.Load(dir)
		require.NoError(t, err, "a content set may omit whole categories")
		assert.Empty(t, comp.Weapons())
		assert.Empty(t, comp.Monsters())
	})

	t.Run("malformed collection", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "_meta.json"), []byte(`{"version": 1}`), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "armas.json"), []byte(`{"armas": [{`), 0o644))

		_, err := compendium.Load(dir)
		assert.Error(t, err)
	})
}

func TestNewValidation(t *testing.T) {
	abilities := map[string]int{
		"fuerza": 10, "destreza": 10, "constitucion": 10,
		"inteligencia": 10, "sabiduria": 10, "carisma": 10,
	}

	cases := []struct {
		name    string
		content compendium.Content
		wantErr string
	}{
		{
			name: "weapon with invalid damage",
			content: compendium.Content{Weapons: []*compendium.Weapon{
				{ID: "raro", Name: "Raro", Damage: "1d7", DamageType: "cortante"},
			}},
			wantErr: "daño",
		},
		{
			name: "weapon without damage type",
			content: compendium.Content{Weapons: []*compendium.Weapon{
				{ID: "raro", Name: "Raro", Damage: "1d6"},
			}},
			wantErr: "tipo_daño",
		},
		{
			name: "armor with unknown type",
			content: compendium.Content{Armors: []*compendium.Armor{
				{ID: "placas", Name: "Placas", BaseAC: 18, Type: "brillante"},
			}},
			wantErr: "tipo",
		},
		{
			name: "spell beyond level 9",
			content: compendium.Content{Spells: []*compendium.Spell{
				{ID: "deseo_mayor", Name: "Deseo mayor", Level: 10},
			}},
			wantErr: "nivel",
		},
		{
			name: "spell with unknown save ability",
			content: compendium.Content{Spells: []*compendium.Spell{
				{ID: "terror", Name: "Terror", Level: 3, Save: "coraje"},
			}},
			wantErr: "salvacion",
		},
		{
			name: "monster missing ability",
			content: compendium.Content{Monsters: []*compendium.Monster{
				{ID: "sombra", Name: "Sombra", HP: 10, AC: 12,
					Abilities: map[string]int{"fuerza": 10}},
			}},
			wantErr: "atributos",
		},
		{
			name: "duplicate weapon id",
			content: compendium.Content{Weapons: []*compendium.Weapon{
				{ID: "daga", Name: "Daga", Damage: "1d4", DamageType: "perforante"},
				{ID: "daga", Name: "Daga 2", Damage: "1d4", DamageType: "perforante"},
			}},
			wantErr: "duplicate",
		},
		{
			name: "monster action with bad damage",
			content: compendium.Content{Monsters: []*compendium.Monster{
				{ID: "orco", Name: "Orco", HP: 15, AC: 13, Abilities: abilities,
					Actions: []compendium.MonsterAction{{Name: "Hacha", Damage: "eh"}}},
			}},
			wantErr: "Hacha",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := compendium.New(tc.content)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestFactoryCreateMonster(t *testing.T) {
	comp := loadTestContent(t)
	factory := compendium.NewFactory(comp, compendium.NewSequentialSource("mon"))

	inst, err := factory.CreateMonster("goblin", "")
	require.NoError(t, err)
	assert.Equal(t, "mon-1", inst.InstanceID)
	assert.Equal(t, "goblin", inst.CompendiumRef)
	assert.Equal(t, compendium.CategoryMonster, inst.Category)
	assert.Equal(t, "Goblin", inst.Name)
	assert.Equal(t, inst.HPMax, inst.HPCurrent, "instances start at full HP")
	assert.Equal(t, 7, inst.HPMax)
	assert.Equal(t, 50, inst.XP)
	assert.Equal(t, 30, inst.Speed)
	assert.NotNil(t, inst.Conditions)
	assert.Empty(t, inst.Conditions)

	named, err := factory.CreateMonster("goblin", "Goblin 2")
	require.NoError(t, err)
	assert.Equal(t, "mon-2", named.InstanceID)
	assert.Equal(t, "Goblin 2", named.Name)

	t.Run("entry data is copied, not shared", func(t *testing.T) {
		inst.Abilities["destreza"] = 1
		inst.Actions[0].Damage = "9d9+9"

		entry, ok := comp.Monster("goblin")
		require.True(t, ok)
		assert.Equal(t, 14, entry.Abilities["destreza"], "mutating the instance must not touch the entry")
		assert.Equal(t, "1d6+2", entry.Actions[0].Damage)
	})

	t.Run("default speed when entry omits it", func(t *testing.T) {
		mini, err := compendium.New(compendium.Content{Monsters: []*compendium.Monster{{
			ID: "rata", Name: "Rata", HP: 1, AC: 10,
			Abilities: map[string]int{
				"fuerza": 2, "destreza": 11, "constitucion": 9,
				"inteligencia": 2, "sabiduria": 10, "carisma": 4,
			},
		}}})
		require.NoError(t, err)

		rat, err := compendium.NewFactory(mini, compendium.NewSequentialSource("m")).CreateMonster("rata", "")
		require.NoError(t, err)
		assert.Equal(t, 30, rat.Speed)
	})
}

func TestFactoryCreateWeapon(t *testing.T) {
	comp := loadTestContent(t)
	factory := compendium.NewFactory(comp, compendium.NewSequentialSource("itm"))

	inst, err := factory.CreateWeapon("espada_larga")
	require.NoError(t, err)
	assert.Equal(t, "itm-1", inst.InstanceID)
	assert.Equal(t, compendium.CategoryWeapon, inst.Category)
	assert.Equal(t, 1, inst.Quantity)
	require.NotNil(t, inst.Weapon)
	assert.Equal(t, "1d8", inst.Weapon.Damage)
	assert.Equal(t, "cortante", inst.Weapon.DamageType)
	assert.Nil(t, inst.Weapon.MagicBonus, "instances start unenchanted")
	assert.Nil(t, inst.Armor)

	inst.Weapon.Properties[0] = "maldita"
	entry, ok := comp.Weapon("espada_larga")
	require.True(t, ok)
	assert.Equal(t, "versatil", entry.Properties[0], "properties must be copied")
}

func TestFactoryCreateArmor(t *testing.T) {
	comp := loadTestContent(t)
	factory := compendium.NewFactory(comp, compendium.NewSequentialSource("itm"))

	inst, err := factory.CreateArmor("camisote_mallas")
	require.NoError(t, err)
	require.NotNil(t, inst.Armor)
	assert.Equal(t, 13, inst.Armor.BaseAC)
	require.NotNil(t, inst.Armor.MaxDexMod)
	assert.Equal(t, 2, *inst.Armor.MaxDexMod)
	assert.Nil(t, inst.Weapon)

	*inst.Armor.MaxDexMod = 99
	entry, ok := comp.Armor("camisote_mallas")
	require.True(t, ok)
	assert.Equal(t, 2, *entry.MaxDexMod, "the DEX cap pointer must be deep-copied")
}

func TestFactoryCreateItem(t *testing.T) {
	comp := loadTestContent(t)
	factory := compendium.NewFactory(comp, compendium.NewSequentialSource("itm"))

	potion, err := factory.CreateItem("pocion_curacion", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, potion.Quantity)
	assert.Equal(t, compendium.Category("consumible"), potion.Category)
	assert.True(t, potion.IsMagical)

	_, err = factory.CreateItem("pocion_curacion", 0)
	assert.Error(t, err, "quantity below 1 is rejected")
}

func TestFactoryUnknownRef(t *testing.T) {
	comp := loadTestContent(t)
	factory := compendium.NewFactory(comp, nil)

	_, err := factory.CreateMonster("dragon_rojo", "")
	assert.ErrorIs(t, err, compendium.ErrNotFound)

	_, err = factory.CreateWeapon("lanza_solar")
	assert.ErrorIs(t, err, compendium.ErrNotFound)

	_, err = factory.CreateArmor("placas_miticas")
	assert.ErrorIs(t, err, compendium.ErrNotFound)

	_, err = factory.CreateItem("elixir", 1)
	assert.ErrorIs(t, err, compendium.ErrNotFound)
}

func TestUUIDSource(t *testing.T) {
	var src compendium.UUIDSource
	a := src.NewID()
	b := src.NewID()

	_, err := uuid.Parse(a)
	require.NoError(t, err, "ids should be UUID-shaped")
	assert.NotEqual(t, a, b)
}

func TestSequentialSourceUnique(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		src := compendium.NewSequentialSource("x")
		n := rapid.IntRange(1, 50).Draw(t, "n")
		seen := make(map[string]bool, n)
		for i := 0; i < n; i++ {
			id := src.NewID()
			if seen[id] {
				t.Fatalf("duplicate id %q", id)
			}
			seen[id] = true
		}
	})
}
