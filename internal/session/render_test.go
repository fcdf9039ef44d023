package session

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icruces/mazmorra/internal/game/character"
	"github.com/icruces/mazmorra/internal/game/combat"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/pipeline"
	"github.com/icruces/mazmorra/internal/game/progress"
	"github.com/icruces/mazmorra/internal/game/rules"
)

func plainRenderer() (*Renderer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewRenderer(&buf), &buf
}

func TestHealthBar(t *testing.T) {
	cases := []struct {
		name   string
		hp     int
		hpMax  int
		width  int
		expect string
	}{
		{"full", 10, 10, 10, "██████████"},
		{"half", 10, 20, 10, "█████░░░░░"},
		{"zero", 0, 10, 10, "░░░░░░░░░░"},
		{"alive keeps one cell", 1, 100, 10, "█░░░░░░░░░"},
		{"clamped above max", 15, 10, 5, "█████"},
		{"clamped below zero", -5, 10, 5, "░░░░░"},
		{"no maximum", 3, 0, 10, ""},
		{"no width", 3, 10, 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, healthBar(tc.hp, tc.hpMax, tc.width))
		})
	}
}

func TestHealthColor(t *testing.T) {
	assert.Equal(t, ansiGreen, healthColor(51, 100))
	assert.Equal(t, ansiYellow, healthColor(50, 100), "exactly half reads as wounded")
	assert.Equal(t, ansiYellow, healthColor(26, 100))
	assert.Equal(t, ansiRed, healthColor(25, 100))
	assert.Equal(t, ansiRed, healthColor(0, 100))
	assert.Equal(t, ansiRed, healthColor(5, 0), "a zero maximum reads as dying")
}

func TestWordWrap(t *testing.T) {
	assert.Equal(t, []string{"uno dos", "tres", "cuatro"}, wordWrap("uno dos tres cuatro", 10))
	assert.Equal(t, []string{"primero", "segundo"}, wordWrap("primero\n\nsegundo", 40), "paragraph breaks survive")
	assert.Equal(t, []string{"extraordinariamente"}, wordWrap("extraordinariamente", 5), "a long word is never split")
	assert.Empty(t, wordWrap("   ", 10))
}

func TestCentered(t *testing.T) {
	assert.Equal(t, "    ab", centered("ab", 10))
	assert.Equal(t, "abcdefghij", centered("abcdefghij", 4), "wide text is left alone")
	assert.Equal(t, "  áé", centered("áé", 6), "padding counts runes, not bytes")
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Guerrero", title("guerrero"))
	assert.Equal(t, "A", title("a"))
	assert.Equal(t, "", title(""))
}

func TestEventDataDecoding(t *testing.T) {
	assert.Equal(t, 7, toInt(7))
	assert.Equal(t, 7, toInt(int64(7)))
	assert.Equal(t, 7, toInt(float64(7)))
	assert.Equal(t, 0, toInt("7"))

	assert.True(t, toBool(true))
	assert.False(t, toBool(nil))
	assert.Equal(t, "x", toString("x"))
	assert.Equal(t, "", toString(3))

	assert.Equal(t, []int{3, 5}, diceList([]int{3, 5}))
	assert.Equal(t, []int{3, 5}, diceList([]any{float64(3), float64(5)}), "history events decode dice as floats")
	assert.Nil(t, diceList("3,5"))
}

func TestRefName(t *testing.T) {
	comp, err := compendium.New(compendium.Content{
		Weapons: []*compendium.Weapon{{ID: "daga", Name: "Daga", Damage: "1d4", DamageType: "perforante"}},
		Items:   []*compendium.Item{{ID: "pocion_curacion", Name: "Poción de curación"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "ninguna", refName(comp, "", "ninguna"))
	assert.Equal(t, "Daga", refName(comp, "daga", ""))
	assert.Equal(t, "Poción de curación", refName(comp, "pocion_curacion", ""))
	assert.Equal(t, "palo_raro", refName(comp, "palo_raro", ""), "unknown references fall back to the id")
	assert.Equal(t, "daga", refName(nil, "daga", ""), "no compendium falls back to the id")
}

func TestStatusLine(t *testing.T) {
	r, buf := plainRenderer()
	pc := &character.Character{
		Source:  character.Source{Name: "Borin"},
		Derived: character.Derived{HPMax: 20, AC: 16},
		Current: character.Current{HP: 10, HPTemp: 3},
	}

	r.StatusLine(pc)
	assert.Equal(t, "Borin | HP █████░░░░░ 10/20 (+3 temp) | CA 16\n", buf.String())
}

func TestNarrationWrapsAndIndents(t *testing.T) {
	r, buf := plainRenderer()
	r.Narration("El goblin cae al suelo con un gruñido seco y la cueva queda en silencio por un largo momento.")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Greater(t, len(lines), 1, "long prose wraps into several lines")
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "  "), "line %q is indented", line)
	}
	assert.True(t, strings.HasSuffix(buf.String(), "\n\n"), "a blank line closes the paragraph")
}

func TestNarrationSkipsEmptyText(t *testing.T) {
	r, buf := plainRenderer()
	r.Narration("   ")
	assert.Zero(t, buf.Len())
}

func TestQuestionNumbersOptions(t *testing.T) {
	r, buf := plainRenderer()
	r.Question("¿A quién quieres atacar?", []pipeline.Option{
		{ID: "goblin_1", Text: "Goblin 1"},
		{ID: "goblin_2", Text: "Goblin 2"},
	})

	want := "¿A quién quieres atacar?\n" +
		"  1. Goblin 1\n" +
		"  2. Goblin 2\n" +
		"Responde con el número, o escribe otra acción.\n"
	assert.Equal(t, want, buf.String())
}

func TestQuestionWithoutOptions(t *testing.T) {
	r, buf := plainRenderer()
	r.Question("¿Qué quieres hacer?", nil)
	assert.Equal(t, "¿Qué quieres hacer?\n", buf.String(), "no options means no numbering footer")
}

func TestRejection(t *testing.T) {
	r, buf := plainRenderer()
	r.Rejection("No te quedan ranuras de conjuro.", "Usa un truco.")
	assert.Equal(t, "No te quedan ranuras de conjuro. Sugerencia: Usa un truco.\n", buf.String())

	buf.Reset()
	r.Rejection("No te quedan ranuras de conjuro.", "")
	assert.Equal(t, "No te quedan ranuras de conjuro.\n", buf.String())
}

func TestInternalError(t *testing.T) {
	r, buf := plainRenderer()
	r.InternalError("pipeline: boom")
	assert.Contains(t, buf.String(), "Error interno del motor. La partida se guarda y la sesión se cierra.")
	assert.Contains(t, buf.String(), "pipeline: boom")
}

func TestTurnDetail(t *testing.T) {
	r, buf := plainRenderer()
	r.TurnDetail(combat.TurnInfo{
		Round: 2, Name: "Borin",
		ActionAvailable: true, BonusAvailable: false, ReactionAvailable: true,
		MovementRemaining: 25, CanAct: true,
	})

	want := "Ronda 2. Turno de Borin.\n" +
		"  Acción: disponible | Acción adicional: gastada | Reacción: disponible\n" +
		"  Movimiento restante: 25 pies\n"
	assert.Equal(t, want, buf.String())

	buf.Reset()
	r.TurnDetail(combat.TurnInfo{Round: 2, Name: "Borin", CanAct: false})
	assert.Contains(t, buf.String(), "No puede actuar este turno.")
}

func TestCombatStatus(t *testing.T) {
	r, buf := plainRenderer()
	r.CombatStatus(combat.Summary{
		Round:  2,
		TurnOf: "goblin_1",
		Combatants: []combat.CombatantStatus{
			{ID: "borin", Name: "Borin", Side: combat.SidePC, HP: 10, HPMax: 12, AC: 18},
			{ID: "goblin_1", Name: "Goblin", Side: combat.SideEnemy, HP: 0, HPMax: 7, AC: 15, Dead: true, Conditions: []string{"aturdido"}},
		},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "=== Combate: ronda 2 ===", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  Borin"), "idle combatants get no marker: %q", lines[1])
	assert.Contains(t, lines[1], "10/12")
	assert.Contains(t, lines[1], "CA 18")
	assert.True(t, strings.HasPrefix(lines[2], "> Goblin"), "the active combatant is marked: %q", lines[2])
	assert.Contains(t, lines[2], "░░░░░░░░░░░░░░░░░░░░")
	assert.Contains(t, lines[2], "MUERTO")
	assert.Contains(t, lines[2], "[aturdido]")
}

func TestEndBanner(t *testing.T) {
	r, buf := plainRenderer()
	r.EndBanner(combat.Summary{
		State:    combat.StateVictory,
		Round:    3,
		XPEarned: 50,
		Fallen:   []string{"Goblin"},
	})

	out := buf.String()
	assert.Contains(t, out, "VICTORIA")
	assert.Contains(t, out, "Rondas totales: 3")
	assert.Contains(t, out, "Experiencia ganada: 50 XP")
	assert.Contains(t, out, "Caídos: Goblin")
}

func TestEndBannerDefeatWithoutXP(t *testing.T) {
	r, buf := plainRenderer()
	r.EndBanner(combat.Summary{State: combat.StateDefeat, Round: 2})

	out := buf.String()
	assert.Contains(t, out, "DERROTA")
	assert.NotContains(t, out, "Experiencia ganada", "a lost fight awards nothing")
}

func TestXPAward(t *testing.T) {
	r, buf := plainRenderer()
	r.XPAward(progress.Award{XPBefore: 0, XPAfter: 50, XPGained: 50})
	assert.Equal(t, "Experiencia: 0 → 50 (+50)\n", buf.String())

	buf.Reset()
	r.XPAward(progress.Award{XPBefore: 250, XPAfter: 350, XPGained: 100, CanLevelUp: true, EarnedLevel: 2})
	assert.Contains(t, buf.String(), "¡Puedes subir al nivel 2! Usa /subir_nivel.")
}

func TestDeathSave(t *testing.T) {
	cases := []struct {
		name    string
		outcome character.DeathSaveOutcome
		expect  string
	}{
		{"fatal", character.DeathSaveOutcome{Roll: 1, Dead: true}, "Tres fallos. Borin ha muerto."},
		{"natural twenty", character.DeathSaveOutcome{Roll: 20, Regained: true}, "¡Un 20! Borin vuelve en sí con 1 PG."},
		{"stabilized", character.DeathSaveOutcome{Roll: 15, Stable: true}, "Borin se estabiliza."},
		{"ongoing", character.DeathSaveOutcome{Roll: 8, Successes: 1, Failures: 2}, "Éxitos 1 / Fallos 2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, buf := plainRenderer()
			r.DeathSave("Borin", tc.outcome)
			assert.Contains(t, buf.String(), "tira salvación de muerte: d20 ["+strconv.Itoa(tc.outcome.Roll)+"]")
			assert.Contains(t, buf.String(), tc.expect)
		})
	}
}

func TestSheet(t *testing.T) {
	r, buf := plainRenderer()
	pc := &character.Character{
		Source: character.Source{
			Name: "Borin", Race: "humano", Class: "guerrero", Level: 1, Background: "soldado",
		},
		Derived: character.Derived{
			Abilities: map[string]int{
				rules.Fuerza: 15, rules.Destreza: 13, rules.Constitucion: 14,
				rules.Inteligencia: 8, rules.Sabiduria: 12, rules.Carisma: 10,
			},
			Modifiers: map[string]int{
				rules.Fuerza: 2, rules.Destreza: 1, rules.Constitucion: 2,
				rules.Inteligencia: -1, rules.Sabiduria: 1, rules.Carisma: 0,
			},
			ProfBonus: 2, HPMax: 12, HitDie: "d10", AC: 18, SpeedFt: 30, InitiativeMod: 1,
		},
		Current: character.Current{HP: 12},
	}

	r.Sheet(pc, CampaignStats{Combats: 1, EnemiesDefeated: 3})

	out := buf.String()
	assert.Contains(t, out, "=== Borin ===")
	assert.Contains(t, out, "Humano guerrero nivel 1 | Soldado")
	assert.Contains(t, out, "CA 18 | Velocidad 30 pies")
	assert.Contains(t, out, "Iniciativa +1 | Competencia +2 | Dado de golpe d10")
	assert.Contains(t, out, "FUE 15 (+2)")
	assert.Contains(t, out, "INT 8 (-1)")
	assert.Contains(t, out, "XP 0 | Faltan 300 para el nivel 2 (0%)")
	assert.Contains(t, out, "Campaña: 1 combates, 3 enemigos derrotados, 0 muertes")
	assert.NotContains(t, out, "CD de conjuros", "non-casters skip the spell block")
}

func TestSheetCaster(t *testing.T) {
	r, buf := plainRenderer()
	pc := &character.Character{
		Source: character.Source{
			Name: "Elaria", Class: "mago", Level: 1,
			Spellcasting: &character.Spellcasting{Ability: rules.Inteligencia, SlotsMax: map[int]int{1: 2}},
		},
		Derived: character.Derived{
			Abilities:   map[string]int{rules.Fuerza: 8, rules.Destreza: 14, rules.Constitucion: 13, rules.Inteligencia: 15, rules.Sabiduria: 12, rules.Carisma: 10},
			Modifiers:   map[string]int{rules.Fuerza: -1, rules.Destreza: 2, rules.Constitucion: 1, rules.Inteligencia: 2, rules.Sabiduria: 1, rules.Carisma: 0},
			HPMax:       7,
			SpellSaveDC: 12, SpellAttackBonus: 4,
		},
		Current: character.Current{HP: 7, SlotsRemaining: map[int]int{1: 1}},
	}

	r.Sheet(pc, CampaignStats{})
	assert.Contains(t, buf.String(), "CD de conjuros 12 | Ataque de conjuro +4")
	assert.Contains(t, buf.String(), "Ranuras: nivel 1: 1/2")
}

func TestInventoryView(t *testing.T) {
	comp, err := compendium.New(compendium.Content{
		Weapons: []*compendium.Weapon{{ID: "espada_larga", Name: "Espada larga", Damage: "1d8", DamageType: "cortante"}},
		Items:   []*compendium.Item{{ID: "pocion_curacion", Name: "Poción de curación", Healing: "2d4+2"}},
	})
	require.NoError(t, err)

	r, buf := plainRenderer()
	r.InventoryView(Inventory{
		Equipment: character.Equipment{MainHandRef: "espada_larga"},
		Items:     []character.InventoryEntry{{Ref: "pocion_curacion", Quantity: 2}},
		Money:     Purse{Gold: 10},
	}, comp)

	out := buf.String()
	assert.Contains(t, out, "Armadura:")
	assert.Contains(t, out, "ninguna")
	assert.Contains(t, out, "Escudo:")
	assert.Contains(t, out, "ninguno")
	assert.Contains(t, out, "Espada larga")
	assert.Contains(t, out, "2x Poción de curación")
	assert.Contains(t, out, "Monedas: 10 po")
	assert.NotContains(t, out, "Arma secundaria", "the off hand line only shows when filled")
}

func TestInventoryViewEmpty(t *testing.T) {
	r, buf := plainRenderer()
	r.InventoryView(Inventory{}, nil)

	out := buf.String()
	assert.Contains(t, out, "desarmado")
	assert.Contains(t, out, "Monedas: sin monedas")
	assert.NotContains(t, out, "Objetos:")
}

func TestJournalView(t *testing.T) {
	r, buf := plainRenderer()
	r.JournalView(nil)
	assert.Contains(t, buf.String(), "El diario está vacío.")

	buf.Reset()
	j := &Journal{}
	j.Append(journalCombat, "Comienza un combate contra goblin.")
	r.JournalView(j.Entries)
	assert.Contains(t, buf.String(), "[combate]")
	assert.Contains(t, buf.String(), "Comienza un combate contra goblin.")
}

func TestHelpGroupsByCategory(t *testing.T) {
	r, buf := plainRenderer()
	r.Help(defaultCommands().Commands())

	out := buf.String()
	assert.Contains(t, out, "Partida:")
	assert.Contains(t, out, "Personaje:")
	assert.Contains(t, out, "Combate:")
	assert.Contains(t, out, "/ayuda (/?)")
	assert.Contains(t, out, "/inventario (/inv, /i)")
	assert.Contains(t, out, "/huir")
	assert.Contains(t, out, "Todo lo demás se interpreta como una acción de tu personaje.")

	partida := strings.Index(out, "Partida:")
	personaje := strings.Index(out, "Personaje:")
	combate := strings.Index(out, "Combate:")
	assert.True(t, partida < personaje && personaje < combate, "categories keep their order")
}

func TestWelcome(t *testing.T) {
	r, buf := plainRenderer()
	r.Welcome("La Cripta Olvidada")
	assert.Contains(t, buf.String(), "D&D 5e - AVENTURA EN SOLITARIO")
	assert.Contains(t, buf.String(), "La Cripta Olvidada")
	assert.Contains(t, buf.String(), "Escribe lo que haces, o /ayuda para ver los comandos.")
}

func TestRulesDetailAttack(t *testing.T) {
	r, buf := plainRenderer()
	r.RulesDetail([]combat.Event{{
		Type: combat.EventAttack,
		Data: map[string]any{
			"arma_nombre": "Espada larga",
			"impacta":     true,
			"tirada":      map[string]any{"dados": []int{15}, "modificador": 4, "total": 19},
		},
	}})
	assert.Equal(t, "[Reglas] Ataque con Espada larga: d20 [15] +4 = 19 → IMPACTA\n", buf.String())
}

func TestRulesDetailCritical(t *testing.T) {
	r, buf := plainRenderer()
	r.RulesDetail([]combat.Event{{
		Type: combat.EventAttack,
		Data: map[string]any{
			"arma_nombre": "Espada larga",
			"impacta":     true,
			"es_critico":  true,
			"tirada":      map[string]any{"dados": []int{20}, "modificador": 4, "total": 24},
		},
	}})
	assert.Contains(t, buf.String(), "¡CRÍTICO!")
}

func TestRulesDetailDamageFromHistory(t *testing.T) {
	// A reloaded save hands the renderer JSON-decoded events: numbers
	// arrive as float64 and dice as []any.
	r, buf := plainRenderer()
	r.RulesDetail([]combat.Event{{
		Type: combat.EventDamage,
		Data: map[string]any{
			"daño_total": float64(9),
			"tipo_daño":  "cortante",
			"tirada": map[string]any{
				"expresion":   "1d8+2",
				"dados":       []any{float64(7)},
				"modificador": float64(2),
			},
		},
	}})
	assert.Equal(t, "[Reglas] Daño: 1d8+2 [7] +2 = 9 (cortante)\n", buf.String())
}

func TestRulesDetailGenericEvent(t *testing.T) {
	r, buf := plainRenderer()
	r.RulesDetail([]combat.Event{{
		Type: combat.EventSlotSpent,
		Data: map[string]any{"nivel": 1},
	}})
	assert.Equal(t, "[Reglas] Ranura de nivel 1 gastada\n", buf.String())
}

func TestRendererColorPaint(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)
	require.False(t, r.color, "buffers never get ANSI codes")

	r.SetColor(true)
	r.Info("hola")
	assert.Contains(t, buf.String(), ansiDim)
	assert.Contains(t, buf.String(), ansiReset)

	buf.Reset()
	r.SetColor(false)
	r.Info("hola")
	assert.Equal(t, "hola\n", buf.String())
}
