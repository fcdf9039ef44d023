package session

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/icruces/mazmorra/internal/game/character"
	"github.com/icruces/mazmorra/internal/game/combat"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/narrate"
	"github.com/icruces/mazmorra/internal/game/pipeline"
	"github.com/icruces/mazmorra/internal/game/progress"
	"github.com/icruces/mazmorra/internal/game/rules"
)

// textWidth is the wrap column for prose and banners.
const textWidth = 70

var abilityAbbrev = map[string]string{
	rules.Fuerza:       "FUE",
	rules.Destreza:     "DES",
	rules.Constitucion: "CON",
	rules.Inteligencia: "INT",
	rules.Sabiduria:    "SAB",
	rules.Carisma:      "CAR",
}

// Renderer writes the table view: prose, prompts, status bars and the
// end-of-combat banners. All player-facing text is Spanish; color is
// optional and every line degrades to plain text.
type Renderer struct {
	w     io.Writer
	color bool
}

func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w, color: colorEnabled(w)}
}

// SetColor overrides terminal detection, for tests and for NO_COLOR users.
func (r *Renderer) SetColor(on bool) { r.color = on }

func (r *Renderer) paint(code, text string) string {
	if !r.color {
		return text
	}
	return colorize(code, text)
}

func (r *Renderer) print(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

func (r *Renderer) Welcome(campaign string) {
	bar := strings.Repeat("═", textWidth)
	r.print("%s\n", r.paint(ansiBrightCyan, bar))
	r.print("%s\n", r.paint(ansiBold, centered("D&D 5e - AVENTURA EN SOLITARIO", textWidth)))
	if campaign != "" {
		r.print("%s\n", centered(campaign, textWidth))
	}
	r.print("%s\n", r.paint(ansiBrightCyan, bar))
	r.print("%s\n\n", r.paint(ansiDim, "Escribe lo que haces, o /ayuda para ver los comandos."))
}

func (r *Renderer) Prompt() {
	r.print("%s", r.paint(ansiBold, "> "))
}

// Ask prints a labelled prompt without a newline.
func (r *Renderer) Ask(label string) {
	r.print("%s ", r.paint(ansiBold, label+":"))
}

// Info prints a quiet system line, Notice a loud one.
func (r *Renderer) Info(text string)   { r.print("%s\n", r.paint(ansiDim, text)) }
func (r *Renderer) Notice(text string) { r.print("%s\n", r.paint(ansiBrightYellow, text)) }

// StatusLine is the one-line header shown before each exploration prompt.
func (r *Renderer) StatusLine(pc *character.Character) {
	hp, hpMax := pc.Current.HP, pc.Derived.HPMax
	line := fmt.Sprintf("%s | HP %s %d/%d",
		r.paint(ansiBold, pc.Source.Name),
		r.paint(healthColor(hp, hpMax), healthBar(hp, hpMax, 10)),
		hp, hpMax)
	if pc.Current.HPTemp > 0 {
		line += fmt.Sprintf(" (+%d temp)", pc.Current.HPTemp)
	}
	line += fmt.Sprintf(" | CA %d", pc.Derived.AC)
	r.print("%s\n", line)
}

// Narration prints DM prose wrapped and indented.
func (r *Renderer) Narration(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	for _, line := range wordWrap(text, textWidth) {
		r.print("  %s\n", line)
	}
	r.print("\n")
}

// Question prints a clarification request with its numbered options.
func (r *Renderer) Question(question string, opts []pipeline.Option) {
	r.print("%s\n", r.paint(ansiBrightYellow, question))
	for i, o := range opts {
		r.print("  %s %s\n", r.paint(ansiBold, fmt.Sprintf("%d.", i+1)), o.Text)
	}
	if len(opts) > 0 {
		r.print("%s\n", r.paint(ansiDim, "Responde con el número, o escribe otra acción."))
	}
}

// Rejection reports a refused action together with its suggestion.
func (r *Renderer) Rejection(reason, suggestion string) {
	line := reason
	if suggestion != "" {
		line = narrate.RejectionFeedback(reason, suggestion)
	}
	r.print("%s\n", r.paint(ansiRed, line))
}

func (r *Renderer) Warnings(warnings []string) {
	for _, w := range warnings {
		r.print("%s\n", r.paint(ansiYellow, "Aviso: "+w))
	}
}

// InternalError announces the fatal path: the engine broke, the session
// saves and closes.
func (r *Renderer) InternalError(detail string) {
	r.print("%s\n", r.paint(ansiBrightRed, "Error interno del motor. La partida se guarda y la sesión se cierra."))
	if detail != "" {
		r.print("%s\n", r.paint(ansiDim, detail))
	}
}

func (r *Renderer) TurnHeader(info combat.TurnInfo) {
	color := ansiCyan
	if info.Side == combat.SideEnemy {
		color = ansiMagenta
	}
	r.print("\n%s\n", r.paint(color, fmt.Sprintf("=== Ronda %d | Turno de %s ===", info.Round, info.Name)))
}

// TurnDetail prints the remaining turn economy for the active combatant.
func (r *Renderer) TurnDetail(info combat.TurnInfo) {
	r.print("Ronda %d. Turno de %s.\n", info.Round, info.Name)
	state := func(available bool) string {
		if available {
			return "disponible"
		}
		return "gastada"
	}
	r.print("  Acción: %s | Acción adicional: %s | Reacción: %s\n",
		state(info.ActionAvailable), state(info.BonusAvailable), state(info.ReactionAvailable))
	r.print("  Movimiento restante: %d pies\n", info.MovementRemaining)
	if !info.CanAct {
		r.print("%s\n", r.paint(ansiYellow, "  No puede actuar este turno."))
	}
}

// CombatStatus renders the initiative board: one row per combatant with
// a health bar, hit points, armor class and state markers.
func (r *Renderer) CombatStatus(sum combat.Summary) {
	r.print("%s\n", r.paint(ansiBold, fmt.Sprintf("=== Combate: ronda %d ===", sum.Round)))
	for _, c := range sum.Combatants {
		marker := " "
		if c.ID == sum.TurnOf {
			marker = ">"
		}
		nameColor := ansiWhite
		switch c.Side {
		case combat.SidePC, combat.SideAlly:
			nameColor = ansiCyan
		case combat.SideEnemy:
			nameColor = ansiMagenta
		}
		row := fmt.Sprintf("%s %s %s %2d/%-2d CA %d",
			marker,
			r.paint(nameColor, fmt.Sprintf("%-18s", c.Name)),
			r.paint(healthColor(c.HP, c.HPMax), healthBar(c.HP, c.HPMax, 20)),
			c.HP, c.HPMax, c.AC)
		switch {
		case c.Dead:
			row += " " + r.paint(ansiRed, "MUERTO")
		case c.Unconscious:
			row += " " + r.paint(ansiYellow, "INCONSCIENTE")
		}
		if len(c.Conditions) > 0 {
			row += " [" + strings.Join(c.Conditions, ", ") + "]"
		}
		r.print("%s\n", row)
	}
}

// EndBanner closes an encounter with its verdict and tallies.
func (r *Renderer) EndBanner(sum combat.Summary) {
	var label, color string
	switch sum.State {
	case combat.StateVictory:
		label, color = "VICTORIA", ansiBrightGreen
	case combat.StateDefeat:
		label, color = "DERROTA", ansiBrightRed
	case combat.StateDraw:
		label, color = "EMPATE", ansiYellow
	case combat.StateFled:
		label, color = "HUIDA", ansiYellow
	default:
		label, color = strings.ToUpper(string(sum.State)), ansiWhite
	}
	bar := strings.Repeat("═", textWidth)
	r.print("\n%s\n%s\n%s\n", r.paint(color, bar), r.paint(color, centered(label, textWidth)), r.paint(color, bar))
	r.print("Rondas totales: %d\n", sum.Round)
	if sum.XPEarned > 0 {
		r.print("Experiencia ganada: %d XP\n", sum.XPEarned)
	}
	if len(sum.Fallen) > 0 {
		r.print("Caídos: %s\n", strings.Join(sum.Fallen, ", "))
	}
	r.print("\n")
}

func (r *Renderer) XPAward(a progress.Award) {
	r.print("Experiencia: %d → %d (+%d)\n", a.XPBefore, a.XPAfter, a.XPGained)
	if a.CanLevelUp {
		r.print("%s\n", r.paint(ansiBrightGreen, fmt.Sprintf("¡Puedes subir al nivel %d! Usa /subir_nivel.", a.EarnedLevel)))
	}
}

func (r *Renderer) LevelUpReport(up progress.LevelUp) {
	r.print("%s\n", r.paint(ansiBrightGreen, fmt.Sprintf("¡Subes al nivel %d!", up.LevelAfter)))
	r.print("  Puntos de golpe: +%d\n", up.HPGained)
	r.print("  Bonificador de competencia: +%d\n", up.Proficiency)
}

func (r *Renderer) DeathSave(name string, out character.DeathSaveOutcome) {
	r.print("%s tira salvación de muerte: d20 [%d]\n", name, out.Roll)
	switch {
	case out.Dead:
		r.print("%s\n", r.paint(ansiBrightRed, fmt.Sprintf("Tres fallos. %s ha muerto.", name)))
	case out.Regained:
		r.print("%s\n", r.paint(ansiBrightGreen, fmt.Sprintf("¡Un 20! %s vuelve en sí con 1 PG.", name)))
	case out.Stable:
		r.print("%s\n", r.paint(ansiGreen, fmt.Sprintf("%s se estabiliza.", name)))
	default:
		r.print("  Éxitos %d / Fallos %d\n", out.Successes, out.Failures)
	}
}

// Sheet prints the character sheet plus campaign totals.
func (r *Renderer) Sheet(pc *character.Character, stats CampaignStats) {
	src, d, cur := pc.Source, pc.Derived, pc.Current

	r.print("%s\n", r.paint(ansiBold, fmt.Sprintf("=== %s ===", src.Name)))
	descent := src.Class
	if src.Race != "" {
		descent = src.Race + " " + src.Class
	}
	r.print("%s nivel %d", title(descent), src.Level)
	if src.Background != "" {
		r.print(" | %s", title(src.Background))
	}
	r.print("\n")

	r.print("HP %s %d/%d", r.paint(healthColor(cur.HP, d.HPMax), healthBar(cur.HP, d.HPMax, 10)), cur.HP, d.HPMax)
	if cur.HPTemp > 0 {
		r.print(" (+%d temp)", cur.HPTemp)
	}
	r.print(" | CA %d | Velocidad %d pies\n", d.AC, d.SpeedFt)
	r.print("Iniciativa %+d | Competencia +%d | Dado de golpe %s\n", d.InitiativeMod, d.ProfBonus, d.HitDie)

	var abl []string
	for _, ab := range rules.Abilities {
		abl = append(abl, fmt.Sprintf("%s %d (%+d)", abilityAbbrev[ab], d.Abilities[ab], d.Modifiers[ab]))
	}
	r.print("%s\n", strings.Join(abl, "  "))

	if d.SpellSaveDC > 0 {
		r.print("CD de conjuros %d | Ataque de conjuro %+d\n", d.SpellSaveDC, d.SpellAttackBonus)
		var slots []string
		for lvl := 1; lvl <= 9; lvl++ {
			max, ok := src.Spellcasting.SlotsMax[lvl]
			if !ok {
				continue
			}
			slots = append(slots, fmt.Sprintf("nivel %d: %d/%d", lvl, cur.SlotsRemaining[lvl], max))
		}
		if len(slots) > 0 {
			r.print("Ranuras: %s\n", strings.Join(slots, ", "))
		}
	}

	if len(cur.Conditions) > 0 {
		var conds []string
		for _, c := range cur.Conditions {
			tag := c.ID
			if c.Stacks > 1 {
				tag = fmt.Sprintf("%s x%d", c.ID, c.Stacks)
			}
			conds = append(conds, tag)
		}
		r.print("%s\n", r.paint(ansiYellow, "Condiciones: "+strings.Join(conds, ", ")))
	}

	rep := progress.Track(cur.XP, src.Level)
	if rep.Level >= progress.MaxLevel {
		r.print("XP %d | Nivel máximo alcanzado\n", rep.XP)
	} else {
		r.print("XP %d | Faltan %d para el nivel %d (%d%%)\n", rep.XP, rep.XPMissing, rep.Level+1, rep.Percent)
	}
	r.print("%s\n", r.paint(ansiDim, fmt.Sprintf("Campaña: %d combates, %d enemigos derrotados, %d muertes",
		stats.Combats, stats.EnemiesDefeated, stats.Deaths)))
}

// InventoryView prints the equipped slots, the pack and the purse.
func (r *Renderer) InventoryView(inv Inventory, comp *compendium.Compendium) {
	r.print("%s\n", r.paint(ansiBold, "=== Inventario ==="))
	eq := inv.Equipment
	r.print("  %-18s %s\n", "Armadura:", refName(comp, eq.ArmorRef, "ninguna"))
	r.print("  %-18s %s\n", "Escudo:", refName(comp, eq.ShieldRef, "ninguno"))
	r.print("  %-18s %s\n", "Arma principal:", refName(comp, eq.MainHandRef, "desarmado"))
	if eq.OffHandRef != "" {
		r.print("  %-18s %s\n", "Arma secundaria:", refName(comp, eq.OffHandRef, ""))
	}
	if len(inv.Items) > 0 {
		r.print("Objetos:\n")
		for _, it := range inv.Items {
			r.print("  %dx %s\n", it.Quantity, refName(comp, it.Ref, it.Ref))
		}
	}
	r.print("Monedas: %s\n", inv.Money.String())
}

// JournalView lists recent campaign log entries, oldest first.
func (r *Renderer) JournalView(entries []JournalEntry) {
	if len(entries) == 0 {
		r.Info("El diario está vacío.")
		return
	}
	r.print("%s\n", r.paint(ansiBold, "=== Diario de campaña ==="))
	for _, e := range entries {
		r.print("  %s %s\n", r.paint(ansiDim, e.At.Format("2006-01-02 15:04")+" ["+e.Kind+"]"), e.Text)
	}
}

// Help lists the slash commands grouped by category.
func (r *Renderer) Help(cmds []*Command) {
	r.print("%s\n", r.paint(ansiBold, "=== Comandos ==="))
	for _, cat := range []string{categoryGame, categoryCharacter, categoryCombat} {
		first := true
		for _, c := range cmds {
			if c.Category != cat {
				continue
			}
			if first {
				r.print("%s\n", r.paint(ansiCyan, title(cat)+":"))
				first = false
			}
			name := "/" + c.Name
			if len(c.Aliases) > 0 {
				name += " (/" + strings.Join(c.Aliases, ", /") + ")"
			}
			r.print("  %-30s %s\n", name, c.Help)
		}
	}
	r.print("%s\n", r.paint(ansiDim, "Todo lo demás se interpreta como una acción de tu personaje."))
}

// RulesDetail prints the mechanical roll breakdown for each event.
// Attack and damage events get full dice detail; the rest reuse the
// narrator's mechanical lines.
func (r *Renderer) RulesDetail(events []combat.Event) {
	for _, ev := range events {
		switch ev.Type {
		case combat.EventAttack:
			r.attackDetail(ev)
		case combat.EventDamage:
			r.damageDetail(ev)
		default:
			if line := narrate.DescribeEvent(ev); line != "" {
				r.print("%s\n", r.paint(ansiDim, "[Reglas] "+line))
			}
		}
	}
}

func (r *Renderer) attackDetail(ev combat.Event) {
	roll, _ := ev.Data["tirada"].(map[string]any)
	verdict, color := "FALLA", ansiRed
	switch {
	case toBool(ev.Data["es_critico"]):
		verdict, color = "¡CRÍTICO!", ansiBrightGreen
	case toBool(ev.Data["es_pifia"]):
		verdict, color = "¡PIFIA!", ansiBrightRed
	case toBool(ev.Data["impacta"]):
		verdict, color = "IMPACTA", ansiGreen
	}
	r.print("%s %s\n",
		r.paint(ansiDim, fmt.Sprintf("[Reglas] Ataque con %s: d20 %v %+d = %d →",
			toString(ev.Data["arma_nombre"]), diceList(roll["dados"]), toInt(roll["modificador"]), toInt(roll["total"]))),
		r.paint(color, verdict))
}

func (r *Renderer) damageDetail(ev combat.Event) {
	roll, _ := ev.Data["tirada"].(map[string]any)
	r.print("%s\n", r.paint(ansiDim, fmt.Sprintf("[Reglas] Daño: %s %v %+d = %d (%s)",
		toString(roll["expresion"]), diceList(roll["dados"]), toInt(roll["modificador"]),
		toInt(ev.Data["daño_total"]), toString(ev.Data["tipo_daño"]))))
}

// healthBar fills width cells proportionally. Anyone still alive keeps
// at least one filled cell.
func healthBar(hp, hpMax, width int) string {
	if hpMax <= 0 || width <= 0 {
		return ""
	}
	if hp < 0 {
		hp = 0
	}
	if hp > hpMax {
		hp = hpMax
	}
	filled := hp * width / hpMax
	if filled == 0 && hp > 0 {
		filled = 1
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func healthColor(hp, hpMax int) string {
	switch {
	case hpMax <= 0 || hp <= 0:
		return ansiRed
	case hp*100 > hpMax*50:
		return ansiGreen
	case hp*100 > hpMax*25:
		return ansiYellow
	default:
		return ansiRed
	}
}

// refName resolves a compendium reference to its display name, falling
// back to the given default when the slot is empty.
func refName(comp *compendium.Compendium, ref, empty string) string {
	if ref == "" {
		return empty
	}
	if comp != nil {
		if w, ok := comp.Weapon(ref); ok {
			return w.Name
		}
		if a, ok := comp.Armor(ref); ok {
			return a.Name
		}
		if s, ok := comp.Shield(ref); ok {
			return s.Name
		}
		if it, ok := comp.Item(ref); ok {
			return it.Name
		}
	}
	return ref
}

func centered(text string, width int) string {
	pad := (width - utf8.RuneCountInString(text)) / 2
	if pad <= 0 {
		return text
	}
	return strings.Repeat(" ", pad) + text
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// wordWrap breaks prose into lines of at most width runes, honoring
// paragraph breaks in the input.
func wordWrap(text string, width int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if utf8.RuneCountInString(line)+1+utf8.RuneCountInString(w) > width {
				out = append(out, line)
				line = w
				continue
			}
			line += " " + w
		}
		out = append(out, line)
	}
	return out
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func toBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func diceList(v any) []int {
	switch d := v.(type) {
	case []int:
		return d
	case []any:
		out := make([]int, 0, len(d))
		for _, x := range d {
			out = append(out, toInt(x))
		}
		return out
	}
	return nil
}
