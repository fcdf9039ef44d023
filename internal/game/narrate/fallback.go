package narrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/combat"
)

// Fallback is the deterministic narrator. It needs no model and no
// network, so it is the floor every turn can count on.
type Fallback struct {
	style Style
}

// NewFallback returns a renderer for the given style. An unknown style
// falls back to epic.
func NewFallback(style Style) *Fallback {
	if !style.Valid() {
		style = StyleEpic
	}
	return &Fallback{style: style}
}

// Style returns the configured voice.
func (f *Fallback) Style() Style {
	return f.style
}

// Narrate implements Narrator. It never fails.
func (f *Fallback) Narrate(_ context.Context, events []combat.Event, scene *action.SceneContext) (string, error) {
	return f.Render(events, scene), nil
}

// Render assembles one line per narratable event, prefixed by a turn
// intro in the epic and casual voices. The minimal voice keeps only the
// first sentence.
func (f *Fallback) Render(events []combat.Event, scene *action.SceneContext) string {
	var parts []string
	if f.style != StyleMinimal && scene != nil && scene.ActorName != "" {
		switch f.style {
		case StyleCasual:
			parts = append(parts, fmt.Sprintf("Turno de %s.", scene.ActorName))
		default:
			parts = append(parts, fmt.Sprintf("¡Es el turno de %s!", scene.ActorName))
		}
	}
	for _, ev := range events {
		if line := eventLine(ev); line != "" {
			parts = append(parts, line)
		}
	}

	text := strings.Join(parts, " ")
	if f.style == StyleMinimal {
		if head, _, found := strings.Cut(text, ". "); found {
			text = head + "."
		}
	}
	return text
}

// RejectionLine is what the table hears when an action is not allowed.
func (f *Fallback) RejectionLine(actorName string) string {
	if actorName == "" {
		return "No puede hacer eso."
	}
	return fmt.Sprintf("%s no puede hacer eso.", actorName)
}

// ClarificationLine prefaces a follow-up question to the player.
func (f *Fallback) ClarificationLine() string {
	return "El DM necesita más información."
}

// RejectionFeedback joins a refusal reason with its suggestion the way
// the system reports it back to the player.
func RejectionFeedback(reason, suggestion string) string {
	if suggestion == "" {
		return reason
	}
	return reason + " Sugerencia: " + suggestion
}

// eventLine renders one event, or "" for bookkeeping events (slots,
// condition timers) that the prose should not mention.
func eventLine(ev combat.Event) string {
	data := ev.Data
	switch ev.Type {
	case combat.EventAttack:
		weapon := dataString(data, "arma_nombre", "su arma")
		switch {
		case dataBool(data, "es_critico"):
			return fmt.Sprintf("¡Golpe crítico con %s!", weapon)
		case dataBool(data, "es_pifia"):
			return "¡Falla estrepitosamente!"
		case dataBool(data, "impacta"):
			return fmt.Sprintf("Ataca con %s y acierta.", weapon)
		default:
			return fmt.Sprintf("Ataca con %s pero falla.", weapon)
		}
	case combat.EventDamage:
		return fmt.Sprintf("Causa %d de daño.", dataInt(data, "daño_total"))
	case combat.EventSpell:
		return fmt.Sprintf("Lanza %s.", dataString(data, "nombre", "un conjuro"))
	case combat.EventMove:
		return fmt.Sprintf("Se mueve %d pies.", dataInt(data, "distancia_pies"))
	case combat.EventSkillCheck:
		return fmt.Sprintf("Hace una prueba de %s.", dataString(data, "habilidad", "habilidad"))
	case combat.EventGeneric:
		switch dataString(data, "accion_id", "") {
		case "dodge":
			return "Se prepara para esquivar."
		case "dash":
			return "Corre a toda velocidad."
		case "disengage":
			return "Se retira con cuidado."
		case "":
			return "Realiza una acción."
		default:
			return fmt.Sprintf("Realiza %s.", dataString(data, "accion_id", ""))
		}
	case combat.EventItemUsed:
		name := dataString(data, "nombre", dataString(data, "objeto_id", "un objeto"))
		return fmt.Sprintf("Usa %s.", name)
	case combat.EventHealing:
		return fmt.Sprintf("Recupera %d puntos de golpe.", dataInt(data, "cantidad"))
	case combat.EventCombatantDown:
		name := dataString(data, "nombre", "El combatiente")
		if dataBool(data, "muerto") {
			return fmt.Sprintf("¡%s cae muerto!", name)
		}
		return fmt.Sprintf("%s cae inconsciente.", name)
	case combat.EventDeathSave:
		switch {
		case dataBool(data, "recupera"):
			return "¡Vuelve en sí!"
		case dataBool(data, "muerto"):
			return "Sus heridas lo vencen."
		case dataBool(data, "estable"):
			return "Se estabiliza."
		default:
			return "Lucha por su vida al borde de la muerte."
		}
	case combat.EventCombatEnded:
		switch dataString(data, "estado", "") {
		case string(combat.StateVictory):
			return "¡Victoria!"
		case string(combat.StateDefeat):
			return "Todo se oscurece. Derrota."
		case string(combat.StateFled):
			return "La huida os pone a salvo."
		default:
			return "El combate ha terminado."
		}
	}
	return ""
}

func dataString(data map[string]any, key, fallback string) string {
	if v, ok := data[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// dataInt tolerates float64 so events decoded from a saved history
// render the same as freshly built ones.
func dataInt(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func dataBool(data map[string]any, key string) bool {
	v, ok := data[key].(bool)
	return ok && v
}
