package narrate

import (
	"fmt"

	"github.com/icruces/mazmorra/internal/game/combat"
)

// DescribeEvent renders one event as a compact mechanical line. These
// feed the LLM narrator prompt, which rewrites them as prose; they are
// not shown to the player directly.
func DescribeEvent(ev combat.Event) string {
	data := ev.Data
	switch ev.Type {
	case combat.EventAttack:
		verdict := "FALLA"
		if dataBool(data, "impacta") {
			verdict = "IMPACTA"
		}
		line := fmt.Sprintf("Ataque con %s: %s", dataString(data, "arma_nombre", "arma"), verdict)
		if dataBool(data, "es_critico") {
			line += " (¡CRÍTICO!)"
		}
		if dataBool(data, "es_pifia") {
			line += " (¡PIFIA!)"
		}
		return line
	case combat.EventDamage:
		return fmt.Sprintf("Daño: %d de tipo %s", dataInt(data, "daño_total"), dataString(data, "tipo_daño", "desconocido"))
	case combat.EventSpell:
		return fmt.Sprintf("Conjuro: %s lanzado", dataString(data, "nombre", "desconocido"))
	case combat.EventSlotSpent:
		return fmt.Sprintf("Ranura de nivel %d gastada", dataInt(data, "nivel"))
	case combat.EventMove:
		return fmt.Sprintf("Movimiento: %d pies", dataInt(data, "distancia_pies"))
	case combat.EventSkillCheck:
		return fmt.Sprintf("Prueba de %s: total %d", dataString(data, "habilidad", "?"), dataInt(data, "total"))
	case combat.EventGeneric:
		return fmt.Sprintf("Acción: %s", dataString(data, "accion_id", "desconocida"))
	case combat.EventItemUsed:
		return fmt.Sprintf("Objeto: %s", dataString(data, "nombre", dataString(data, "objeto_id", "desconocido")))
	case combat.EventHealing:
		return fmt.Sprintf("Curación: %d PG", dataInt(data, "cantidad"))
	case combat.EventConditionApplied:
		return fmt.Sprintf("Condición aplicada: %s", dataString(data, "condicion", "desconocida"))
	case combat.EventConditionExpired:
		return fmt.Sprintf("Condición expirada: %s", dataString(data, "condicion", "desconocida"))
	case combat.EventCombatantDown:
		line := fmt.Sprintf("Derribado: %s", dataString(data, "nombre", "combatiente"))
		if dataBool(data, "muerto") {
			line += " (muerto)"
		}
		return line
	case combat.EventDeathSave:
		return fmt.Sprintf("Salvación de muerte: %d (%d éxitos, %d fallos)",
			dataInt(data, "tirada"), dataInt(data, "exitos"), dataInt(data, "fallos"))
	case combat.EventCombatEnded:
		return fmt.Sprintf("Combate terminado: %s", dataString(data, "estado", "desconocido"))
	}
	return fmt.Sprintf("Evento: %s", ev.Type)
}

// HealthLabel buckets a combatant's remaining hit points into the terms
// the narrator may use, so prose never leaks exact numbers.
func HealthLabel(hp, hpMax int) string {
	if hpMax <= 0 {
		return "malherido"
	}
	pct := float64(hp) * 100 / float64(hpMax)
	switch {
	case pct > 75:
		return "ileso"
	case pct > 25:
		return "herido"
	default:
		return "malherido"
	}
}
