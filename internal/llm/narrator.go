package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/combat"
	"github.com/icruces/mazmorra/internal/game/narrate"
)

// narratorTemperature leaves room for prose variety without drifting
// from the events.
const narratorTemperature = 0.7

// narratorSystem is the standing DM instruction. The persona rules keep
// the player addressed in second person and everyone else in third; the
// prohibitions keep the model on the rails the engine already decided.
const narratorSystem = `Eres el Dungeon Master de una partida de D&D 5e.
Tu rol es narrar lo que ocurre de forma inmersiva.

REGLAS DE PERSONA (OBLIGATORIAS):
- Si el ACTOR es el PC: usa 2ª persona ("Lanzas tu espada...", "Tu golpe...")
- Si el ACTOR es un PNJ: usa 3ª persona ("El goblin ataca...")
- Si el OBJETIVO es el PC: SIEMPRE usa 2ª persona ("te roza", "esquivas"). NO uses el nombre del PC.
- Si el OBJETIVO es un PNJ: usa 3ª persona ("el goblin cae")

PROHIBICIONES:
- NO inventes personajes, enemigos, aliados u objetos que no aparezcan en PARTICIPANTES VISIBLES
- NO menciones números de dados ni mecánicas
- NO añadas escenarios ni elementos de ambiente que no estén en la escena
- NO uses el nombre del PC cuando es el objetivo, usa "tú/te/tu"

REGLAS GENERALES:
- Sé conciso (2-3 frases máximo)
- Solo narra lo que pasó según los EVENTOS
- Si FALLA: describe el fallo (esquiva, bloqueo, error)
- Si IMPACTA: describe el golpe y su efecto`

// Narrator returns a narrator that rewrites turn events as Spanish
// prose. playerName tells the persona rules which name is the player
// character; empty leaves the whole cast in third person.
func (c *Client) Narrator(style narrate.Style, playerName string) narrate.Narrator {
	return narrate.Func(func(ctx context.Context, events []combat.Event, scene *action.SceneContext) (string, error) {
		return c.complete(ctx, narratorSystem, narrationPrompt(style, playerName, events, scene), narratorTemperature)
	})
}

// narrationPrompt renders one turn for the model: mechanical event
// lines plus the cast it is allowed to mention.
func narrationPrompt(style narrate.Style, playerName string, events []combat.Event, scene *action.SceneContext) string {
	var b strings.Builder
	b.WriteString("Narra lo que acaba de ocurrir.\n")
	if playerName != "" {
		fmt.Fprintf(&b, "\nPERSONAJE DEL JUGADOR (PC): %s\n", playerName)
	}
	if scene != nil && scene.ActorName != "" {
		fmt.Fprintf(&b, "TURNO DE: %s\n", scene.ActorName)
	}

	b.WriteString("\nEVENTOS (en orden):\n")
	for _, ev := range events {
		b.WriteString("- ")
		b.WriteString(narrate.DescribeEvent(ev))
		b.WriteString("\n")
	}

	if scene != nil {
		if names := participantNames(scene); len(names) > 0 {
			b.WriteString("\nPARTICIPANTES VISIBLES:\n")
			for _, n := range names {
				fmt.Fprintf(&b, "- %s\n", n)
			}
		}
	}

	b.WriteString("\nINSTRUCCIONES:\n- ")
	b.WriteString(style.Instruction())
	b.WriteString("\n- NO inventes reglas ni resultados, solo narra lo que pasó")
	b.WriteString("\n- NO menciones números de dados ni mecánicas")
	return b.String()
}

// participantNames lists the turn actor and everyone the scene shows,
// in that order.
func participantNames(scene *action.SceneContext) []string {
	names := make([]string, 0, 1+len(scene.LivingEnemies)+len(scene.Allies))
	if scene.ActorName != "" {
		names = append(names, scene.ActorName)
	}
	for _, p := range scene.LivingEnemies {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	for _, p := range scene.Allies {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return names
}
