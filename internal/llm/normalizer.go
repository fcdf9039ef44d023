package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/game/normalize"
)

// The parser runs cold: replies must be reproducible JSON, not prose.
const normalizerTemperature = 0.0

// normalizerSystem teaches the model the wire format the merge step
// reads. The data keys match the canonical action payloads.
const normalizerSystem = `Eres un parser de acciones de D&D 5e.
Dado un texto en lenguaje natural y el contexto de la escena, completa
los campos que faltan de la acción detectada.

REGLAS ESTRICTAS:
- Responde SOLO con JSON válido
- SIN markdown, SIN backticks, SIN explicaciones
- Usa solo los ids que aparecen en el contexto; NO inventes ids
- Si no puedes interpretar, devuelve: {"tipo":"desconocido","datos":{},"confianza":0.0}

Formato:
{"tipo":"ataque|conjuro|movimiento|habilidad|accion|objeto","datos":{...},"confianza":0.0-1.0}

Claves de "datos" por tipo:
- ataque: "target_id", "weapon_id"
- conjuro: "spell_id", "target_id"
- movimiento: "distance_feet"
- habilidad: "skill"
- accion: "action_id"
- objeto: "item_id"

Ejemplos:
"Ataco al goblin" -> {"tipo":"ataque","datos":{"target_id":"goblin_1"},"confianza":0.95}
"Lanzo rayo de escarcha" -> {"tipo":"conjuro","datos":{"spell_id":"rayo_de_escarcha"},"confianza":0.9}
"Hago algo raro" -> {"tipo":"desconocido","datos":{},"confianza":0.0}`

// NormalizerFallback returns the fallback the normalizer consults when
// patterns leave critical fields empty.
func (c *Client) NormalizerFallback() normalize.Fallback {
	return &fallback{c: c}
}

type fallback struct {
	c *Client
}

// Complete implements normalize.Fallback. A kind disagreement is logged
// and ignored: the merge step only fills fields the patterns left
// empty, so the detected kind stands either way.
func (f *fallback) Complete(ctx context.Context, prompt string, req normalize.FallbackRequest) (map[string]any, error) {
	raw, err := f.c.complete(ctx, normalizerSystem, prompt, normalizerTemperature)
	if err != nil {
		return nil, err
	}

	parsed, err := parseCompletion(raw)
	if err != nil {
		return nil, err
	}
	if parsed.Kind != "" && req.DetectedKind != "" && parsed.Kind != string(req.DetectedKind) {
		f.c.log.Debug("fallback kind disagrees with patterns",
			zap.String("detected", string(req.DetectedKind)),
			zap.String("proposed", parsed.Kind))
	}
	if parsed.Confidence == 0 && len(parsed.Fields) == 0 {
		// The explicit give-up reply.
		return nil, nil
	}
	return parsed.Fields, nil
}

// completion is one parsed normalizer reply.
type completion struct {
	Kind       string
	Fields     map[string]any
	Confidence float64
}

// parseCompletion reads the model's JSON tolerantly: code fences are
// stripped, a flat object without "datos" counts as the field map, and
// confidence normalizes into 0-1.
func parseCompletion(raw string) (completion, error) {
	cleaned := stripFences(raw)

	var payload map[string]any
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return completion{}, fmt.Errorf("llm reply is not JSON: %w", err)
	}

	out := completion{Confidence: clampConfidence(payload["confianza"])}
	if tipo, ok := payload["tipo"].(string); ok {
		out.Kind = tipo
	}
	if datos, ok := payload["datos"].(map[string]any); ok {
		out.Fields = datos
		return out, nil
	}
	delete(payload, "tipo")
	delete(payload, "confianza")
	out.Fields = payload
	return out, nil
}

// stripFences unwraps a reply the model fenced despite instructions.
// Only a leading fence is recognized; prose around JSON still fails the
// parse, which the caller downgrades to a warning.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(s)
}

// clampConfidence normalizes a reported confidence into 0-1. Values on
// a 0-100 scale divide down; anything unreadable counts as 0.5.
func clampConfidence(v any) float64 {
	conf := 0.5
	switch n := v.(type) {
	case float64:
		conf = n
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			conf = f
		}
	}
	if conf > 1 {
		conf /= 100
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return conf
}
