package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icruces/mazmorra/internal/config"
	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/combat"
	"github.com/icruces/mazmorra/internal/game/narrate"
	"github.com/icruces/mazmorra/internal/game/normalize"
	"github.com/icruces/mazmorra/internal/llm"
)

// fakeAPI serves a single canned text completion and captures request
// bodies on a channel so tests can inspect what the client sent.
func fakeAPI(t *testing.T, reply string) (*httptest.Server, chan []byte) {
	t.Helper()
	bodies := make(chan []byte, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		bodies <- b

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       "test-model",
			"content":     []map[string]any{{"type": "text", "text": reply}},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 20},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, bodies
}

func testClient(t *testing.T, srv *httptest.Server) *llm.Client {
	t.Helper()
	cfg := config.LLMConfig{
		Enabled:   true,
		Model:     "test-model",
		MaxTokens: 200,
		Timeout:   5 * time.Second,
	}
	return llm.New(cfg, nil,
		option.WithBaseURL(srv.URL),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0))
}

// TestNarrator_RoundTrip verifies the narrator sends the DM system
// prompt plus the rendered turn and returns the model's prose.
func TestNarrator_RoundTrip(t *testing.T) {
	srv, bodies := fakeAPI(t, "¡Tu espada encuentra su blanco y el goblin retrocede!")
	client := testClient(t, srv)

	scene := &action.SceneContext{
		ActorID:   "pc_thorin",
		ActorName: "Thorin",
		LivingEnemies: []action.Participant{
			{InstanceID: "goblin_1", Name: "Goblin"},
		},
	}
	events := []combat.Event{
		{Type: combat.EventAttack, ActorID: "pc_thorin", Data: map[string]any{
			"arma_nombre": "Espada larga",
			"impacta":     true,
		}},
	}

	narrator := client.Narrator(narrate.StyleEpic, "Thorin")
	text, err := narrator.Narrate(context.Background(), events, scene)
	require.NoError(t, err, "a healthy endpoint must narrate")
	assert.Equal(t, "¡Tu espada encuentra su blanco y el goblin retrocede!", text)

	sent := string(<-bodies)
	assert.Contains(t, sent, `"test-model"`, "the configured model must be requested")
	assert.Contains(t, sent, "Eres el Dungeon Master", "the DM system prompt must be sent")
	assert.Contains(t, sent, "EVENTOS (en orden):", "the rendered events must be sent")
	assert.Contains(t, sent, "PERSONAJE DEL JUGADOR (PC): Thorin", "the player marker must be sent")
}

// TestNormalizerFallback_RoundTrip verifies a fenced JSON reply parses
// into the field map the normalizer merges.
func TestNormalizerFallback_RoundTrip(t *testing.T) {
	reply := "```json\n{\"tipo\":\"ataque\",\"datos\":{\"target_id\":\"goblin_1\"},\"confianza\":0.9}\n```"
	srv, bodies := fakeAPI(t, reply)
	client := testClient(t, srv)

	fields, err := client.NormalizerFallback().Complete(context.Background(),
		"Completa los campos faltantes", normalize.FallbackRequest{DetectedKind: action.KindAttack})
	require.NoError(t, err, "a fenced but valid reply must succeed")
	assert.Equal(t, map[string]any{"target_id": "goblin_1"}, fields)

	sent := string(<-bodies)
	assert.Contains(t, sent, "Eres un parser", "the parser system prompt must be sent")
	assert.Contains(t, sent, "Completa los campos faltantes", "the rendered prompt must be sent")
}

// TestNormalizerFallback_GiveUpReply verifies the documented give-up
// sentinel yields no fields and no error.
func TestNormalizerFallback_GiveUpReply(t *testing.T) {
	srv, _ := fakeAPI(t, `{"tipo":"desconocido","datos":{},"confianza":0.0}`)
	client := testClient(t, srv)

	fields, err := client.NormalizerFallback().Complete(context.Background(),
		"Completa", normalize.FallbackRequest{DetectedKind: action.KindAttack})
	require.NoError(t, err, "the give-up reply is not an error")
	assert.Nil(t, fields, "the give-up reply carries nothing to merge")
}

// TestNormalizerFallback_ProseReply verifies prose surfaces as an error
// for the normalizer to downgrade.
func TestNormalizerFallback_ProseReply(t *testing.T) {
	srv, _ := fakeAPI(t, "Lo siento, no puedo interpretar esa acción.")
	client := testClient(t, srv)

	_, err := client.NormalizerFallback().Complete(context.Background(),
		"Completa", normalize.FallbackRequest{})
	require.Error(t, err, "prose must surface as an error")
	assert.Contains(t, err.Error(), "not JSON")
}

// TestNarrator_ServerError verifies transport failures surface as
// errors the pipeline downgrades to its deterministic fallback.
func TestNarrator_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	client := testClient(t, srv)

	narrator := client.Narrator(narrate.StyleCasual, "")
	_, err := narrator.Narrate(context.Background(), nil, nil)
	require.Error(t, err, "a 500 must surface as an error")
	assert.Contains(t, err.Error(), "llm completion")
}

// TestNarrator_EmptyReply verifies a completion with no text blocks is
// an error rather than blank narration.
func TestNarrator_EmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       "test-model",
			"content":     []map[string]any{},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 1, "output_tokens": 0},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	client := testClient(t, srv)

	narrator := client.Narrator(narrate.StyleEpic, "Thorin")
	_, err := narrator.Narrate(context.Background(), nil, nil)
	require.Error(t, err, "an empty completion must be an error")
	assert.Contains(t, err.Error(), "empty completion")
}
