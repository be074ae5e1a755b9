package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DRSN-tech/shop-assistant/internal/cfg"
	"github.com/DRSN-tech/shop-assistant/pkg/e"
	"github.com/DRSN-tech/shop-assistant/pkg/logger"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, status int, reply string, seen *map[string]any) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": reply},
			}},
		})
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newTestClient(url string) *Client {
	return NewClient(&cfg.LLMCfg{
		BaseURL: url,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, logger.NewNopLogger(), option.WithMaxRetries(0))
}

func TestComplete(t *testing.T) {
	var body map[string]any
	srv := completionServer(t, http.StatusOK, "  Bonjour  ", &body)

	out, err := newTestClient(srv.URL).Complete(context.Background(), "Translate: Hello")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)

	assert.Equal(t, "test-model", body["model"])
	messages := body["messages"].([]any)
	require.Len(t, messages, 1)
	assert.Equal(t, "Translate: Hello", messages[0].(map[string]any)["content"])
}

func TestCompleteUpstreamFailure(t *testing.T) {
	srv := completionServer(t, http.StatusInternalServerError, "", nil)

	_, err := newTestClient(srv.URL).Complete(context.Background(), "hi")
	assert.ErrorIs(t, err, e.ErrUpstream)
}
