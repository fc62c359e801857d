package rewrite

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeOpenAI(t *testing.T, status int, body string, got *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIGenerator_Generate(t *testing.T) {
	var got chatRequest
	srv := fakeOpenAI(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "gpt-4o-mini",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Plain version."}, "finish_reason": "stop"}]
	}`, &got)

	g, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", Temperature: DefaultTemperature})
	require.NoError(t, err)

	out, err := g.Generate(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "Plain version.", out)

	assert.Equal(t, DefaultModel, got.Model)
	require.NotNil(t, got.Temperature)
	assert.InDelta(t, DefaultTemperature, *got.Temperature, 1e-6)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "the prompt", got.Messages[0].Content)
}

func TestOpenAIGenerator_ZeroTemperatureIsSent(t *testing.T) {
	var got chatRequest
	srv := fakeOpenAI(t, http.StatusOK, `{
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}, "finish_reason": "stop"}]
	}`, &got)

	g, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", Temperature: 0})
	require.NoError(t, err)
	assert.Zero(t, g.temperature)

	_, err = g.Generate(context.Background(), "the prompt")
	require.NoError(t, err)
	require.NotNil(t, got.Temperature, "temperature must not be omitted")
	assert.InDelta(t, 0, *got.Temperature, 1e-6)
}

func TestOpenAIGenerator_NegativeTemperatureUsesDefault(t *testing.T) {
	g, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key", Temperature: -1})
	require.NoError(t, err)
	assert.InDelta(t, DefaultTemperature, g.temperature, 1e-6)
}

func TestOpenAIGenerator_Errors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := fakeOpenAI(t, http.StatusInternalServerError, `{"error":{"message":"overloaded","type":"server_error"}}`, nil)
		g, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
		require.NoError(t, err)
		_, err = g.Generate(context.Background(), "p")
		assert.Error(t, err)
	})

	t.Run("no choices", func(t *testing.T) {
		srv := fakeOpenAI(t, http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`, nil)
		g, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
		require.NoError(t, err)
		_, err = g.Generate(context.Background(), "p")
		assert.Error(t, err)
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := NewOpenAIGenerator(OpenAIConfig{})
		assert.Error(t, err)
	})
}
