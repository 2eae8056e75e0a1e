package vibe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"VibeFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	plain := `{"vibe":"x"}`
	assert.Equal(t, plain, stripCodeFences(plain))
	assert.Equal(t, plain, stripCodeFences("```json\n"+plain+"\n```"))
	assert.Equal(t, plain, stripCodeFences("```\n"+plain+"\n```"))
	assert.Equal(t, plain, stripCodeFences("  "+plain+"  "))
}

func TestOpenAIProviderGenerateVibe(t *testing.T) {
	completion := model.VibeCompletion{
		Vibe:         "Low lights and slow tempo.",
		MoodCategory: "calm",
		Playlist: []model.PlaylistItem{
			{Title: "Holocene", Artist: "Bon Iver", Reason: "Perspective and calm"},
		},
	}
	content, err := json.Marshal(completion)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req model.OpenAIChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "```json\n" + string(content) + "\n```"}},
			},
		})
	}))
	defer server.Close()

	provider := &OpenAIProvider{
		baseURL:    server.URL,
		apiKey:     "test-key",
		model:      "gpt-test",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}

	got, err := provider.GenerateVibe(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "calm", got.MoodCategory)
	require.Len(t, got.Playlist, 1)
	assert.Equal(t, "Holocene", got.Playlist[0].Title)
}

func TestOpenAIProviderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	provider := &OpenAIProvider{
		baseURL:    server.URL,
		apiKey:     "test-key",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}

	_, err := provider.GenerateVibe(context.Background(), "the prompt")
	assert.Error(t, err)
}

func TestOpenAIProviderUnparseableContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "sorry, I cannot do that"}},
			},
		})
	}))
	defer server.Close()

	provider := &OpenAIProvider{
		baseURL:    server.URL,
		apiKey:     "test-key",
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}

	_, err := provider.GenerateVibe(context.Background(), "the prompt")
	assert.Error(t, err)
}
