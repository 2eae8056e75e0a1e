package vibe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"VibeFM/config"
	"VibeFM/logger"
	"VibeFM/model"
)

// Provider generates a vibe completion from a composed prompt. A nil
// Provider means the deterministic fallback is always used.
type Provider interface {
	GenerateVibe(ctx context.Context, prompt string) (*model.VibeCompletion, error)
}

// System prompt for the vibe generator.
const vibeSystemPrompt = `You are a music curator with a gift for reading emotions.
Given a description of someone's emotional state, you respond with a short,
evocative "vibe" sentence and a playlist of real songs that match the mood.

Respond with JSON only, no prose around it, in exactly this shape:
{
  "vibe": "one or two sentences capturing the mood",
  "moodCategory": "one of: energetic, calm, melancholic, romantic, angry, excited, peaceful, nostalgic",
  "playlist": [
    {"title": "song title", "artist": "artist name", "reason": "why it fits"}
  ]
}

The playlist must contain between 5 and 8 songs. Use real, well-known songs.`

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// NewOpenAIProvider returns nil when no API key is configured, which
// selects the fallback path everywhere downstream.
func NewOpenAIProvider(cfg *config.Config) *OpenAIProvider {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	return &OpenAIProvider{
		baseURL:     cfg.OpenAIBaseURL,
		apiKey:      cfg.OpenAIAPIKey,
		model:       cfg.OpenAIModel,
		maxTokens:   cfg.OpenAIMaxTokens,
		temperature: cfg.OpenAITemperature,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// GenerateVibe sends the prompt and parses the JSON completion.
func (p *OpenAIProvider) GenerateVibe(ctx context.Context, prompt string) (*model.VibeCompletion, error) {
	reqBody := model.OpenAIChatRequest{
		Model: p.model,
		Messages: []model.OpenAIChatMessage{
			{Role: "system", Content: vibeSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		Stream:      false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp model.OpenAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	content := stripCodeFences(chatResp.Choices[0].Message.Content)
	var completion model.VibeCompletion
	if err := json.Unmarshal([]byte(content), &completion); err != nil {
		logger.Warn("Failed to parse vibe completion",
			logger.String("content", content),
			logger.ErrorField(err))
		return nil, fmt.Errorf("failed to parse completion: %w", err)
	}
	return &completion, nil
}

// stripCodeFences removes a surrounding ```json ... ``` block when the
// model wraps its answer despite the instructions.
func stripCodeFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
