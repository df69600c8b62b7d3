// Package generator talks to an OpenAI-compatible chat completions endpoint
// to produce insight JSON.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/constants"
	"github.com/aandrew-el/habit-tracker-sub000/internal/insights"
	"github.com/aandrew-el/habit-tracker-sub000/internal/logger"
)

type Config struct {
	BaseURL string
	Model   string
	APIKey  string

	// HTTPClient defaults to a client without its own timeout; callers bound
	// each call through the context.
	HTTPClient *http.Client
}

// OpenAI implements insights.Generator. Works with OpenAI, Ollama, LM Studio,
// vLLM and anything else serving /chat/completions.
type OpenAI struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

var _ insights.Generator = (*OpenAI)(nil)

func New(cfg Config) *OpenAI {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	model := cfg.Model
	if model == "" {
		model = constants.DefaultGenerationModel
	}
	return &OpenAI{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   model,
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends one system+user exchange and returns the model's JSON reply.
// A missing key or endpoint, or an auth rejection, is reported as
// insights.ErrNotConfigured.
func (p *OpenAI) Generate(ctx context.Context, systemPrompt, userPrompt string) (insights.Generation, error) {
	if p.apiKey == "" {
		return insights.Generation{}, fmt.Errorf("%w: no api key", insights.ErrNotConfigured)
	}
	if p.baseURL == "" {
		return insights.Generation{}, fmt.Errorf("%w: no base url", insights.ErrNotConfigured)
	}

	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    0.4,
	})
	if err != nil {
		return insights.Generation{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return insights.Generation{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return insights.Generation{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return insights.Generation{}, fmt.Errorf("read response: %w", err)
	}
	logger.Debug("generation response", "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return insights.Generation{}, fmt.Errorf("%w: HTTP %d: %s", insights.ErrNotConfigured, resp.StatusCode, truncate(respBody, 200))
	case resp.StatusCode != http.StatusOK:
		return insights.Generation{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(respBody, 500))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return insights.Generation{}, fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != nil {
		return insights.Generation{}, fmt.Errorf("api error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return insights.Generation{}, fmt.Errorf("response has no choices")
	}

	gen := insights.Generation{
		Data: json.RawMessage(stripFences(parsed.Choices[0].Message.Content)),
	}
	if parsed.Usage != nil {
		gen.TokensUsed = parsed.Usage.TotalTokens
	}
	return gen, nil
}

// stripFences removes a surrounding ```json ... ``` block some models add even
// in JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
