package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aandrew-el/habit-tracker-sub000/internal/insights"
)

func chatServer(t *testing.T, status int, reply string, check func(*http.Request, chatRequest)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if check != nil {
			check(r, req)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completion(content string, tokens int) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": tokens - 10, "total_tokens": tokens},
	})
	return string(b)
}

func TestGenerate(t *testing.T) {
	srv := chatServer(t, http.StatusOK, completion(`{"overallScore": 70}`, 150), func(r *http.Request, req chatRequest) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if req.Model != "test-model" || req.ResponseFormat.Type != "json_object" {
			t.Errorf("unexpected request: %+v", req)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "user prompt" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
	})

	gen := New(Config{BaseURL: srv.URL + "/", Model: "test-model", APIKey: "sk-test"})
	out, err := gen.Generate(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if string(out.Data) != `{"overallScore": 70}` || out.TokensUsed != 150 {
		t.Errorf("Generate() = %s, %d", out.Data, out.TokensUsed)
	}
}

func TestGenerate_StripsCodeFences(t *testing.T) {
	srv := chatServer(t, http.StatusOK, completion("```json\n{\"trendAnalysis\": \"up\"}\n```", 20), nil)

	out, err := New(Config{BaseURL: srv.URL, APIKey: "k"}).Generate(context.Background(), "s", "u")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if string(out.Data) != `{"trendAnalysis": "up"}` {
		t.Errorf("Data = %s", out.Data)
	}
}

func TestGenerate_NotConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing key", Config{BaseURL: "http://127.0.0.1:1"}},
		{"missing url", Config{APIKey: "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg).Generate(context.Background(), "s", "u")
			if !errors.Is(err, insights.ErrNotConfigured) {
				t.Errorf("expected ErrNotConfigured, got %v", err)
			}
		})
	}
}

func TestGenerate_HTTPErrors(t *testing.T) {
	unauthorized := chatServer(t, http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, nil)
	_, err := New(Config{BaseURL: unauthorized.URL, APIKey: "k"}).Generate(context.Background(), "s", "u")
	if !errors.Is(err, insights.ErrNotConfigured) {
		t.Errorf("401 should be ErrNotConfigured, got %v", err)
	}

	broken := chatServer(t, http.StatusBadGateway, strings.Repeat("x", 1000), nil)
	_, err = New(Config{BaseURL: broken.URL, APIKey: "k"}).Generate(context.Background(), "s", "u")
	if err == nil || errors.Is(err, insights.ErrNotConfigured) || !strings.Contains(err.Error(), "HTTP 502") {
		t.Errorf("unexpected error for 502: %v", err)
	}

	empty := chatServer(t, http.StatusOK, `{"choices": []}`, nil)
	if _, err := New(Config{BaseURL: empty.URL, APIKey: "k"}).Generate(context.Background(), "s", "u"); err == nil {
		t.Error("expected an error for a reply without choices")
	}
}

func TestGenerate_RespectsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(Config{BaseURL: srv.URL, APIKey: "k"}).Generate(ctx, "s", "u")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"  {\"a\":1}\n":           `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
	}
	for in, want := range tests {
		if got := stripFences(in); got != want {
			t.Errorf("stripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
