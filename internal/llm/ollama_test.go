package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaProvider_Narrate_Success(t *testing.T) {
	// Mock server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", ct)
		}

		var apiReq ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&apiReq); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		if apiReq.Model != "llama3.1" {
			t.Errorf("Expected model llama3.1, got %s", apiReq.Model)
		}
		if apiReq.Stream {
			t.Error("Expected stream to be disabled")
		}
		if apiReq.System != narratorSystemPrompt {
			t.Errorf("Unexpected system prompt: %s", apiReq.System)
		}
		if !strings.Contains(apiReq.Prompt, "{SUGAR} => {TEA}") {
			t.Error("Expected prompt to carry the rule table")
		}

		// Return success response
		resp := ollamaResponse{
			Model:           "llama3.1",
			Response:        `Baskets containing "SUGAR" always contain "TEA".`,
			Done:            true,
			PromptEvalCount: 10,
			EvalCount:       20,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	// Create provider
	config := Config{
		BaseURL:      server.URL,
		Model:        "llama3.1",
		Timeout:      5,
		StrictValues: true,
	}
	provider, err := NewOllamaProvider(config)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if provider.Name() != "ollama" {
		t.Errorf("Expected provider name 'ollama', got %s", provider.Name())
	}

	// Test Narrate
	req := NarrateRequest{Report: reportWithRules()}

	resp, err := provider.Narrate(context.Background(), req)
	if err != nil {
		t.Fatalf("Narrate failed: %v", err)
	}

	if resp.Narrative != `Baskets containing "SUGAR" always contain "TEA".` {
		t.Errorf("Unexpected narrative: %s", resp.Narrative)
	}
	if resp.Model != "llama3.1" {
		t.Errorf("Unexpected model: %s", resp.Model)
	}
	if resp.TokensUsed != 30 {
		t.Errorf("Unexpected token usage: %d", resp.TokensUsed)
	}
}

func TestOllamaProvider_Narrate_TokenEstimateFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Some models report no token counts at all
		resp := ollamaResponse{
			Model:    "mistral",
			Response: `Baskets containing "SUGAR" always contain "TEA".`,
			Done:     true,
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	config := Config{
		BaseURL: server.URL,
		Model:   "mistral",
		Timeout: 5,
	}
	provider, err := NewOllamaProvider(config)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	req := NarrateRequest{Report: reportWithRules()}

	resp, err := provider.Narrate(context.Background(), req)
	if err != nil {
		t.Fatalf("Narrate failed: %v", err)
	}
	if resp.TokensUsed <= 0 {
		t.Errorf("Expected estimated token count, got %d", resp.TokensUsed)
	}
}

func TestOllamaProvider_Narrate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": "Internal Server Error"}`))
	}))
	defer server.Close()

	config := Config{
		BaseURL: server.URL,
		Model:   "llama3.1",
		Timeout: 5,
	}
	provider, err := NewOllamaProvider(config)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	req := NarrateRequest{Report: reportWithRules()}

	_, err = provider.Narrate(context.Background(), req)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Internal Server Error") {
		t.Errorf("Expected error message to contain 'Internal Server Error', got %v", err)
	}
}

func TestOllamaProvider_Narrate_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{malformed json`))
	}))
	defer server.Close()

	config := Config{
		BaseURL: server.URL,
		Model:   "llama3.1",
		Timeout: 5,
	}
	provider, err := NewOllamaProvider(config)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	req := NarrateRequest{Report: reportWithRules()}

	_, err = provider.Narrate(context.Background(), req)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	config := Config{
		BaseURL: server.URL,
	}
	provider, err := NewOllamaProvider(config)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	if !provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be true")
	}

	// Test failure
	server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if provider.IsAvailable(context.Background()) {
		t.Error("Expected available to be false on error")
	}
}

func TestOllamaProvider_Narrate_NoModel(t *testing.T) {
	config := Config{
		BaseURL: "http://localhost:11434",
		Model:   "", // No model
	}
	provider, err := NewOllamaProvider(config)
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	req := NarrateRequest{Report: reportWithRules()}

	_, err = provider.Narrate(context.Background(), req)
	if err == nil {
		t.Fatal("Expected error when no model provided, got nil")
	}
	if !strings.Contains(err.Error(), "must be specified") {
		t.Errorf("Expected error about missing model, got %v", err)
	}
}

func TestNewOllamaProvider_TrimsTrailingSlash(t *testing.T) {
	provider, err := NewOllamaProvider(Config{BaseURL: "http://localhost:11434/"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if provider.baseURL != "http://localhost:11434" {
		t.Errorf("Expected trailing slash to be trimmed, got %s", provider.baseURL)
	}
}
