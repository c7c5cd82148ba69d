package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIComplete(t *testing.T) {
	var gotReq oaiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(oaiResponse{
			ID:    "resp-1",
			Model: gotReq.Model,
			Choices: []oaiChoice{
				{Message: oaiMessage{Role: "assistant", Content: "hello there"}},
			},
			Usage: oaiUsage{PromptTokens: 10, CompletionTokens: 3},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("openai", srv.URL, "test-key", "gpt-test")
	resp, err := p.Complete(context.Background(), &CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "hello there" {
		t.Errorf("Content = %q", resp.Content)
	}
	if gotReq.Model != "gpt-test" {
		t.Errorf("default model not applied, got %q", gotReq.Model)
	}
	if resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 3 {
		t.Errorf("Usage = %+v", resp.Usage)
	}
}

func TestOpenAICompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("openai", srv.URL, "k", "m")
	_, err := p.Complete(context.Background(), &CompletionRequest{})
	if err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestAnthropicCompleteLiftsSystemMessages(t *testing.T) {
	var gotReq anthRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if key := r.Header.Get("x-api-key"); key != "anth-key" {
			t.Errorf("x-api-key = %q", key)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(anthResponse{
			ID:      "msg-1",
			Model:   gotReq.Model,
			Content: []anthContentBlock{{Type: "text", Text: "ok"}},
		})
	}))
	defer srv.Close()

	p := NewAnthropicProvider("anthropic", srv.URL, "anth-key", "claude-test")
	resp, err := p.Complete(context.Background(), &CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "you are terse"},
			{Role: RoleUser, Content: "hi"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q", resp.Content)
	}
	if gotReq.System != "you are terse" {
		t.Errorf("System = %q", gotReq.System)
	}
	if len(gotReq.Messages) != 1 || gotReq.Messages[0].Role != "user" {
		t.Errorf("Messages = %+v", gotReq.Messages)
	}
	if gotReq.MaxTokens != anthropicMaxTokens {
		t.Errorf("MaxTokens = %d", gotReq.MaxTokens)
	}
}

func TestFromConfig(t *testing.T) {
	cases := []struct {
		api     string
		wantErr bool
	}{
		{api: "", wantErr: false},
		{api: APIOpenAI, wantErr: false},
		{api: APIAnthropic, wantErr: false},
		{api: "grpc-tools", wantErr: true},
	}
	for _, tc := range cases {
		_, err := FromConfig(Config{ID: "p", API: tc.api})
		if tc.wantErr && err == nil {
			t.Errorf("api %q: expected error", tc.api)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("api %q: %v", tc.api, err)
		}
	}
}
