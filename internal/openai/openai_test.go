package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pakmandi/bazaar/internal/providers"
)

func TestGenerate(t *testing.T) {
	var body struct {
		Model    string              `json:"model"`
		Messages []map[string]string `json:"messages"`
	}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"choices":[{"message":{"content":"scripted"}}]}`))
	}))
	defer srv.Close()

	o := &OpenAI{APIKey: "sk-test", URL: srv.URL, Client: srv.Client()}
	out, err := o.Generate(context.Background(), providers.Config{Model: "gpt-4o-mini", System: "sys", Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "scripted" {
		t.Errorf("out = %q", out)
	}
	if auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}
	if len(body.Messages) != 2 || body.Messages[0]["role"] != "system" || body.Messages[1]["content"] != "p" {
		t.Errorf("unexpected messages %v", body.Messages)
	}
}

func TestGenerateErrors(t *testing.T) {
	if _, err := (&OpenAI{}).Generate(context.Background(), providers.Config{}); err == nil {
		t.Error("expected missing key error")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	o := &OpenAI{APIKey: "k", URL: srv.URL, Client: srv.Client()}
	if _, err := o.Generate(context.Background(), providers.Config{}); err == nil {
		t.Error("expected no choices error")
	}
}
