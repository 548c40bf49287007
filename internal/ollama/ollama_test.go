package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pakmandi/bazaar/internal/providers"
)

func TestGenerate(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"response":"a script"}`))
	}))
	defer srv.Close()

	o := &Ollama{URL: srv.URL, Client: srv.Client()}
	out, err := o.Generate(context.Background(), providers.Config{Model: "llama3.2", System: "sys", Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "a script" {
		t.Errorf("out = %q", out)
	}
	if got["system"] != "sys" || got["prompt"] != "p" || got["stream"] != false {
		t.Errorf("unexpected request body %v", got)
	}
}

func TestGenerateErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	o := &Ollama{URL: srv.URL, Client: srv.Client()}
	if _, err := o.Generate(context.Background(), providers.Config{Model: "x"}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestNewReadsEnv(t *testing.T) {
	t.Setenv("OLLAMA_URL", "http://ollama:11434/")
	if got := New().URL; got != "http://ollama:11434" {
		t.Errorf("URL = %q", got)
	}
}
