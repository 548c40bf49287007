package scripting

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pakmandi/bazaar/internal/gemini"
	"github.com/pakmandi/bazaar/internal/ollama"
	"github.com/pakmandi/bazaar/internal/openai"
	"github.com/pakmandi/bazaar/internal/providers"
)

const instruction = `You write prompts for a text-to-video model that makes short clips advertising livestock for sale.
Rewrite the draft prompt as one vivid paragraph of at most 120 words.
Keep every fact about the animal exactly as given: breed, age, sex, weight and location.
Describe the setting, the light and the camera movement. Do not invent prices or health claims.
Reply with the paragraph only.`

// Service turns a template prompt into a video script with a text model
type Service struct {
	Provider    providers.Provider
	Name        string
	Model       string
	Temperature float64
}

// NewService selects a provider by name. An empty name falls back to SCRIPT_PROVIDER, then ollama.
func NewService(provider, model string) (*Service, error) {
	if provider == "" {
		provider = os.Getenv("SCRIPT_PROVIDER")
		if provider == "" {
			provider = "ollama"
		}
	}
	if model == "" {
		model = defaultModel(provider)
	}

	var p providers.Provider
	switch provider {
	case "ollama":
		p = ollama.New()
	case "openai":
		p = openai.New()
	case "gemini":
		p = gemini.New()
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	return &Service{Provider: p, Name: provider, Model: model, Temperature: 0.7}, nil
}

// WriteScript expands prompt into a richer scene description
func (s *Service) WriteScript(ctx context.Context, prompt string) (string, error) {
	slog.Info("Crafting video script", "provider", s.Name, "model", s.Model)

	out, err := s.Provider.Generate(ctx, providers.Config{
		Model:       s.Model,
		Temperature: s.Temperature,
		System:      instruction,
		Prompt:      prompt,
	})
	if err != nil {
		return "", fmt.Errorf("%s script generation failed: %w", s.Name, err)
	}

	out = strings.Trim(strings.TrimSpace(out), `"`)
	if out == "" {
		return "", fmt.Errorf("%s returned an empty script", s.Name)
	}
	return out, nil
}

func defaultModel(provider string) string {
	switch provider {
	case "openai":
		if model := os.Getenv("OPENAI_MODEL"); model != "" {
			return model
		}
		return "gpt-4o-mini"
	case "gemini":
		if model := os.Getenv("GEMINI_MODEL"); model != "" {
			return model
		}
		return "gemini-1.5-flash"
	default:
		if model := os.Getenv("OLLAMA_MODEL"); model != "" {
			return model
		}
		return "llama3.2"
	}
}
