package veo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pakmandi/bazaar/internal/capture"
	"google.golang.org/genai"
)

const (
	DefaultModel = "veo-3.1-fast-generate-preview"

	notFoundMessage = "Requested entity was not found"
)

// Config selects the model and endpoint used for generation
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// Generator runs Veo video jobs through the Gemini API
type Generator struct {
	client     *genai.Client
	model      string
	apiKey     string
	httpClient *http.Client
}

// New creates a generator bound to cfg.APIKey
func New(ctx context.Context, cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: empty API key", capture.ErrInvalidCredential)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Generator{
		client:     client,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// Factory returns a capture.GeneratorFactory that builds generators per API key
func Factory(cfg Config) capture.GeneratorFactory {
	return func(ctx context.Context, apiKey string) (capture.VideoGenerator, error) {
		c := cfg
		c.APIKey = apiKey
		return New(ctx, c)
	}
}

// Submit starts a generation job
func (g *Generator) Submit(ctx context.Context, prompt string, opts capture.GenerateOptions) (*capture.Job, error) {
	slog.Info("Submitting video job", "model", g.model, "resolution", opts.Resolution, "aspect_ratio", opts.AspectRatio)

	op, err := g.client.Models.GenerateVideos(ctx, g.model, prompt, nil, &genai.GenerateVideosConfig{
		NumberOfVideos: int32(opts.Count),
		Resolution:     opts.Resolution,
		AspectRatio:    opts.AspectRatio,
	})
	if err != nil {
		return nil, classify(err)
	}
	return toJob(op), nil
}

// Poll refreshes the job's operation
func (g *Generator) Poll(ctx context.Context, job *capture.Job) (*capture.Job, error) {
	op, ok := job.Handle.(*genai.GenerateVideosOperation)
	if !ok || op == nil {
		op = &genai.GenerateVideosOperation{Name: job.Name}
	}

	next, err := g.client.Operations.GetVideosOperation(ctx, op, nil)
	if err != nil {
		return nil, classify(err)
	}
	return toJob(next), nil
}

// Fetch downloads a generated asset. The API key is appended as the key query parameter.
func (g *Generator) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", fmt.Errorf("invalid video uri: %w", err)
	}
	q := u.Query()
	q.Set("key", g.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download video: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, "", fmt.Errorf("%w: download returned status %d", capture.ErrInvalidCredential, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read video: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return data, mimeType, nil
}

func toJob(op *genai.GenerateVideosOperation) *capture.Job {
	job := &capture.Job{Name: op.Name, Done: op.Done, Handle: op}
	if op.Error != nil {
		job.Err = operationError(op.Error)
	}
	if op.Response != nil {
		for _, v := range op.Response.GeneratedVideos {
			if v != nil && v.Video != nil && v.Video.URI != "" {
				job.ResultURI = v.Video.URI
				break
			}
		}
		if job.ResultURI == "" && op.Response.RAIMediaFilteredCount > 0 {
			job.Err = fmt.Errorf("video filtered: %s", strings.Join(op.Response.RAIMediaFilteredReasons, "; "))
		}
	}
	return job
}

func operationError(m map[string]any) error {
	msg, _ := m["message"].(string)
	if msg == "" {
		msg = fmt.Sprint(m)
	}
	if code, ok := m["code"].(float64); ok {
		return fmt.Errorf("operation failed (code %d): %s", int(code), msg)
	}
	return fmt.Errorf("operation failed: %s", msg)
}

// classify marks key rejections with capture.ErrInvalidCredential
func classify(err error) error {
	if isInvalidCredential(err) {
		return fmt.Errorf("%w: %w", capture.ErrInvalidCredential, err)
	}
	return err
}

func isInvalidCredential(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return rejectsKey(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return rejectsKey(*apiErrPtr)
	}
	return strings.Contains(err.Error(), notFoundMessage)
}

func rejectsKey(e genai.APIError) bool {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusNotFound:
		return strings.Contains(e.Message, notFoundMessage)
	}
	if strings.Contains(e.Message, "API_KEY_INVALID") || strings.Contains(e.Message, "API key not valid") {
		return true
	}
	for _, d := range e.Details {
		if reason, _ := d["reason"].(string); reason == "API_KEY_INVALID" {
			return true
		}
	}
	return false
}
