package veo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pakmandi/bazaar/internal/capture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		invalid bool
	}{
		{
			name:    "entity not found",
			err:     genai.APIError{Code: 404, Message: "Requested entity was not found.", Status: "NOT_FOUND"},
			invalid: true,
		},
		{
			name:    "other not found",
			err:     genai.APIError{Code: 404, Message: "models/veo-x is not found", Status: "NOT_FOUND"},
			invalid: false,
		},
		{
			name:    "bad key reason",
			err:     genai.APIError{Code: 400, Message: "API key not valid. Please pass a valid API key.", Status: "INVALID_ARGUMENT"},
			invalid: true,
		},
		{
			name: "bad key detail",
			err: genai.APIError{Code: 400, Message: "invalid", Details: []map[string]any{
				{"@type": "type.googleapis.com/google.rpc.ErrorInfo", "reason": "API_KEY_INVALID"},
			}},
			invalid: true,
		},
		{
			name:    "permission denied",
			err:     fmt.Errorf("predict: %w", genai.APIError{Code: 403, Message: "forbidden"}),
			invalid: true,
		},
		{
			name:    "quota",
			err:     genai.APIError{Code: 429, Message: "Resource has been exhausted"},
			invalid: false,
		},
		{
			name:    "plain transport error",
			err:     errors.New("connection reset by peer"),
			invalid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			assert.Equal(t, tt.invalid, errors.Is(got, capture.ErrInvalidCredential))
			assert.Contains(t, got.Error(), tt.err.Error())
		})
	}
}

func TestToJob(t *testing.T) {
	pending := toJob(&genai.GenerateVideosOperation{Name: "operations/1"})
	assert.False(t, pending.Done)
	assert.Empty(t, pending.ResultURI)
	assert.NoError(t, pending.Err)

	done := toJob(&genai.GenerateVideosOperation{
		Name: "operations/1",
		Done: true,
		Response: &genai.GenerateVideosResponse{GeneratedVideos: []*genai.GeneratedVideo{
			{Video: &genai.Video{URI: "https://example.test/files/v:download?alt=media"}},
		}},
	})
	assert.True(t, done.Done)
	assert.Equal(t, "https://example.test/files/v:download?alt=media", done.ResultURI)
	assert.IsType(t, &genai.GenerateVideosOperation{}, done.Handle)

	failed := toJob(&genai.GenerateVideosOperation{
		Name:  "operations/1",
		Done:  true,
		Error: map[string]any{"code": float64(3), "message": "prompt rejected"},
	})
	require.Error(t, failed.Err)
	assert.Contains(t, failed.Err.Error(), "prompt rejected")

	filtered := toJob(&genai.GenerateVideosOperation{
		Done:     true,
		Response: &genai.GenerateVideosResponse{RAIMediaFilteredCount: 1, RAIMediaFilteredReasons: []string{"unsafe"}},
	})
	require.Error(t, filtered.Err)
	assert.Contains(t, filtered.Err.Error(), "unsafe")
}

func TestFetchAppendsKey(t *testing.T) {
	var gotKey, gotAlt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		gotAlt = r.URL.Query().Get("alt")
		w.Header().Set("Content-Type", "video/mp4; codecs=avc1")
		w.Write([]byte("clip"))
	}))
	defer srv.Close()

	g := &Generator{apiKey: "secret", httpClient: srv.Client()}
	data, mimeType, err := g.Fetch(context.Background(), srv.URL+"/v1beta/files/abc:download?alt=media")
	require.NoError(t, err)

	assert.Equal(t, "clip", string(data))
	assert.Equal(t, "video/mp4", mimeType)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "media", gotAlt)
}

func TestFetchStatusErrors(t *testing.T) {
	tests := []struct {
		status  int
		invalid bool
	}{
		{status: http.StatusForbidden, invalid: true},
		{status: http.StatusUnauthorized, invalid: true},
		{status: http.StatusInternalServerError, invalid: false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			g := &Generator{apiKey: "k", httpClient: srv.Client()}
			_, _, err := g.Fetch(context.Background(), srv.URL)
			require.Error(t, err)
			assert.Equal(t, tt.invalid, errors.Is(err, capture.ErrInvalidCredential))
		})
	}
}

func TestSubmitRejectedKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`))
	}))
	defer srv.Close()

	g, err := New(context.Background(), Config{APIKey: "stale", BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = g.Submit(context.Background(), "a bull", capture.DefaultOptions)
	require.Error(t, err)
	assert.ErrorIs(t, err, capture.ErrInvalidCredential)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, capture.ErrInvalidCredential)
}
