package handlers

import (
	"net/http"
	"strings"
)

type credentialRequest struct {
	APIKey string `json:"api_key"`
}

type credentialResponse struct {
	Configured bool `json:"configured"`
}

// HandleCredential sets or clears the API key used for video generation. The key is never echoed back.
func (h *Handler) HandleCredential(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.writeJSON(w, credentialResponse{Configured: h.credentials.HasCredential(r.Context())})
	case "PUT":
		var req credentialRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}
		key := strings.TrimSpace(req.APIKey)
		if key == "" {
			h.writeError(w, "api_key is required", http.StatusBadRequest)
			return
		}
		h.credentials.Set(key)
		h.writeJSON(w, credentialResponse{Configured: true})
	case "DELETE":
		h.credentials.Clear()
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
