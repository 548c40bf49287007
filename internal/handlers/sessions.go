package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pakmandi/bazaar/internal/capture"
	"github.com/pakmandi/bazaar/internal/models"
)

// stopTimeout bounds how long a record/stop request waits for the recorder to flush
const stopTimeout = 30 * time.Second

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		snapshots := make([]capture.Snapshot, 0, len(sessions))
		for _, session := range sessions {
			snapshots = append(snapshots, session.Snapshot())
		}
		h.writeJSON(w, snapshots)
	case "POST":
		session := capture.NewSession(h.newID(), h.captureConfig)
		h.sessionStore.Set(session)
		slog.Info("Capture session opened", "session_id", session.ID)
		h.writeJSONStatus(w, http.StatusCreated, session.Snapshot())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/api/capture/sessions/")
	if len(parts) == 0 {
		h.writeError(w, "Session ID required", http.StatusBadRequest)
		return
	}
	sessionID := parts[0]
	action := strings.Join(parts[1:], "/")

	if action == "" && r.Method == "DELETE" {
		h.sessionStore.Delete(sessionID)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	session, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	if action == "" {
		if r.Method != "GET" {
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.writeJSON(w, session.Snapshot())
		return
	}

	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	switch action {
	case "scan":
		err = session.Scan()
	case "record/start":
		err = session.StartRecording()
	case "record/stop":
		ctx, cancel := context.WithTimeout(r.Context(), stopTimeout)
		defer cancel()
		err = session.StopRecording(ctx)
	case "generate":
		var draft models.ListingDraft
		if !h.decodeJSON(w, r, &draft) {
			return
		}
		err = session.Generate(draft)
	default:
		h.writeError(w, "Unknown action: "+action, http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeErr(w, err)
		return
	}

	slog.Debug("Capture action accepted", "session_id", sessionID, "action", action)
	h.writeJSONStatus(w, http.StatusAccepted, session.Snapshot())
}

func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*capture.Session, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}
