package handlers

import (
	"bytes"
	"net/http"
	"strings"
)

func (h *Handler) HandleMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" && r.Method != "HEAD" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	handle := strings.TrimPrefix(r.URL.Path, "/media/")
	if handle == "" || strings.Contains(handle, "/") {
		h.writeError(w, "Invalid media handle", http.StatusBadRequest)
		return
	}

	m, ok := h.media.Get(handle)
	if !ok {
		h.writeError(w, "Media not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", m.MIMEType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeContent(w, r, handle, m.CreatedAt, bytes.NewReader(m.Data))
}
