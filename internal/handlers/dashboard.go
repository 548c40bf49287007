package handlers

import (
	"net/http"

	"github.com/pakmandi/bazaar/internal/dashboard"
)

type dashboardResponse struct {
	User          string            `json:"user"`
	Tabs          []dashboard.Tab   `json:"tabs"`
	Active        dashboard.Tab     `json:"active"`
	CanAddListing bool              `json:"can_add_listing"`
	Kind          string            `json:"kind"`
	Content       dashboard.Content `json:"content"`
	Message       string            `json:"message,omitempty"`
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID := r.URL.Query().Get("user")
	if userID == "" {
		h.writeError(w, "user is required", http.StatusBadRequest)
		return
	}
	user, err := h.catalog.User(userID)
	if err != nil {
		h.writeErr(w, err)
		return
	}

	d := dashboard.New(user)
	if tab := r.URL.Query().Get("tab"); tab != "" {
		if err := d.Select(dashboard.Tab(tab)); err != nil {
			h.writeErr(w, err)
			return
		}
	}

	content, err := d.Content(h.catalog)
	if err != nil {
		h.writeErr(w, err)
		return
	}

	resp := dashboardResponse{
		User:          user.ID,
		Tabs:          d.Tabs(),
		Active:        d.Active(),
		CanAddListing: d.CanAddListing(),
		Kind:          content.Kind(),
		Content:       content,
	}
	if dc, ok := content.(dashboard.DefaultContent); ok {
		resp.Message = dc.Message()
	}
	h.writeJSON(w, resp)
}

func (h *Handler) HandleMarketTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, h.catalog.MarketTrends())
}
