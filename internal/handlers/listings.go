package handlers

import (
	"log/slog"
	"net/http"

	"github.com/pakmandi/bazaar/internal/catalog"
	"github.com/pakmandi/bazaar/internal/models"
	"github.com/pakmandi/bazaar/internal/query"
)

type createListingRequest struct {
	SellerID         string `json:"seller_id"`
	CaptureSessionID string `json:"capture_session_id,omitempty"`
	models.ListingDraft
}

func (h *Handler) HandleListings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		h.searchListings(w, r)
	case "POST":
		h.createListing(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) searchListings(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	filter, err := query.ParseFilter(values)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	sort, err := query.ParseSort(values.Get("sort"))
	if err != nil {
		h.writeErr(w, err)
		return
	}

	listings, err := query.Run(h.catalog.Listings(), filter, sort)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	if listings == nil {
		listings = []models.Listing{}
	}
	h.writeJSON(w, listings)
}

func (h *Handler) createListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	draft := req.ListingDraft
	if err := catalog.ValidateDraft(draft); err != nil {
		h.writeErr(w, err)
		return
	}
	if _, err := h.catalog.User(req.SellerID); err != nil {
		h.writeErr(w, err)
		return
	}

	var claimed string
	if req.CaptureSessionID != "" {
		session, ok := h.getSessionOrError(w, req.CaptureSessionID)
		if !ok {
			return
		}
		if res, ok := session.TakeResult(); ok && res.Handle != "" {
			claimed = res.Handle
			draft.Videos = append(draft.Videos, mediaURL(claimed))
		}
		h.sessionStore.Delete(session.ID)
	}

	listing, err := h.addListing(req.SellerID, draft, h.now())
	if err != nil {
		if claimed != "" {
			h.media.Revoke(claimed)
		}
		h.writeErr(w, err)
		return
	}

	slog.Info("Listing created", "id", listing.ID, "seller_id", listing.SellerID, "videos", len(listing.Videos))
	h.writeJSONStatus(w, http.StatusCreated, listing)
}

func (h *Handler) HandleListingDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := pathParts(r.URL.Path, "/api/listings/")
	if len(parts) != 1 {
		h.writeError(w, "Not found", http.StatusNotFound)
		return
	}

	if parts[0] == "facets" {
		h.writeJSON(w, h.catalog.Facets())
		return
	}

	listing, err := h.catalog.Listing(parts[0])
	if err != nil {
		h.writeErr(w, err)
		return
	}
	h.writeJSON(w, listing)
}
