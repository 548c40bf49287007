package handlers

import (
	"log/slog"
	"math"
	"net/http"

	"github.com/pakmandi/bazaar/internal/profile"
)

type reviewRequest struct {
	ReviewerName string  `json:"reviewer_name"`
	Rating       float64 `json:"rating"`
	Comment      string  `json:"comment"`
}

func (h *Handler) HandleSellerDetail(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/api/sellers/")
	switch {
	case len(parts) == 1 && r.Method == "GET":
		p, err := profile.Build(h.catalog, parts[0])
		if err != nil {
			h.writeErr(w, err)
			return
		}
		h.writeJSON(w, p)
	case len(parts) == 2 && parts[1] == "reviews" && r.Method == "POST":
		h.submitReview(w, r, parts[0])
	case len(parts) == 1 || (len(parts) == 2 && parts[1] == "reviews"):
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		h.writeError(w, "Not found", http.StatusNotFound)
	}
}

func (h *Handler) submitReview(w http.ResponseWriter, r *http.Request, sellerID string) {
	var req reviewRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Rating != math.Trunc(req.Rating) {
		h.writeErr(w, profile.ErrInvalidRating)
		return
	}

	review, err := profile.Submit(h.catalog, sellerID, req.ReviewerName, int(req.Rating), req.Comment, h.now())
	if err != nil {
		h.writeErr(w, err)
		return
	}
	slog.Info("Review submitted", "seller_id", sellerID, "rating", review.Rating)
	h.writeJSONStatus(w, http.StatusCreated, review)
}
