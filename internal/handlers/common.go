package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pakmandi/bazaar/internal/capture"
	"github.com/pakmandi/bazaar/internal/catalog"
	"github.com/pakmandi/bazaar/internal/credentials"
	"github.com/pakmandi/bazaar/internal/dashboard"
	"github.com/pakmandi/bazaar/internal/models"
	"github.com/pakmandi/bazaar/internal/profile"
	"github.com/pakmandi/bazaar/internal/query"
	"github.com/pakmandi/bazaar/internal/storage"
)

type Handler struct {
	catalog       *catalog.Catalog
	sessionStore  *storage.SessionStore
	media         *storage.MediaStore
	credentials   *credentials.Store
	captureConfig capture.Config
	now           func() time.Time
	newID         func() string
	addListing    func(sellerID string, d models.ListingDraft, now time.Time) (models.Listing, error)
}

// New wires the API around a catalog. The capture config supplies devices and the generator factory;
// media handles and credentials are owned by the handler.
func New(c *catalog.Catalog, captureConfig capture.Config, creds *credentials.Store) *Handler {
	if creds == nil {
		creds = credentials.NewStore("")
	}
	media := storage.NewMediaStore()
	captureConfig.Handles = media
	captureConfig.Credentials = creds

	return &Handler{
		catalog:       c,
		sessionStore:  storage.New(),
		media:         media,
		credentials:   creds,
		captureConfig: captureConfig,
		now:           time.Now,
		newID:         uuid.NewString,
		addListing:    c.AddListing,
	}
}

// Routes registers every endpoint
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/listings", h.HandleListings)
	mux.HandleFunc("/api/listings/", h.HandleListingDetail)
	mux.HandleFunc("/api/sellers/", h.HandleSellerDetail)
	mux.HandleFunc("/api/dashboard", h.HandleDashboard)
	mux.HandleFunc("/api/market/trends", h.HandleMarketTrends)
	mux.HandleFunc("/api/capture/sessions", h.HandleSessions)
	mux.HandleFunc("/api/capture/sessions/", h.HandleSessionDetail)
	mux.HandleFunc("/api/credential", h.HandleCredential)
	mux.HandleFunc("/media/", h.HandleMedia)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}

// Shutdown closes every open capture session
func (h *Handler) Shutdown() {
	h.sessionStore.CloseAll()
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	h.writeJSONStatus(w, http.StatusOK, data)
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "status", code)
	http.Error(w, message, code)
}

// writeErr maps domain errors to HTTP status codes
func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	h.writeError(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	var validationErr *query.ValidationError
	var configErr *query.ConfigurationError
	var conflictErr *capture.ConcurrentOperationError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &configErr):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrInvalidDraft),
		errors.Is(err, profile.ErrRatingRequired),
		errors.Is(err, profile.ErrInvalidRating):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrListingNotFound),
		errors.Is(err, catalog.ErrUserNotFound),
		errors.Is(err, profile.ErrSellerNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrTabUnavailable):
		return http.StatusForbidden
	case errors.As(err, &conflictErr), errors.Is(err, capture.ErrNotRecording):
		return http.StatusConflict
	case errors.Is(err, capture.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, capture.ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// pathParts splits the path below prefix into its segments
func pathParts(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func mediaURL(handle string) string {
	return fmt.Sprintf("/media/%s", handle)
}
