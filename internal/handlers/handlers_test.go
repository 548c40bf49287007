package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pakmandi/bazaar/internal/capture"
	"github.com/pakmandi/bazaar/internal/catalog"
	"github.com/pakmandi/bazaar/internal/credentials"
	"github.com/pakmandi/bazaar/internal/dataset"
	"github.com/pakmandi/bazaar/internal/models"
	"github.com/pakmandi/bazaar/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStream struct{}

func (stubStream) Stop() {}

type stubDevice struct{}

func (stubDevice) RequestStream(context.Context, capture.Constraints) (capture.Stream, error) {
	return stubStream{}, nil
}

var fixedNow = time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T, cfg capture.Config) (*Handler, http.Handler) {
	t.Helper()
	ds, err := dataset.Seed()
	require.NoError(t, err)

	h := New(catalog.New(ds), cfg, credentials.NewStore(""))
	h.now = func() time.Time { return fixedNow }
	ids := 0
	h.newID = func() string {
		ids++
		return "s" + string(rune('0'+ids))
	}
	t.Cleanup(h.Shutdown)
	return h, h.Routes()
}

func do(t *testing.T, mux http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, &buf))
	return rec
}

func TestSearchListings(t *testing.T) {
	_, mux := newTestHandler(t, capture.Config{})

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantIDs  []string
	}{
		{name: "verified by price", target: "/api/listings?verified=yes&sort=price-asc", wantCode: http.StatusOK},
		{name: "search", target: "/api/listings?search=sahiwal", wantCode: http.StatusOK},
		{name: "no match", target: "/api/listings?breed=Yak", wantCode: http.StatusOK, wantIDs: []string{}},
		{name: "malformed bound", target: "/api/listings?minAge=old", wantCode: http.StatusBadRequest},
		{name: "unknown sort", target: "/api/listings?sort=rating-desc", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, "GET", tt.target, nil)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			var got []models.Listing
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			if tt.wantIDs != nil {
				assert.Len(t, got, len(tt.wantIDs))
			}
		})
	}
}

func TestSearchListingsVerifiedSortedByPrice(t *testing.T) {
	_, mux := newTestHandler(t, capture.Config{})

	rec := do(t, mux, "GET", "/api/listings?verified=yes&sort=price-asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotEmpty(t, got)
	for i, l := range got {
		assert.True(t, l.IsVerified, l.ID)
		if i > 0 {
			assert.LessOrEqual(t, got[i-1].Price, l.Price)
		}
	}
}

func TestListingDetail(t *testing.T) {
	_, mux := newTestHandler(t, capture.Config{})

	rec := do(t, mux, "GET", "/api/listings/c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var l models.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	assert.Equal(t, "c1", l.ID)

	assert.Equal(t, http.StatusNotFound, do(t, mux, "GET", "/api/listings/c99", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, mux, "DELETE", "/api/listings/c1", nil).Code)

	rec = do(t, mux, "GET", "/api/listings/facets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var facets catalog.Facets
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &facets))
	assert.NotEmpty(t, facets)
}

func TestCreateListing(t *testing.T) {
	_, mux := newTestHandler(t, capture.Config{})

	draft := map[string]any{
		"seller_id": "u1",
		"breed":     "Cholistani",
		"age":       2,
		"gender":    "Female",
		"weight":    300,
		"price":     150000,
		"location":  "Bahawalpur, PK",
	}
	rec := do(t, mux, "POST", "/api/listings", draft)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var l models.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	assert.Equal(t, "c9", l.ID)
	assert.Equal(t, "u1", l.SellerID)
	assert.False(t, l.IsVerified)
	assert.True(t, l.DateListed.Equal(fixedNow))

	draft["breed"] = ""
	assert.Equal(t, http.StatusBadRequest, do(t, mux, "POST", "/api/listings", draft).Code)

	draft["breed"] = "Cholistani"
	draft["seller_id"] = "nobody"
	assert.Equal(t, http.StatusNotFound, do(t, mux, "POST", "/api/listings", draft).Code)
}

type stubRecording struct {
	ch   chan []byte
	once sync.Once
}

func (r *stubRecording) Chunks() <-chan []byte { return r.ch }
func (r *stubRecording) MIMEType() string      { return "video/webm" }
func (r *stubRecording) Stop() error {
	r.once.Do(func() { close(r.ch) })
	return nil
}

type stubRecorder struct{}

func (stubRecorder) Start(context.Context, capture.Stream) (capture.Recording, error) {
	rec := &stubRecording{ch: make(chan []byte, 2)}
	rec.ch <- []byte("clip-")
	rec.ch <- []byte("bytes")
	return rec, nil
}

func TestCreateListingAttachesRecordedClip(t *testing.T) {
	h, mux := newTestHandler(t, capture.Config{Device: stubDevice{}, Recorder: stubRecorder{}})

	rec := do(t, mux, "POST", "/api/capture/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var snap capture.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	base := "/api/capture/sessions/" + snap.ID

	require.Equal(t, http.StatusAccepted, do(t, mux, "POST", base+"/record/start", nil).Code)
	assert.Equal(t, http.StatusConflict, do(t, mux, "POST", base+"/scan", nil).Code)

	rec = do(t, mux, "POST", base+"/record/stop", nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.NotNil(t, snap.Result)
	handle := snap.Result.Handle

	rec = do(t, mux, "GET", "/media/"+handle, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "clip-bytes", rec.Body.String())

	rec = do(t, mux, "POST", "/api/listings", map[string]any{
		"seller_id":          "u2",
		"capture_session_id": snap.ID,
		"breed":              "Sahiwal",
		"age":                3,
		"gender":             "Female",
		"weight":             420,
		"price":              300000,
		"location":           "Sindh, PK",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var l models.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &l))
	assert.Equal(t, []string{"/media/" + handle}, l.Videos)

	_, ok := h.sessionStore.Get(snap.ID)
	assert.False(t, ok, "session should be closed once its media is attached")
	_, ok = h.media.Get(handle)
	assert.True(t, ok, "attached media must stay playable")
}

func TestSellerProfileAndReviews(t *testing.T) {
	_, mux := newTestHandler(t, capture.Config{})

	rec := do(t, mux, "GET", "/api/sellers/u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p profile.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Ali Farms", p.Seller.Name)
	reviews := len(p.Reviews)

	tests := []struct {
		name     string
		seller   string
		body     map[string]any
		wantCode int
	}{
		{name: "valid", seller: "u1", body: map[string]any{"reviewer_name": "Omar", "rating": 4, "comment": "Fine"}, wantCode: http.StatusCreated},
		{name: "missing rating", seller: "u1", body: map[string]any{"comment": "?"}, wantCode: http.StatusBadRequest},
		{name: "fractional rating", seller: "u1", body: map[string]any{"rating": 3.5}, wantCode: http.StatusBadRequest},
		{name: "out of range", seller: "u1", body: map[string]any{"rating": 6}, wantCode: http.StatusBadRequest},
		{name: "unknown seller", seller: "u99", body: map[string]any{"rating": 5}, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, mux, "POST", "/api/sellers/"+tt.seller+"/reviews", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	rec = do(t, mux, "GET", "/api/sellers/u1", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Len(t, p.Reviews, reviews+1)

	assert.Equal(t, http.StatusNotFound, do(t, mux, "GET", "/api/sellers/u99", nil).Code)
}

func TestDashboard(t *testing.T) {
	_, mux := newTestHandler(t, capture.Config{})

	tests := []struct {
		target   string
		wantCode int
		wantKind string
	}{
		{target: "/api/dashboard?user=u1", wantCode: http.StatusOK, wantKind: "farmer"},
		{target: "/api/dashboard?user=u1&tab=listings", wantCode: http.StatusOK, wantKind: "farmer"},
		{target: "/api/dashboard?user=u1&tab=profile", wantCode: http.StatusOK, wantKind: "profile"},
		{target: "/api/dashboard?user=u8", wantCode: http.StatusOK, wantKind: "buyer"},
		{target: "/api/dashboard?user=u8&tab=listings", wantCode: http.StatusForbidden},
		{target: "/api/dashboard?user=u7", wantCode: http.StatusOK, wantKind: "vet"},
		{target: "/api/dashboard?user=u3", wantCode: http.StatusOK, wantKind: "trader"},
		{target: "/api/dashboard?user=u99", wantCode: http.StatusNotFound},
		{target: "/api/dashboard", wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, mux, "GET", tt.target, nil)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantKind == "" {
				return
			}
			var got struct {
				Kind          string `json:"kind"`
				CanAddListing bool   `json:"can_add_listing"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantKind, got.Kind)
		})
	}
}

func TestMarketTrends(t *testing.T) {
	_, mux := newTestHandler(t, capture.Config{})

	rec := do(t, mux, "GET", "/api/market/trends", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.ChartData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got)
}

func TestCaptureSessionScan(t *testing.T) {
	h, mux := newTestHandler(t, capture.Config{
		Device:    stubDevice{},
		ScanDelay: time.Millisecond,
		NewTagID:  func() string { return "AB12CD34" },
	})

	rec := do(t, mux, "POST", "/api/capture/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var snap capture.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))

	rec = do(t, mux, "POST", "/api/capture/sessions/"+snap.ID+"/scan", nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	session, _ := h.sessionStore.Get(snap.ID)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, session.Wait(ctx))

	rec = do(t, mux, "GET", "/api/capture/sessions/"+snap.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, capture.ModeIdle, snap.Mode)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "AB12CD34", snap.Result.TagID)

	rec = do(t, mux, "GET", "/api/capture/sessions", nil)
	var all []capture.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)
}

func TestCaptureSessionErrors(t *testing.T) {
	_, mux := newTestHandler(t, capture.Config{})

	rec := do(t, mux, "POST", "/api/capture/sessions", nil)
	var snap capture.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	base := "/api/capture/sessions/" + snap.ID

	assert.Equal(t, http.StatusNotImplemented, do(t, mux, "POST", base+"/scan", nil).Code)
	assert.Equal(t, http.StatusConflict, do(t, mux, "POST", base+"/record/stop", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, "POST", base+"/dance", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, mux, "GET", base+"/scan", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, "GET", "/api/capture/sessions/missing", nil).Code)

	assert.Equal(t, http.StatusNoContent, do(t, mux, "DELETE", base, nil).Code)
	assert.Equal(t, http.StatusNoContent, do(t, mux, "DELETE", base, nil).Code, "close is idempotent")
	assert.Equal(t, http.StatusNotFound, do(t, mux, "GET", base, nil).Code)
}

func TestCredential(t *testing.T) {
	h, mux := newTestHandler(t, capture.Config{})

	var got credentialResponse
	rec := do(t, mux, "GET", "/api/credential", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Configured)

	assert.Equal(t, http.StatusBadRequest, do(t, mux, "PUT", "/api/credential", map[string]string{"api_key": "  "}).Code)

	rec = do(t, mux, "PUT", "/api/credential", map[string]string{"api_key": "AIza-test"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "AIza-test")
	assert.Equal(t, "AIza-test", h.credentials.Credential())

	assert.Equal(t, http.StatusNoContent, do(t, mux, "DELETE", "/api/credential", nil).Code)
	assert.False(t, h.credentials.HasCredential(context.Background()))
}

func TestMedia(t *testing.T) {
	h, mux := newTestHandler(t, capture.Config{})

	handle, err := h.media.Put("video/mp4", []byte("mp4-bytes"))
	require.NoError(t, err)

	rec := do(t, mux, "GET", "/media/"+handle, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))
	assert.Equal(t, "mp4-bytes", rec.Body.String())

	h.media.Revoke(handle)
	assert.Equal(t, http.StatusNotFound, do(t, mux, "GET", "/media/"+handle, nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, mux, "GET", "/media/a/b", nil).Code)
}

func TestHealthcheck(t *testing.T) {
	_, mux := newTestHandler(t, capture.Config{})
	rec := do(t, mux, "GET", "/healthcheck", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

// recordClip opens a session and records one clip through the API
func recordClip(t *testing.T, mux http.Handler) (sessionID, handle string) {
	t.Helper()
	rec := do(t, mux, "POST", "/api/capture/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var snap capture.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	base := "/api/capture/sessions/" + snap.ID

	require.Equal(t, http.StatusAccepted, do(t, mux, "POST", base+"/record/start", nil).Code)
	rec = do(t, mux, "POST", base+"/record/stop", nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.NotNil(t, snap.Result)
	return snap.ID, snap.Result.Handle
}

func TestDeletingSessionRevokesUnclaimedClip(t *testing.T) {
	h, mux := newTestHandler(t, capture.Config{Device: stubDevice{}, Recorder: stubRecorder{}})

	id, handle := recordClip(t, mux)
	require.Equal(t, http.StatusOK, do(t, mux, "GET", "/media/"+handle, nil).Code)

	require.Equal(t, http.StatusNoContent, do(t, mux, "DELETE", "/api/capture/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, mux, "GET", "/media/"+handle, nil).Code)
	assert.Zero(t, h.media.Len())
}

func TestCreateListingFailureRevokesClaimedClip(t *testing.T) {
	h, mux := newTestHandler(t, capture.Config{Device: stubDevice{}, Recorder: stubRecorder{}})
	h.addListing = func(string, models.ListingDraft, time.Time) (models.Listing, error) {
		return models.Listing{}, errors.New("catalog unavailable")
	}

	id, handle := recordClip(t, mux)
	rec := do(t, mux, "POST", "/api/listings", map[string]any{
		"seller_id":          "u2",
		"capture_session_id": id,
		"breed":              "Sahiwal",
		"age":                3,
		"gender":             "Female",
		"weight":             420,
		"price":              300000,
		"location":           "Sindh, PK",
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	_, ok := h.media.Get(handle)
	assert.False(t, ok, "claimed clip must not outlive a failed listing")
	assert.Zero(t, h.media.Len())
}

func TestGenerateWithoutKeyFlagsInvalidCredential(t *testing.T) {
	var connects int
	h, mux := newTestHandler(t, capture.Config{
		Generators: func(context.Context, string) (capture.VideoGenerator, error) {
			connects++
			return nil, errors.New("unexpected connect")
		},
	})

	rec := do(t, mux, "POST", "/api/capture/sessions", nil)
	var snap capture.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	base := "/api/capture/sessions/" + snap.ID

	rec = do(t, mux, "POST", base+"/generate", models.ListingDraft{Breed: "Sahiwal", Age: 3, Gender: models.GenderMale, Weight: 450, Location: "Punjab, PK"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	session, ok := h.sessionStore.Get(snap.ID)
	require.True(t, ok)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.ErrorIs(t, session.Wait(ctx), capture.ErrInvalidCredential)

	rec = do(t, mux, "GET", base, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.True(t, snap.InvalidCredential)
	assert.Equal(t, capture.ModeIdle, snap.Mode)
	assert.Contains(t, snap.Error, "API key is invalid")
	assert.Zero(t, connects)
}
