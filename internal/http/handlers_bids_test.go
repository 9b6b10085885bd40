package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurehub/ui-api/internal/data"
	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
	"github.com/procurehub/ui-api/internal/domain/model"
	mocksauth "github.com/procurehub/ui-api/internal/mocks/auth"
	"github.com/procurehub/ui-api/internal/service"
)

// httpBidRepo is a minimal in-memory BidRepository for handler tests.
type httpBidRepo struct {
	bids map[string]*model.Bid
}

func (r *httpBidRepo) Place(_ context.Context, rfqID, vendorID string, req *model.PlaceBidRequest) (*model.Bid, error) {
	for _, b := range r.bids {
		if b.RFQID == rfqID && b.VendorID == vendorID && b.Status == model.BidStatusSubmitted {
			return nil, data.ErrBidExists
		}
	}
	bid := &model.Bid{
		ID:          "bid-1",
		RFQID:       rfqID,
		VendorID:    vendorID,
		AmountCents: req.AmountCents,
		LeadDays:    req.LeadDays,
		Note:        req.Note,
		Status:      model.BidStatusSubmitted,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.bids[bid.ID] = bid
	return bid, nil
}

func (r *httpBidRepo) GetByID(_ context.Context, id string) (*model.Bid, error) {
	if bid, ok := r.bids[id]; ok {
		return bid, nil
	}
	return nil, data.ErrBidNotFound
}

func (r *httpBidRepo) List(_ context.Context, opts model.BidListOptions) ([]*model.Bid, error) {
	out := make([]*model.Bid, 0, len(r.bids))
	for _, bid := range r.bids {
		if opts.RFQID != nil && bid.RFQID != *opts.RFQID {
			continue
		}
		if opts.VendorID != nil && bid.VendorID != *opts.VendorID {
			continue
		}
		out = append(out, bid)
	}
	return out, nil
}

func (r *httpBidRepo) Withdraw(_ context.Context, id, vendorID string) (*model.Bid, error) {
	bid, ok := r.bids[id]
	if !ok || bid.VendorID != vendorID || bid.Status != model.BidStatusSubmitted {
		return nil, data.ErrBidNotFound
	}
	bid.Status = model.BidStatusWithdrawn
	return bid, nil
}

// newBidHandlers builds handlers over a real service with an approved vendor
// profile for "vendor-1" and one open RFQ "rfq-1".
func newBidHandlers(t *testing.T) (*BidHandlers, *httpBidRepo) {
	t.Helper()
	profiles := mocksauth.NewMemoryProfileStore()
	_, err := profiles.Upsert(context.Background(), domainauth.Profile{
		UserID: "vendor-1", Email: "vendor@example.com", Role: domainauth.RoleVendor,
	})
	require.NoError(t, err)
	require.NoError(t, profiles.SetVerificationStatus(context.Background(), "vendor-1", domainauth.VerificationApproved))

	rfqs := &httpRFQRepo{rfqs: map[string]*model.RFQ{
		"rfq-1": {ID: "rfq-1", ClientID: "client-1", Status: model.RFQStatusOpen},
	}}
	repo := &httpBidRepo{bids: make(map[string]*model.Bid)}
	svc := service.NewBidService(service.BidServiceOptions{Repo: repo, RFQs: rfqs, Profiles: profiles})
	return &BidHandlers{Svc: svc}, repo
}

func vendorRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	sess := &domainauth.Session{
		ID: "sess-2", UserID: "vendor-1", Role: domainauth.RoleVendor,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return req.WithContext(SetSessionInContext(req.Context(), sess))
}

func TestBidHandlers_Place(t *testing.T) {
	h, repo := newBidHandlers(t)

	req := vendorRequest(http.MethodPost, "/api/rfqs/rfq-1/bids",
		`{"amount_cents":238000,"lead_days":21}`)
	req.SetPathValue("id", "rfq-1")
	rec := httptest.NewRecorder()

	h.Place(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"submitted"`)
	assert.Len(t, repo.bids, 1)
}

func TestBidHandlers_Place_RequiresSession(t *testing.T) {
	h, _ := newBidHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rfqs/rfq-1/bids", strings.NewReader(`{}`))
	req.SetPathValue("id", "rfq-1")
	rec := httptest.NewRecorder()

	h.Place(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBidHandlers_Place_ClientForbidden(t *testing.T) {
	h, _ := newBidHandlers(t)

	req := clientRequest(http.MethodPost, "/api/rfqs/rfq-1/bids",
		`{"amount_cents":1000,"lead_days":5}`)
	req.SetPathValue("id", "rfq-1")
	rec := httptest.NewRecorder()

	h.Place(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBidHandlers_Place_DuplicateMapsTo409(t *testing.T) {
	h, _ := newBidHandlers(t)

	place := func() *httptest.ResponseRecorder {
		req := vendorRequest(http.MethodPost, "/api/rfqs/rfq-1/bids",
			`{"amount_cents":238000,"lead_days":21}`)
		req.SetPathValue("id", "rfq-1")
		rec := httptest.NewRecorder()
		h.Place(rec, req)
		return rec
	}

	require.Equal(t, http.StatusCreated, place().Code)
	assert.Equal(t, http.StatusConflict, place().Code)
}

func TestBidHandlers_Place_ValidationMapsTo400(t *testing.T) {
	h, _ := newBidHandlers(t)

	req := vendorRequest(http.MethodPost, "/api/rfqs/rfq-1/bids",
		`{"amount_cents":0,"lead_days":21}`)
	req.SetPathValue("id", "rfq-1")
	rec := httptest.NewRecorder()

	h.Place(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBidHandlers_ListForRFQ_InvalidStatus(t *testing.T) {
	h, _ := newBidHandlers(t)

	req := vendorRequest(http.MethodGet, "/api/rfqs/rfq-1/bids?status=bogus", "")
	req.SetPathValue("id", "rfq-1")
	rec := httptest.NewRecorder()

	h.ListForRFQ(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_status")
}

func TestBidHandlers_ListMine(t *testing.T) {
	h, repo := newBidHandlers(t)
	repo.bids["bid-1"] = &model.Bid{
		ID: "bid-1", RFQID: "rfq-1", VendorID: "vendor-1", Status: model.BidStatusSubmitted,
	}

	req := vendorRequest(http.MethodGet, "/api/bids/mine", "")
	rec := httptest.NewRecorder()

	h.ListMine(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"bids"`)
	assert.Contains(t, rec.Body.String(), `"bid-1"`)
}

func TestBidHandlers_ListMine_ClientForbidden(t *testing.T) {
	h, _ := newBidHandlers(t)

	req := clientRequest(http.MethodGet, "/api/bids/mine", "")
	rec := httptest.NewRecorder()

	h.ListMine(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBidHandlers_Withdraw(t *testing.T) {
	h, repo := newBidHandlers(t)
	repo.bids["bid-1"] = &model.Bid{
		ID: "bid-1", RFQID: "rfq-1", VendorID: "vendor-1", Status: model.BidStatusSubmitted,
	}

	req := vendorRequest(http.MethodPost, "/api/bids/bid-1/withdraw", "")
	req.SetPathValue("id", "bid-1")
	rec := httptest.NewRecorder()

	h.Withdraw(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"withdrawn"`)
}

func TestBidHandlers_Withdraw_SomeoneElsesBidMapsTo404(t *testing.T) {
	h, repo := newBidHandlers(t)
	repo.bids["bid-2"] = &model.Bid{
		ID: "bid-2", RFQID: "rfq-1", VendorID: "vendor-9", Status: model.BidStatusSubmitted,
	}

	req := vendorRequest(http.MethodPost, "/api/bids/bid-2/withdraw", "")
	req.SetPathValue("id", "bid-2")
	rec := httptest.NewRecorder()

	h.Withdraw(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
