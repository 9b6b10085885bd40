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

// httpRFQRepo is a minimal in-memory RFQRepository for handler tests.
type httpRFQRepo struct {
	rfqs map[string]*model.RFQ
}

func (r *httpRFQRepo) Create(_ context.Context, clientID string, req *model.CreateRFQRequest) (*model.RFQ, error) {
	rfq := &model.RFQ{
		ID:          "rfq-1",
		ClientID:    clientID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		BudgetCents: req.BudgetCents,
		Status:      model.RFQStatusOpen,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.rfqs[rfq.ID] = rfq
	return rfq, nil
}

func (r *httpRFQRepo) GetByID(_ context.Context, id string) (*model.RFQ, error) {
	if rfq, ok := r.rfqs[id]; ok {
		return rfq, nil
	}
	return nil, data.ErrRFQNotFound
}

func (r *httpRFQRepo) List(_ context.Context, _ model.RFQListOptions) ([]*model.RFQ, error) {
	out := make([]*model.RFQ, 0, len(r.rfqs))
	for _, rfq := range r.rfqs {
		out = append(out, rfq)
	}
	return out, nil
}

func (r *httpRFQRepo) Close(_ context.Context, id string) (*model.RFQ, error) {
	rfq := r.rfqs[id]
	rfq.Status = model.RFQStatusClosed
	return rfq, nil
}

func (r *httpRFQRepo) Award(_ context.Context, rfqID, bidID string) (*model.RFQ, error) {
	rfq := r.rfqs[rfqID]
	rfq.Status = model.RFQStatusAwarded
	rfq.AwardedBidID = &bidID
	return rfq, nil
}

func (r *httpRFQRepo) StatusCounts(_ context.Context) (*model.RFQStatusCounts, error) {
	return &model.RFQStatusCounts{Open: 2, Closed: 1}, nil
}

// newRFQHandlers builds handlers over a real service with an approved client
// profile for "client-1".
func newRFQHandlers(t *testing.T) (*RFQHandlers, *httpRFQRepo) {
	t.Helper()
	profiles := mocksauth.NewMemoryProfileStore()
	_, err := profiles.Upsert(context.Background(), domainauth.Profile{
		UserID: "client-1", Email: "client@example.com", Role: domainauth.RoleClient,
	})
	require.NoError(t, err)
	require.NoError(t, profiles.SetVerificationStatus(context.Background(), "client-1", domainauth.VerificationApproved))

	repo := &httpRFQRepo{rfqs: make(map[string]*model.RFQ)}
	svc := service.NewRFQService(service.RFQServiceOptions{Repo: repo, Profiles: profiles})
	return &RFQHandlers{Svc: svc}, repo
}

func clientRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	sess := &domainauth.Session{
		ID: "sess-1", UserID: "client-1", Role: domainauth.RoleClient,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return req.WithContext(SetSessionInContext(req.Context(), sess))
}

func TestRFQHandlers_Create(t *testing.T) {
	h, repo := newRFQHandlers(t)

	req := clientRequest(http.MethodPost, "/api/rfqs",
		`{"title":"CNC milling","description":"500 brackets","category":"manufacturing"}`)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"open"`)
	assert.Len(t, repo.rfqs, 1)
}

func TestRFQHandlers_Create_RequiresSession(t *testing.T) {
	h, _ := newRFQHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/rfqs", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRFQHandlers_Create_ValidationMapsTo400(t *testing.T) {
	h, _ := newRFQHandlers(t)

	req := clientRequest(http.MethodPost, "/api/rfqs", `{"title":"","description":"x","category":"y"}`)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation")
}

func TestRFQHandlers_Create_UnknownFieldRejected(t *testing.T) {
	h, _ := newRFQHandlers(t)

	req := clientRequest(http.MethodPost, "/api/rfqs", `{"title":"x","bogus":true}`)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRFQHandlers_List_InvalidStatus(t *testing.T) {
	h, _ := newRFQHandlers(t)

	req := clientRequest(http.MethodGet, "/api/rfqs?status=bogus", "")
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_status")
}

func TestRFQHandlers_List(t *testing.T) {
	h, repo := newRFQHandlers(t)
	repo.rfqs["rfq-1"] = &model.RFQ{ID: "rfq-1", ClientID: "client-1", Status: model.RFQStatusOpen}

	req := clientRequest(http.MethodGet, "/api/rfqs?status=open", "")
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rfqs"`)
	assert.Contains(t, rec.Body.String(), `"rfq-1"`)
}

func TestRFQHandlers_GetByID_NotFoundMapsTo404(t *testing.T) {
	h, _ := newRFQHandlers(t)

	req := clientRequest(http.MethodGet, "/api/rfqs/missing", "")
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()

	h.GetByID(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRFQHandlers_Award_MissingBidID(t *testing.T) {
	h, repo := newRFQHandlers(t)
	repo.rfqs["rfq-1"] = &model.RFQ{ID: "rfq-1", ClientID: "client-1", Status: model.RFQStatusOpen}

	req := clientRequest(http.MethodPost, "/api/rfqs/rfq-1/award", `{}`)
	req.SetPathValue("id", "rfq-1")
	rec := httptest.NewRecorder()

	h.Award(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_bid_id")
}

func TestRFQHandlers_Close(t *testing.T) {
	h, repo := newRFQHandlers(t)
	repo.rfqs["rfq-1"] = &model.RFQ{ID: "rfq-1", ClientID: "client-1", Status: model.RFQStatusOpen}

	req := clientRequest(http.MethodPost, "/api/rfqs/rfq-1/close", "")
	req.SetPathValue("id", "rfq-1")
	rec := httptest.NewRecorder()

	h.Close(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"closed"`)
}
