package httpx

import (
	"errors"
	"net/http"

	"github.com/procurehub/ui-api/internal/domain/model"
	"github.com/procurehub/ui-api/internal/service"
)

// RFQHandlers provides HTTP handlers for request-for-quote operations.
type RFQHandlers struct {
	Svc *service.RFQService
}

// requireSessionAndID pulls the session and the {id} path value, writing the
// error response when either is missing.
func requireSessionAndID(w http.ResponseWriter, r *http.Request) (string, bool) {
	if GetSessionFromContext(r.Context()) == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return "", false
	}
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_id",
			Err:     errors.New("resource ID is required"),
		})
		return "", false
	}
	return id, true
}

// Create posts a new RFQ for the calling client.
// POST /api/rfqs.
func (h *RFQHandlers) Create(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	var req model.CreateRFQRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	rfq, err := h.Svc.Create(r.Context(), *sess, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, rfq)
}

// List returns RFQs scoped by the caller's role.
// GET /api/rfqs?status=&category=&limit=&offset=.
func (h *RFQHandlers) List(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	limit, offset := listParams(r)
	opts := model.RFQListOptions{Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := model.ParseRFQStatus(raw)
		if !ok {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_status",
				Err:     errors.New("unknown RFQ status"),
			})
			return
		}
		opts.Status = &status
	}
	if category := r.URL.Query().Get("category"); category != "" {
		opts.Category = &category
	}

	rfqs, err := h.Svc.List(r.Context(), *sess, opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"rfqs": rfqs})
}

// GetByID returns one RFQ.
// GET /api/rfqs/{id}.
func (h *RFQHandlers) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSessionAndID(w, r)
	if !ok {
		return
	}
	sess := GetSessionFromContext(r.Context())

	rfq, err := h.Svc.Get(r.Context(), *sess, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rfq)
}

// Close settles an open RFQ without a winner.
// POST /api/rfqs/{id}/close.
func (h *RFQHandlers) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSessionAndID(w, r)
	if !ok {
		return
	}
	sess := GetSessionFromContext(r.Context())

	rfq, err := h.Svc.Close(r.Context(), *sess, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rfq)
}

// awardRequest is the body of an award call.
type awardRequest struct {
	BidID string `json:"bid_id"`
}

// Award picks the winning bid on an RFQ.
// POST /api/rfqs/{id}/award.
func (h *RFQHandlers) Award(w http.ResponseWriter, r *http.Request) {
	id, ok := requireSessionAndID(w, r)
	if !ok {
		return
	}
	sess := GetSessionFromContext(r.Context())

	var req awardRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.BidID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_bid_id",
			Err:     errors.New("bid_id is required"),
		})
		return
	}

	rfq, err := h.Svc.Award(r.Context(), *sess, id, req.BidID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rfq)
}

// StatusCounts summarizes RFQ volume for the admin dashboard.
// GET /api/admin/rfqs/status-counts.
func (h *RFQHandlers) StatusCounts(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	counts, err := h.Svc.StatusCounts(r.Context(), *sess)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, counts)
}
