package httpx

import (
	"errors"
	"net/http"

	"github.com/procurehub/ui-api/internal/domain/model"
	"github.com/procurehub/ui-api/internal/service"
)

// BidHandlers provides HTTP handlers for vendor bids.
type BidHandlers struct {
	Svc *service.BidService
}

// Place submits a bid on an open RFQ.
// POST /api/rfqs/{id}/bids.
func (h *BidHandlers) Place(w http.ResponseWriter, r *http.Request) {
	rfqID, ok := requireSessionAndID(w, r)
	if !ok {
		return
	}
	sess := GetSessionFromContext(r.Context())

	var req model.PlaceBidRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	bid, err := h.Svc.Place(r.Context(), *sess, rfqID, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, bid)
}

// ListForRFQ returns the bids on one RFQ, scoped by role.
// GET /api/rfqs/{id}/bids?status=&limit=&offset=.
func (h *BidHandlers) ListForRFQ(w http.ResponseWriter, r *http.Request) {
	rfqID, ok := requireSessionAndID(w, r)
	if !ok {
		return
	}
	sess := GetSessionFromContext(r.Context())

	opts, ok := bidListOptions(w, r)
	if !ok {
		return
	}

	bids, err := h.Svc.ListForRFQ(r.Context(), *sess, rfqID, opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"bids": bids})
}

// ListMine returns the calling vendor's bid book.
// GET /api/bids/mine?status=&limit=&offset=.
func (h *BidHandlers) ListMine(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	opts, ok := bidListOptions(w, r)
	if !ok {
		return
	}

	bids, err := h.Svc.ListMine(r.Context(), *sess, opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"bids": bids})
}

// Withdraw pulls the caller's live bid.
// POST /api/bids/{id}/withdraw.
func (h *BidHandlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	bidID, ok := requireSessionAndID(w, r)
	if !ok {
		return
	}
	sess := GetSessionFromContext(r.Context())

	bid, err := h.Svc.Withdraw(r.Context(), *sess, bidID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, bid)
}

// bidListOptions parses the shared bid list query parameters.
func bidListOptions(w http.ResponseWriter, r *http.Request) (model.BidListOptions, bool) {
	limit, offset := listParams(r)
	opts := model.BidListOptions{Limit: limit, Offset: offset}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := model.BidStatus(raw)
		if !status.Valid() {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_status",
				Err:     errors.New("unknown bid status"),
			})
			return opts, false
		}
		opts.Status = &status
	}
	return opts, true
}
