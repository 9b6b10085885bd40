package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/procurehub/ui-api/internal/domain/access"
	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
	"github.com/procurehub/ui-api/internal/domain/model"
	"github.com/procurehub/ui-api/internal/service"
)

// VerificationHandlers provides HTTP handlers for the KYC/KYV flow: user
// submissions on one side, the admin review queue on the other.
type VerificationHandlers struct {
	Svc *service.VerificationService
	// Policy, when set, is told to drop its cached verification outcome for
	// a user whose standing just changed.
	Policy *access.RedirectPolicy
}

// Submit records the caller's verification submission.
// POST /api/verification.
func (h *VerificationHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	var req model.SubmitVerificationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	sub, err := h.Svc.Submit(r.Context(), sess.UserID, sess.Role, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if h.Policy != nil {
		h.Policy.Forget(sess.UserID)
	}
	WriteJSON(w, http.StatusCreated, sub)
}

// Mine returns the caller's live submission, or 204 when they have never
// submitted.
// GET /api/verification/me.
func (h *VerificationHandlers) Mine(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	sub, err := h.Svc.GetForUser(r.Context(), sess.UserID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if sub == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

// List returns the admin review queue, filterable by kind and status.
// GET /api/admin/verifications?kind=&status=&limit=&offset=.
func (h *VerificationHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	opts := model.VerificationListOptions{Limit: limit, Offset: offset}

	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind := model.VerificationKind(raw)
		if !kind.Valid() {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_kind",
				Err:     errors.New("kind must be client or vendor"),
			})
			return
		}
		opts.Kind = &kind
	}
	// status accepts a comma-separated list, e.g. ?status=pending,rejected.
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, ok := domainauth.ParseVerificationStatus(strings.TrimSpace(part))
			if !ok {
				WriteError(w, ErrorParams{
					Code:    http.StatusBadRequest,
					ErrCode: "invalid_status",
					Err:     errors.New("unknown verification status"),
				})
				return
			}
			opts.Statuses = append(opts.Statuses, status)
		}
	}
	opts.Search = r.URL.Query().Get("q")

	subs, err := h.Svc.List(r.Context(), opts)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

// Review applies an admin approve/reject decision to a submission.
// POST /api/admin/verifications/{id}/review.
func (h *VerificationHandlers) Review(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_id",
			Err:     errors.New("submission ID is required"),
		})
		return
	}

	var req model.ReviewVerificationRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	sub, err := h.Svc.Review(r.Context(), id, sess.UserID, req)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if h.Policy != nil {
		h.Policy.Forget(sub.UserID)
	}
	WriteJSON(w, http.StatusOK, sub)
}
