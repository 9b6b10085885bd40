package httpx

import (
	"errors"
	"net/http"
	"time"

	"github.com/procurehub/ui-api/internal/domain/model"
	"github.com/procurehub/ui-api/internal/service"
)

// AuditHandlers serves the admin access-event feed.
type AuditHandlers struct {
	Svc *service.AuditService
}

// List returns access events, newest first. The filter parameter is a
// JMESPath expression applied to each event.
// GET /api/admin/access-events?outcome=&since=&until=&filter=&limit=&offset=.
func (h *AuditHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := listParams(r)
	q := model.AccessEventQuery{
		Limit:  limit,
		Offset: offset,
		Filter: r.URL.Query().Get("filter"),
	}

	if raw := r.URL.Query().Get("outcome"); raw != "" {
		outcome := model.AccessOutcome(raw)
		if !outcome.Valid() {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_outcome",
				Err:     errors.New("unknown access outcome"),
			})
			return
		}
		q.Outcome = &outcome
	}
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_since",
				Err:     errors.New("since must be an RFC 3339 timestamp"),
			})
			return
		}
		q.Since = &since
	}
	if raw := r.URL.Query().Get("until"); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_until",
				Err:     errors.New("until must be an RFC 3339 timestamp"),
			})
			return
		}
		q.Until = &until
	}

	events, err := h.Svc.Query(r.Context(), q)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}
