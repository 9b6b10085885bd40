package httpx

import (
	"net/http"

	"github.com/procurehub/ui-api/internal/domain/access"
)

// Root lands the visitor: settled sessions arriving at "/" are sent to their
// destination with a 303 so the entry URL is never re-posted into history;
// everyone else gets the resolved state to boot the SPA from.
// GET /.
func (h *AccessHandlers) Root(w http.ResponseWriter, r *http.Request) {
	// ServeMux routes every unmatched path to "/"; only handle the root itself.
	if r.URL.Path != access.RouteRoot {
		http.NotFound(w, r)
		return
	}

	state := h.resolveState(r)
	if dest, ok := h.redirectPolicy().Destination(r.Context(), state, access.RouteRoot); ok {
		http.Redirect(w, r, dest, http.StatusSeeOther)
		return
	}

	WriteJSON(w, http.StatusOK, stateResponse{State: state})
}
