package httpx

import (
	"net/http"
	"strconv"
)

// queryInt reads an integer query parameter, returning def when absent or
// malformed. Negative values fall back to def as well.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// listParams extracts limit/offset with the shared defaults and cap.
func listParams(r *http.Request) (limit, offset int) {
	limit = queryInt(r, "limit", defaultListLimit)
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset = queryInt(r, "offset", 0)
	return limit, offset
}
