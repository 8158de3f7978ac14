package apiutil

import (
	"net/http"
	"strconv"
	"strings"
)

// PathID parses a positive integer path value.
func PathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	if raw == "" {
		return 0, FieldError{Field: name, Reason: "is required"}
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, FieldError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

// QueryInt parses an optional integer query parameter with a fallback.
func QueryInt(r *http.Request, name string, fallback int64) int64 {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

// Page bounds limit/offset pagination: limit defaults to 20, capped at 100.
func Page(r *http.Request) (limit, offset int64) {
	limit = QueryInt(r, "limit", 20)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset = QueryInt(r, "offset", 0)
	return limit, offset
}
