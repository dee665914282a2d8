package shared

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ValidID reports whether raw is a UUID.
func ValidID(raw string) bool {
	_, err := uuid.Parse(strings.TrimSpace(raw))
	return err == nil
}

// QueryInt returns the named query parameter or fallback when absent or malformed.
func QueryInt(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
