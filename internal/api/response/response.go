// Package response writes the JSON bodies both API surfaces share.
package response

import (
	"encoding/json"
	"net/http"
)

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes the uniform error envelope. Tenant rejection
// reasons never travel through here, only the generic message.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// Page wraps a list of tenants, stores, or keys with cursor metadata
// for the admin list endpoints.
type Page struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// WritePaginated writes one page of a cursor-paginated listing.
func WritePaginated(w http.ResponseWriter, status int, items any, nextCursor string, hasMore bool) {
	WriteJSON(w, status, Page{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	})
}
