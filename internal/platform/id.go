package platform

import (
	"crypto/rand"
	"strings"

	"github.com/google/uuid"
)

const shortIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
const shortIDLength = 10

func NewID() string {
	return uuid.New().String()
}

func NewName(prefix string) string {
	b := make([]byte, shortIDLength)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	for i := range b {
		b[i] = shortIDAlphabet[b[i]%byte(len(shortIDAlphabet))]
	}
	return prefix + string(b)
}

// NewStoreID returns a fresh store registration id for a tenant.
// Example: acme-store-k2x9q41mzp
func NewStoreID(subdomain string) string {
	return NewName(subdomain + "-store-")
}

// StoreDatabaseName derives the physical database name for a tenant store.
// Hyphens are folded to underscores so the name never needs quoting.
func StoreDatabaseName(subdomain string) string {
	return strings.ReplaceAll(subdomain, "-", "_") + "_db"
}
