package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// subdomainRegex is the shape of a tenant subdomain: a lowercase
// letter followed by up to 62 lowercase letters, digits, underscores,
// or hyphens. It doubles as the derived store name shape.
var subdomainRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,62}$`)

func init() {
	validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return subdomainRegex.MatchString(fl.Field().String())
	})
}

// Decode parses the request body into v and runs its validation tags.
func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// RequireID rejects an empty path identifier.
func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("identifier is required")
	}
	return s, nil
}
