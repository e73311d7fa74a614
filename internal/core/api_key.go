package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/Elhussin/opticsSass/internal/model"
	"github.com/Elhussin/opticsSass/internal/platform"
)

// APIKeyService manages administrative API keys in the shared store.
type APIKeyService struct {
	db DB
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(db DB) *APIKeyService {
	return &APIKeyService{db: db}
}

// Create generates a new API key, stores the hash, and returns the model along
// with the raw key string. The raw key must be shown to the user exactly once.
func (s *APIKeyService) Create(ctx context.Context, name string) (*model.APIKey, string, error) {
	// Generate a random 32-byte key.
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return nil, "", fmt.Errorf("generate api key: %w", err)
	}
	rawKey := "opt_" + hex.EncodeToString(rawBytes) // 68 chars total

	return s.createWithKey(ctx, name, rawKey)
}

// CreateWithRawKey stores an API key with a caller-provided raw key value.
// Used for well-known dev/test keys where the raw value must be deterministic.
func (s *APIKeyService) CreateWithRawKey(ctx context.Context, name, rawKey string) (*model.APIKey, error) {
	key, _, err := s.createWithKey(ctx, name, rawKey)
	if err != nil {
		return nil, err
	}
	return key, nil
}

func (s *APIKeyService) createWithKey(ctx context.Context, name, rawKey string) (*model.APIKey, string, error) {
	id := platform.NewID()

	hash := sha256.Sum256([]byte(rawKey))
	keyHash := hex.EncodeToString(hash[:])
	keyPrefix := rawKey[:12] // "opt_" + first 8 hex chars

	_, err := s.db.Exec(ctx,
		`INSERT INTO api_keys (id, name, key_hash, key_prefix, created_at) VALUES ($1, $2, $3, $4, now())`,
		id, name, keyHash, keyPrefix,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert api key: %w", err)
	}

	key := &model.APIKey{
		ID:        id,
		Name:      name,
		KeyPrefix: keyPrefix,
	}
	// Fetch the server-generated created_at.
	err = s.db.QueryRow(ctx, "SELECT created_at FROM api_keys WHERE id = $1", id).Scan(&key.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("get api key created_at: %w", err)
	}

	return key, rawKey, nil
}

// List retrieves API keys with cursor-based pagination.
func (s *APIKeyService) List(ctx context.Context, limit int, cursor string) ([]model.APIKey, bool, error) {
	query := `SELECT id, name, key_prefix, created_at, revoked_at FROM api_keys WHERE 1=1`
	args := []any{}
	argIdx := 1

	if cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, cursor)
		argIdx++
	}

	query += ` ORDER BY created_at DESC`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyPrefix, &k.CreatedAt, &k.RevokedAt); err != nil {
			return nil, false, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate api keys: %w", err)
	}

	hasMore := len(keys) > limit
	if hasMore {
		keys = keys[:limit]
	}
	return keys, hasMore, nil
}

// Revoke soft-deletes an API key by setting revoked_at.
func (s *APIKeyService) Revoke(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE api_keys SET revoked_at = now() WHERE id = $1 AND revoked_at IS NULL", id,
	)
	if err != nil {
		return fmt.Errorf("revoke api key %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("api key %s not found or already revoked", id)
	}
	return nil
}
