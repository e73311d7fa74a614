package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Elhussin/opticsSass/internal/api/request"
	"github.com/Elhussin/opticsSass/internal/model"
)

// ErrStoreNotFound is returned when no registration exists for a store id.
var ErrStoreNotFound = errors.New("store not found")

const storeColumns = `store_id, kind, database_name, schema_name, state, last_error, created_at, updated_at`

// StoreCatalogService manages store registrations in the shared store.
type StoreCatalogService struct {
	db DB
}

func NewStoreCatalogService(db DB) *StoreCatalogService {
	return &StoreCatalogService{db: db}
}

// Register records a new store. Registration happens mid-provisioning,
// so the row starts out in provisioning rather than pending.
func (s *StoreCatalogService) Register(ctx context.Context, r *model.StoreRegistration) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO store_registrations (store_id, kind, database_name, schema_name, state, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())`,
		r.StoreID, r.Kind, r.DatabaseName, r.SchemaName, model.StoreProvisioning,
	)
	if err != nil {
		return fmt.Errorf("register store %s: %w", r.StoreID, err)
	}
	r.State = model.StoreProvisioning
	return nil
}

func (s *StoreCatalogService) Get(ctx context.Context, storeID string) (*model.StoreRegistration, error) {
	var r model.StoreRegistration
	err := s.db.QueryRow(ctx,
		`SELECT `+storeColumns+` FROM store_registrations WHERE store_id = $1`, storeID,
	).Scan(&r.StoreID, &r.Kind, &r.DatabaseName, &r.SchemaName, &r.State, &r.LastError, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get store %s: %w", storeID, err)
	}
	return &r, nil
}

func (s *StoreCatalogService) List(ctx context.Context, params request.ListParams) ([]model.StoreRegistration, bool, error) {
	query := `SELECT ` + storeColumns + ` FROM store_registrations WHERE 1=1`
	args := []any{}
	argIdx := 1

	if params.Status != "" {
		query += fmt.Sprintf(` AND state = $%d`, argIdx)
		args = append(args, params.Status)
		argIdx++
	}
	if params.Cursor != "" {
		query += fmt.Sprintf(` AND store_id > $%d`, argIdx)
		args = append(args, params.Cursor)
		argIdx++
	}

	query += ` ORDER BY store_id`
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, params.Limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list stores: %w", err)
	}
	defer rows.Close()

	var stores []model.StoreRegistration
	for rows.Next() {
		var r model.StoreRegistration
		if err := rows.Scan(&r.StoreID, &r.Kind, &r.DatabaseName, &r.SchemaName, &r.State, &r.LastError, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate stores: %w", err)
	}

	hasMore := len(stores) > params.Limit
	if hasMore {
		stores = stores[:params.Limit]
	}
	return stores, hasMore, nil
}

func (s *StoreCatalogService) SetState(ctx context.Context, storeID, state string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE store_registrations SET state = $1, last_error = NULL, updated_at = now() WHERE store_id = $2`,
		state, storeID,
	)
	if err != nil {
		return fmt.Errorf("set store %s state to %s: %w", storeID, state, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStoreNotFound
	}
	return nil
}

func (s *StoreCatalogService) MarkReady(ctx context.Context, storeID string) error {
	return s.SetState(ctx, storeID, model.StoreReady)
}

func (s *StoreCatalogService) MarkFailed(ctx context.Context, storeID, message string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE store_registrations SET state = $1, last_error = $2, updated_at = now() WHERE store_id = $3`,
		model.StoreFailed, message, storeID,
	)
	if err != nil {
		return fmt.Errorf("mark store %s failed: %w", storeID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStoreNotFound
	}
	return nil
}

// RetryFailed moves a failed registration back to pending. Only failed
// registrations are eligible; all other states are left untouched.
func (s *StoreCatalogService) RetryFailed(ctx context.Context, storeID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE store_registrations SET state = $1, last_error = NULL, updated_at = now()
		 WHERE store_id = $2 AND state = $3`,
		model.StorePending, storeID, model.StoreFailed,
	)
	if err != nil {
		return fmt.Errorf("retry store %s: %w", storeID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store %s not found or not failed", storeID)
	}
	return nil
}
