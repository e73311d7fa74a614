package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Elhussin/opticsSass/internal/api/request"
	"github.com/Elhussin/opticsSass/internal/model"
)

// ErrTenantNotFound is returned when no tenant exists for the given key.
var ErrTenantNotFound = errors.New("tenant not found")

const tenantColumns = `id, name, subdomain, store_id, plan, max_users, max_products, max_storage_mb,
	features, subscription_status, trial_ends_at, subscription_ends_at, active, created_at, updated_at`

type TenantService struct {
	db DB
}

func NewTenantService(db DB) *TenantService {
	return &TenantService{db: db}
}

// Insert writes the tenant row. The reservation flow already owns the
// subdomain, so a conflicting row can only be a replay of the same
// publish and is left untouched.
func (s *TenantService) Insert(ctx context.Context, t *model.Tenant) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO tenants (id, name, subdomain, store_id, plan, max_users, max_products, max_storage_mb,
		 features, subscription_status, trial_ends_at, subscription_ends_at, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		 ON CONFLICT (subdomain) DO NOTHING`,
		t.ID, t.Name, t.Subdomain, t.StoreID, t.Plan,
		t.Limits.MaxUsers, t.Limits.MaxProducts, t.Limits.MaxStorageMB,
		t.Features, t.SubscriptionStatus, t.TrialEndsAt, t.SubscriptionEndsAt, t.Active,
	)
	if err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (s *TenantService) GetByID(ctx context.Context, id string) (*model.Tenant, error) {
	return s.get(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
}

func (s *TenantService) GetBySubdomain(ctx context.Context, subdomain string) (*model.Tenant, error) {
	return s.get(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE subdomain = $1`, subdomain)
}

func (s *TenantService) GetByStoreID(ctx context.Context, storeID string) (*model.Tenant, error) {
	return s.get(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE store_id = $1`, storeID)
}

func (s *TenantService) get(ctx context.Context, query string, arg any) (*model.Tenant, error) {
	var t model.Tenant
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&t.ID, &t.Name, &t.Subdomain, &t.StoreID, &t.Plan,
		&t.Limits.MaxUsers, &t.Limits.MaxProducts, &t.Limits.MaxStorageMB,
		&t.Features, &t.SubscriptionStatus, &t.TrialEndsAt, &t.SubscriptionEndsAt,
		&t.Active, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}

func (s *TenantService) List(ctx context.Context, params request.ListParams) ([]model.Tenant, bool, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE 1=1`
	args := []any{}
	argIdx := 1

	if params.Search != "" {
		query += fmt.Sprintf(` AND (subdomain ILIKE $%d OR name ILIKE $%d)`, argIdx, argIdx)
		args = append(args, "%"+params.Search+"%")
		argIdx++
	}
	if params.Status != "" {
		query += fmt.Sprintf(` AND subscription_status = $%d`, argIdx)
		args = append(args, params.Status)
		argIdx++
	}
	if params.Cursor != "" {
		query += fmt.Sprintf(` AND id > $%d`, argIdx)
		args = append(args, params.Cursor)
		argIdx++
	}

	sortCol := "created_at"
	switch params.Sort {
	case "subdomain":
		sortCol = "subdomain"
	case "plan":
		sortCol = "plan"
	case "created_at":
		sortCol = "created_at"
	}
	order := "DESC"
	if params.Order == "asc" {
		order = "ASC"
	}
	query += fmt.Sprintf(` ORDER BY %s %s`, sortCol, order)
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, params.Limit+1)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []model.Tenant
	for rows.Next() {
		var t model.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Subdomain, &t.StoreID, &t.Plan,
			&t.Limits.MaxUsers, &t.Limits.MaxProducts, &t.Limits.MaxStorageMB,
			&t.Features, &t.SubscriptionStatus, &t.TrialEndsAt, &t.SubscriptionEndsAt,
			&t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, false, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate tenants: %w", err)
	}

	hasMore := len(tenants) > params.Limit
	if hasMore {
		tenants = tenants[:params.Limit]
	}
	return tenants, hasMore, nil
}

// UpdateSubscription changes a tenant's plan and subscription window. A
// plan change resets limits and feature flags to the new plan's defaults.
func (s *TenantService) UpdateSubscription(ctx context.Context, id string, params request.UpdateSubscription) (*model.Tenant, error) {
	tenant, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Plan != "" && params.Plan != tenant.Plan {
		tenant.Plan = params.Plan
		tenant.Limits, tenant.Features = model.PlanDefaults(params.Plan)
	}
	if params.Status != "" {
		tenant.SubscriptionStatus = params.Status
	}
	if params.SubscriptionEndsAt != nil {
		tenant.SubscriptionEndsAt = params.SubscriptionEndsAt
	}

	_, err = s.db.Exec(ctx,
		`UPDATE tenants SET plan = $1, max_users = $2, max_products = $3, max_storage_mb = $4,
		 features = $5, subscription_status = $6, subscription_ends_at = $7, updated_at = now()
		 WHERE id = $8`,
		tenant.Plan, tenant.Limits.MaxUsers, tenant.Limits.MaxProducts, tenant.Limits.MaxStorageMB,
		tenant.Features, tenant.SubscriptionStatus, tenant.SubscriptionEndsAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update tenant %s subscription: %w", id, err)
	}
	return tenant, nil
}

func (s *TenantService) Suspend(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE tenants SET subscription_status = $1, updated_at = now() WHERE id = $2",
		model.SubscriptionSuspended, id,
	)
	if err != nil {
		return fmt.Errorf("suspend tenant %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (s *TenantService) Unsuspend(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx,
		"UPDATE tenants SET subscription_status = $1, updated_at = now() WHERE id = $2 AND subscription_status = $3",
		model.SubscriptionActive, id, model.SubscriptionSuspended,
	)
	if err != nil {
		return fmt.Errorf("unsuspend tenant %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tenant %s not found or not suspended", id)
	}
	return nil
}
