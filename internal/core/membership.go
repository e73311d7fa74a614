package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Elhussin/opticsSass/internal/model"
)

type MembershipService struct {
	db DB
}

func NewMembershipService(db DB) *MembershipService {
	return &MembershipService{db: db}
}

// CreateUser is get-or-create by email. On conflict the existing row
// keeps its password hash and u.ID is rewritten to the existing id, so
// a replayed create converges on the same user.
func (s *MembershipService) CreateUser(ctx context.Context, u *model.User) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, now(), now())
		 ON CONFLICT (email) DO UPDATE SET updated_at = now()
		 RETURNING id`,
		u.ID, u.Email, u.PasswordHash,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *MembershipService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at, updated_at FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s not found", email)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", email, err)
	}
	return &u, nil
}

// Add relates a user to a tenant. The (user, tenant) pair is unique;
// re-adding an existing membership reactivates it and updates the role.
func (s *MembershipService) Add(ctx context.Context, m *model.Membership) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO memberships (user_id, tenant_id, role, active, created_at, updated_at)
		 VALUES ($1, $2, $3, true, now(), now())
		 ON CONFLICT (user_id, tenant_id) DO UPDATE SET role = EXCLUDED.role, active = true, updated_at = now()`,
		m.UserID, m.TenantID, m.Role,
	)
	if err != nil {
		return fmt.Errorf("add membership: %w", err)
	}
	return nil
}

func (s *MembershipService) ListByTenant(ctx context.Context, tenantID string) ([]model.Membership, error) {
	rows, err := s.db.Query(ctx,
		`SELECT user_id, tenant_id, role, active, created_at, updated_at
		 FROM memberships WHERE tenant_id = $1 ORDER BY created_at`, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("list memberships for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	var members []model.Membership
	for rows.Next() {
		var m model.Membership
		if err := rows.Scan(&m.UserID, &m.TenantID, &m.Role, &m.Active, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}
	return members, nil
}

func (s *MembershipService) Deactivate(ctx context.Context, userID, tenantID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE memberships SET active = false, updated_at = now() WHERE user_id = $1 AND tenant_id = $2`,
		userID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("deactivate membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membership (%s, %s) not found", userID, tenantID)
	}
	return nil
}
