package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Elhussin/opticsSass/internal/model"
)

// ReservationService manages the durable subdomain claims taken at the
// start of each provisioning attempt.
type ReservationService struct {
	db DB
}

func NewReservationService(db DB) *ReservationService {
	return &ReservationService{db: db}
}

// Reserve claims a subdomain for a new provisioning attempt. The insert
// only succeeds when no reservation exists or the previous attempt ended
// in failed; a zero row count means another attempt holds the claim and
// the caller must stop before creating any resources.
func (s *ReservationService) Reserve(ctx context.Context, subdomain string) error {
	tag, err := s.db.Exec(ctx,
		`INSERT INTO tenant_reservations (subdomain, state, created_at, updated_at)
		 VALUES ($1, $2, now(), now())
		 ON CONFLICT (subdomain) DO UPDATE
		 SET state = EXCLUDED.state, store_id = NULL, last_error = NULL, updated_at = now()
		 WHERE tenant_reservations.state = $3`,
		subdomain, model.ReservationReserving, model.ReservationFailed,
	)
	if err != nil {
		return fmt.Errorf("reserve subdomain %s: %w", subdomain, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrDuplicateProvisioning
	}
	return nil
}

// SetStage advances the reservation through the provisioning stages.
func (s *ReservationService) SetStage(ctx context.Context, subdomain, stage string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tenant_reservations SET state = $1, updated_at = now() WHERE subdomain = $2`,
		stage, subdomain,
	)
	if err != nil {
		return fmt.Errorf("set reservation %s stage to %s: %w", subdomain, stage, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s not found", subdomain)
	}
	return nil
}

// AttachStore records the store allocated for this reservation so a
// failed attempt can be traced to its orphaned resources.
func (s *ReservationService) AttachStore(ctx context.Context, subdomain, storeID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE tenant_reservations SET store_id = $1, updated_at = now() WHERE subdomain = $2`,
		storeID, subdomain,
	)
	if err != nil {
		return fmt.Errorf("attach store to reservation %s: %w", subdomain, err)
	}
	return nil
}

func (s *ReservationService) Complete(ctx context.Context, subdomain string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE tenant_reservations SET state = $1, updated_at = now() WHERE subdomain = $2`,
		model.ReservationDone, subdomain,
	)
	if err != nil {
		return fmt.Errorf("complete reservation %s: %w", subdomain, err)
	}
	return nil
}

func (s *ReservationService) MarkFailed(ctx context.Context, subdomain, message string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE tenant_reservations SET state = $1, last_error = $2, updated_at = now() WHERE subdomain = $3`,
		model.ReservationFailed, message, subdomain,
	)
	if err != nil {
		return fmt.Errorf("mark reservation %s failed: %w", subdomain, err)
	}
	return nil
}

func (s *ReservationService) Get(ctx context.Context, subdomain string) (*model.Reservation, error) {
	var r model.Reservation
	err := s.db.QueryRow(ctx,
		`SELECT subdomain, state, store_id, last_error, created_at, updated_at
		 FROM tenant_reservations WHERE subdomain = $1`, subdomain,
	).Scan(&r.Subdomain, &r.State, &r.StoreID, &r.LastError, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reservation %s not found", subdomain)
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation %s: %w", subdomain, err)
	}
	return &r, nil
}
