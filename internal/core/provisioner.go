package core

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/api/serviceerror"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/Elhussin/opticsSass/internal/model"
)

const taskQueue = "tenant-provisioning"

// ProvisionerService is the synchronous entry point for provisioning
// runs. Each run executes as a workflow keyed by subdomain, so a second
// caller for the same subdomain joins or is rejected instead of racing.
type ProvisionerService struct {
	tc temporalclient.Client
}

func NewProvisionerService(tc temporalclient.Client) *ProvisionerService {
	return &ProvisionerService{tc: tc}
}

// Provision runs the full provisioning flow and blocks until the tenant
// is published or the run fails. The run itself is durable: if the
// caller disconnects, provisioning continues to completion server-side.
func (s *ProvisionerService) Provision(ctx context.Context, params model.ProvisionParams) (*model.Tenant, error) {
	run, err := s.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        fmt.Sprintf("provision-%s", params.Subdomain),
		TaskQueue: taskQueue,
	}, "ProvisionTenantWorkflow", params)
	if err != nil {
		var already *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &already) {
			return nil, model.ErrDuplicateProvisioning
		}
		return nil, fmt.Errorf("start ProvisionTenantWorkflow: %w", err)
	}

	var tenant model.Tenant
	if err := run.Get(ctx, &tenant); err != nil {
		return nil, mapProvisionError(params.Subdomain, err)
	}
	return &tenant, nil
}

// RetryStore re-runs migration and publication for a failed store.
func (s *ProvisionerService) RetryStore(ctx context.Context, storeID string) (*model.Tenant, error) {
	run, err := s.tc.ExecuteWorkflow(ctx, temporalclient.StartWorkflowOptions{
		ID:        fmt.Sprintf("retry-store-%s", storeID),
		TaskQueue: taskQueue,
	}, "RetryStoreWorkflow", storeID)
	if err != nil {
		return nil, fmt.Errorf("start RetryStoreWorkflow: %w", err)
	}

	var tenant model.Tenant
	if err := run.Get(ctx, &tenant); err != nil {
		return nil, mapProvisionError("", err)
	}
	return &tenant, nil
}

// mapProvisionError translates workflow failures back into domain errors.
func mapProvisionError(subdomain string, err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return fmt.Errorf("provisioning run: %w", err)
	}

	switch appErr.Type() {
	case model.ErrTypeDuplicateProvisioning:
		return model.ErrDuplicateProvisioning
	case model.ErrTypeProvisioningFailed:
		var details model.ProvisionFailureDetails
		if appErr.HasDetails() {
			if derr := appErr.Details(&details); derr != nil {
				details = model.ProvisionFailureDetails{}
			}
		}
		return &model.ProvisioningError{
			Subdomain: subdomain,
			Stage:     details.Stage,
			StoreID:   details.StoreID,
			Cause:     appErr,
		}
	default:
		return fmt.Errorf("provisioning run: %w", err)
	}
}
