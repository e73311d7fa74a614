package workflow

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Elhussin/opticsSass/internal/activity"
	"github.com/Elhussin/opticsSass/internal/model"
	"github.com/Elhussin/opticsSass/internal/platform"
)

// ProvisionTenantWorkflow drives a tenant from signup to resolvable.
// The tenant row is only written in the final activity, so a half-built
// tenant is never routable. On failure after the reservation stage, the
// reservation and any allocated store are marked failed and the error
// surfaces with the stage and orphaned store id attached.
func ProvisionTenantWorkflow(ctx workflow.Context, params model.ProvisionParams) (*model.Tenant, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	// Claim the subdomain. A failure here, duplicate or otherwise, must
	// not touch the winner's reservation, so no failure mark is written.
	if err := workflow.ExecuteActivity(ctx, "ReserveSubdomain", params).Get(ctx, nil); err != nil {
		return nil, err
	}

	var reg model.StoreRegistration
	err := workflow.ExecuteActivity(ctx, "CreateStore", params).Get(ctx, &reg)
	if err != nil {
		return nil, failProvision(ctx, params.Subdomain, model.StageCreatingStore, err)
	}

	err = workflow.ExecuteActivity(ctx, "MigrateStore", activity.MigrateStoreParams{
		Subdomain: params.Subdomain,
		StoreID:   reg.StoreID,
	}).Get(ctx, nil)
	if err != nil {
		return nil, failProvision(ctx, params.Subdomain, model.StageMigrating, err)
	}

	var adminUserID string
	err = workflow.ExecuteActivity(ctx, "CreateAdminUser", params).Get(ctx, &adminUserID)
	if err != nil {
		return nil, failProvision(ctx, params.Subdomain, model.StageCreatingAdmin, err)
	}

	// The tenant id is pinned via side effect so every publish attempt,
	// including a re-dispatch after a partial failure, writes the same row.
	var tenantID string
	err = workflow.SideEffect(ctx, func(workflow.Context) interface{} {
		return platform.NewID()
	}).Get(&tenantID)
	if err != nil {
		return nil, failProvision(ctx, params.Subdomain, model.StagePublishing, err)
	}

	var tenant model.Tenant
	err = workflow.ExecuteActivity(ctx, "PublishTenant", activity.PublishTenantParams{
		Params:      params,
		StoreID:     reg.StoreID,
		TenantID:    tenantID,
		AdminUserID: adminUserID,
	}).Get(ctx, &tenant)
	if err != nil {
		return nil, failProvision(ctx, params.Subdomain, model.StagePublishing, err)
	}

	return &tenant, nil
}

// failProvision marks the reservation failed and wraps the cause with
// the stage and orphaned store id so callers can report what stalled.
func failProvision(ctx workflow.Context, subdomain, stage string, cause error) error {
	logger := workflow.GetLogger(ctx)

	var storeID string
	markErr := workflow.ExecuteActivity(ctx, "MarkProvisionFailed", activity.MarkProvisionFailedParams{
		Subdomain: subdomain,
		Stage:     stage,
		Message:   cause.Error(),
	}).Get(ctx, &storeID)
	if markErr != nil {
		logger.Error("failure mark skipped", "subdomain", subdomain, "error", markErr)
	}

	return temporal.NewApplicationError(
		fmt.Sprintf("provisioning %s failed at %s", subdomain, stage),
		model.ErrTypeProvisioningFailed,
		model.ProvisionFailureDetails{Stage: stage, StoreID: storeID},
	)
}

// RetryStoreWorkflow re-runs migrations against a failed store and, on
// success, flips it back to ready. The tenant row already exists, so
// resolution recovers as soon as the store does.
func RetryStoreWorkflow(ctx workflow.Context, storeID string) (*model.Tenant, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:    3,
			InitialInterval:    1 * time.Second,
			MaximumInterval:    10 * time.Second,
			BackoffCoefficient: 2.0,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var tenant model.Tenant
	err := workflow.ExecuteActivity(ctx, "GetTenantByStoreID", storeID).Get(ctx, &tenant)
	if err != nil {
		return nil, err
	}

	err = workflow.ExecuteActivity(ctx, "RetryFailedStore", storeID).Get(ctx, nil)
	if err != nil {
		return nil, err
	}

	err = workflow.ExecuteActivity(ctx, "MigrateStore", activity.MigrateStoreParams{StoreID: storeID}).Get(ctx, nil)
	if err != nil {
		return nil, retryFailed(ctx, storeID, err)
	}

	err = workflow.ExecuteActivity(ctx, "MarkStoreReady", storeID).Get(ctx, nil)
	if err != nil {
		return nil, retryFailed(ctx, storeID, err)
	}

	return &tenant, nil
}

// retryFailed puts the store back into failed so the next retry run can
// pick it up again.
func retryFailed(ctx workflow.Context, storeID string, cause error) error {
	logger := workflow.GetLogger(ctx)

	markErr := workflow.ExecuteActivity(ctx, "MarkStoreFailed", activity.MarkStoreFailedParams{
		StoreID: storeID,
		Message: cause.Error(),
	}).Get(ctx, nil)
	if markErr != nil {
		logger.Error("store failure mark skipped", "store_id", storeID, "error", markErr)
	}

	return cause
}
