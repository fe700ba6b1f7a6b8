package stores

import (
	"context"
	"fmt"

	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	dbmodel "github.com/wso2/xs2a-sca-engine/internal/system/database/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
	"github.com/wso2/xs2a-sca-engine/internal/system/stores/interfaces"
	"github.com/wso2/xs2a-sca-engine/internal/system/utils"
)

// StoreRegistry holds references to all stores in the application and composes their writes
// into transactions.
type StoreRegistry struct {
	db dbmodel.TxBeginner

	Authorisation interfaces.AuthorisationStore
	Consent       interfaces.ConsentStore
	Payment       interfaces.PaymentStore
	StatusAudit   interfaces.StatusAuditStore
}

// NewStoreRegistry creates a new store registry with all initialized stores
func NewStoreRegistry(
	db dbmodel.TxBeginner,
	authorisationStore interfaces.AuthorisationStore,
	consentStore interfaces.ConsentStore,
	paymentStore interfaces.PaymentStore,
	statusAuditStore interfaces.StatusAuditStore,
) *StoreRegistry {
	return &StoreRegistry{
		db:            db,
		Authorisation: authorisationStore,
		Consent:       consentStore,
		Payment:       paymentStore,
		StatusAudit:   statusAuditStore,
	}
}

// ExecuteTransaction executes multiple store operations in a single transaction
func (r *StoreRegistry) ExecuteTransaction(queries []func(tx dbmodel.TxInterface) error) error {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "StoreRegistry"))
	logger.Debug("Starting transaction", log.Int("query_count", len(queries)))

	if err := dbmodel.ExecuteTransaction(r.db, queries); err != nil {
		logger.Warn("Transaction failed, rolled back", log.Error(err))
		return err
	}

	logger.Debug("Transaction committed successfully", log.Int("query_count", len(queries)))
	return nil
}

// CommitAuthorisation writes the authorisation and, when resourceStatus differs from the
// resource's current status, the new resource status with its audit row. All writes share
// one transaction.
func (r *StoreRegistry) CommitAuthorisation(ctx context.Context, authorisation *scamodel.Authorisation,
	resource scamodel.ResourceSnapshot, resourceStatus string) error {
	queries := []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error { return r.Authorisation.Save(ctx, tx, authorisation) },
	}

	if resourceStatus != "" && resourceStatus != resource.Status {
		queries = append(queries, r.statusChange(ctx, resource, resourceStatus, authorisation.ID, "authorisation")...)
	}

	if err := r.ExecuteTransaction(queries); err != nil {
		return fmt.Errorf("commit authorisation %s: %w", authorisation.ID, err)
	}
	return nil
}

// UpdateResourceStatus persists a status change reported outside an authorisation, such as
// a status refresh from the ASPSP.
func (r *StoreRegistry) UpdateResourceStatus(ctx context.Context, resource scamodel.ResourceSnapshot,
	status, reason string) error {
	if status == "" || status == resource.Status {
		return nil
	}
	if err := r.ExecuteTransaction(r.statusChange(ctx, resource, status, "", reason)); err != nil {
		return fmt.Errorf("update status of %s: %w", resource.ID, err)
	}
	return nil
}

func (r *StoreRegistry) statusChange(ctx context.Context, resource scamodel.ResourceSnapshot, status,
	authorisationID, reason string) []func(tx dbmodel.TxInterface) error {
	now := utils.GetCurrentTimeMillis()
	audit := &scamodel.StatusAudit{
		ID:              utils.GenerateUUID(),
		ResourceID:      resource.ID,
		Kind:            resource.Kind,
		CurrentStatus:   status,
		PreviousStatus:  resource.Status,
		AuthorisationID: authorisationID,
		Reason:          reason,
		ActionTime:      now,
	}

	return []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			if resource.Kind.IsConsent() {
				return r.Consent.UpdateStatus(ctx, tx, resource.ID, status, now)
			}
			return r.Payment.UpdateStatus(ctx, tx, resource.ID, status, now)
		},
		func(tx dbmodel.TxInterface) error { return r.StatusAudit.Create(ctx, tx, audit) },
	}
}
