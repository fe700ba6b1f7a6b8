// Package statusaudit keeps the history of consent and payment status changes.
package statusaudit

import (
	"context"

	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	dbmodel "github.com/wso2/xs2a-sca-engine/internal/system/database/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/stores/interfaces"
)

var QueryCreateStatusAudit = dbmodel.DBQuery{
	ID: "CREATE_STATUS_AUDIT",
	Query: "INSERT INTO XS2A_STATUS_AUDIT (STATUS_AUDIT_ID, RESOURCE_ID, RESOURCE_KIND, CURRENT_STATUS, " +
		"PREVIOUS_STATUS, AUTHORISATION_ID, REASON, ACTION_TIME) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
}

type store struct{}

// NewStore creates the status audit store
func NewStore() interfaces.StatusAuditStore {
	return &store{}
}

// Create appends an audit row inside tx
func (s *store) Create(ctx context.Context, tx dbmodel.TxInterface, audit *scamodel.StatusAudit) error {
	_, err := tx.ExecContext(ctx, QueryCreateStatusAudit.Query,
		audit.ID, audit.ResourceID, string(audit.Kind), audit.CurrentStatus,
		audit.PreviousStatus, audit.AuthorisationID, audit.Reason, audit.ActionTime)
	return err
}
