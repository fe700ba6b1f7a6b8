package interfaces

import (
	"context"

	consentModel "github.com/wso2/xs2a-sca-engine/internal/consent/model"
	paymentModel "github.com/wso2/xs2a-sca-engine/internal/payment/model"
	scaModel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	dbmodel "github.com/wso2/xs2a-sca-engine/internal/system/database/model"
)

// AuthorisationStore defines the interface for authorisation data operations
type AuthorisationStore interface {
	GetAuthorisationByID(ctx context.Context, authorisationID string) (*scaModel.Authorisation, error)
	ListByParent(ctx context.Context, kind scaModel.ResourceKind, parentID string) ([]scaModel.Authorisation, error)
	Save(ctx context.Context, tx dbmodel.TxInterface, authorisation *scaModel.Authorisation) error
}

// ConsentStore defines the interface for AIS and PIIS consent data operations
type ConsentStore interface {
	GetByID(ctx context.Context, consentID string) (*consentModel.Consent, error)
	UpdateStatus(ctx context.Context, tx dbmodel.TxInterface, consentID, status string, updatedTime int64) error
}

// PaymentStore defines the interface for payment data operations
type PaymentStore interface {
	GetByID(ctx context.Context, paymentID string) (*paymentModel.Payment, error)
	UpdateStatus(ctx context.Context, tx dbmodel.TxInterface, paymentID, status string, updatedTime int64) error
}

// StatusAuditStore records consent and payment status changes
type StatusAuditStore interface {
	Create(ctx context.Context, tx dbmodel.TxInterface, audit *scaModel.StatusAudit) error
}
