package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wso2/xs2a-sca-engine/internal/payment/model"
	dbmodel "github.com/wso2/xs2a-sca-engine/internal/system/database/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/database/provider"
	"github.com/wso2/xs2a-sca-engine/internal/system/stores/interfaces"
)

// DBQuery objects for all payment operations
var (
	QueryGetPaymentByID = dbmodel.DBQuery{
		ID: "GET_XS2A_PAYMENT_BY_ID",
		Query: "SELECT PAYMENT_ID, PAYMENT_SERVICE, PAYMENT_PRODUCT, TRANSACTION_STATUS, TPP_ID, PSU_DATA, " +
			"MULTILEVEL_SCA_REQUIRED, CANCELLATION_ALLOWED, DEBTOR_ACCOUNT, INSTRUCTED_AMOUNT, INSTANCE_ID, " +
			"CREATED_TIME, UPDATED_TIME FROM XS2A_PAYMENT WHERE PAYMENT_ID = ?",
	}

	QueryUpdatePaymentStatus = dbmodel.DBQuery{
		ID:    "UPDATE_XS2A_PAYMENT_STATUS",
		Query: "UPDATE XS2A_PAYMENT SET TRANSACTION_STATUS = ?, UPDATED_TIME = ? WHERE PAYMENT_ID = ?",
	}
)

// store implements interfaces.PaymentStore
type store struct {
	dbClient provider.DBClientInterface
}

var _ interfaces.PaymentStore = (*store)(nil)

// GetByID retrieves a payment by ID
func (s *store) GetByID(ctx context.Context, paymentID string) (*model.Payment, error) {
	rows, err := s.dbClient.Query(ctx, QueryGetPaymentByID, paymentID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrPaymentNotFound, paymentID)
	}
	return mapToPayment(rows[0])
}

// UpdateStatus updates the transaction status inside tx
func (s *store) UpdateStatus(ctx context.Context, tx dbmodel.TxInterface, paymentID, status string, updatedTime int64) error {
	_, err := tx.ExecContext(ctx, QueryUpdatePaymentStatus.Query, status, updatedTime, paymentID)
	return err
}

func mapToPayment(row map[string]interface{}) (*model.Payment, error) {
	payment := &model.Payment{}

	if id, ok := row["PAYMENT_ID"].(string); ok {
		payment.PaymentID = id
	}
	if service, ok := row["PAYMENT_SERVICE"].(string); ok {
		payment.PaymentService = service
	}
	if product, ok := row["PAYMENT_PRODUCT"].(string); ok {
		payment.PaymentProduct = product
	}
	if status, ok := row["TRANSACTION_STATUS"].(string); ok {
		payment.TransactionStatus = status
	}
	if tppID, ok := row["TPP_ID"].(string); ok {
		payment.TppID = tppID
	}
	payment.MultilevelScaRequired = toBool(row["MULTILEVEL_SCA_REQUIRED"])
	payment.CancellationAllowed = toBool(row["CANCELLATION_ALLOWED"])

	if err := unmarshalColumn(row, "PSU_DATA", &payment.Psus); err != nil {
		return nil, fmt.Errorf("invalid PSU data of payment %s: %w", payment.PaymentID, err)
	}
	if err := unmarshalColumn(row, "DEBTOR_ACCOUNT", &payment.DebtorAccount); err != nil {
		return nil, fmt.Errorf("invalid debtor account of payment %s: %w", payment.PaymentID, err)
	}
	if err := unmarshalColumn(row, "INSTRUCTED_AMOUNT", &payment.InstructedAmount); err != nil {
		return nil, fmt.Errorf("invalid amount of payment %s: %w", payment.PaymentID, err)
	}

	if instanceID, ok := row["INSTANCE_ID"].(string); ok {
		payment.InstanceID = instanceID
	}
	if created, ok := row["CREATED_TIME"].(int64); ok {
		payment.CreatedTime = created
	}
	if updated, ok := row["UPDATED_TIME"].(int64); ok {
		payment.UpdatedTime = updated
	}

	return payment, nil
}

// unmarshalColumn decodes a JSON column. NULL and empty values leave out untouched.
func unmarshalColumn(row map[string]interface{}, column string, out interface{}) error {
	var raw []byte
	switch v := row[column].(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func toBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case string:
		return b == "1" || b == "true"
	}
	return false
}
