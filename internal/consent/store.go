package consent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wso2/xs2a-sca-engine/internal/consent/model"
	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	dbmodel "github.com/wso2/xs2a-sca-engine/internal/system/database/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/database/provider"
	"github.com/wso2/xs2a-sca-engine/internal/system/stores/interfaces"
)

// DBQuery objects for all consent operations
var (
	QueryGetConsentByID = dbmodel.DBQuery{
		ID: "GET_XS2A_CONSENT_BY_ID",
		Query: "SELECT CONSENT_ID, CONSENT_TYPE, TPP_ID, CURRENT_STATUS, VALID_UNTIL, FREQUENCY_PER_DAY, " +
			"RECURRING_INDICATOR, MULTILEVEL_SCA_REQUIRED, PSU_DATA, ACCOUNT_ACCESS, INSTANCE_ID, CREATED_TIME, " +
			"UPDATED_TIME FROM XS2A_CONSENT WHERE CONSENT_ID = ?",
	}

	QueryUpdateConsentStatus = dbmodel.DBQuery{
		ID:    "UPDATE_XS2A_CONSENT_STATUS",
		Query: "UPDATE XS2A_CONSENT SET CURRENT_STATUS = ?, UPDATED_TIME = ? WHERE CONSENT_ID = ?",
	}
)

// store implements interfaces.ConsentStore
type store struct {
	dbClient provider.DBClientInterface
}

var _ interfaces.ConsentStore = (*store)(nil)

// GetByID retrieves a consent by ID
func (s *store) GetByID(ctx context.Context, consentID string) (*model.Consent, error) {
	rows, err := s.dbClient.Query(ctx, QueryGetConsentByID, consentID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrConsentNotFound, consentID)
	}
	return mapToConsent(rows[0])
}

// UpdateStatus updates the consent status inside tx
func (s *store) UpdateStatus(ctx context.Context, tx dbmodel.TxInterface, consentID, status string, updatedTime int64) error {
	_, err := tx.ExecContext(ctx, QueryUpdateConsentStatus.Query, status, updatedTime, consentID)
	return err
}

func mapToConsent(row map[string]interface{}) (*model.Consent, error) {
	consent := &model.Consent{}

	if id, ok := row["CONSENT_ID"].(string); ok {
		consent.ConsentID = id
	}
	if cType, ok := row["CONSENT_TYPE"].(string); ok {
		consent.Kind = scamodel.ResourceKind(cType)
	}
	if tppID, ok := row["TPP_ID"].(string); ok {
		consent.TppID = tppID
	}
	if status, ok := row["CURRENT_STATUS"].(string); ok {
		consent.Status = status
	}
	switch validUntil := row["VALID_UNTIL"].(type) {
	case time.Time:
		consent.ValidUntil = validUntil
	case string:
		parsed, err := time.Parse(time.DateOnly, validUntil)
		if err != nil {
			return nil, fmt.Errorf("invalid validUntil of consent %s: %w", consent.ConsentID, err)
		}
		consent.ValidUntil = parsed
	}
	if freq, ok := row["FREQUENCY_PER_DAY"].(int64); ok {
		consent.FrequencyPerDay = int(freq)
	}
	consent.RecurringIndicator = toBool(row["RECURRING_INDICATOR"])
	consent.MultilevelScaRequired = toBool(row["MULTILEVEL_SCA_REQUIRED"])
	if psus, ok := row["PSU_DATA"].(string); ok && psus != "" {
		if err := json.Unmarshal([]byte(psus), &consent.Psus); err != nil {
			return nil, fmt.Errorf("invalid PSU data of consent %s: %w", consent.ConsentID, err)
		}
	}
	if access, ok := row["ACCOUNT_ACCESS"].(string); ok && access != "" {
		if err := json.Unmarshal([]byte(access), &consent.Access); err != nil {
			return nil, fmt.Errorf("invalid account access of consent %s: %w", consent.ConsentID, err)
		}
	}
	if instanceID, ok := row["INSTANCE_ID"].(string); ok {
		consent.InstanceID = instanceID
	}
	if created, ok := row["CREATED_TIME"].(int64); ok {
		consent.CreatedTime = created
	}
	if updated, ok := row["UPDATED_TIME"].(int64); ok {
		consent.UpdatedTime = updated
	}

	return consent, nil
}

// toBool reads a TINYINT(1) or BOOLEAN column.
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
