package authresource

import (
	"context"
	"encoding/json"
	"fmt"

	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	dbmodel "github.com/wso2/xs2a-sca-engine/internal/system/database/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/database/provider"
	"github.com/wso2/xs2a-sca-engine/internal/system/stores/interfaces"
)

const authorisationColumns = "AUTHORISATION_ID, PARENT_ID, RESOURCE_KIND, PSU_ID, PSU_ID_TYPE, PSU_CORPORATE_ID, " +
	"PSU_CORPORATE_ID_TYPE, SCA_STATUS, SCA_APPROACH, AUTHENTICATION_METHOD_ID, AVAILABLE_METHODS, REDIRECT_ID, " +
	"CONFIRMATION_CODE, INSTANCE_ID, CREATED_TIME, UPDATED_TIME"

// DBQuery objects for all authorisation operations
var (
	QueryGetAuthorisationByID = dbmodel.DBQuery{
		ID:    "GET_AUTHORISATION_BY_ID",
		Query: "SELECT " + authorisationColumns + " FROM XS2A_AUTHORISATION WHERE AUTHORISATION_ID = ?",
	}

	QueryGetAuthorisationsByParent = dbmodel.DBQuery{
		ID: "GET_AUTHORISATIONS_BY_PARENT",
		Query: "SELECT " + authorisationColumns + " FROM XS2A_AUTHORISATION WHERE RESOURCE_KIND = ? AND PARENT_ID = ? " +
			"ORDER BY CREATED_TIME",
	}

	// The approach, parent and creation time are written once. Later saves only move the
	// SCA state forward.
	QuerySaveAuthorisation = dbmodel.DBQuery{
		ID: "SAVE_AUTHORISATION",
		Query: "INSERT INTO XS2A_AUTHORISATION (" + authorisationColumns + ") " +
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) " +
			"ON DUPLICATE KEY UPDATE PSU_ID = VALUES(PSU_ID), PSU_ID_TYPE = VALUES(PSU_ID_TYPE), " +
			"PSU_CORPORATE_ID = VALUES(PSU_CORPORATE_ID), PSU_CORPORATE_ID_TYPE = VALUES(PSU_CORPORATE_ID_TYPE), " +
			"SCA_STATUS = VALUES(SCA_STATUS), AUTHENTICATION_METHOD_ID = VALUES(AUTHENTICATION_METHOD_ID), " +
			"AVAILABLE_METHODS = VALUES(AVAILABLE_METHODS), CONFIRMATION_CODE = VALUES(CONFIRMATION_CODE), " +
			"UPDATED_TIME = VALUES(UPDATED_TIME)",
	}
)

// store implements interfaces.AuthorisationStore
type store struct {
	dbClient provider.DBClientInterface
}

var _ interfaces.AuthorisationStore = (*store)(nil)

// newAuthorisationStore creates a new authorisation store
func newAuthorisationStore(dbClient provider.DBClientInterface) *store {
	return &store{
		dbClient: dbClient,
	}
}

// GetAuthorisationByID retrieves an authorisation by ID
func (s *store) GetAuthorisationByID(ctx context.Context, authorisationID string) (*scamodel.Authorisation, error) {
	rows, err := s.dbClient.Query(ctx, QueryGetAuthorisationByID, authorisationID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", scamodel.ErrAuthorisationNotFound, authorisationID)
	}
	return mapToAuthorisation(rows[0])
}

// ListByParent retrieves the authorisations of one resource, oldest first
func (s *store) ListByParent(ctx context.Context, kind scamodel.ResourceKind, parentID string) ([]scamodel.Authorisation, error) {
	rows, err := s.dbClient.Query(ctx, QueryGetAuthorisationsByParent, string(kind), parentID)
	if err != nil {
		return nil, err
	}

	authorisations := make([]scamodel.Authorisation, 0, len(rows))
	for _, row := range rows {
		authorisation, err := mapToAuthorisation(row)
		if err != nil {
			return nil, err
		}
		authorisations = append(authorisations, *authorisation)
	}
	return authorisations, nil
}

// Save inserts the authorisation or updates its SCA state
func (s *store) Save(ctx context.Context, tx dbmodel.TxInterface, authorisation *scamodel.Authorisation) error {
	methods, err := json.Marshal(authorisation.AvailableMethods)
	if err != nil {
		return fmt.Errorf("failed to marshal available methods: %w", err)
	}

	_, err = tx.ExecContext(ctx, QuerySaveAuthorisation.Query,
		authorisation.ID, authorisation.ParentID, string(authorisation.Kind),
		authorisation.Psu.PsuID, authorisation.Psu.PsuIDType,
		authorisation.Psu.PsuCorporateID, authorisation.Psu.PsuCorporateIDType,
		string(authorisation.ScaStatus), string(authorisation.ChosenScaApproach),
		authorisation.AuthenticationMethodID, string(methods), authorisation.RedirectID,
		authorisation.ConfirmationCode, authorisation.InstanceID,
		authorisation.CreatedTime, authorisation.UpdatedTime)
	return err
}

// mapToAuthorisation converts a database row map to an Authorisation
func mapToAuthorisation(row map[string]interface{}) (*scamodel.Authorisation, error) {
	authorisation := &scamodel.Authorisation{}

	if v, ok := row["AUTHORISATION_ID"].(string); ok {
		authorisation.ID = v
	}
	if v, ok := row["PARENT_ID"].(string); ok {
		authorisation.ParentID = v
	}
	if v, ok := row["RESOURCE_KIND"].(string); ok {
		authorisation.Kind = scamodel.ResourceKind(v)
	}
	if v, ok := row["PSU_ID"].(string); ok {
		authorisation.Psu.PsuID = v
	}
	if v, ok := row["PSU_ID_TYPE"].(string); ok {
		authorisation.Psu.PsuIDType = v
	}
	if v, ok := row["PSU_CORPORATE_ID"].(string); ok {
		authorisation.Psu.PsuCorporateID = v
	}
	if v, ok := row["PSU_CORPORATE_ID_TYPE"].(string); ok {
		authorisation.Psu.PsuCorporateIDType = v
	}
	if v, ok := row["SCA_STATUS"].(string); ok {
		status, err := scamodel.ParseScaStatus(v)
		if err != nil {
			return nil, err
		}
		authorisation.ScaStatus = status
	}
	if v, ok := row["SCA_APPROACH"].(string); ok {
		approach, err := scamodel.ParseScaApproach(v)
		if err != nil {
			return nil, err
		}
		authorisation.ChosenScaApproach = approach
	}
	if v, ok := row["AUTHENTICATION_METHOD_ID"].(string); ok {
		authorisation.AuthenticationMethodID = v
	}
	if v, ok := row["AVAILABLE_METHODS"].(string); ok && v != "" && v != "null" {
		if err := json.Unmarshal([]byte(v), &authorisation.AvailableMethods); err != nil {
			return nil, fmt.Errorf("invalid available methods of authorisation %s: %w", authorisation.ID, err)
		}
	}
	if v, ok := row["REDIRECT_ID"].(string); ok {
		authorisation.RedirectID = v
	}
	if v, ok := row["CONFIRMATION_CODE"].(string); ok {
		authorisation.ConfirmationCode = v
	}
	if v, ok := row["INSTANCE_ID"].(string); ok {
		authorisation.InstanceID = v
	}
	if v, ok := row["CREATED_TIME"].(int64); ok {
		authorisation.CreatedTime = v
	}
	if v, ok := row["UPDATED_TIME"].(int64); ok {
		authorisation.UpdatedTime = v
	}

	return authorisation, nil
}
