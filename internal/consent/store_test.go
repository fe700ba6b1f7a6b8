package consent

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/xs2a-sca-engine/internal/consent/model"
	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	dbmodel "github.com/wso2/xs2a-sca-engine/internal/system/database/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/database/provider"
)

var consentRowColumns = []string{
	"CONSENT_ID", "CONSENT_TYPE", "TPP_ID", "CURRENT_STATUS", "VALID_UNTIL", "FREQUENCY_PER_DAY",
	"RECURRING_INDICATOR", "MULTILEVEL_SCA_REQUIRED", "PSU_DATA", "ACCOUNT_ACCESS", "INSTANCE_ID",
	"CREATED_TIME", "UPDATED_TIME",
}

func setupMockDB(t *testing.T) (*provider.DBClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return provider.NewDBClient(sqlx.NewDb(db, "sqlmock"), "mysql"), mock
}

func TestGetConsentByID(t *testing.T) {
	client, mock := setupMockDB(t)
	s := NewStore(client)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT CONSENT_ID, CONSENT_TYPE")).
		WithArgs("consent-1").
		WillReturnRows(sqlmock.NewRows(consentRowColumns).AddRow(
			"consent-1", "AIS_CONSENT", "tpp-1", "received", "2024-06-30", int64(4),
			int64(1), int64(0), []byte(`[{"psuId":"alice"}]`),
			[]byte(`{"accounts":["acc-1"],"balances":["acc-2"]}`), "bank-a", int64(1000), int64(2000)))

	consent, err := s.GetByID(context.Background(), "consent-1")
	require.NoError(t, err)
	assert.Equal(t, scamodel.KindAISConsent, consent.Kind)
	assert.Equal(t, "received", consent.Status)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), consent.ValidUntil)
	assert.Equal(t, 4, consent.FrequencyPerDay)
	assert.True(t, consent.RecurringIndicator)
	assert.False(t, consent.MultilevelScaRequired)
	require.Len(t, consent.Psus, 1)
	assert.Equal(t, "alice", consent.Psus[0].PsuID)
	assert.True(t, consent.Access.Contains("acc-2"))
	assert.False(t, consent.Access.Contains("acc-3"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConsentByIDNotFound(t *testing.T) {
	client, mock := setupMockDB(t)
	s := NewStore(client)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT CONSENT_ID")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(consentRowColumns))

	_, err := s.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrConsentNotFound)
}

func TestGetConsentByIDInvalidValidUntil(t *testing.T) {
	client, mock := setupMockDB(t)
	s := NewStore(client)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT CONSENT_ID")).
		WillReturnRows(sqlmock.NewRows(consentRowColumns).AddRow(
			"consent-1", "AIS_CONSENT", "tpp-1", "received", "30/06/2024", int64(4),
			int64(0), int64(0), nil, nil, "", int64(0), int64(0)))

	_, err := s.GetByID(context.Background(), "consent-1")
	assert.Error(t, err)
}

func TestUpdateConsentStatus(t *testing.T) {
	client, mock := setupMockDB(t)
	s := NewStore(client)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(QueryUpdateConsentStatus.Query)).
		WithArgs("valid", int64(5000), "consent-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := dbmodel.ExecuteTransaction(client, []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			return s.UpdateStatus(context.Background(), tx, "consent-1", "valid", 5000)
		},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
