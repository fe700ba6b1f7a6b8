package authresource

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	dbmodel "github.com/wso2/xs2a-sca-engine/internal/system/database/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/database/provider"
)

var authorisationRowColumns = []string{
	"AUTHORISATION_ID", "PARENT_ID", "RESOURCE_KIND", "PSU_ID", "PSU_ID_TYPE", "PSU_CORPORATE_ID",
	"PSU_CORPORATE_ID_TYPE", "SCA_STATUS", "SCA_APPROACH", "AUTHENTICATION_METHOD_ID", "AVAILABLE_METHODS",
	"REDIRECT_ID", "CONFIRMATION_CODE", "INSTANCE_ID", "CREATED_TIME", "UPDATED_TIME",
}

func setupMockDB(t *testing.T) (*provider.DBClient, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return provider.NewDBClient(sqlx.NewDb(db, "sqlmock"), "mysql"), mock
}

func TestGetAuthorisationByID(t *testing.T) {
	client, mock := setupMockDB(t)
	s := newAuthorisationStore(client)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT AUTHORISATION_ID, PARENT_ID")).
		WithArgs("auth-1").
		WillReturnRows(sqlmock.NewRows(authorisationRowColumns).AddRow(
			"auth-1", "consent-1", "AIS_CONSENT", "alice", "", "", "",
			"psuAuthenticated", "EMBEDDED", "",
			[]byte(`[{"authenticationType":"SMS_OTP","authenticationMethodId":"sms"}]`),
			"", "", "bank-a", int64(1000), int64(2000)))

	authorisation, err := s.GetAuthorisationByID(context.Background(), "auth-1")
	require.NoError(t, err)
	assert.Equal(t, "consent-1", authorisation.ParentID)
	assert.Equal(t, scamodel.KindAISConsent, authorisation.Kind)
	assert.Equal(t, "alice", authorisation.Psu.PsuID)
	assert.Equal(t, scamodel.ScaStatusPsuAuthenticated, authorisation.ScaStatus)
	assert.Equal(t, scamodel.ApproachEmbedded, authorisation.ChosenScaApproach)
	assert.True(t, authorisation.HasMethod("sms"))
	assert.Equal(t, int64(2000), authorisation.UpdatedTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAuthorisationByIDNotFound(t *testing.T) {
	client, mock := setupMockDB(t)
	s := newAuthorisationStore(client)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT AUTHORISATION_ID")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(authorisationRowColumns))

	_, err := s.GetAuthorisationByID(context.Background(), "missing")
	assert.ErrorIs(t, err, scamodel.ErrAuthorisationNotFound)
}

func TestGetAuthorisationRejectsUnknownStatus(t *testing.T) {
	client, mock := setupMockDB(t)
	s := newAuthorisationStore(client)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT AUTHORISATION_ID")).
		WillReturnRows(sqlmock.NewRows(authorisationRowColumns).AddRow(
			"auth-1", "consent-1", "AIS_CONSENT", "", "", "", "",
			"bogus", "EMBEDDED", "", nil, "", "", "", int64(0), int64(0)))

	_, err := s.GetAuthorisationByID(context.Background(), "auth-1")
	assert.Error(t, err)
}

func TestListByParent(t *testing.T) {
	client, mock := setupMockDB(t)
	s := newAuthorisationStore(client)

	mock.ExpectQuery(regexp.QuoteMeta("FROM XS2A_AUTHORISATION WHERE RESOURCE_KIND = ? AND PARENT_ID = ?")).
		WithArgs("PAYMENT", "pay-1").
		WillReturnRows(sqlmock.NewRows(authorisationRowColumns).
			AddRow("a1", "pay-1", "PAYMENT", "alice", "", "", "", "finalised", "REDIRECT", "", nil,
				"r1", "", "", int64(1), int64(2)).
			AddRow("a2", "pay-1", "PAYMENT", "bob", "", "", "", "received", "DECOUPLED", "", "null",
				"", "", "", int64(3), int64(3)))

	authorisations, err := s.ListByParent(context.Background(), scamodel.KindPayment, "pay-1")
	require.NoError(t, err)
	require.Len(t, authorisations, 2)
	assert.Equal(t, "r1", authorisations[0].RedirectID)
	assert.Equal(t, scamodel.ApproachDecoupled, authorisations[1].ChosenScaApproach)
	assert.Empty(t, authorisations[1].AvailableMethods)
}

func TestSaveUpsertsInsideTransaction(t *testing.T) {
	client, mock := setupMockDB(t)
	s := newAuthorisationStore(client)

	authorisation := &scamodel.Authorisation{
		ID:                "auth-1",
		ParentID:          "consent-1",
		Kind:              scamodel.KindAISConsent,
		Psu:               scamodel.PsuIdData{PsuID: "alice"},
		ScaStatus:         scamodel.ScaStatusReceived,
		ChosenScaApproach: scamodel.ApproachRedirect,
		RedirectID:        "redirect-1",
		CreatedTime:       10,
		UpdatedTime:       10,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO XS2A_AUTHORISATION")).
		WithArgs("auth-1", "consent-1", "AIS_CONSENT", "alice", "", "", "", "received", "REDIRECT", "",
			"null", "redirect-1", "", "", int64(10), int64(10)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := dbmodel.ExecuteTransaction(client, []func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error { return s.Save(context.Background(), tx, authorisation) },
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryErrorsPropagate(t *testing.T) {
	client, mock := setupMockDB(t)
	s := newAuthorisationStore(client)
	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

	_, err := s.ListByParent(context.Background(), scamodel.KindPayment, "pay-1")
	assert.Error(t, err)
}
