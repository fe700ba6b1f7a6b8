package stores_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/xs2a-sca-engine/internal/authresource"
	"github.com/wso2/xs2a-sca-engine/internal/consent"
	"github.com/wso2/xs2a-sca-engine/internal/payment"
	scamodel "github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/statusaudit"
	"github.com/wso2/xs2a-sca-engine/internal/system/database/provider"
	"github.com/wso2/xs2a-sca-engine/internal/system/stores"
)

func newRegistry(t *testing.T) (*stores.StoreRegistry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client := provider.NewDBClient(sqlx.NewDb(db, "sqlmock"), "mysql")
	return stores.NewStoreRegistry(client, authresource.NewStore(client), consent.NewStore(client),
		payment.NewStore(client), statusaudit.NewStore()), mock
}

func authorisation() *scamodel.Authorisation {
	return &scamodel.Authorisation{
		ID:                "auth-1",
		ParentID:          "consent-1",
		Kind:              scamodel.KindAISConsent,
		ScaStatus:         scamodel.ScaStatusFinalised,
		ChosenScaApproach: scamodel.ApproachEmbedded,
	}
}

func consentSnapshot(status string) scamodel.ResourceSnapshot {
	return scamodel.ResourceSnapshot{ID: "consent-1", Kind: scamodel.KindAISConsent, Status: status}
}

func TestCommitAuthorisationWithStatusChange(t *testing.T) {
	registry, mock := newRegistry(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO XS2A_AUTHORISATION")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE XS2A_CONSENT SET CURRENT_STATUS")).
		WithArgs("valid", sqlmock.AnyArg(), "consent-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO XS2A_STATUS_AUDIT")).
		WithArgs(sqlmock.AnyArg(), "consent-1", "AIS_CONSENT", "valid", "received", "auth-1", "authorisation",
			sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := registry.CommitAuthorisation(context.Background(), authorisation(),
		consentSnapshot(scamodel.ConsentStatusReceived), scamodel.ConsentStatusValid)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitAuthorisationWithoutStatusChange(t *testing.T) {
	registry, mock := newRegistry(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO XS2A_AUTHORISATION")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := registry.CommitAuthorisation(context.Background(), authorisation(),
		consentSnapshot(scamodel.ConsentStatusValid), scamodel.ConsentStatusValid)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitAuthorisationRollsBack(t *testing.T) {
	registry, mock := newRegistry(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO XS2A_AUTHORISATION")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE XS2A_CONSENT")).WillReturnError(errors.New("lock wait timeout"))
	mock.ExpectRollback()

	err := registry.CommitAuthorisation(context.Background(), authorisation(),
		consentSnapshot(scamodel.ConsentStatusReceived), scamodel.ConsentStatusValid)
	assert.ErrorContains(t, err, "commit authorisation auth-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateResourceStatusForPayment(t *testing.T) {
	registry, mock := newRegistry(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE XS2A_PAYMENT SET TRANSACTION_STATUS")).
		WithArgs("CANC", sqlmock.AnyArg(), "payment-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO XS2A_STATUS_AUDIT")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := registry.UpdateResourceStatus(context.Background(), scamodel.ResourceSnapshot{
		ID: "payment-1", Kind: scamodel.KindPaymentCancellation, Status: scamodel.TransactionStatusAcceptedTechnical,
	}, scamodel.TransactionStatusCancelled, "reported by ASPSP")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateResourceStatusUnchanged(t *testing.T) {
	registry, mock := newRegistry(t)

	err := registry.UpdateResourceStatus(context.Background(), consentSnapshot(scamodel.ConsentStatusValid),
		scamodel.ConsentStatusValid, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
