package errormapper

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/xs2a-sca-engine/internal/spi"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/codes"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/tpperror"
	"github.com/wso2/xs2a-sca-engine/internal/system/metrics"
)

func TestFormatErrorForAIS(t *testing.T) {
	holder := New(nil).MapToErrorHolder(spi.NewFailure(codes.FormatError, ""), tpperror.ServiceAIS)

	assert.Equal(t, "AIS_400", holder.ErrorType.String())
	require.Len(t, holder.TppMessages, 1)
	assert.Equal(t, codes.FormatError, holder.TppMessages[0].Code)
	assert.Equal(t, codes.FormatError.DefaultText(), holder.TppMessages[0].Text)
}

func TestErrorTypeFollowsFirstCode(t *testing.T) {
	failure := &spi.Failure{Messages: []spi.FailureMessage{
		{Code: codes.PsuCredentialsInvalid, Text: "wrong password"},
		{Code: codes.FormatError},
	}}

	holder := New(nil).MapToErrorHolder(failure, tpperror.ServicePIS)

	assert.Equal(t, "PIS_401", holder.ErrorType.String())
	require.Len(t, holder.TppMessages, 2)
	assert.Equal(t, "wrong password", holder.TppMessages[0].Text)
	assert.Equal(t, codes.FormatError, holder.TppMessages[1].Code)
}

func TestServiceScopedTranslation(t *testing.T) {
	tests := []struct {
		service tpperror.ServiceType
		in      codes.MessageErrorCode
		want    codes.MessageErrorCode
		errType string
	}{
		{tpperror.ServiceAIS, codes.ResourceUnknown403, codes.ConsentUnknown403, "AIS_403"},
		{tpperror.ServicePIIS, codes.ResourceUnknown400, codes.ConsentUnknown400, "PIIS_400"},
		{tpperror.ServicePIS, codes.ConsentUnknown403, codes.ResourceUnknown403, "PIS_403"},
		{tpperror.ServicePISCancellation, codes.ConsentUnknown400, codes.ResourceUnknown400, "PIS_CANC_400"},
		{tpperror.ServicePIS, codes.StatusInvalid, codes.StatusInvalid, "PIS_409"},
		{tpperror.ServiceAIS, "CONSENT_UNKNOWN", codes.ConsentUnknown403, "AIS_403"},
		{tpperror.ServicePIS, "CONSENT_UNKNOWN", codes.ResourceUnknown403, "PIS_403"},
		{tpperror.ServicePIIS, "RESOURCE_UNKNOWN", codes.ConsentUnknown403, "PIIS_403"},
		{tpperror.ServicePISCancellation, "RESOURCE_UNKNOWN", codes.ResourceUnknown403, "PIS_CANC_403"},
		{tpperror.ServicePIS, "SERVICE_INVALID", codes.ServiceInvalid405, "PIS_405"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.service, tt.in), func(t *testing.T) {
			holder := New(nil).MapToErrorHolder(spi.NewFailure(tt.in, ""), tt.service)
			assert.Equal(t, tt.want, holder.TppMessages[0].Code)
			assert.Equal(t, tt.errType, holder.ErrorType.String())
		})
	}
}

func TestTechnicalFailuresBecomeInternalServerError(t *testing.T) {
	for _, failure := range []error{
		context.DeadlineExceeded,
		errors.New("connection refused"),
		&spi.Failure{},
	} {
		holder := New(nil).MapToErrorHolder(failure, tpperror.ServicePIIS)
		assert.Equal(t, "PIIS_500", holder.ErrorType.String())
		assert.Equal(t, codes.InternalServerError, holder.TppMessages[0].Code)
	}
}

func TestUnknownCodeBecomesInternalServerError(t *testing.T) {
	holder := New(nil).MapToErrorHolder(spi.NewFailure("PERIOD_INVALID", "x"), tpperror.ServiceAIS)

	assert.Equal(t, "AIS_500", holder.ErrorType.String())
	assert.Equal(t, codes.InternalServerError, holder.TppMessages[0].Code)
}

func TestMapperCountsErrors(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := metrics.New(registry, registry)
	require.NoError(t, err)

	New(m).MapToErrorHolder(fmt.Errorf("wrapped: %w", spi.NewFailure(codes.ScaInvalid, "")), tpperror.ServicePIS)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ConnectorErrors.WithLabelValues("PIS", "SCA_INVALID")))
}
