// Package errormapper turns bank connector failures into TPP-facing error holders.
package errormapper

import (
	"errors"

	"github.com/wso2/xs2a-sca-engine/internal/spi"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/codes"
	"github.com/wso2/xs2a-sca-engine/internal/system/error/tpperror"
	"github.com/wso2/xs2a-sca-engine/internal/system/log"
	"github.com/wso2/xs2a-sca-engine/internal/system/metrics"
)

// consent services talk about consents, payment services about resources
var consentScoped = map[codes.MessageErrorCode]codes.MessageErrorCode{
	codes.ResourceUnknown400: codes.ConsentUnknown400,
	codes.ResourceUnknown403: codes.ConsentUnknown403,
}

var resourceScoped = map[codes.MessageErrorCode]codes.MessageErrorCode{
	codes.ConsentUnknown400: codes.ResourceUnknown400,
	codes.ConsentUnknown403: codes.ResourceUnknown403,
}

// connectors may send the plain wire name of a code that exists with several statuses;
// those resolve to the status an ASPSP reports for a resource addressed in the path
var unsuffixed = map[codes.MessageErrorCode]codes.MessageErrorCode{
	codes.MessageErrorCode(codes.ConsentUnknown403.Name()):  codes.ConsentUnknown403,
	codes.MessageErrorCode(codes.ResourceUnknown403.Name()): codes.ResourceUnknown403,
	codes.MessageErrorCode(codes.ServiceInvalid405.Name()):  codes.ServiceInvalid405,
}

// ErrorMapper maps connector failures for one service type.
type ErrorMapper interface {
	MapToErrorHolder(failure error, service tpperror.ServiceType) *tpperror.ErrorHolder
}

// Mapper is the default ErrorMapper.
type Mapper struct {
	metrics *metrics.Metrics
	logger  *log.Logger
}

var _ ErrorMapper = (*Mapper)(nil)

// New creates a Mapper. m may be nil.
func New(m *metrics.Metrics) *Mapper {
	return &Mapper{
		metrics: m,
		logger:  log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ErrorMapper")),
	}
}

// MapToErrorHolder builds the holder for failure. The error type follows the first provider
// code; every provider code becomes one message, translated to the service's vocabulary.
// Errors that are not *spi.Failure, and codes outside the catalogue, become
// INTERNAL_SERVER_ERROR.
func (m *Mapper) MapToErrorHolder(failure error, service tpperror.ServiceType) *tpperror.ErrorHolder {
	var spiFailure *spi.Failure
	if !errors.As(failure, &spiFailure) || len(spiFailure.Messages) == 0 {
		m.logger.Warn("Technical connector failure", log.String("service", string(service)), log.Error(failure))
		return m.holder(service, []tpperror.TppMessageInformation{tpperror.Of(codes.InternalServerError)})
	}

	messages := make([]tpperror.TppMessageInformation, 0, len(spiFailure.Messages))
	for _, fm := range spiFailure.Messages {
		code := translate(fm.Code, service)
		if !code.Known() {
			m.logger.Warn("Unknown connector error code", log.String("code", string(fm.Code)))
			messages = append(messages, tpperror.Of(codes.InternalServerError))
			continue
		}
		messages = append(messages, tpperror.Of(code, fm.Text))
	}
	return m.holder(service, messages)
}

func (m *Mapper) holder(service tpperror.ServiceType, messages []tpperror.TppMessageInformation) *tpperror.ErrorHolder {
	first := messages[0].Code
	m.metrics.ObserveConnectorError(string(service), string(first))
	return &tpperror.ErrorHolder{
		ErrorType:   tpperror.ErrorTypeFor(service, first),
		TppMessages: messages,
	}
}

func translate(code codes.MessageErrorCode, service tpperror.ServiceType) codes.MessageErrorCode {
	if resolved, ok := unsuffixed[code]; ok {
		code = resolved
	}
	table := resourceScoped
	if service.IsConsentService() {
		table = consentScoped
	}
	if translated, ok := table[code]; ok {
		return translated
	}
	return code
}
