package constants

const (
	ContentTypeHeaderName   = "Content-Type"
	CorrelationIDHeaderName = "X-Correlation-ID"
	RequestIDHeaderName     = "X-Request-ID"
	ContentTypeJSON         = "application/json"

	// Berlin Group request headers
	TppRedirectPreferredHeader  = "TPP-Redirect-Preferred"
	TppDecoupledPreferredHeader = "TPP-Decoupled-Preferred"
	TppIDHeader                 = "TPP-ID"
	PsuIDHeader                 = "PSU-ID"
	PsuIDTypeHeader             = "PSU-ID-Type"
	PsuCorporateIDHeader        = "PSU-Corporate-ID"
	PsuCorporateIDTypeHeader    = "PSU-Corporate-ID-Type"
	ConsentIDHeader             = "Consent-ID"
	InstanceIDHeader            = "X-Instance-ID"

	APIBasePath = "/v1"

	HeaderContentType = ContentTypeHeaderName
)
