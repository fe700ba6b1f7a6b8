package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/wso2/xs2a-sca-engine/internal/sca/model"
	"github.com/wso2/xs2a-sca-engine/internal/system/constants"
	"github.com/wso2/xs2a-sca-engine/internal/system/requestctx"
)

// RequestDataMiddleware copies the Berlin Group request headers into the request context.
// It must run after CorrelationIDMiddleware.
func RequestDataMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		data := &requestctx.RequestData{
			RequestID:  c.GetString(CorrelationIDKey),
			TppID:      c.GetHeader(constants.TppIDHeader),
			InstanceID: c.GetHeader(constants.InstanceIDHeader),
			Psu: model.PsuIdData{
				PsuID:              c.GetHeader(constants.PsuIDHeader),
				PsuIDType:          c.GetHeader(constants.PsuIDTypeHeader),
				PsuCorporateID:     c.GetHeader(constants.PsuCorporateIDHeader),
				PsuCorporateIDType: c.GetHeader(constants.PsuCorporateIDTypeHeader),
			},
			RedirectPreferred:  model.ParsePreference(c.GetHeader(constants.TppRedirectPreferredHeader)),
			DecoupledPreferred: model.ParsePreference(c.GetHeader(constants.TppDecoupledPreferredHeader)),
		}
		c.Request = c.Request.WithContext(requestctx.WithRequestData(c.Request.Context(), data))
		c.Next()
	}
}
