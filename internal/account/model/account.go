package model

import (
	"github.com/wso2/xs2a-sca-engine/internal/spi"
)

// AccountDetailsResponse is the body of an account-details read.
type AccountDetailsResponse struct {
	Account spi.AccountDetails `json:"account"`
}
