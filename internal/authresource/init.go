// Package authresource persists the SCA authorisations of consents and payments.
package authresource

import (
	"github.com/wso2/xs2a-sca-engine/internal/system/database/provider"
	"github.com/wso2/xs2a-sca-engine/internal/system/stores/interfaces"
)

// NewStore creates the authorisation store for the store registry
func NewStore(dbClient provider.DBClientInterface) interfaces.AuthorisationStore {
	return newAuthorisationStore(dbClient)
}
