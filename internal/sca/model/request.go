package model

// PsuData carries the PSU password of an embedded authorisation.
type PsuData struct {
	Password string `json:"password,omitempty"`
}

// UpdatePsuDataRequest is the body of the start and update authorisation endpoints. All
// fields are optional; which ones are required depends on the authorisation stage.
type UpdatePsuDataRequest struct {
	PsuData                *PsuData `json:"psuData,omitempty"`
	ScaAuthenticationData  string   `json:"scaAuthenticationData,omitempty"`
	AuthenticationMethodID string   `json:"authenticationMethodId,omitempty"`
	ConfirmationCode       string   `json:"confirmationCode,omitempty"`
}

// ToUpdateData combines the body with the PSU identified by the request headers.
func (r UpdatePsuDataRequest) ToUpdateData(psu PsuIdData) UpdateData {
	update := UpdateData{
		Psu:                    psu,
		ScaAuthenticationData:  r.ScaAuthenticationData,
		AuthenticationMethodID: r.AuthenticationMethodID,
		ConfirmationCode:       r.ConfirmationCode,
	}
	if r.PsuData != nil {
		update.Password = r.PsuData.Password
	}
	return update
}
