package model

// Href is a hypermedia link.
type Href struct {
	Href string `json:"href"`
}

// Links are the hypermedia links of an authorisation response.
type Links struct {
	ScaRedirect                *Href `json:"scaRedirect,omitempty"`
	ScaStatus                  *Href `json:"scaStatus,omitempty"`
	UpdatePsuAuthentication    *Href `json:"updatePsuAuthentication,omitempty"`
	SelectAuthenticationMethod *Href `json:"selectAuthenticationMethod,omitempty"`
	AuthoriseTransaction       *Href `json:"authoriseTransaction,omitempty"`
	ConfirmAuthorisation       *Href `json:"confirmation,omitempty"`
}

// AuthorisationResponse is the outcome of creating or updating an authorisation.
type AuthorisationResponse struct {
	AuthorisationID   string                 `json:"authorisationId"`
	ScaStatus         ScaStatus              `json:"scaStatus"`
	ChosenScaApproach ScaApproach            `json:"-"`
	PsuMessage        string                 `json:"psuMessage,omitempty"`
	ScaMethods        []AuthenticationObject `json:"scaMethods,omitempty"`
	ChosenScaMethod   *AuthenticationObject  `json:"chosenScaMethod,omitempty"`
	ChallengeData     *ChallengeData         `json:"challengeData,omitempty"`
	ResourceStatus    string                 `json:"-"`
	Links             *Links                 `json:"_links,omitempty"`
}

// ScaStatusResponse is the body of an SCA status read.
type ScaStatusResponse struct {
	ScaStatus      ScaStatus `json:"scaStatus"`
	PsuMessage     string    `json:"psuMessage,omitempty"`
	ResourceStatus string    `json:"-"`
}

// AuthorisationListResponse lists the authorisation ids of a resource.
type AuthorisationListResponse struct {
	AuthorisationIDs []string `json:"authorisationIds"`
}

// AddLinks sets the status link and the link of the next step under authorisationPath. A
// redirect link set by the processor is kept.
func (r *AuthorisationResponse) AddLinks(authorisationPath string) {
	if r.Links == nil {
		r.Links = &Links{}
	}
	self := &Href{Href: authorisationPath}
	r.Links.ScaStatus = self
	switch r.ScaStatus {
	case ScaStatusReceived, ScaStatusPsuIdentified:
		if r.ChosenScaApproach != ApproachRedirect {
			r.Links.UpdatePsuAuthentication = self
		}
	case ScaStatusPsuAuthenticated:
		if len(r.ScaMethods) > 0 {
			r.Links.SelectAuthenticationMethod = self
		}
	case ScaStatusScaMethodSelected:
		if r.ChosenScaApproach == ApproachEmbedded {
			r.Links.AuthoriseTransaction = self
		}
	case ScaStatusUnconfirmed:
		r.Links.ConfirmAuthorisation = self
	}
}
