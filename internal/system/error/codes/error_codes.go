/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package codes

import (
	"net/http"
	"strings"
)

// MessageErrorCode is a Berlin Group TPP message code. Codes that exist with several HTTP
// statuses carry the status as a suffix so that each value maps to exactly one status.
type MessageErrorCode string

// Berlin Group message codes used by the authorisation flows
const (
	FormatError            MessageErrorCode = "FORMAT_ERROR"
	ParameterNotSupported  MessageErrorCode = "PARAMETER_NOT_SUPPORTED"
	ConsentUnknown400      MessageErrorCode = "CONSENT_UNKNOWN_400"
	ResourceUnknown400     MessageErrorCode = "RESOURCE_UNKNOWN_400"
	ScaMethodUnknown       MessageErrorCode = "SCA_METHOD_UNKNOWN"
	ScaInvalid             MessageErrorCode = "SCA_INVALID"
	PsuCredentialsInvalid  MessageErrorCode = "PSU_CREDENTIALS_INVALID"
	ConsentInvalid         MessageErrorCode = "CONSENT_INVALID"
	ConsentExpired         MessageErrorCode = "CONSENT_EXPIRED"
	ConsentUnknown403      MessageErrorCode = "CONSENT_UNKNOWN_403"
	ResourceUnknown403     MessageErrorCode = "RESOURCE_UNKNOWN_403"
	ServiceBlocked         MessageErrorCode = "SERVICE_BLOCKED"
	ProductInvalid         MessageErrorCode = "PRODUCT_INVALID"
	ForbiddenIncorrectFlow MessageErrorCode = "FORBIDDEN_INCORRECT_FLOW"
	ResourceUnknown404     MessageErrorCode = "RESOURCE_UNKNOWN_404"
	ServiceInvalid405      MessageErrorCode = "SERVICE_INVALID_405"
	StatusInvalid          MessageErrorCode = "STATUS_INVALID"
	AccessExceeded         MessageErrorCode = "ACCESS_EXCEEDED"
	InternalServerError    MessageErrorCode = "INTERNAL_SERVER_ERROR"
)

var httpStatuses = map[MessageErrorCode]int{
	FormatError:            http.StatusBadRequest,
	ParameterNotSupported:  http.StatusBadRequest,
	ConsentUnknown400:      http.StatusBadRequest,
	ResourceUnknown400:     http.StatusBadRequest,
	ScaMethodUnknown:       http.StatusBadRequest,
	ScaInvalid:             http.StatusBadRequest,
	PsuCredentialsInvalid:  http.StatusUnauthorized,
	ConsentInvalid:         http.StatusUnauthorized,
	ConsentExpired:         http.StatusUnauthorized,
	ConsentUnknown403:      http.StatusForbidden,
	ResourceUnknown403:     http.StatusForbidden,
	ServiceBlocked:         http.StatusForbidden,
	ProductInvalid:         http.StatusForbidden,
	ForbiddenIncorrectFlow: http.StatusForbidden,
	ResourceUnknown404:     http.StatusNotFound,
	ServiceInvalid405:      http.StatusMethodNotAllowed,
	StatusInvalid:          http.StatusConflict,
	AccessExceeded:         http.StatusTooManyRequests,
	InternalServerError:    http.StatusInternalServerError,
}

var defaultTexts = map[MessageErrorCode]string{
	FormatError:            "Format of certain request fields are not matching the XS2A requirements",
	ParameterNotSupported:  "The parameter is not supported by the API provider",
	ConsentUnknown400:      "The consent ID cannot be matched by the ASPSP relative to the TPP",
	ResourceUnknown400:     "The addressed resource is unknown relative to the TPP",
	ScaMethodUnknown:       "Addressed SCA method in the Authentication Method Select Request is unknown",
	ScaInvalid:             "Authorisation data is not valid",
	PsuCredentialsInvalid:  "The PSU-ID cannot be matched by the addressed ASPSP or is blocked",
	ConsentInvalid:         "The consent was created by this TPP but is not valid for the addressed service/resource",
	ConsentExpired:         "The consent was created by this TPP but has expired and needs to be renewed",
	ConsentUnknown403:      "The consent ID cannot be matched by the ASPSP relative to the TPP",
	ResourceUnknown403:     "The addressed resource is unknown relative to the TPP",
	ServiceBlocked:         "This service is not reachable for the addressed PSU due to a channel independent blocking",
	ProductInvalid:         "The addressed payment product is not available for the PSU",
	ForbiddenIncorrectFlow: "The payment cannot be cancelled in its current state",
	ResourceUnknown404:     "The addressed resource is unknown relative to the TPP",
	ServiceInvalid405:      "The addressed service is not valid for the addressed resources",
	StatusInvalid:          "The addressed resource does not allow additional authorisation",
	AccessExceeded:         "The access on the account has been exceeding the consented multiplicity per day",
	InternalServerError:    "An internal server error occurred",
}

// Known reports whether the code belongs to the catalogue.
func (c MessageErrorCode) Known() bool {
	_, ok := httpStatuses[c]
	return ok
}

// HTTPStatus returns the intrinsic HTTP status of the code. Unknown codes are server errors.
func (c MessageErrorCode) HTTPStatus() int {
	if status, ok := httpStatuses[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Name returns the wire representation, dropping the disambiguating status suffix.
func (c MessageErrorCode) Name() string {
	s := string(c)
	for _, suffix := range []string{"_400", "_403", "_404", "_405"} {
		if strings.HasSuffix(s, suffix) {
			return strings.TrimSuffix(s, suffix)
		}
	}
	return s
}

// DefaultText returns the standard message text of the code.
func (c MessageErrorCode) DefaultText() string {
	if text, ok := defaultTexts[c]; ok {
		return text
	}
	return defaultTexts[InternalServerError]
}
