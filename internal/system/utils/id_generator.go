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

package utils

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// GenerateUUID generates a random UUID string.
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateRedirectID generates the opaque id embedded in redirect links.
func GenerateRedirectID() string {
	return uuid.New().String()
}

// EncodeResourceID produces the URL-safe form of a resource id used in redirect links.
func EncodeResourceID(resourceID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(resourceID))
}
