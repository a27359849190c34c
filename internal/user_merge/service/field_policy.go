/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
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

package service

import (
	"strings"

	profileModel "github.com/evap/user-merge-service/internal/user_profile/model"
)

// mergedFields holds the scalar attributes of the surviving profile.
type mergedFields struct {
	Id          int64
	Username    string
	Title       string
	FirstName   string
	LastName    string
	Email       string
	IsSuperuser bool
}

// mergeFields resolves every scalar attribute of the merged profile. Main wins unless its value is blank.
func mergeFields(main, other *profileModel.UserProfile) mergedFields {
	return mergedFields{
		Id:          main.Id,
		Username:    main.Username,
		Title:       preferNonEmpty(main.Title, other.Title),
		FirstName:   preferNonEmpty(main.FirstName, other.FirstName),
		LastName:    preferNonEmpty(main.LastName, other.LastName),
		Email:       preferNonEmpty(main.Email, other.Email),
		IsSuperuser: main.IsSuperuser || other.IsSuperuser,
	}
}

// preferNonEmpty returns main unless it is blank. Whitespace only counts as blank.
func preferNonEmpty(main, other string) string {
	if isBlank(main) {
		return other
	}
	return main
}

func isBlank(value string) bool {
	return strings.TrimSpace(value) == ""
}

// apply writes the merged fields onto a copy of main.
func (f mergedFields) apply(main *profileModel.UserProfile) *profileModel.UserProfile {
	merged := *main
	merged.Title = f.Title
	merged.FirstName = f.FirstName
	merged.LastName = f.LastName
	merged.Email = f.Email
	merged.IsSuperuser = f.IsSuperuser
	return &merged
}
