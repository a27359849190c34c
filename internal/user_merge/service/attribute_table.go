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
	"github.com/evap/user-merge-service/internal/system/constants"
	profileModel "github.com/evap/user-merge-service/internal/user_profile/model"
)

// attributeStrategies assigns a merge strategy to every attribute of a user profile
// except the ignored ones. Adding an attribute to UserProfile without a row here fails the tests.
var attributeStrategies = map[string]string{
	profileModel.AttrUsername:               constants.MergeStrategyKeepMain,
	profileModel.AttrTitle:                  constants.MergeStrategyPreferNonEmpty,
	profileModel.AttrFirstName:              constants.MergeStrategyPreferNonEmpty,
	profileModel.AttrLastName:               constants.MergeStrategyPreferNonEmpty,
	profileModel.AttrEmail:                  constants.MergeStrategyPreferNonEmpty,
	profileModel.AttrIsSuperuser:            constants.MergeStrategyLogicalOr,
	profileModel.AttrGroups:                 constants.MergeStrategyOrderedUnion,
	profileModel.AttrDelegates:              constants.MergeStrategyOrderedUnion,
	profileModel.AttrRepresentedUsers:       constants.MergeStrategyOrderedUnion,
	profileModel.AttrCcUsers:                constants.MergeStrategyOrderedUnion,
	profileModel.AttrCcingUsers:             constants.MergeStrategyOrderedUnion,
	profileModel.AttrCoursesParticipatingIn: constants.MergeStrategyOrderedUnion,
	profileModel.AttrCoursesVotedFor:        constants.MergeStrategyOrderedUnion,
	profileModel.AttrContributions:          constants.MergeStrategyReassignOwner,
	profileModel.AttrRewardPointGrantings:   constants.MergeStrategyReassignOwner,
	profileModel.AttrRewardPointRedemptions: constants.MergeStrategyReassignOwner,
	profileModel.AttrCoursesLastModified:    constants.MergeStrategyReassignOwner,
	profileModel.AttrGradeDocumentsModified: constants.MergeStrategyReassignOwner,
}

// ignoredAttributes stay with the surviving profile untouched and are not reported.
var ignoredAttributes = map[string]struct{}{
	profileModel.AttrId:                 {},
	profileModel.AttrPassword:           {},
	profileModel.AttrLastLogin:          {},
	profileModel.AttrLoginKey:           {},
	profileModel.AttrLoginKeyValidUntil: {},
	profileModel.AttrUserPermissions:    {},
}
