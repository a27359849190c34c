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

package model

// Attribute names used in merge reports.
const (
	AttrId                     = "id"
	AttrUsername               = "username"
	AttrPassword               = "password"
	AttrLastLogin              = "last_login"
	AttrTitle                  = "title"
	AttrFirstName              = "first_name"
	AttrLastName               = "last_name"
	AttrEmail                  = "email"
	AttrIsSuperuser            = "is_superuser"
	AttrLoginKey               = "login_key"
	AttrLoginKeyValidUntil     = "login_key_valid_until"
	AttrUserPermissions        = "user_permissions"
	AttrGroups                 = "groups"
	AttrDelegates              = "delegates"
	AttrRepresentedUsers       = "represented_users"
	AttrCcUsers                = "cc_users"
	AttrCcingUsers             = "ccing_users"
	AttrCoursesParticipatingIn = "courses_participating_in"
	AttrCoursesVotedFor        = "courses_voted_for"
	AttrContributions          = "contributions"
	AttrRewardPointGrantings   = "reward_point_grantings"
	AttrRewardPointRedemptions = "reward_point_redemptions"
	AttrCoursesLastModified    = "courses_last_modified"
	AttrGradeDocumentsModified = "grade_documents_last_modified"
)

// Relation describes a many-to-many family stored in a through table.
// Inverse families share the table of their forward family with the columns swapped.
type Relation struct {
	Attribute       string
	Table           string
	OwnerColumn     string
	TargetColumn    string
	SelfReferential bool
}

// Ownership describes a one-to-many family whose rows carry the owner id in a column.
type Ownership struct {
	Attribute   string
	Table       string
	OwnerColumn string
}

var (
	GroupsRelation = Relation{
		Attribute: AttrGroups, Table: "user_profile_groups",
		OwnerColumn: "user_profile_id", TargetColumn: "group_id",
	}
	DelegatesRelation = Relation{
		Attribute: AttrDelegates, Table: "user_profile_delegates",
		OwnerColumn: "from_user_profile_id", TargetColumn: "to_user_profile_id", SelfReferential: true,
	}
	RepresentedUsersRelation = Relation{
		Attribute: AttrRepresentedUsers, Table: "user_profile_delegates",
		OwnerColumn: "to_user_profile_id", TargetColumn: "from_user_profile_id", SelfReferential: true,
	}
	CcUsersRelation = Relation{
		Attribute: AttrCcUsers, Table: "user_profile_cc_users",
		OwnerColumn: "from_user_profile_id", TargetColumn: "to_user_profile_id", SelfReferential: true,
	}
	CcingUsersRelation = Relation{
		Attribute: AttrCcingUsers, Table: "user_profile_cc_users",
		OwnerColumn: "to_user_profile_id", TargetColumn: "from_user_profile_id", SelfReferential: true,
	}
	CoursesParticipatingInRelation = Relation{
		Attribute: AttrCoursesParticipatingIn, Table: "course_participants",
		OwnerColumn: "user_profile_id", TargetColumn: "course_id",
	}
	CoursesVotedForRelation = Relation{
		Attribute: AttrCoursesVotedFor, Table: "course_voters",
		OwnerColumn: "user_profile_id", TargetColumn: "course_id",
	}
)

// Relations lists every many-to-many family in the order they are applied.
var Relations = []Relation{
	GroupsRelation,
	DelegatesRelation,
	RepresentedUsersRelation,
	CcUsersRelation,
	CcingUsersRelation,
	CoursesParticipatingInRelation,
	CoursesVotedForRelation,
}

var (
	ContributionsOwnership = Ownership{
		Attribute: AttrContributions, Table: "contributions", OwnerColumn: "contributor_id",
	}
	RewardPointGrantingsOwnership = Ownership{
		Attribute: AttrRewardPointGrantings, Table: "reward_point_grantings", OwnerColumn: "user_profile_id",
	}
	RewardPointRedemptionsOwnership = Ownership{
		Attribute: AttrRewardPointRedemptions, Table: "reward_point_redemptions", OwnerColumn: "user_profile_id",
	}
	CoursesLastModifiedOwnership = Ownership{
		Attribute: AttrCoursesLastModified, Table: "courses", OwnerColumn: "last_modified_user_id",
	}
	GradeDocumentsLastModifiedOwnership = Ownership{
		Attribute: AttrGradeDocumentsModified, Table: "grade_documents", OwnerColumn: "last_modified_user_id",
	}
)

// Ownerships lists every one-to-many family.
var Ownerships = []Ownership{
	ContributionsOwnership,
	RewardPointGrantingsOwnership,
	RewardPointRedemptionsOwnership,
	CoursesLastModifiedOwnership,
	GradeDocumentsLastModifiedOwnership,
}

// RelationIds returns the ordered target ids of a many-to-many family.
func (p *UserProfile) RelationIds(relation Relation) []int64 {
	switch relation.Attribute {
	case AttrGroups:
		return p.Groups
	case AttrDelegates:
		return p.Delegates
	case AttrRepresentedUsers:
		return p.RepresentedUsers
	case AttrCcUsers:
		return p.CcUsers
	case AttrCcingUsers:
		return p.CcingUsers
	case AttrCoursesParticipatingIn:
		return p.CoursesParticipatingIn
	case AttrCoursesVotedFor:
		return p.CoursesVotedFor
	}
	return nil
}

// SetRelationIds replaces the target ids of a many-to-many family.
func (p *UserProfile) SetRelationIds(relation Relation, ids []int64) {
	switch relation.Attribute {
	case AttrGroups:
		p.Groups = ids
	case AttrDelegates:
		p.Delegates = ids
	case AttrRepresentedUsers:
		p.RepresentedUsers = ids
	case AttrCcUsers:
		p.CcUsers = ids
	case AttrCcingUsers:
		p.CcingUsers = ids
	case AttrCoursesParticipatingIn:
		p.CoursesParticipatingIn = ids
	case AttrCoursesVotedFor:
		p.CoursesVotedFor = ids
	}
}

// OwnedIds returns the ids of the rows the profile owns in a one-to-many family.
func (p *UserProfile) OwnedIds(ownership Ownership) []int64 {
	switch ownership.Attribute {
	case AttrContributions:
		return p.ContributionIds()
	case AttrRewardPointGrantings:
		return p.RewardPointGrantingIds()
	case AttrRewardPointRedemptions:
		return p.RewardPointRedemptionIds()
	case AttrCoursesLastModified:
		return p.CoursesLastModified
	case AttrGradeDocumentsModified:
		return p.GradeDocumentsLastModified
	}
	return nil
}
