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

import "time"

// UserProfile is a platform user with every attribute the merge engine handles.
// The attr tag names the attribute in merge reports.
type UserProfile struct {
	Id                 int64      `json:"id" attr:"id"`
	Username           string     `json:"username" attr:"username"`
	Password           string     `json:"-" attr:"password"`
	LastLogin          *time.Time `json:"last_login,omitempty" attr:"last_login"`
	Title              string     `json:"title" attr:"title"`
	FirstName          string     `json:"first_name" attr:"first_name"`
	LastName           string     `json:"last_name" attr:"last_name"`
	Email              string     `json:"email" attr:"email"`
	IsSuperuser        bool       `json:"is_superuser" attr:"is_superuser"`
	LoginKey           *int64     `json:"-" attr:"login_key"`
	LoginKeyValidUntil *time.Time `json:"-" attr:"login_key_valid_until"`
	UserPermissions    []string   `json:"user_permissions,omitempty" attr:"user_permissions"`

	Groups                 []int64 `json:"groups" attr:"groups"`
	Delegates              []int64 `json:"delegates" attr:"delegates"`
	RepresentedUsers       []int64 `json:"represented_users" attr:"represented_users"`
	CcUsers                []int64 `json:"cc_users" attr:"cc_users"`
	CcingUsers             []int64 `json:"ccing_users" attr:"ccing_users"`
	CoursesParticipatingIn []int64 `json:"courses_participating_in" attr:"courses_participating_in"`
	CoursesVotedFor        []int64 `json:"courses_voted_for" attr:"courses_voted_for"`

	Contributions          []Contribution          `json:"contributions" attr:"contributions"`
	RewardPointGrantings   []RewardPointGranting   `json:"reward_point_grantings" attr:"reward_point_grantings"`
	RewardPointRedemptions []RewardPointRedemption `json:"reward_point_redemptions" attr:"reward_point_redemptions"`
	CoursesLastModified    []int64                 `json:"courses_last_modified" attr:"courses_last_modified"`
	// GradeDocumentsLastModified holds ids of grade documents last edited by the profile.
	GradeDocumentsLastModified []int64 `json:"grade_documents_last_modified" attr:"grade_documents_last_modified"`
}

// Contribution links a contributor to one course.
type Contribution struct {
	Id       int64 `json:"id"`
	CourseId int64 `json:"course_id"`
}

type RewardPointGranting struct {
	Id    int64 `json:"id"`
	Value int   `json:"value"`
}

type RewardPointRedemption struct {
	Id    int64 `json:"id"`
	Value int   `json:"value"`
}

// ContributionIds returns the ids of the profile's contributions in order.
func (p *UserProfile) ContributionIds() []int64 {
	ids := make([]int64, 0, len(p.Contributions))
	for _, c := range p.Contributions {
		ids = append(ids, c.Id)
	}
	return ids
}

func (p *UserProfile) RewardPointGrantingIds() []int64 {
	ids := make([]int64, 0, len(p.RewardPointGrantings))
	for _, g := range p.RewardPointGrantings {
		ids = append(ids, g.Id)
	}
	return ids
}

func (p *UserProfile) RewardPointRedemptionIds() []int64 {
	ids := make([]int64, 0, len(p.RewardPointRedemptions))
	for _, r := range p.RewardPointRedemptions {
		ids = append(ids, r.Id)
	}
	return ids
}
