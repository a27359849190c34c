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

type conflictPredicate struct {
	tag   string
	holds func(main, other *profileModel.UserProfile) bool
}

// Hard errors, checked in this order.
var errorPredicates = []conflictPredicate{
	{tag: constants.ErrorTagContributions, holds: sharesContributedCourse},
	{tag: constants.ErrorTagCoursesParticipatingIn, holds: sharesParticipatedCourse},
}

// Warnings, checked in this order.
var warningPredicates = []conflictPredicate{
	{tag: constants.WarningTagRewards, holds: holdsRewardPoints},
}

// detectConflicts reports the hard errors that block merging the two profiles and the warnings
// that do not. It never mutates its inputs and every tag appears at most once.
func detectConflicts(main, other *profileModel.UserProfile) (errs, warnings []string) {
	errs = evaluate(errorPredicates, main, other)
	warnings = evaluate(warningPredicates, main, other)
	return errs, warnings
}

func evaluate(predicates []conflictPredicate, main, other *profileModel.UserProfile) []string {
	tags := []string{}
	for _, predicate := range predicates {
		if predicate.holds(main, other) {
			tags = append(tags, predicate.tag)
		}
	}
	return tags
}

// sharesContributedCourse holds when both profiles contribute to the same course.
func sharesContributedCourse(main, other *profileModel.UserProfile) bool {
	return len(shared(contributedCourses(main), contributedCourses(other))) > 0
}

func sharesParticipatedCourse(main, other *profileModel.UserProfile) bool {
	return len(shared(main.CoursesParticipatingIn, other.CoursesParticipatingIn)) > 0
}

func holdsRewardPoints(main, other *profileModel.UserProfile) bool {
	return len(main.RewardPointGrantings) > 0 || len(other.RewardPointGrantings) > 0 ||
		len(main.RewardPointRedemptions) > 0 || len(other.RewardPointRedemptions) > 0
}

func contributedCourses(profile *profileModel.UserProfile) []int64 {
	courses := make([]int64, 0, len(profile.Contributions))
	for _, contribution := range profile.Contributions {
		courses = append(courses, contribution.CourseId)
	}
	return courses
}
