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

type relationPlan struct {
	relation profileModel.Relation
	// result is the final sequence of the survivor, added the part of it taken from the absorbed profile.
	result []int64
	added  []int64
}

type ownershipPlan struct {
	ownership profileModel.Ownership
	kept      []int64
	moved     []int64
}

// mergePlan is everything the merge writes, computed from two locked snapshots without touching the store.
type mergePlan struct {
	main       *profileModel.UserProfile
	other      *profileModel.UserProfile
	fields     mergedFields
	relations  []relationPlan
	ownerships []ownershipPlan
}

func buildMergePlan(main, other *profileModel.UserProfile) *mergePlan {
	plan := &mergePlan{
		main:   main,
		other:  other,
		fields: mergeFields(main, other),
	}
	for _, relation := range profileModel.Relations {
		var exclude []int64
		if relation.SelfReferential {
			exclude = []int64{main.Id, other.Id}
		}
		result, added := orderedUnion(main.RelationIds(relation), other.RelationIds(relation), exclude...)
		plan.relations = append(plan.relations, relationPlan{relation: relation, result: result, added: added})
	}
	for _, ownership := range profileModel.Ownerships {
		plan.ownerships = append(plan.ownerships, ownershipPlan{
			ownership: ownership,
			kept:      main.OwnedIds(ownership),
			moved:     other.OwnedIds(ownership),
		})
	}
	return plan
}

// mergedUser renders the plan as attribute name to final value, one entry per row of the strategy table.
func (p *mergePlan) mergedUser() map[string]interface{} {
	merged := make(map[string]interface{}, len(attributeStrategies))
	for attribute, strategy := range attributeStrategies {
		switch strategy {
		case constants.MergeStrategyKeepMain, constants.MergeStrategyPreferNonEmpty, constants.MergeStrategyLogicalOr:
			merged[attribute] = p.fields.value(attribute)
		case constants.MergeStrategyOrderedUnion:
			merged[attribute] = p.relationResult(attribute)
		case constants.MergeStrategyReassignOwner:
			merged[attribute] = p.ownedResult(attribute)
		}
	}
	return merged
}

func (p *mergePlan) relationResult(attribute string) []int64 {
	for _, rp := range p.relations {
		if rp.relation.Attribute == attribute {
			return rp.result
		}
	}
	return []int64{}
}

func (p *mergePlan) ownedResult(attribute string) []int64 {
	for _, op := range p.ownerships {
		if op.ownership.Attribute == attribute {
			result, _ := orderedUnion(op.kept, op.moved)
			return result
		}
	}
	return []int64{}
}

// value returns a scalar attribute of the merged profile by name.
func (f mergedFields) value(attribute string) interface{} {
	switch attribute {
	case profileModel.AttrId:
		return f.Id
	case profileModel.AttrUsername:
		return f.Username
	case profileModel.AttrTitle:
		return f.Title
	case profileModel.AttrFirstName:
		return f.FirstName
	case profileModel.AttrLastName:
		return f.LastName
	case profileModel.AttrEmail:
		return f.Email
	case profileModel.AttrIsSuperuser:
		return f.IsSuperuser
	}
	return nil
}
