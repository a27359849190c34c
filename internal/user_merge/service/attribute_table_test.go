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
	"reflect"
	"sort"
	"testing"

	"github.com/evap/user-merge-service/internal/system/constants"
	profileModel "github.com/evap/user-merge-service/internal/user_profile/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func declaredAttributes(t *testing.T) []string {
	t.Helper()
	profileType := reflect.TypeOf(profileModel.UserProfile{})
	var attributes []string
	seen := map[string]bool{}
	for i := 0; i < profileType.NumField(); i++ {
		attribute, ok := profileType.Field(i).Tag.Lookup("attr")
		require.True(t, ok, "field %s has no attr tag", profileType.Field(i).Name)
		require.False(t, seen[attribute], "attribute %s declared twice", attribute)
		seen[attribute] = true
		attributes = append(attributes, attribute)
	}
	return attributes
}

// Every attribute of a user profile is either merged by a strategy or explicitly ignored.
func TestAttributeStrategies_CoverEveryAttribute(t *testing.T) {
	var expected []string
	for _, attribute := range declaredAttributes(t) {
		if _, ignored := ignoredAttributes[attribute]; !ignored {
			expected = append(expected, attribute)
		}
	}
	var handled []string
	for attribute := range attributeStrategies {
		handled = append(handled, attribute)
	}
	sort.Strings(expected)
	sort.Strings(handled)
	assert.Equal(t, expected, handled)
}

func TestAttributeStrategies_IgnoredAttributesAreDeclared(t *testing.T) {
	declared := map[string]bool{}
	for _, attribute := range declaredAttributes(t) {
		declared[attribute] = true
	}
	for attribute := range ignoredAttributes {
		assert.True(t, declared[attribute], attribute)
		assert.NotContains(t, attributeStrategies, attribute)
	}
}

func TestAttributeStrategies_MatchRelationDescriptors(t *testing.T) {
	for _, relation := range profileModel.Relations {
		assert.Equal(t, constants.MergeStrategyOrderedUnion, attributeStrategies[relation.Attribute], relation.Attribute)
	}
	for _, ownership := range profileModel.Ownerships {
		assert.Equal(t, constants.MergeStrategyReassignOwner, attributeStrategies[ownership.Attribute], ownership.Attribute)
	}
}

func TestMergedUser_HasOneEntryPerStrategy(t *testing.T) {
	plan := buildMergePlan(&profileModel.UserProfile{Id: 1}, &profileModel.UserProfile{Id: 2})
	merged := plan.mergedUser()

	require.Len(t, merged, len(attributeStrategies))
	for attribute := range attributeStrategies {
		assert.Contains(t, merged, attribute)
		assert.NotNil(t, merged[attribute], attribute)
	}
}
