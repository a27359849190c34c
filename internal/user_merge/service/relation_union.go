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

import "slices"

// orderedUnion returns main's sequence followed by the entries of other not yet present.
// Duplicates are dropped and the relative order of both inputs is kept. Ids in exclude never
// appear in the result. added holds the entries taken from other, in result order.
func orderedUnion(main, other []int64, exclude ...int64) (result, added []int64) {
	seen := make(map[int64]struct{}, len(main)+len(other))
	for _, id := range exclude {
		seen[id] = struct{}{}
	}

	result = make([]int64, 0, len(main)+len(other))
	for _, id := range main {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	added = []int64{}
	for _, id := range other {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
		added = append(added, id)
	}
	return result, added
}

// shared returns the ids present in both sequences, in the order of a.
func shared(a, b []int64) []int64 {
	var common []int64
	for _, id := range a {
		if slices.Contains(b, id) && !slices.Contains(common, id) {
			common = append(common, id)
		}
	}
	return common
}
