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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderedUnion(t *testing.T) {
	cases := []struct {
		name      string
		main      []int64
		other     []int64
		exclude   []int64
		wantUnion []int64
		wantAdded []int64
	}{
		{"disjoint", []int64{1, 2}, []int64{3}, nil, []int64{1, 2, 3}, []int64{3}},
		{"overlap keeps main position", []int64{10}, []int64{10, 11}, nil, []int64{10, 11}, []int64{11}},
		{"main empty", nil, []int64{5, 4}, nil, []int64{5, 4}, []int64{5, 4}},
		{"other empty", []int64{4, 5}, nil, nil, []int64{4, 5}, []int64{}},
		{"both empty", nil, nil, nil, []int64{}, []int64{}},
		{"duplicates inside inputs", []int64{1, 1, 2}, []int64{3, 3, 2}, nil, []int64{1, 2, 3}, []int64{3}},
		{"excluded ids are dropped", []int64{1, 7}, []int64{8, 2}, []int64{7, 8}, []int64{1, 2}, []int64{2}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			union, added := orderedUnion(c.main, c.other, c.exclude...)
			assert.Equal(t, c.wantUnion, union)
			assert.Equal(t, c.wantAdded, added)
		})
	}
}

func TestOrderedUnion_DoesNotModifyInputs(t *testing.T) {
	main := []int64{1, 2}
	other := []int64{2, 3}
	_, _ = orderedUnion(main, other)
	assert.Equal(t, []int64{1, 2}, main)
	assert.Equal(t, []int64{2, 3}, other)
}

func TestShared(t *testing.T) {
	assert.Equal(t, []int64{3, 1}, shared([]int64{3, 1, 3, 2}, []int64{1, 3}))
	assert.Empty(t, shared([]int64{1}, []int64{2}))
	assert.Empty(t, shared(nil, []int64{2}))
}
