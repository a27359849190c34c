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

// MergeResult is the outcome of a merge request. MergedUser is empty when Errors is not.
type MergeResult struct {
	MergeId    string                 `json:"merge_id,omitempty"`
	MergedUser map[string]interface{} `json:"merged_user"`
	Errors     []string               `json:"errors"`
	Warnings   []string               `json:"warnings"`
	Preview    bool                   `json:"preview,omitempty"`
}

// Succeeded reports whether the merge was not blocked by a hard error.
func (r *MergeResult) Succeeded() bool {
	return len(r.Errors) == 0
}

// MergeRecord is the history entry kept for every completed merge.
type MergeRecord struct {
	MergeId       string                 `json:"merge_id" bson:"_id"`
	MainUserId    int64                  `json:"main_user_id" bson:"main_user_id"`
	OtherUserId   int64                  `json:"other_user_id" bson:"other_user_id"`
	OtherUsername string                 `json:"other_username" bson:"other_username"`
	Initiator     string                 `json:"initiator" bson:"initiator"`
	Warnings      []string               `json:"warnings" bson:"warnings"`
	MergedUser    map[string]interface{} `json:"merged_user" bson:"merged_user"`
	MergedAt      time.Time              `json:"merged_at" bson:"merged_at"`
}
