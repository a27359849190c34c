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

package errors

const errorPrefix = "UMS-"

var (
	// Server error codes

	DB_CLIENT_INIT = ErrorMessage{
		Code:    errorPrefix + "15001",
		Message: "Unable to initialize database client.",
	}

	EXECUTE_QUERY = ErrorMessage{
		Code:    errorPrefix + "15002",
		Message: "Error while executing the database query.",
	}

	TRANSACTION_FAILED = ErrorMessage{
		Code:    errorPrefix + "15003",
		Message: "Database transaction failed.",
	}

	LOCK_ACQUIRE = ErrorMessage{
		Code:    errorPrefix + "15004",
		Message: "Advisory lock acquisition failed",
	}

	LOCK_KEY_GEN = ErrorMessage{
		Code:    errorPrefix + "15005",
		Message: "Error generating advisory lock key",
	}

	GET_USER_PROFILE = ErrorMessage{
		Code:    errorPrefix + "15006",
		Message: "Fetching user profile failed.",
	}

	MERGE_USER_PROFILES = ErrorMessage{
		Code:    errorPrefix + "15007",
		Message: "Merging user profiles failed.",
	}

	ADD_MERGE_RECORD = ErrorMessage{
		Code:    errorPrefix + "15008",
		Message: "Error while recording the user merge.",
	}

	ARCHIVE_MERGE_RECORD = ErrorMessage{
		Code:    errorPrefix + "15009",
		Message: "Error while archiving the user merge.",
	}

	MARSHAL_JSON = ErrorMessage{
		Code:    errorPrefix + "15010",
		Message: "Error while marshalling JSON.",
	}

	MIGRATE_DATABASE = ErrorMessage{
		Code:    errorPrefix + "15011",
		Message: "Database migration failed.",
	}

	// Client error codes

	USER_PROFILE_NOT_FOUND = ErrorMessage{
		Code:        errorPrefix + "11001",
		Message:     "User profile not found.",
		Description: "No user profile record found for the given id.",
	}

	INVALID_MERGE_REQUEST = ErrorMessage{
		Code:    errorPrefix + "11002",
		Message: "Invalid merge request.",
	}

	MERGE_IN_PROGRESS = ErrorMessage{
		Code:        errorPrefix + "11003",
		Message:     "Merge already in progress.",
		Description: "Another merge holds one of the given user profiles.",
	}
)
