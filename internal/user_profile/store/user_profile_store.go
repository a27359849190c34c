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

package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/evap/user-merge-service/internal/system/database/client"
	"github.com/evap/user-merge-service/internal/system/errors"
	"github.com/evap/user-merge-service/internal/system/log"
	"github.com/evap/user-merge-service/internal/user_profile/model"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"
)

const userProfilesTable = "user_profiles"

var userProfileColumns = []string{
	"id", "username", "password", "last_login", "title", "first_name", "last_name",
	"email", "is_superuser", "login_key", "login_key_valid_until", "user_permissions",
}

// UserProfileStoreInterface is the relation access layer of the merge engine.
// Every method runs on the given querier so callers decide the transaction.
type UserProfileStoreInterface interface {
	GetUserProfile(ctx context.Context, q client.Querier, userProfileId int64) (*model.UserProfile, error)
	GetUserProfileByUsername(ctx context.Context, q client.Querier, username string) (*model.UserProfile, error)
	LockUserProfiles(ctx context.Context, q client.Querier, userProfileIds ...int64) ([]int64, error)
	UpdateUserProfileFields(ctx context.Context, q client.Querier, profile *model.UserProfile) error
	ListRelation(ctx context.Context, q client.Querier, relation model.Relation, ownerId int64) ([]int64, error)
	AddToRelation(ctx context.Context, q client.Querier, relation model.Relation, ownerId int64, targetIds []int64) error
	RemoveFromRelation(ctx context.Context, q client.Querier, relation model.Relation, ownerId int64) error
	RemoveRelationEntries(ctx context.Context, q client.Querier, relation model.Relation, ownerId int64, targetIds []int64) error
	ReassignOwner(ctx context.Context, q client.Querier, ownership model.Ownership, fromId, toId int64) ([]int64, error)
	DeleteUserProfile(ctx context.Context, q client.Querier, userProfileId int64) error
}

// UserProfileStore implements UserProfileStoreInterface on PostgreSQL.
type UserProfileStore struct{}

func NewUserProfileStore() UserProfileStoreInterface {
	return &UserProfileStore{}
}

// GetUserProfile loads a full snapshot of a profile. It returns nil when no profile has the id.
func (s *UserProfileStore) GetUserProfile(ctx context.Context, q client.Querier,
	userProfileId int64) (*model.UserProfile, error) {

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(userProfileColumns...)
	sb.From(userProfilesTable)
	sb.Where(sb.Equal("id", userProfileId))
	return s.getUserProfile(ctx, q, sb, fmt.Sprintf("id %d", userProfileId))
}

// GetUserProfileByUsername loads a full snapshot of the profile with the username, or nil.
func (s *UserProfileStore) GetUserProfileByUsername(ctx context.Context, q client.Querier,
	username string) (*model.UserProfile, error) {

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(userProfileColumns...)
	sb.From(userProfilesTable)
	sb.Where(sb.Equal("username", username))
	return s.getUserProfile(ctx, q, sb, fmt.Sprintf("username %s", username))
}

func (s *UserProfileStore) getUserProfile(ctx context.Context, q client.Querier, sb *sqlbuilder.SelectBuilder,
	lookup string) (*model.UserProfile, error) {

	logger := log.GetLogger()
	query, args := sb.Build()
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeError(errors.GET_USER_PROFILE, fmt.Sprintf("Failed to fetch user profile with %s", lookup), err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, storeError(errors.GET_USER_PROFILE, fmt.Sprintf("Failed to fetch user profile with %s", lookup), err)
		}
		logger.Debug(fmt.Sprintf("No user profile found with %s", lookup))
		return nil, nil
	}
	profile, err := scanUserProfile(rows)
	if err != nil {
		return nil, storeError(errors.GET_USER_PROFILE, fmt.Sprintf("Failed to scan user profile with %s", lookup), err)
	}
	_ = rows.Close()

	if err := s.loadRelations(ctx, q, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func scanUserProfile(rows *sql.Rows) (*model.UserProfile, error) {
	var (
		profile            model.UserProfile
		lastLogin          sql.NullTime
		loginKey           sql.NullInt64
		loginKeyValidUntil sql.NullTime
		permissions        []string
	)
	err := rows.Scan(&profile.Id, &profile.Username, &profile.Password, &lastLogin, &profile.Title,
		&profile.FirstName, &profile.LastName, &profile.Email, &profile.IsSuperuser, &loginKey,
		&loginKeyValidUntil, pq.Array(&permissions))
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		profile.LastLogin = &lastLogin.Time
	}
	if loginKey.Valid {
		profile.LoginKey = &loginKey.Int64
	}
	if loginKeyValidUntil.Valid {
		profile.LoginKeyValidUntil = &loginKeyValidUntil.Time
	}
	profile.UserPermissions = permissions
	return &profile, nil
}

func (s *UserProfileStore) loadRelations(ctx context.Context, q client.Querier, profile *model.UserProfile) error {

	for _, relation := range model.Relations {
		ids, err := s.ListRelation(ctx, q, relation, profile.Id)
		if err != nil {
			return err
		}
		profile.SetRelationIds(relation, ids)
	}

	query, args := ownedRowsQuery(model.ContributionsOwnership, profile.Id, "course_id")
	contributions, err := client.QueryRows(ctx, q, query, args...)
	if err != nil {
		return storeError(errors.GET_USER_PROFILE,
			fmt.Sprintf("Failed to fetch contributions of user profile %d", profile.Id), err)
	}
	profile.Contributions = make([]model.Contribution, 0, len(contributions))
	for _, row := range contributions {
		profile.Contributions = append(profile.Contributions, model.Contribution{
			Id:       row["id"].(int64),
			CourseId: row["course_id"].(int64),
		})
	}

	query, args = ownedRowsQuery(model.RewardPointGrantingsOwnership, profile.Id, "value")
	grantings, err := client.QueryRows(ctx, q, query, args...)
	if err != nil {
		return storeError(errors.GET_USER_PROFILE,
			fmt.Sprintf("Failed to fetch reward point grantings of user profile %d", profile.Id), err)
	}
	profile.RewardPointGrantings = make([]model.RewardPointGranting, 0, len(grantings))
	for _, row := range grantings {
		profile.RewardPointGrantings = append(profile.RewardPointGrantings, model.RewardPointGranting{
			Id:    row["id"].(int64),
			Value: int(row["value"].(int64)),
		})
	}

	query, args = ownedRowsQuery(model.RewardPointRedemptionsOwnership, profile.Id, "value")
	redemptions, err := client.QueryRows(ctx, q, query, args...)
	if err != nil {
		return storeError(errors.GET_USER_PROFILE,
			fmt.Sprintf("Failed to fetch reward point redemptions of user profile %d", profile.Id), err)
	}
	profile.RewardPointRedemptions = make([]model.RewardPointRedemption, 0, len(redemptions))
	for _, row := range redemptions {
		profile.RewardPointRedemptions = append(profile.RewardPointRedemptions, model.RewardPointRedemption{
			Id:    row["id"].(int64),
			Value: int(row["value"].(int64)),
		})
	}

	query, args = ownedRowsQuery(model.CoursesLastModifiedOwnership, profile.Id)
	profile.CoursesLastModified, err = client.QueryInt64s(ctx, q, query, args...)
	if err != nil {
		return storeError(errors.GET_USER_PROFILE,
			fmt.Sprintf("Failed to fetch courses last modified by user profile %d", profile.Id), err)
	}

	query, args = ownedRowsQuery(model.GradeDocumentsLastModifiedOwnership, profile.Id)
	profile.GradeDocumentsLastModified, err = client.QueryInt64s(ctx, q, query, args...)
	if err != nil {
		return storeError(errors.GET_USER_PROFILE,
			fmt.Sprintf("Failed to fetch grade documents last modified by user profile %d", profile.Id), err)
	}
	return nil
}

// ownedRowsQuery selects the id and the given columns of the rows the owner holds, in id order.
func ownedRowsQuery(ownership model.Ownership, ownerId int64, columns ...string) (string, []interface{}) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(append([]string{"id"}, columns...)...)
	sb.From(ownership.Table)
	sb.Where(sb.Equal(ownership.OwnerColumn, ownerId))
	sb.OrderBy("id")
	return sb.Build()
}

// LockUserProfiles takes row locks on the profiles in id order and returns the ids that exist.
func (s *UserProfileStore) LockUserProfiles(ctx context.Context, q client.Querier,
	userProfileIds ...int64) ([]int64, error) {

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id")
	sb.From(userProfilesTable)
	sb.Where(sb.In("id", sqlbuilder.Flatten(userProfileIds)...))
	sb.OrderBy("id")
	sb.ForUpdate()

	query, args := sb.Build()
	ids, err := client.QueryInt64s(ctx, q, query, args...)
	if err != nil {
		return nil, storeError(errors.LOCK_ACQUIRE, fmt.Sprintf("Failed to lock user profiles %v", userProfileIds), err)
	}
	return ids, nil
}

// UpdateUserProfileFields writes the merged scalar fields of the profile.
func (s *UserProfileStore) UpdateUserProfileFields(ctx context.Context, q client.Querier,
	profile *model.UserProfile) error {

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(userProfilesTable)
	ub.Set(
		ub.Assign("title", profile.Title),
		ub.Assign("first_name", profile.FirstName),
		ub.Assign("last_name", profile.LastName),
		ub.Assign("email", profile.Email),
		ub.Assign("is_superuser", profile.IsSuperuser),
	)
	ub.Where(ub.Equal("id", profile.Id))

	query, args := ub.Build()
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return storeError(errors.MERGE_USER_PROFILES, fmt.Sprintf("Failed to update user profile %d", profile.Id), err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return storeError(errors.MERGE_USER_PROFILES, fmt.Sprintf("Failed to update user profile %d", profile.Id),
			sql.ErrNoRows)
	}
	return nil
}

// ListRelation returns the targets of the owner in a relation family, in insertion order.
func (s *UserProfileStore) ListRelation(ctx context.Context, q client.Querier, relation model.Relation,
	ownerId int64) ([]int64, error) {

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(relation.TargetColumn)
	sb.From(relation.Table)
	sb.Where(sb.Equal(relation.OwnerColumn, ownerId))
	sb.OrderBy("id")

	query, args := sb.Build()
	ids, err := client.QueryInt64s(ctx, q, query, args...)
	if err != nil {
		return nil, storeError(errors.GET_USER_PROFILE,
			fmt.Sprintf("Failed to list %s of user profile %d", relation.Attribute, ownerId), err)
	}
	return ids, nil
}

// AddToRelation appends targets to the owner's relation. Pairs that already exist are left untouched.
func (s *UserProfileStore) AddToRelation(ctx context.Context, q client.Querier, relation model.Relation,
	ownerId int64, targetIds []int64) error {

	if len(targetIds) == 0 {
		return nil
	}
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(relation.Table)
	ib.Cols(relation.OwnerColumn, relation.TargetColumn)
	for _, targetId := range targetIds {
		ib.Values(ownerId, targetId)
	}

	query, args := ib.Build()
	query += " ON CONFLICT DO NOTHING"
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return storeError(errors.MERGE_USER_PROFILES,
			fmt.Sprintf("Failed to add %v to %s of user profile %d", targetIds, relation.Attribute, ownerId), err)
	}
	return nil
}

// RemoveFromRelation removes every row the owner holds in a relation family.
func (s *UserProfileStore) RemoveFromRelation(ctx context.Context, q client.Querier, relation model.Relation,
	ownerId int64) error {

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom(relation.Table)
	db.Where(db.Equal(relation.OwnerColumn, ownerId))

	query, args := db.Build()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return storeError(errors.MERGE_USER_PROFILES,
			fmt.Sprintf("Failed to clear %s of user profile %d", relation.Attribute, ownerId), err)
	}
	return nil
}

// RemoveRelationEntries deletes the owner's rows pointing at any of the targets.
func (s *UserProfileStore) RemoveRelationEntries(ctx context.Context, q client.Querier, relation model.Relation,
	ownerId int64, targetIds []int64) error {

	if len(targetIds) == 0 {
		return nil
	}
	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom(relation.Table)
	db.Where(
		db.Equal(relation.OwnerColumn, ownerId),
		db.In(relation.TargetColumn, sqlbuilder.Flatten(targetIds)...),
	)

	query, args := db.Build()
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return storeError(errors.MERGE_USER_PROFILES,
			fmt.Sprintf("Failed to remove entries %v from %s of user profile %d", targetIds, relation.Attribute,
				ownerId), err)
	}
	return nil
}

// ReassignOwner moves every row owned by fromId to toId and returns the moved row ids in id order.
func (s *UserProfileStore) ReassignOwner(ctx context.Context, q client.Querier, ownership model.Ownership,
	fromId, toId int64) ([]int64, error) {

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(ownership.Table)
	ub.Set(ub.Assign(ownership.OwnerColumn, toId))
	ub.Where(ub.Equal(ownership.OwnerColumn, fromId))

	query, args := ub.Build()
	query += " RETURNING id"
	ids, err := client.QueryInt64s(ctx, q, query, args...)
	if err != nil {
		return nil, storeError(errors.MERGE_USER_PROFILES,
			fmt.Sprintf("Failed to reassign %s from user profile %d to %d", ownership.Attribute, fromId, toId), err)
	}
	slices.Sort(ids)
	return ids, nil
}

// DeleteUserProfile removes the profile. Rows still referencing it are removed by cascade.
func (s *UserProfileStore) DeleteUserProfile(ctx context.Context, q client.Querier, userProfileId int64) error {

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom(userProfilesTable)
	db.Where(db.Equal("id", userProfileId))

	query, args := db.Build()
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return storeError(errors.MERGE_USER_PROFILES, fmt.Sprintf("Failed to delete user profile %d", userProfileId), err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return storeError(errors.MERGE_USER_PROFILES, fmt.Sprintf("Failed to delete user profile %d", userProfileId),
			sql.ErrNoRows)
	}
	log.GetLogger().Debug("Deleted user profile", log.Int64("user_profile_id", userProfileId))
	return nil
}

func storeError(msg errors.ErrorMessage, description string, cause error) error {
	log.GetLogger().Debug(description, log.Error(cause))
	return errors.NewServerError(errors.WithDescription(msg, description), pkgerrors.Wrap(cause, description))
}
