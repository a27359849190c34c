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
	"context"
	"database/sql"
	"slices"
	"sort"

	"github.com/evap/user-merge-service/internal/system/database/client"
	"github.com/evap/user-merge-service/internal/user_merge/model"
	profileModel "github.com/evap/user-merge-service/internal/user_profile/model"
	pkgerrors "github.com/pkg/errors"
)

// fakeRow is a row of a through table or an owned table, keyed by column name.
type fakeRow struct {
	Id   int64
	Cols map[string]int64
}

type fakeState struct {
	profiles map[int64]profileModel.UserProfile
	tables   map[string][]fakeRow
	records  []model.MergeRecord
	nextId   int64
}

func (s *fakeState) clone() *fakeState {
	c := &fakeState{
		profiles: make(map[int64]profileModel.UserProfile, len(s.profiles)),
		tables:   make(map[string][]fakeRow, len(s.tables)),
		records:  slices.Clone(s.records),
		nextId:   s.nextId,
	}
	for id, p := range s.profiles {
		c.profiles[id] = p
	}
	for table, rows := range s.tables {
		copied := make([]fakeRow, 0, len(rows))
		for _, row := range rows {
			cols := make(map[string]int64, len(row.Cols))
			for k, v := range row.Cols {
				cols[k] = v
			}
			copied = append(copied, fakeRow{Id: row.Id, Cols: cols})
		}
		c.tables[table] = copied
	}
	return c
}

// fakeDB is an in-memory stand-in for the PostgreSQL schema. It implements the db client,
// the user profile store, the merge record store and the transaction lock, and restores its
// state when a transaction rolls back.
type fakeDB struct {
	state     *fakeState
	failOn    string
	writes    int
	commits   int
	rollbacks int
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		state: &fakeState{
			profiles: map[int64]profileModel.UserProfile{},
			tables:   map[string][]fakeRow{},
			nextId:   1,
		},
	}
}

func (f *fakeDB) id() int64 {
	id := f.state.nextId
	f.state.nextId++
	return id
}

func (f *fakeDB) fail(op string) error {
	if f.failOn == op {
		return pkgerrors.Errorf("injected failure in %s", op)
	}
	return nil
}

// Fixture helpers.

func (f *fakeDB) addUser(username string, edit func(p *profileModel.UserProfile)) int64 {
	p := profileModel.UserProfile{Id: f.id(), Username: username}
	if edit != nil {
		edit(&p)
	}
	f.state.profiles[p.Id] = p
	return p.Id
}

func (f *fakeDB) addCourse() int64 {
	id := f.id()
	f.state.tables["courses"] = append(f.state.tables["courses"], fakeRow{Id: id, Cols: map[string]int64{}})
	return id
}

func (f *fakeDB) relate(relation profileModel.Relation, ownerId int64, targetIds ...int64) {
	for _, targetId := range targetIds {
		f.state.tables[relation.Table] = append(f.state.tables[relation.Table], fakeRow{
			Id:   f.id(),
			Cols: map[string]int64{relation.OwnerColumn: ownerId, relation.TargetColumn: targetId},
		})
	}
}

func (f *fakeDB) addContribution(userId, courseId int64) int64 {
	id := f.id()
	f.state.tables["contributions"] = append(f.state.tables["contributions"], fakeRow{
		Id: id, Cols: map[string]int64{"contributor_id": userId, "course_id": courseId},
	})
	return id
}

func (f *fakeDB) addOwned(ownership profileModel.Ownership, userId int64, value int64) int64 {
	id := f.id()
	f.state.tables[ownership.Table] = append(f.state.tables[ownership.Table], fakeRow{
		Id: id, Cols: map[string]int64{ownership.OwnerColumn: userId, "value": value},
	})
	return id
}

func (f *fakeDB) setLastModified(courseId, userId int64) {
	for _, row := range f.state.tables["courses"] {
		if row.Id == courseId {
			row.Cols["last_modified_user_id"] = userId
		}
	}
}

func (f *fakeDB) addGradeDocument(lastModifiedBy int64) int64 {
	id := f.id()
	f.state.tables["grade_documents"] = append(f.state.tables["grade_documents"], fakeRow{
		Id: id, Cols: map[string]int64{"last_modified_user_id": lastModifiedBy},
	})
	return id
}

func (f *fakeDB) profile(id int64) *profileModel.UserProfile {
	p, _ := f.GetUserProfile(context.Background(), nil, id)
	return p
}

func (f *fakeDB) rowCount(table string) int {
	return len(f.state.tables[table])
}

// client.DBClientInterface

func (f *fakeDB) ExecuteQuery(context.Context, string, ...interface{}) ([]map[string]interface{}, error) {
	return nil, pkgerrors.New("not supported")
}

func (f *fakeDB) RunInTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context, q client.Querier) error) error {
	saved := f.state.clone()
	if err := fn(ctx, nil); err != nil {
		f.state = saved
		f.rollbacks++
		if pkgerrors.Is(err, client.ErrRollback) {
			return nil
		}
		return err
	}
	if err := f.fail("commit"); err != nil {
		f.state = saved
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

func (f *fakeDB) DB() *sql.DB {
	return nil
}

// lock.TransactionLock

func (f *fakeDB) TryAcquire(context.Context, client.Querier, string) (bool, error) {
	return true, nil
}

func (f *fakeDB) Acquire(context.Context, client.Querier, string) error {
	return nil
}

// store.UserProfileStoreInterface

func (f *fakeDB) GetUserProfile(ctx context.Context, q client.Querier, id int64) (*profileModel.UserProfile, error) {
	if err := f.fail("get"); err != nil {
		return nil, err
	}
	stored, ok := f.state.profiles[id]
	if !ok {
		return nil, nil
	}
	p := stored
	for _, relation := range profileModel.Relations {
		ids, _ := f.ListRelation(ctx, q, relation, id)
		p.SetRelationIds(relation, ids)
	}
	p.Contributions = []profileModel.Contribution{}
	for _, row := range f.ownedRows("contributions", "contributor_id", id) {
		p.Contributions = append(p.Contributions, profileModel.Contribution{Id: row.Id, CourseId: row.Cols["course_id"]})
	}
	p.RewardPointGrantings = []profileModel.RewardPointGranting{}
	for _, row := range f.ownedRows("reward_point_grantings", "user_profile_id", id) {
		p.RewardPointGrantings = append(p.RewardPointGrantings,
			profileModel.RewardPointGranting{Id: row.Id, Value: int(row.Cols["value"])})
	}
	p.RewardPointRedemptions = []profileModel.RewardPointRedemption{}
	for _, row := range f.ownedRows("reward_point_redemptions", "user_profile_id", id) {
		p.RewardPointRedemptions = append(p.RewardPointRedemptions,
			profileModel.RewardPointRedemption{Id: row.Id, Value: int(row.Cols["value"])})
	}
	p.CoursesLastModified = []int64{}
	for _, row := range f.ownedRows("courses", "last_modified_user_id", id) {
		p.CoursesLastModified = append(p.CoursesLastModified, row.Id)
	}
	p.GradeDocumentsLastModified = []int64{}
	for _, row := range f.ownedRows("grade_documents", "last_modified_user_id", id) {
		p.GradeDocumentsLastModified = append(p.GradeDocumentsLastModified, row.Id)
	}
	return &p, nil
}

func (f *fakeDB) ownedRows(table, column string, ownerId int64) []fakeRow {
	var rows []fakeRow
	for _, row := range f.state.tables[table] {
		if v, ok := row.Cols[column]; ok && v == ownerId {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Id < rows[j].Id })
	return rows
}

func (f *fakeDB) GetUserProfileByUsername(ctx context.Context, q client.Querier, username string) (*profileModel.UserProfile, error) {
	for id, p := range f.state.profiles {
		if p.Username == username {
			return f.GetUserProfile(ctx, q, id)
		}
	}
	return nil, nil
}

func (f *fakeDB) LockUserProfiles(_ context.Context, _ client.Querier, ids ...int64) ([]int64, error) {
	var locked []int64
	for _, id := range ids {
		if _, ok := f.state.profiles[id]; ok {
			locked = append(locked, id)
		}
	}
	slices.Sort(locked)
	return locked, nil
}

func (f *fakeDB) UpdateUserProfileFields(_ context.Context, _ client.Querier, profile *profileModel.UserProfile) error {
	f.writes++
	if err := f.fail("update"); err != nil {
		return err
	}
	stored, ok := f.state.profiles[profile.Id]
	if !ok {
		return sql.ErrNoRows
	}
	if profile.Email != "" {
		for id, other := range f.state.profiles {
			if id != profile.Id && other.Email == profile.Email {
				return pkgerrors.New("duplicate key value violates unique constraint user_profiles_email_uniq")
			}
		}
	}
	stored.Title = profile.Title
	stored.FirstName = profile.FirstName
	stored.LastName = profile.LastName
	stored.Email = profile.Email
	stored.IsSuperuser = profile.IsSuperuser
	f.state.profiles[profile.Id] = stored
	return nil
}

func (f *fakeDB) ListRelation(_ context.Context, _ client.Querier, relation profileModel.Relation, ownerId int64) ([]int64, error) {
	ids := []int64{}
	for _, row := range f.ownedRows(relation.Table, relation.OwnerColumn, ownerId) {
		ids = append(ids, row.Cols[relation.TargetColumn])
	}
	return ids, nil
}

func (f *fakeDB) AddToRelation(_ context.Context, _ client.Querier, relation profileModel.Relation, ownerId int64, targetIds []int64) error {
	f.writes++
	if err := f.fail("add:" + relation.Attribute); err != nil {
		return err
	}
	for _, targetId := range targetIds {
		exists := false
		for _, row := range f.state.tables[relation.Table] {
			if row.Cols[relation.OwnerColumn] == ownerId && row.Cols[relation.TargetColumn] == targetId {
				exists = true
			}
		}
		if !exists {
			f.relate(relation, ownerId, targetId)
		}
	}
	return nil
}

func (f *fakeDB) RemoveFromRelation(_ context.Context, _ client.Querier, relation profileModel.Relation, ownerId int64) error {
	f.writes++
	kept := []fakeRow{}
	for _, row := range f.state.tables[relation.Table] {
		if row.Cols[relation.OwnerColumn] != ownerId {
			kept = append(kept, row)
		}
	}
	f.state.tables[relation.Table] = kept
	return nil
}

func (f *fakeDB) RemoveRelationEntries(_ context.Context, _ client.Querier, relation profileModel.Relation,
	ownerId int64, targetIds []int64) error {

	f.writes++
	if err := f.fail("remove:" + relation.Attribute); err != nil {
		return err
	}
	f.removeRows(relation.Table, func(row fakeRow) bool {
		return row.Cols[relation.OwnerColumn] == ownerId && slices.Contains(targetIds, row.Cols[relation.TargetColumn])
	})
	return nil
}

func (f *fakeDB) ReassignOwner(_ context.Context, _ client.Querier, ownership profileModel.Ownership, fromId, toId int64) ([]int64, error) {
	f.writes++
	if err := f.fail("reassign:" + ownership.Attribute); err != nil {
		return nil, err
	}
	moved := []int64{}
	for _, row := range f.state.tables[ownership.Table] {
		if v, ok := row.Cols[ownership.OwnerColumn]; ok && v == fromId {
			row.Cols[ownership.OwnerColumn] = toId
			moved = append(moved, row.Id)
		}
	}
	slices.Sort(moved)
	return moved, nil
}

// DeleteUserProfile cascades like the schema. Through rows and owned rows go, last modified references are nulled.
func (f *fakeDB) DeleteUserProfile(_ context.Context, _ client.Querier, id int64) error {
	f.writes++
	if err := f.fail("delete"); err != nil {
		return err
	}
	if _, ok := f.state.profiles[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.state.profiles, id)

	userColumns := map[string][]string{}
	for _, relation := range profileModel.Relations {
		userColumns[relation.Table] = append(userColumns[relation.Table], relation.OwnerColumn)
		if relation.SelfReferential {
			userColumns[relation.Table] = append(userColumns[relation.Table], relation.TargetColumn)
		}
	}
	for _, ownership := range []profileModel.Ownership{profileModel.ContributionsOwnership,
		profileModel.RewardPointGrantingsOwnership, profileModel.RewardPointRedemptionsOwnership} {
		userColumns[ownership.Table] = append(userColumns[ownership.Table], ownership.OwnerColumn)
	}
	for table, columns := range userColumns {
		kept := []fakeRow{}
		for _, row := range f.state.tables[table] {
			referenced := false
			for _, column := range columns {
				if v, ok := row.Cols[column]; ok && v == id {
					referenced = true
				}
			}
			if !referenced {
				kept = append(kept, row)
			}
		}
		f.state.tables[table] = kept
	}
	for _, table := range []string{"courses", "grade_documents"} {
		for _, row := range f.state.tables[table] {
			if v, ok := row.Cols["last_modified_user_id"]; ok && v == id {
				delete(row.Cols, "last_modified_user_id")
			}
		}
	}
	return nil
}

// store.MergeRecordStoreInterface

func (f *fakeDB) AddMergeRecord(_ context.Context, _ client.Querier, record *model.MergeRecord) error {
	f.writes++
	if err := f.fail("record"); err != nil {
		return err
	}
	f.state.records = append(f.state.records, *record)
	return nil
}

func (f *fakeDB) GetMergeRecords(_ context.Context, _ client.Querier, mainUserId int64) ([]model.MergeRecord, error) {
	records := []model.MergeRecord{}
	for _, record := range f.state.records {
		if record.MainUserId == mainUserId {
			records = append(records, record)
		}
	}
	return records, nil
}

// fakeArchive records archived merges.
type fakeArchive struct {
	archived []model.MergeRecord
	err      error
}

func (a *fakeArchive) GetArchivedMerges(_ context.Context, mainUserId int64) ([]model.MergeRecord, error) {
	if a.err != nil {
		return nil, a.err
	}
	var records []model.MergeRecord
	for _, record := range a.archived {
		if record.MainUserId == mainUserId {
			records = append(records, record)
		}
	}
	return records, nil
}

func (a *fakeArchive) Archive(_ context.Context, record *model.MergeRecord) error {
	if a.err != nil {
		return a.err
	}
	a.archived = append(a.archived, *record)
	return nil
}

func (a *fakeArchive) Close(context.Context) error {
	return nil
}

func (f *fakeDB) removeRows(table string, match func(row fakeRow) bool) {
	kept := []fakeRow{}
	for _, row := range f.state.tables[table] {
		if !match(row) {
			kept = append(kept, row)
		}
	}
	f.state.tables[table] = kept
}
