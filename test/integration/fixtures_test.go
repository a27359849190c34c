package integration

import (
	"context"
	"fmt"
	"testing"

	"github.com/evap/user-merge-service/internal/user_merge/provider"
	"github.com/evap/user-merge-service/internal/user_merge/service"
	"github.com/evap/user-merge-service/internal/user_profile/model"
	"github.com/evap/user-merge-service/internal/user_profile/store"
	"github.com/stretchr/testify/require"
)

func resetDatabase(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.Truncate(context.Background()))
}

func mergeService(t *testing.T) service.UserMergeServiceInterface {
	t.Helper()
	s, err := provider.NewUserMergeProvider().GetUserMergeService(context.Background())
	require.NoError(t, err)
	return s
}

func insertId(t *testing.T, query string, args ...interface{}) int64 {
	t.Helper()
	var id int64
	require.NoError(t, testDB.DB.QueryRowContext(context.Background(), query, args...).Scan(&id))
	return id
}

func insertUser(t *testing.T, username string, edit func(p *model.UserProfile)) int64 {
	t.Helper()
	p := model.UserProfile{Username: username}
	if edit != nil {
		edit(&p)
	}
	return insertId(t, `INSERT INTO user_profiles (username, title, first_name, last_name, email, is_superuser)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.Username, p.Title, p.FirstName, p.LastName, p.Email, p.IsSuperuser)
}

func insertGroup(t *testing.T, name string) int64 {
	t.Helper()
	return insertId(t, `INSERT INTO auth_groups (name) VALUES ($1) RETURNING id`, name)
}

func insertCourse(t *testing.T, name string) int64 {
	t.Helper()
	return insertId(t, `INSERT INTO courses (name) VALUES ($1) RETURNING id`, name)
}

func insertContribution(t *testing.T, contributorId, courseId int64) int64 {
	t.Helper()
	return insertId(t, `INSERT INTO contributions (course_id, contributor_id) VALUES ($1, $2) RETURNING id`,
		courseId, contributorId)
}

func insertOwned(t *testing.T, ownership model.Ownership, userId int64, value int) int64 {
	t.Helper()
	return insertId(t, fmt.Sprintf(`INSERT INTO %s (%s, value) VALUES ($1, $2) RETURNING id`,
		ownership.Table, ownership.OwnerColumn), userId, value)
}

func relate(t *testing.T, relation model.Relation, ownerId int64, targetIds ...int64) {
	t.Helper()
	for _, targetId := range targetIds {
		_, err := testDB.DB.ExecContext(context.Background(), fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2)`,
			relation.Table, relation.OwnerColumn, relation.TargetColumn), ownerId, targetId)
		require.NoError(t, err)
	}
}

func exec(t *testing.T, query string, args ...interface{}) {
	t.Helper()
	_, err := testDB.DB.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}

func loadProfile(t *testing.T, id int64) *model.UserProfile {
	t.Helper()
	p, err := store.NewUserProfileStore().GetUserProfile(context.Background(), testDB.DB, id)
	require.NoError(t, err)
	return p
}
