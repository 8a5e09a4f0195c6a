package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/usergate/usergate/database"
	"github.com/usergate/usergate/database/model"
	"github.com/usergate/usergate/util/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUserService(t *testing.T) *UserService {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.InitDB(dbPath))
	t.Cleanup(func() {
		database.CloseDB()
	})
	return NewUserService(database.GetDB())
}

func TestUserServiceCRUD(t *testing.T) {
	service := setupUserService(t)

	user := &model.User{
		Username: "alice",
		Email:    "alice@example.com",
		Roles:    model.Roles{"user"},
		Enabled:  true,
	}
	err := service.Create(user, "s3cret")
	assert.NoError(t, err)
	assert.Greater(t, user.Id, 0)
	assert.NotEqual(t, "s3cret", user.Password)
	assert.True(t, crypto.CheckPasswordHash(user.Password, "s3cret"))

	byName, err := service.GetByName("alice")
	assert.NoError(t, err)
	assert.Equal(t, user.Id, byName.Id)
	assert.Equal(t, model.Roles{"user"}, byName.Roles)

	byEmail, err := service.GetByEmail("alice@example.com")
	assert.NoError(t, err)
	assert.Equal(t, user.Id, byEmail.Id)

	byName.Email = "alice2@example.com"
	assert.NoError(t, service.Save(byName))
	updated, err := service.GetByName("alice")
	assert.NoError(t, err)
	assert.Equal(t, "alice2@example.com", updated.Email)

	assert.NoError(t, service.Delete(updated))
	_, err = service.GetByName("alice")
	assert.True(t, database.IsNotFound(err))
}

func TestCreateDuplicateEmail(t *testing.T) {
	service := setupUserService(t)

	first := &model.User{Username: "alice", Email: "dup@example.com", Roles: model.Roles{"user"}, Enabled: true}
	require.NoError(t, service.Create(first, "pw"))

	second := &model.User{Username: "bob", Email: "dup@example.com", Roles: model.Roles{"user"}, Enabled: true}
	err := service.Create(second, "pw")
	assert.Error(t, err)
	assert.True(t, database.IsDuplicate(err))
}

func TestCheckUser(t *testing.T) {
	service := setupUserService(t)

	user := &model.User{Username: "alice", Email: "alice@example.com", Roles: model.Roles{"user"}, Enabled: true}
	require.NoError(t, service.Create(user, "s3cret"))

	assert.NotNil(t, service.CheckUser("alice", "s3cret"))
	assert.Nil(t, service.CheckUser("alice", "wrong"))
	assert.Nil(t, service.CheckUser("nobody", "s3cret"))
}

func TestListByRoles(t *testing.T) {
	service := setupUserService(t)

	users := []*model.User{
		{Username: "alice", Email: "alice@example.com", Roles: model.Roles{"admin"}, Enabled: true},
		{Username: "bob", Email: "bob@example.com", Roles: model.Roles{"editor", "user"}, Enabled: true},
		{Username: "carol", Email: "carol@example.com", Roles: model.Roles{"user"}, Enabled: true},
	}
	for _, u := range users {
		require.NoError(t, service.Create(u, "pw"))
	}

	found, err := service.ListByRoles([]string{"admin", "editor"})
	assert.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "alice", found[0].Username)
	assert.Equal(t, "bob", found[1].Username)

	found, err = service.ListByRoles([]string{"missing"})
	assert.NoError(t, err)
	assert.Empty(t, found)

	found, err = service.ListByRoles(nil)
	assert.NoError(t, err)
	assert.Empty(t, found)
}

func TestListByRolesExactMatch(t *testing.T) {
	service := setupUserService(t)

	root := &model.User{Username: "root", Email: "root@example.com", Roles: model.Roles{"admin"}, Enabled: true}
	require.NoError(t, service.Create(root, "pw"))

	// A self-chosen role name containing quotes must not satisfy a query
	// for the role it tries to smuggle in.
	mallory := &model.User{Username: "mallory", Email: "mallory@example.com", Roles: model.Roles{`x","admin`}, Enabled: true}
	require.NoError(t, service.Create(mallory, "pw"))

	found, err := service.ListByRoles([]string{"admin"})
	assert.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "root", found[0].Username)
}

func TestResetCodeLifecycle(t *testing.T) {
	service := setupUserService(t)

	user := &model.User{Username: "alice", Email: "alice@example.com", Roles: model.Roles{"user"}, Enabled: true}
	require.NoError(t, service.Create(user, "old-pw"))

	code, err := service.IssueResetCode(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, code)

	byCode, err := service.GetByResetCode(code)
	assert.NoError(t, err)
	assert.Equal(t, user.Id, byCode.Id)
	assert.NotNil(t, byCode.CodeIssuedAt)

	assert.NoError(t, service.ResetPassword(byCode, "new-pw"))
	assert.Nil(t, service.CheckUser("alice", "old-pw"))
	assert.NotNil(t, service.CheckUser("alice", "new-pw"))

	// A consumed code no longer resolves.
	_, err = service.GetByResetCode(code)
	assert.True(t, database.IsNotFound(err))

	// The cleared code must never match other users' empty columns.
	_, err = service.GetByResetCode("")
	assert.True(t, database.IsNotFound(err))
}

func TestVerificationLifecycle(t *testing.T) {
	service := setupUserService(t)

	user := &model.User{Username: "alice", Email: "alice@example.com", Roles: model.Roles{"user"}, Enabled: true}
	require.NoError(t, service.Create(user, "pw"))
	assert.Nil(t, user.Verified)

	code, err := service.IssueVerificationCode(user)
	assert.NoError(t, err)

	byCode, err := service.GetByVerificationCode(code)
	assert.NoError(t, err)
	assert.NoError(t, service.MarkVerified(byCode))
	assert.NotNil(t, byCode.Verified)
	assert.Empty(t, byCode.VerificationCode)

	_, err = service.GetByVerificationCode(code)
	assert.True(t, database.IsNotFound(err))
}

func TestCodeExpired(t *testing.T) {
	service := setupUserService(t)

	now := time.Now()
	old := now.Add(-2 * time.Hour)

	fresh := &model.User{CodeIssuedAt: &now}
	stale := &model.User{CodeIssuedAt: &old}
	bare := &model.User{}

	assert.False(t, service.CodeExpired(fresh, time.Hour))
	assert.True(t, service.CodeExpired(stale, time.Hour))
	assert.False(t, service.CodeExpired(bare, time.Hour))

	// Zero ttl disables expiry entirely.
	assert.False(t, service.CodeExpired(stale, 0))
}

func TestClearExpiredCodes(t *testing.T) {
	service := setupUserService(t)

	stale := &model.User{Username: "alice", Email: "alice@example.com", Roles: model.Roles{"user"}, Enabled: true}
	fresh := &model.User{Username: "bob", Email: "bob@example.com", Roles: model.Roles{"user"}, Enabled: true}
	require.NoError(t, service.Create(stale, "pw"))
	require.NoError(t, service.Create(fresh, "pw"))

	staleCode, err := service.IssueResetCode(stale)
	require.NoError(t, err)
	freshCode, err := service.IssueResetCode(fresh)
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, database.GetDB().Model(model.User{}).
		Where("id = ?", stale.Id).
		Update("code_issued_at", past).Error)

	cleared, err := service.ClearExpiredCodes(time.Hour)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, cleared)

	_, err = service.GetByResetCode(staleCode)
	assert.True(t, database.IsNotFound(err))
	_, err = service.GetByResetCode(freshCode)
	assert.NoError(t, err)

	cleared, err = service.ClearExpiredCodes(0)
	assert.NoError(t, err)
	assert.Zero(t, cleared)
}
