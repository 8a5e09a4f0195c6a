package job

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/usergate/usergate/database"
	"github.com/usergate/usergate/database/model"
	"github.com/usergate/usergate/web/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeCleanupJob(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, database.InitDB(dbPath))
	t.Cleanup(func() {
		database.CloseDB()
	})

	userService := service.NewUserService(database.GetDB())
	user := &model.User{Username: "alice", Email: "alice@example.com", Roles: model.Roles{"user"}, Enabled: true}
	require.NoError(t, userService.Create(user, "pw"))

	code, err := userService.IssueResetCode(user)
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, database.GetDB().Model(model.User{}).
		Where("id = ?", user.Id).
		Update("code_issued_at", past).Error)

	NewCodeCleanupJob(userService, time.Hour).Run()

	_, err = userService.GetByResetCode(code)
	assert.True(t, database.IsNotFound(err))
}
