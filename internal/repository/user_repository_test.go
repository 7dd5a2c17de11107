package repository

import (
	"context"
	"testing"

	"go-chat-presence/internal/model"
	"go-chat-presence/pkg/config"
	"go-chat-presence/pkg/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) {
	if err := config.InitTest(); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}
	if config.GlobalConfig.Database.DSN == "" {
		t.Skip("database.dsn not configured for tests")
	}

	// 配置测试数据库连接
	if err := db.InitDB(); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	cleanupChatRoomTables(t)
	cleanupMessageTable(t)
	cleanupUserTable(t)
}

// 帮助函数：清空 users 表中的所有数据
func cleanupUserTable(t *testing.T) {
	if err := db.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&model.User{}).Error; err != nil {
		t.Logf("Failed to cleanup users table: %v", err)
	}
}

// 帮助函数：清空 messages 表中的所有数据
func cleanupMessageTable(t *testing.T) {
	if err := db.DB.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&model.Message{}).Error; err != nil {
		t.Logf("Failed to cleanup messages table: %v", err)
	}
}

// 帮助函数：清空 chat_participants 和 chat_rooms 表
func cleanupChatRoomTables(t *testing.T) {
	global := db.DB.Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := global.Delete(&model.ChatParticipant{}).Error; err != nil {
		t.Logf("Failed to cleanup chat_participants table: %v", err)
	}
	if err := global.Delete(&model.ChatRoom{}).Error; err != nil {
		t.Logf("Failed to cleanup chat_rooms table: %v", err)
	}
}

func createTestUser(t *testing.T, repo *UserRepository, email string) *model.User {
	user := &model.User{Email: email, FirstName: "Test", LastName: email}
	require.NoError(t, repo.Upsert(user))
	require.NotEmpty(t, user.ID)
	return user
}

func TestUserRepository_Upsert(t *testing.T) {
	setupTestDB(t)
	repo := NewUserRepository()

	user := createTestUser(t, repo, "test@example.com")
	require.NoError(t, db.DB.Model(&model.User{}).Where("id = ?", user.ID).Update("is_admin", true).Error)

	// 再次写入相同ID: 资料更新, 管理员标志保留
	again := &model.User{ID: user.ID, Email: "changed@example.com", FirstName: "Changed"}
	require.NoError(t, repo.Upsert(again))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "changed@example.com", found.Email)
	assert.Equal(t, "Changed", found.FirstName)
	assert.True(t, found.IsAdmin)
}

func TestUserRepository_FindByID(t *testing.T) {
	setupTestDB(t)
	repo := NewUserRepository()

	user := createTestUser(t, repo, "find@example.com")

	found, err := repo.FindByID(user.ID)
	assert.NoError(t, err)
	if assert.NotNil(t, found) {
		assert.Equal(t, user.Email, found.Email)
	}

	missing, err := repo.FindByID("does-not-exist")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepository_FindAllAndByIDs(t *testing.T) {
	setupTestDB(t)
	repo := NewUserRepository()

	u1 := createTestUser(t, repo, "one@example.com")
	u2 := createTestUser(t, repo, "two@example.com")
	createTestUser(t, repo, "three@example.com")

	all, err := repo.FindAll()
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	some, err := repo.FindByIDs([]string{u1.ID, u2.ID})
	assert.NoError(t, err)
	assert.Len(t, some, 2)

	none, err := repo.FindByIDs(nil)
	assert.NoError(t, err)
	assert.Empty(t, none)
}

func TestUserRepository_SetOnline(t *testing.T) {
	setupTestDB(t)
	repo := NewUserRepository()
	ctx := context.Background()

	u1 := createTestUser(t, repo, "online@example.com")
	u2 := createTestUser(t, repo, "offline@example.com")

	require.NoError(t, repo.SetOnline(ctx, u1.ID, true))
	require.NoError(t, repo.SetOnline(ctx, u2.ID, true))
	require.NoError(t, repo.SetOnline(ctx, u2.ID, false))

	ids, err := repo.OnlineUserIDs(ctx)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{u1.ID}, ids)

	found, err := repo.FindByID(u2.ID)
	require.NoError(t, err)
	assert.False(t, found.IsOnline)
	assert.NotNil(t, found.LastSeen)

	// 不存在的用户不报错
	assert.NoError(t, repo.SetOnline(ctx, "ghost", true))
}
