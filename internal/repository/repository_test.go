package repository

import (
	"fmt"
	"path/filepath"
	"testing"

	"groupchat/backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Message{}, &models.PushSubscription{}))
	return db
}

func TestMessageCreateAssignsIncreasingIDs(t *testing.T) {
	repo := NewGormMessageRepository(openTestDB(t))

	var lastID int64
	var lastTS string
	for i := 0; i < 10; i++ {
		msg, err := repo.Create(fmt.Sprintf("message %d", i))
		require.NoError(t, err)
		assert.Greater(t, msg.ID, lastID, "ids must be strictly increasing")
		assert.GreaterOrEqual(t, msg.Timestamp, lastTS, "timestamps must be non-decreasing")
		lastID = msg.ID
		lastTS = msg.Timestamp
	}
}

func TestMessagePageDescNewestFirst(t *testing.T) {
	repo := NewGormMessageRepository(openTestDB(t))

	for i := 0; i < 5; i++ {
		_, err := repo.Create(fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}

	page, err := repo.PageDesc(3, 0)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, "m4", page[0].Content)
	assert.Equal(t, "m3", page[1].Content)
	assert.Equal(t, "m2", page[2].Content)

	page, err = repo.PageDesc(3, 3)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "m1", page[0].Content)
	assert.Equal(t, "m0", page[1].Content)

	page, err = repo.PageDesc(3, 6)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestMessageCount(t *testing.T) {
	repo := NewGormMessageRepository(openTestDB(t))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	for i := 0; i < 3; i++ {
		_, err := repo.Create("x")
		require.NoError(t, err)
	}

	count, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSubscriptionRoundTrip(t *testing.T) {
	repo := NewGormSubscriptionRepository(openTestDB(t))

	sub, err := repo.Create("https://example.com/hook")
	require.NoError(t, err)
	assert.Positive(t, sub.ID)
	assert.NotEmpty(t, sub.CreatedAt)

	urls, err := repo.ListURLs()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/hook"}, urls)

	require.NoError(t, repo.DeleteByURL("https://example.com/hook"))

	urls, err = repo.ListURLs()
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestSubscriptionURLUnique(t *testing.T) {
	repo := NewGormSubscriptionRepository(openTestDB(t))

	_, err := repo.Create("https://example.com/hook")
	require.NoError(t, err)

	_, err = repo.Create("https://example.com/hook")
	assert.Error(t, err, "unique index must reject a duplicate url")
}

func TestSubscriptionDeleteMissingIsNoError(t *testing.T) {
	repo := NewGormSubscriptionRepository(openTestDB(t))
	assert.NoError(t, repo.DeleteByURL("https://never-added.example.com"))
}
