package storage

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Druxys/MTG-Next/internal/client/models"
	"github.com/Druxys/MTG-Next/package/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test_mtgnext.db")

	storage, err := NewStorage(dbPath, logger.NewLogger("error"))
	require.NoError(t, err)
	require.NotNil(t, storage)

	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func setupMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &Storage{db: db, logger: logger.NewLogger("error")}, mock
}

func TestNewStorage(t *testing.T) {
	tests := []struct {
		name        string
		dbPath      string
		expectError bool
	}{
		{
			name:   "successful creation with custom path",
			dbPath: filepath.Join(t.TempDir(), "custom.db"),
		},
		{
			name:        "invalid path",
			dbPath:      "/invalid/path/db.db",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := NewStorage(tt.dbPath, logger.NewLogger("error"))

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, storage)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, storage)
			assert.NoError(t, storage.Close())
		})
	}
}

func TestSession(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	session, err := storage.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, storage.SaveSession(ctx, models.Session{Username: "teferi", Token: "sealed-1", CreatedAt: created}))
	require.NoError(t, storage.SaveSession(ctx, models.Session{Username: "nissa", Token: "sealed-2", CreatedAt: created.Add(time.Hour)}))

	session, err = storage.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, "nissa", session.Username)
	assert.Equal(t, "sealed-2", session.Token)
	assert.True(t, created.Add(time.Hour).Equal(session.CreatedAt))

	require.NoError(t, storage.DeleteSession(ctx))
	session, err = storage.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestCardImages(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	data, err := storage.GetCardImage(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, storage.PutCardImage(ctx, "card-1", []byte("v1")))
	require.NoError(t, storage.PutCardImage(ctx, "card-1", []byte("v2")))

	data, err = storage.GetCardImage(ctx, "card-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), data)

	n, err := storage.PurgeCardImages(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = storage.PurgeCardImages(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	data, err = storage.GetCardImage(ctx, "card-1")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestStorageErrors(t *testing.T) {
	dbErr := errors.New("disk I/O error")
	ctx := context.Background()

	t.Run("save session", func(t *testing.T) {
		storage, mock := setupMockStorage(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).WillReturnError(dbErr)

		err := storage.SaveSession(ctx, models.Session{Username: "a", Token: "b", CreatedAt: time.Now()})

		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get session", func(t *testing.T) {
		storage, mock := setupMockStorage(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT username, token, created_at FROM sessions")).WillReturnError(dbErr)

		session, err := storage.GetSession(ctx)

		assert.Nil(t, session)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete session", func(t *testing.T) {
		storage, mock := setupMockStorage(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions")).WillReturnError(dbErr)

		assert.ErrorIs(t, storage.DeleteSession(ctx), dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("put image", func(t *testing.T) {
		storage, mock := setupMockStorage(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO card_images")).
			WithArgs("card-1", []byte("img"), sqlmock.AnyArg()).
			WillReturnError(dbErr)

		assert.ErrorIs(t, storage.PutCardImage(ctx, "card-1", []byte("img")), dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get image", func(t *testing.T) {
		storage, mock := setupMockStorage(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM card_images")).
			WithArgs("card-1").
			WillReturnError(dbErr)

		data, err := storage.GetCardImage(ctx, "card-1")

		assert.Nil(t, data)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get image from mock rows", func(t *testing.T) {
		storage, mock := setupMockStorage(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM card_images")).
			WithArgs("card-2").
			WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte("png")))

		data, err := storage.GetCardImage(ctx, "card-2")

		require.NoError(t, err)
		assert.Equal(t, []byte("png"), data)
	})
}
