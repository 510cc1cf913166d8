package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/security_backend/internal/models"
)

func TestOpen_SQLiteMigratesAndTranslatesUniqueViolation(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, Ping(ctx, db))
	assert.True(t, db.Migrator().HasTable(&models.User{}))
	assert.True(t, db.Migrator().HasTable(&models.Product{}))

	require.NoError(t, db.Create(&models.User{Username: "alice", PasswordHash: "x", Role: models.RoleUser}).Error)
	err = db.Create(&models.User{Username: "alice", PasswordHash: "y", Role: models.RoleUser}).Error
	require.Error(t, err)
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)
}

func TestOpen_Rejects(t *testing.T) {
	_, err := Open(context.Background(), "sqlite", "")
	require.Error(t, err)

	_, err = Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
}
