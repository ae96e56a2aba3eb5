package database

import (
	"testing"

	"github.com/nickdesi/scba-benevolat/internal/config"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSqlite(t *testing.T) {
	db, err := Connect(&config.Config{DatabaseDriver: "sqlite", DatabasePath: ":memory:"})
	require.NoError(t, err)

	for _, m := range []any{&models.GameDocument{}, &models.Registration{}, &models.User{}} {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("mysql", "")
	assert.Error(t, err)
}
