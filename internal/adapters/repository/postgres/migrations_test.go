package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsOrder(t *testing.T) {
	up, err := Migrations("up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_sessions.up.sql", "002_create_participants.up.sql", "003_create_refresh_tokens.up.sql"}, up)

	down, err := Migrations("down.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"003_create_refresh_tokens.down.sql", "002_create_participants.down.sql", "001_create_sessions.down.sql"}, down)
}

func TestFindMigration(t *testing.T) {
	name, err := FindMigration("create_participants.up")
	require.NoError(t, err)
	assert.Equal(t, "002_create_participants.up.sql", name)

	_, err = FindMigration("does_not_exist")
	assert.Error(t, err)
}
