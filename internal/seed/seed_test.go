package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/nickdesi/scba-benevolat/internal/database"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/nickdesi/scba-benevolat/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fixtures = `
games:
  - id: u13-riom
    team: U13 F
    opponent: Riom
    date: Samedi 1 novembre
    dateISO: "2026-11-01"
    time: 14h00
    location: Gymnase Boris Vian
    isHome: true
  - team: SENIOR M1
    opponent: Vichy
    dateISO: "2026-11-02"
    time: 20h30
`

func TestRoles(t *testing.T) {
	roles := Roles("U11")
	require.Len(t, roles, 4)
	assert.Equal(t, models.RoleID("1"), roles[0].ID)
	assert.Equal(t, "Goûter", roles[3].Name)
	assert.True(t, roles[3].Capacity.IsUnlimited())
	assert.Equal(t, []string{}, roles[0].Volunteers)

	senior := Roles("Seniors M2")
	require.Len(t, senior, 3)
	for _, r := range senior {
		assert.NotEqual(t, "Goûter", r.Name)
	}
}

func TestParse(t *testing.T) {
	games, err := Parse(strings.NewReader(fixtures))
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, "u13-riom", games[0].ID)
	assert.True(t, games[0].IsHome)
	assert.Len(t, games[0].Roles, 4)
	assert.Len(t, games[1].Roles, 3)

	_, err = Parse(strings.NewReader("games:\n  - team: U9\n    colour: red\n"))
	assert.Error(t, err, "unknown fields are rejected")

	_, err = Parse(strings.NewReader("games:\n  - team: U9\n"))
	assert.Error(t, err, "dateISO is required")

	games, err = Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestLoadSkipsExisting(t *testing.T) {
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	s := store.New(db, zap.NewNop())
	ctx := context.Background()

	games, err := Parse(strings.NewReader(fixtures))
	require.NoError(t, err)
	n, err := Load(ctx, s, games)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	games, err = Parse(strings.NewReader(fixtures))
	require.NoError(t, err)
	n, err = Load(ctx, s, games)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the game without id is created again")

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
