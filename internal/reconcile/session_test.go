package reconcile

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/nickdesi/scba-benevolat/internal/apperror"
	"github.com/nickdesi/scba-benevolat/internal/auth"
	"github.com/nickdesi/scba-benevolat/internal/carpool"
	"github.com/nickdesi/scba-benevolat/internal/database"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/nickdesi/scba-benevolat/internal/store"
	"github.com/nickdesi/scba-benevolat/internal/volunteer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newSession(t *testing.T) (*Session, *store.Store) {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.Local)
	s := store.New(db, zaptest.NewLogger(t), store.WithClock(func() time.Time { return now }))
	t.Cleanup(s.Close)
	require.NoError(t, s.Create(context.Background(), &models.Game{
		ID: "g1", DateISO: "2026-11-01",
		Roles: []models.Role{{ID: "1", Name: "Buvette", Capacity: 2}},
	}))

	logger := zaptest.NewLogger(t)
	who := auth.Identity{AccountID: "42", DisplayName: "Alice"}
	return NewSession(s, volunteer.NewEngine(s, logger), carpool.NewEngine(s, logger), who), s
}

func volunteersOf(games []models.Game) []string {
	if len(games) == 0 {
		return nil
	}
	return games[0].Roles[0].Volunteers
}

func TestSessionPreviewThenSnapshot(t *testing.T) {
	sess, s := newSession(t)
	ctx := context.Background()
	games, err := s.Upcoming(ctx)
	require.NoError(t, err)
	sess.View().Replace(games)

	require.NoError(t, sess.SignUp(ctx, "g1", "1", []string{"Alice"}))
	assert.Equal(t, []string{"Alice"}, volunteersOf(sess.View().Games()), "preview is visible before any snapshot")
	assert.Equal(t, 1, sess.View().Pending())

	games, err = s.Upcoming(ctx)
	require.NoError(t, err)
	sess.View().Replace(games)
	assert.Equal(t, []string{"Alice"}, volunteersOf(sess.View().Games()), "no duplicate after reconciliation")
}

func TestSessionPreviewMatchesCommittedNames(t *testing.T) {
	sess, s := newSession(t)
	ctx := context.Background()
	games, err := s.Upcoming(ctx)
	require.NoError(t, err)
	sess.View().Replace(games)

	require.NoError(t, sess.SignUp(ctx, "g1", "1", []string{" Marie ", "Marie", ""}))
	assert.Equal(t, []string{"Marie"}, volunteersOf(sess.View().Games()))

	committed, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, committed.Roles[0].Volunteers, volunteersOf(sess.View().Games()))

	err = sess.SignUp(ctx, "g1", "1", []string{" ", ""})
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, 1, sess.View().Pending(), "blank sign-up is not previewed")

	err = sess.RenameVolunteer(ctx, "g1", "1", "Marie", "  ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	assert.Equal(t, 1, sess.View().Pending(), "blank rename is not previewed")

	require.NoError(t, sess.RenameVolunteer(ctx, "g1", "1", "Marie", " Maria "))
	assert.Equal(t, []string{"Maria"}, volunteersOf(sess.View().Games()))
}

func TestSessionReturnsEngineErrors(t *testing.T) {
	sess, s := newSession(t)
	ctx := context.Background()
	games, err := s.Upcoming(ctx)
	require.NoError(t, err)
	sess.View().Replace(games)

	err = sess.Cancel(ctx, "g1", "nobody")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = sess.SignUp(ctx, "g1", "9", []string{"Alice"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSessionRun(t *testing.T) {
	sess, _ := newSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	require.Eventually(t, func() bool { return len(sess.View().Snapshot()) == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, sess.SignUp(ctx, "g1", "1", []string{"Bob"}))
	d, err := sess.SubmitCarpool(ctx, "g1", carpool.Entry{Name: "Marc", Type: models.Driver})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		games := sess.View().Games()
		return sess.View().Pending() == 0 &&
			slices.Equal(volunteersOf(games), []string{"Bob"}) &&
			len(games[0].Carpool) == 1 && games[0].Carpool[0].ID == d.ID
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
