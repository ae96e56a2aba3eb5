package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nickdesi/scba-benevolat/internal/apperror"
	"github.com/nickdesi/scba-benevolat/internal/database"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.Local)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	opts = append([]Option{WithClock(func() time.Time { return testNow }), WithRetryInterval(time.Millisecond)}, opts...)
	s := New(db, zaptest.NewLogger(t), opts...)
	t.Cleanup(s.Close)
	return s
}

func seedGame(t *testing.T, s *Store, id, dateISO, kickOff string) *models.Game {
	t.Helper()
	g := &models.Game{
		ID: id, Team: "U13", Opponent: "Riom", Date: dateISO, DateISO: dateISO, Time: kickOff,
		Roles: []models.Role{{ID: "1", Name: "Buvette", Capacity: 2}},
	}
	require.NoError(t, s.Create(context.Background(), g))
	return g
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g := &models.Game{DateISO: "2026-11-01", Roles: []models.Role{{ID: "1", Name: "Chrono", Capacity: 1}}}
	require.NoError(t, s.Create(ctx, g))
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, int64(1), g.Version)

	got, err := s.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, []string{}, got.Roles[0].Volunteers)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpcomingIsSorted(t *testing.T) {
	s := newTestStore(t)
	seedGame(t, s, "late", "2026-11-01", "16h00")
	seedGame(t, s, "past", "2026-10-01", "10h00")
	seedGame(t, s, "early", "2026-11-01", "9h00")
	seedGame(t, s, "today", "2026-10-18", "20h00")

	games, err := s.Upcoming(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"today", "early", "late"}, lo.Map(games, func(g models.Game, _ int) string { return g.ID }))

	all, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRunTransactionCommitsGameAndIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedGame(t, s, "g1", "2026-11-01", "14h00")

	err := s.RunTransaction(ctx, func(tx *Tx) error {
		g, err := tx.Game("g1")
		if err != nil {
			return err
		}
		role := g.Role("1")
		role.Volunteers = append(role.Volunteers, "Alice")
		if err := tx.PutGame(g); err != nil {
			return err
		}
		return tx.SetRegistration(models.NewRegistration("42", g, role, "Alice"))
	})
	require.NoError(t, err)

	g, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, g.Roles[0].Volunteers)
	assert.Equal(t, int64(2), g.Version)

	regs, err := s.Registrations(ctx, "42")
	require.NoError(t, err)
	require.Len(t, regs, 1)
	assert.Equal(t, "g1_1_Alice", regs[0].Key)
	assert.Equal(t, "Buvette", regs[0].RoleName)
}

func TestRunTransactionRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedGame(t, s, "g1", "2026-11-01", "14h00")
	boom := errors.New("boom")
	calls := 0

	err := s.RunTransaction(ctx, func(tx *Tx) error {
		calls++
		g, err := tx.Game("g1")
		if err != nil {
			return err
		}
		g.Roles[0].Volunteers = append(g.Roles[0].Volunteers, "Alice")
		if err := tx.PutGame(g); err != nil {
			return err
		}
		if err := tx.SetRegistration(models.NewRegistration("42", g, &g.Roles[0], "Alice")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "non-conflict errors are not retried")

	g, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, g.Roles[0].Volunteers)
	regs, err := s.Registrations(ctx, "42")
	require.NoError(t, err)
	assert.Empty(t, regs)
}

// bumpVersion simulates a writer that committed between our read and write.
func bumpVersion(tx *Tx, id string) error {
	return tx.db.Exec("UPDATE game_documents SET version = version + 1 WHERE id = ?", id).Error
}

func TestRunTransactionRetriesConflicts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedGame(t, s, "g1", "2026-11-01", "14h00")
	calls := 0

	err := s.RunTransaction(ctx, func(tx *Tx) error {
		calls++
		g, err := tx.Game("g1")
		if err != nil {
			return err
		}
		if calls == 1 {
			if err := bumpVersion(tx, "g1"); err != nil {
				return err
			}
		}
		g.Roles[0].Volunteers = append(g.Roles[0].Volunteers, "Alice")
		return tx.PutGame(g)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	g, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, g.Roles[0].Volunteers)
	assert.Equal(t, int64(2), g.Version, "the conflicting bump was rolled back with the attempt")
}

func TestRunTransactionGivesUp(t *testing.T) {
	s := newTestStore(t, WithMaxAttempts(3))
	ctx := context.Background()
	seedGame(t, s, "g1", "2026-11-01", "14h00")
	calls := 0

	err := s.RunTransaction(ctx, func(tx *Tx) error {
		calls++
		g, err := tx.Game("g1")
		if err != nil {
			return err
		}
		if err := bumpVersion(tx, "g1"); err != nil {
			return err
		}
		return tx.PutGame(g)
	})
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, 3, calls)
}

func TestRunTransactionSerializesWriters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedGame(t, s, "g1", "2026-11-01", "14h00")

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.RunTransaction(ctx, func(tx *Tx) error {
				g, err := tx.Game("g1")
				if err != nil {
					return err
				}
				g.Roles[0].Volunteers = append(g.Roles[0].Volunteers, fmt.Sprintf("V%d", i))
				return tx.PutGame(g)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	g, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, g.Roles[0].Volunteers, writers)
	assert.Equal(t, int64(writers+1), g.Version)
}

func TestRegistrationPointOps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := seedGame(t, s, "g1", "2026-11-01", "14h00")

	require.NoError(t, s.RunTransaction(ctx, func(tx *Tx) error {
		return tx.SetRegistration(models.NewRegistration("42", g, &g.Roles[0], "Alice"))
	}))

	require.NoError(t, s.RunTransaction(ctx, func(tx *Tx) error {
		reg, err := tx.Registration("42", "g1_1_Alice")
		if err != nil {
			return err
		}
		assert.Equal(t, "Alice", reg.VolunteerName)

		_, err = tx.Registration("42", "g1_1_Bob")
		assert.ErrorIs(t, err, apperror.ErrNotFound)

		return tx.DeleteRegistration("42", "g1_1_Alice")
	}))

	regs, err := s.Registrations(ctx, "42")
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seedGame(t, s, "g1", "2026-11-01", "14h00")

	ch, err := s.Subscribe(ctx)
	require.NoError(t, err)

	initial := <-ch
	require.Len(t, initial, 1)
	assert.Empty(t, initial[0].Roles[0].Volunteers)

	require.NoError(t, s.RunTransaction(ctx, func(tx *Tx) error {
		g, err := tx.Game("g1")
		if err != nil {
			return err
		}
		g.Roles[0].Volunteers = []string{"Alice"}
		return tx.PutGame(g)
	}))

	select {
	case games := <-ch:
		require.Len(t, games, 1)
		assert.Equal(t, []string{"Alice"}, games[0].Roles[0].Volunteers)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after commit")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestSubscribeChanges(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.SubscribeChanges(ctx)
	seedGame(t, s, "g1", "2026-11-01", "14h00")

	select {
	case g := <-ch:
		assert.Equal(t, "g1", g.ID)
	case <-time.After(time.Second):
		t.Fatal("no change published")
	}
}

func TestSubscribeChangesDropsOutOfOrderCommits(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	seedGame(t, s, "g1", "2026-11-01", "14h00")

	ch := s.SubscribeChanges(ctx)
	newer, older := newTx(nil), newTx(nil)
	newer.written["g1"] = models.Game{ID: "g1", Version: 3}
	older.written["g1"] = models.Game{ID: "g1", Version: 2}

	s.afterCommit(ctx, newer)
	s.afterCommit(ctx, older)

	got := <-ch
	assert.Equal(t, int64(3), got.Version)
	select {
	case g := <-ch:
		t.Fatalf("stale version %d was published", g.Version)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.SubscribeUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, <-ch)

	u, err := s.UserByDiscordID(ctx, "123")
	require.NoError(t, err)
	assert.Zero(t, u.ID)
	u.DisplayName = "Alice"
	u.AvatarURL = "https://cdn.example/alice.png"
	require.NoError(t, s.SaveUser(ctx, u))
	assert.NotZero(t, u.ID)

	select {
	case users := <-ch:
		require.Len(t, users, 1)
		assert.Equal(t, "Alice", users[0].DisplayName)
	case <-time.After(time.Second):
		t.Fatal("no users published")
	}

	got, err := s.User(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "123", got.DiscordID)

	_, err = s.User(ctx, 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
