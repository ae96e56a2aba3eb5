// Package store keeps games as versioned JSON documents next to the
// per-account registration index, and runs read-modify-write transactions
// over both with optimistic concurrency.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nickdesi/scba-benevolat/internal/apperror"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/nickdesi/scba-benevolat/internal/schedule"
	"github.com/rs/xid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultMaxAttempts   = 5
	DefaultRetryInterval = 25 * time.Millisecond
	changeBuffer         = 64
)

type Store struct {
	db            *gorm.DB
	logger        *zap.Logger
	maxAttempts   int
	retryInterval time.Duration
	now           func() time.Time

	// publishMu orders snapshots and change events; sent holds the last
	// version published per game.
	publishMu sync.Mutex
	sent      map[string]int64
	games     *broadcaster[[]models.Game]
	changes   *broadcaster[models.Game]
	users     *broadcaster[[]models.User]
}

type Option func(*Store)

// WithMaxAttempts bounds how many times a conflicting transaction is run.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithRetryInterval(d time.Duration) Option {
	return func(s *Store) {
		s.retryInterval = d
	}
}

// WithClock sets the clock used to decide which games are upcoming.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(db *gorm.DB, logger *zap.Logger, opts ...Option) *Store {
	logger = logger.Named("store")
	s := &Store{
		db:            db,
		logger:        logger,
		maxAttempts:   DefaultMaxAttempts,
		retryInterval: DefaultRetryInterval,
		now:           time.Now,
		sent:          map[string]int64{},
		games:         newBroadcaster[[]models.Game]("games", logger),
		changes:       newBroadcaster[models.Game]("changes", logger),
		users:         newBroadcaster[[]models.User]("users", logger),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close ends every open subscription.
func (s *Store) Close() {
	s.games.close()
	s.changes.close()
	s.users.close()
}

// RunTransaction runs fn inside a database transaction. When a write inside
// fn loses a version race the whole transaction is rolled back and fn is run
// again on fresh data, with exponential backoff, up to the configured number
// of attempts. Any other error from fn aborts immediately.
//
// ctx bounds the waiting between attempts. An attempt that has started is
// run to completion.
func (s *Store) RunTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	dbCtx := context.WithoutCancel(ctx)
	attempt := 0
	var committed *Tx

	op := func() error {
		attempt++
		tx := newTx(nil)
		err := s.db.WithContext(dbCtx).Transaction(func(db *gorm.DB) error {
			tx.db = db
			return fn(tx)
		})
		if err == nil {
			committed = tx
			return nil
		}
		if errors.Is(err, apperror.ErrConflict) {
			return err
		}
		return backoff.Permanent(err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryInterval
	b.MaxInterval = 40 * s.retryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxAttempts-1)), ctx)

	err := backoff.RetryNotify(op, policy, func(err error, next time.Duration) {
		s.logger.Warn("transaction conflict, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", next),
			zap.Error(err))
	})
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			s.logger.Error("transaction gave up", zap.Int("attempts", attempt), zap.Error(err))
			return fmt.Errorf("transaction failed after %d attempts: %w", attempt, err)
		}
		return err
	}

	s.afterCommit(dbCtx, committed)
	return nil
}

func (s *Store) afterCommit(ctx context.Context, tx *Tx) {
	if len(tx.written) == 0 {
		return
	}
	for _, g := range tx.written {
		s.publishChange(g)
	}
	s.publishGames(ctx)
}

// publishChange forwards a committed game unless a newer version of it was
// already sent. Commits may finish out of order on a pooled database.
func (s *Store) publishChange(g models.Game) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	if g.Version <= s.sent[g.ID] {
		s.logger.Debug("dropping stale change", zap.String("game", g.ID), zap.Int64("version", g.Version))
		return
	}
	s.sent[g.ID] = g.Version
	s.changes.publish(g)
}

func (s *Store) publishGames(ctx context.Context) {
	if s.games.size() == 0 {
		return
	}
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	games, err := s.Upcoming(ctx)
	if err != nil {
		s.logger.Error("failed to load games for subscribers", zap.Error(err))
		return
	}
	s.games.publish(games)
}

func (s *Store) Get(ctx context.Context, id string) (*models.Game, error) {
	var doc models.GameDocument
	if err := s.db.WithContext(ctx).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("game", id)
		}
		return nil, fmt.Errorf("read game %s: %w", id, err)
	}
	return decodeGame(doc)
}

// List returns the games dated fromISO or later (all games when fromISO is
// empty) ordered by date then kick-off time.
func (s *Store) List(ctx context.Context, fromISO string) ([]models.Game, error) {
	q := s.db.WithContext(ctx).Order("date_iso")
	if fromISO != "" {
		q = q.Where("date_iso >= ?", fromISO)
	}
	var docs []models.GameDocument
	if err := q.Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	games := make([]models.Game, 0, len(docs))
	for _, doc := range docs {
		g, err := decodeGame(doc)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return schedule.SortGames(games), nil
}

// Upcoming lists the games from today on.
func (s *Store) Upcoming(ctx context.Context) ([]models.Game, error) {
	return s.List(ctx, s.now().Format(time.DateOnly))
}

// Create stores a new game. An empty id is replaced by a generated one and
// roles without a volunteer list get an empty one.
func (s *Store) Create(ctx context.Context, g *models.Game) error {
	if g.ID == "" {
		g.ID = xid.New().String()
	}
	for i := range g.Roles {
		if g.Roles[i].Volunteers == nil {
			g.Roles[i].Volunteers = []string{}
		}
	}
	g.Version = 1
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", g.ID, err)
	}
	doc := models.GameDocument{ID: g.ID, DateISO: g.DateISO, Version: g.Version, Data: datatypes.JSON(data)}
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return fmt.Errorf("create game %s: %w", g.ID, err)
	}
	s.publishChange(g.Clone())
	s.publishGames(context.WithoutCancel(ctx))
	return nil
}

// Subscribe streams the upcoming games. The current list is delivered
// first, then a fresh list after every committed change. The channel is
// closed when ctx ends or the store is closed.
func (s *Store) Subscribe(ctx context.Context) (<-chan []models.Game, error) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	ch := s.games.subscribe(1)
	games, err := s.Upcoming(ctx)
	if err != nil {
		s.games.cancelSubscription(ch)
		return nil, err
	}
	s.games.send(ch, games)

	go func() {
		<-ctx.Done()
		s.games.cancelSubscription(ch)
	}()
	return ch, nil
}

// SubscribeChanges streams every committed game document individually.
func (s *Store) SubscribeChanges(ctx context.Context) <-chan models.Game {
	ch := s.changes.subscribe(changeBuffer)
	go func() {
		<-ctx.Done()
		s.changes.cancelSubscription(ch)
	}()
	return ch
}

func (s *Store) Registrations(ctx context.Context, accountID string) ([]models.Registration, error) {
	var regs []models.Registration
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("game_date_iso, reg_key").
		Find(&regs).Error
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}
