package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/nickdesi/scba-benevolat/internal/apperror"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Store) User(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("read user %d: %w", id, err)
	}
	return &user, nil
}

// UserByDiscordID returns the stored account or a new unsaved one.
func (s *Store) UserByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).FirstOrInit(&user, models.User{DiscordID: discordID}).Error; err != nil {
		return nil, fmt.Errorf("read user %s: %w", discordID, err)
	}
	return &user, nil
}

func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SaveUser creates or updates an account and notifies user subscribers.
func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	if s.users.size() == 0 {
		return nil
	}
	users, err := s.Users(context.WithoutCancel(ctx))
	if err != nil {
		s.logger.Error("failed to load users for subscribers", zap.Error(err))
		return nil
	}
	s.users.publish(users)
	return nil
}

// SubscribeUsers streams the full account list, starting with the current one.
func (s *Store) SubscribeUsers(ctx context.Context) (<-chan []models.User, error) {
	ch := s.users.subscribe(1)
	users, err := s.Users(ctx)
	if err != nil {
		s.users.cancelSubscription(ch)
		return nil, err
	}
	s.users.send(ch, users)

	go func() {
		<-ctx.Done()
		s.users.cancelSubscription(ch)
	}()
	return ch, nil
}
