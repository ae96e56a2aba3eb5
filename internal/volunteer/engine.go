// Package volunteer adds, removes and renames volunteers in game roles,
// keeping the per-account registration index in the same transaction.
package volunteer

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/nickdesi/scba-benevolat/internal/apperror"
	"github.com/nickdesi/scba-benevolat/internal/auth"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/nickdesi/scba-benevolat/internal/store"
	"go.uber.org/zap"
)

type Transactor interface {
	RunTransaction(ctx context.Context, fn func(tx *store.Tx) error) error
}

type Engine struct {
	store          Transactor
	logger         *zap.Logger
	strictCapacity bool
}

type Option func(*Engine)

// WithStrictCapacity makes SignUp fail instead of overbooking a role.
func WithStrictCapacity(strict bool) Option {
	return func(e *Engine) {
		e.strictCapacity = strict
	}
}

func NewEngine(s Transactor, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{store: s, logger: logger.Named("volunteer")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SignUp appends names to a role. Capacity is not enforced unless the
// engine was built WithStrictCapacity. For an authenticated caller one
// index entry per name is written in the same transaction.
func (e *Engine) SignUp(ctx context.Context, who auth.Identity, gameID string, roleID models.RoleID, names []string) (*models.Game, error) {
	names = CleanNames(names)
	if len(names) == 0 {
		return nil, apperror.ValidationFailed("names", "at least one name is required")
	}

	var committed *models.Game
	err := e.store.RunTransaction(ctx, func(tx *store.Tx) error {
		game, role, err := loadRole(tx, gameID, roleID)
		if err != nil {
			return err
		}

		if e.strictCapacity && !role.Capacity.IsUnlimited() && len(role.Volunteers)+len(names) > int(role.Capacity) {
			return apperror.CapacityExceeded("role", string(roleID), len(names), role.Remaining())
		}

		role.Volunteers = append(role.Volunteers, names...)
		if who.AvatarURL != "" {
			if role.Avatars == nil {
				role.Avatars = map[string]string{}
			}
			for _, n := range names {
				role.Avatars[n] = who.AvatarURL
			}
		}
		if err := tx.PutGame(game); err != nil {
			return err
		}

		if who.Authenticated() {
			for _, n := range names {
				if err := tx.SetRegistration(models.NewRegistration(who.AccountID, game, role, n)); err != nil {
					return err
				}
			}
		}
		committed = game
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("volunteers signed up",
		zap.String("game", gameID),
		zap.String("role", string(roleID)),
		zap.Strings("names", names),
		zap.Bool("authenticated", who.Authenticated()))
	return committed, nil
}

// Remove takes name out of a role. Removing a name that is not there
// leaves the role untouched and succeeds.
func (e *Engine) Remove(ctx context.Context, who auth.Identity, gameID string, roleID models.RoleID, name string) (*models.Game, error) {
	var committed *models.Game
	err := e.store.RunTransaction(ctx, func(tx *store.Tx) error {
		game, role, err := loadRole(tx, gameID, roleID)
		if err != nil {
			return err
		}

		if slices.Contains(role.Volunteers, name) {
			role.Volunteers = slices.DeleteFunc(role.Volunteers, func(v string) bool { return v == name })
			delete(role.Avatars, name)
			if err := tx.PutGame(game); err != nil {
				return err
			}
		}

		if who.Authenticated() {
			if err := tx.DeleteRegistration(who.AccountID, models.RegistrationKey(gameID, roleID, name)); err != nil {
				return err
			}
			legacy, err := legacyRegistration(tx, who.AccountID, gameID, roleID, name)
			if err != nil {
				return err
			}
			if legacy != nil {
				if err := tx.DeleteRegistration(who.AccountID, legacy.Key); err != nil {
					return err
				}
			}
		}
		committed = game
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("volunteer removed",
		zap.String("game", gameID),
		zap.String("role", string(roleID)),
		zap.String("name", name))
	return committed, nil
}

// Rename replaces every occurrence of oldName in a role and moves its avatar
// and index entry. An index entry stored under the legacy key is migrated to
// the current key format; when no entry exists the index is left as is.
func (e *Engine) Rename(ctx context.Context, who auth.Identity, gameID string, roleID models.RoleID, oldName, newName string) (*models.Game, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, apperror.ValidationFailed("newName", "new name must not be blank")
	}

	var committed *models.Game
	err := e.store.RunTransaction(ctx, func(tx *store.Tx) error {
		game, role, err := loadRole(tx, gameID, roleID)
		if err != nil {
			return err
		}
		committed = game
		if oldName == newName {
			return nil
		}

		changed := false
		for i, v := range role.Volunteers {
			if v == oldName {
				role.Volunteers[i] = newName
				changed = true
			}
		}
		if url, ok := role.Avatars[oldName]; ok {
			role.Avatars[newName] = url
			delete(role.Avatars, oldName)
			changed = true
		}
		if changed {
			if err := tx.PutGame(game); err != nil {
				return err
			}
		}

		if !who.Authenticated() {
			return nil
		}
		return renameRegistration(tx, who.AccountID, game, role, oldName, newName)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("volunteer renamed",
		zap.String("game", gameID),
		zap.String("role", string(roleID)),
		zap.String("from", oldName),
		zap.String("to", newName))
	return committed, nil
}

func renameRegistration(tx *store.Tx, accountID string, game *models.Game, role *models.Role, oldName, newName string) error {
	old, err := tx.Registration(accountID, models.RegistrationKey(game.ID, role.ID, oldName))
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		old, err = legacyRegistration(tx, accountID, game.ID, role.ID, oldName)
		if err != nil {
			return err
		}
		if old == nil {
			return nil
		}
	default:
		return err
	}

	if err := tx.DeleteRegistration(accountID, old.Key); err != nil {
		return err
	}
	renamed := *old
	renamed.Key = models.RegistrationKey(game.ID, role.ID, newName)
	renamed.VolunteerName = newName
	return tx.SetRegistration(&renamed)
}

// legacyRegistration returns the entry stored under the old per-role key if
// it names the given volunteer.
func legacyRegistration(tx *store.Tx, accountID, gameID string, roleID models.RoleID, name string) (*models.Registration, error) {
	reg, err := tx.Registration(accountID, models.LegacyRegistrationKey(gameID, roleID))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if reg.VolunteerName != name {
		return nil, nil
	}
	return reg, nil
}

func loadRole(tx *store.Tx, gameID string, roleID models.RoleID) (*models.Game, *models.Role, error) {
	game, err := tx.Game(gameID)
	if err != nil {
		return nil, nil, err
	}
	role := game.Role(roleID)
	if role == nil {
		return nil, nil, apperror.NotFound("role", string(roleID))
	}
	return game, role, nil
}
