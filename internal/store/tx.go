package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nickdesi/scba-benevolat/internal/apperror"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tx is the view of the store inside RunTransaction. Every write goes
// through the same database transaction and is discarded if the callback
// fails or a game was changed concurrently.
type Tx struct {
	db      *gorm.DB
	written map[string]models.Game
}

func newTx(db *gorm.DB) *Tx {
	return &Tx{db: db, written: map[string]models.Game{}}
}

// Game reads a game and records the version later writes are checked against.
func (t *Tx) Game(id string) (*models.Game, error) {
	var doc models.GameDocument
	if err := t.db.First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("game", id)
		}
		return nil, fmt.Errorf("read game %s: %w", id, err)
	}
	return decodeGame(doc)
}

// PutGame replaces g only if its stored version still equals g.Version.
// Otherwise it returns an error wrapping apperror.ErrConflict.
func (t *Tx) PutGame(g *models.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", g.ID, err)
	}
	res := t.db.Model(&models.GameDocument{}).
		Where("id = ? AND version = ?", g.ID, g.Version).
		Updates(map[string]any{
			"data":     datatypes.JSON(data),
			"date_iso": g.DateISO,
			"version":  g.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("write game %s: %w", g.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.Conflict("game", g.ID)
	}
	g.Version++
	t.written[g.ID] = g.Clone()
	return nil
}

// Registration reads one index entry. A missing entry is reported as
// apperror.ErrNotFound.
func (t *Tx) Registration(accountID, key string) (*models.Registration, error) {
	var reg models.Registration
	err := t.db.Where("account_id = ? AND reg_key = ?", accountID, key).First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("registration", key)
		}
		return nil, fmt.Errorf("read registration %s: %w", key, err)
	}
	return &reg, nil
}

// SetRegistration creates or overwrites an index entry.
func (t *Tx) SetRegistration(reg *models.Registration) error {
	if err := t.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(reg).Error; err != nil {
		return fmt.Errorf("write registration %s: %w", reg.Key, err)
	}
	return nil
}

func (t *Tx) DeleteRegistration(accountID, key string) error {
	err := t.db.Where("account_id = ? AND reg_key = ?", accountID, key).
		Delete(&models.Registration{}).Error
	if err != nil {
		return fmt.Errorf("delete registration %s: %w", key, err)
	}
	return nil
}

func decodeGame(doc models.GameDocument) (*models.Game, error) {
	var g models.Game
	if err := json.Unmarshal(doc.Data, &g); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", doc.ID, err)
	}
	g.ID = doc.ID
	g.Version = doc.Version
	return &g, nil
}
