// Package settings provides database operations for persisted runtime
// settings such as the generated JWT signing key.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	secret, err := repo.GetOrCreate(entities.SettingKeyJWTSecret, generate)
package settings

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/booklify/admin/internal/entities"
)

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetSetting retrieves a setting by key.
func (r *Repository) GetSetting(key string) (*entities.Setting, error) {
	var setting entities.Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// GetValue returns the value for key, or "" when unset.
func (r *Repository) GetValue(key string) (string, error) {
	s, err := r.GetSetting(key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

// SetSetting creates or updates a setting.
func (r *Repository) SetSetting(key, value string) error {
	setting := entities.Setting{Key: key, Value: value}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

// GetOrCreate returns the stored value for key, storing the result of
// generate first when the key is unset.
func (r *Repository) GetOrCreate(key string, generate func() (string, error)) (string, error) {
	value, err := r.GetValue(key)
	if err != nil || value != "" {
		return value, err
	}
	value, err = generate()
	if err != nil {
		return "", err
	}
	if err := r.SetSetting(key, value); err != nil {
		return "", err
	}
	return value, nil
}

// DeleteSetting removes a setting by key.
func (r *Repository) DeleteSetting(key string) error {
	return r.db.Where("key = ?", key).Delete(&entities.Setting{}).Error
}
