package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"optiday/internal/model"
)

// SettingRepository is a durable key/value store partitioned by namespace.
type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns ok=false if the key was never written in namespace.
func (r *SettingRepository) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	var setting model.Setting
	err := r.db.WithContext(ctx).Where("namespace = ? AND name = ?", namespace, key).First(&setting).Error
	switch {
	case err == nil:
		return setting.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", false, nil
	default:
		return "", false, fmt.Errorf("find setting %s/%s: %w", namespace, key, err)
	}
}

// Set writes value, replacing any previous value of key.
func (r *SettingRepository) Set(ctx context.Context, namespace, key, value string) error {
	setting := model.Setting{Namespace: namespace, Name: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("save setting %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Scoped binds the repository to one namespace.
func (r *SettingRepository) Scoped(namespace string) *ScopedSettings {
	return &ScopedSettings{repo: r, namespace: namespace}
}

// ScopedSettings is the local storage of a single session.
type ScopedSettings struct {
	repo      *SettingRepository
	namespace string
}

func (s *ScopedSettings) Get(ctx context.Context, key string) (string, bool, error) {
	return s.repo.Get(ctx, s.namespace, key)
}

func (s *ScopedSettings) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, s.namespace, key, value)
}
