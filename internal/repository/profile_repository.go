package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"optiday/internal/model"
)

// ProfileRepository keeps track of chats that own a planner session.
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// UpsertFromTelegram finds or creates a profile by TelegramID and refreshes its names.
func (r *ProfileRepository) UpsertFromTelegram(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.Profile, error) {
	var profile model.Profile
	db := r.db.WithContext(ctx)
	err := db.Where("telegram_id = ?", telegramID).First(&profile).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
			"username":   username,
		}
		if err := db.Model(&profile).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		return &profile, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = model.Profile{
			TelegramID: telegramID,
			FirstName:  firstName,
			LastName:   lastName,
			Username:   username,
		}
		if err := db.Create(&profile).Error; err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		return &profile, nil
	default:
		return nil, fmt.Errorf("find profile: %w", err)
	}
}

func (r *ProfileRepository) ListAll(ctx context.Context) ([]model.Profile, error) {
	var profiles []model.Profile
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}
