// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile model.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
)

// ProfileFields are the onboarding values written by checkout.
type ProfileFields struct {
	UserID        string
	BusinessName  string
	SelectedVoice string
}

// UpsertProfile inserts the tenant's profile or overwrites its business name
// and selected voice. Subscription and onboarding state are left untouched
// on conflict.
func UpsertProfile(ctx context.Context, db *gorm.DB, in ProfileFields) error {
	now := time.Now().UTC()
	p := &domain.Profile{
		ID:                 in.UserID,
		BusinessName:       in.BusinessName,
		SelectedVoice:      in.SelectedVoice,
		SubscriptionStatus: domain.SubscriptionPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"business_name", "selected_voice", "updated_at"}),
		}).
		Create(p).Error
}

// GetProfile fetches a profile by tenant id, or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Where("id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SetSubscriptionStatus updates the tenant's subscription state.
// Returns ErrNotFound if the profile does not exist.
func SetSubscriptionStatus(ctx context.Context, db *gorm.DB, userID, status string) error {
	return updateProfile(ctx, db, userID, map[string]any{"subscription_status": status})
}

// SetSelectedVoice records the persona currently answering the tenant's number.
func SetSelectedVoice(ctx context.Context, db *gorm.DB, userID, voice string) error {
	return updateProfile(ctx, db, userID, map[string]any{"selected_voice": voice})
}

// MarkOnboardingComplete flags the tenant as fully provisioned.
func MarkOnboardingComplete(ctx context.Context, db *gorm.DB, userID string) error {
	return updateProfile(ctx, db, userID, map[string]any{"onboarding_complete": true})
}

func updateProfile(ctx context.Context, db *gorm.DB, userID string, cols map[string]any) error {
	cols["updated_at"] = time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", userID).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
