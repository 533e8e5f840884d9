// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for AssistantLink,
// the row that binds a purchased phone number to a tenant and an assistant.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
//
// Error semantics:
//   - Missing rows yield ErrNotFound.
//   - A platform phone-number id that matches more than one row yields
//     ErrAmbiguousLink; callers treat it like a failed lookup.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrAmbiguousLink is returned when a platform phone-number id resolves to
// more than one link.
var ErrAmbiguousLink = errors.New("phone number id is linked more than once")

// NewLink describes a link to insert after a number has been provisioned.
type NewLink struct {
	UserID            string
	TwilioPhoneNumber string
	TwilioPhoneSID    string
	VapiPhoneNumberID string
	VapiAssistantID   string
}

// CreateLink inserts a new AssistantLink with a generated UUID.
func CreateLink(ctx context.Context, db *gorm.DB, in NewLink) (*domain.AssistantLink, error) {
	now := time.Now().UTC()
	l := &domain.AssistantLink{
		ID:                uuid.NewString(),
		UserID:            in.UserID,
		TwilioPhoneNumber: in.TwilioPhoneNumber,
		TwilioPhoneSID:    in.TwilioPhoneSID,
		VapiPhoneNumberID: in.VapiPhoneNumberID,
		VapiAssistantID:   in.VapiAssistantID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.WithContext(ctx).Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

// FindLinkByVapiPhoneNumberID returns the single link for a platform phone
// number id. It reads at most two rows so ambiguity is detected without a
// full scan.
func FindLinkByVapiPhoneNumberID(ctx context.Context, db *gorm.DB, phoneNumberID string) (*domain.AssistantLink, error) {
	var rows []domain.AssistantLink
	err := db.WithContext(ctx).
		Where("vapi_phone_number_id = ?", phoneNumberID).
		Order("created_at asc").
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &rows[0], nil
	default:
		return nil, ErrAmbiguousLink
	}
}

// FindLinkByPhoneNumber returns the most recent link for a purchased number.
func FindLinkByPhoneNumber(ctx context.Context, db *gorm.DB, number string) (*domain.AssistantLink, error) {
	var l domain.AssistantLink
	err := db.WithContext(ctx).
		Where("twilio_phone_number = ?", number).
		Order("created_at desc").
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindLinkByUser returns the tenant's most recent link.
func FindLinkByUser(ctx context.Context, db *gorm.DB, userID string) (*domain.AssistantLink, error) {
	var l domain.AssistantLink
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLinks returns links ordered by creation time. When userIDs is non-empty
// only those tenants' links are returned.
func ListLinks(ctx context.Context, db *gorm.DB, userIDs ...string) ([]domain.AssistantLink, error) {
	var out []domain.AssistantLink
	q := db.WithContext(ctx).Order("created_at asc")
	if len(userIDs) > 0 {
		q = q.Where("user_id IN ?", userIDs)
	}
	err := q.Find(&out).Error
	return out, err
}

// UpdateLinkAssistant points an existing link at a different assistant.
// Returns ErrNotFound if no row was affected.
func UpdateLinkAssistant(ctx context.Context, db *gorm.DB, linkID, assistantID string) error {
	res := db.WithContext(ctx).
		Model(&domain.AssistantLink{}).
		Where("id = ?", linkID).
		Updates(map[string]any{
			"vapi_assistant_id": assistantID,
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
