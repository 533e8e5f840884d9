// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the CallLog model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-receptionist-backend/internal/domain"
)

// CreateCallLog inserts an immutable call record. ID and CreatedAt are
// assigned here when empty.
func CreateCallLog(ctx context.Context, db *gorm.DB, c *domain.CallLog) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(c).Error
}

// CountCallLogs returns the number of calls recorded for a tenant.
func CountCallLogs(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.CallLog{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListCallLogsPage returns a page of the tenant's calls, newest first.
func ListCallLogsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.CallLog, error) {
	var out []domain.CallLog
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
