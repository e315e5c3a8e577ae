package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"complaint-service/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *NotificationRepository) ListRecent(ctx context.Context, recipient model.Recipient, limit int) ([]model.Notification, error) {
	var items []model.Notification
	if err := recipientQuery(r.db.WithContext(ctx), recipient).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipient model.Recipient) (int64, error) {
	var count int64
	if err := recipientQuery(r.db.WithContext(ctx), recipient).
		Where("is_read = ?", false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead flags one notification as read and returns how many rows changed
// (0 when it is missing, already read, or addressed to someone else).
func (r *NotificationRepository) MarkRead(ctx context.Context, recipient model.Recipient, id uuid.UUID) (int64, error) {
	res := recipientQuery(r.db.WithContext(ctx), recipient).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient model.Recipient) (int64, error) {
	res := recipientQuery(r.db.WithContext(ctx), recipient).
		Where("is_read = ?", false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) Exists(ctx context.Context, recipient model.Recipient, id uuid.UUID) (bool, error) {
	var count int64
	if err := recipientQuery(r.db.WithContext(ctx), recipient).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func recipientQuery(db *gorm.DB, recipient model.Recipient) *gorm.DB {
	return db.Model(&model.Notification{}).
		Where("recipient_id = ? AND recipient_role = ?", recipient.ID, recipient.Role)
}
