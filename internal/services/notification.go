package services

import (
	"context"

	"github.com/fundtrack/fundtrack/internal/models"
	"github.com/fundtrack/fundtrack/internal/realtime"
	"github.com/fundtrack/fundtrack/internal/types"
	"github.com/juju/errors"
	"gorm.io/gorm"
)

const notificationEvent = "notification"

type NotificationService struct {
	db        *gorm.DB
	publisher Publisher
}

// NewNotificationService returns a service that also pushes new
// notifications through publisher when it is not nil.
func NewNotificationService(db *gorm.DB, publisher Publisher) *NotificationService {
	return &NotificationService{db: db, publisher: publisher}
}

// GetUserNotifications returns the user's notifications, newest first.
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID uint) ([]models.Notification, error) {
	notifications := []models.Notification{}

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error

	if err != nil {
		return nil, errors.Annotatef(err, "listing notifications of user %d", userID)
	}

	return notifications, nil
}

// MarkAsRead flags one notification. The user id is part of the update
// predicate, so ids belonging to other users match nothing.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID uint) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)

	if result.Error != nil {
		return 0, errors.Annotatef(result.Error, "marking notification %d as read", notificationID)
	}

	return result.RowsAffected, nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where(map[string]interface{}{"user_id": userID, "read": false}). // "read" is reserved in MySQL, let GORM quote it
		Update("read", true)

	if result.Error != nil {
		return 0, errors.Annotatef(result.Error, "marking notifications of user %d as read", userID)
	}

	return result.RowsAffected, nil
}

func (s *NotificationService) CreateNotification(ctx context.Context, userID uint, title, message string) (*models.Notification, error) {
	notification := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
	}

	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, errors.Annotatef(err, "creating notification for user %d", userID)
	}

	if s.publisher != nil {
		s.publisher.Publish(userID, realtime.Event{
			Type:    notificationEvent,
			Payload: types.NewNotificationResponse(notification),
		})
	}

	return &notification, nil
}
