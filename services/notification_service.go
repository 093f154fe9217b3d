package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/yeremiapane/hpp-app/models"
	"github.com/yeremiapane/hpp-app/notify"
	"github.com/yeremiapane/hpp-app/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notifier records a notification for an organization, optionally addressed
// to a single user.
type Notifier interface {
	Notify(orgID uint, userID *uint, event, title, message string, data interface{}) (*models.Notification, error)
}

// Broadcaster pushes live messages to connected clients.
type Broadcaster interface {
	Broadcast(organizationID uint, userID *uint, msg notify.Message) int
}

type NotificationService struct {
	db  *gorm.DB
	hub Broadcaster
}

func NewNotificationService(db *gorm.DB, hub Broadcaster) *NotificationService {
	return &NotificationService{db: db, hub: hub}
}

// Notify stores the notification and pushes it to the organization's open
// connections.
func (s *NotificationService) Notify(orgID uint, userID *uint, event, title, message string, data interface{}) (*models.Notification, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notification data: %w", err)
	}

	notif := models.Notification{
		OrganizationID: orgID,
		UserID:         userID,
		Event:          event,
		Title:          title,
		Message:        message,
		Data:           datatypes.JSON(payload),
	}
	if err := s.db.Create(&notif).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.hub != nil {
		s.hub.Broadcast(orgID, userID, notify.Message{Event: event, Data: notif})
	}
	utils.InfoLogger.Printf("Notification %s created for organization %d", event, orgID)
	return &notif, nil
}

// visible limits a query to notifications addressed to the whole
// organization or to userID.
func (s *NotificationService) visible(orgID, userID uint) *gorm.DB {
	return s.db.Model(&models.Notification{}).
		Where("organization_id = ? AND (user_id IS NULL OR user_id = ?)", orgID, userID)
}

func (s *NotificationService) List(orgID, userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.visible(orgID, userID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var notifs []models.Notification
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&notifs).Error; err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifs, nil
}

func (s *NotificationService) UnreadCount(orgID, userID uint) (int64, error) {
	var n int64
	if err := s.visible(orgID, userID).Where("read_at IS NULL").Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return n, nil
}

func (s *NotificationService) find(orgID, userID, id uint) (*models.Notification, error) {
	var notif models.Notification
	if err := s.visible(orgID, userID).Where("id = ?", id).First(&notif).Error; err != nil {
		return nil, notFound(err, "notification", id)
	}
	return &notif, nil
}

func (s *NotificationService) MarkRead(orgID, userID, id uint) (*models.Notification, error) {
	notif, err := s.find(orgID, userID, id)
	if err != nil {
		return nil, err
	}
	if notif.ReadAt == nil {
		now := time.Now().UTC()
		notif.ReadAt = &now
		if err := s.db.Save(notif).Error; err != nil {
			return nil, fmt.Errorf("failed to mark notification read: %w", err)
		}
	}
	return notif, nil
}

func (s *NotificationService) Delete(orgID, userID, id uint) error {
	notif, err := s.find(orgID, userID, id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(notif).Error; err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}
