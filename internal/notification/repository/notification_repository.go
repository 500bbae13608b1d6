package repository

import (
	"time"

	"docuflow-backend/internal/notification/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Insert(notification *domain.Notification) error
}

type DeviceTokenRepository interface {
	Save(token *domain.DeviceToken) error
	TokensByOwner(ownerID string) ([]string, error)
	Delete(token string) error
}

// notificationRepository implements NotificationRepository
type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{
		db: db,
	}
}

func (r *notificationRepository) Insert(notification *domain.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}
	notification.CreatedAt = time.Now()
	return r.db.Create(notification).Error
}

// deviceTokenRepository implements DeviceTokenRepository
type deviceTokenRepository struct {
	db *gorm.DB
}

func NewDeviceTokenRepository(db *gorm.DB) DeviceTokenRepository {
	return &deviceTokenRepository{
		db: db,
	}
}

func (r *deviceTokenRepository) Save(token *domain.DeviceToken) error {
	token.CreatedAt = time.Now()
	return r.db.Save(token).Error
}

func (r *deviceTokenRepository) TokensByOwner(ownerID string) ([]string, error) {
	var tokens []domain.DeviceToken
	if err := r.db.Where("owner_id = ?", ownerID).Find(&tokens).Error; err != nil {
		return nil, err
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Token)
	}
	return out, nil
}

func (r *deviceTokenRepository) Delete(token string) error {
	return r.db.Where("token = ?", token).Delete(&domain.DeviceToken{}).Error
}
