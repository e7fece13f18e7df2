package repository

import (
	"time"

	"groupchat/backend/internal/models"

	"gorm.io/gorm"
)

// SubscriptionRepository is the durable registry of unique push-target URLs.
type SubscriptionRepository interface {
	Create(url string) (*models.PushSubscription, error)
	DeleteByURL(url string) error
	ListURLs() ([]string, error)
}

type GormSubscriptionRepository struct {
	db *gorm.DB
}

func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

func (r *GormSubscriptionRepository) Create(url string) (*models.PushSubscription, error) {
	sub := models.PushSubscription{
		URL:       url,
		CreatedAt: time.Now().UTC().Format(timestampLayout),
	}
	if err := r.db.Create(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *GormSubscriptionRepository) DeleteByURL(url string) error {
	return r.db.Where("url = ?", url).Delete(&models.PushSubscription{}).Error
}

func (r *GormSubscriptionRepository) ListURLs() ([]string, error) {
	var urls []string
	err := r.db.Model(&models.PushSubscription{}).
		Order("id ASC").
		Pluck("url", &urls).Error
	return urls, err
}
