package repository

import (
	"time"

	"groupchat/backend/internal/models"

	"gorm.io/gorm"
)

// timestampLayout is ISO-8601 with fixed-width milliseconds, so lexicographic
// order on the stored string matches chronological order.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// MessageRepository is the durable, append-only record of all messages.
type MessageRepository interface {
	Create(content string) (*models.Message, error)
	// PageDesc returns up to limit messages counted from the newest backward,
	// newest first.
	PageDesc(limit, offset int) ([]models.Message, error)
	Count() (int64, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create assigns the timestamp and stores the row. The id comes back from the
// store's autoincrement; the timestamp is the sole ordering key with id as the
// tie-breaker.
func (r *GormMessageRepository) Create(content string) (*models.Message, error) {
	message := models.Message{
		Content:   content,
		Timestamp: time.Now().UTC().Format(timestampLayout),
	}
	if err := r.db.Create(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *GormMessageRepository) PageDesc(limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

func (r *GormMessageRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).Count(&count).Error
	return count, err
}
