package models

// PushSubscription is a registered push endpoint that receives a best-effort
// copy of every new message. URLs are unique across the registry.
type PushSubscription struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	URL       string `json:"url" gorm:"uniqueIndex;not null"`
	CreatedAt string `json:"created_at"`
}

func (PushSubscription) TableName() string {
	return "push_subscriptions"
}
