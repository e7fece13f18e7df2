package models

// Message represents a chat message. Rows are append-only: once stored a
// message is never updated or deleted.
type Message struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp" gorm:"index"`

	// Quote carries the quoted message on broadcast payloads only. It is
	// resolved client-side from the referenced timestamp and never persisted.
	Quote *Quote `json:"quote,omitempty" gorm:"-"`

	// HTML is the server-rendered markup for the content. Populated on
	// broadcast and history payloads, never persisted.
	HTML string `json:"html,omitempty" gorm:"-"`
}

// Quote references a prior message by timestamp.
type Quote struct {
	Timestamp string `json:"timestamp"`
	Content   string `json:"content"`
}

func (Message) TableName() string {
	return "messages"
}
