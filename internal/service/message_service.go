package service

import (
	"groupchat/backend/internal/models"
	"groupchat/backend/internal/repository"
	"groupchat/backend/pkg/errors"
)

// Pagination carries page metadata for a history read.
type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalMessages int64 `json:"totalMessages"`
	HasMore       bool  `json:"hasMore"`
}

// HistoryPage is one page of messages in chronological order.
type HistoryPage struct {
	Messages   []models.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

// MessageService fronts the persistent message log.
type MessageService struct {
	repo repository.MessageRepository
}

func NewMessageService(repo repository.MessageRepository) *MessageService {
	return &MessageService{repo: repo}
}

// Append durably stores a message and returns the full record. A failed write
// propagates as a storage error; the message must not be broadcast or pushed.
func (s *MessageService) Append(content string) (*models.Message, error) {
	message, err := s.repo.Create(content)
	if err != nil {
		return nil, errors.NewStorageError("failed to save message", err)
	}
	return message, nil
}

// Page reads the pageSize most recent messages for the requested page counted
// from the newest message backward, reversed to chronological order. Pages are
// 1-based; a page beyond the end returns empty items with HasMore false.
func (s *MessageService) Page(page, pageSize int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}

	total, err := s.repo.Count()
	if err != nil {
		return nil, errors.NewStorageError("failed to count messages", err)
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))

	messages, err := s.repo.PageDesc(pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, errors.NewStorageError("failed to read history", err)
	}

	// Reverse from newest-first to oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	if messages == nil {
		messages = []models.Message{}
	}

	return &HistoryPage{
		Messages: messages,
		Pagination: Pagination{
			CurrentPage:   page,
			TotalPages:    totalPages,
			TotalMessages: total,
			HasMore:       page < totalPages,
		},
	}, nil
}

// CountAll returns the total number of stored messages.
func (s *MessageService) CountAll() (int64, error) {
	count, err := s.repo.Count()
	if err != nil {
		return 0, errors.NewStorageError("failed to count messages", err)
	}
	return count, nil
}
