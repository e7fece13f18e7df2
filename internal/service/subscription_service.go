package service

import (
	"strings"
	"sync"

	"groupchat/backend/internal/repository"
	"groupchat/backend/pkg/errors"
)

// Add/Remove status strings reported back over the ack channel.
const (
	StatusSaved         = "saved"
	StatusAlreadyExists = "already exists"
	StatusRemoved       = "removed"
)

// SubscriptionService owns the push-target registry and its in-process mirror.
// The mirror is rebuilt from durable storage at construction and updated on
// every add/remove; fan-out reads never touch the database.
type SubscriptionService struct {
	repo repository.SubscriptionRepository

	mu   sync.Mutex
	urls []string
}

// NewSubscriptionService loads the mirror from durable storage.
func NewSubscriptionService(repo repository.SubscriptionRepository) (*SubscriptionService, error) {
	urls, err := repo.ListURLs()
	if err != nil {
		return nil, errors.NewStorageError("failed to load push subscriptions", err)
	}
	return &SubscriptionService{repo: repo, urls: urls}, nil
}

// Add registers a push URL. Adding an existing URL is a no-op that reports
// "already exists" rather than erroring.
func (s *SubscriptionService) Add(url string) (string, error) {
	if !strings.HasPrefix(url, "http") {
		return "", errors.NewValidationError("push url must start with http")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.urls {
		if existing == url {
			return StatusAlreadyExists, nil
		}
	}

	if _, err := s.repo.Create(url); err != nil {
		return "", errors.NewStorageError("failed to save push url", err)
	}
	s.urls = append(s.urls, url)
	return StatusSaved, nil
}

// Remove deletes a push URL. Removing a URL that was never registered still
// reports success.
func (s *SubscriptionService) Remove(url string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteByURL(url); err != nil {
		return "", errors.NewStorageError("failed to remove push url", err)
	}

	for i, existing := range s.urls {
		if existing == url {
			s.urls = append(s.urls[:i], s.urls[i+1:]...)
			break
		}
	}
	return StatusRemoved, nil
}

// ListAll returns a snapshot of the mirror.
func (s *SubscriptionService) ListAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]string, len(s.urls))
	copy(snapshot, s.urls)
	return snapshot
}
