// internal/services/history_service.go
package services

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Corphon/StandfmAI/internal/errors"
	"github.com/Corphon/StandfmAI/internal/models"
	"github.com/Corphon/StandfmAI/internal/storage"
	"github.com/Corphon/StandfmAI/internal/utils"
)

const untitledPost = "無題"

// leadingToken matches the emoji (or any first word) that generated titles start with.
var leadingToken = regexp.MustCompile(`^[^\s\p{Z}]+[\s\p{Z}]*`)

// HistoryService manages the list of generated posts, newest first.
type HistoryService struct {
	store  storage.Store
	logger *utils.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewHistoryService creates a HistoryService on store.
func NewHistoryService(store storage.Store) *HistoryService {
	return &HistoryService{
		store:  store,
		logger: utils.GetLogger(),
		now:    time.Now,
	}
}

func (s *HistoryService) load() ([]models.StoredPost, error) {
	var posts []models.StoredPost
	if _, err := s.store.Get(storage.KeyHistory, &posts); err != nil {
		return nil, errors.NewPersistenceError("履歴の読み込みに失敗しました", err)
	}
	return posts, nil
}

// List returns every post. A load failure is logged and yields an empty list.
func (s *HistoryService) List() []models.StoredPost {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.load()
	if err != nil {
		s.logger.Warn("Failed to load history", map[string]interface{}{"error": err.Error()})
		return []models.StoredPost{}
	}
	if posts == nil {
		posts = []models.StoredPost{}
	}
	return posts
}

// Search returns posts whose title or summary contains query, ignoring case.
// A blank query returns everything.
func (s *HistoryService) Search(query string) []models.StoredPost {
	posts := s.List()
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return posts
	}

	matched := make([]models.StoredPost, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Summary), q) {
			matched = append(matched, p)
		}
	}
	return matched
}

// Get returns one post by id.
func (s *HistoryService) Get(id string) (*models.StoredPost, error) {
	for _, p := range s.List() {
		if p.ID == id {
			post := p
			return &post, nil
		}
	}
	return nil, errors.NewNotFoundError("投稿が見つかりません", nil)
}

// PostTitle derives the stored title from the first generated title.
func PostTitle(titles []string) string {
	if len(titles) == 0 {
		return untitledPost
	}
	if title := leadingToken.ReplaceAllString(titles[0], ""); title != "" {
		return title
	}
	return untitledPost
}

// Add stores a successful result as the newest post.
func (s *HistoryService) Add(result models.ProcessResult) (*models.StoredPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.load()
	if err != nil {
		return nil, err
	}

	post := models.StoredPost{
		ID:          uuid.New().String(),
		CreatedAt:   s.now(),
		Title:       PostTitle(result.Titles),
		Summary:     result.Summary,
		XPost:       result.XPost,
		Description: result.Description,
		Transcript:  result.Transcript,
	}

	updated := append([]models.StoredPost{post}, posts...)
	if err := s.store.Put(storage.KeyHistory, updated); err != nil {
		return nil, errors.NewPersistenceError("履歴の保存に失敗しました", err)
	}
	return &post, nil
}

// Delete removes one post.
func (s *HistoryService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.load()
	if err != nil {
		return err
	}

	kept := make([]models.StoredPost, 0, len(posts))
	for _, p := range posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(posts) {
		return errors.NewNotFoundError("投稿が見つかりません", nil)
	}

	if err := s.store.Put(storage.KeyHistory, kept); err != nil {
		return errors.NewPersistenceError("履歴の保存に失敗しました", err)
	}
	return nil
}

// Clear removes every post.
func (s *HistoryService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(storage.KeyHistory); err != nil {
		return errors.NewPersistenceError("履歴の削除に失敗しました", err)
	}
	return nil
}
