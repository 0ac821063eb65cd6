// internal/services/profile_service.go
package services

import (
	"strings"
	"sync"

	"github.com/Corphon/StandfmAI/internal/errors"
	"github.com/Corphon/StandfmAI/internal/models"
	"github.com/Corphon/StandfmAI/internal/storage"
	"github.com/Corphon/StandfmAI/internal/utils"
)

// PreviewPlaceholder stands in for the AI summary in profile previews.
const PreviewPlaceholder = "（ここにAI生成の概要欄が追加されます）"

// ProfileService stores the singleton creator profile.
type ProfileService struct {
	store  storage.Store
	logger *utils.Logger
	mu     sync.Mutex
}

func NewProfileService(store storage.Store) *ProfileService {
	return &ProfileService{store: store, logger: utils.GetLogger()}
}

// Get returns the stored profile, or defaults when it is absent or unreadable.
func (s *ProfileService) Get() *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	var profile models.Profile
	found, err := s.store.Get(storage.KeyProfile, &profile)
	if err != nil {
		s.logger.Warn("Failed to load profile, using defaults", map[string]interface{}{"error": err.Error()})
		return models.DefaultProfile()
	}
	if !found {
		return models.DefaultProfile()
	}
	return normalizeProfile(&profile)
}

// Save overwrites the profile wholesale.
func (s *ProfileService) Save(profile models.Profile) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := normalizeProfile(&profile)
	if err := s.store.Put(storage.KeyProfile, normalized); err != nil {
		return nil, errors.NewPersistenceError("プロフィールの保存に失敗しました", err)
	}
	return normalized, nil
}

// PreviewDescription renders the description header with a placeholder summary.
func (s *ProfileService) PreviewDescription() string {
	return BuildDescription(PreviewPlaceholder, s.Get())
}

// normalizeProfile keeps exactly three achievements and at least one link row.
func normalizeProfile(p *models.Profile) *models.Profile {
	out := *p

	achievements := make([]string, models.AchievementSlots)
	copy(achievements, p.Achievements)
	out.Achievements = achievements

	out.CustomLinks = make([]models.CustomLink, 0, len(p.CustomLinks))
	for _, l := range p.CustomLinks {
		out.CustomLinks = append(out.CustomLinks, models.CustomLink{
			Name: strings.TrimSpace(l.Name),
			URL:  strings.TrimSpace(l.URL),
		})
	}
	if len(out.CustomLinks) == 0 {
		out.CustomLinks = []models.CustomLink{{}}
	}
	return &out
}
