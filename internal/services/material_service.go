// internal/services/material_service.go
package services

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Corphon/StandfmAI/internal/models"
)

const (
	// DefaultMaxMaterials is used when a caller asks for zero or fewer results.
	DefaultMaxMaterials = 5

	materialReason = "関連キーワードが一致"

	keywordWeight = 2
	recentBonus   = 3 // within a week
	monthBonus    = 1 // within 30 days
)

var delimiterReplacer = strings.NewReplacer(
	"。", " ",
	"、", " ",
	"！", " ",
	"？", " ",
	"\r\n", " ",
	"\n", " ",
)

// tokenizeQuery lowercases query, splits it on spaces and Japanese sentence
// punctuation, and keeps distinct tokens longer than one character.
func tokenizeQuery(query string) []string {
	normalized := delimiterReplacer.Replace(strings.ToLower(query))

	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range strings.Split(normalized, " ") {
		if utf8.RuneCountInString(tok) <= 1 || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}
	return tokens
}

func recencyBonus(createdAt, now time.Time) int {
	age := now.Sub(createdAt)
	switch {
	case age < 7*24*time.Hour:
		return recentBonus
	case age < 30*24*time.Hour:
		return monthBonus
	default:
		return 0
	}
}

func scorePost(tokens []string, post models.StoredPost, now time.Time) int {
	haystack := strings.ToLower(post.Title + " " + post.Summary + " " + post.XPost)

	score := 0
	for _, tok := range tokens {
		if strings.Contains(haystack, tok) {
			score += keywordWeight
		}
	}
	return score + recencyBonus(post.CreatedAt, now)
}

// ScoreAndSelect ranks posts by keyword overlap with query plus a recency
// bonus and returns at most maxResults materials with a positive score.
// Ties keep their input order.
func ScoreAndSelect(query string, posts []models.StoredPost, maxResults int, now time.Time) []models.SelectedMaterial {
	if maxResults <= 0 {
		maxResults = DefaultMaxMaterials
	}
	if len(posts) == 0 {
		return []models.SelectedMaterial{}
	}

	tokens := tokenizeQuery(query)

	type scored struct {
		post  models.StoredPost
		score int
	}
	candidates := make([]scored, 0, len(posts))
	for _, post := range posts {
		if s := scorePost(tokens, post, now); s > 0 {
			candidates = append(candidates, scored{post: post, score: s})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	materials := make([]models.SelectedMaterial, 0, len(candidates))
	for _, c := range candidates {
		content := c.post.XPost
		if content == "" {
			content = c.post.Summary
		}
		materials = append(materials, models.SelectedMaterial{
			PostID:  c.post.ID,
			Title:   c.post.Title,
			Content: content,
			Reason:  materialReason,
		})
	}
	return materials
}

// MaterialService selects materials from the stored history.
type MaterialService struct {
	history PostHistory
	now     func() time.Time
}

// NewMaterialService creates a MaterialService reading from history.
func NewMaterialService(history PostHistory) *MaterialService {
	return &MaterialService{history: history, now: time.Now}
}

// WithClock replaces the clock used for recency scoring.
func (s *MaterialService) WithClock(now func() time.Time) *MaterialService {
	s.now = now
	return s
}

// Select scores the whole history against query.
func (s *MaterialService) Select(query string, maxResults int) []models.SelectedMaterial {
	return ScoreAndSelect(query, s.posts(), maxResults, s.now())
}

// HasHistory reports whether any post is stored.
func (s *MaterialService) HasHistory() bool {
	return len(s.posts()) > 0
}

func (s *MaterialService) posts() []models.StoredPost {
	if s.history == nil {
		return nil
	}
	return s.history.List()
}
