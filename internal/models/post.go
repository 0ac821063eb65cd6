// internal/models/post.go
package models

import "time"

// StoredPost is one successful generation kept in history.
type StoredPost struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	XPost       string    `json:"xPost"`
	Description string    `json:"description"`
	Transcript  string    `json:"transcript,omitempty"`
}

// SelectedMaterial is a past post picked as context for a script.
type SelectedMaterial struct {
	PostID  string `json:"postId"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}
