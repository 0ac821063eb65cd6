// internal/models/script.go
package models

import "time"

// ScriptSection is one body block of a generated script.
type ScriptSection struct {
	Heading string   `json:"heading"`
	Points  []string `json:"points"`
}

// GeneratedScript is a talking-point script. FullText is always the
// rendering of the other fields.
type GeneratedScript struct {
	Title         string          `json:"title"`
	Opening       string          `json:"opening"`
	Body          []ScriptSection `json:"body"`
	Conclusion    string          `json:"conclusion"`
	EstimatedTime string          `json:"estimatedTime"`
	FullText      string          `json:"fullText"`
}

// SavedScript is a script kept in the script library.
type SavedScript struct {
	ID            string       `json:"id"`
	MemoText      string       `json:"memoText"`
	SourcePostIDs []string     `json:"sourcePostIds"`
	ScriptText    string       `json:"scriptText"`
	Title         string       `json:"title"`
	Tone          Tone         `json:"tone"`
	Length        ScriptLength `json:"length"`
	CreatedAt     time.Time    `json:"createdAt"`
}
