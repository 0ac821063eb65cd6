// internal/models/content.go
package models

// GeneratedContent is the bundle returned by the generation collaborator.
type GeneratedContent struct {
	CleanedTranscript  string   `json:"cleanedTranscript"`
	Summary            string   `json:"summary"`
	Titles             []string `json:"titles"`
	StandfmDescription string   `json:"standfmDescription"`
	XPost              string   `json:"xPost"`
}

// ProcessResult is the payload returned for a processed upload.
type ProcessResult struct {
	Transcript  string   `json:"transcript"`
	Summary     string   `json:"summary"`
	Titles      []string `json:"titles"`
	Description string   `json:"description"`
	XPost       string   `json:"xPost"`
}
