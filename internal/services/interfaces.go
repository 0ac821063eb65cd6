// internal/services/interfaces.go
package services

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/Corphon/StandfmAI/internal/models"
)

// Transcriber turns uploaded audio into a plain-text transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// TextGenerator sends a prompt to the generation model and returns its raw text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PostHistory is the part of the history the orchestrator needs.
type PostHistory interface {
	List() []models.StoredPost
	Add(result models.ProcessResult) (*models.StoredPost, error)
}

// ProfileReader supplies the profile used to template descriptions.
type ProfileReader interface {
	Get() *models.Profile
}
