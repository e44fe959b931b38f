package services

import (
	"context"

	"github.com/desertthunder/learnx/internal/models"
)

// Content is the read side of [ContentService] used by the presentation engine and audio loader.
type Content interface {
	// GetPresentation fetches the slide manifest for a presentation.
	GetPresentation(ctx context.Context, id string) (*models.Presentation, error)

	// GetSlideMarkup fetches the HTML for the 1-based slide n.
	GetSlideMarkup(ctx context.Context, id string, n int) (string, error)

	// GetSlideAudio fetches the narration for the 1-based slide n.
	GetSlideAudio(ctx context.Context, id string, n int) (*Audio, error)

	// AudioURL is the narration URL for the 1-based slide n.
	AudioURL(id string, n int) string
}

// Audio is a downloaded narration track.
type Audio struct {
	Data        []byte
	ContentType string
}

var _ Content = (*ContentService)(nil)
