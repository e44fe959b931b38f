package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/learnx/internal/shared"
)

// TranscribeFilename is the file name recorded voice questions are uploaded under.
const TranscribeFilename = "chatbot.webm"

// QAService wraps the backend's Q&A REST routes.
type QAService struct {
	api *APIService
}

// NewQAService creates a QAService on top of api.
func NewQAService(api *APIService) *QAService {
	return &QAService{api: api}
}

// Transcribe uploads audio and returns the recognized text, empty when nothing was recognized.
//
// The backend reports a failed recognition as a 200 carrying [shared.TranscriptionFailedText];
// that comes back as [shared.ErrContentUnavailable].
func (q *QAService) Transcribe(ctx context.Context, audio []byte, filename, courseID string) (string, error) {
	if filename == "" {
		filename = TranscribeFilename
	}

	resp, err := q.api.PostMultipart(ctx, "/qa/transcribe",
		FilePart{Field: "audio", Filename: filename, Data: audio},
		map[string]string{"course_id": courseID},
	)
	if err != nil {
		return "", err
	}
	if err := CheckStatus(resp); err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	obj, _ := resp.JSONData.(map[string]any)
	text, _ := obj["transcribed_text"].(string)
	if text == shared.TranscriptionFailedText {
		return "", fmt.Errorf("%w: failed to transcribe audio", shared.ErrContentUnavailable)
	}
	return text, nil
}
