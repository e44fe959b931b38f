package player

import (
	"context"
	"fmt"

	"github.com/desertthunder/learnx/internal/services"
	"github.com/desertthunder/learnx/internal/shared"
	"golang.org/x/time/rate"
)

// HTTPLoader downloads slide narration into memory.
type HTTPLoader struct {
	api     *services.APIService
	limiter *rate.Limiter
}

// NewHTTPLoader creates a loader that fetches audio references through api.
//
// A positive limit caps downloads per second.
func NewHTTPLoader(api *services.APIService, limit float64) *HTTPLoader {
	l := &HTTPLoader{api: api}
	if limit > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(limit), 1)
	}
	return l
}

// Acquire implements [Loader].
func (l *HTTPLoader) Acquire(ctx context.Context, slide Slide) (Resource, error) {
	if slide.AudioRef == "" {
		return nil, fmt.Errorf("%w: slide %s has no audio", shared.ErrContentUnavailable, slide.ID)
	}

	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}
	}

	resp, err := l.api.Get(ctx, slide.AudioRef)
	if err != nil {
		return nil, fmt.Errorf("failed to load audio for slide %s: %w", slide.ID, err)
	}
	if err := services.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("failed to load audio for slide %s: %w", slide.ID, err)
	}
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("%w: slide %s audio is empty", shared.ErrContentUnavailable, slide.ID)
	}

	return NewMemoryResource(resp.Body), nil
}
