package repositories

import (
	"errors"
	"fmt"

	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/shared"
)

// SlideCacheAdapter implements tasks.SlideCacher on top of the presentation and slide repositories.
type SlideCacheAdapter struct {
	presentations *PresentationRepository
	slides        *SlideRepository
}

// NewSlideCacheAdapter creates a new SlideCacheAdapter with the given repositories
func NewSlideCacheAdapter(presentations *PresentationRepository, slides *SlideRepository) *SlideCacheAdapter {
	return &SlideCacheAdapter{presentations: presentations, slides: slides}
}

// CachedMarkup returns the cached markup of a presentation keyed by 1-based slide number.
//
// A presentation that was never cached yields an empty map.
func (a *SlideCacheAdapter) CachedMarkup(remoteID string) (map[int]string, error) {
	p, err := a.presentations.GetByRemoteID(remoteID)
	if errors.Is(err, shared.ErrNotFound) {
		return map[int]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	slides, err := a.slides.ListByPresentation(p.ID())
	if err != nil {
		return nil, err
	}

	markup := make(map[int]string, len(slides))
	for _, s := range slides {
		markup[s.Position()] = s.Slide().Markup
	}
	return markup, nil
}

// CachePresentation stores the manifest and replaces its cached slides.
func (a *SlideCacheAdapter) CachePresentation(p models.Presentation) error {
	persisted := models.NewPersistedPresentation(0, p)
	if err := a.presentations.Create(persisted); err != nil {
		return fmt.Errorf("failed to cache presentation: %w", err)
	}

	if err := a.slides.Replace(persisted.ID(), p.Slides); err != nil {
		return fmt.Errorf("failed to cache slides: %w", err)
	}
	return nil
}
