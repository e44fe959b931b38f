package models

import (
	"errors"
	"time"
)

// Model defines the base interface for all persistent models in the slide cache.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Presentation is a manifest fetched from the backend.
type Presentation struct {
	ID     string
	Title  string
	Slides []Slide
}

// Slide is one manifest entry. Number is 1-based and matches the backend's slide and audio routes.
type Slide struct {
	Number   int
	ID       string
	Title    string
	Markup   string
	AudioRef string
}

// base carries the identity and lifecycle fields every persisted entity shares.
type base struct {
	id        string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newBase() base {
	now := time.Now()
	return base{createdAt: now, updatedAt: now}
}

func (b *base) ID() string                { return b.id }
func (b *base) SetID(id string)           { b.id = id }
func (b *base) CreatedAt() time.Time      { return b.createdAt }
func (b *base) SetCreatedAt(t time.Time)  { b.createdAt = t }
func (b *base) UpdatedAt() time.Time      { return b.updatedAt }
func (b *base) SetUpdatedAt(t time.Time)  { b.updatedAt = t }
func (b *base) DeletedAt() *time.Time     { return b.deletedAt }
func (b *base) SetDeletedAt(t *time.Time) { b.deletedAt = t }
func (b *base) IsDeleted() bool           { return b.deletedAt != nil }

// PersistedPresentation is a cached presentation manifest.
type PersistedPresentation struct {
	base
	sequence   int
	remoteID   string
	title      string
	slideCount int
}

// NewPersistedPresentation wraps a manifest for storage.
func NewPersistedPresentation(sequence int, p Presentation) *PersistedPresentation {
	return &PersistedPresentation{
		base:       newBase(),
		sequence:   sequence,
		remoteID:   p.ID,
		title:      p.Title,
		slideCount: len(p.Slides),
	}
}

func (p *PersistedPresentation) Sequence() int       { return p.sequence }
func (p *PersistedPresentation) SetSequence(s int)   { p.sequence = s }
func (p *PersistedPresentation) RemoteID() string    { return p.remoteID }
func (p *PersistedPresentation) Title() string       { return p.title }
func (p *PersistedPresentation) SetTitle(t string)   { p.title = t }
func (p *PersistedPresentation) SlideCount() int     { return p.slideCount }
func (p *PersistedPresentation) SetSlideCount(n int) { p.slideCount = n }

// Validate implements [Model].
func (p *PersistedPresentation) Validate() error {
	if p.remoteID == "" {
		return errors.New("presentation remote id is required")
	}
	if p.slideCount < 0 {
		return errors.New("slide count cannot be negative")
	}
	return nil
}

// PersistedSlide is cached markup for one position of a presentation.
type PersistedSlide struct {
	base
	presentationID string
	slide          Slide
}

// NewPersistedSlide wraps slide for storage under the cached presentation presentationID.
func NewPersistedSlide(presentationID string, slide Slide) *PersistedSlide {
	return &PersistedSlide{base: newBase(), presentationID: presentationID, slide: slide}
}

func (s *PersistedSlide) PresentationID() string { return s.presentationID }
func (s *PersistedSlide) Position() int          { return s.slide.Number }
func (s *PersistedSlide) Slide() Slide           { return s.slide }
func (s *PersistedSlide) SetMarkup(m string)     { s.slide.Markup = m }

// Validate implements [Model].
func (s *PersistedSlide) Validate() error {
	if s.presentationID == "" {
		return errors.New("slide presentation id is required")
	}
	if s.slide.Number < 1 {
		return errors.New("slide position must be 1 or greater")
	}
	return nil
}

// ExportManifest summarizes a presentation export written to disk.
type ExportManifest struct {
	PresentationID    string          `json:"presentation_id"`
	Title             string          `json:"title"`
	ExportedAt        time.Time       `json:"exported_at"`
	OutputDirectory   string          `json:"output_directory"`
	TotalSlides       int             `json:"total_slides"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	Slides            []ExportedSlide `json:"slides"`
}

// ExportedSlide is one slide's entry in an [ExportManifest].
type ExportedSlide struct {
	Number      int    `json:"number"`
	Title       string `json:"title"`
	MarkupFile  string `json:"markup_file,omitempty"`
	AudioFile   string `json:"audio_file,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"` // markup fell back to a placeholder
	Error       string `json:"error,omitempty"`
}

// Success reports whether every requested file was written.
func (s ExportedSlide) Success() bool { return s.Error == "" }
