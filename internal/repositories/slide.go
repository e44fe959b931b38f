package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/shared"
)

const slideColumns = "id, presentation_id, position, remote_id, title, markup, audio_ref, created_at, updated_at"

// SlideRepository implements models.Repository[*models.PersistedSlide] for slide markup caching.
//
// Slides are hard-deleted; their lifetime follows the owning presentation.
type SlideRepository struct {
	db *sql.DB
}

// NewSlideRepository creates a new SlideRepository with the given database connection
func NewSlideRepository(db *sql.DB) *SlideRepository {
	return &SlideRepository{db: db}
}

// Create inserts a slide with a generated ID
func (r *SlideRepository) Create(s *models.PersistedSlide) error {
	return insertSlide(r.db, s)
}

func insertSlide(q querier, s *models.PersistedSlide) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	slide := s.Slide()

	query := `
		INSERT INTO slides (id, presentation_id, position, remote_id, title, markup, audio_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := q.Exec(query,
		id,
		s.PresentationID(),
		s.Position(),
		slide.ID,
		slide.Title,
		slide.Markup,
		slide.AudioRef,
		s.CreatedAt(),
		s.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert slide: %w", err)
	}

	s.SetID(id)
	return nil
}

// Get retrieves a slide by ID
func (r *SlideRepository) Get(id string) (*models.PersistedSlide, error) {
	query := "SELECT " + slideColumns + " FROM slides WHERE id = ?"
	return r.scan(r.db.QueryRow(query, id), id)
}

// GetByPosition retrieves the slide at the 1-based position of a cached presentation
func (r *SlideRepository) GetByPosition(presentationID string, position int) (*models.PersistedSlide, error) {
	query := "SELECT " + slideColumns + " FROM slides WHERE presentation_id = ? AND position = ?"
	return r.scan(r.db.QueryRow(query, presentationID, position), fmt.Sprintf("%s#%d", presentationID, position))
}

// Update rewrites a slide's title, markup and audio reference
func (r *SlideRepository) Update(s *models.PersistedSlide) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	s.SetUpdatedAt(now)
	slide := s.Slide()

	query := `
		UPDATE slides
		SET title = ?, markup = ?, audio_ref = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, slide.Title, slide.Markup, slide.AudioRef, now, s.ID())
	if err != nil {
		return fmt.Errorf("failed to update slide: %w", err)
	}
	return affected(result, "slide", s.ID())
}

// Delete removes a slide by ID
func (r *SlideRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM slides WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete slide: %w", err)
	}
	return affected(result, "slide", id)
}

// List retrieves slides in position order.
//
// Supported criteria: "presentation_id".
func (r *SlideRepository) List(criteria map[string]any) ([]*models.PersistedSlide, error) {
	query := "SELECT " + slideColumns + " FROM slides WHERE 1 = 1"
	args := []any{}

	if pid, ok := criteria["presentation_id"].(string); ok && pid != "" {
		query += " AND presentation_id = ?"
		args = append(args, pid)
	}

	query += " ORDER BY presentation_id, position ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slides: %w", err)
	}
	defer rows.Close()

	var slides []*models.PersistedSlide
	for rows.Next() {
		s, err := r.scan(rows, "")
		if err != nil {
			return nil, err
		}
		slides = append(slides, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return slides, nil
}

// ListByPresentation retrieves every cached slide of a presentation in order
func (r *SlideRepository) ListByPresentation(presentationID string) ([]*models.PersistedSlide, error) {
	return r.List(map[string]any{"presentation_id": presentationID})
}

// Replace swaps the cached slides of a presentation for slides in one transaction
func (r *SlideRepository) Replace(presentationID string, slides []models.Slide) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM slides WHERE presentation_id = ?", presentationID); err != nil {
		return fmt.Errorf("failed to clear slides: %w", err)
	}

	for _, slide := range slides {
		if err := insertSlide(tx, models.NewPersistedSlide(presentationID, slide)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit slides: %w", err)
	}
	return nil
}

func (r *SlideRepository) scan(row scanner, key string) (*models.PersistedSlide, error) {
	var (
		id             string
		presentationID string
		slide          models.Slide
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(&id, &presentationID, &slide.Number, &slide.ID, &slide.Title, &slide.Markup, &slide.AudioRef, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: slide %s", shared.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan slide: %w", err)
	}

	s := models.NewPersistedSlide(presentationID, slide)
	s.SetID(id)
	s.SetCreatedAt(createdAt)
	s.SetUpdatedAt(updatedAt)
	return s, nil
}

var _ models.Repository[*models.PersistedSlide] = (*SlideRepository)(nil)
