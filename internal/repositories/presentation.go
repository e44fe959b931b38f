package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/shared"
)

const presentationColumns = "id, sequence, remote_id, title, slide_count, created_at, updated_at, deleted_at"

// PresentationRepository implements models.Repository[*models.PersistedPresentation] for manifest caching.
type PresentationRepository struct {
	db *sql.DB
}

// NewPresentationRepository creates a new PresentationRepository with the given database connection
func NewPresentationRepository(db *sql.DB) *PresentationRepository {
	return &PresentationRepository{db: db}
}

// Create stores a presentation with a generated ID and sequence.
//
// Caching a remote id that already has a row (deleted or not) revives that row instead,
// and the model takes on its ID and sequence.
func (r *PresentationRepository) Create(p *models.PersistedPresentation) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "presentations")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := `
		INSERT INTO presentations (id, sequence, remote_id, title, slide_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (remote_id) DO UPDATE SET
			title = excluded.title,
			slide_count = excluded.slide_count,
			updated_at = excluded.updated_at,
			deleted_at = NULL
	`

	_, err = r.db.Exec(query,
		shared.GenerateID(),
		sequence,
		p.RemoteID(),
		p.Title(),
		p.SlideCount(),
		p.CreatedAt(),
		p.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert presentation: %w", err)
	}

	var (
		id        string
		createdAt time.Time
	)
	err = r.db.QueryRow("SELECT id, sequence, created_at FROM presentations WHERE remote_id = ?", p.RemoteID()).
		Scan(&id, &sequence, &createdAt)
	if err != nil {
		return fmt.Errorf("failed to read stored presentation: %w", err)
	}

	p.SetID(id)
	p.SetSequence(sequence)
	p.SetCreatedAt(createdAt)
	p.SetDeletedAt(nil)
	return nil
}

// Get retrieves a presentation by ID, excluding soft-deleted presentations
func (r *PresentationRepository) Get(id string) (*models.PersistedPresentation, error) {
	query := "SELECT " + presentationColumns + " FROM presentations WHERE id = ? AND deleted_at IS NULL"
	return r.scan(r.db.QueryRow(query, id), id)
}

// GetByRemoteID retrieves a presentation by its backend id
func (r *PresentationRepository) GetByRemoteID(remoteID string) (*models.PersistedPresentation, error) {
	query := "SELECT " + presentationColumns + " FROM presentations WHERE remote_id = ? AND deleted_at IS NULL"
	return r.scan(r.db.QueryRow(query, remoteID), remoteID)
}

// Update modifies the title and slide count of an existing presentation
func (r *PresentationRepository) Update(p *models.PersistedPresentation) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	p.SetUpdatedAt(now)

	query := `
		UPDATE presentations
		SET title = ?, slide_count = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, p.Title(), p.SlideCount(), now, p.ID())
	if err != nil {
		return fmt.Errorf("failed to update presentation: %w", err)
	}
	return affected(result, "presentation", p.ID())
}

// Delete soft-deletes a presentation by ID and drops its cached slides
func (r *PresentationRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("UPDATE presentations SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete presentation: %w", err)
	}
	if err := affected(result, "presentation", id); err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM slides WHERE presentation_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete slides: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// List retrieves cached presentations in sequence order.
//
// Supported criteria: "title" (substring match).
func (r *PresentationRepository) List(criteria map[string]any) ([]*models.PersistedPresentation, error) {
	query := "SELECT " + presentationColumns + " FROM presentations WHERE deleted_at IS NULL"
	args := []any{}

	if title, ok := criteria["title"].(string); ok && title != "" {
		query += " AND title LIKE ?"
		args = append(args, "%"+title+"%")
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query presentations: %w", err)
	}
	defer rows.Close()

	var presentations []*models.PersistedPresentation
	for rows.Next() {
		p, err := r.scan(rows, "")
		if err != nil {
			return nil, err
		}
		presentations = append(presentations, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return presentations, nil
}

func (r *PresentationRepository) scan(row scanner, key string) (*models.PersistedPresentation, error) {
	var (
		id         string
		sequence   int
		remoteID   string
		title      string
		slideCount int
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &remoteID, &title, &slideCount, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: presentation %s", shared.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan presentation: %w", err)
	}

	p := models.NewPersistedPresentation(sequence, models.Presentation{ID: remoteID, Title: title})
	p.SetID(id)
	p.SetSlideCount(slideCount)
	p.SetCreatedAt(createdAt)
	p.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		p.SetDeletedAt(&deletedAt.Time)
	}
	return p, nil
}

var _ models.Repository[*models.PersistedPresentation] = (*PresentationRepository)(nil)
