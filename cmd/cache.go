package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/learnx/internal/repositories"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/urfave/cli/v3"
)

// CachePresentation fetches a presentation and stores its slides in the local cache.
//
// Slides that could not be fetched are not stored, so a later run retries them.
func (r *Runner) CachePresentation(ctx context.Context, cmd *cli.Command) error {
	id, err := presentationID(cmd)
	if err != nil {
		return err
	}

	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("caching presentation: %s", id)

	result, err := r.open(ctx, id)
	if err != nil {
		return err
	}

	if result.CacheErr != nil {
		return fmt.Errorf("failed to cache presentation %s: %w", id, result.CacheErr)
	}

	total := len(result.Slides)
	r.writePlain("✓ Presentation cached: %s\n", result.Presentation.Title)
	r.writePlain("  Slides: %d/%d stored (%d already cached)\n", result.Stored, total, result.Cached)
	if result.Probed {
		r.writePlainln("  Note: no manifest was available, so nothing was stored; run again once the manifest loads.")
	}
	if len(result.Unavailable) > 0 {
		r.writePlain("  Unavailable: %v\n", result.Unavailable)
	}
	return nil
}

// CacheList prints cached presentations.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	presentations, err := repositories.NewPresentationRepository(db).List(map[string]any{"title": cmd.String("title")})
	if err != nil {
		return err
	}
	if len(presentations) == 0 {
		return r.writePlain("No cached presentations\n")
	}

	r.writePlainHeader("Cached Presentations")
	for _, p := range presentations {
		r.writePlain("%3d. %-24s %s (%d slides, updated %s)\n",
			p.Sequence(), p.RemoteID(), p.Title(), p.SlideCount(), p.UpdatedAt().Format("2006-01-02 15:04"))
	}
	return nil
}

// CacheRemove deletes a cached presentation and its slides.
func (r *Runner) CacheRemove(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: presentation id", shared.ErrMissingArgument)
	}

	db, err := r.openCache()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewPresentationRepository(db)
	p, err := repo.GetByRemoteID(id)
	if errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("%w: %s is not cached", shared.ErrNotFound, id)
	}
	if err != nil {
		return err
	}

	if err := repo.Delete(p.ID()); err != nil {
		return err
	}
	r.logger.Info("removed cached presentation", "id", id)
	return r.writePlain("✓ Removed %s from the cache\n", id)
}
