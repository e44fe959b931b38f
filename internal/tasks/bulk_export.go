package tasks

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/learnx/internal/formatter"
	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/services"
)

// ExportOpts contains configuration for presentation exports.
type ExportOpts struct {
	Format    string // Manifest format: json, markdown, txt
	OutputDir string // Output directory (default: presentation_{id}_{epoch})
	Audio     bool   // Also download every slide's narration
}

// ExportResult describes a finished export.
type ExportResult struct {
	Manifest     *models.ExportManifest
	ManifestPath string
}

var audioExtensions = map[string]string{
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/ogg":   ".ogg",
	"audio/webm":  ".webm",
}

// audioExtension picks a file extension for a narration content type, defaulting to .mp3.
func audioExtension(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".mp3"
	}
	if ext, ok := audioExtensions[mediaType]; ok {
		return ext
	}
	return ".mp3"
}

// Export writes presentation id to disk.
//
// Markup comes from [PresentationEngine.Open], so placeholder slides are exported as such and
// flagged in the manifest. Audio downloads share the engine's worker pool and rate limit;
// a failed download marks that slide failed without stopping the export.
func (e *PresentationEngine) Export(ctx context.Context, id string, opts ExportOpts, progress chan<- ProgressUpdate) (*ExportResult, error) {
	opened, err := e.Open(ctx, id, progress)
	if err != nil {
		return nil, err
	}
	pres := opened.Presentation

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("presentation_%s_%d", pres.ID, time.Now().Unix())
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	unavailable := make(map[int]bool, len(opened.Unavailable))
	for _, n := range opened.Unavailable {
		unavailable[n] = true
	}

	manifest := &models.ExportManifest{
		PresentationID:  pres.ID,
		Title:           pres.Title,
		ExportedAt:      time.Now().UTC(),
		OutputDirectory: opts.OutputDir,
		TotalSlides:     len(pres.Slides),
		Slides:          make([]models.ExportedSlide, len(pres.Slides)),
	}

	for i, s := range pres.Slides {
		entry := models.ExportedSlide{Number: s.Number, Title: s.Title, Unavailable: unavailable[s.Number]}

		path := filepath.Join(opts.OutputDir, fmt.Sprintf("slide_%03d.html", s.Number))
		if err := os.WriteFile(path, []byte(s.Markup), 0644); err != nil {
			entry.Error = fmt.Sprintf("markup write failed: %v", err)
		} else {
			entry.MarkupFile = path
		}

		manifest.Slides[i] = entry
		e.sendProgress(progress, exportSlideUpdate(i+1, len(pres.Slides), entry))
	}

	if opts.Audio {
		if err := e.exportAudio(ctx, pres, manifest, opts.OutputDir, progress); err != nil {
			return nil, err
		}
	}

	for _, s := range manifest.Slides {
		if s.Success() && !s.Unavailable {
			manifest.SuccessfulExports++
		} else {
			manifest.FailedExports++
		}
	}

	result := &ExportResult{Manifest: manifest}
	path := formatter.ManifestPath(opts.OutputDir, opts.Format)
	e.sendProgress(progress, writeManifestUpdate(path))
	if err := formatter.WriteManifest(manifest, opts.Format, path); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = path
	return result, nil
}

func (e *PresentationEngine) exportAudio(ctx context.Context, pres *models.Presentation, manifest *models.ExportManifest, dir string, progress chan<- ProgressUpdate) error {
	jobs := make([]int, len(pres.Slides))
	for i := range jobs {
		jobs[i] = i
	}

	download := func(ctx context.Context, i int) (*services.Audio, error) {
		return e.content.GetSlideAudio(ctx, pres.ID, pres.Slides[i].Number)
	}

	done := 0
	for res := range fetchAll(ctx, jobs, e.workers, e.rateLimit, download) {
		done++
		entry := &manifest.Slides[res.index]

		switch {
		case res.err != nil:
			entry.Error = fmt.Sprintf("audio download failed: %v", res.err)
		case len(res.value.Data) == 0:
			entry.Error = "audio download failed: empty response"
		default:
			path := filepath.Join(dir, fmt.Sprintf("slide_%03d%s", entry.Number, audioExtension(res.value.ContentType)))
			if err := os.WriteFile(path, res.value.Data, 0644); err != nil {
				entry.Error = fmt.Sprintf("audio write failed: %v", err)
			} else {
				entry.AudioFile = path
			}
		}
		e.sendProgress(progress, exportAudioUpdate(done, len(jobs), *entry))
	}
	return ctx.Err()
}
