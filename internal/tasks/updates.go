package tasks

import (
	"fmt"

	"github.com/desertthunder/learnx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchManifest Phase = iota
	FetchSlides
	ProbeSlides
	CacheSlides
	ExportSlides
	ExportAudio
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchManifest:
		return "fetch_manifest"
	case FetchSlides:
		return "fetch_slides"
	case ProbeSlides:
		return "probe_slides"
	case CacheSlides:
		return "cache_slides"
	case ExportSlides:
		return "export_slides"
	case ExportAudio:
		return "export_audio"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchManifestUpdate(id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching presentation %s...", id),
	}
}

func foundPresentationUpdate(p *models.Presentation) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found presentation: %s (%d slides)", p.Title, len(p.Slides)),
		Data:    p,
	}
}

func probeSlidesUpdate(limit int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProbeSlides,
		Step:    0,
		Total:   limit,
		Message: fmt.Sprintf("Manifest unavailable (%v), probing up to %d slides...", err, limit),
	}
}

func slideFetchedUpdate(step, total int, s models.Slide, cached bool) ProgressUpdate {
	source := ""
	if cached {
		source = " (cached)"
	}
	return ProgressUpdate{
		Phase:   FetchSlides,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s%s", step, total, s.Title, source),
	}
}

func slideFailedUpdate(step, total int, s models.Slide, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSlides,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, s.Title, err),
	}
}

func cacheSlidesUpdate(n int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheSlides,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Caching %d slides...", n),
	}
}

// cacheFailedUpdate carries the cache error in Data.
func cacheFailedUpdate(op string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CacheSlides,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("✗ cache %s failed: %v", op, err),
		Data:    err,
	}
}

func exportSlideUpdate(step, total int, s models.ExportedSlide) ProgressUpdate {
	mark := "✓"
	if !s.Success() {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   ExportSlides,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, s.Title),
		Data:    s,
	}
}

func exportAudioUpdate(step, total int, s models.ExportedSlide) ProgressUpdate {
	if s.Error != "" {
		return ProgressUpdate{
			Phase:   ExportAudio,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ audio for %s: %s", step, total, s.Title, s.Error),
		}
	}
	return ProgressUpdate{
		Phase:   ExportAudio,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ audio for %s", step, total, s.Title),
	}
}

func writeManifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest to %s...", path),
	}
}
