package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/player"
	"github.com/desertthunder/learnx/internal/services"
	"github.com/desertthunder/learnx/internal/shared"
	"golang.org/x/time/rate"
)

// PlaceholderMarkup stands in for a slide whose markup could not be fetched.
const PlaceholderMarkup = "content unavailable"

// ProbeLimit is how many slides are tried one by one when the manifest cannot be loaded.
const ProbeLimit = 10

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 8.0
)

// OpenResult is a presentation ready for the player.
type OpenResult struct {
	Presentation *models.Presentation // Manifest with markup filled in
	Slides       []player.Slide       // Player slides in manifest order
	Unavailable  []int                // 1-based numbers showing the placeholder
	Cached       int                  // Slides served from the local cache
	Stored       int                  // Slides written to the local cache by this call
	Probed       bool                 // Slides were discovered without a manifest
	CacheErr     error                // Set when writing the local cache failed
}

// Engine defines the presentation operations.
type Engine interface {
	// Open fetches a presentation's manifest and markup for playback.
	Open(ctx context.Context, id string, progress chan<- ProgressUpdate) (*OpenResult, error)

	// Export writes a presentation's markup, optional audio and a manifest to disk.
	Export(ctx context.Context, id string, opts ExportOpts, progress chan<- ProgressUpdate) (*ExportResult, error)
}

// SlideCacher persists fetched slides.
type SlideCacher interface {
	// CachedMarkup returns cached markup keyed by 1-based slide number.
	CachedMarkup(remoteID string) (map[int]string, error)

	// CachePresentation stores a manifest and its slides' markup.
	CachePresentation(p models.Presentation) error
}

// PresentationEngine implements [Engine] on top of a [services.Content].
type PresentationEngine struct {
	content   services.Content
	cache     SlideCacher
	workers   int
	rateLimit float64
}

// NewPresentationEngine creates a new PresentationEngine. cache may be nil.
func NewPresentationEngine(content services.Content, cache SlideCacher) *PresentationEngine {
	return &PresentationEngine{
		content:   content,
		cache:     cache,
		workers:   defaultWorkers,
		rateLimit: defaultRateLimit,
	}
}

// SetLimits sets the fetch concurrency and requests per second. Non-positive values keep the defaults.
func (e *PresentationEngine) SetLimits(workers int, perSecond float64) {
	if workers > 0 {
		e.workers = min(workers, maxWorkers)
	}
	if perSecond > 0 {
		e.rateLimit = perSecond
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *PresentationEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// fetched is the outcome of one pooled request.
type fetched[T any] struct {
	index int
	value T
	err   error
}

// fetchAll runs work for every index in jobs on a rate-limited worker pool.
//
// Results arrive in completion order; the channel closes once every worker is done.
// Jobs not started before ctx is canceled are dropped.
func fetchAll[T any](ctx context.Context, jobs []int, workers int, perSecond float64, work func(context.Context, int) (T, error)) <-chan fetched[T] {
	limiter := rate.NewLimiter(rate.Limit(perSecond), 1)
	queue := make(chan int, len(jobs))
	results := make(chan fetched[T], len(jobs))

	for _, j := range jobs {
		queue <- j
	}
	close(queue)

	var wg sync.WaitGroup
	for range min(workers, max(len(jobs), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				v, err := work(ctx, j)
				results <- fetched[T]{index: j, value: v, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

// Open fetches presentation id for playback.
//
// Slides whose markup cannot be fetched show [PlaceholderMarkup]; only a missing manifest with
// no probe-able slides, missing credentials or cancellation fail the whole call.
func (e *PresentationEngine) Open(ctx context.Context, id string, progress chan<- ProgressUpdate) (*OpenResult, error) {
	if e.content == nil {
		return nil, fmt.Errorf("%w: content service not initialized", shared.ErrServiceUnavailable)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: presentation id", shared.ErrMissingArgument)
	}

	e.sendProgress(progress, fetchManifestUpdate(id))

	pres, err := e.content.GetPresentation(ctx, id)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, shared.ErrNotAuthenticated) {
			return nil, err
		}
		return e.probe(ctx, id, err, progress)
	}

	for i := range pres.Slides {
		if pres.Slides[i].Title == "" {
			pres.Slides[i].Title = fmt.Sprintf("Slide %d", pres.Slides[i].Number)
		}
	}
	e.sendProgress(progress, foundPresentationUpdate(pres))

	result := &OpenResult{Presentation: pres}
	total := len(pres.Slides)
	cached := e.cachedMarkup(id, progress)

	var jobs []int
	step := 0
	for i, s := range pres.Slides {
		if markup, ok := cached[s.Number]; ok && markup != "" {
			pres.Slides[i].Markup = markup
			result.Cached++
			step++
			e.sendProgress(progress, slideFetchedUpdate(step, total, pres.Slides[i], true))
			continue
		}
		jobs = append(jobs, i)
	}

	fetch := func(ctx context.Context, i int) (string, error) {
		return e.content.GetSlideMarkup(ctx, id, pres.Slides[i].Number)
	}
	for res := range fetchAll(ctx, jobs, e.workers, e.rateLimit, fetch) {
		step++
		slide := &pres.Slides[res.index]
		if res.err != nil {
			slide.Markup = PlaceholderMarkup
			result.Unavailable = append(result.Unavailable, slide.Number)
			e.sendProgress(progress, slideFailedUpdate(step, total, *slide, res.err))
			continue
		}
		slide.Markup = res.value
		e.sendProgress(progress, slideFetchedUpdate(step, total, *slide, false))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slices.Sort(result.Unavailable)

	if len(jobs) > len(result.Unavailable) {
		result.Stored, result.CacheErr = e.store(*pres, result.Unavailable, progress)
	}

	result.Slides = playerSlides(pres.Slides)
	return result, nil
}

// probe discovers slides by number when the manifest is unavailable.
func (e *PresentationEngine) probe(ctx context.Context, id string, cause error, progress chan<- ProgressUpdate) (*OpenResult, error) {
	e.sendProgress(progress, probeSlidesUpdate(ProbeLimit, cause))

	jobs := make([]int, ProbeLimit)
	for i := range jobs {
		jobs[i] = i + 1
	}

	fetch := func(ctx context.Context, n int) (string, error) {
		return e.content.GetSlideMarkup(ctx, id, n)
	}

	markup := map[int]string{}
	for res := range fetchAll(ctx, jobs, e.workers, e.rateLimit, fetch) {
		if res.err == nil {
			markup[res.index] = res.value
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(markup) == 0 {
		return nil, fmt.Errorf("%w: presentation %s: %v", shared.ErrContentUnavailable, id, cause)
	}

	pres := &models.Presentation{ID: id}
	for _, n := range jobs {
		m, ok := markup[n]
		if !ok {
			continue
		}
		pres.Slides = append(pres.Slides, models.Slide{
			Number:   n,
			ID:       fmt.Sprint(n),
			Title:    fmt.Sprintf("Slide %d", n),
			Markup:   m,
			AudioRef: e.content.AudioURL(id, n),
		})
	}
	e.sendProgress(progress, foundPresentationUpdate(pres))

	return &OpenResult{Presentation: pres, Slides: playerSlides(pres.Slides), Probed: true}, nil
}

// cachedMarkup reads the cache for id. A failed read is reported and treated as a miss.
func (e *PresentationEngine) cachedMarkup(id string, progress chan<- ProgressUpdate) map[int]string {
	if e.cache == nil {
		return nil
	}
	markup, err := e.cache.CachedMarkup(id)
	if err != nil {
		e.sendProgress(progress, cacheFailedUpdate("read", err))
		return nil
	}
	return markup
}

// store caches every slide that did not fall back to the placeholder and returns how many were written.
func (e *PresentationEngine) store(p models.Presentation, unavailable []int, progress chan<- ProgressUpdate) (int, error) {
	if e.cache == nil {
		return 0, nil
	}

	skip := make(map[int]bool, len(unavailable))
	for _, n := range unavailable {
		skip[n] = true
	}

	slides := make([]models.Slide, 0, len(p.Slides))
	for _, s := range p.Slides {
		if !skip[s.Number] {
			slides = append(slides, s)
		}
	}
	p.Slides = slides

	e.sendProgress(progress, cacheSlidesUpdate(len(slides)))
	if err := e.cache.CachePresentation(p); err != nil {
		e.sendProgress(progress, cacheFailedUpdate("write", err))
		return 0, err
	}
	return len(slides), nil
}

func playerSlides(slides []models.Slide) []player.Slide {
	out := make([]player.Slide, len(slides))
	for i, s := range slides {
		out[i] = player.Slide{ID: s.ID, Title: s.Title, Markup: s.Markup, AudioRef: s.AudioRef}
	}
	return out
}

var _ Engine = (*PresentationEngine)(nil)
