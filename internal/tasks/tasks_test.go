package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/services"
	"github.com/desertthunder/learnx/internal/shared"
	th "github.com/desertthunder/learnx/internal/testing"
)

// mockContent serves a fixed deck. Slides listed in failMarkup or failAudio error out.
type mockContent struct {
	mu          sync.Mutex
	deck        *models.Presentation
	manifestErr error
	markup      map[int]string
	failMarkup  map[int]bool
	failAudio   map[int]bool
	markupCalls []int
}

func newMockContent(n int) *mockContent {
	m := &mockContent{
		deck:       &models.Presentation{ID: "42", Title: "Intro"},
		markup:     map[int]string{},
		failMarkup: map[int]bool{},
		failAudio:  map[int]bool{},
	}
	for i := 1; i <= n; i++ {
		m.deck.Slides = append(m.deck.Slides, models.Slide{
			Number:   i,
			ID:       fmt.Sprint(i),
			AudioRef: fmt.Sprintf("/audio/%d", i),
		})
		m.markup[i] = fmt.Sprintf("<p>slide %d</p>", i)
	}
	return m
}

func (m *mockContent) GetPresentation(_ context.Context, id string) (*models.Presentation, error) {
	if m.manifestErr != nil {
		return nil, m.manifestErr
	}
	p := *m.deck
	p.Slides = slices.Clone(m.deck.Slides)
	return &p, nil
}

func (m *mockContent) GetSlideMarkup(_ context.Context, id string, n int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markupCalls = append(m.markupCalls, n)

	markup, ok := m.markup[n]
	if !ok || m.failMarkup[n] {
		return "", fmt.Errorf("%w: slide %d", shared.ErrNotFound, n)
	}
	return markup, nil
}

func (m *mockContent) GetSlideAudio(_ context.Context, id string, n int) (*services.Audio, error) {
	if m.failAudio[n] {
		return nil, fmt.Errorf("%w: audio %d", shared.ErrNotFound, n)
	}
	return &services.Audio{Data: []byte("ID3"), ContentType: "audio/mpeg"}, nil
}

func (m *mockContent) AudioURL(id string, n int) string {
	return fmt.Sprintf("http://backend/%s/audio/%d", id, n)
}

func (m *mockContent) calls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.markupCalls)
}

// memoryCache is an in-memory SlideCacher. readErr and writeErr make it fail.
type memoryCache struct {
	markup   map[string]map[int]string
	stored   []models.Presentation
	readErr  error
	writeErr error
}

func (c *memoryCache) CachedMarkup(remoteID string) (map[int]string, error) {
	if c.readErr != nil {
		return nil, c.readErr
	}
	return c.markup[remoteID], nil
}

func (c *memoryCache) CachePresentation(p models.Presentation) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.stored = append(c.stored, p)
	return nil
}

// drain collects every update sent on a buffered channel.
func drain(progress chan ProgressUpdate) []ProgressUpdate {
	close(progress)
	var updates []ProgressUpdate
	for u := range progress {
		updates = append(updates, u)
	}
	return updates
}

func cacheErrors(updates []ProgressUpdate) []error {
	var errs []error
	for _, u := range updates {
		if err, ok := u.Data.(error); ok && u.Phase == CacheSlides {
			errs = append(errs, err)
		}
	}
	return errs
}

func newEngine(content services.Content, cache SlideCacher) *PresentationEngine {
	e := NewPresentationEngine(content, cache)
	e.SetLimits(3, 1000)
	return e
}

func TestPresentationEngine_Open(t *testing.T) {
	t.Run("fetches every slide in order", func(t *testing.T) {
		content := newMockContent(5)
		result, err := newEngine(content, nil).Open(context.Background(), "42", nil)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}

		if len(result.Slides) != 5 {
			t.Fatalf("expected 5 slides, got %d", len(result.Slides))
		}
		for i, s := range result.Slides {
			if s.Markup != fmt.Sprintf("<p>slide %d</p>", i+1) {
				t.Errorf("slide %d has markup %q", i+1, s.Markup)
			}
			if s.Title != fmt.Sprintf("Slide %d", i+1) {
				t.Errorf("expected default title, got %q", s.Title)
			}
			if s.AudioRef != fmt.Sprintf("/audio/%d", i+1) {
				t.Errorf("unexpected audio ref %q", s.AudioRef)
			}
		}
		if len(result.Unavailable) != 0 || result.Probed {
			t.Errorf("unexpected result %+v", result)
		}
	})

	t.Run("failed slides show the placeholder", func(t *testing.T) {
		content := newMockContent(4)
		content.failMarkup[2] = true
		content.failMarkup[4] = true

		result, err := newEngine(content, nil).Open(context.Background(), "42", nil)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}

		if !slices.Equal(result.Unavailable, []int{2, 4}) {
			t.Errorf("expected unavailable [2 4], got %v", result.Unavailable)
		}
		if result.Slides[1].Markup != PlaceholderMarkup || result.Slides[3].Markup != PlaceholderMarkup {
			t.Error("expected placeholder markup")
		}
		if result.Slides[0].Markup == PlaceholderMarkup {
			t.Error("expected working slides to keep their markup")
		}
	})

	t.Run("empty presentation", func(t *testing.T) {
		result, err := newEngine(newMockContent(0), nil).Open(context.Background(), "42", nil)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if len(result.Slides) != 0 {
			t.Errorf("expected no slides, got %d", len(result.Slides))
		}
	})

	t.Run("probes slides without a manifest", func(t *testing.T) {
		content := newMockContent(0)
		content.manifestErr = fmt.Errorf("%w: status 500", shared.ErrAPIRequest)
		content.markup = map[int]string{1: "<p>one</p>", 2: "<p>two</p>", 4: "<p>four</p>"}

		result, err := newEngine(content, nil).Open(context.Background(), "42", nil)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}

		if !result.Probed {
			t.Error("expected probed result")
		}
		if len(result.Slides) != 3 {
			t.Fatalf("expected 3 probed slides, got %d", len(result.Slides))
		}
		if result.Slides[2].ID != "4" || result.Slides[2].AudioRef != "http://backend/42/audio/4" {
			t.Errorf("unexpected probed slide %+v", result.Slides[2])
		}
		if n := len(content.calls()); n != ProbeLimit {
			t.Errorf("expected %d probes, got %d", ProbeLimit, n)
		}
	})

	t.Run("probe with nothing found fails", func(t *testing.T) {
		content := newMockContent(0)
		content.manifestErr = errors.New("boom")

		_, err := newEngine(content, nil).Open(context.Background(), "42", nil)
		if !errors.Is(err, shared.ErrContentUnavailable) {
			t.Errorf("expected ErrContentUnavailable, got %v", err)
		}
	})

	t.Run("authentication errors are not probed", func(t *testing.T) {
		content := newMockContent(3)
		content.manifestErr = shared.ErrNotAuthenticated

		_, err := newEngine(content, nil).Open(context.Background(), "42", nil)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if len(content.calls()) != 0 {
			t.Error("expected no slide requests")
		}
	})

	t.Run("argument errors", func(t *testing.T) {
		if _, err := NewPresentationEngine(nil, nil).Open(context.Background(), "42", nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if _, err := newEngine(newMockContent(1), nil).Open(context.Background(), "  ", nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := newEngine(newMockContent(3), nil).Open(ctx, "42", nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestPresentationEngine_Cache(t *testing.T) {
	t.Run("reads through and stores fetched slides", func(t *testing.T) {
		content := newMockContent(3)
		content.failMarkup[3] = true
		cache := &memoryCache{markup: map[string]map[int]string{"42": {1: "<p>cached</p>"}}}

		result, err := newEngine(content, cache).Open(context.Background(), "42", nil)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}

		if result.Cached != 1 || result.Slides[0].Markup != "<p>cached</p>" {
			t.Errorf("expected slide 1 from cache, got %+v", result.Slides[0])
		}
		if slices.Contains(content.calls(), 1) {
			t.Error("expected cached slide not to be fetched")
		}

		if len(cache.stored) != 1 {
			t.Fatalf("expected one store, got %d", len(cache.stored))
		}
		stored := cache.stored[0]
		if len(stored.Slides) != 2 {
			t.Errorf("expected placeholder slide to be skipped, stored %d", len(stored.Slides))
		}
		if result.Stored != 2 || result.CacheErr != nil {
			t.Errorf("expected 2 stored without error, got %d, %v", result.Stored, result.CacheErr)
		}
	})

	t.Run("write failures are returned on the result", func(t *testing.T) {
		writeErr := errors.New("disk full")
		cache := &memoryCache{writeErr: writeErr}
		progress := make(chan ProgressUpdate, 50)

		result, err := newEngine(newMockContent(2), cache).Open(context.Background(), "42", progress)
		if err != nil {
			t.Fatalf("Open should still succeed, got %v", err)
		}
		if !errors.Is(result.CacheErr, writeErr) {
			t.Errorf("expected CacheErr to be %v, got %v", writeErr, result.CacheErr)
		}
		if result.Stored != 0 {
			t.Errorf("expected nothing stored, got %d", result.Stored)
		}
		if len(result.Slides) != 2 {
			t.Errorf("slides should still load, got %d", len(result.Slides))
		}

		errs := cacheErrors(drain(progress))
		if len(errs) != 1 || !errors.Is(errs[0], writeErr) {
			t.Errorf("expected one cache error update, got %v", errs)
		}
	})

	t.Run("read failures are reported and treated as misses", func(t *testing.T) {
		readErr := errors.New("database locked")
		content := newMockContent(2)
		cache := &memoryCache{readErr: readErr}
		progress := make(chan ProgressUpdate, 50)

		result, err := newEngine(content, cache).Open(context.Background(), "42", progress)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if result.Cached != 0 || len(content.calls()) != 2 {
			t.Errorf("expected every slide fetched, cached %d, calls %v", result.Cached, content.calls())
		}

		errs := cacheErrors(drain(progress))
		if len(errs) != 1 || !errors.Is(errs[0], readErr) {
			t.Errorf("expected one cache error update, got %v", errs)
		}
	})

	t.Run("probed presentations are not stored", func(t *testing.T) {
		content := newMockContent(2)
		content.manifestErr = errors.New("manifest missing")
		cache := &memoryCache{}

		result, err := newEngine(content, cache).Open(context.Background(), "42", nil)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if !result.Probed || result.Stored != 0 || len(cache.stored) != 0 {
			t.Errorf("expected a probed, unstored result, got probed=%v stored=%d writes=%d",
				result.Probed, result.Stored, len(cache.stored))
		}
	})

	t.Run("fully cached presentations are not stored again", func(t *testing.T) {
		cache := &memoryCache{markup: map[string]map[int]string{"42": {1: "a", 2: "b"}}}
		newEngine(newMockContent(2), cache).Open(context.Background(), "42", nil)

		if len(cache.stored) != 0 {
			t.Errorf("expected no store, got %d", len(cache.stored))
		}
	})
}

func TestPresentationEngine_Export(t *testing.T) {
	tc := []struct {
		name     string
		format   string
		audio    bool
		manifest string
	}{
		{name: "json without audio", format: "json", manifest: "manifest.json"},
		{name: "markdown with audio", format: "markdown", audio: true, manifest: "README.md"},
		{name: "text", format: "txt", manifest: "manifest.txt"},
		{name: "csv", format: "csv", manifest: "manifest.csv"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			content := newMockContent(3)

			result, err := newEngine(content, nil).Export(context.Background(), "42", ExportOpts{
				Format:    tt.format,
				OutputDir: dir,
				Audio:     tt.audio,
			}, nil)
			if err != nil {
				t.Fatalf("Export failed: %v", err)
			}

			if result.ManifestPath != filepath.Join(dir, tt.manifest) {
				t.Errorf("unexpected manifest path %s", result.ManifestPath)
			}
			th.AssertFileExists(t, result.ManifestPath)

			for n := 1; n <= 3; n++ {
				th.AssertFileExists(t, filepath.Join(dir, fmt.Sprintf("slide_%03d.html", n)))
				audio := filepath.Join(dir, fmt.Sprintf("slide_%03d.mp3", n))
				_, statErr := os.Stat(audio)
				if tt.audio && statErr != nil {
					t.Errorf("expected audio file %s", audio)
				}
				if !tt.audio && statErr == nil {
					t.Errorf("expected no audio file %s", audio)
				}
			}

			if m := result.Manifest; m.SuccessfulExports != 3 || m.FailedExports != 0 {
				t.Errorf("expected 3 successes, got %d/%d", m.SuccessfulExports, m.FailedExports)
			}
		})
	}

	t.Run("partial failures are recorded", func(t *testing.T) {
		dir := t.TempDir()
		content := newMockContent(3)
		content.failMarkup[1] = true
		content.failAudio[2] = true

		result, err := newEngine(content, nil).Export(context.Background(), "42", ExportOpts{OutputDir: dir, Audio: true}, nil)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}

		m := result.Manifest
		if !m.Slides[0].Unavailable {
			t.Error("expected slide 1 to be flagged unavailable")
		}
		if !strings.Contains(m.Slides[1].Error, "audio download failed") {
			t.Errorf("expected audio error on slide 2, got %q", m.Slides[1].Error)
		}
		if m.SuccessfulExports != 1 || m.FailedExports != 2 {
			t.Errorf("expected 1/2, got %d/%d", m.SuccessfulExports, m.FailedExports)
		}
		if got := th.MustReadFile(t, filepath.Join(dir, "slide_001.html")); got != PlaceholderMarkup {
			t.Errorf("expected placeholder file, got %q", got)
		}
	})

	t.Run("default output directory", func(t *testing.T) {
		t.Chdir(t.TempDir())

		result, err := newEngine(newMockContent(1), nil).Export(context.Background(), "42", ExportOpts{}, nil)
		if err != nil {
			t.Fatalf("Export failed: %v", err)
		}
		if !strings.HasPrefix(result.Manifest.OutputDirectory, "presentation_42_") {
			t.Errorf("unexpected output directory %s", result.Manifest.OutputDirectory)
		}
		th.AssertDirExists(t, result.Manifest.OutputDirectory)
	})
}

func TestAudioExtension(t *testing.T) {
	tc := map[string]string{
		"audio/mpeg":               ".mp3",
		"audio/wav; charset=utf-8": ".wav",
		"audio/webm":               ".webm",
		"application/octet-stream": ".mp3",
		"":                         ".mp3",
	}
	for ct, want := range tc {
		if got := audioExtension(ct); got != want {
			t.Errorf("audioExtension(%q) = %s, want %s", ct, got, want)
		}
	}
}

func TestProgressUpdate_NonBlocking(t *testing.T) {
	t.Run("full channel does not block", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 1)

		done := make(chan error, 1)
		go func() {
			_, err := newEngine(newMockContent(5), nil).Open(context.Background(), "42", progress)
			done <- err
		}()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Open failed: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Open blocked on progress channel")
		}
	})

	t.Run("updates describe each phase", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 64)
		content := newMockContent(2)
		content.failMarkup[2] = true

		if _, err := newEngine(content, &memoryCache{}).Open(context.Background(), "42", progress); err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		close(progress)

		phases := map[Phase]int{}
		var failed bool
		for u := range progress {
			phases[u.Phase]++
			if strings.Contains(u.Message, "✗ Slide 2") {
				failed = true
			}
		}
		if phases[FetchManifest] != 2 || phases[FetchSlides] != 2 || phases[CacheSlides] != 1 {
			t.Errorf("unexpected phase counts %v", phases)
		}
		if !failed {
			t.Error("expected a failure update for slide 2")
		}
	})

	t.Run("phase names", func(t *testing.T) {
		if FetchSlides.String() != "fetch_slides" || Phase(99).String() != "" {
			t.Error("unexpected phase names")
		}
	})
}
