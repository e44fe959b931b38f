package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/learnx/internal/models"
)

// GenerateTimeout bounds content generation requests.
const GenerateTimeout = 10 * time.Second

// ContentService fetches presentation manifests, slide markup and narration.
type ContentService struct {
	api *APIService
}

// NewContentService creates a ContentService on top of api.
func NewContentService(api *APIService) *ContentService {
	return &ContentService{api: api}
}

func presentationPath(id string) string {
	return "/slides/api/presentations/" + id
}

// manifestEntry is one slide of the backend manifest. Every field is optional.
type manifestEntry struct {
	ID    flexString `json:"id"`
	Title string     `json:"title"`
	Slide string     `json:"slide"`
	Audio string     `json:"audio"`
}

// flexString accepts JSON strings and numbers.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// parseManifest reads the slide list out of any of the manifest shapes the backend emits:
// {"slides": {"slides": [...]}}, {"slides": [...]} or a bare array.
//
// A shape with no recognizable slide list yields an empty slice.
func parseManifest(body []byte) ([]manifestEntry, string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, "", nil
	}

	if body[0] == '[' {
		var entries []manifestEntry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, "", fmt.Errorf("failed to decode manifest: %w", err)
		}
		return entries, "", nil
	}

	var outer struct {
		Title  string          `json:"title"`
		Slides json.RawMessage `json:"slides"`
	}
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, "", fmt.Errorf("failed to decode manifest: %w", err)
	}
	if len(outer.Slides) == 0 {
		return nil, outer.Title, nil
	}

	entries, title, err := parseManifest(outer.Slides)
	if err != nil {
		return nil, "", err
	}
	if title == "" {
		title = outer.Title
	}
	return entries, title, nil
}

// GetPresentation fetches the manifest for presentation id.
//
// Slides are numbered from 1 in manifest order. Slides without an audio reference get
// the backend's per-slide audio route.
func (c *ContentService) GetPresentation(ctx context.Context, id string) (*models.Presentation, error) {
	resp, err := c.api.Get(ctx, presentationPath(id)+"/slides")
	if err != nil {
		return nil, err
	}
	if err := CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("failed to load presentation %s: %w", id, err)
	}

	entries, title, err := parseManifest(resp.Body)
	if err != nil {
		return nil, err
	}

	p := &models.Presentation{ID: id, Title: title, Slides: make([]models.Slide, 0, len(entries))}
	for i, e := range entries {
		n := i + 1
		slide := models.Slide{
			Number:   n,
			ID:       string(e.ID),
			Title:    e.Title,
			Markup:   e.Slide,
			AudioRef: e.Audio,
		}
		if slide.ID == "" {
			slide.ID = strconv.Itoa(n)
		}
		if slide.AudioRef == "" {
			slide.AudioRef = c.AudioURL(id, n)
		}
		p.Slides = append(p.Slides, slide)
	}
	return p, nil
}

// GetSlideMarkup fetches the HTML for the 1-based slide n.
func (c *ContentService) GetSlideMarkup(ctx context.Context, id string, n int) (string, error) {
	resp, err := c.api.Get(ctx, fmt.Sprintf("%s/slide/%d", presentationPath(id), n))
	if err != nil {
		return "", err
	}
	if err := CheckStatus(resp); err != nil {
		return "", fmt.Errorf("failed to load HTML for slide %d: %w", n, err)
	}

	// HTMLResponse bodies are raw; a JSON-encoded string is unwrapped.
	if s, ok := resp.JSONData.(string); ok {
		return s, nil
	}
	return string(resp.Body), nil
}

// GetSlideAudio fetches the narration for the 1-based slide n.
func (c *ContentService) GetSlideAudio(ctx context.Context, id string, n int) (*Audio, error) {
	resp, err := c.api.Get(ctx, fmt.Sprintf("%s/audio/%d", presentationPath(id), n))
	if err != nil {
		return nil, err
	}
	if err := CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("failed to load audio for slide %d: %w", n, err)
	}

	ct := resp.Headers.Get("Content-Type")
	if ct == "" {
		ct = "audio/mpeg"
	}
	return &Audio{Data: resp.Body, ContentType: ct}, nil
}

// AudioURL is the absolute URL of the narration for the 1-based slide n.
func (c *ContentService) AudioURL(id string, n int) string {
	return fmt.Sprintf("%s%s/audio/%d", c.api.BaseURL(), presentationPath(id), n)
}

// SlideURL is the absolute URL of the HTML for the 1-based slide n.
func (c *ContentService) SlideURL(id string, n int) string {
	return fmt.Sprintf("%s%s/slide/%d", c.api.BaseURL(), presentationPath(id), n)
}

// Generate asks the backend to generate content for presentation id.
func (c *ContentService) Generate(ctx context.Context, id string, payload []byte) error {
	if len(strings.TrimSpace(string(payload))) == 0 {
		payload = []byte("{}")
	}
	if !json.Valid(payload) {
		return fmt.Errorf("generate payload is not valid JSON")
	}

	ctx, cancel := context.WithTimeout(ctx, GenerateTimeout)
	defer cancel()

	resp, err := c.api.Post(ctx, presentationPath(id)+"/generate", payload)
	if err != nil {
		return fmt.Errorf("failed to initiate content generation for %s: %w", id, err)
	}
	if err := CheckStatus(resp); err != nil {
		return fmt.Errorf("failed to initiate content generation for %s: %w", id, err)
	}
	return nil
}
