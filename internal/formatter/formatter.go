// package formatter renders presentations and export manifests as JSON, CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/shared"
)

// Formats lists the accepted manifest formats. An empty format means json.
var Formats = []string{"json", "csv", "markdown", "txt"}

// ValidFormat reports whether format is one of [Formats] or empty.
func ValidFormat(format string) bool {
	if format == "" {
		return true
	}
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// ManifestPath is where [WriteManifest] puts the manifest for format inside dir.
func ManifestPath(dir, format string) string {
	switch format {
	case "markdown":
		return filepath.Join(dir, "README.md")
	case "txt":
		return filepath.Join(dir, "manifest.txt")
	case "csv":
		return filepath.Join(dir, "manifest.csv")
	default:
		return filepath.Join(dir, "manifest.json")
	}
}

// ExportToJSON renders the manifest as indented JSON
func ExportToJSON(m *models.ExportManifest) ([]byte, error) {
	return shared.MarshalJSON(m, true)
}

// ExportToCSV renders one row per slide with columns: Number, Title, Markup, Audio, Status
func ExportToCSV(m *models.ExportManifest) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Number", "Title", "Markup", "Audio", "Status"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, s := range m.Slides {
		record := []string{
			strconv.Itoa(s.Number),
			s.Title,
			baseOrEmpty(s.MarkupFile),
			baseOrEmpty(s.AudioFile),
			slideStatus(s),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders the manifest with links to the exported files
func ExportToMarkdown(m *models.ExportManifest) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", titleOr(m.Title, m.PresentationID)))
	buf.WriteString(fmt.Sprintf("**Presentation**: %s\n", m.PresentationID))
	buf.WriteString(fmt.Sprintf("**Exported**: %s\n", m.ExportedAt.Format("2006-01-02 15:04:05 MST")))
	buf.WriteString(fmt.Sprintf("**Slides**: %d (%d exported, %d failed)\n\n", m.TotalSlides, m.SuccessfulExports, m.FailedExports))

	buf.WriteString("## Slides\n\n")
	for _, s := range m.Slides {
		line := fmt.Sprintf("%d. %s", s.Number, s.Title)
		if s.MarkupFile != "" {
			line += fmt.Sprintf(" ([slide](%s))", filepath.Base(s.MarkupFile))
		}
		if s.AudioFile != "" {
			line += fmt.Sprintf(" ([audio](%s))", filepath.Base(s.AudioFile))
		}
		if status := slideStatus(s); status != "ok" {
			line += " - " + status
		}
		buf.WriteString(line + "\n")
	}
	return buf.Bytes(), nil
}

// ExportToText renders the manifest as plain text
func ExportToText(m *models.ExportManifest) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Presentation: %s\n", titleOr(m.Title, m.PresentationID)))
	buf.WriteString(fmt.Sprintf("ID: %s\n", m.PresentationID))
	buf.WriteString(fmt.Sprintf("Slides: %d\n\n", m.TotalSlides))

	for _, s := range m.Slides {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", s.Number, s.Title, slideStatus(s)))
	}
	return buf.Bytes(), nil
}

// WriteManifest renders the manifest in format and writes it to path.
//
// Defaults to json for an empty or unknown format.
func WriteManifest(m *models.ExportManifest, format, path string) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case "csv":
		data, err = ExportToCSV(m)
	case "markdown":
		data, err = ExportToMarkdown(m)
	case "txt":
		data, err = ExportToText(m)
	default:
		data, err = ExportToJSON(m)
	}
	if err != nil {
		return fmt.Errorf("failed to render manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// PresentationToText lists a presentation's slides with a one-line preview of each.
func PresentationToText(p *models.Presentation, previewWidth int) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Presentation: %s\n", titleOr(p.Title, p.ID)))
	buf.WriteString(fmt.Sprintf("Slides: %d\n\n", len(p.Slides)))

	for _, s := range p.Slides {
		title := s.Title
		if title == "" {
			title = fmt.Sprintf("Slide %d", s.Number)
		}
		buf.WriteString(fmt.Sprintf("%d. %s\n", s.Number, title))

		if preview := Truncate(firstLine(HTMLToText(s.Markup)), previewWidth); preview != "" {
			buf.WriteString("   " + preview + "\n")
		}
	}
	return buf.Bytes()
}

// Truncate shortens s to width runes, ending in an ellipsis. A non-positive width disables it.
func Truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

func slideStatus(s models.ExportedSlide) string {
	switch {
	case s.Error != "":
		return s.Error
	case s.Unavailable:
		return "content unavailable"
	default:
		return "ok"
	}
}

func titleOr(title, fallback string) string {
	if strings.TrimSpace(title) == "" {
		return fallback
	}
	return title
}

func baseOrEmpty(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
