package server

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/desertthunder/learnx/internal/player"
)

var indexTemplate = template.Must(template.New("index").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               max-width: 48rem; margin: 2rem auto; color: #333; }
        li { margin: 0.4rem 0; }
        a { color: #1f6feb; text-decoration: none; }
        .muted { color: #888; }
    </style>
</head>
<body>
    <h1>{{.Title}}</h1>
    <p class="muted">{{len .Slides}} slides</p>
    <ol>
    {{- range $i, $s := .Slides}}
        <li><a href="/slides/{{inc $i}}">{{$s.Title}}</a>{{if $s.AudioRef}} <a class="muted" href="{{$s.AudioRef}}">audio</a>{{end}}</li>
    {{- end}}
    </ol>
</body>
</html>
`))

// SlideHandler serves a presentation's slides for preview in a browser.
type SlideHandler struct {
	title  string
	slides []player.Slide
}

// NewSlideHandler creates a handler for slides. An empty title shows as "Presentation".
func NewSlideHandler(title string, slides []player.Slide) *SlideHandler {
	if title == "" {
		title = "Presentation"
	}
	return &SlideHandler{title: title, slides: slides}
}

// Routes implements [Handler].
func (h *SlideHandler) Routes() []string {
	return []string{"GET /{$}", "GET /slides/{n}"}
}

// SlidePath is the path of the 1-based slide n.
func SlidePath(n int) string {
	return fmt.Sprintf("/slides/%d", n)
}

// ServeHTTP implements [http.Handler].
func (h *SlideHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("n") == "" {
		h.index(w)
		return
	}
	h.slide(w, r.PathValue("n"))
}

func (h *SlideHandler) index(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Title  string
		Slides []player.Slide
	}{h.title, h.slides}

	if err := indexTemplate.Execute(w, data); err != nil {
		http.Error(w, "Failed to render index", http.StatusInternalServerError)
	}
}

func (h *SlideHandler) slide(w http.ResponseWriter, raw string) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > len(h.slides) {
		http.Error(w, fmt.Sprintf("Slide %s not found", raw), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, h.slides[n-1].Markup)
}
