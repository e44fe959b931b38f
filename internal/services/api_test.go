package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/learnx/internal/shared"
	tu "github.com/desertthunder/learnx/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			srv := NewAPIService("", nil)
			if srv.BaseURL() != DefaultBaseURL {
				t.Errorf("expected default base URL, got %s", srv.BaseURL())
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("Trims trailing slash", func(t *testing.T) {
			srv := NewAPIService("http://example.com/", nil)
			if srv.BaseURL() != "http://example.com" {
				t.Errorf("expected trimmed base URL, got %s", srv.BaseURL())
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Decodes JSON bodies", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/test" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				w.Header().Set("X-Custom-Header", "kept")
				w.Write([]byte(`{"status":"success"}`))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/test")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.IsJSON {
				t.Error("expected response to be JSON")
			}
			if m, _ := resp.JSONData.(map[string]any); m["status"] != "success" {
				t.Errorf("unexpected JSONData: %v", resp.JSONData)
			}
			if resp.Headers.Get("X-Custom-Header") != "kept" {
				t.Error("expected response headers to be preserved")
			}
		})

		t.Run("Keeps raw non-JSON bodies", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("<h1>Slide</h1>"))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/test")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON || resp.JSONData != nil {
				t.Error("expected response to not be JSON")
			}
			if string(resp.Body) != "<h1>Slide</h1>" {
				t.Errorf("unexpected body %q", resp.Body)
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			_, err := NewAPIService("http://example.com", nil).Get(context.Background(), "/test\x00invalid")
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}
			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test")
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil)}
			_, err := NewAPIService("http://example.com", client).Get(context.Background(), "/test")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := NewAPIService(server.URL, nil).Get(ctx, "/test"); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST method, got %s", r.Method)
			}
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected JSON content type, got %s", r.Header.Get("Content-Type"))
			}
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		}))
		defer server.Close()

		resp, err := NewAPIService(server.URL, nil).Post(context.Background(), "/test", []byte(`{"topic":"go"}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Errorf("expected status 201, got %d", resp.StatusCode)
		}
		if string(resp.Body) != `{"topic":"go"}` {
			t.Errorf("expected echoed body, got %s", resp.Body)
		}
	})

	t.Run("PostMultipart", func(t *testing.T) {
		t.Run("Sends file and non-empty fields", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseMultipartForm(1 << 20); err != nil {
					t.Errorf("failed to parse multipart form: %v", err)
					return
				}
				f, hdr, err := r.FormFile("audio")
				if err != nil {
					t.Errorf("missing audio part: %v", err)
					return
				}
				data, _ := io.ReadAll(f)
				if hdr.Filename != "clip.webm" || string(data) != "RIFF" {
					t.Errorf("unexpected file %s %q", hdr.Filename, data)
				}
				if r.FormValue("course_id") != "7" {
					t.Errorf("expected course_id 7, got %q", r.FormValue("course_id"))
				}
				if _, ok := r.MultipartForm.Value["empty"]; ok {
					t.Error("expected empty field to be omitted")
				}
				w.Write([]byte(`{"ok":true}`))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).PostMultipart(context.Background(), "/upload",
				FilePart{Field: "audio", Filename: "clip.webm", Data: []byte("RIFF")},
				map[string]string{"course_id": "7", "empty": ""},
			)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.IsJSON {
				t.Error("expected JSON response")
			}
		})

		t.Run("Failed Request Creation", func(t *testing.T) {
			_, err := NewAPIService("http://example.com", nil).PostMultipart(context.Background(), "/x\x00",
				FilePart{Field: "audio", Filename: "a", Data: []byte("a")}, nil)
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})
	})
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		detail string
	}{
		{name: "ok", status: http.StatusOK},
		{name: "no content", status: http.StatusNoContent},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"detail":"Not authenticated"}`, want: shared.ErrNotAuthenticated},
		{name: "not found", status: http.StatusNotFound, body: `{"detail":"Slides data not found"}`, want: shared.ErrNotFound, detail: "Slides data not found"},
		{name: "server error", status: http.StatusInternalServerError, body: `{"detail":"Invalid JSON format"}`, want: shared.ErrAPIRequest, detail: "Invalid JSON format"},
		{name: "server error without detail", status: http.StatusBadGateway, body: "bad gateway", want: shared.ErrAPIRequest, detail: "status 502"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &APIResponse{StatusCode: tt.status, Body: []byte(tt.body)}
			resp.JSONData = decodeForTest(tt.body)
			resp.IsJSON = resp.JSONData != nil

			err := CheckStatus(resp)
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if tt.detail != "" && !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("expected error to contain %q, got %v", tt.detail, err)
			}
		})
	}
}

func TestAPIServiceResolve(t *testing.T) {
	a := NewAPIService("http://api.test", nil)

	tests := map[string]string{
		"/slides":                 "http://api.test/slides",
		"slides":                  "http://api.test/slides",
		"https://cdn.test/a.mp3":  "https://cdn.test/a.mp3",
		"http://other.test/x?y=1": "http://other.test/x?y=1",
	}
	for in, want := range tests {
		if got := a.resolve(in); got != want {
			t.Errorf("resolve(%q) = %q, want %q", in, got, want)
		}
	}
}
