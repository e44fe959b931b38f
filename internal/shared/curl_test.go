package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantURL     string
		wantErr     bool
	}{
		{
			name:        "single header with single quotes",
			curlCmd:     `curl 'https://api.example.com/courses' -H 'Authorization: Bearer token123'`,
			wantHeaders: map[string]string{"Authorization": "Bearer token123"},
			wantURL:     "https://api.example.com/courses",
		},
		{
			name:        "single header with double quotes",
			curlCmd:     `curl -H "authorization: Bearer token123" https://api.example.com`,
			wantHeaders: map[string]string{"Authorization": "Bearer token123"},
			wantURL:     "https://api.example.com",
		},
		{
			name:    "multiple headers",
			curlCmd: `curl -H 'content-type: application/json' -H 'Authorization: Bearer token' https://api.example.com`,
			wantHeaders: map[string]string{
				"Content-Type":  "application/json",
				"Authorization": "Bearer token",
			},
			wantURL: "https://api.example.com",
		},
		{
			name: "multiline curl with backslashes",
			curlCmd: `curl 'http://localhost:8000/sessions' \
  -H 'Accept: application/json' \
  -H 'Authorization: Bearer eyJ.abc.def'`,
			wantHeaders: map[string]string{
				"Accept":        "application/json",
				"Authorization": "Bearer eyJ.abc.def",
			},
			wantURL: "http://localhost:8000/sessions",
		},
		{
			name:    "no headers",
			curlCmd: `curl https://api.example.com`,
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			req, err := ParseCurlCommand([]byte(tc.curlCmd))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(req.Headers) != len(tc.wantHeaders) {
				t.Errorf("expected %d headers, got %d: %v", len(tc.wantHeaders), len(req.Headers), req.Headers)
			}
			for k, v := range tc.wantHeaders {
				if req.Headers[k] != v {
					t.Errorf("header %s: expected %q, got %q", k, v, req.Headers[k])
				}
			}
			if req.URL != tc.wantURL {
				t.Errorf("expected url %q, got %q", tc.wantURL, req.URL)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Run("extracts token", func(t *testing.T) {
		req, err := ParseCurlCommand([]byte(`curl -H 'Authorization: Bearer abc.def.ghi' http://localhost`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		token, err := req.BearerToken()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if token != "abc.def.ghi" {
			t.Errorf("expected abc.def.ghi, got %s", token)
		}
	})

	t.Run("missing header", func(t *testing.T) {
		req := &CurlRequest{Headers: map[string]string{"Accept": "*/*"}}
		if _, err := req.BearerToken(); !errors.Is(err, ErrMissingToken) {
			t.Errorf("expected ErrMissingToken, got %v", err)
		}
	})

	t.Run("basic auth is rejected", func(t *testing.T) {
		req := &CurlRequest{Headers: map[string]string{"Authorization": "Basic dXNlcjpwYXNz"}}
		if _, err := req.BearerToken(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestParseCurlFile(t *testing.T) {
	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "request.sh")
		content := "curl 'http://localhost:8000/courses' \\\n  -H 'Authorization: Bearer filetoken'\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		req, err := ParseCurlFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		token, err := req.BearerToken()
		if err != nil || token != "filetoken" {
			t.Errorf("expected filetoken, got %q (%v)", token, err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ParseCurlFile(filepath.Join(t.TempDir(), "missing.sh")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
