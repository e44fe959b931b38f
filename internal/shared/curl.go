// Utilities for lifting credentials out of a browser "Copy as cURL" command.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlURLRegex    = regexp.MustCompile(`(?:^|\s)'?(https?://[^\s']+)'?`)
)

// CurlRequest holds the headers and target URL parsed from a cURL command.
type CurlRequest struct {
	URL     string
	Headers map[string]string // canonical header name -> value
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts its request.
func ParseCurlFile(filepath string) (*CurlRequest, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts headers and URL.
func ParseCurlCommand(data []byte) (*CurlRequest, error) {
	curlCmd := string(data)
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	req := &CurlRequest{Headers: make(map[string]string)}

	for _, match := range curlHeaderRegex.FindAllStringSubmatch(curlCmd, -1) {
		line := match[1]
		if line == "" {
			line = match[2]
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		req.Headers[canonicalHeader(key)] = strings.TrimSpace(value)
	}

	if m := curlURLRegex.FindStringSubmatch(curlCmd); len(m) > 1 {
		req.URL = m[1]
	}

	if len(req.Headers) == 0 {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	return req, nil
}

// BearerToken returns the token carried in the Authorization header.
func (c *CurlRequest) BearerToken() (string, error) {
	auth, ok := c.Headers["Authorization"]
	if !ok {
		return "", fmt.Errorf("%w: no Authorization header in curl command", ErrMissingToken)
	}

	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: Authorization header is not a bearer token", ErrInvalidInput)
	}
	return strings.TrimSpace(token), nil
}

func canonicalHeader(key string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(key)), "-")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}
