// Package http provides a wrapper around the retryablehttp.Client
// for making HTTP requests with retry capabilities.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

type HTTPDoer interface {
	Do(*retryablehttp.Request) (*http.Response, error)
}

type HTTP struct {
	*retryablehttp.Client
}

var _ HTTPDoer = (*retryablehttp.Client)(nil)

func DefaultConfig() *retryablehttp.Client {
	return retryablehttp.NewClient()
}

func New(client *retryablehttp.Client) *HTTP {
	return &HTTP{
		Client: client,
	}
}

// StatusError is returned for non-2xx responses. Detail carries a structured
// message extracted from a JSON error body when one was present.
type StatusError struct {
	StatusCode int
	Detail     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// ExpectStatus2xx consumes and closes the response body on failure.
func ExpectStatus2xx(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return &StatusError{
		StatusCode: resp.StatusCode,
		Detail:     errorDetail(resp.Header.Get("Content-Type"), body),
		Body:       string(body),
	}
}

// errorDetail pulls a human-readable message out of a JSON error body.
// Recognized shapes: {"message": ...}, {"error": ...} and
// {"detail": {"message": ...}}.
func errorDetail(contentType string, body []byte) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.Contains(mediaType, "application/json") {
		return ""
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error", "detail"} {
		if s, ok := payload[key].(string); ok {
			return s
		}
	}
	if detail, ok := payload["detail"].(map[string]any); ok {
		if s, ok := detail["message"].(string); ok {
			return s
		}
	}
	return ""
}
