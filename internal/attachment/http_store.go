package attachment

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPStore uploads files to a remote blob service that answers
// POST /files with {"url": "..."}.
type HTTPStore struct {
	client *resty.Client
}

type uploadResponse struct {
	URL string `json:"url"`
}

type uploadError struct {
	Error string `json:"error"`
}

func NewHTTPStore(baseURL, token string) *HTTPStore {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &HTTPStore{client: client}
}

func (s *HTTPStore) Put(ctx context.Context, name, contentType string, content []byte) (string, error) {
	var result uploadResponse
	var failure uploadError

	resp, err := s.client.R().
		SetContext(ctx).
		SetMultipartField("file", storedName(name, contentType), contentType, bytes.NewReader(content)).
		SetResult(&result).
		SetError(&failure).
		Post("/files")
	if err != nil {
		return "", fmt.Errorf("upload attachment: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("upload attachment: status %d: %s", resp.StatusCode(), failure.Error)
	}
	if result.URL == "" {
		return "", fmt.Errorf("upload attachment: empty url in response")
	}
	return result.URL, nil
}
