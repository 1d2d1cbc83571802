// Package uploads provides the HTTP client for the file-upload collaborator.
// One request per field: the collaborator stores every file in the request
// and answers with their remote references.
package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/LouieCads/iskolar-forms/internal/submit"
)

// Client implements submit.Uploader against an HTTP endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// New constructs a Client. A zero timeout falls back to two minutes; uploads
// carry whole files and need more headroom than a default API call.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type uploadResponse struct {
	URLs []string `json:"urls"`
}

// Upload posts the field's files as multipart form data to
// {base}/applications/{id}/fields/{key}/files. The deterministic idempotency
// key travels as a header so the collaborator can dedupe retries.
func (c *Client) Upload(ctx context.Context, req submit.UploadRequest) ([]string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, file := range req.Files {
		part, err := writer.CreateFormFile("files", file.Name)
		if err != nil {
			return nil, fmt.Errorf("uploads: build request: %w", err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return nil, fmt.Errorf("uploads: build request: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("uploads: build request: %w", err)
	}

	url := fmt.Sprintf("%s/applications/%s/fields/%s/files", c.baseURL, req.ApplicationID, req.FieldKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("uploads: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("uploads: %s: %w", req.FieldKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("uploads: %s: unexpected status %d: %s", req.FieldKey, resp.StatusCode, snippet)
	}

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("uploads: decode response: %w", err)
	}
	if len(decoded.URLs) != len(req.Files) {
		return nil, fmt.Errorf("uploads: %s: got %d references for %d files", req.FieldKey, len(decoded.URLs), len(req.Files))
	}
	return decoded.URLs, nil
}
