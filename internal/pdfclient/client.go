// Package pdfclient talks to the external HTML-to-PDF rendering and merge
// service. Failures surface as domain.ExternalServiceError and never leave
// a partially finalized document behind.
package pdfclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bensalemGit/rentalos-sub000/pkg/domain"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Render converts one HTML page to PDF bytes.
func (c *Client) Render(ctx context.Context, html string) ([]byte, error) {
	body, _ := json.Marshal(map[string]string{"html": html})
	pdf, err := c.post(ctx, "/render", body)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: "pdf", Op: "render", Err: err}
	}
	return pdf, nil
}

// Merge concatenates the given PDFs, in order, into one document.
func (c *Client) Merge(ctx context.Context, docs [][]byte) ([]byte, error) {
	encoded := make([]string, len(docs))
	for i, d := range docs {
		encoded[i] = base64.StdEncoding.EncodeToString(d)
	}
	body, _ := json.Marshal(map[string]any{"documents": encoded})
	pdf, err := c.post(ctx, "/merge", body)
	if err != nil {
		return nil, &domain.ExternalServiceError{Service: "pdf", Op: "merge", Err: err}
	}
	return pdf, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("content-type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pdf service returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
