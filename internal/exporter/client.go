// Package exporter hands composed documents to the external document exporter.
package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/render"
	"github.com/MikeSquared-Agency/Psyche/internal/report"
)

// DefaultTimeout bounds a single export. Painting large reports is slow, so
// this is well above the other collaborators' timeouts.
const DefaultTimeout = 2 * time.Minute

type Request struct {
	TenantID  uuid.UUID        `json:"tenant_id"`
	CompanyID uuid.UUID        `json:"company_id"`
	Format    string           `json:"format"`
	LogoURL   string           `json:"logo_url,omitempty"`
	Document  *report.Document `json:"document"`
	Markdown  string           `json:"markdown"`
}

// Artifact is where the exporter stored the rendered file.
type Artifact struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type Client interface {
	Export(ctx context.Context, req Request) (*Artifact, error)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Export posts the document. A Markdown rendition is attached for exporters that
// paint from text rather than from the structured document.
func (c *HTTPClient) Export(ctx context.Context, r Request) (*Artifact, error) {
	if r.Document == nil {
		return nil, fmt.Errorf("exporter: no document")
	}
	if r.Format == "" {
		r.Format = "pdf"
	}
	if r.Markdown == "" {
		r.Markdown = render.Markdown(r.Document)
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/exports", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("exporter: %d %s", resp.StatusCode, string(body))
	}

	var a Artifact
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.URL == "" {
		return nil, fmt.Errorf("exporter: response has no artifact url")
	}
	return &a, nil
}
