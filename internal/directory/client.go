// Package directory reads tenant identity from the external tenant directory.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

// Tenant is the branding and responsible-person record the directory holds.
type Tenant struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	LogoURL     string             `json:"logo_url,omitempty"`
	Responsible *store.Responsible `json:"responsible,omitempty"`
}

type Client interface {
	GetTenant(ctx context.Context, tenantID uuid.UUID) (*Tenant, error)
	// GetResponsible returns the person designated for one company, or nil when
	// the directory has none on file.
	GetResponsible(ctx context.Context, tenantID, companyID uuid.UUID) (*store.Responsible, error)
}

type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// doReq returns (nil, nil) on 404 so callers can treat "not on file" as absence.
func (c *HTTPClient) doReq(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("directory %s %s: %d %s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}

func (c *HTTPClient) GetTenant(ctx context.Context, tenantID uuid.UUID) (*Tenant, error) {
	data, err := c.doReq(ctx, http.MethodGet, "/api/v1/tenants/"+url.PathEscape(tenantID.String()))
	if err != nil || data == nil {
		return nil, err
	}
	var t Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode tenant: %w", err)
	}
	return &t, nil
}

func (c *HTTPClient) GetResponsible(ctx context.Context, tenantID, companyID uuid.UUID) (*store.Responsible, error) {
	path := fmt.Sprintf("/api/v1/tenants/%s/companies/%s/responsible", tenantID, companyID)
	data, err := c.doReq(ctx, http.MethodGet, path)
	if err != nil || data == nil {
		return nil, err
	}
	var r store.Responsible
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode responsible: %w", err)
	}
	if r.Name == "" {
		return nil, nil
	}
	return &r, nil
}
