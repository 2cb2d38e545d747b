// Package client talks to the docverify HTTP API. Files are fingerprinted
// locally; only the digest and metadata go over the wire.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docverify/internal/models"
	"docverify/internal/services"
)

// APIError is a non-2xx response decoded from {"error","type"}.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	hc      *http.Client
	token   string
}

func New(baseURL string, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 30 * time.Second},
		token:   token,
	}
}

func (c *Client) Token() string { return c.token }

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
			Type  string `json:"type"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Type: e.Type, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Login stores the returned token on the client and returns it.
func (c *Client) Login(ctx context.Context, email, password string) (models.Identity, string, error) {
	var out struct {
		User  models.Identity `json:"user"`
		Token string          `json:"token"`
	}
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", in, &out); err != nil {
		return models.Identity{}, "", err
	}
	c.token = out.Token
	return out.User, out.Token, nil
}

// Me returns nil when the token is missing or no longer valid.
func (c *Client) Me(ctx context.Context) (*models.Identity, error) {
	var out struct {
		User *models.Identity `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (c *Client) Documents(ctx context.Context) ([]models.DocumentRecord, error) {
	var out struct {
		Documents []models.DocumentRecord `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/documents", nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

func (c *Client) Upload(ctx context.Context, in services.UploadInput) (*models.DocumentRecord, error) {
	var out struct {
		Document models.DocumentRecord `json:"document"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/documents", in, &out); err != nil {
		return nil, err
	}
	return &out.Document, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/documents/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Verify(ctx context.Context, in services.VerifyInput) (*services.Outcome, error) {
	var out services.Outcome
	if err := c.do(ctx, http.MethodPost, "/api/verify", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AuditLogs(ctx context.Context) ([]models.AuditLogEntry, error) {
	var out struct {
		Logs []models.AuditLogEntry `json:"logs"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/audit-logs", nil, &out); err != nil {
		return nil, err
	}
	return out.Logs, nil
}
