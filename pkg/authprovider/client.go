// Package authprovider talks to the managed auth provider's admin API to
// create (invite) and delete back-office identities.
package authprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured is returned when the provider URL or service key is missing.
var ErrNotConfigured = errors.New("auth provider not configured")

// APIError is a non-2xx provider response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Identity is the provider's view of a user.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Config configures the client. ServiceKey is the privileged key and must never reach a browser.
type Config struct {
	BaseURL    string
	ServiceKey string
	RedirectTo string
	HTTPClient *http.Client
}

// Client calls the provider over HTTP.
type Client struct {
	baseURL    string
	serviceKey string
	redirectTo string
	httpClient *http.Client
}

// NewClient constructs a provider client.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		serviceKey: strings.TrimSpace(cfg.ServiceKey),
		redirectTo: strings.TrimSpace(cfg.RedirectTo),
		httpClient: httpClient,
	}
}

// Configured reports whether both URL and service key are set.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.serviceKey != ""
}

// InviteUser creates an identity and sends the provider's invitation email.
// data is stored as user metadata.
func (c *Client) InviteUser(ctx context.Context, email string, data map[string]string) (Identity, error) {
	if !c.Configured() {
		return Identity{}, ErrNotConfigured
	}
	payload := map[string]any{"email": strings.TrimSpace(email)}
	if len(data) > 0 {
		payload["data"] = data
	}
	path := "/auth/v1/invite"
	if c.redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(c.redirectTo)
	}
	var identity Identity
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &identity); err != nil {
		return Identity{}, err
	}
	if identity.ID == "" {
		return Identity{}, &APIError{Status: http.StatusBadGateway, Message: "auth provider returned no user id"}
	}
	return identity, nil
}

// DeleteUser removes an identity by provider id.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("identity id required")
	}
	return c.doJSON(ctx, http.MethodDelete, "/auth/v1/admin/users/"+url.PathEscape(id), nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth provider %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode auth provider response: %w", err)
	}
	return nil
}

// The provider is inconsistent about which field carries the message.
func decodeError(resp *http.Response) error {
	var errResp struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&errResp)
	msg := firstNonEmpty(errResp.Msg, errResp.Message, errResp.ErrorDescription, errResp.Error)
	if msg == "" {
		msg = resp.Status
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
