package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"subkeep/internal/models"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	httpTimeoutEnvKey  = "SUBKEEP_HTTP_TIMEOUT"
	apiTokenEnvKey     = "SUBKEEP_API_TOKEN"
)

// Client is a simple HTTP client for the subkeep API.
type Client struct {
	baseURL   string
	http      *http.Client
	authToken string
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: httpTimeoutFromEnv()},
		authToken: strings.TrimSpace(os.Getenv(apiTokenEnvKey)),
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) GetInfo(ctx context.Context) (InfoResponse, error) {
	var resp InfoResponse
	err := c.do(ctx, http.MethodGet, "/api/info", nil, nil, &resp)
	return resp, err
}

func (c *Client) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	var resp []models.Subscription
	err := c.do(ctx, http.MethodGet, "/api/subs", nil, nil, &resp)
	return resp, err
}

func (c *Client) GetSubscription(ctx context.Context, name string) (models.Subscription, error) {
	var resp models.Subscription
	err := c.do(ctx, http.MethodGet, "/api/sub/"+url.PathEscape(name), nil, nil, &resp)
	return resp, err
}

func (c *Client) CreateSubscription(ctx context.Context, sub models.Subscription) (models.Subscription, error) {
	var resp models.Subscription
	err := c.do(ctx, http.MethodPost, "/api/subs", nil, sub, &resp)
	return resp, err
}

// UpdateSubscription patches fields present in patch.
func (c *Client) UpdateSubscription(ctx context.Context, name string, patch map[string]any) (models.Subscription, error) {
	var resp models.Subscription
	err := c.do(ctx, http.MethodPatch, "/api/sub/"+url.PathEscape(name), nil, patch, &resp)
	return resp, err
}

func (c *Client) DeleteSubscription(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/api/sub/"+url.PathEscape(name), nil, nil, nil)
}

func (c *Client) ListCollections(ctx context.Context) ([]models.Collection, error) {
	var resp []models.Collection
	err := c.do(ctx, http.MethodGet, "/api/collections", nil, nil, &resp)
	return resp, err
}

func (c *Client) GetCollection(ctx context.Context, name string) (models.Collection, error) {
	var resp models.Collection
	err := c.do(ctx, http.MethodGet, "/api/collection/"+url.PathEscape(name), nil, nil, &resp)
	return resp, err
}

func (c *Client) CreateCollection(ctx context.Context, col models.Collection) (models.Collection, error) {
	var resp models.Collection
	err := c.do(ctx, http.MethodPost, "/api/collections", nil, col, &resp)
	return resp, err
}

func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/api/collection/"+url.PathEscape(name), nil, nil, nil)
}

func (c *Client) ListArtifacts(ctx context.Context) ([]models.Artifact, error) {
	var resp []models.Artifact
	err := c.do(ctx, http.MethodGet, "/api/artifacts", nil, nil, &resp)
	return resp, err
}

func (c *Client) GetArtifact(ctx context.Context, name string) (models.Artifact, error) {
	var resp models.Artifact
	err := c.do(ctx, http.MethodGet, "/api/artifact/"+url.PathEscape(name), nil, nil, &resp)
	return resp, err
}

func (c *Client) CreateArtifact(ctx context.Context, artifact models.Artifact) (models.Artifact, error) {
	var resp models.Artifact
	err := c.do(ctx, http.MethodPost, "/api/artifacts", nil, artifact, &resp)
	return resp, err
}

func (c *Client) DeleteArtifact(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, "/api/artifact/"+url.PathEscape(name), nil, nil, nil)
}

// GetSettings returns settings with the gist token masked.
func (c *Client) GetSettings(ctx context.Context) (models.Settings, error) {
	var resp models.Settings
	err := c.do(ctx, http.MethodGet, "/api/settings", nil, nil, &resp)
	return resp, err
}

func (c *Client) UpdateSettings(ctx context.Context, req SettingsUpdateRequest) (models.Settings, error) {
	var resp models.Settings
	err := c.do(ctx, http.MethodPatch, "/api/settings", nil, req, &resp)
	return resp, err
}

// Backup runs one backup action on the server.
func (c *Client) Backup(ctx context.Context, action string) (StatusResponse, error) {
	var resp StatusResponse
	query := url.Values{}
	query.Set("action", action)
	err := c.do(ctx, http.MethodGet, "/api/utils/backup", query, nil, &resp)
	return resp, err
}

// ExportStorage streams the raw local state to a writer.
func (c *Client) ExportStorage(ctx context.Context, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/storage", nil)
	if err != nil {
		return err
	}
	c.setAuthHeader(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// ImportStorage replaces the server's local state with blob.
func (c *Client) ImportStorage(ctx context.Context, blob io.Reader) (StatusResponse, error) {
	var resp StatusResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/storage", blob)
	if err != nil {
		return resp, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeader(req)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return resp, err
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode >= 400 {
		return resp, decodeError(httpResp)
	}
	err = json.NewDecoder(httpResp.Body).Decode(&resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeader(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		return &APIError{
			Status:    resp.StatusCode,
			Code:      errResp.Code,
			ErrorCode: errResp.ErrorCode,
			Message:   errResp.Error,
		}
	}
	return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("api error: %s", resp.Status)}
}

func (c *Client) setAuthHeader(req *http.Request) {
	if c.authToken == "" || req == nil {
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.authToken)
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
