package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBackupKey  = "Auto Generated Sub-Store Backup"
	DefaultBackupFile = "Sub-Store"
)

const (
	githubAPIVersion = "2022-11-28"
	defaultBaseURL   = "https://api.github.com"
	defaultTimeout   = 30 * time.Second
	listPageSize     = 100
	maxResponseBytes = 64 << 20
)

// Config holds settings for a gist Client.
type Config struct {
	// BaseURL defaults to https://api.github.com.
	BaseURL string
	// Token is required.
	Token string
	// Key is the gist description identifying the backup gist.
	Key        string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client uploads and downloads backup documents stored as files of a
// single secret gist identified by its description.
type Client struct {
	baseURL string
	token   string
	key     string
	http    *http.Client
	logger  *slog.Logger
}

type gistFile struct {
	Filename  string `json:"filename,omitempty"`
	Content   string `json:"content"`
	RawURL    string `json:"raw_url,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

type gistDoc struct {
	ID          string              `json:"id"`
	Description string              `json:"description"`
	Files       map[string]gistFile `json:"files"`
}

type gistWrite struct {
	Description string              `json:"description,omitempty"`
	Public      *bool               `json:"public,omitempty"`
	Files       map[string]gistFile `json:"files"`
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, fmt.Errorf("gist: token is required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("gist: invalid base url %q: %w", base, err)
	}
	key := strings.TrimSpace(cfg.Key)
	if key == "" {
		key = DefaultBackupKey
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: base, token: token, key: key, http: httpClient, logger: logger}, nil
}

// Upload writes content as file name in the backup gist, creating the gist
// on first use.
func (c *Client) Upload(ctx context.Context, name, content string) error {
	existing, err := c.findBackupGist(ctx)
	if err != nil {
		return err
	}

	files := map[string]gistFile{name: {Content: content}}
	if existing == nil {
		public := false
		var created gistDoc
		if err := c.do(ctx, http.MethodPost, "/gists", gistWrite{Description: c.key, Public: &public, Files: files}, &created); err != nil {
			return err
		}
		c.logger.Info("created backup gist", "gist_id", created.ID, "file", name, "bytes", len(content))
		return nil
	}

	if err := c.do(ctx, http.MethodPatch, "/gists/"+url.PathEscape(existing.ID), gistWrite{Files: files}, nil); err != nil {
		return err
	}
	c.logger.Info("updated backup gist", "gist_id", existing.ID, "file", name, "bytes", len(content))
	return nil
}

// Download returns the content of file name in the backup gist.
func (c *Client) Download(ctx context.Context, name string) (string, error) {
	summary, err := c.findBackupGist(ctx)
	if err != nil {
		return "", err
	}
	if summary == nil {
		return "", ErrNotFound
	}

	// List responses omit content; fetch the full gist.
	var full gistDoc
	if err := c.do(ctx, http.MethodGet, "/gists/"+url.PathEscape(summary.ID), nil, &full); err != nil {
		return "", err
	}
	file, ok := full.Files[name]
	if !ok {
		return "", fmt.Errorf("file %q: %w", name, ErrNotFound)
	}
	if !file.Truncated {
		return file.Content, nil
	}
	if file.RawURL == "" {
		return "", fmt.Errorf("gist: file %q is truncated and has no raw url", name)
	}
	return c.fetchRaw(ctx, file.RawURL)
}

// findBackupGist walks the gist list by its Link headers until a gist with
// the backup description turns up.
func (c *Client) findBackupGist(ctx context.Context) (*gistDoc, error) {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(listPageSize))
	next := c.baseURL + "/gists?" + query.Encode()
	seen := map[string]struct{}{}

	for next != "" {
		if _, ok := seen[next]; ok {
			return nil, fmt.Errorf("gist: pagination loop at %s", next)
		}
		seen[next] = struct{}{}
		if !c.isAPIHost(next) {
			return nil, fmt.Errorf("gist: next page %s is outside the api host", next)
		}

		var gists []gistDoc
		header, err := c.doURL(ctx, http.MethodGet, next, nil, &gists)
		if err != nil {
			return nil, err
		}
		for i := range gists {
			if gists[i].Description == c.key {
				return &gists[i], nil
			}
		}
		next = parseLinkNext(header.Get("Link"))
	}
	return nil, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	_, err := c.doURL(ctx, method, c.baseURL+path, body, out)
	return err
}

func (c *Client) doURL(ctx context.Context, method, endpoint string, body any, out any) (http.Header, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gist: encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("gist: creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gist: %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, data)
		if isUnauthorized(apiErr) {
			c.logger.Warn("gist token rejected", "method", method, "path", req.URL.Path)
		}
		return nil, apiErr
	}
	if out == nil {
		return resp.Header, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("gist: decoding response: %w", err)
	}
	return resp.Header, nil
}

func (c *Client) fetchRaw(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("gist: creating raw request: %w", err)
	}
	c.setHeaders(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gist: fetching raw content: %w", err)
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", parseAPIError(resp.StatusCode, data)
	}
	return string(data), nil
}

// readLimited reads a response body, failing rather than truncating when it
// exceeds maxResponseBytes.
func readLimited(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("gist: reading response body: %w", err)
	}
	if len(data) > maxResponseBytes {
		return nil, fmt.Errorf("gist: response exceeds %d bytes: %w", maxResponseBytes, ErrTooLarge)
	}
	return data, nil
}

// isAPIHost reports whether raw points at the configured API host.
func (c *Client) isAPIHost(raw string) bool {
	target, err := url.Parse(raw)
	if err != nil {
		return false
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(target.Scheme, base.Scheme) && strings.EqualFold(target.Host, base.Host)
}

// setHeaders sets GitHub API headers. The token is only sent to the API
// host, never to raw content hosts.
func (c *Client) setHeaders(req *http.Request) {
	if c.isAPIHost(req.URL.String()) {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	req.Header.Set("User-Agent", "subkeep")
}

// parseLinkNext returns the rel="next" URL of an RFC 5988 Link header.
func parseLinkNext(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.SplitN(strings.TrimSpace(part), ";", 2)
		if len(segments) != 2 || !strings.Contains(segments[1], `rel="next"`) {
			continue
		}
		link := strings.TrimSpace(segments[0])
		if strings.HasPrefix(link, "<") && strings.HasSuffix(link, ">") {
			return link[1 : len(link)-1]
		}
	}
	return ""
}
