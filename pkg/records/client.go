package records

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

	"github.com/goliatone/go-mythforms/pkg/model"
	"github.com/goliatone/go-mythforms/pkg/references"
)

// Client talks to a Handler over HTTP. It implements Store,
// references.Lookup and AttachmentSink. Transport failures surface as failed
// Results or errors, never panics.
type Client struct {
	base string
	http *http.Client
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// NewClient targets the handler mounted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Client) Read(ctx context.Context, category, id string) Result {
	return c.doResult(ctx, http.MethodGet, c.recordURL(category, id), nil)
}

func (c *Client) Create(ctx context.Context, category string, data map[string]any) Result {
	return c.doResult(ctx, http.MethodPost, c.recordURL(category, ""), data)
}

func (c *Client) Update(ctx context.Context, category, id string, data map[string]any) Result {
	return c.doResult(ctx, http.MethodPut, c.recordURL(category, id), data)
}

// Search implements references.Lookup.
func (c *Client) Search(ctx context.Context, query, typeFilter string) ([]references.Hit, error) {
	params := url.Values{}
	params.Set("q", query)
	if typeFilter != "" {
		params.Set("type", typeFilter)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("records: search request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("records: search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("records: search: unexpected status %d", resp.StatusCode)
	}
	var body SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("records: decode search: %w", err)
	}
	return body.Hits, nil
}

// Put implements AttachmentSink by posting the raw payload.
func (c *Client) Put(ctx context.Context, category, id, field string, upload model.Upload) (string, error) {
	target := c.base + "/attachments/" + url.PathEscape(category) + "/" + url.PathEscape(id) + "/" + url.PathEscape(field)
	if upload.Filename != "" {
		target += "?filename=" + url.QueryEscape(upload.Filename)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(upload.Data))
	if err != nil {
		return "", fmt.Errorf("records: upload request: %w", err)
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("records: upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		var failure errorResponse
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		if failure.Error != "" {
			return "", fmt.Errorf("records: upload: %s", failure.Error)
		}
		return "", fmt.Errorf("records: upload: unexpected status %d", resp.StatusCode)
	}
	var body UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("records: decode upload: %w", err)
	}
	return body.URL, nil
}

func (c *Client) recordURL(category, id string) string {
	target := c.base + "/records/" + url.PathEscape(category)
	if id != "" {
		target += "/" + url.PathEscape(id)
	}
	return target
}

func (c *Client) doResult(ctx context.Context, method, target string, data map[string]any) Result {
	var body io.Reader
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Fail(fmt.Errorf("records: encode payload: %w", err))
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Fail(fmt.Errorf("records: build request: %w", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return Fail(fmt.Errorf("records: %s %s: %w", method, target, err))
	}
	defer resp.Body.Close()

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Fail(fmt.Errorf("records: %s %s: status %d: %w", method, target, resp.StatusCode, err))
	}
	if !result.Success && result.Error == "" {
		result.Error = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}
	return result
}
