package wetlib

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// RemoteAPI is the record resource consumed by the sync engine. It hides
// transport entirely: implementations return NetworkError for anything that
// failed remotely.
type RemoteAPI interface {
	ListRecords(ctx context.Context, filter RecordFilter) ([]LocationRecord, error)
	CreateRecord(ctx context.Context, rec LocationRecord) (LocationRecord, error)
	UpdateRecord(ctx context.Context, id string, rec LocationRecord) (LocationRecord, error)
	DeleteRecord(ctx context.Context, id string) error
}

// RecordFilter narrows ListRecords server-side. Zero value lists all.
type RecordFilter struct {
	Type string
	City string
}

// TokenSource yields the bearer token for API calls.
type TokenSource func() (string, error)

// StaticToken returns a TokenSource that always yields tok.
func StaticToken(tok string) TokenSource {
	return func() (string, error) { return tok, nil }
}

// Client talks to the wetmap REST API over HTTP with bearer auth.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

// NewClient creates an API client. baseURL is the API root, e.g.
// "https://adaav-wetmap-api.glynet.com/api".
func NewClient(baseURL string, hc *http.Client, token TokenSource) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		token:   token,
	}
}

// ListRecords fetches the full record set, optionally filtered.
func (c *Client) ListRecords(ctx context.Context, filter RecordFilter) ([]LocationRecord, error) {
	endpoint := c.baseURL + "/locations/"
	params := url.Values{}
	if filter.Type != "" {
		params.Set("type", filter.Type)
	}
	if filter.City != "" {
		params.Set("city", filter.City)
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	var records []LocationRecord
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateRecord inserts a new record and returns it with its server id.
func (c *Client) CreateRecord(ctx context.Context, rec LocationRecord) (LocationRecord, error) {
	var created LocationRecord
	err := c.do(ctx, http.MethodPost, c.baseURL+"/locations/", rec, &created)
	return created, err
}

// UpdateRecord replaces the record with the given id.
func (c *Client) UpdateRecord(ctx context.Context, id string, rec LocationRecord) (LocationRecord, error) {
	var updated LocationRecord
	err := c.do(ctx, http.MethodPut, c.baseURL+"/locations/"+url.PathEscape(id), rec, &updated)
	return updated, err
}

// DeleteRecord removes the record with the given id.
func (c *Client) DeleteRecord(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.baseURL+"/locations/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return netErr(method, endpoint, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		tok, err := c.token()
		if err != nil {
			return fmt.Errorf("token source: %w", err)
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return netErr(method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return netErr(method, endpoint, ErrRecordNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Keep a slice of the body for the log line; the API returns
		// short JSON error messages.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return netErr(method, endpoint,
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return netErr(method, endpoint, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

var _ RemoteAPI = (*Client)(nil)
