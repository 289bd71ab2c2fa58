package queueapi

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

	"github.com/google/uuid"
)

// Queue defines the calls the rest of bindery makes against the service.
// *Client implements it; tests substitute fakes.
type Queue interface {
	FetchStatus(ctx context.Context) (json.RawMessage, error)
	FetchActiveDownloads(ctx context.Context) ([]string, error)
	Enqueue(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	ClearCompleted(ctx context.Context) error
}

// Ensure Client implements Queue at compile time.
var _ Queue = (*Client)(nil)

// Client talks to the book request HTTP API.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	userAgent     string
	enqueueMethod string
	logger        *slog.Logger
}

// Options configure NewClient.
type Options struct {
	BaseURL       string
	APIPrefix     string // empty uses /request/api
	EnqueueMethod string // GET (default) or POST
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

const (
	defaultBaseURL   = "http://127.0.0.1:8084"
	defaultAPIPrefix = "/request/api"
	defaultUserAgent = "bindery/0.1"

	requestIDHeader = "X-Request-ID"
)

// NewClient builds a Client. No client-side timeout is set; callers bound
// requests through the context.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL, opts.APIPrefix)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(strings.TrimSpace(opts.EnqueueMethod))
	switch method {
	case "":
		method = http.MethodGet
	case http.MethodGet, http.MethodPost:
	default:
		return nil, fmt.Errorf("enqueue method %q: want GET or POST", opts.EnqueueMethod)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL:       base,
		http:          httpClient,
		userAgent:     defaultUserAgent,
		enqueueMethod: method,
		logger:        logger,
	}, nil
}

// BaseURL returns the resolved API root, including the prefix.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchStatus retrieves the raw queue snapshot payload.
func (c *Client) FetchStatus(ctx context.Context) (json.RawMessage, error) {
	var payload json.RawMessage
	if err := c.do(ctx, http.MethodGet, "status", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchActiveDownloads returns the ids of jobs currently downloading.
func (c *Client) FetchActiveDownloads(ctx context.Context) ([]string, error) {
	var payload ActiveDownloadsResponse
	if err := c.do(ctx, http.MethodGet, "downloads/active", &payload); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(payload.ActiveDownloads))
	for _, raw := range payload.ActiveDownloads {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			ids = append(ids, s)
			continue
		}
		ids = append(ids, strings.TrimSpace(string(raw)))
	}
	return ids, nil
}

// Enqueue asks the service to download the book with the given id.
func (c *Client) Enqueue(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("book id required")
	}
	values := url.Values{}
	values.Set("id", id)
	return c.Request(ctx, c.enqueueMethod, "download", values, nil)
}

// Cancel cancels a queued or running download.
func (c *Client) Cancel(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("job id required")
	}
	rel := &url.URL{
		Path:    "download/" + id + "/cancel",
		RawPath: "download/" + url.PathEscape(id) + "/cancel",
	}
	return c.doURL(ctx, http.MethodDelete, rel, nil)
}

// ClearCompleted removes finished jobs from the queue.
func (c *Client) ClearCompleted(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "queue/clear", nil)
}

// Search runs a book search. An empty query returns no results without
// contacting the service.
func (c *Client) Search(ctx context.Context, query SearchQuery) ([]BookSummary, error) {
	values := query.values()
	if len(values) == 0 {
		return nil, nil
	}
	var payload []BookSummary
	if err := c.Request(ctx, http.MethodGet, "search", values, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Info fetches the full record for one book.
func (c *Client) Info(ctx context.Context, id string) (BookDetails, error) {
	if strings.TrimSpace(id) == "" {
		return BookDetails{}, fmt.Errorf("book id required")
	}
	values := url.Values{}
	values.Set("id", id)
	var payload BookDetails
	if err := c.Request(ctx, http.MethodGet, "info", values, &payload); err != nil {
		return BookDetails{}, err
	}
	return payload, nil
}

// Request issues method against path (relative to the API root) and decodes
// the JSON response into dest. A nil dest discards the body.
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, dest any) error {
	rel := &url.URL{Path: strings.TrimPrefix(path, "/"), RawQuery: query.Encode()}
	return c.doURL(ctx, method, rel, dest)
}

func (c *Client) do(ctx context.Context, method, path string, dest any) error {
	return c.Request(ctx, method, path, nil, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(requestIDHeader, requestID)

	logger := c.logger.With(
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("url", reqURL.String()),
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Warn("request failed", slog.Any("error", err))
		return &NetworkError{Method: method, URL: reqURL.String(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	logger.Debug("request completed",
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &TransportError{
			Method:     method,
			URL:        reqURL.String(),
			StatusCode: resp.StatusCode,
			Reason:     strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)),
		}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Method: method, URL: reqURL.String(), Err: fmt.Errorf("read response: %w", err)}
	}
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (q SearchQuery) values() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			values.Add(key, v)
		}
	}
	set("query", q.Query)
	set("isbn", q.ISBN)
	set("author", q.Author)
	set("title", q.Title)
	set("lang", q.Lang)
	set("sort", q.Sort)
	set("content", q.Content)
	for _, format := range q.Formats {
		set("format", format)
	}
	return values
}

func parseBaseURL(baseURL, prefix string) (*url.URL, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse base url %q: missing host", baseURL)
	}

	p := strings.TrimSpace(prefix)
	if p == "" {
		p = defaultAPIPrefix
	}
	p = "/" + strings.Trim(p, "/")
	if p != "/" {
		p += "/"
	}
	u.Path = p
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
