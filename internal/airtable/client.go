package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RecordStore defines the record operations the sync layer needs.
// This interface is implemented by *Client and can be used for testing.
type RecordStore interface {
	List(ctx context.Context, query ListQuery) ([]Record, error)
	Create(ctx context.Context, fields Fields) (Record, error)
	Update(ctx context.Context, id string, fields Fields) (Record, error)
	Delete(ctx context.Context, id string) error
}

// Ensure Client implements RecordStore at compile time.
var _ RecordStore = (*Client)(nil)

const (
	DefaultBaseURL   = "https://api.airtable.com/v0"
	defaultUserAgent = "kiwi/0.1"
	requestTimeout   = 10 * time.Second
	maxListPages     = 50
	maxErrorBody     = 64 * 1024
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	BaseID     string
	Table      string
	Token      string
	UserAgent  string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to a table of the records API.
type Client struct {
	baseURL   *url.URL
	baseID    string
	table     string
	token     string
	http      *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewClient builds a Client for one table.
func NewClient(cfg Config) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	baseID := strings.TrimSpace(cfg.BaseID)
	if baseID == "" {
		return nil, fmt.Errorf("base id is required")
	}
	table := strings.TrimSpace(cfg.Table)
	if table == "" {
		return nil, fmt.Errorf("table is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:   base,
		baseID:    baseID,
		table:     table,
		token:     strings.TrimSpace(cfg.Token),
		http:      httpClient,
		userAgent: userAgent,
		logger:    logger,
	}, nil
}

// ListQuery configures list requests.
type ListQuery struct {
	SortField     string
	SortDirection string // "asc" or "desc"
	Search        string
	PageSize      int
}

// Values encodes the query the way the list endpoint expects it.
func (q ListQuery) Values() url.Values {
	values := url.Values{}
	if field := strings.TrimSpace(q.SortField); field != "" {
		values.Set("sort[0][field]", field)
		dir := strings.ToLower(strings.TrimSpace(q.SortDirection))
		if dir != "asc" && dir != "desc" {
			dir = "asc"
		}
		values.Set("sort[0][direction]", dir)
	}
	if formula := SearchFormula(q.Search); formula != "" {
		values.Set("filterByFormula", formula)
	}
	if q.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	return values
}

// SearchFormula returns a formula matching titles that contain term, or ""
// for a blank term.
func SearchFormula(term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(term)
	return fmt.Sprintf(`SEARCH("%s",{title})`, escaped)
}

// List retrieves every record matching query, following offset cursors.
func (c *Client) List(ctx context.Context, query ListQuery) ([]Record, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := query.Values()
	var records []Record
	for page := 0; page < maxListPages; page++ {
		rel := &url.URL{Path: c.tablePath(), RawQuery: values.Encode()}
		var payload recordsEnvelope
		if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
			return nil, err
		}
		records = append(records, payload.Records...)
		if payload.Offset == "" {
			return records, nil
		}
		values.Set("offset", payload.Offset)
	}
	c.logger.Warn("list truncated", zap.Int("pages", maxListPages), zap.Int("records", len(records)))
	return records, nil
}

// Create inserts one record and returns it as stored.
func (c *Client) Create(ctx context.Context, fields Fields) (Record, error) {
	if c == nil {
		return Record{}, fmt.Errorf("client is nil")
	}
	body := recordsEnvelope{Records: []Record{{Fields: fields}}}
	return c.writeOne(ctx, http.MethodPost, body)
}

// Update patches the given fields of one record.
func (c *Client) Update(ctx context.Context, id string, fields Fields) (Record, error) {
	if c == nil {
		return Record{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return Record{}, fmt.Errorf("record id required")
	}
	body := recordsEnvelope{Records: []Record{{ID: id, Fields: fields}}}
	return c.writeOne(ctx, http.MethodPatch, body)
}

// Delete removes one record.
func (c *Client) Delete(ctx context.Context, id string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("record id required")
	}
	rel := &url.URL{Path: path.Join(c.tablePath(), id)}
	var payload deleteResponse
	if err := c.doURL(ctx, http.MethodDelete, rel, nil, &payload); err != nil {
		return err
	}
	if payload.ID != "" && !payload.Deleted {
		return fmt.Errorf("record %s was not deleted", id)
	}
	return nil
}

func (c *Client) writeOne(ctx context.Context, method string, body recordsEnvelope) (Record, error) {
	rel := &url.URL{Path: c.tablePath()}
	var payload recordsEnvelope
	if err := c.doURL(ctx, method, rel, body, &payload); err != nil {
		return Record{}, err
	}
	if len(payload.Records) == 0 {
		return Record{}, fmt.Errorf("%s %s returned no records", method, c.table)
	}
	return payload.Records[0], nil
}

func (c *Client) tablePath() string {
	return path.Join(c.baseURL.Path, c.baseID, c.table)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("store request",
		zap.String("method", method),
		zap.String("path", rel.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return decodeAPIError(resp.StatusCode, raw)
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	u.Path = "/" + strings.Trim(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
