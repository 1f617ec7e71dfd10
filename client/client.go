package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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

const (
	tableAPIPath      = "/api/now/table"
	attachmentAPIPath = "/api/now/attachment"
	userAgent         = "glidewire"
)

// TokenProvider supplies a valid bearer token before each call.
type TokenProvider interface {
	EnsureAuthenticated(ctx context.Context) (string, error)
}

// Record is one table row as returned by the instance: field name to
// scalar value. Never cached or mutated beyond the round trip.
type Record = map[string]any

// Query shapes a table query. Filter is the instance's own encoded
// query grammar and passes through verbatim.
type Query struct {
	Filter     string
	Fields     []string
	Limit      int
	Offset     int
	OrderBy    string
	Descending bool
}

// Client executes authenticated calls against the table and attachment
// APIs.
type Client struct {
	baseURL string
	auth    TokenProvider
	http    *http.Client
	logger  *slog.Logger
	debug   bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithDebug logs full request/response metadata at debug level.
func WithDebug(debug bool) ClientOption {
	return func(c *Client) { c.debug = debug }
}

// NewClient builds a transport for baseURL. auth must be non-nil; a nil
// logger discards.
func NewClient(baseURL string, auth TokenProvider, logger *slog.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues one authenticated JSON call. out, when non-nil, receives
// the decoded "result" member of the response envelope.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return &RequestError{Message: "encode payload", Err: err}
		}
		body = bytes.NewReader(encoded)
	}

	data, err := c.doRaw(ctx, method, path, query, "application/json", body)
	if err != nil {
		return err
	}
	if out == nil || len(data) == 0 {
		return nil
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return &RequestError{Message: "decode response", Err: err}
	}
	if len(envelope.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return &RequestError{Message: "decode result", Err: err}
	}
	return nil
}

// doRaw performs the HTTP round trip and returns the raw body of a 2xx
// response.
func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) ([]byte, error) {
	token, err := c.auth.EnsureAuthenticated(ctx)
	if err != nil {
		return nil, err
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, &RequestError{Message: "build request", Err: err}
	}
	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.InfoContext(ctx, "request",
			"method", method,
			"path", path,
			"request_id", requestID,
			"outcome", "error",
			"error", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}

	if c.debug {
		c.logger.DebugContext(ctx, "request",
			"method", method,
			"url", fullURL,
			"request_id", requestID,
			"status", resp.StatusCode,
			"response_bytes", len(responseBody),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: extractErrorMessage(responseBody, resp.StatusCode)}
		c.logger.InfoContext(ctx, "request",
			"method", method,
			"path", path,
			"request_id", requestID,
			"outcome", "error",
			"status", resp.StatusCode,
			"error", apiErr.Message,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, apiErr
	}

	return responseBody, nil
}

// extractErrorMessage pulls the message out of the instance's
// {"error": {"message": ..., "detail": ...}} body.
func extractErrorMessage(body []byte, status int) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
			Detail  string `json:"detail"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error.Message != "" && payload.Error.Detail != "":
			return payload.Error.Message + ": " + payload.Error.Detail
		case payload.Error.Message != "":
			return payload.Error.Message
		case payload.Error.Detail != "":
			return payload.Error.Detail
		}
	}
	return http.StatusText(status)
}

// GetRecord fetches one record by sys_id. fields may be nil for all
// fields.
func (c *Client) GetRecord(ctx context.Context, table, sysID string, fields []string) (Record, error) {
	query := url.Values{}
	if len(fields) > 0 {
		query.Set("sysparm_fields", strings.Join(fields, ","))
	}
	var record Record
	if err := c.Do(ctx, http.MethodGet, tableAPIPath+"/"+table+"/"+sysID, query, nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// QueryTable lists records matching q. The table name and filter are
// opaque pass-throughs; the instance owns their grammar.
func (c *Client) QueryTable(ctx context.Context, table string, q Query) ([]Record, error) {
	query := url.Values{}
	if encoded := q.encodedQuery(); encoded != "" {
		query.Set("sysparm_query", encoded)
	}
	if len(q.Fields) > 0 {
		query.Set("sysparm_fields", strings.Join(q.Fields, ","))
	}
	if q.Limit > 0 {
		query.Set("sysparm_limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		query.Set("sysparm_offset", strconv.Itoa(q.Offset))
	}
	if q.OrderBy != "" && !q.Descending {
		query.Set("sysparm_orderby", q.OrderBy)
	}
	var records []Record
	if err := c.Do(ctx, http.MethodGet, tableAPIPath+"/"+table, query, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// encodedQuery folds descending ordering into the encoded query string;
// the platform grammar has no separate parameter for it.
func (q Query) encodedQuery() string {
	s := q.Filter
	if q.OrderBy != "" && q.Descending {
		if s != "" {
			s += "^"
		}
		s += "ORDERBYDESC" + q.OrderBy
	}
	return s
}

// CreateRecord inserts a record and returns it as echoed by the
// instance.
func (c *Client) CreateRecord(ctx context.Context, table string, data map[string]any) (Record, error) {
	var record Record
	if err := c.Do(ctx, http.MethodPost, tableAPIPath+"/"+table, nil, data, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateRecord patches fields on an existing record.
func (c *Client) UpdateRecord(ctx context.Context, table, sysID string, data map[string]any) (Record, error) {
	var record Record
	if err := c.Do(ctx, http.MethodPatch, tableAPIPath+"/"+table+"/"+sysID, nil, data, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteRecord removes a record.
func (c *Client) DeleteRecord(ctx context.Context, table, sysID string) error {
	return c.Do(ctx, http.MethodDelete, tableAPIPath+"/"+table+"/"+sysID, nil, nil, nil)
}

// ListAttachments lists attachment metadata for one record.
func (c *Client) ListAttachments(ctx context.Context, tableName, tableSysID string, limit int) ([]Record, error) {
	filter := ""
	if tableName != "" {
		filter = "table_name=" + tableName
	}
	if tableSysID != "" {
		if filter != "" {
			filter += "^"
		}
		filter += "table_sys_id=" + tableSysID
	}
	query := url.Values{}
	if filter != "" {
		query.Set("sysparm_query", filter)
	}
	if limit > 0 {
		query.Set("sysparm_limit", strconv.Itoa(limit))
	}
	var records []Record
	if err := c.Do(ctx, http.MethodGet, attachmentAPIPath, query, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetAttachment fetches attachment metadata by sys_id.
func (c *Client) GetAttachment(ctx context.Context, sysID string) (Record, error) {
	var record Record
	if err := c.Do(ctx, http.MethodGet, attachmentAPIPath+"/"+sysID, nil, nil, &record); err != nil {
		return nil, err
	}
	return record, nil
}

// DownloadAttachment returns the raw file bytes for an attachment.
func (c *Client) DownloadAttachment(ctx context.Context, sysID string) ([]byte, error) {
	return c.doRaw(ctx, http.MethodGet, attachmentAPIPath+"/"+sysID+"/file", nil, "", nil)
}

// UploadAttachment stores data as a file attached to one record and
// returns the created attachment metadata.
func (c *Client) UploadAttachment(ctx context.Context, tableName, tableSysID, fileName, contentType string, data []byte) (Record, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	query := url.Values{}
	query.Set("table_name", tableName)
	query.Set("table_sys_id", tableSysID)
	query.Set("file_name", fileName)

	body, err := c.doRaw(ctx, http.MethodPost, attachmentAPIPath+"/file", query, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Result Record `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &RequestError{Message: "decode upload response", Err: err}
	}
	return envelope.Result, nil
}

// DeleteAttachment removes an attachment.
func (c *Client) DeleteAttachment(ctx context.Context, sysID string) error {
	return c.Do(ctx, http.MethodDelete, attachmentAPIPath+"/"+sysID, nil, nil, nil)
}

// FieldString returns the named field as a string, unwrapping the
// {value, display_value} shape the instance emits for reference fields.
func FieldString(r Record, name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if inner, ok := t["value"].(string); ok {
			return inner
		}
		if inner, ok := t["display_value"].(string); ok {
			return inner
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// IsNotFound reports whether err is an instance 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
