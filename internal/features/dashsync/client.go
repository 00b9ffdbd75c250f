package dashsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Per-call timeouts. Metadata calls are short; raw byte transfer and the
// inline create (which may carry multiple megabytes) get longer budgets.
const (
	metadataTimeout = 10 * time.Second
	createTimeout   = 15 * time.Second
	batchTimeout    = 20 * time.Second
	inlineTimeout   = 30 * time.Second
	transferTimeout = 60 * time.Second
)

// ErrNoTechnicianID means the create response carried none of the known id
// shapes.
var ErrNoTechnicianID = errors.New("no technician id in response")

// Response is the structured result of every dashboard call. JSON is set
// when the body parsed; RawText is the fallback so callers never crash on
// an unexpected response shape.
type Response struct {
	StatusCode int             `json:"status_code"`
	JSON       json.RawMessage `json:"response,omitempty"`
	RawText    string          `json:"raw_text,omitempty"`
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Body returns the parsed JSON when present, else the raw text wrapped as a
// JSON string-compatible echo.
func (r *Response) Body() json.RawMessage {
	if r.JSON != nil {
		return r.JSON
	}
	echo, _ := json.Marshal(map[string]string{"raw_text": r.RawText})
	return echo
}

// Client is a short-lived authenticated session against the external
// dashboard; create one per sync attempt.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a dashboard client from the injected config. The session
// cookie set by Login is carried for the remainder of the sync call.
func NewClient(cfg DashboardConfig, logger *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	return &Client{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		httpClient: &http.Client{Jar: jar},
		logger:     logger.With(zap.String("component", "dashboard_client")),
	}, nil
}

// normalizeBaseURL prefixes https:// when no scheme is present and trims
// any trailing slash.
func normalizeBaseURL(raw string) string {
	raw = strings.TrimRight(raw, "/")
	if raw != "" && !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	return raw
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// doJSON performs one JSON request with its own timeout and decodes the
// response body into a structured Response.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body interface{}, timeout time.Duration) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode}
	if json.Valid(raw) {
		out.JSON = json.RawMessage(raw)
	} else {
		out.RawText = string(raw)
	}
	return out, nil
}

// Login exchanges credentials for a session cookie. A failed login fails
// the whole sync attempt; bad credentials will not become good by retrying.
func (c *Client) Login(ctx context.Context, username, password string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/login", map[string]string{
		"username": username,
		"password": password,
	}, metadataTimeout)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}

	if !resp.OK() {
		body := resp.RawText
		if body == "" {
			body = string(resp.JSON)
		}
		return fmt.Errorf("login failed with status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return nil
}

// FindTechnicians queries the dashboard by techId; empty techID lists all.
func (c *Client) FindTechnicians(ctx context.Context, techID string) (*Response, error) {
	reqURL := c.baseURL + "/api/technicians"
	if techID != "" {
		reqURL += "?techId=" + url.QueryEscape(techID)
	}
	return c.doJSON(ctx, http.MethodGet, reqURL, nil, metadataTimeout)
}

// TechnicianExists is the best-effort idempotency guard before a create.
// It is not a lock: two simultaneous approvals can still race. A dashboard
// that exposes a conditional create would close that hole; this one does not.
func (c *Client) TechnicianExists(ctx context.Context, techID string) (bool, string, error) {
	resp, err := c.FindTechnicians(ctx, techID)
	if err != nil {
		return false, "", err
	}
	if !resp.OK() || resp.JSON == nil {
		return false, "", nil
	}

	var existing []map[string]interface{}
	if err := json.Unmarshal(resp.JSON, &existing); err != nil {
		return false, "", nil
	}
	if len(existing) == 0 {
		return false, "", nil
	}

	id := stringifyID(existing[0]["id"])
	return true, id, nil
}

// CreateTechnician posts the mapped enrollment payload.
func (c *Client) CreateTechnician(ctx context.Context, payload map[string]interface{}) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/technicians", payload, createTimeout)
}

// CreateExternalTechnician posts the full record with inline base64 photos.
func (c *Client) CreateExternalTechnician(ctx context.Context, payload map[string]interface{}) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/external/technicians", payload, inlineTimeout)
}

// UpdateTechnician PATCHes the technician record, falling back to PUT when
// the dashboard rejects PATCH.
func (c *Client) UpdateTechnician(ctx context.Context, dashTechID string, payload map[string]interface{}) (*Response, error) {
	reqURL := c.baseURL + "/api/technicians/" + url.PathEscape(dashTechID)

	resp, err := c.doJSON(ctx, http.MethodPatch, reqURL, payload, createTimeout)
	if err != nil {
		return nil, err
	}
	if resp.OK() {
		return resp, nil
	}
	return c.doJSON(ctx, http.MethodPut, reqURL, payload, createTimeout)
}

// RequestUploadURL asks the dashboard for a signed storage target.
func (c *Client) RequestUploadURL(ctx context.Context, category string) (string, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/objects/upload", map[string]string{
		"category": category,
	}, metadataTimeout)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", Terminal(fmt.Errorf("upload url request rejected with status %d", resp.StatusCode))
	}

	var body struct {
		UploadURL string `json:"uploadURL"`
	}
	if resp.JSON == nil || json.Unmarshal(resp.JSON, &body) != nil || body.UploadURL == "" {
		return "", Terminal(errors.New("no_upload_url"))
	}
	return body.UploadURL, nil
}

// PutObject ships raw bytes to the signed target with the derived MIME type.
// The target is external storage, so the session cookie is not needed.
func (c *Client) PutObject(ctx context.Context, uploadURL string, data []byte, mimeType string) error {
	ctx, cancel := context.WithTimeout(ctx, transferTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create PUT request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("PUT %s: %w", uploadURL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Terminal(fmt.Errorf("storage PUT rejected with status %d", resp.StatusCode))
	}
	return nil
}

// RegisterPhoto records one uploaded object against the technician.
func (c *Client) RegisterPhoto(ctx context.Context, dashTechID string, entry UploadEntry) (*Response, error) {
	reqURL := c.baseURL + "/api/technicians/" + url.PathEscape(dashTechID) + "/photos"
	return c.doJSON(ctx, http.MethodPost, reqURL, entry, metadataTimeout)
}

// RegisterPhotosBatch records every uploaded object in one call.
func (c *Client) RegisterPhotosBatch(ctx context.Context, dashTechID string, entries []UploadEntry) (*Response, error) {
	reqURL := c.baseURL + "/api/technicians/" + url.PathEscape(dashTechID) + "/photos/batch"
	return c.doJSON(ctx, http.MethodPost, reqURL, map[string]interface{}{
		"photos": entries,
	}, batchTimeout)
}

// idExtractors are the known response shapes for a created technician's id,
// tried in order; first match wins.
var idExtractors = []func(map[string]interface{}) interface{}{
	func(m map[string]interface{}) interface{} {
		if tech, ok := m["technician"].(map[string]interface{}); ok {
			return tech["id"]
		}
		return nil
	},
	func(m map[string]interface{}) interface{} {
		if tech, ok := m["technician"].(map[string]interface{}); ok {
			return tech["techId"]
		}
		return nil
	},
	func(m map[string]interface{}) interface{} { return m["id"] },
	func(m map[string]interface{}) interface{} { return m["technicianId"] },
}

// ExtractTechnicianID probes the create response for the new record's id.
func ExtractTechnicianID(raw json.RawMessage) (string, error) {
	if raw == nil {
		return "", ErrNoTechnicianID
	}

	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", ErrNoTechnicianID
	}

	for _, extract := range idExtractors {
		if id := stringifyID(extract(body)); id != "" {
			return id, nil
		}
	}
	return "", ErrNoTechnicianID
}

func stringifyID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%.0f", id)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}
