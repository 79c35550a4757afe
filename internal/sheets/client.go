package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/version"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 32 << 20

// Client talks to an Apps Script style web app over HTTP:
//
//	POST {"action":"append","sheetTab":...,"headers":[...],"row":[...]}
//	POST {"action":"upsert","sheetTab":...,"key":...,"headers":[...],"row":[...]}
//	POST {"action":"saveSettings","settings":{...}}
//	GET  ?action=read&tab=...        -> {"status":"ok","rows":[{...}]}
//	GET  ?action=readSettings        -> {"status":"ok","settings":{...}}
type Client struct {
	endpoint string
	secret   string
	http     *http.Client
}

// NewClient creates a client for endpoint. An empty endpoint is allowed;
// every call then fails with E_NOT_CONFIGURED.
func NewClient(endpoint, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		secret:   secret,
		http:     &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the configured URL.
func (c *Client) Endpoint() string { return c.endpoint }

type postPayload struct {
	Action   string          `json:"action"`
	SheetTab string          `json:"sheetTab,omitempty"`
	Key      string          `json:"key,omitempty"`
	Headers  []string        `json:"headers,omitempty"`
	Row      []string        `json:"row,omitempty"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

type response struct {
	Status   string           `json:"status"`
	Message  string           `json:"message,omitempty"`
	Rows     []map[string]any `json:"rows,omitempty"`
	Settings json.RawMessage  `json:"settings,omitempty"`
}

// Append adds a row to tab. The response body is not inspected: success
// means the request reached the backend and got a 2xx status.
func (c *Client) Append(ctx context.Context, tab string, headers, row []string) error {
	return c.post(ctx, postPayload{Action: "append", SheetTab: tab, Headers: headers, Row: row})
}

// Upsert replaces the row with the given key.
func (c *Client) Upsert(ctx context.Context, tab, key string, headers, row []string) error {
	return c.post(ctx, postPayload{Action: "upsert", SheetTab: tab, Key: key, Headers: headers, Row: row})
}

// SaveSettings stores the settings blob.
func (c *Client) SaveSettings(ctx context.Context, blob []byte) error {
	if !json.Valid(blob) {
		return errclass.ErrValidation.WithMessage("settings blob is not valid JSON")
	}
	return c.post(ctx, postPayload{Action: "saveSettings", Settings: blob})
}

// Read returns every row of tab.
func (c *Client) Read(ctx context.Context, tab string) ([]Row, error) {
	resp, err := c.get(ctx, url.Values{"action": {"read"}, "tab": {tab}})
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(resp.Rows))
	for _, raw := range resp.Rows {
		row := make(Row, len(raw))
		for k, v := range raw {
			if s, ok := cellString(v); ok {
				row[k] = s
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadSettings returns the stored settings blob, or nil.
func (c *Client) ReadSettings(ctx context.Context) ([]byte, error) {
	resp, err := c.get(ctx, url.Values{"action": {"readSettings"}})
	if err != nil {
		return nil, err
	}
	blob := bytes.TrimSpace(resp.Settings)
	if len(blob) == 0 || bytes.Equal(blob, []byte("null")) {
		return nil, nil
	}
	// Some deployments store the blob as a JSON string.
	if blob[0] == '"' {
		var s string
		if err := json.Unmarshal(blob, &s); err != nil {
			return nil, errclass.ErrParse.WithMessagef("settings: %v", err)
		}
		if s == "" {
			return nil, nil
		}
		blob = []byte(s)
	}
	if !json.Valid(blob) {
		return nil, errclass.ErrParse.WithMessage("settings blob is not valid JSON")
	}
	return blob, nil
}

func (c *Client) post(ctx context.Context, p postPayload) error {
	if c.endpoint == "" {
		return errclass.ErrNotConfigured.WithMessage("no remote endpoint configured")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return errclass.ErrNotConfigured.WithMessagef("endpoint %q: %v", c.endpoint, err)
	}
	// Apps Script rejects preflighted content types.
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")
	c.decorate(req, payload)

	resp, err := c.http.Do(req)
	if err != nil {
		return errclass.ErrTransport.WithMessagef("%s: %v", p.Action, err)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errclass.ErrRemote.WithMessagef("%s: http %d: %s", p.Action, resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

func (c *Client) get(ctx context.Context, q url.Values) (*response, error) {
	if c.endpoint == "" {
		return nil, errclass.ErrNotConfigured.WithMessage("no remote endpoint configured")
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, errclass.ErrNotConfigured.WithMessagef("endpoint %q: %v", c.endpoint, err)
	}
	query := q.Encode()
	u.RawQuery = query

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errclass.ErrNotConfigured.WithMessagef("endpoint %q: %v", c.endpoint, err)
	}
	c.decorate(req, []byte(query))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errclass.ErrTransport.WithMessagef("%s: %v", q.Get("action"), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errclass.ErrTransport.WithMessagef("%s: read body: %v", q.Get("action"), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errclass.ErrRemote.WithMessagef("%s: http %d", q.Get("action"), resp.StatusCode)
	}

	var out response
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, errclass.ErrParse.WithMessagef("%s: decode response: %v", q.Get("action"), err)
	}
	if out.Status != "ok" {
		return nil, errclass.ErrRemote.WithMessagef("%s: status %q: %s", q.Get("action"), out.Status, out.Message)
	}
	return &out, nil
}

func (c *Client) decorate(req *http.Request, payload []byte) {
	req.Header.Set("User-Agent", "SafeChecks/"+version.Version)
	if c.secret != "" {
		req.Header.Set(SignatureHeader, Sign(payload, c.secret))
	}
}
