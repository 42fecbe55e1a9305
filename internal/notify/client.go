// Package notify talks to the analyzer web service after a local write.
// The service is a separate system; every call here is best-effort and the
// local file mutation is never rolled back on its account.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/opforge/ies4ctl/internal/model"
	"github.com/opforge/ies4ctl/internal/worker"
)

// Client is a typed client for the analyzer's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *worker.Limiter
	log     *zap.SugaredLogger
	cfg     model.ServiceConfig
}

// NewClient creates a client for the service described by cfg.
func NewClient(cfg model.ServiceConfig, log *zap.SugaredLogger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		// Per-call deadlines come from contexts; no client-wide timeout.
		http:    &http.Client{},
		limiter: worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		log:     log,
		cfg:     cfg,
	}
}

// Databases probes the service by listing its known databases. This doubles
// as the reachability check at the head of every notification sequence.
func (c *Client) Databases(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	var out struct {
		Databases []string `json:"databases"`
	}
	if err := c.get(ctx, "/api/databases", nil, &out); err != nil {
		return nil, err
	}
	return out.Databases, nil
}

// LoadDatabase asks the service to (re)load a database from disk.
func (c *Client) LoadDatabase(ctx context.Context, databaseName string) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReloadTimeout)
	defer cancel()

	body := map[string]any{"database_name": databaseName}
	return c.post(ctx, "/api/load_database", body, nil)
}

// AnalyzeRequest mirrors the /api/analyze payload.
type AnalyzeRequest struct {
	DatabaseName string         `json:"database_name"`
	Layout       string         `json:"layout"`
	ShowLabels   bool           `json:"show_labels"`
	Filters      map[string]any `json:"filters"`
	ForceReload  bool           `json:"force_reload"`
}

// Analyze triggers a fresh analysis of a database.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.AnalyzeTimeout)
	defer cancel()

	if req.Layout == "" {
		req.Layout = "spring"
	}
	if req.Filters == nil {
		req.Filters = map[string]any{}
	}
	return c.post(ctx, "/api/analyze", req, nil)
}

// RefreshReport regenerates the comprehensive report.
func (c *Client) RefreshReport(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ReportTimeout)
	defer cancel()

	return c.get(ctx, "/api/comprehensive_report", url.Values{"force_reload": {"true"}}, nil)
}

// FilterSuggestions fetches the service's filter suggestions for a database.
func (c *Client) FilterSuggestions(ctx context.Context, databaseName string) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.SuggestTimeout)
	defer cancel()

	var out map[string]any
	if err := c.get(ctx, "/api/filter_suggestions", url.Values{"database": {databaseName}}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	if err := c.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debugw("service call",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"took", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}
