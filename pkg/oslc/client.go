// Package oslc issues authorized OSLC calls against one tenant's Maximo
// instance and normalizes the response envelopes it gets back.
package oslc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/assetbridge/maxgw/pkg/metrics"
	"github.com/assetbridge/maxgw/pkg/tenant"
	"github.com/assetbridge/maxgw/pkg/types"
)

const snippetLimit = 800

// Record is one remote-system record as returned by OSLC.
type Record = map[string]any

// Deployments differ in which key carries the member list; these are probed
// in priority order and the first present list wins.
var memberKeys = []string{"member", "rdfs_member", "rdfs:member", "oslc:member"}

var countKeys = []string{"totalCount", "oslc:totalCount"}

// Client is bound to a single tenant for its lifetime.
type Client struct {
	tenant  tenant.Config
	http    *http.Client
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewClient builds a tenant-bound client. metrics may be nil.
func NewClient(t tenant.Config, log *slog.Logger, m *metrics.Metrics) *Client {
	return &Client{
		tenant:  t,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
		metrics: m,
	}
}

// SetHTTPClient overrides the underlying HTTP client (tests, custom TLS).
func (c *Client) SetHTTPClient(hc *http.Client) { c.http = hc }

// QueryArgs describes one paged OSLC read.
type QueryArgs struct {
	Where    string // optional; omitted from the request when empty
	Select   string
	OrderBy  string
	PageSize int
	Start    int // 0-based offset; OSLC start indexes are 1-based
}

// QueryResult is the normalized {items, count} shape.
type QueryResult struct {
	Items      []Record
	Count      int
	CountKnown bool
}

// Target addresses a record for an operation call.
type Target struct {
	ObjectStructure string `json:"objectStructure"`
	Key             string `json:"key"`
}

// Query issues a paged OSLC read against an object structure.
func (c *Client) Query(ctx context.Context, objectStructure string, args QueryArgs) (*QueryResult, error) {
	u := c.base("/oslc/os/" + url.PathEscape(objectStructure))
	q := url.Values{}
	if strings.TrimSpace(args.Where) != "" {
		q.Set("oslc.where", args.Where)
	}
	q.Set("oslc.select", args.Select)
	q.Set("oslc.pageSize", strconv.Itoa(args.PageSize))
	q.Set("oslc.paging", "true")
	q.Set("oslc.startIndex", strconv.Itoa(max(1, args.Start+1)))
	if args.OrderBy != "" {
		q.Set("oslc.orderBy", args.OrderBy)
	}

	status, contentType, body, err := c.do(ctx, http.MethodGet, u+"?"+q.Encode(), nil, "query")
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, types.E(types.CodeOSLCQueryFailed,
			fmt.Sprintf("OSLC query failed (%d)", status),
			map[string]string{
				"objectStructure": objectStructure,
				"contentType":     contentType,
				"bodySnippet":     snippet(body, snippetLimit),
			})
	}

	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, types.E(types.CodeOSLCQueryNonJSON,
			"OSLC query returned non-JSON response",
			map[string]string{
				"objectStructure": objectStructure,
				"contentType":     contentType,
				"bodySnippet":     snippet(body, 300),
			})
	}
	return normalize(envelope), nil
}

// GetOne fetches a single record by key. The zero-match case is reported
// through the bool, never as an error.
func (c *Client) GetOne(ctx context.Context, objectStructure, key string) (Record, bool, error) {
	out, err := c.Query(ctx, objectStructure, QueryArgs{
		Where:    key,
		Select:   "*",
		PageSize: 1,
		Start:    0,
	})
	if err != nil {
		return nil, false, err
	}
	if len(out.Items) == 0 {
		return nil, false, nil
	}
	return out.Items[0], true, nil
}

// ExecuteOperation performs a generic write. A key that is itself an
// absolute URL is PATCHed directly; otherwise the action URL is built from
// object structure, key and operation and POSTed.
func (c *Client) ExecuteOperation(ctx context.Context, operation string, target Target, payload map[string]any) (Record, error) {
	reqURL := c.base("/oslc/os/" + url.PathEscape(target.ObjectStructure) +
		"/" + url.PathEscape(target.Key) + "/action/" + url.PathEscape(operation))
	method := http.MethodPost
	if strings.HasPrefix(target.Key, "http://") || strings.HasPrefix(target.Key, "https://") {
		reqURL = target.Key
		method = http.MethodPatch
	}

	if payload == nil {
		payload = map[string]any{}
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("oslc operation marshal: %w", err)
	}

	status, _, body, err := c.do(ctx, method, reqURL, reqBody, "operation")
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, types.E(types.CodeOSLCOperationFailed,
			fmt.Sprintf("OSLC operation failed (%d)", status),
			map[string]any{"operation": operation, "target": target})
	}

	var result Record
	if err := json.Unmarshal(body, &result); err != nil {
		// A successful but non-JSON acknowledgment is not a failure.
		return Record{"ok": true, "raw": string(body)}, nil
	}
	return result, nil
}

// ListObjectStructuresFallback probes the service document at /oslc/os.
// Discovery is best-effort: every failure degrades to an empty list and the
// caller supplies a static fallback.
func (c *Client) ListObjectStructuresFallback(ctx context.Context) []string {
	status, _, body, err := c.do(ctx, http.MethodGet, c.base("/oslc/os"), nil, "discovery")
	if err != nil || !success(status) {
		return nil
	}

	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}

	members, _ := firstList(envelope, []string{"member", "oslc:member"})
	seen := make(map[string]bool)
	var names []string
	for _, m := range members {
		rec, ok := m.(map[string]any)
		if !ok {
			continue
		}
		name := firstString(rec, "title", "dcterms:title")
		if name == "" {
			href := firstString(rec, "href", "rdf:about")
			if idx := strings.Index(href, "/oslc/os/"); idx >= 0 {
				name = href[idx+len("/oslc/os/"):]
			}
		}
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ──────────────────────────────────────────────────────────────────────────────
// Internals
// ──────────────────────────────────────────────────────────────────────────────

// do issues one authorized request and returns status, content type and the
// full body. Auth failures surface before any network call to the tenant.
func (c *Client) do(ctx context.Context, method, reqURL string, body []byte, kind string) (int, string, []byte, error) {
	headers, err := c.authHeaders(ctx)
	if err != nil {
		return 0, "", nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return 0, "", nil, fmt.Errorf("oslc new request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		if c.metrics != nil {
			c.metrics.ObserveUpstream(kind, "error", start)
		}
		return 0, "", nil, fmt.Errorf("oslc %s %s: %w", method, reqURL, err)
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return 0, "", nil, fmt.Errorf("oslc read response: %w", err)
	}

	contentType := res.Header.Get("Content-Type")
	c.log.InfoContext(ctx, "upstream call",
		"tenant_id", c.tenant.TenantID,
		"method", method,
		"url", reqURL,
		"status", res.StatusCode,
		"content_type", contentType,
	)
	if c.metrics != nil {
		c.metrics.ObserveUpstream(kind, statusClass(res.StatusCode), start)
	}
	return res.StatusCode, contentType, respBody, nil
}

func (c *Client) base(p string) string {
	return strings.TrimRight(c.tenant.BaseURL, "/") + p
}

// normalize probes the candidate member keys in priority order; absence of
// all of them yields an empty item list, not an error.
func normalize(envelope map[string]any) *QueryResult {
	out := &QueryResult{Items: []Record{}}

	members, _ := firstList(envelope, memberKeys)
	for _, m := range members {
		if rec, ok := m.(map[string]any); ok {
			out.Items = append(out.Items, rec)
		}
	}

	for _, k := range countKeys {
		if v, ok := envelope[k]; ok {
			if n, ok := asInt(v); ok {
				out.Count = n
				out.CountKnown = true
				break
			}
		}
	}
	return out
}

func firstList(envelope map[string]any, keys []string) ([]any, bool) {
	for _, k := range keys {
		if v, ok := envelope[k]; ok {
			if list, ok := v.([]any); ok {
				return list, true
			}
		}
	}
	return nil, false
}

func firstString(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := rec[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}

func success(status int) bool {
	return status >= 200 && status < 300
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// snippet bounds a response body for diagnostics, backing up to a rune
// boundary so a multi-byte character is never cut in half.
func snippet(body []byte, limit int) string {
	s := string(body)
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
