// Package quota fetches usage snapshots from the Z.ai monitor API and tracks
// the refresh state shared by the rest of the application.
package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/j-veylop/zai-usage-tui/internal/config"
	"github.com/j-veylop/zai-usage-tui/internal/logger"
	"github.com/j-veylop/zai-usage-tui/internal/models"
)

const (
	zaiDomain      = "https://api.z.ai"
	bigModelDomain = "https://open.bigmodel.cn"

	modelUsagePath = "/api/monitor/usage/model-usage"
	toolUsagePath  = "/api/monitor/usage/tool-usage"
	quotaLimitPath = "/api/monitor/usage/quota/limit"

	windowLayout = "2006-01-02 15:04:05"

	maxBodyBytes   = 1 << 20
	defaultTimeout = 30 * time.Second
)

var (
	// ErrUnauthorized matches provider responses with status 401 or 403.
	ErrUnauthorized = errors.New("quota: unauthorized")
	// ErrUnrecognizedBaseURL is returned when the base URL maps to no known API domain.
	ErrUnrecognizedBaseURL = errors.New("unrecognized base URL")
)

// APIError is a non-200 response from the monitor API. Its text keeps the
// "HTTP <status>: <body>" shape so message-based classification still works.
type APIError struct {
	Endpoint   string
	Status     string
	Body       string
	StatusCode int
}

func (e *APIError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("HTTP %s: %s", strings.TrimSpace(status), e.Body)
}

// Is lets errors.Is(err, ErrUnauthorized) match credential failures.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// Client talks to the monitor endpoints.
type Client struct {
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a client. A nil httpClient gets a default with a 30s timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{httpClient: httpClient, now: time.Now}
}

// BaseDomain maps a configured base URL onto the API host serving the monitor endpoints.
func BaseDomain(baseURL string) (string, error) {
	switch {
	case strings.Contains(baseURL, "api.z.ai"):
		return zaiDomain, nil
	case strings.Contains(baseURL, "open.bigmodel.cn"), strings.Contains(baseURL, "dev.bigmodel.cn"):
		return bigModelDomain, nil
	default:
		return "", ErrUnrecognizedBaseURL
	}
}

// timeWindow spans yesterday at the current hour (HH:00:00) to today at HH:59:59, local time.
func timeWindow(now time.Time) (start, end string) {
	s := time.Date(now.Year(), now.Month(), now.Day()-1, now.Hour(), 0, 0, 0, now.Location())
	e := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), 59, 59, 0, now.Location())
	return s.Format(windowLayout), e.Format(windowLayout)
}

// FetchSnapshot retrieves model usage, tool usage and quota limits in parallel.
// Any failing endpoint fails the whole snapshot.
func (c *Client) FetchSnapshot(ctx context.Context, cfg config.Config) (*models.Snapshot, error) {
	domain, err := BaseDomain(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	start, end := timeWindow(c.now())
	window := url.Values{}
	window.Set("startTime", start)
	window.Set("endTime", end)

	var (
		modelData modelUsageData
		toolData  toolUsageData
		quotaData quotaLimitData
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(gctx, cfg.AuthToken, domain+modelUsagePath, window, &modelData)
	})
	g.Go(func() error {
		return c.get(gctx, cfg.AuthToken, domain+toolUsagePath, window, &toolData)
	})
	g.Go(func() error {
		return c.get(gctx, cfg.AuthToken, domain+quotaLimitPath, nil, &quotaData)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch usage data: %w", err)
	}

	return &models.Snapshot{
		ModelUsage:           modelData.items(),
		ModelUsageTimeSeries: modelData.timeSeries(),
		ToolUsage:            toolData.items(),
		QuotaLimits:          quotaData.limits(),
		Timestamp:            c.now().Unix(),
	}, nil
}

// get performs one GET and decodes the envelope's data field into out.
func (c *Client) get(ctx context.Context, token, endpoint string, query url.Values, out any) error {
	u := endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Accept-Language", "en-US,en")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	logger.Debug("Usage API response", "endpoint", endpoint, "bytes", len(body))

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	if env.Success != nil && !*env.Success {
		if env.Code == http.StatusUnauthorized || env.Code == http.StatusForbidden {
			return &APIError{Endpoint: endpoint, StatusCode: env.Code, Body: env.Msg}
		}
		return fmt.Errorf("api error %d: %s", env.Code, env.Msg)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("parse error: response has no data")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	return nil
}
