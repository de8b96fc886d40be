package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/nhatphongdo/stock-agent-sub001/internal/cache"
	"github.com/nhatphongdo/stock-agent-sub001/internal/catalog"
	"github.com/nhatphongdo/stock-agent-sub001/internal/models"
)

var log = logrus.WithField("component", "client")

const catalogCacheKey = "catalog"

// APIError is a non-success HTTP response from the analysis backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// Options configure the backend client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the analysis backend: the chunked NDJSON analysis stream,
// the on-demand indicator fetch, and the indicator catalog.
type Client struct {
	http  *resty.Client
	cache *cache.Memory
}

// New creates a backend client.
func New(opts Options) *Client {
	c := &Client{
		http:  resty.New().SetHeader("Content-Type", "application/json"),
		cache: cache.NewMemory(),
	}
	c.Configure(opts)
	return c
}

// Configure re-applies connection options to the underlying HTTP client.
// The dashboard calls it before a new session when the config file changed
// on disk, so a reloaded base URL or API key takes effect without rebuilding
// the client.
func (c *Client) Configure(opts Options) {
	c.http.SetBaseURL(opts.BaseURL)
	if opts.Timeout > 0 {
		c.http.SetTimeout(opts.Timeout)
	}
	if opts.APIKey != "" {
		c.http.SetHeader("Authorization", "Bearer "+opts.APIKey)
	} else {
		c.http.Header.Del("Authorization")
	}
}

// AnalysisRequest starts one analysis run.
type AnalysisRequest struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
}

// StreamAnalysis opens the chunked analysis stream. The caller owns the
// returned body and must close it. A transport or non-success failure here
// is fatal to the session; no retry is attempted.
func (c *Client) StreamAnalysis(ctx context.Context, req AnalysisRequest) (io.ReadCloser, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/x-ndjson").
		SetBody(req).
		SetDoNotParseResponse(true).
		Post("/api/analysis/stream")
	if err != nil {
		return nil, fmt.Errorf("open analysis stream for %s: %w", req.Symbol, err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.RawBody(), 4096))
		resp.RawBody().Close()
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: string(body)}
	}
	return resp.RawBody(), nil
}

// IndicatorRequest parameterizes the on-demand indicator fetch.
type IndicatorRequest struct {
	Symbol    string   `json:"symbol"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Interval  string   `json:"interval"`
	Keys      []string `json:"indicators"`
}

type indicatorResponse struct {
	Indicators map[string]*models.IndicatorPayload `json:"indicators"`
}

// FetchIndicators fetches payloads for the requested keys. Absent keys come
// back as nil entries; callers treat payloads with an error marker as absent.
func (c *Client) FetchIndicators(ctx context.Context, req IndicatorRequest) (map[string]*models.IndicatorPayload, error) {
	var out indicatorResponse
	err := c.retry(ctx, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(req).
			Post("/api/indicators")
		if err != nil {
			return fmt.Errorf("fetch indicators for %s: %w", req.Symbol, err)
		}
		if resp.StatusCode() != 200 {
			apiErr := &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
			if resp.StatusCode() >= 400 && resp.StatusCode() < 500 {
				return backoff.Permanent(apiErr)
			}
			return apiErr
		}
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return backoff.Permanent(fmt.Errorf("parse indicator response: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.Indicators == nil {
		out.Indicators = map[string]*models.IndicatorPayload{}
	}
	return out.Indicators, nil
}

type catalogResponse struct {
	Indicators []catalog.Indicator `json:"indicators"`
}

// FetchCatalog fetches the indicator catalog, caching it for the session.
// When the endpoint is unreachable the built-in catalog is returned so the
// dropdown and tooltip composer keep working.
func (c *Client) FetchCatalog(ctx context.Context) *catalog.Catalog {
	if cached, ok := c.cache.Get(catalogCacheKey); ok {
		return cached.(*catalog.Catalog)
	}

	var out catalogResponse
	err := c.retry(ctx, func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			Get("/api/indicators/catalog")
		if err != nil {
			return fmt.Errorf("fetch indicator catalog: %w", err)
		}
		if resp.StatusCode() != 200 {
			apiErr := &APIError{StatusCode: resp.StatusCode(), Body: resp.String()}
			if resp.StatusCode() >= 400 && resp.StatusCode() < 500 {
				return backoff.Permanent(apiErr)
			}
			return apiErr
		}
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return backoff.Permanent(fmt.Errorf("parse catalog response: %w", err))
		}
		return nil
	})
	if err != nil || len(out.Indicators) == 0 {
		log.WithError(err).Warn("catalog fetch failed, using built-in catalog")
		fallback := catalog.Default()
		c.cache.Set(catalogCacheKey, fallback, 0)
		return fallback
	}

	cat := catalog.New(out.Indicators)
	c.cache.Set(catalogCacheKey, cat, 0)
	return cat
}

func (c *Client) retry(ctx context.Context, op backoff.Operation) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(newBackOff(), 3), ctx)
	return backoff.Retry(op, policy)
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 15 * time.Second
	return b
}
