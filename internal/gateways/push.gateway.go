package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shamcart/grocer-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

var ErrNoAvailableEndpoints = errors.New("no available push endpoints")

// PushRequest is what we hand to the notification service. The service owns
// device-token resolution; we only address users.
type PushRequest struct {
	UserID  int64  `json:"user_id"`
	OrderID int64  `json:"order_id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

type PushResponse struct {
	Accepted    bool      `json:"accepted"`
	DeviceCount int       `json:"device_count"`
	AcceptedAt  time.Time `json:"accepted_at"`
}

type EndpointMetrics struct {
	TotalRequests    atomic.Int64
	SuccessfulReqs   atomic.Int64
	FailedReqs       atomic.Int64
	ConsecutiveFails atomic.Int32
	LastErrorTime    atomic.Int64
	LastSuccessTime  atomic.Int64
}

func (m *EndpointMetrics) RecordSuccess() {
	m.TotalRequests.Add(1)
	m.SuccessfulReqs.Add(1)
	m.ConsecutiveFails.Store(0)
	m.LastSuccessTime.Store(time.Now().Unix())
}

func (m *EndpointMetrics) RecordFailure() {
	m.TotalRequests.Add(1)
	m.FailedReqs.Add(1)
	m.ConsecutiveFails.Add(1)
	m.LastErrorTime.Store(time.Now().Unix())
}

type Endpoint struct {
	name           string
	url            string
	client         *fasthttp.Client
	metrics        *EndpointMetrics
	suspendedUntil atomic.Int64
}

func NewEndpoint(name, url string, client *fasthttp.Client) *Endpoint {
	return &Endpoint{
		name:    name,
		url:     url,
		client:  client,
		metrics: &EndpointMetrics{},
	}
}

// IsAvailable reports whether the endpoint may receive traffic. A suspended
// endpoint comes back automatically once its cooldown elapses.
func (e *Endpoint) IsAvailable() bool {
	until := e.suspendedUntil.Load()
	if until == 0 {
		return true
	}
	if time.Now().Unix() > until {
		e.suspendedUntil.Store(0)
		e.metrics.ConsecutiveFails.Store(0)
		return true
	}
	return false
}

type Config struct {
	PrimaryURL       string
	SecondaryURL     string
	Timeout          time.Duration
	MaxConns         int
	FailureThreshold int
	Cooldown         time.Duration
}

func DefaultConfig(primaryURL, secondaryURL string) *Config {
	return &Config{
		PrimaryURL:       primaryURL,
		SecondaryURL:     secondaryURL,
		Timeout:          3 * time.Second,
		MaxConns:         64,
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
	}
}

// Client delivers push notifications through a primary endpoint with a
// secondary fallback. Ordering is fixed: the secondary only serves while the
// primary is suspended.
type Client struct {
	config    *Config
	endpoints []*Endpoint
	mu        sync.RWMutex
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.PrimaryURL == "" {
		return nil, errors.New("primary push endpoint is required")
	}

	httpClient := &fasthttp.Client{
		MaxConnsPerHost:     config.MaxConns,
		ReadTimeout:         config.Timeout,
		WriteTimeout:        config.Timeout,
		MaxIdleConnDuration: 60 * time.Second,
	}

	c := &Client{config: config}
	c.endpoints = append(c.endpoints, NewEndpoint("primary", config.PrimaryURL, httpClient))
	if config.SecondaryURL != "" {
		c.endpoints = append(c.endpoints, NewEndpoint("secondary", config.SecondaryURL, httpClient))
	}

	logger.Info("push client initialized", "endpoints", len(c.endpoints), "timeout", config.Timeout)
	return c, nil
}

// SelectEndpoint returns the first available endpoint in priority order.
func (c *Client) SelectEndpoint() (*Endpoint, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, e := range c.endpoints {
		if e.IsAvailable() {
			return e, nil
		}
	}
	return nil, ErrNoAvailableEndpoints
}

// Notify sends one push notification. Each available endpoint gets one shot;
// a failing endpoint is suspended once its consecutive failures hit the threshold.
func (c *Client) Notify(ctx context.Context, req *PushRequest) (*PushResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal push request: %w", err)
	}

	var lastErr error
	for range c.endpoints {
		endpoint, err := c.SelectEndpoint()
		if err != nil {
			lastErr = err
			break
		}

		raw, err := c.doRequest(ctx, endpoint, body)
		if err != nil {
			endpoint.metrics.RecordFailure()
			c.checkSuspension(endpoint)
			logger.Warn("push delivery failed", "endpoint", endpoint.name, "user_id", req.UserID, "error", err)
			lastErr = err
			continue
		}

		endpoint.metrics.RecordSuccess()

		var resp PushResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal push response: %w", err)
		}

		logger.Info("push delivered", "endpoint", endpoint.name, "user_id", req.UserID, "order_id", req.OrderID, "devices", resp.DeviceCount)
		return &resp, nil
	}

	return nil, fmt.Errorf("push delivery exhausted all endpoints: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, endpoint *Endpoint, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(endpoint.url + "/api/v1/notifications/push")
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := endpoint.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())
	return result, nil
}

func (c *Client) checkSuspension(endpoint *Endpoint) {
	fails := endpoint.metrics.ConsecutiveFails.Load()
	if fails >= int32(c.config.FailureThreshold) {
		until := time.Now().Add(c.config.Cooldown).Unix()
		endpoint.suspendedUntil.Store(until)
		logger.Warn("push endpoint suspended", "endpoint", endpoint.name, "consecutive_fails", fails, "cooldown", c.config.Cooldown)
	}
}

type EndpointStats struct {
	Name             string
	URL              string
	Available        bool
	TotalRequests    int64
	SuccessfulReqs   int64
	FailedReqs       int64
	ConsecutiveFails int32
}

func (c *Client) GetEndpointStats() []EndpointStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := make([]EndpointStats, 0, len(c.endpoints))
	for _, e := range c.endpoints {
		stats = append(stats, EndpointStats{
			Name:             e.name,
			URL:              e.url,
			Available:        e.IsAvailable(),
			TotalRequests:    e.metrics.TotalRequests.Load(),
			SuccessfulReqs:   e.metrics.SuccessfulReqs.Load(),
			FailedReqs:       e.metrics.FailedReqs.Load(),
			ConsecutiveFails: e.metrics.ConsecutiveFails.Load(),
		})
	}
	return stats
}
