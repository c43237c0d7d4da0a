package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"pokedex/catalog/internal/config"
	"pokedex/catalog/internal/domain"
	"pokedex/catalog/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// PokeAPIClient is the remote side of the catalog: listing pages and entity details
type PokeAPIClient interface {
	GetListPage(ctx context.Context, url string) (*domain.ListPage, error)
	GetDetail(ctx context.Context, id string) (*domain.DetailRecord, error)
}

type pokeAPIClient struct {
	rl         ratelimit.Limiter
	baseURL    string
	httpClient *resty.Client
	proxies    proxy.Pool

	// Circuit breaker for 429 responses
	circuitBreakerMutex sync.RWMutex
	throttledUntil      time.Time
	circuitBreakerDelay time.Duration
}

// NewPokeAPIClient builds the remote client. proxies may be nil; otherwise requests go through
// its proxies, switching to the next one when the API throttles.
func NewPokeAPIClient(cfg config.APIConfig, proxies proxy.Pool) PokeAPIClient {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "application/json")

	if proxies != nil {
		if proxyURL := proxies.Next(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &pokeAPIClient{
		rl:                  rl,
		baseURL:             strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient:          client,
		proxies:             proxies,
		circuitBreakerDelay: cfg.CircuitBreakerCooldown,
	}
}

// GetListPage fetches a listing page. The url is the opaque fetch key: the root listing URL or
// a "next" link from a previous page.
func (c *pokeAPIClient) GetListPage(ctx context.Context, url string) (*domain.ListPage, error) {
	body, err := c.fetchJSON(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed fetching from %s: %w", url, err)
	}

	var page domain.ListPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode list page %s: %w: %v", url, domain.ErrDecode, err)
	}

	log.Debugf("Fetched list page %s with %d items", url, len(page.Results))
	return &page, nil
}

func (c *pokeAPIClient) GetDetail(ctx context.Context, id string) (*domain.DetailRecord, error) {
	url := fmt.Sprintf("%s/pokemon/%s", c.baseURL, id)

	body, err := c.fetchJSON(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch details for %s: %w", id, err)
	}

	var record domain.DetailRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("failed to decode details for %s: %w: %v", id, domain.ErrDecode, err)
	}

	log.Debugf("Fetched details for %s (%s)", id, record.Name)
	return &record, nil
}

func (c *pokeAPIClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := time.Now()
	wasOpen := now.Before(c.throttledUntil)
	wasTriggered := !c.throttledUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !wasOpen && wasTriggered {
		c.circuitBreakerMutex.Lock()
		if !c.throttledUntil.IsZero() && now.After(c.throttledUntil) {
			c.throttledUntil = time.Time{}
			log.Infof("✅ Circuit breaker closed - requests are allowed again")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return wasOpen
}

func (c *pokeAPIClient) triggerCircuitBreaker() {
	if c.circuitBreakerDelay <= 0 {
		return
	}

	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.throttledUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Circuit breaker activated! Requests disabled until %v",
		c.throttledUntil.Format("15:04:05"))
}

func (c *pokeAPIClient) remainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := time.Until(c.throttledUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *pokeAPIClient) fetchJSON(ctx context.Context, url string) ([]byte, error) {
	if c.isCircuitBreakerOpen() {
		remaining := c.remainingCircuitBreakerTime()
		log.Debugf("🚫 Request blocked by circuit breaker. Remaining time: %v", remaining.Round(time.Second))
		return nil, fmt.Errorf("%w: circuit breaker is open for %v more", domain.ErrNetwork, remaining.Round(time.Second))
	}

	c.rl.Take()

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		log.Warnf("🚫 Rate limit exceeded for URL: %s", url)
		retried, err := c.retryWithNextProxy(ctx, url)
		if err != nil {
			return nil, err
		}
		if retried != nil {
			resp = retried
		}
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode() == http.StatusTooManyRequests:
		c.triggerCircuitBreaker()
		return nil, fmt.Errorf("%w: HTTP error: %s", domain.ErrNetwork, resp.Status())
	case resp.IsError():
		return nil, fmt.Errorf("%w: HTTP error: %s", domain.ErrNetwork, resp.Status())
	}

	return []byte(resp.String()), nil
}

func (c *pokeAPIClient) get(ctx context.Context, url string) (*resty.Response, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: request cancelled: %v", domain.ErrNetwork, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	return resp, nil
}

// retryWithNextProxy repeats a throttled request once through another proxy. It returns nil
// when there is no other proxy to switch to.
func (c *pokeAPIClient) retryWithNextProxy(ctx context.Context, url string) (*resty.Response, error) {
	if c.proxies == nil || c.proxies.Len() < 2 {
		return nil, nil
	}

	next := c.proxies.Next()
	log.Infof("🔄 Switching to proxy %s", next)
	c.httpClient.SetProxy(next)

	resp, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusTooManyRequests {
		log.Infof("✅ Retry successful with new proxy")
	}
	return resp, nil
}
