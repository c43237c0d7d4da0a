package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const (
	maxConcurrentProbes = 16
	probeTimeout        = 5 * time.Second
)

// Pool hands out outbound HTTP proxies in round-robin order
type Pool interface {
	// Next returns the next proxy URL, or "" when the pool is empty
	Next() string
	Len() int
}

type pool struct {
	mu      sync.Mutex
	proxies []string
	current int
}

// NewPool probes every proxy against probeURL in parallel and keeps the ones that answer,
// in their configured order
func NewPool(ctx context.Context, proxies []string, probeURL string) (Pool, error) {
	if len(proxies) == 0 {
		return &pool{}, nil
	}

	log.Infof("🔄 Probing %d proxies...", len(proxies))

	reachable := make([]bool, len(proxies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentProbes)

	for i, proxyURL := range proxies {
		g.Go(func() error {
			reachable[i] = probe(gctx, proxyURL, probeURL)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	valid := make([]string, 0, len(proxies))
	for i, ok := range reachable {
		if ok {
			valid = append(valid, proxies[i])
		}
	}

	log.Infof("✅ Proxy pool ready with %d of %d proxies", len(valid), len(proxies))
	return &pool{proxies: valid}, nil
}

func (p *pool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxyURL := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)
	return proxyURL
}

func (p *pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

func probe(ctx context.Context, proxyURL, probeURL string) bool {
	client := resty.New().
		SetTimeout(probeTimeout).
		SetRetryCount(0).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		Get(probeURL)
	if err != nil {
		log.Infof("❌ Proxy %s is not working: %v", proxyURL, err)
		return false
	}
	if resp.IsError() {
		log.Infof("❌ Proxy %s answered %s", proxyURL, resp.Status())
		return false
	}

	log.Debugf("✅ Proxy %s is working", proxyURL)
	return true
}
