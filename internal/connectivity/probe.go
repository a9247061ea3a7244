package connectivity

import (
	"context"
	"net/http"
	"time"

	"github.com/manav03panchal/driverhelper/internal/logging"
)

// DefaultProbeInterval is used when none is configured.
const DefaultProbeInterval = 15 * time.Second

// ProbeSource checks a URL. Any HTTP response counts as online.
type ProbeSource struct {
	url      string
	interval time.Duration
	client   *http.Client
}

// NewProbeSource creates a probe against url.
func NewProbeSource(url string, interval, timeout time.Duration) *ProbeSource {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	if timeout <= 0 || timeout > interval {
		timeout = interval
	}
	return &ProbeSource{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: timeout},
	}
}

// Online implements Source.
func (p *ProbeSource) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		logging.DebugLog("probe failed", "url", logging.MaskURL(p.url), logging.KeyError, err)
		return false
	}
	resp.Body.Close()
	return true
}

// Watch implements Source.
func (p *ProbeSource) Watch(ctx context.Context, fn func(online bool)) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	last := p.Online(ctx)
	fn(last)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := p.Online(ctx)
			if now != last {
				last = now
				fn(now)
			}
		}
	}
}
