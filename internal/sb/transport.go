package sb

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// pacedTransport spaces requests a fixed interval apart to respect the
// management API's rate limit. The first request passes immediately; every
// later one waits for the interval. There are no retries here: a failed page
// is the caller's to re-run, and download progress is checkpointed after
// every page so nothing is lost.
type pacedTransport struct {
	base    http.RoundTripper
	lim     *rate.Limiter
	metrics *Metrics
}

func newPacedTransport(delay time.Duration, metrics *Metrics) *pacedTransport {
	lim := rate.NewLimiter(rate.Inf, 1)
	if delay > 0 {
		lim = rate.NewLimiter(rate.Every(delay), 1)
	}
	return &pacedTransport{base: http.DefaultTransport, lim: lim, metrics: metrics}
}

func (t *pacedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.lim.Wait(req.Context()); err != nil {
		return nil, err
	}
	if t.metrics != nil {
		t.metrics.IncRequest(req.URL.Host, req.Method)
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if t.metrics != nil {
		t.metrics.IncStatus(resp.StatusCode)
	}
	return resp, nil
}
