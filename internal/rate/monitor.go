package rate

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Observation is the last vendor response a Monitor saw.
type Observation struct {
	Status     int
	Throttled  bool
	RetryAfter time.Duration
	At         time.Time
}

// Monitor records vendor status codes and throttle signals. It never
// blocks, delays or retries a request.
type Monitor struct {
	decl Declaration
	now  func() time.Time

	mu   sync.Mutex
	last Observation
}

func NewMonitor(decl Declaration) *Monitor {
	return &Monitor{decl: decl, now: time.Now}
}

// WrapHTTP returns a copy of base whose transport reports to a new monitor.
func WrapHTTP(decl Declaration, base *http.Client) *http.Client {
	return NewMonitor(decl).WrapHTTP(base)
}

func (m *Monitor) WrapHTTP(base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	client := *base
	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	client.Transport = &roundTripper{base: transport, monitor: m}
	return &client
}

type roundTripper struct {
	base    http.RoundTripper
	monitor *Monitor
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := rt.base.RoundTrip(req)
	if err != nil {
		requestsCounter.WithLabelValues(rt.monitor.decl.ProviderName(), "error").Inc()
		return resp, err
	}
	rt.monitor.RecordResponse(resp.StatusCode, resp.Header)
	return resp, nil
}

// RecordResponse stores the status and counts 429/503 responses.
func (m *Monitor) RecordResponse(status int, headers http.Header) {
	provider := m.decl.ProviderName()
	obs := Observation{Status: status, Throttled: Throttled(status), At: m.now()}
	if seconds, err := strconv.Atoi(headers.Get("Retry-After")); err == nil && seconds > 0 {
		obs.RetryAfter = time.Duration(seconds) * time.Second
	}

	m.mu.Lock()
	m.last = obs
	m.mu.Unlock()

	lastStatusGauge.WithLabelValues(provider).Set(float64(status))
	if !obs.Throttled {
		requestsCounter.WithLabelValues(provider, "ok").Inc()
		return
	}
	requestsCounter.WithLabelValues(provider, "throttled").Inc()
	throttledCounter.WithLabelValues(provider, strconv.Itoa(status)).Inc()
	retryAfterGauge.WithLabelValues(provider).Set(obs.RetryAfter.Seconds())
	log.Warn().Str("provider", provider).Int("status", status).Dur("retry_after", obs.RetryAfter).Msg("vendor throttled request")
}

// Last returns the most recent observation.
func (m *Monitor) Last() Observation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
