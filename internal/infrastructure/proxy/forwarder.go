package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/genosentinel/auth-gateway/internal/api/metrics"
	"github.com/genosentinel/auth-gateway/internal/core/domain"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultMaxInFlight    = 64
)

// Options controls per-backend timeouts and resource bounds.
type Options struct {
	// ConnectTimeout bounds dialing the backend. Defaults to 10s.
	ConnectTimeout time.Duration
	// ReadTimeout bounds waiting for and reading the response. Defaults to 10s.
	ReadTimeout time.Duration
	// MaxInFlight bounds concurrent outbound calls per backend. Defaults to 64.
	MaxInFlight int64
}

func (o Options) withDefaults() Options {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = defaultConnectTimeout
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = defaultReadTimeout
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = defaultMaxInFlight
	}
	return o
}

// backend owns the client and in-flight bound for one downstream service.
// Each backend gets its own transport and semaphore so that a slow or
// unavailable backend cannot starve requests to the others.
type backend struct {
	name   string
	base   string
	client *http.Client
	sem    *semaphore.Weighted
}

// Forwarder is the forwarding engine: it builds and executes outbound HTTP
// requests against registered backends and relays the downstream status,
// headers and body unmodified.
type Forwarder struct {
	backends map[string]*backend
	log      zerolog.Logger
}

// NewForwarder constructs one explicitly configured HTTP client per backend,
// with pool limits and timeouts fixed at construction.
func NewForwarder(registry *Registry, opts Options, log zerolog.Logger) *Forwarder {
	opts = opts.withDefaults()

	f := &Forwarder{backends: make(map[string]*backend), log: log}
	for _, name := range registry.Names() {
		base, _ := registry.Resolve(name)

		transport := &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: opts.ConnectTimeout,
			}).DialContext,
			ResponseHeaderTimeout: opts.ReadTimeout,
			MaxIdleConns:          int(opts.MaxInFlight),
			MaxIdleConnsPerHost:   int(opts.MaxInFlight),
			MaxConnsPerHost:       int(opts.MaxInFlight),
		}

		f.backends[name] = &backend{
			name: name,
			base: base.String(),
			client: &http.Client{
				Transport: transport,
				// Hard cap covering dial plus response read; a request may
				// legitimately take up to connect + read.
				Timeout: opts.ConnectTimeout + opts.ReadTimeout,
			},
			sem: semaphore.NewWeighted(opts.MaxInFlight),
		}
	}
	return f
}

// Forward executes one outbound exchange. The downstream status is passed
// through transparently, 4xx/5xx included; transport failures are classified
// as timeout or unavailable. Exactly one attempt is made.
func (f *Forwarder) Forward(ctx context.Context, req domain.ForwardRequest) (*domain.ForwardResponse, error) {
	b, ok := f.backends[req.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBackend, req.Backend)
	}

	body, forceJSON := f.encodeBody(req.Body)

	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownstreamUnavailable, err)
	}
	defer b.sem.Release(1)

	outURL := b.base + req.Path
	out, err := http.NewRequestWithContext(ctx, req.Method, outURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDownstreamUnavailable, err)
	}

	for key, values := range req.Headers {
		for _, v := range values {
			out.Header.Add(key, v)
		}
	}
	if forceJSON {
		out.Header.Set("Content-Type", "application/json")
	}

	f.log.Debug().
		Str("backend", b.name).
		Str("method", req.Method).
		Str("url", outURL).
		Msg("forwarding request")

	start := time.Now()
	resp, err := b.client.Do(out)
	if err != nil {
		return nil, f.classify(b.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, f.classify(b.name, err)
	}

	metrics.UpstreamDuration.WithLabelValues(b.name).Observe(time.Since(start).Seconds())
	metrics.RequestsForwardedTotal.WithLabelValues(b.name, req.Method, fmt.Sprint(resp.StatusCode)).Inc()

	return &domain.ForwardResponse{
		Status:  resp.StatusCode,
		Headers: resp.Header.Clone(),
		Body:    respBody,
	}, nil
}

// encodeBody prepares the outbound payload. Pre-serialized bodies ([]byte or
// string) pass through untouched; anything else is serialized to JSON and the
// outbound Content-Type is forced to application/json. A serialization
// failure degrades to a best-effort string rendering instead of aborting the
// request.
func (f *Forwarder) encodeBody(body any) ([]byte, bool) {
	switch v := body.(type) {
	case nil:
		return nil, false
	case []byte:
		return v, false
	case string:
		return []byte(v), false
	default:
		data, err := json.Marshal(v)
		if err != nil {
			f.log.Warn().Err(err).Msg("body serialization failed, sending string rendering")
			return []byte(fmt.Sprint(v)), true
		}
		return data, true
	}
}

// classify maps a transport-level failure onto the gateway error taxonomy.
func (f *Forwarder) classify(backendName string, err error) error {
	metrics.UpstreamErrorsTotal.WithLabelValues(backendName, errorReason(err)).Inc()

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", domain.ErrDownstreamTimeout, backendName, err)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrDownstreamUnavailable, backendName, err)
}

func errorReason(err error) string {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "timeout"
	}
	return "unavailable"
}
