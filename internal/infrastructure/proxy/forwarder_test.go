package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/genosentinel/auth-gateway/internal/core/domain"
)

func newTestForwarder(t *testing.T, backends map[string]string, opts Options) *Forwarder {
	t.Helper()
	registry, err := NewRegistry(backends)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewForwarder(registry, opts, zerolog.Nop())
}

func TestForwarder_StatusAndBodyPassthrough(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upstream", "clinica-v1")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"paciente no encontrado"}`))
	}))
	defer stub.Close()

	f := newTestForwarder(t, map[string]string{"clinica": stub.URL}, Options{})

	resp, err := f.Forward(context.Background(), domain.ForwardRequest{
		Backend: "clinica",
		Path:    "/pacientes",
		Method:  http.MethodGet,
		Headers: http.Header{},
	})
	if err != nil {
		t.Fatalf("Forward returned error: %v", err)
	}

	// A downstream 404 is relayed as 404, never rewritten to 500.
	if resp.Status != http.StatusNotFound {
		t.Fatalf("expected 404 passthrough, got %d", resp.Status)
	}
	if string(resp.Body) != `{"error":"paciente no encontrado"}` {
		t.Fatalf("body not relayed verbatim: %q", resp.Body)
	}
	if resp.Headers.Get("X-Upstream") != "clinica-v1" {
		t.Fatalf("downstream headers not relayed")
	}
}

func TestForwarder_MethodPathAndHeadersPreserved(t *testing.T) {
	var (
		gotMethod string
		gotURI    string
		gotAuth   string
		gotMulti  []string
		gotBody   []byte
	)
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotURI = r.URL.RequestURI()
		gotAuth = r.Header.Get("Authorization")
		gotMulti = r.Header.Values("X-Trace")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer stub.Close()

	f := newTestForwarder(t, map[string]string{"genomica": stub.URL}, Options{})

	headers := http.Header{}
	headers.Set("Authorization", "Bearer tok-123")
	headers.Add("X-Trace", "a")
	headers.Add("X-Trace", "b")

	resp, err := f.Forward(context.Background(), domain.ForwardRequest{
		Backend: "genomica",
		Path:    "/genes/5?x=1",
		Method:  http.MethodPut,
		Headers: headers,
		Body:    []byte(`{"symbol":"BRCA1"}`),
	})
	if err != nil {
		t.Fatalf("Forward returned error: %v", err)
	}
	if resp.Status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Status)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("method not preserved: %s", gotMethod)
	}
	if gotURI != "/genes/5?x=1" {
		t.Errorf("path not passed through verbatim: %s", gotURI)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization header not forwarded: %q", gotAuth)
	}
	if len(gotMulti) != 2 || gotMulti[0] != "a" || gotMulti[1] != "b" {
		t.Errorf("multi-value header not preserved: %v", gotMulti)
	}
	if string(gotBody) != `{"symbol":"BRCA1"}` {
		t.Errorf("pre-serialized body altered: %q", gotBody)
	}
}

func TestForwarder_StructuredBodySerializedToJSON(t *testing.T) {
	var (
		gotContentType string
		gotBody        []byte
	)
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer stub.Close()

	f := newTestForwarder(t, map[string]string{"clinica": stub.URL}, Options{})

	_, err := f.Forward(context.Background(), domain.ForwardRequest{
		Backend: "clinica",
		Path:    "/pacientes",
		Method:  http.MethodPost,
		Headers: http.Header{},
		Body:    map[string]string{"firstName": "Maria"},
	})
	if err != nil {
		t.Fatalf("Forward returned error: %v", err)
	}

	if gotContentType != "application/json" {
		t.Errorf("expected forced JSON content type, got %q", gotContentType)
	}
	if string(gotBody) != `{"firstName":"Maria"}` {
		t.Errorf("unexpected serialized body: %q", gotBody)
	}
}

func TestForwarder_SerializationFailureFallsBackToString(t *testing.T) {
	var gotBody []byte
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer stub.Close()

	f := newTestForwarder(t, map[string]string{"clinica": stub.URL}, Options{})

	// Channels cannot be marshalled; the engine degrades to a string
	// rendering instead of aborting the request.
	resp, err := f.Forward(context.Background(), domain.ForwardRequest{
		Backend: "clinica",
		Path:    "/pacientes",
		Method:  http.MethodPost,
		Headers: http.Header{},
		Body:    make(chan int),
	})
	if err != nil {
		t.Fatalf("serialization failure must not abort the request: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Status)
	}
	if len(gotBody) == 0 {
		t.Fatalf("expected a best-effort body rendering, got empty")
	}
}

func TestForwarder_UnknownBackend(t *testing.T) {
	f := newTestForwarder(t, map[string]string{"clinica": "http://localhost:1"}, Options{})

	_, err := f.Forward(context.Background(), domain.ForwardRequest{
		Backend: "imaging",
		Path:    "/scans",
		Method:  http.MethodGet,
		Headers: http.Header{},
	})
	if !errors.Is(err, domain.ErrUnknownBackend) {
		t.Fatalf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestForwarder_TimeoutClassified(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer stub.Close()

	f := newTestForwarder(t, map[string]string{"genomica": stub.URL}, Options{
		ConnectTimeout: 100 * time.Millisecond,
		ReadTimeout:    100 * time.Millisecond,
	})

	start := time.Now()
	_, err := f.Forward(context.Background(), domain.ForwardRequest{
		Backend: "genomica",
		Path:    "/genes",
		Method:  http.MethodGet,
		Headers: http.Header{},
	})
	elapsed := time.Since(start)

	if !errors.Is(err, domain.ErrDownstreamTimeout) {
		t.Fatalf("expected ErrDownstreamTimeout, got %v", err)
	}
	if elapsed > time.Second {
		t.Fatalf("timeout took %v, should fail within the configured budget", elapsed)
	}
}

func TestForwarder_ConnectionRefusedClassifiedUnavailable(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := stub.URL
	stub.Close() // nothing listens here any more

	f := newTestForwarder(t, map[string]string{"clinica": addr}, Options{})

	_, err := f.Forward(context.Background(), domain.ForwardRequest{
		Backend: "clinica",
		Path:    "/pacientes",
		Method:  http.MethodGet,
		Headers: http.Header{},
	})
	if !errors.Is(err, domain.ErrDownstreamUnavailable) {
		t.Fatalf("expected ErrDownstreamUnavailable, got %v", err)
	}
}

func TestForwarder_PerBackendInFlightBound(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer slow.Close()

	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer fast.Close()

	f := newTestForwarder(t, map[string]string{
		"genomica": slow.URL,
		"clinica":  fast.URL,
	}, Options{MaxInFlight: 1})

	forward := func(backend string) error {
		_, err := f.Forward(context.Background(), domain.ForwardRequest{
			Backend: backend,
			Path:    "/",
			Method:  http.MethodGet,
			Headers: http.Header{},
		})
		return err
	}

	first := make(chan error, 1)
	go func() { first <- forward("genomica") }()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first call never reached the backend")
	}

	// The bound is per backend: a saturated backend must not starve the
	// others.
	other := make(chan error, 1)
	go func() { other <- forward("clinica") }()
	select {
	case err := <-other:
		if err != nil {
			t.Fatalf("call to the other backend failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("saturated backend starved a call to the other backend")
	}

	// A second call to the saturated backend waits for the slot.
	second := make(chan error, 1)
	go func() { second <- forward("genomica") }()
	select {
	case <-entered:
		t.Fatal("second call reached the backend past the in-flight bound")
	case err := <-second:
		t.Fatalf("second call returned while the slot was held: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	close(release)
	for _, ch := range []chan error{first, second} {
		select {
		case err := <-ch:
			if err != nil {
				t.Fatalf("forward failed after the slot was released: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("forward did not complete after the slot was released")
		}
	}
}

func TestForwarder_CancelledContext(t *testing.T) {
	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer stub.Close()

	f := newTestForwarder(t, map[string]string{"clinica": stub.URL}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := f.Forward(ctx, domain.ForwardRequest{
		Backend: "clinica",
		Path:    "/pacientes",
		Method:  http.MethodGet,
		Headers: http.Header{},
	})
	if err == nil {
		t.Fatalf("expected error after client disconnect")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("cancellation should abort the in-flight call promptly")
	}
}
