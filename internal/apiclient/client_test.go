package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestClient(t *testing.T, url string, token string, opts ...Option) *Client {
	t.Helper()
	c, err := New(Config{BaseURL: url, Timeout: 5 * time.Second}, TokenFunc(func() string { return token }), opts...)
	require.NoError(t, err)
	return c
}

// TestNew_Validation tests base URL checks.
func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, nil)
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "/api"}, nil)
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "https://api.example.uz/api"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.uz/api/", c.BaseURL())
}

// TestDo_BearerTokenAttached tests the Authorization header when a token is present.
func TestDo_BearerTokenAttached(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/wallet/transactions", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "pending", r.URL.Query().Get("status"))
		assert.False(t, r.URL.Query().Has("type"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL+"/api", "tok-123")
	resp, err := c.Get(context.Background(), "/wallet/transactions", map[string]string{"status": "pending", "type": ""})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestDo_NoTokenNoHeader tests that the Authorization header is omitted without a token.
func TestDo_NoTokenNoHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Authorization"]
		assert.False(t, present)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, "")
	_, err := c.Get(context.Background(), "/settings", nil)
	require.NoError(t, err)
}

// TestDo_PostBodyAndHeaders tests JSON bodies and per-request headers.
func TestDo_PostBodyAndHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(5000000), body["amount"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success":true,"data":{"id":"tx-1"}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, "tok")
	resp, err := c.Do(context.Background(), Request{
		Method:  http.MethodPost,
		Path:    "wallet/w-1/adjustment",
		Headers: map[string]string{"Idempotency-Key": "key-1"},
		Body:    map[string]int64{"amount": 5000000},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

// TestDo_UnauthorizedNotifiesSubscribers tests the session-expired broadcast.
func TestDo_UnauthorizedNotifiesSubscribers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"error":{"code":"TOKEN_EXPIRED","message":"Token expired"}}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, "stale")
	var first, second int32
	c.OnUnauthorized(func() { atomic.AddInt32(&first, 1) })
	unsubscribe := c.OnUnauthorized(func() { atomic.AddInt32(&second, 1) })

	_, err := c.Get(context.Background(), "/wallet/summary/student/s1", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "TOKEN_EXPIRED", apiErr.Code)
	assert.Equal(t, "Token expired", apiErr.Message)
	assert.Equal(t, int32(1), atomic.LoadInt32(&first))
	assert.Equal(t, int32(1), atomic.LoadInt32(&second))

	unsubscribe()
	_, _ = c.Get(context.Background(), "/wallet/summary/student/s1", nil)
	assert.Equal(t, int32(2), atomic.LoadInt32(&first))
	assert.Equal(t, int32(1), atomic.LoadInt32(&second))
}

// TestDo_SkipAuthRedirect tests that opted-out requests do not broadcast.
func TestDo_SkipAuthRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, "")
	var called int32
	c.OnUnauthorized(func() { atomic.AddInt32(&called, 1) })

	_, err := c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/auth/teacher/login", SkipAuthRedirect: true})
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Invalid credentials", UserMessage(err, "fallback"))
	assert.Equal(t, int32(0), atomic.LoadInt32(&called))
}

// TestDo_ServerErrorMessages tests message extraction from the common error shapes.
func TestDo_ServerErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"error string", http.StatusBadRequest, `{"error":"Amount too small"}`, "Amount too small"},
		{"message field", http.StatusConflict, `{"message":"Already confirmed"}`, "Already confirmed"},
		{"msg field", http.StatusBadRequest, `{"msg":"Bad reason"}`, "Bad reason"},
		{"nested error", http.StatusUnprocessableEntity, `{"success":false,"error":{"code":"LIMIT","message":"Over limit"}}`, "Over limit"},
		{"plain text", http.StatusInternalServerError, `upstream exploded`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestClient(t, server.URL, "tok")
			_, err := c.Get(context.Background(), "/x", nil)
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrUnauthorized))
			assert.Equal(t, tt.status, StatusCode(err))

			want := tt.message
			if want == "" {
				want = "Something went wrong"
			}
			assert.Equal(t, want, UserMessage(err, "Something went wrong"))
		})
	}
}

// TestDo_TransportFailure tests network errors and the fallback message.
func TestDo_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(t, url, "tok")
	_, err := c.Get(context.Background(), "/wallet/transactions", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, "Network error", UserMessage(err, "Network error"))
}

// TestDo_ContextCancelled tests that cancellation aborts the request.
func TestDo_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := newTestClient(t, server.URL, "tok")
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Get(ctx, "/slow", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestDo_Metrics tests request counters with templated routes.
func TestDo_Metrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	m := NewMetrics(DefaultMetricsConfig())
	c := newTestClient(t, server.URL, "tok", WithMetrics(m))

	_, err := c.Get(context.Background(), "/wallet/64b0c2f1e4b0a1a2b3c4d5e6/transactions", nil)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), "/wallet/64b0c2f1e4b0a1a2b3c4d5e7/transactions", nil)
	require.NoError(t, err)

	count := testutil.ToFloat64(m.RequestsTotal().WithLabelValues("GET", "/wallet/:id/transactions", "200"))
	assert.Equal(t, float64(2), count)
	series, err := testutil.GatherAndCount(m.Registry())
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

// TestDo_Tracing tests that each request produces one client span.
func TestDo_Tracing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	c := newTestClient(t, server.URL, "tok", WithTracerProvider(tp))

	_, err := c.Get(context.Background(), "/salary-payouts/42", nil)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /salary-payouts/:id", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int("http.response.status_code", 404))
}

func TestDo_PropagatesTraceContext(t *testing.T) {
	var traceparent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent.Store(r.Header.Get("Traceparent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer server.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	c := newTestClient(t, server.URL, "tok", WithTracerProvider(tp))

	_, err := c.Get(context.Background(), "/wallet/transactions", nil)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	sc := spans[0].SpanContext()
	assert.Equal(t, "00-"+sc.TraceID().String()+"-"+sc.SpanID().String()+"-01", traceparent.Load())
}

func TestRouteTemplate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/wallet/transactions", "/wallet/transactions"},
		{"wallet/balance/student/64b0c2f1e4b0a1a2b3c4d5e6", "/wallet/balance/student/:id"},
		{"/salary-payouts/123/complete", "/salary-payouts/:id/complete"},
		{"/students/0b3a39e4-5a43-4f3c-9a2b-1d3f5e7a9c11?page=2", "/students/:id"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RouteTemplate(tt.in), tt.in)
	}
}
