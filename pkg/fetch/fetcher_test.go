package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"afdb-links/pkg/config"
	"afdb-links/pkg/utils"
)

// testLogger returns a logger that discards output
func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// testHTTPFetcher builds an HTTPFetcher with fast retry delays for testing
func testHTTPFetcher(t *testing.T, maxRetries int) *HTTPFetcher {
	t.Helper()
	log := testLogger()
	client := NewClient(config.HTTPClientConfig{
		Timeout:             config.Duration(30 * time.Second),
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     config.Duration(90 * time.Second),
		TLSHandshakeTimeout: config.Duration(10 * time.Second),
		DialerTimeout:       config.Duration(10 * time.Second),
		DialerKeepAlive:     config.Duration(30 * time.Second),
	}, ClientOptions{
		MaxRetries:        maxRetries,
		InitialRetryDelay: 10 * time.Millisecond,
		MaxRetryDelay:     50 * time.Millisecond,
	}, log)
	return NewHTTPFetcher(client, log)
}

// mockServer creates an httptest.Server that returns status codes in sequence.
// Returns the server and an atomic counter tracking request attempts.
func mockServer(t *testing.T, statusCodes []int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	attemptCount := &atomic.Int32{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := int(attemptCount.Add(1)) - 1
		if idx >= len(statusCodes) {
			idx = len(statusCodes) - 1 // repeat last status
		}
		w.WriteHeader(statusCodes[idx])
		if statusCodes[idx] == http.StatusOK {
			w.Write([]byte(body))
		}
	}))
	t.Cleanup(server.Close)
	return server, attemptCount
}

func TestFetch_Success(t *testing.T) {
	server, attempts := mockServer(t, []int{200}, "<html><body>project page</body></html>")

	fetcher := testHTTPFetcher(t, 3)
	result, err := fetcher.Fetch(context.Background(), server.URL)

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if result.Status != PageFound {
		t.Errorf("expected PageFound, got %v", result.Status)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", result.StatusCode)
	}
	if result.HTML == "" {
		t.Error("expected non-empty HTML")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestFetch_NotFound(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusGone} {
		server, attempts := mockServer(t, []int{code}, "")

		fetcher := testHTTPFetcher(t, 3)
		result, err := fetcher.Fetch(context.Background(), server.URL)

		if err != nil {
			t.Fatalf("status %d: expected no error, got: %v", code, err)
		}
		if result.Status != PageNotFound {
			t.Errorf("status %d: expected PageNotFound, got %v", code, result.Status)
		}
		if attempts.Load() != 1 {
			t.Errorf("status %d: expected no retries, got %d attempts", code, attempts.Load())
		}
	}
}

func TestFetch_Forbidden_Blocked(t *testing.T) {
	server, _ := mockServer(t, []int{403}, "")

	fetcher := testHTTPFetcher(t, 3)
	_, err := fetcher.Fetch(context.Background(), server.URL)

	if !errors.Is(err, utils.ErrBlocked) {
		t.Errorf("expected ErrBlocked, got: %v", err)
	}
}

func TestFetch_ServerError_RetrySuccess(t *testing.T) {
	// 500 → 500 → 200 (succeeds on 3rd attempt)
	server, attempts := mockServer(t, []int{500, 500, 200}, "<html></html>")

	fetcher := testHTTPFetcher(t, 3)
	result, err := fetcher.Fetch(context.Background(), server.URL)

	if err != nil {
		t.Fatalf("expected no error after retry, got: %v", err)
	}
	if result.Status != PageFound {
		t.Errorf("expected PageFound, got %v", result.Status)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetch_ServerError_RetriesExhausted(t *testing.T) {
	server, attempts := mockServer(t, []int{500}, "")

	fetcher := testHTTPFetcher(t, 2)
	_, err := fetcher.Fetch(context.Background(), server.URL)

	if !errors.Is(err, utils.ErrRetryFailed) {
		t.Errorf("expected ErrRetryFailed, got: %v", err)
	}
	if !errors.Is(err, utils.ErrServerHTTPError) {
		t.Errorf("expected ErrServerHTTPError in chain, got: %v", err)
	}
	// Initial attempt + 2 retries
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetch_TooManyRequests(t *testing.T) {
	server, _ := mockServer(t, []int{429}, "")

	fetcher := testHTTPFetcher(t, 1)
	_, err := fetcher.Fetch(context.Background(), server.URL)

	if !errors.Is(err, utils.ErrRetryFailed) {
		t.Errorf("expected ErrRetryFailed, got: %v", err)
	}
	if !errors.Is(err, utils.ErrClientHTTPError) {
		t.Errorf("expected ErrClientHTTPError in chain, got: %v", err)
	}
}

func TestFetch_ContextCancelled(t *testing.T) {
	server, _ := mockServer(t, []int{200}, "<html></html>")

	fetcher := testHTTPFetcher(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Fetch(ctx, server.URL)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
}
