// ABOUTME: Tests for webhook delivery: signing, retry budget, and topic filtering.
// ABOUTME: Uses httptest servers as receiving endpoints.

package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledekit/newsroom/internal/store"
)

// recordingEndpoint captures delivered requests and serves a fixed status.
type recordingEndpoint struct {
	mu       sync.Mutex
	status   int
	bodies   [][]byte
	headers  []http.Header
	received chan struct{}
}

func newRecordingEndpoint(status int) *recordingEndpoint {
	return &recordingEndpoint{status: status, received: make(chan struct{}, 16)}
}

func (e *recordingEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	e.mu.Lock()
	e.bodies = append(e.bodies, body)
	e.headers = append(e.headers, r.Header.Clone())
	e.mu.Unlock()
	e.received <- struct{}{}
	w.WriteHeader(e.status)
}

func (e *recordingEndpoint) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.bodies)
}

func (e *recordingEndpoint) waitFor(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-e.received:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

func newTestDispatcher(t *testing.T, s store.WebhookStore) *Dispatcher {
	t.Helper()
	d := NewDispatcher(DispatcherConfig{
		Webhooks: s,
		Logger:   slog.Default(),
		Workers:  2,
	})
	t.Cleanup(d.Close)
	return d
}

func addWebhook(t *testing.T, s *store.MockStore, event, url, secret string, topic *string) *store.WebhookConfig {
	t.Helper()
	cfg := &store.WebhookConfig{
		Event:      event,
		URL:        url,
		Secret:     secret,
		Topic:      topic,
		MaxRetries: 3,
		RetryDelay: 5 * time.Millisecond,
		Active:     true,
	}
	require.NoError(t, s.CreateWebhook(context.Background(), cfg))
	return cfg
}

func TestDispatchDeliversSignedPayload(t *testing.T) {
	endpoint := newRecordingEndpoint(http.StatusOK)
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	s := store.NewMockStore()
	addWebhook(t, s, EventArticlePublished, srv.URL, "hook-secret", nil)
	d := newTestDispatcher(t, s)

	d.Dispatch(context.Background(), EventArticlePublished, "macro", ResolutionPayload{
		Event:     EventArticlePublished,
		Timestamp: time.Now().UTC(),
		Article:   ArticleRef{ID: 1, Topic: "macro", Headline: "Rates outlook", Status: "published"},
		Reviewer:  UserRef{ID: "reviewer-1", Email: "rev@example.com"},
	})

	endpoint.waitFor(t, 1)
	assert.Equal(t, 1, endpoint.count())

	sig := endpoint.headers[0].Get(SignatureHeader)
	require.NotEmpty(t, sig)
	assert.True(t, VerifySignature("hook-secret", endpoint.bodies[0], sig))
	assert.False(t, VerifySignature("wrong-secret", endpoint.bodies[0], sig))
	assert.Contains(t, string(endpoint.bodies[0]), `"event":"article_published"`)
}

func TestDispatchNoSignatureWithoutSecret(t *testing.T) {
	endpoint := newRecordingEndpoint(http.StatusOK)
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	s := store.NewMockStore()
	addWebhook(t, s, EventArticleRejected, srv.URL, "", nil)
	d := newTestDispatcher(t, s)

	d.Dispatch(context.Background(), EventArticleRejected, "macro", ResolutionPayload{Event: EventArticleRejected})

	endpoint.waitFor(t, 1)
	assert.Empty(t, endpoint.headers[0].Get(SignatureHeader))
}

func TestDispatchRetriesUntilExhausted(t *testing.T) {
	endpoint := newRecordingEndpoint(http.StatusInternalServerError)
	srv := httptest.NewServer(endpoint)
	defer srv.Close()

	s := store.NewMockStore()
	addWebhook(t, s, EventApprovalRequired, srv.URL, "", nil)
	d := newTestDispatcher(t, s)

	d.Dispatch(context.Background(), EventApprovalRequired, "macro", ApprovalRequiredPayload{Event: EventApprovalRequired})

	// max_retries=3: exactly three attempts, then the dispatcher gives up.
	endpoint.waitFor(t, 3)

	// Grace period to catch a fourth attempt that must not happen.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 3, endpoint.count())
}

func TestDispatchRetriesThenSucceeds(t *testing.T) {
	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		attempts++
		n := attempts
		mu.Unlock()
		if n < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
		done <- struct{}{}
	}))
	defer srv.Close()

	s := store.NewMockStore()
	addWebhook(t, s, EventArticlePublished, srv.URL, "", nil)
	d := newTestDispatcher(t, s)

	d.Dispatch(context.Background(), EventArticlePublished, "macro", ResolutionPayload{Event: EventArticlePublished})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery never succeeded")
	}

	mu.Lock()
	assert.Equal(t, 2, attempts)
	mu.Unlock()
}

func TestDispatchTopicFilter(t *testing.T) {
	macroEndpoint := newRecordingEndpoint(http.StatusOK)
	macroSrv := httptest.NewServer(macroEndpoint)
	defer macroSrv.Close()

	allEndpoint := newRecordingEndpoint(http.StatusOK)
	allSrv := httptest.NewServer(allEndpoint)
	defer allSrv.Close()

	macro := "macro"
	s := store.NewMockStore()
	addWebhook(t, s, EventArticlePublished, macroSrv.URL, "", &macro)
	addWebhook(t, s, EventArticlePublished, allSrv.URL, "", nil)
	d := newTestDispatcher(t, s)

	d.Dispatch(context.Background(), EventArticlePublished, "equity", ResolutionPayload{Event: EventArticlePublished})

	// Only the catch-all subscription matches an equity event.
	allEndpoint.waitFor(t, 1)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, macroEndpoint.count())
	assert.Equal(t, 1, allEndpoint.count())
}

func TestDispatchNoSubscribers(t *testing.T) {
	s := store.NewMockStore()
	d := newTestDispatcher(t, s)

	// Nothing registered: must return quietly.
	d.Dispatch(context.Background(), EventArticlePublished, "macro", ResolutionPayload{})
}
