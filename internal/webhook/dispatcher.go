// ABOUTME: Fire-and-forget webhook delivery with signing and bounded retry.
// ABOUTME: Dispatch enqueues onto a worker pool; the caller never blocks on delivery.

package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ledekit/newsroom/internal/obs"
	"github.com/ledekit/newsroom/internal/store"
)

// SignatureHeader carries the HMAC of the request body.
const SignatureHeader = "X-Webhook-Signature"

// DefaultQueueSize is the delivery queue capacity when none is configured.
const DefaultQueueSize = 256

// DefaultWorkers is the delivery worker count when none is configured.
const DefaultWorkers = 4

// job is one delivery to one subscription.
type job struct {
	cfg  *store.WebhookConfig
	body []byte
}

// Dispatcher delivers signed event payloads to subscribed endpoints.
// Delivery is best-effort relative to the state transition that triggered
// it: retries happen on the workers, exhaustion is logged, and nothing ever
// propagates back to the originating request.
type Dispatcher struct {
	webhooks store.WebhookStore
	client   *http.Client
	logger   *slog.Logger

	queue chan job
	quit  chan struct{}
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// DispatcherConfig contains configuration options for the Dispatcher.
type DispatcherConfig struct {
	Webhooks  store.WebhookStore
	Logger    *slog.Logger
	Client    *http.Client
	QueueSize int
	Workers   int
}

// NewDispatcher creates a Dispatcher and starts its worker pool.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	d := &Dispatcher{
		webhooks: cfg.Webhooks,
		client:   client,
		logger:   cfg.Logger.With("component", "webhook"),
		queue:    make(chan job, queueSize),
		quit:     make(chan struct{}),
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}

	return d
}

// Dispatch serializes the payload once and enqueues one delivery per active
// subscription matching the event and topic. Returns after enqueueing; it
// never waits for delivery. A full queue drops the delivery with a log line
// rather than stalling the request path.
func (d *Dispatcher) Dispatch(ctx context.Context, event, topic string, payload any) {
	configs, err := d.webhooks.ListWebhooksForEvent(ctx, event, topic)
	if err != nil {
		d.logger.Error("webhook lookup failed", "event", event, "error", err)
		return
	}
	if len(configs) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("webhook payload marshal failed", "event", event, "error", err)
		return
	}

	for _, cfg := range configs {
		select {
		case d.queue <- job{cfg: cfg, body: body}:
		default:
			obs.WebhookDeliveries.WithLabelValues(event, "dropped").Inc()
			d.logger.Warn("webhook queue full, delivery dropped",
				"event", event, "webhook_id", cfg.ID, "url", cfg.URL)
		}
	}
}

// Close stops the workers after the queued deliveries drain. In-flight retry
// sleeps are cut short; the abandoned deliveries are logged as exhausted.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.quit)
		close(d.queue)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.deliver(j)
	}
}

// deliver attempts a job up to its MaxRetries budget with linear backoff
// (delay * attempt number), treating any 2xx as success.
func (d *Dispatcher) deliver(j job) {
	for attempt := 1; attempt <= j.cfg.MaxRetries; attempt++ {
		err := d.attempt(j)
		if err == nil {
			obs.WebhookDeliveries.WithLabelValues(j.cfg.Event, "success").Inc()
			d.logger.Info("webhook delivered",
				"event", j.cfg.Event, "webhook_id", j.cfg.ID, "attempt", attempt)
			return
		}

		obs.WebhookDeliveries.WithLabelValues(j.cfg.Event, "failure").Inc()
		d.logger.Warn("webhook attempt failed",
			"event", j.cfg.Event,
			"webhook_id", j.cfg.ID,
			"url", j.cfg.URL,
			"attempt", attempt,
			"max_retries", j.cfg.MaxRetries,
			"error", err,
		)

		if attempt == j.cfg.MaxRetries {
			break
		}
		select {
		case <-time.After(j.cfg.RetryDelay * time.Duration(attempt)):
		case <-d.quit:
			d.logger.Warn("webhook retry abandoned on shutdown",
				"event", j.cfg.Event, "webhook_id", j.cfg.ID)
			obs.WebhookExhausted.WithLabelValues(j.cfg.Event).Inc()
			return
		}
	}

	obs.WebhookExhausted.WithLabelValues(j.cfg.Event).Inc()
	d.logger.Error("webhook delivery exhausted",
		"event", j.cfg.Event,
		"webhook_id", j.cfg.ID,
		"url", j.cfg.URL,
		"attempts", j.cfg.MaxRetries,
	)
}

// attempt performs a single signed POST. Any non-2xx response or transport
// failure is a retryable error.
func (d *Dispatcher) attempt(j job) error {
	req, err := http.NewRequest(http.MethodPost, j.cfg.URL, bytes.NewReader(j.body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if j.cfg.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(j.cfg.Secret, j.body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// Sign computes the signature header value for a body: HMAC-SHA256 keyed by
// the subscription secret, hex-encoded, prefixed with the algorithm.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature header against a body. Used by
// receivers (and tests) to authenticate a delivery before trusting it.
func VerifySignature(secret string, body []byte, header string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(header))
}
