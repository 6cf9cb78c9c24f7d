package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/pitchdesk/pitchdesk/internal/idgen"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/metrics"
	"github.com/pitchdesk/pitchdesk/internal/retry"
)

const (
	deliveryTimeout  = 10 * time.Second
	deliveryAttempts = 3
	deliveryBackoff  = 500 * time.Millisecond

	// maxInflight bounds concurrent deliveries across all endpoints.
	maxInflight = 32
)

// Dispatcher fans events out to a company's active endpoints.
// Deliveries run in the background and never block the caller.
type Dispatcher struct {
	store  Store
	client *http.Client
	sem    chan struct{}
}

// NewDispatcher creates a webhook dispatcher.
func NewDispatcher(store Store) *Dispatcher {
	return &Dispatcher{
		store:  store,
		client: &http.Client{Timeout: deliveryTimeout},
		sem:    make(chan struct{}, maxInflight),
	}
}

// Emit builds an event and queues delivery to every active endpoint of
// the company that subscribes to the event type. Store failures are
// logged, not surfaced; a webhook must never fail the operation that
// triggered it.
func (d *Dispatcher) Emit(ctx context.Context, companyID, eventType string, data map[string]any) {
	eps, err := d.store.ListByCompany(ctx, companyID)
	if err != nil {
		logging.L(ctx).Warn("webhook endpoints lookup failed",
			"company_id", companyID, "error", err)
		return
	}

	event := &Event{
		ID:        idgen.WithPrefix("evt_"),
		Type:      eventType,
		CompanyID: companyID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	for _, ep := range eps {
		if !ep.Active || !ep.Subscribed(eventType) {
			continue
		}
		ep := ep
		d.sem <- struct{}{}
		go func() {
			defer func() { <-d.sem }()
			// Detached from the request context so in-flight
			// deliveries survive the response.
			dctx, cancel := context.WithTimeout(context.Background(),
				deliveryAttempts*(deliveryTimeout+deliveryBackoff*4))
			defer cancel()
			d.deliver(dctx, ep, event)
		}()
	}
}

// deliver posts the event with retries and records the outcome on the
// endpoint row.
func (d *Dispatcher) deliver(ctx context.Context, ep *Endpoint, event *Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		d.recordFailure(ctx, ep, "marshal event: "+err.Error())
		return
	}

	err = retry.Do(ctx, deliveryAttempts, deliveryBackoff, func() error {
		return d.post(ctx, ep, event, payload)
	})
	if err != nil {
		metrics.WebhookDeliveriesTotal.WithLabelValues("failure").Inc()
		d.recordFailure(ctx, ep, err.Error())
		logging.L(ctx).Warn("webhook delivery failed",
			"endpoint_id", ep.ID,
			"event", event.Type,
			"error", err)
		return
	}

	metrics.WebhookDeliveriesTotal.WithLabelValues("success").Inc()
	d.recordSuccess(ctx, ep)
}

func (d *Dispatcher) post(ctx context.Context, ep *Endpoint, event *Event, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(payload))
	if err != nil {
		return retry.Permanent(fmt.Errorf("build request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-PitchDesk-Event", event.Type)
	req.Header.Set("X-PitchDesk-Delivery", event.ID)
	req.Header.Set("X-PitchDesk-Timestamp", strconv.FormatInt(event.Timestamp.Unix(), 10))
	if ep.Secret != "" {
		req.Header.Set("X-PitchDesk-Signature", Sign(payload, ep.Secret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		// The receiver rejected the payload; retrying will not help.
		return retry.Permanent(fmt.Errorf("receiver returned %d", resp.StatusCode))
	default:
		return fmt.Errorf("receiver returned %d", resp.StatusCode)
	}
}

// Sign computes the hex HMAC-SHA256 of payload under secret. Receivers
// recompute this over the raw body to verify the X-PitchDesk-Signature
// header.
func Sign(payload []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func (d *Dispatcher) recordSuccess(ctx context.Context, ep *Endpoint) {
	now := time.Now().UTC()
	ep.LastSuccess = &now
	ep.LastError = ""
	if err := d.store.Update(ctx, ep); err != nil {
		logging.L(ctx).Warn("webhook endpoint update failed",
			"endpoint_id", ep.ID, "error", err)
	}
}

func (d *Dispatcher) recordFailure(ctx context.Context, ep *Endpoint, msg string) {
	ep.LastError = msg
	if err := d.store.Update(ctx, ep); err != nil {
		logging.L(ctx).Warn("webhook endpoint update failed",
			"endpoint_id", ep.ID, "error", err)
	}
}
