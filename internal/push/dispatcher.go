// Package push delivers best-effort copies of new messages to registered
// endpoints. Deliveries are fire-and-forget: they run off the critical path,
// failures are logged and isolated per subscriber, and nothing here can block
// message storage or broadcast.
package push

import (
	"context"
	"net/http"
	"sync"
	"time"

	"groupchat/backend/internal/metrics"
	"groupchat/backend/internal/models"
	"groupchat/backend/pkg/logger"
)

// Dispatcher fans a stored message out to subscriber URLs with bounded
// concurrency and a per-call timeout, so a large subscriber list cannot stall
// the process.
type Dispatcher struct {
	log      *logger.Logger
	timeout  time.Duration
	sem      chan struct{}
	adapters map[Provider]adapter

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher. concurrency caps in-flight deliveries;
// timeout bounds each provider call.
func NewDispatcher(log *logger.Logger, timeout time.Duration, concurrency int) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	return &Dispatcher{
		log:     log.WithComponent("push"),
		timeout: timeout,
		sem:     make(chan struct{}, concurrency),
		adapters: map[Provider]adapter{
			ProviderNtfy:     &ntfyAdapter{client: client},
			ProviderNotifyMe: &notifyMeAdapter{client: client},
			ProviderGeneric:  &genericAdapter{client: client},
		},
	}
}

// Dispatch starts best-effort delivery of msg to every URL and returns
// immediately. There are no retries and no ordering guarantee across
// subscribers; a failure for one URL never affects another.
func (d *Dispatcher) Dispatch(msg models.Message, urls []string) {
	for _, rawURL := range urls {
		rawURL := rawURL
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.sem <- struct{}{}
			defer func() { <-d.sem }()

			d.deliver(rawURL, msg)
		}()
	}
}

func (d *Dispatcher) deliver(rawURL string, msg models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	provider := Classify(rawURL)
	err := d.adapters[provider].Deliver(ctx, rawURL, msg)
	if err != nil {
		metrics.PushDeliveries.WithLabelValues(provider.String(), "failure").Inc()
		d.log.Warn("push delivery failed",
			"provider", provider.String(),
			"url", rawURL,
			"message_id", msg.ID,
			"error", err.Error(),
		)
		return
	}
	metrics.PushDeliveries.WithLabelValues(provider.String(), "success").Inc()
	d.log.Debug("push delivered",
		"provider", provider.String(),
		"url", rawURL,
		"message_id", msg.ID,
	)
}

// Wait blocks until all in-flight deliveries finish. Used by shutdown and
// tests; callers on the message path never wait.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
