package push

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"groupchat/backend/internal/models"
	"groupchat/backend/pkg/errors"
)

// Provider tags the wire adaptation a push URL needs. Classification is a
// closed set decided from the parsed URL, so each endpoint goes through
// exactly one adapter.
type Provider int

const (
	ProviderGeneric Provider = iota
	ProviderNtfy
	ProviderNotifyMe
)

func (p Provider) String() string {
	switch p {
	case ProviderNtfy:
		return "ntfy"
	case ProviderNotifyMe:
		return "notifyme"
	default:
		return "generic"
	}
}

// Classify picks the provider for a push URL by its host. Unparseable URLs
// fall back to the generic adapter, which will fail the delivery and get
// logged like any other bad endpoint.
func Classify(rawURL string) Provider {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ProviderGeneric
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case strings.Contains(host, "ntfy"):
		return ProviderNtfy
	case strings.Contains(host, "notifyme"):
		return ProviderNotifyMe
	}
	return ProviderGeneric
}

// adapter delivers one message to one endpoint.
type adapter interface {
	Deliver(ctx context.Context, rawURL string, msg models.Message) error
}

// ntfyAdapter POSTs the raw message content as a plain-text body.
type ntfyAdapter struct {
	client *http.Client
}

func (a *ntfyAdapter) Deliver(ctx context.Context, rawURL string, msg models.Message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(msg.Content))
	if err != nil {
		return errors.NewDeliveryError("invalid ntfy request", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := a.client.Do(req)
	if err != nil {
		return errors.NewDeliveryError("ntfy request failed", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewDeliveryError(fmt.Sprintf("ntfy responded %d", resp.StatusCode), nil)
	}
	return nil
}

// notifyMeAdapter issues a GET against the endpoint's own query-parameter
// API. The subscription URL must already carry the uuid parameter; body is
// always the message content, while title, bigText and group are filled in
// only when the URL does not set them itself.
type notifyMeAdapter struct {
	client *http.Client
}

func (a *notifyMeAdapter) Deliver(ctx context.Context, rawURL string, msg models.Message) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.NewDeliveryError("invalid notifyme url", err)
	}

	q := u.Query()
	if q.Get("uuid") == "" {
		return errors.NewValidationError("notifyme url is missing the uuid parameter")
	}
	q.Set("body", msg.Content)
	if q.Get("title") == "" {
		q.Set("title", "Group Chat")
	}
	if q.Get("bigText") == "" {
		q.Set("bigText", msg.Content)
	}
	if q.Get("group") == "" {
		q.Set("group", "chat")
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.NewDeliveryError("invalid notifyme request", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return errors.NewDeliveryError("notifyme request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return errors.NewDeliveryError("notifyme response unreadable", err)
	}
	if !strings.Contains(strings.ToLower(string(body)), "success") {
		return errors.NewDeliveryError(fmt.Sprintf("notifyme did not confirm delivery: %s", strings.TrimSpace(string(body))), nil)
	}
	return nil
}

// genericAdapter GETs the endpoint with the url-encoded message content
// appended as a path segment.
type genericAdapter struct {
	client *http.Client
}

func (a *genericAdapter) Deliver(ctx context.Context, rawURL string, msg models.Message) error {
	target := rawURL
	if !strings.HasSuffix(target, "/") {
		target += "/"
	}
	target += url.PathEscape(msg.Content)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return errors.NewDeliveryError("invalid push request", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return errors.NewDeliveryError("push request failed", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewDeliveryError(fmt.Sprintf("push endpoint responded %d", resp.StatusCode), nil)
	}
	return nil
}
