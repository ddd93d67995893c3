package webpush

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	wp "github.com/SherClockHolmes/webpush-go"
)

// Subscription is the browser push subscription descriptor as produced by
// PushManager.subscribe on the client: the push service endpoint plus the
// client's ECDH public key and auth secret.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

// Keys holds the client key material required by the push encryption scheme.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Validate checks the descriptor is structurally usable for delivery.
func (s Subscription) Validate() error {
	if s.Endpoint == "" {
		return fmt.Errorf("%w: empty endpoint", ErrInvalidSubscription)
	}
	u, err := url.Parse(s.Endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: endpoint must be an https URL", ErrInvalidSubscription)
	}
	if s.Keys.P256dh == "" || s.Keys.Auth == "" {
		return fmt.Errorf("%w: missing p256dh or auth key", ErrInvalidSubscription)
	}
	return nil
}

// Transport delivers one payload to one subscription. Implementations
// classify failures through the package sentinel errors so callers can
// distinguish permanently dead subscriptions from transient trouble.
type Transport interface {
	Deliver(ctx context.Context, sub Subscription, payload []byte) error
}

// Config holds the VAPID identity and delivery tuning for the Web Push client.
type Config struct {
	VAPIDPublicKey  string        `env:"VAPID_PUBLIC_KEY,required"`
	VAPIDPrivateKey string        `env:"VAPID_PRIVATE_KEY,required"`
	Subscriber      string        `env:"VAPID_SUBSCRIBER" envDefault:"mailto:admin@example.com"`
	TTL             int           `env:"WEBPUSH_TTL" envDefault:"86400"`
	Timeout         time.Duration `env:"WEBPUSH_TIMEOUT" envDefault:"10s"`
}

// Client implements Transport over the Web Push protocol with VAPID
// authentication.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient injects a custom HTTP client, e.g. for tests or proxies.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a Web Push client. Both VAPID keys are required.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.VAPIDPublicKey == "" || cfg.VAPIDPrivateKey == "" {
		return nil, ErrMissingVAPIDKeys
	}

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10, // Browsers cluster on a few push service hosts.
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Deliver encrypts and posts the payload to the subscription endpoint.
// The returned error is nil on 2xx, ErrGone for permanently invalid
// subscriptions, ErrRejected for payload/request problems and ErrTransient
// for everything retryable (network failures, 429, 5xx, expired context).
func (c *Client) Deliver(ctx context.Context, sub Subscription, payload []byte) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	resp, err := wp.SendNotificationWithContext(ctx, payload, &wp.Subscription{
		Endpoint: sub.Endpoint,
		Keys: wp.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &wp.Options{
		HTTPClient:      c.httpClient,
		Subscriber:      c.cfg.Subscriber,
		TTL:             c.cfg.TTL,
		VAPIDPublicKey:  c.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: c.cfg.VAPIDPrivateKey,
	})
	if err != nil {
		// Network failures and expired contexts are retryable by nature.
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	defer resp.Body.Close()

	return ClassifyStatus(resp.StatusCode)
}

// ClassifyStatus maps a push service response status to the package error
// taxonomy. Returns nil for success statuses.
func ClassifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusGone || code == http.StatusNotFound:
		// The push service no longer knows this subscription.
		return fmt.Errorf("%w: push service returned %d", ErrGone, code)
	case code == http.StatusBadRequest ||
		code == http.StatusUnauthorized ||
		code == http.StatusForbidden ||
		code == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: push service returned %d", ErrRejected, code)
	default:
		return fmt.Errorf("%w: push service returned %d", ErrTransient, code)
	}
}
