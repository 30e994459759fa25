// Package agentdesk is the entry point of the SDK. It wires the HTTP
// transport, the resource client, the notifier and the state coordinator
// from a single Config.
package agentdesk

import (
	"context"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/api"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/auth"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/coordinator"
	apperrors "github.com/agentdesk/agentdesk-go/pkg/agentdesk/errors"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/events"
	"github.com/agentdesk/agentdesk-go/pkg/agentdesk/transport"
)

// Client bundles everything needed to talk to an agentdesk server
type Client struct {
	Config      *Config
	Transport   *transport.Client
	API         *api.Client
	Notifier    *events.Notifier
	Coordinator *coordinator.Coordinator

	tokens *auth.TokenService
	log    logr.Logger
}

type options struct {
	logger     logr.Logger
	httpClient *http.Client
	registerer prometheus.Registerer
}

// Option customises New
type Option func(*options)

// WithLogger sets the logger shared by every component
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// WithHTTPClient overrides the HTTP client used by the transport
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithRegisterer registers the transport metrics on reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// New creates a new Client. When cfg.TokenPath is set the token file is read
// immediately and refreshed in the background until Close is called.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.WithName("agentdesk")

	var (
		tokens auth.TokenSource
		svc    *auth.TokenService
	)
	switch {
	case cfg.TokenPath != "":
		svc = auth.NewTokenService(cfg.TokenPath, log)
		if err := svc.Start(ctx); err != nil {
			return nil, err
		}
		tokens = svc
	case cfg.APIKey != "":
		tokens = auth.StaticToken(cfg.APIKey)
	}

	t, err := transport.New(transport.Options{
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		TokenSource: tokens,
		HTTPClient:  o.httpClient,
		Logger:      log,
		Debug:       cfg.Debug,
		Registerer:  o.registerer,
	})
	if err != nil {
		if svc != nil {
			svc.Stop()
		}
		return nil, apperrors.New(apperrors.ErrCodeInitialization, "failed to create transport", err)
	}

	notifier := events.NewNotifier(log)
	auto := cfg.AutoExecution()

	return &Client{
		Config:    cfg,
		Transport: t,
		API:       api.NewClient(t),
		Notifier:  notifier,
		Coordinator: coordinator.New(t, coordinator.Options{
			Notifier:      notifier,
			Logger:        log,
			AutoExecution: &auto,
		}),
		tokens: svc,
		log:    log,
	}, nil
}

// Close stops background work started by New
func (c *Client) Close() {
	if c.tokens != nil {
		c.tokens.Stop()
	}
}
