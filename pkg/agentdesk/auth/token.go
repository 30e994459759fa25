package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	apperrors "github.com/agentdesk/agentdesk-go/pkg/agentdesk/errors"
)

const (
	DefaultRefreshPeriod = 60 * time.Second
)

// TokenSource supplies the bearer token attached to each request
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource that always returns the same token
type StaticToken string

func (s StaticToken) Token() string {
	return string(s)
}

// TokenService reads an API token from a file and re-reads it periodically,
// so that rotated credentials are picked up without restarting.
type TokenService struct {
	tokenPath     string
	refreshPeriod time.Duration
	token         string
	mu            sync.RWMutex
	stopOnce      sync.Once
	stopCh        chan struct{}
	log           logr.Logger
}

// NewTokenService creates a new TokenService
func NewTokenService(tokenPath string, log logr.Logger) *TokenService {
	return &TokenService{
		tokenPath:     tokenPath,
		refreshPeriod: DefaultRefreshPeriod,
		stopCh:        make(chan struct{}),
		log:           log.WithName("token-service"),
	}
}

// WithRefreshPeriod overrides the refresh period. Must be called before Start.
func (t *TokenService) WithRefreshPeriod(d time.Duration) *TokenService {
	if d > 0 {
		t.refreshPeriod = d
	}
	return t
}

// Start loads the token and begins the refresh cycle
func (t *TokenService) Start(ctx context.Context) error {
	if t.tokenPath == "" {
		return apperrors.New(apperrors.ErrCodeAuthFailed, "token path is empty", nil)
	}
	if err := t.refreshToken(); err != nil {
		return apperrors.New(apperrors.ErrCodeAuthFailed, "failed to load initial token", err)
	}

	ticker := time.NewTicker(t.refreshPeriod)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := t.refreshToken(); err != nil {
					t.log.Error(err, "failed to refresh token", "path", t.tokenPath)
				}
			case <-ctx.Done():
				return
			case <-t.stopCh:
				return
			}
		}
	}()

	return nil
}

// Stop stops the token refresh cycle. Safe to call more than once.
func (t *TokenService) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
}

func (t *TokenService) refreshToken() error {
	data, err := os.ReadFile(t.tokenPath)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.token = strings.TrimSpace(string(data))
	t.mu.Unlock()

	return nil
}

// Token returns the current token
func (t *TokenService) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

// AddHeaders adds the bearer header when a token is available
func AddHeaders(req *http.Request, src TokenSource) {
	if src == nil {
		return
	}
	if token := src.Token(); token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
}
