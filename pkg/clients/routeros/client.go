package routeros

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/isp-dashboard/internal/config"
)

// ErrUnavailable is returned while the circuit breaker rejects calls.
var ErrUnavailable = errors.New("router unavailable")

// Client exposes the RouterOS PPP operations used by the application.
type Client interface {
	UpdateSecret(ctx context.Context, id string, fields SecretFields) error
	RemoveSecret(ctx context.Context, id string) error
	FindSecretByName(ctx context.Context, name string) (*Secret, error)
	SetSecretDisabled(ctx context.Context, id string, disabled bool) error
	ActiveSessions(ctx context.Context, name string) ([]ActiveSession, error)
	RemoveActiveSession(ctx context.Context, id string) error
}

// Secret is a PPP secret as returned by /rest/ppp/secret.
type Secret struct {
	ID       string `json:".id"`
	Name     string `json:"name"`
	Profile  string `json:"profile,omitempty"`
	Service  string `json:"service,omitempty"`
	Comment  string `json:"comment,omitempty"`
	Disabled string `json:"disabled,omitempty"`
}

// ActiveSession is a connected PPP session from /rest/ppp/active.
type ActiveSession struct {
	ID      string `json:".id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SecretFields are the secret attributes to change. Empty values are omitted.
type SecretFields struct {
	Name     string `json:"name,omitempty"`
	Password string `json:"password,omitempty"`
	Profile  string `json:"profile,omitempty"`
	Service  string `json:"service,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// apiError mirrors the RouterOS REST error body.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// APIClient is a resty-backed implementation of Client guarded by a circuit
// breaker. Transport errors and 5xx responses count as breaker failures.
type APIClient struct {
	httpClient *resty.Client
	cb         *gobreaker.CircuitBreaker[*resty.Response]
	logger     *zap.Logger
}

// NewClient builds a RouterOS REST client from configuration.
func NewClient(cfg config.RouterConfig, logger *zap.Logger) *APIClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")+"/rest").
		SetBasicAuth(cfg.Username, cfg.Password).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	if cfg.InsecureTLS {
		restyClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // self-signed router certificates
	}

	cb := gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name:        "routeros",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("router circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &APIClient{httpClient: restyClient, cb: cb, logger: logger}
}

// UpdateSecret patches the given secret fields.
func (c *APIClient) UpdateSecret(ctx context.Context, id string, fields SecretFields) error {
	_, err := c.do(ctx, http.MethodPatch, "/ppp/secret/{id}", id, fields, nil)
	if err != nil {
		return fmt.Errorf("update secret %s: %w", id, err)
	}
	return nil
}

// RemoveSecret deletes the secret.
func (c *APIClient) RemoveSecret(ctx context.Context, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/ppp/secret/{id}", id, nil, nil); err != nil {
		return fmt.Errorf("remove secret %s: %w", id, err)
	}
	return nil
}

// FindSecretByName returns the secret with the given name, or nil when none exists.
func (c *APIClient) FindSecretByName(ctx context.Context, name string) (*Secret, error) {
	var secrets []Secret
	if _, err := c.query(ctx, "/ppp/secret", name, &secrets); err != nil {
		return nil, fmt.Errorf("find secret %s: %w", name, err)
	}
	if len(secrets) == 0 {
		return nil, nil
	}
	return &secrets[0], nil
}

// SetSecretDisabled enables or disables a secret.
func (c *APIClient) SetSecretDisabled(ctx context.Context, id string, disabled bool) error {
	body := map[string]string{"disabled": fmt.Sprintf("%t", disabled)}
	if _, err := c.do(ctx, http.MethodPatch, "/ppp/secret/{id}", id, body, nil); err != nil {
		return fmt.Errorf("set secret %s disabled=%t: %w", id, disabled, err)
	}
	return nil
}

// ActiveSessions lists connected sessions for a PPP name.
func (c *APIClient) ActiveSessions(ctx context.Context, name string) ([]ActiveSession, error) {
	var sessions []ActiveSession
	if _, err := c.query(ctx, "/ppp/active", name, &sessions); err != nil {
		return nil, fmt.Errorf("list active sessions for %s: %w", name, err)
	}
	return sessions, nil
}

// RemoveActiveSession disconnects one session.
func (c *APIClient) RemoveActiveSession(ctx context.Context, id string) error {
	if _, err := c.do(ctx, http.MethodDelete, "/ppp/active/{id}", id, nil, nil); err != nil {
		return fmt.Errorf("remove active session %s: %w", id, err)
	}
	return nil
}

func (c *APIClient) query(ctx context.Context, path, name string, result any) (*resty.Response, error) {
	return c.execute(func() *resty.Request {
		return c.httpClient.R().
			SetContext(ctx).
			SetQueryParam("name", name).
			SetResult(result)
	}, http.MethodGet, path)
}

func (c *APIClient) do(ctx context.Context, method, path, id string, body, result any) (*resty.Response, error) {
	return c.execute(func() *resty.Request {
		req := c.httpClient.R().
			SetContext(ctx).
			SetPathParam("id", id)
		if body != nil {
			req.SetBody(body)
		}
		if result != nil {
			req.SetResult(result)
		}
		return req
	}, method, path)
}

func (c *APIClient) execute(build func() *resty.Request, method, path string) (*resty.Response, error) {
	apiErr := new(apiError)

	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		resp, err := build().SetError(apiErr).Execute(method, path)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, routerError(resp, apiErr)
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return resp, routerError(resp, apiErr)
	}

	c.logger.Debug("router request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()))
	return resp, nil
}

func routerError(resp *resty.Response, apiErr *apiError) error {
	message := apiErr.Message
	if apiErr.Detail != "" {
		message = apiErr.Detail
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode())
	}
	return fmt.Errorf("router api error: code=%d, message=%s", resp.StatusCode(), message)
}
