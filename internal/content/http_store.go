package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"sitebuilder-backend/internal/models"
	"sitebuilder-backend/pkg/logger"
)

const contentPath = "/api/admin/content"

// HTTPConfig configures an HTTPStore.
type HTTPConfig struct {
	BaseURL string
	Token   string
	// Timeout bounds each attempt, not the whole call.
	Timeout  time.Duration
	Attempts uint
	Backoff  time.Duration
	Client   *http.Client
}

// HTTPStore talks to a remote content API. Every request has its own
// timeout; server errors and transport failures are retried with
// exponential backoff, client errors are not.
type HTTPStore struct {
	endpoint string
	token    string
	timeout  time.Duration
	attempts uint
	backoff  time.Duration
	client   *http.Client
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("content api %s returned %d", e.Method, e.Status)
	}
	return fmt.Sprintf("content api %s returned %d: %s", e.Method, e.Status, e.Body)
}

func NewHTTPStore(cfg HTTPConfig) (*HTTPStore, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("content api base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}

	return &HTTPStore{
		endpoint: base + contentPath,
		token:    cfg.Token,
		timeout:  cfg.Timeout,
		attempts: cfg.Attempts,
		backoff:  cfg.Backoff,
		client:   cfg.Client,
	}, nil
}

func (s *HTTPStore) Load(ctx context.Context) (models.SiteDocument, error) {
	var doc models.SiteDocument
	err := s.do(ctx, http.MethodGet, nil, func(body []byte) error {
		if err := json.Unmarshal(body, &doc); err != nil {
			return retry.Unrecoverable(fmt.Errorf("decode content: %w", err))
		}
		return nil
	})
	if err != nil {
		return models.SiteDocument{}, err
	}
	return doc, nil
}

func (s *HTTPStore) Save(ctx context.Context, doc models.SiteDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	return s.do(ctx, http.MethodPut, payload, nil)
}

func (s *HTTPStore) do(ctx context.Context, method string, payload []byte, handle func([]byte) error) error {
	return retry.Do(
		func() error {
			body, err := s.attempt(ctx, method, payload)
			if err != nil {
				return err
			}
			if handle != nil {
				return handle(body)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("Retrying content api request", map[string]interface{}{
				"method":  method,
				"attempt": n + 1,
				"error":   err.Error(),
			})
		}),
	)
}

func (s *HTTPStore) attempt(ctx context.Context, method string, payload []byte) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, s.endpoint, reader)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	statusErr := &StatusError{
		Method: method,
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(body[:min(len(body), 256)])),
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, statusErr
	}
	return nil, retry.Unrecoverable(statusErr)
}
