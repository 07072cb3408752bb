package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/kalesha58/expense-core/internal/models"
	"go.uber.org/zap"
)

// DefaultTimeout bounds the submission request. The original client had no
// explicit timeout on this call; here it always gets one.
const DefaultTimeout = 30 * time.Second

// TransportErrorKind distinguishes transport failures so the UI can show a
// matching message category.
type TransportErrorKind string

const (
	KindTimeout     TransportErrorKind = "TIMEOUT"
	KindNetwork     TransportErrorKind = "NETWORK"
	KindServerError TransportErrorKind = "SERVER_ERROR"
	KindBadResponse TransportErrorKind = "BAD_RESPONSE"
)

// TransportError is any failure to complete the outbound request: network
// unreachable, timeout, non-2xx status, or a malformed response body.
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("submission transport failure (%s): %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client posts built payloads to the expense-creation endpoint.
type Client interface {
	Submit(ctx context.Context, payload models.CreateExpensePayload) (*models.SubmitResponse, error)
}

// HTTPClient is the production Client over net/http.
type HTTPClient struct {
	baseURL    string
	createPath string
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientConfig holds the remote endpoint configuration.
type ClientConfig struct {
	BaseURL    string
	CreatePath string
	Timeout    time.Duration
}

// NewHTTPClient creates a submission client. A zero timeout falls back to
// DefaultTimeout.
func NewHTTPClient(cfg ClientConfig, logger *zap.Logger) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		baseURL:    cfg.BaseURL,
		createPath: cfg.CreatePath,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Submit posts the payload and returns the normalized backend response.
// Failures are always *TransportError; a backend rejection (ReturnStatus
// other than success) is NOT a transport error and returns normally.
func (c *HTTPClient) Submit(ctx context.Context, payload models.CreateExpensePayload) (*models.SubmitResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &TransportError{Kind: KindBadResponse, Err: fmt.Errorf("failed to encode payload: %w", err)}
	}

	url := c.baseURL + c.createPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Submitting expense payload", zap.String("url", url), zap.Int("bytes", len(body)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Kind: classifyRequestError(err), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Kind: KindNetwork, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Submission returned non-success status",
			zap.Int("status", resp.StatusCode))
		return nil, &TransportError{
			Kind: KindServerError,
			Err:  fmt.Errorf("server returned status %d", resp.StatusCode),
		}
	}

	normalized, err := NormalizeResponse(respBody)
	if err != nil {
		return nil, &TransportError{Kind: KindBadResponse, Err: err}
	}
	return normalized, nil
}

func classifyRequestError(err error) TransportErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}
