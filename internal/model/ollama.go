package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	apperrors "github.com/deskai/deskai/internal/errors"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 32 << 20

// ClientConfig configures the inference client.
type ClientConfig struct {
	BaseURL        string        // Default: http://localhost:11434
	Timeout        time.Duration // generation timeout, order of minutes
	StatusTimeout  time.Duration // probe/listing timeout, order of seconds
	StrictResponse bool          // missing "response" field is an error
}

// DefaultClientConfig returns default configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       "http://localhost:11434",
		Timeout:       120 * time.Second,
		StatusTimeout: 3 * time.Second,
	}
}

// Client talks to the local inference service over HTTP.
type Client struct {
	cfg         *ClientConfig
	http        *http.Client
	catalog     *Catalog
	probePolicy *apperrors.Policy
	logger      zerolog.Logger
}

// NewClient creates a new inference client. The catalog supplies the
// fallback model listing.
func NewClient(cfg *ClientConfig, catalog *Catalog, logger zerolog.Logger) *Client {
	if cfg == nil {
		cfg = DefaultClientConfig()
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Client{
		cfg:         cfg,
		http:        &http.Client{},
		catalog:     catalog,
		probePolicy: apperrors.ProbePolicy(),
		logger:      logger.With().Str("component", "inference").Logger(),
	}
}

// WithProbePolicy replaces the retry policy used by CheckStatus.
func (c *Client) WithProbePolicy(p *apperrors.Policy) *Client {
	c.probePolicy = p
	return c
}

// Generate sends a prompt to the inference service and returns the text.
// A zero timeout uses the configured generation timeout.
func (c *Client) Generate(ctx context.Context, prompt, model string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	jsonBody, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/api/generate"), bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	status, body, err := c.do(httpReq)
	if err != nil {
		c.logger.Warn().Err(err).Str("model", model).Msg("generate failed")
		return "", err
	}
	c.logger.Debug().
		Str("model", model).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("generate completed")

	if status < 200 || status > 299 {
		return "", apperrors.BackendProtocol(
			fmt.Sprintf("inference service returned status %d", status),
			fmt.Errorf("%s", errorText(body)))
	}

	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		return "", apperrors.BackendProtocol("inference response is not a JSON object", nil)
	}
	if e := gjson.GetBytes(body, "error"); e.Exists() {
		return "", apperrors.BackendProtocol("inference service reported an error", fmt.Errorf("%s", e.String()))
	}

	text := gjson.GetBytes(body, "response")
	if !text.Exists() || text.Type != gjson.String {
		if c.cfg.StrictResponse {
			return "", apperrors.BackendProtocol("inference response has no \"response\" field", nil)
		}
		c.logger.Warn().Str("model", model).Msg("inference response has no \"response\" field")
		return NoResponseText, nil
	}
	return text.String(), nil
}

// ListModels queries the service's model list. When the service is
// unreachable or lists nothing, the static catalog is returned with
// SourceFallback so callers can tell the difference.
func (c *Client) ListModels(ctx context.Context) ModelList {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StatusTimeout)
	defer cancel()

	fallback := ModelList{Models: c.catalog.IDs(), Source: SourceFallback}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/api/tags"), nil)
	if err != nil {
		return fallback
	}

	status, body, err := c.do(httpReq)
	if err != nil {
		c.logger.Info().Err(err).Msg("model listing unavailable, using catalog")
		return fallback
	}
	if status != http.StatusOK || !gjson.ValidBytes(body) {
		c.logger.Info().Int("status", status).Msg("model listing failed, using catalog")
		return fallback
	}

	var names []string
	for _, n := range gjson.GetBytes(body, "models.#.name").Array() {
		if name := strings.TrimSpace(n.String()); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return fallback
	}
	return ModelList{Models: names, Source: SourceLive}
}

// CheckStatus probes the service with a short timeout. Unreachable
// services are retried a few times with backoff. Any final failure
// reports installed=false.
func (c *Client) CheckStatus(ctx context.Context) Status {
	version, err := apperrors.DoWithResult(ctx, c.probePolicy, func() (string, error) {
		return c.probe(ctx)
	})
	if err != nil {
		return Status{
			Installed: false,
			Running:   false,
			Message:   fmt.Sprintf("Inference service not available at %s: %v", c.cfg.BaseURL, err),
		}
	}
	msg := "Inference service is running"
	if version != "" {
		msg += " (version " + version + ")"
	}
	return Status{Installed: true, Running: true, Message: msg, Version: version}
}

func (c *Client) probe(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StatusTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/api/version"), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	status, body, err := c.do(httpReq)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", apperrors.BackendProtocol(fmt.Sprintf("status probe returned %d", status), nil)
	}
	return gjson.GetBytes(body, "version").String(), nil
}

// do sends the request and reads the body. Transport failures, including
// timeouts, are BackendUnavailable.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, apperrors.BackendUnavailable(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, apperrors.BackendUnavailable(fmt.Errorf("failed to read response: %w", err))
	}
	return resp.StatusCode, body, nil
}

func (c *Client) url(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

func errorText(body []byte) string {
	if e := gjson.GetBytes(body, "error"); e.Exists() {
		return e.String()
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
