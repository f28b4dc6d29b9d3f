package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/ollamate/core/core/protocol"
)

// Client talks to a local Ollama server. It implements Generator and the
// models.Lister contract.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Client from configuration.
func NewClient(cfg *Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: cfg.baseURL(),
		timeout: cfg.requestTimeout(),
		// The stream outlives any sane per-request timeout, so the overall
		// deadline is applied via context in Generate instead.
		http:   &http.Client{},
		logger: logger,
	}
}

type chatRequest struct {
	Model    string          `json:"model"`
	Messages []protocol.Turn `json:"messages"`
	Stream   bool            `json:"stream"`
}

type chatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

// Generate starts a streaming chat completion. The configured request
// timeout bounds the whole exchange, first byte to last.
func (c *Client) Generate(ctx context.Context, model string, turns []protocol.Turn) (Stream, error) {
	body, err := json.Marshal(chatRequest{Model: model, Messages: turns, Stream: true})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.DebugContext(ctx, "starting generation",
		slog.String("model", model),
		slog.Int("turns", len(turns)),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, classifyTransportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		defer cancel()
		defer resp.Body.Close()
		return nil, statusError(resp)
	}

	return &chatStream{
		body:    resp.Body,
		decoder: json.NewDecoder(resp.Body),
		cancel:  cancel,
	}, nil
}

type chatStream struct {
	body    io.ReadCloser
	decoder *json.Decoder
	cancel  context.CancelFunc
	done    bool
}

func (s *chatStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}

	var chunk chatChunk
	if err := s.decoder.Decode(&chunk); err != nil {
		if errors.Is(err, io.EOF) {
			s.done = true
			return "", io.EOF
		}
		return "", fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if chunk.Error != "" {
		s.done = true
		return "", fmt.Errorf("%w: %s", ErrBackend, chunk.Error)
	}
	if chunk.Done {
		s.done = true
		if chunk.Message.Content == "" {
			return "", io.EOF
		}
	}
	return chunk.Message.Content, nil
}

func (s *chatStream) Close() error {
	s.cancel()
	return s.body.Close()
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels fetches the names of the models installed on the backend,
// sorted. The listing timeout is the configured request timeout clamped to
// the 5–15 second window.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.listTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tags request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("%w: invalid response from /api/tags: %v", ErrBackend, err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (c *Client) listTimeout() time.Duration {
	t := c.timeout
	if t > maxListTimeout {
		t = maxListTimeout
	}
	if t < minListTimeout {
		t = minListTimeout
	}
	return t
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: request timed out", ErrBackend)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out", ErrBackend)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func statusError(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: endpoint not found, is the server running?", ErrBackend)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: server error (%d)", ErrBackend, resp.StatusCode)
	default:
		return fmt.Errorf("%w: unexpected status %s", ErrBackend, resp.Status)
	}
}
