// Package genai asks a remote generator for a point cloud matching a text
// prompt.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/Faultbox/handcloud/internal/logger"
	"github.com/Faultbox/handcloud/pkg/math"
)

// Extent bounds every returned coordinate.
const Extent = 1.5

// ErrDisabled is returned when no endpoint is configured.
var ErrDisabled = errors.New("genai: no endpoint configured")

// Client talks to the generator service.
type Client struct {
	Endpoint string
	Timeout  time.Duration
	HTTP     *http.Client
}

// New creates a client for endpoint.
func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		Endpoint: endpoint,
		Timeout:  timeout,
		HTTP:     &http.Client{},
	}
}

type request struct {
	Prompt    string `json:"prompt"`
	Count     int    `json:"count"`
	RequestID string `json:"request_id"`
}

type response struct {
	RequestID string      `json:"request_id,omitempty"`
	Points    [][]float32 `json:"points"`
	Error     string      `json:"error,omitempty"`
}

// Generate requests up to count points for prompt. On any failure it returns
// an empty, non-nil slice together with the error, so callers that ignore the
// error simply see "no target yet".
func (c *Client) Generate(ctx context.Context, prompt string, count int) ([]math.Vec3, error) {
	empty := []math.Vec3{}
	if c.Endpoint == "" {
		return empty, ErrDisabled
	}
	// Prompts typed through IME or pasted text may arrive decomposed.
	prompt = norm.NFC.String(strings.TrimSpace(prompt))
	if prompt == "" {
		return empty, errors.New("genai: empty prompt")
	}
	if count <= 0 {
		return empty, fmt.Errorf("genai: invalid point count %d", count)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	id := uuid.NewString()
	body, err := json.Marshal(request{Prompt: prompt, Count: count, RequestID: id})
	if err != nil {
		return empty, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return empty, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return empty, fmt.Errorf("requesting shape: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return empty, fmt.Errorf("generator returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return empty, fmt.Errorf("decoding response: %w", err)
	}
	if out.Error != "" {
		return empty, fmt.Errorf("generator error: %s", out.Error)
	}

	points := convert(out.Points, count)
	if len(points) == 0 {
		return empty, errors.New("genai: generator returned no points")
	}

	logger.Debug("shape generated",
		zap.String("request_id", id),
		zap.String("prompt", prompt),
		zap.Int("points", len(points)),
		zap.Duration("took", time.Since(start)))
	return points, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

// convert keeps well-formed points, clamped to the cloud extent, up to limit.
func convert(raw [][]float32, limit int) []math.Vec3 {
	n := len(raw)
	if n > limit {
		n = limit
	}
	points := make([]math.Vec3, 0, n)
	for _, p := range raw {
		if len(points) == limit {
			break
		}
		if len(p) < 3 {
			continue
		}
		points = append(points, math.Vec3{
			X: math.Clamp(p[0], -Extent, Extent),
			Y: math.Clamp(p[1], -Extent, Extent),
			Z: math.Clamp(p[2], -Extent, Extent),
		})
	}
	return points
}

// Result is the outcome of an asynchronous request.
type Result struct {
	Prompt string
	Points []math.Vec3
	Err    error
}

// Async runs Generate in the background. The returned channel yields exactly
// one Result and is then closed.
func (c *Client) Async(ctx context.Context, prompt string, count int) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		points, err := c.Generate(ctx, prompt, count)
		if err != nil && !errors.Is(err, ErrDisabled) {
			logger.Warn("shape generation failed", zap.String("prompt", prompt), zap.Error(err))
		}
		ch <- Result{Prompt: prompt, Points: points, Err: err}
	}()
	return ch
}
