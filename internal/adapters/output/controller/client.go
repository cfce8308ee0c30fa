// Package controller talks to an LED controller's REST API.
package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"led-effect-editor/internal/domain/model"
	"led-effect-editor/internal/ports"
)

type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

var (
	_ ports.EffectSource = (*Client)(nil)
	_ ports.PresetSaver  = (*Client)(nil)
)

func NewClient(baseURL string, timeout time.Duration, logger *zap.SugaredLogger) *Client {
	return &Client{
		url:        strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// HTTPClient exposes the underlying client so tests can intercept it.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// FetchInitialData loads everything the editor needs in parallel. The first
// failing request cancels the others.
func (c *Client) FetchInitialData(ctx context.Context) (*model.InitialData, error) {
	data := &model.InitialData{}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.do(ctx, http.MethodGet, "/api/effects", nil, &data.Effects) })
	g.Go(func() error { return c.do(ctx, http.MethodGet, "/api/segments", nil, &data.Segments) })
	g.Go(func() error { return c.do(ctx, http.MethodGet, "/api/presets", nil, &data.Presets) })
	g.Go(func() error { return c.do(ctx, http.MethodGet, "/api/state", nil, &data.State) })
	g.Go(func() error { return c.do(ctx, http.MethodGet, "/api/config", nil, &data.Config) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if data.Effects == nil {
		data.Effects = map[string]model.EffectDescriptor{}
	}
	return data, nil
}

func (c *Client) ApplyPreset(ctx context.Context, name string) (*model.DisplayState, error) {
	var state model.DisplayState
	path := "/api/presets/" + url.PathEscape(name) + "/load"
	if err := c.do(ctx, http.MethodPost, path, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) ApplyEffectConfig(ctx context.Context, effect string, config model.Config) error {
	path := "/api/effects/" + url.PathEscape(effect) + "/config"
	return c.do(ctx, http.MethodPut, path, config, nil)
}

func (c *Client) SavePreset(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPut, "/api/presets/"+url.PathEscape(name), nil, nil)
}

// AssignEffect runs effect on a segment.
func (c *Client) AssignEffect(ctx context.Context, segment int, effect string) (*model.DisplayState, error) {
	var state model.DisplayState
	path := fmt.Sprintf("/api/segments/%d/effect", segment)
	body := map[string]string{"effect": effect}
	if err := c.do(ctx, http.MethodPut, path, body, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, reader)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debugw("Controller call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("controller API error: %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
