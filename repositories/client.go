package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Solvro/web-eventownik-v2-sub001/configs"
	"github.com/Solvro/web-eventownik-v2-sub001/configs/configslog"

	"go.uber.org/zap"
)

// ErrNotFound is returned when the backend answers 404 for a resource.
var ErrNotFound = errors.New("zasób nie został znaleziony")

// Client is the shared HTTP client every repository talks to the Eventownik
// backend through. The backend is a black box: this package only knows its
// URL shapes and JSON payloads.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client from the application configuration.
func NewClient() *Client {
	cfg := configs.Get()
	return NewClientWith(cfg.APIBaseURL, &http.Client{Timeout: cfg.APITimeout})
}

// NewClientWith builds a Client with an explicit base URL and HTTP client.
// Tests point it at an httptest server.
func NewClientWith(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// getJSON performs a GET against path (joined to the base URL) and decodes
// the response body into out. 404 maps to ErrNotFound; any other non-2xx
// status becomes an error carrying the status code.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		configslog.Log.Error("backend request failed", zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		configslog.Log.Error("backend returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body))
		return fmt.Errorf("backend: nieoczekiwany status %d dla %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		configslog.Log.Error("backend response decode failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("backend: niepoprawna odpowiedź dla %s: %w", path, err)
	}
	return nil
}
