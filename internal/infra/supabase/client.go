// Package supabase provides a client for Supabase (PostgREST + Auth).
// It implements the record fetchers and the draft store used by the
// dashboard, plus the session provider backed by Supabase Auth.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/resilience"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to Supabase PostgREST API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	guard          *resilience.Guard
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, guard *resilience.Guard, logger *zap.Logger) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		guard:          guard,
		logger:         logger,
	}
}

// eq builds a PostgREST equality filter value.
func eq(v string) string {
	return "eq." + url.QueryEscape(v)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	return req, nil
}

// do executes an authenticated request to Supabase PostgREST. 4xx answers
// are marked permanent so the guard does not retry them.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("supabase: failed to read response body",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		err := fmt.Errorf("supabase returned status %d: %s", resp.StatusCode, string(body))
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, resilience.Permanent(err)
		}
		return nil, err
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
	)
	return body, nil
}

// selectRows runs a guarded GET and decodes a JSON array of T.
// An empty body decodes to an empty, non-nil slice.
func selectRows[T any](ctx context.Context, c *Client, service, path string) ([]T, error) {
	ctx, span := tracer.Start(ctx, "Supabase.select")
	defer span.End()
	span.SetAttributes(attribute.String("supabase.service", service))

	var rows []T
	err := c.guard.Do(ctx, service, func(ctx context.Context) error {
		req, err := c.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return resilience.Permanent(err)
		}
		body, err := c.do(req)
		if err != nil {
			return err
		}
		if len(body) == 0 {
			rows = []T{}
			return nil
		}
		var decoded []T
		if err := json.Unmarshal(body, &decoded); err != nil {
			return resilience.Permanent(fmt.Errorf("decode %s: %w", service, err))
		}
		rows = decoded
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// selectOne is selectRows for zero-or-one-row tables.
func selectOne[T any](ctx context.Context, c *Client, service, path string) (*T, error) {
	rows, err := selectRows[T](ctx, c, service, path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
