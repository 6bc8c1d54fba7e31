package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/boddenberg/mint-dashboard-bfa/internal/infra/resilience"
)

// ============================================================
// HTTP helpers for POST and PATCH
// ============================================================

// doWrite sends a JSON body once (writes are never retried) and decodes
// the returned representation into a slice of T.
func doWrite[T any](ctx context.Context, c *Client, method, service, path string, data any) ([]T, error) {
	jsonBody, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", service, err)
	}

	var rows []T
	err = c.guard.DoOnce(ctx, service, func(ctx context.Context) error {
		req, err := c.newRequest(ctx, method, path, bytes.NewReader(jsonBody))
		if err != nil {
			return resilience.Permanent(err)
		}
		body, err := c.do(req)
		if err != nil {
			return err
		}
		if len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, &rows); err != nil {
			return resilience.Permanent(fmt.Errorf("decode %s: %w", service, err))
		}
		return nil
	})
	return rows, err
}

func doPost[T any](ctx context.Context, c *Client, table string, data any) ([]T, error) {
	return doWrite[T](ctx, c, http.MethodPost, "supabase/"+table, table, data)
}

func doPatch[T any](ctx context.Context, c *Client, table, path string, data any) ([]T, error) {
	return doWrite[T](ctx, c, http.MethodPatch, "supabase/"+table, path, data)
}
