package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/iho/charityledger/internal/adapter/http/dto"
	"github.com/iho/charityledger/internal/adapter/http/middleware"
)

// apiClient talks to the charityledger HTTP API.
type apiClient struct {
	baseURL        string
	http           *http.Client
	token          string
	principal      string
	idempotencyKey string
}

func newAPIClient(opts *rootOptions) *apiClient {
	return &apiClient{
		baseURL:        opts.baseURL,
		http:           &http.Client{Timeout: opts.timeout},
		token:          opts.token,
		principal:      opts.principal,
		idempotencyKey: opts.idempotencyKey,
	}
}

// apiError is a non-2xx response decoded from the API error body.
type apiError struct {
	Status int
	Body   dto.ErrorResponse
}

func (e *apiError) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("%s (status %d, code %d): %s", e.Body.Error, e.Status, e.Body.Code, e.Body.Message)
	}
	return fmt.Sprintf("%s (status %d, code %d)", e.Body.Error, e.Status, e.Body.Code)
}

func (c *apiClient) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *apiClient) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *apiClient) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.principal != "" {
		req.Header.Set(middleware.PrincipalHeader, c.principal)
	}
	if method == http.MethodPost {
		key := c.idempotencyKey
		if key == "" {
			key = uuid.NewString()
		}
		req.Header.Set(middleware.IdempotencyKeyHeader, key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(data, &apiErr.Body); jsonErr != nil || apiErr.Body.Error == "" {
			apiErr.Body.Error = http.StatusText(resp.StatusCode)
			apiErr.Body.Message = string(bytes.TrimSpace(data))
		}
		return nil, apiErr
	}

	return json.RawMessage(data), nil
}
