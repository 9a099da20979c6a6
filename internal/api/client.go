// Package api is a client for the tcash wallet REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tcash-app/tcash/internal/model"
)

// DefaultBaseURL is the hosted wallet API.
const DefaultBaseURL = "https://tcash-api.onrender.com/api"

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client calls the wallet API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient creates a Client for baseURL. A nil httpClient gets a 15 second timeout.
func NewClient(baseURL string, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
}

// Balance returns the user's balance. A body without a usable balance counts
// as zero.
func (c *Client) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var body balanceResponse
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), &body); err != nil {
		return decimal.Zero, err
	}
	return body.amount(), nil
}

// Transactions returns the user's transactions in the order the API sent them.
func (c *Client) Transactions(ctx context.Context, userID string) ([]model.Transaction, error) {
	var txs []model.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions/"+url.PathEscape(userID), &txs); err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	return txs, nil
}

// DeleteTransaction deletes one transaction. The response body is ignored.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/transactions/delete/"+strconv.FormatInt(id, 10), nil)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}
	c.logger.Debug().
		Str("request_id", reqID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: excerpt(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func excerpt(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) > 200 {
		return string(body[:200]) + "..."
	}
	return string(body)
}
