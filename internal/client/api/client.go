// Package api is the HTTP transport for the chesstempo game service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

// DefaultBaseURL is where a locally started service listens.
const DefaultBaseURL = "http://127.0.0.1:9999/api"

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Log        logr.Logger
}

// New returns a client without a request timeout; the service is expected
// to be local and every call blocks for the full round trip.
func New(baseURL string, log logr.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		Log:        log.WithName("api"),
	}
}

// SetBaseURL updates the API base URL for the client
func (c *Client) SetBaseURL(url string) {
	c.BaseURL = strings.TrimRight(url, "/")
}

// Get decodes the JSON response of GET path into result, if non-nil.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	respBody, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return decode(respBody, result)
}

// Post sends body as JSON, if non-nil, and decodes the response into result, if non-nil.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	respBody, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return decode(respBody, result)
}

// Raw performs a request and returns the response body undecoded. The body
// is returned alongside a *StatusError as well.
func (c *Client) Raw(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	return c.do(ctx, strings.ToUpper(method), path, body)
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	url := c.BaseURL + path

	var bodyReader io.Reader
	var bodyData []byte
	if body != nil {
		var err error
		bodyData, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.Log.WithValues("method", method, "path", path, "requestId", requestID)
	if len(bodyData) > 0 {
		log.V(2).Info("Request body", "body", string(bodyData))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.V(1).Info("Request failed", "error", err.Error())
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	log.V(1).Info("Response", "status", resp.StatusCode)
	if len(respBody) > 0 {
		log.V(2).Info("Response body", "body", string(respBody))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return respBody, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       respBody,
		}
	}

	return respBody, nil
}

func decode(data []byte, result interface{}) error {
	if result == nil {
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrEmptyResponse
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
