package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BaseClient is a thin wrapper over net/http shared by the typed API
// clients. It holds the base URL, default headers and the request
// timeout; it retains no per-request state.
type BaseClient struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

func NewBaseClient(baseURL string) *BaseClient {
	return &BaseClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: make(map[string]string),
	}
}

func (c *BaseClient) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *BaseClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

func (c *BaseClient) MakeRequest(method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequest(method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status code: %d, response: %s", resp.StatusCode, string(responseBody))
	}

	return responseBody, nil
}

func (c *BaseClient) Get(endpoint string) ([]byte, error) {
	return c.MakeRequest(http.MethodGet, endpoint, nil)
}

func (c *BaseClient) Post(endpoint string, body io.Reader) ([]byte, error) {
	return c.MakeRequest(http.MethodPost, endpoint, body)
}

// GetJSON issues a GET and unmarshals the response into out.
func (c *BaseClient) GetJSON(endpoint string, out any) error {
	body, err := c.Get(endpoint)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	return nil
}

// PostJSON marshals in as the request body, issues a POST and
// unmarshals the response into out. Either side may be nil.
func (c *BaseClient) PostJSON(endpoint string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	body, err := c.Post(endpoint, reader)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	return nil
}
