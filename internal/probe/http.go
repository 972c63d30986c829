package probe

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPCheck issues one authenticated request and treats any 2xx as success.
// The token goes into Header (default Authorization), prefixed by Scheme when
// set. The target is URL, or the BaseURLField value joined with Path.
type HTTPCheck struct {
	Client         *http.Client
	Method         string
	URL            string
	BaseURLField   string
	DefaultBaseURL string
	Path           string
	TokenField     string
	Header         string
	Scheme         string
	Extra          map[string]string
}

func (c *HTTPCheck) Check(ctx context.Context, fields map[string]string) (*Result, error) {
	endpoint, err := c.endpoint(fields)
	if err != nil {
		return nil, err
	}
	token := strings.TrimSpace(fields[c.TokenField])
	if token == "" {
		return nil, fmt.Errorf("missing %s", c.TokenField)
	}

	method := c.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	header := c.Header
	if header == "" {
		header = "Authorization"
	}
	if c.Scheme != "" {
		token = c.Scheme + " " + token
	}
	req.Header.Set(header, token)
	req.Header.Set("Accept", "application/json")
	for k, v := range c.Extra {
		req.Header.Set(k, v)
	}

	res := &Result{Endpoint: endpoint, Method: method}
	start := time.Now()

	resp, err := c.client().Do(req)
	if err != nil {
		res.Latency = time.Since(start)
		res.Message = fmt.Sprintf("connection failed: %v", err)
		return res, nil
	}
	defer func() { _ = resp.Body.Close() }()

	return classify(res, resp.StatusCode, start), nil
}

func (c *HTTPCheck) endpoint(fields map[string]string) (string, error) {
	if c.BaseURLField == "" {
		return c.URL, nil
	}
	base := strings.TrimSpace(fields[c.BaseURLField])
	if base == "" {
		base = c.DefaultBaseURL
	}
	if base == "" {
		return "", fmt.Errorf("missing %s", c.BaseURLField)
	}
	return strings.TrimRight(base, "/") + c.Path, nil
}

func (c *HTTPCheck) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}
