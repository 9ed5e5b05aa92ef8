package webdav

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// client is a thin wrapper over net/http for the handful of WebDAV verbs the
// provider needs. Authentication is a Basic credential on every request.
type client struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

func newClient(baseURL, username, password string) *client {
	return &client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		http:     &http.Client{},
	}
}

// do issues one request against baseURL+path and returns the status code and
// response body. Callers decide which statuses mean what; transport errors
// come back as errors.
func (c *client) do(ctx context.Context, method, path string, body []byte, headers map[string]string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

// Get fetches a resource. A 404 reports found=false rather than an error.
func (c *client) Get(ctx context.Context, path string) (data []byte, found bool, err error) {
	status, body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, false, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, false, nil
	case status >= 200 && status < 300:
		return body, true, nil
	default:
		return nil, false, fmt.Errorf("GET %s: unexpected status %d", path, status)
	}
}

// Put creates or replaces a resource.
func (c *client) Put(ctx context.Context, path string, body []byte) error {
	status, _, err := c.do(ctx, http.MethodPut, path, body, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("PUT %s: unexpected status %d", path, status)
	}
	return nil
}

// Delete removes a resource. Deleting an absent resource succeeds.
func (c *client) Delete(ctx context.Context, path string) (existed bool, err error) {
	status, _, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return false, err
	}
	switch {
	case status == http.StatusNotFound:
		return false, nil
	case status >= 200 && status < 300:
		return true, nil
	default:
		return false, fmt.Errorf("DELETE %s: unexpected status %d", path, status)
	}
}

// Mkcol creates a collection. Servers answer 405 when it already exists,
// which counts as success.
func (c *client) Mkcol(ctx context.Context, path string) error {
	status, _, err := c.do(ctx, "MKCOL", path, nil, nil)
	if err != nil {
		return err
	}
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusMethodNotAllowed:
		// Collection already exists.
		return nil
	default:
		return fmt.Errorf("MKCOL %s: unexpected status %d", path, status)
	}
}

// Propfind issues a PROPFIND at the given depth and returns the raw
// multistatus body. The request body is the DAV propfind document asking for
// displayname, getlastmodified, getcontentlength and resourcetype.
func (c *client) Propfind(ctx context.Context, path string, depth int) ([]byte, error) {
	headers := map[string]string{
		"Depth":        fmt.Sprintf("%d", depth),
		"Content-Type": "application/xml",
	}
	status, body, err := c.do(ctx, "PROPFIND", path, []byte(propfindBody), headers)
	if err != nil {
		return nil, err
	}
	if status != http.StatusMultiStatus && (status < 200 || status >= 300) {
		return nil, fmt.Errorf("PROPFIND %s: unexpected status %d", path, status)
	}
	return body, nil
}
