// Package podman is a narrow client for the libpod secrets HTTP API,
// reachable over a local unix socket or a TCP endpoint. It owns request
// marshalling and the mapping of transport and status failures onto the
// gateway's error taxonomy; no business rules live here.
package podman

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultHost is used when no endpoint is configured.
	DefaultHost = "unix:///run/podman/podman.sock"

	apiBasePath    = "/v4.0.0/libpod"
	defaultTimeout = 30 * time.Second
)

type Config struct {
	// Host is unix:///path/to/podman.sock or tcp://host:port.
	Host string
	// Connection is a display label for the health endpoint.
	Connection string
	Timeout    time.Duration
}

type Client struct {
	http       *http.Client
	baseURL    string
	host       string
	connection string
}

// New builds a client for the configured endpoint. Unix hosts get a
// transport that dials the socket; tcp:// hosts speak plain HTTP.
func New(cfg Config) (*Client, error) {
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		host:       host,
		connection: cfg.Connection,
	}

	switch {
	case strings.HasPrefix(host, "unix://"):
		socketPath := strings.TrimPrefix(host, "unix://")
		transport := &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		}
		// The authority part is ignored by the socket transport but must
		// parse as a URL host.
		c.baseURL = "http://d" + apiBasePath
		c.http = &http.Client{Transport: transport, Timeout: timeout}
	case strings.HasPrefix(host, "tcp://"):
		c.baseURL = "http://" + strings.TrimPrefix(host, "tcp://") + apiBasePath
		c.http = &http.Client{Timeout: timeout}
	case strings.HasPrefix(host, "http://"), strings.HasPrefix(host, "https://"):
		c.baseURL = strings.TrimRight(host, "/") + apiBasePath
		c.http = &http.Client{Timeout: timeout}
	default:
		return nil, fmt.Errorf("unsupported podman host %q: expected unix://, tcp:// or http(s)://", host)
	}
	return c, nil
}

// Host returns the configured endpoint, for health reporting.
func (c *Client) Host() string { return c.host }

// Connection returns the configured connection label, for health reporting.
func (c *Client) Connection() string { return c.connection }

// ListSecrets fetches all secrets known to the remote store.
func (c *Client) ListSecrets(ctx context.Context) ([]SecretInfoReport, error) {
	var reports []SecretInfoReport
	if err := c.do(ctx, http.MethodGet, "/secrets/json", nil, nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// CreateSecret registers a new secret. The data is write-once; podman
// never returns it again.
func (c *Client) CreateSecret(ctx context.Context, name string, data []byte, driver string) (SecretCreateReport, error) {
	body := map[string]any{
		"data": base64.StdEncoding.EncodeToString(data),
		"driver": map[string]string{
			"name": driver,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return SecretCreateReport{}, err
	}

	q := url.Values{}
	q.Set("name", name)

	var report SecretCreateReport
	if err := c.do(ctx, http.MethodPost, "/secrets/create", q, bytes.NewReader(payload), &report); err != nil {
		return SecretCreateReport{}, err
	}
	return report, nil
}

// InspectSecret fetches metadata for one secret by id or name.
func (c *Client) InspectSecret(ctx context.Context, id string) (SecretInfoReport, error) {
	var report SecretInfoReport
	if err := c.do(ctx, http.MethodGet, "/secrets/"+url.PathEscape(id)+"/json", nil, nil, &report); err != nil {
		return SecretInfoReport{}, err
	}
	return report, nil
}

// RemoveSecret deletes a secret by id or name.
func (c *Client) RemoveSecret(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/secrets/"+url.PathEscape(id), nil, nil, nil)
}

// Version reports the remote podman version; used by the health endpoint.
func (c *Client) Version(ctx context.Context) (VersionReport, error) {
	var report VersionReport
	if err := c.do(ctx, http.MethodGet, "/version", nil, nil, &report); err != nil {
		return VersionReport{}, err
	}
	return report, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body *bytes.Reader, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, u, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u, nil)
	}
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	op := method + " " + path
	if resp.StatusCode >= 400 {
		return c.mapStatus(op, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: malformed response for %s: %v", ErrUnavailable, op, err)
	}
	return nil
}

func (c *Client) mapStatus(op string, resp *http.Response) error {
	var report errorReport
	_ = json.NewDecoder(resp.Body).Decode(&report)
	msg := report.Message
	if msg == "" {
		msg = report.Cause
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrSecretNotFound
	case resp.StatusCode == http.StatusConflict,
		strings.Contains(msg, "already exists"):
		return ErrSecretExists
	}
	return &APIError{Op: op, StatusCode: resp.StatusCode, Message: msg}
}
