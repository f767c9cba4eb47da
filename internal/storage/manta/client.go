// Package manta implements the storage client for Manta-style
// hierarchical object stores: objects and directories live in one
// namespace, objects are replicated per a durability-level header, and
// requests are authenticated with http-signature.
package manta

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/tarput-io/tarput/internal/netx"
	"github.com/tarput-io/tarput/internal/storage"
)

const (
	defaultContentType = "application/octet-stream"
	dirContentType     = "application/json; type=directory"

	headerDurability = "durability-level"
	headerRequestID  = "x-request-id"
)

// Config carries what the client needs to talk to one store.
type Config struct {
	// URL is the store's base endpoint, e.g. https://us-central.store.example.com.
	URL string

	// Signer authenticates requests. Nil disables signing, which only
	// makes sense against unauthenticated test servers.
	Signer *Signer

	// HTTPClient overrides the transport; nil gets a default client.
	HTTPClient *http.Client
}

// Client talks to one Manta-style store.
type Client struct {
	base   *url.URL
	signer *Signer
	http   *http.Client
}

// New builds a client from cfg.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse store url %q: %w", cfg.URL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("store url %q: scheme must be http or https", cfg.URL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = netx.NewHTTPClient(0)
	}

	return &Client{base: base, signer: cfg.Signer, http: httpClient}, nil
}

// Put uploads one object to p.
func (c *Client) Put(ctx context.Context, p string, body io.Reader, opts storage.PutOptions) error {
	req, err := c.newRequest(ctx, p, body)
	if err != nil {
		return &storage.Error{Op: "put", Path: p, Err: err}
	}
	req.ContentLength = opts.Size

	ct := opts.ContentType
	if ct == "" {
		ct = defaultContentType
	}
	req.Header.Set("Content-Type", ct)
	if opts.Copies > 0 {
		req.Header.Set(headerDurability, strconv.Itoa(opts.Copies))
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	return c.do(req, "put", p)
}

// Mkdirp creates dir and any missing intermediate directories. Levels
// are created top-down; each PUT is idempotent on the store side, so
// re-creating an existing directory succeeds.
func (c *Client) Mkdirp(ctx context.Context, dir string) error {
	for _, p := range dirChain(dir) {
		req, err := c.newRequest(ctx, p, nil)
		if err != nil {
			return &storage.Error{Op: "mkdirp", Path: p, Err: err}
		}
		req.Header.Set("Content-Type", dirContentType)
		if err := c.do(req, "mkdirp", p); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, p string, body io.Reader) (*http.Request, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + p
	return http.NewRequestWithContext(ctx, http.MethodPut, u.String(), body)
}

func (c *Client) do(req *http.Request, op, p string) error {
	req.Header.Set(headerRequestID, uuid.NewString())
	if c.signer != nil {
		if err := c.signer.SignRequest(req); err != nil {
			return &storage.Error{Op: op, Path: p, Err: err}
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &storage.Error{Op: op, Path: p, Err: err}
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		netx.DrainAndClose(resp.Body)
		return nil
	}
	return c.errorFromResponse(resp, op, p)
}

// errorFromResponse maps a non-2xx response to the error taxonomy. The
// store reports failures as JSON bodies with code and message fields.
func (c *Client) errorFromResponse(resp *http.Response, op, p string) error {
	body := netx.ReadErrorBody(resp)

	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &payload)

	kind := storage.KindOther
	switch payload.Code {
	case "DirectoryDoesNotExistError", "ParentNotDirectoryError":
		kind = storage.KindMissingParent
	}

	return &storage.Error{
		Kind:       kind,
		Op:         op,
		Path:       p,
		StatusCode: resp.StatusCode,
		Code:       payload.Code,
		Message:    payload.Message,
	}
}

// dirChain lists the directory levels to create for dir, top-down. The
// first two components of the path (the account root and its top-level
// area, e.g. /alice/stor) always exist and are skipped.
func dirChain(dir string) []string {
	parts := strings.Split(strings.Trim(dir, "/"), "/")
	if len(parts) <= 2 {
		return nil
	}

	chain := make([]string, 0, len(parts)-2)
	for i := 3; i <= len(parts); i++ {
		chain = append(chain, "/"+strings.Join(parts[:i], "/"))
	}
	return chain
}
