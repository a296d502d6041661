// Package remote implements the HTTP client for the environment hub.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.trai.ch/zerr"

	"go.trai.ch/grove/internal/adapters/httpauth"
	"go.trai.ch/grove/internal/core/domain"
	"go.trai.ch/grove/internal/core/ports"
)

// Client implements ports.RemoteHub against the hub HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  ports.Logger
}

// New creates a hub client.
func New(baseURL string, timeout time.Duration, logger ports.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: httpauth.NetrcTransport(baseURL),
		},
		logger: logger,
	}
}

var _ ports.RemoteHub = (*Client)(nil)

type generationDoc struct {
	Number    int       `json:"number"`
	Manifest  []byte    `json:"manifest"`
	Lockfile  []byte    `json:"lockfile"`
	CreatedAt time.Time `json:"created_at"`
}

type pushRequest struct {
	Parent   int    `json:"parent"`
	Manifest []byte `json:"manifest"`
	Lockfile []byte `json:"lockfile"`
	Force    bool   `json:"force,omitempty"`
}

type pushResponse struct {
	Number int `json:"number"`
}

func (c *Client) envURL(owner, name string) string {
	return fmt.Sprintf("%s/api/v1/envs/%s/%s", c.baseURL, url.PathEscape(owner), url.PathEscape(name))
}

// Pull fetches a generation of owner/name. Generation 0 means latest.
func (c *Client) Pull(ctx context.Context, owner, name string, generation int) (ports.Generation, error) {
	endpoint := c.envURL(owner, name) + "/generations/latest"
	if generation > 0 {
		endpoint = fmt.Sprintf("%s/generations/%d", c.envURL(owner, name), generation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ports.Generation{}, zerr.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ports.Generation{}, zerr.Wrap(err, "failed to reach hub")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ports.Generation{}, zerr.Wrap(err, "failed to read hub response")
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return ports.Generation{}, zerr.With(zerr.With(domain.ErrGenerationNotFound, "env", owner+"/"+name), "generation", generation)
	default:
		return ports.Generation{}, zerr.With(zerr.With(zerr.New("hub pull rejected"), "status", resp.StatusCode), "body", strings.TrimSpace(string(body)))
	}

	var doc generationDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return ports.Generation{}, zerr.Wrap(err, "failed to decode generation")
	}
	return ports.Generation{
		Number:    doc.Number,
		Manifest:  doc.Manifest,
		Lockfile:  doc.Lockfile,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// Push uploads a new generation on top of gen.Number. A conflicting remote
// head surfaces as domain.ErrRemoteSyncConflict.
func (c *Client) Push(ctx context.Context, owner, name string, gen ports.Generation, force bool) (int, error) {
	payload, err := json.Marshal(pushRequest{
		Parent:   gen.Number,
		Manifest: gen.Manifest,
		Lockfile: gen.Lockfile,
		Force:    force,
	})
	if err != nil {
		return 0, zerr.Wrap(err, "failed to encode push request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.envURL(owner, name)+"/generations", bytes.NewReader(payload))
	if err != nil {
		return 0, zerr.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, zerr.Wrap(err, "failed to reach hub")
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, zerr.Wrap(err, "failed to read hub response")
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusConflict:
		return 0, zerr.With(zerr.With(domain.ErrRemoteSyncConflict, "env", owner+"/"+name), "parent", gen.Number)
	default:
		return 0, zerr.With(zerr.With(zerr.New("hub push rejected"), "status", resp.StatusCode), "body", strings.TrimSpace(string(body)))
	}

	var out pushResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, zerr.Wrap(err, "failed to decode push response")
	}
	c.logger.Info(fmt.Sprintf("pushed %s/%s generation %d", owner, name, out.Number))
	return out.Number, nil
}
