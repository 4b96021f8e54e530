// Package backend talks to the sync backend: stream resolution and durable progress.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vidora/vidora/log"
	"github.com/vidora/vidora/network"
	"github.com/vidora/vidora/progress"
	"github.com/vidora/vidora/resolver"
	"github.com/vidora/vidora/video"
	"golang.org/x/oauth2"
)

var (
	ErrUnauthorized = errors.New("backend rejected the token")
	ErrNoBaseURL    = errors.New("backend url is not configured")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Code, http.StatusText(e.Code), e.Body)
}

// ProgressRecord is the backend's view of an item's progress.
type ProgressRecord struct {
	ProgressSeconds float64    `json:"progress_seconds"`
	Watched         bool       `json:"watched,omitempty"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

type progressBody struct {
	ProgressSeconds float64 `json:"progress_seconds"`
}

type Client struct {
	base *url.URL
	http *http.Client
	log  *logrus.Entry
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// Token authenticates requests. Nil sends them unauthenticated.
	Token oauth2.TokenSource
	// HTTP overrides the underlying client, for tests.
	HTTP *http.Client
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, ErrNoBaseURL
	}

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q must be http or https", opts.BaseURL)
	}

	hc := opts.HTTP
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = network.New(timeout)
	}

	if opts.Token != nil {
		hc = &http.Client{
			Timeout: hc.Timeout,
			Transport: &oauth2.Transport{
				Source: opts.Token,
				Base:   hc.Transport,
			},
		}
	}

	return &Client{base: base, http: hc, log: log.Component("backend")}, nil
}

// StreamInfo fetches GET /stream/{platform}/{id}.
func (c *Client) StreamInfo(ctx context.Context, platform video.Platform, id string) (*video.StreamInfo, error) {
	var info video.StreamInfo
	p := "/stream/" + url.PathEscape(string(platform)) + "/" + url.PathEscape(id)

	if err := c.do(ctx, http.MethodGet, p, nil, &info); err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Code == http.StatusNotFound || se.Code == http.StatusUnprocessableEntity) {
			return nil, fmt.Errorf("%w: %v", resolver.ErrUnavailable, err)
		}
		return nil, err
	}

	if !info.HasStream() {
		return nil, resolver.ErrUnavailable
	}
	return &info, nil
}

// Resolve makes the client a resolver.Resolver.
func (c *Client) Resolve(ctx context.Context, platform video.Platform, id string) (*video.StreamInfo, error) {
	return c.StreamInfo(ctx, platform, id)
}

// SaveProgress PUTs the position to the progress route of the item's source.
func (c *Client) SaveProgress(ctx context.Context, item video.Item, seconds float64) error {
	_, err := c.put(ctx, item, "progress", seconds)
	return err
}

// MarkWatched PUTs to the watched route of the item's source.
func (c *Client) MarkWatched(ctx context.Context, item video.Item, seconds float64) error {
	_, err := c.put(ctx, item, "watched", seconds)
	return err
}

func (c *Client) put(ctx context.Context, item video.Item, action string, seconds float64) (*ProgressRecord, error) {
	prefix, err := sourcePath(item)
	if err != nil {
		return nil, err
	}

	var record ProgressRecord
	if err := c.do(ctx, http.MethodPut, prefix+"/"+action, progressBody{ProgressSeconds: seconds}, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// sourcePath is the route prefix of the item's source record.
func sourcePath(item video.Item) (string, error) {
	if item.SourceID == "" {
		return "", fmt.Errorf("item %s has no source id: %w", item.Key(), progress.ErrUnaddressable)
	}
	id := url.PathEscape(item.SourceID)

	switch item.SourceType {
	case video.FeedItem:
		return "/feed/" + id, nil
	case video.SavedVideo:
		return "/videos/" + id, nil
	case video.CollectionItem:
		if item.CollectionID == "" {
			return "", fmt.Errorf("collection item %s has no collection id: %w", item.Key(), progress.ErrUnaddressable)
		}
		return "/collections/" + url.PathEscape(item.CollectionID) + "/items/" + id, nil
	default:
		return "", fmt.Errorf("unknown source type %q: %w", item.SourceType, progress.ErrUnaddressable)
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	entry := c.log.WithFields(logrus.Fields{"method": method, "path": path})
	entry.Debug("request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
