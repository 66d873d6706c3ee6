package backend

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

	"github.com/rs/zerolog/log"

	apperrors "github.com/aiworkforce/dashboard-server-go/internal/errors"
)

// maxErrorBody bounds how much of a failed response is read for its detail.
const maxErrorBody = 64 << 10

// Client talks to the external dashboard backend. Every resource call is a
// plain REST request authorized with the user's bearer token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type request struct {
	method string
	path   string
	query  url.Values
	token  string
	body   io.Reader
	ctype  string
}

func jsonRequest(method, path, token string, payload any) (request, error) {
	req := request{method: method, path: path, token: token}
	if payload == nil {
		return req, nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("marshal payload: %w", err)
	}
	req.body = bytes.NewReader(body)
	req.ctype = "application/json"
	return req, nil
}

// do sends the request and returns the response for 2xx statuses. Any other
// status is converted into an Upstream AppError carrying the backend detail.
func (c *Client) do(ctx context.Context, r request) (*http.Response, error) {
	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.ctype != "" {
		req.Header.Set("Content-Type", r.ctype)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Str("method", r.method).
			Str("path", r.path).
			Dur("elapsed", elapsed).
			Msg("backend request error")
		return nil, apperrors.External("backend", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		detail := readDetail(resp)
		log.Warn().
			Str("method", r.method).
			Str("path", r.path).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Str("detail", detail).
			Msg("backend request failed")
		return nil, apperrors.Upstream(resp.StatusCode, detail)
	}

	log.Debug().
		Str("method", r.method).
		Str("path", r.path).
		Int("status", resp.StatusCode).
		Dur("elapsed", elapsed).
		Msg("backend request")

	return resp, nil
}

// call sends the request and decodes a 2xx JSON body into out. A nil out
// discards the body.
func (c *Client) call(ctx context.Context, r request, what string, out any) error {
	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Decode(what, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path, token string, query url.Values, what string, out any) error {
	return c.call(ctx, request{method: http.MethodGet, path: path, token: token, query: query}, what, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path, token string, payload any, what string, out any) error {
	req, err := jsonRequest(method, path, token, payload)
	if err != nil {
		return err
	}
	return c.call(ctx, req, what, out)
}

type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

type validationDetail struct {
	Msg string `json:"msg"`
}

// readDetail extracts the backend's error message. The detail field is either
// a string or a list of validation entries with a msg field.
func readDetail(resp *http.Response) string {
	fallback := fmt.Sprintf("Request failed with status %d", resp.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return fallback
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return fallback
	}

	if len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil && s != "" {
			return s
		}
		var list []validationDetail
		if err := json.Unmarshal(body.Detail, &list); err == nil {
			msgs := make([]string, 0, len(list))
			for _, d := range list {
				if d.Msg != "" {
					msgs = append(msgs, d.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}

	if body.Message != "" {
		return body.Message
	}
	return fallback
}

func resourcePath(collection, id string, rest ...string) string {
	p := collection + "/" + url.PathEscape(id)
	for _, seg := range rest {
		p += "/" + seg
	}
	return p
}
