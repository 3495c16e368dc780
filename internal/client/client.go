// Package client talks to the admin API with a cookie session, the way the browser does.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/noah-isme/incident-admin/internal/dto"
	"github.com/noah-isme/incident-admin/internal/models"
	"github.com/noah-isme/incident-admin/internal/table"
	appErrors "github.com/noah-isme/incident-admin/pkg/errors"
)

// Client is safe for concurrent use. The session cookie lives in its jar.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its jar must be set for sessions to work.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:8080/api/v1.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) url", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Jar: jar, Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "api unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Error != nil {
			return resp.StatusCode, env.Error
		}
		if out != nil && json.Unmarshal(raw, out) == nil {
			return resp.StatusCode, nil
		}
		return resp.StatusCode, &appErrors.Error{Code: appErrors.ErrInternal.Code, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	if out == nil || len(raw) == 0 {
		return resp.StatusCode, nil
	}
	return resp.StatusCode, json.Unmarshal(raw, out)
}

// data decodes an envelope and then its data member into out.
func (c *Client) data(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var env envelope
	if _, err := c.do(ctx, method, path, body, &env); err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// Login opens a session. A failed login is a result with Success false, not an error.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	var result models.AuthResult
	if _, err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) (*models.AuthResult, error) {
	var result models.AuthResult
	if _, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Me returns the signed-in user, or nil.
func (c *Client) Me(ctx context.Context) (*models.UserInfo, error) {
	var user *models.UserInfo
	if err := c.data(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers fetches one page for the table state.
func (c *Client) ListUsers(ctx context.Context, state table.State, refresh bool) (*dto.ListUsersResponse, error) {
	var resp dto.ListUsersResponse
	if err := c.data(ctx, http.MethodPost, "/users/list", dto.NewListUsersRequest(state, refresh), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchPage adapts ListUsers to a table page.
func (c *Client) FetchPage(ctx context.Context, state table.State, refresh bool) (table.Page[models.UserInfo], error) {
	resp, err := c.ListUsers(ctx, state, refresh)
	if err != nil {
		return table.Page[models.UserInfo]{}, err
	}
	return table.Page[models.UserInfo]{
		Rows:     resp.Rows,
		RowCount: resp.RowCount,
		Served: table.State{
			Pagination: resp.Pagination,
			Sorting:    state.Sorting,
			Search:     resp.Search,
		},
	}, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*models.UserInfo, error) {
	var user models.UserInfo
	if err := c.data(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, req dto.UpdateUserRequest) (*models.UserInfo, error) {
	var user models.UserInfo
	if err := c.data(ctx, http.MethodPut, "/users/"+url.PathEscape(id), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
	return err
}

// BulkDelete deactivates every id or none.
func (c *Client) BulkDelete(ctx context.Context, ids []string) (int, error) {
	var resp dto.BulkDeleteResponse
	if err := c.data(ctx, http.MethodPost, "/users/bulk-delete", dto.BulkDeleteRequest{IDs: ids}, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}
