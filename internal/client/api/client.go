// Package api is a typed client for the TaskKeeper HTTP API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the TaskKeeper API client. It is not safe to change the token
// while requests are in flight.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetToken replaces the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	return c.token
}

// Ping checks that the server is up.
func (c *Client) Ping(ctx context.Context) error {
	var pong string
	if err := c.get(ctx, "/api/ping", &pong); err != nil {
		return fmt.Errorf("client.Ping: %w", err)
	}
	return nil
}

// Register creates an account and returns its first token.
func (c *Client) Register(ctx context.Context, username, email, password string) (*Token, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var tok Token
	if err := c.post(ctx, "/users/auth/register", body, &tok); err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &tok, nil
}

// Login exchanges a username or email and password for a token.
func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) (*Token, error) {
	body := map[string]string{"username_or_email": usernameOrEmail, "password": password}
	var tok Token
	if err := c.post(ctx, "/users/auth/login", body, &tok); err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	return &tok, nil
}

// Logout voids the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/users/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.get(ctx, "/users/auth/me", &me); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &me, nil
}

// Lists fetches one page of the caller's lists.
func (c *Client) Lists(ctx context.Context, page, perPage int) ([]List, error) {
	var lists []List
	if err := c.get(ctx, "/lists?"+pageParams(page, perPage).Encode(), &lists); err != nil {
		return nil, fmt.Errorf("client.Lists: %w", err)
	}
	return lists, nil
}

// CreateList creates a list.
func (c *Client) CreateList(ctx context.Context, req CreateListRequest) (*List, error) {
	var created List
	if err := c.post(ctx, "/lists", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateList: %w", err)
	}
	return &created, nil
}

// DeleteList deletes a list by ID.
func (c *Client) DeleteList(ctx context.Context, id int64) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/lists/"+strconv.FormatInt(id, 10), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteList: %w", err)
	}
	return nil
}

// Tasks fetches one page of the caller's tasks, optionally within one list.
func (c *Client) Tasks(ctx context.Context, listID *int64, page, perPage int) ([]Task, error) {
	params := pageParams(page, perPage)
	if listID != nil {
		params.Set("list_id", strconv.FormatInt(*listID, 10))
	}

	var tasks []Task
	if err := c.get(ctx, "/tasks?"+params.Encode(), &tasks); err != nil {
		return nil, fmt.Errorf("client.Tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	var created Task
	if err := c.post(ctx, "/tasks", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateTask: %w", err)
	}
	return &created, nil
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, id int64, req UpdateTaskRequest) (*Task, error) {
	var updated Task
	if err := c.doRequest(ctx, http.MethodPatch, "/tasks/"+strconv.FormatInt(id, 10), req, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateTask: %w", err)
	}
	return &updated, nil
}

func pageParams(page, perPage int) url.Values {
	params := url.Values{}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		params.Set("per_page", strconv.Itoa(perPage))
	}
	return params
}

// envelope is the shape of every server response.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode >= 400 {
		if decodeErr == nil && env.Message != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: env.Message}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
