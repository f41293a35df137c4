// Package client is the Go counterpart of the browser's auth-state cache: it
// talks to the todo API, keeps the access token in a single persistent slot,
// attaches it to every outgoing request and discards it whenever the server
// answers 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Todo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	OwnerID   string    `json:"user_id"`
	Text      string    `json:"text"`
	Category  string    `json:"category"`
	Completed bool      `json:"completed"`
}

// TodoPatch is a partial update; nil fields are left unchanged.
type TodoPatch struct {
	Text      *string `json:"text,omitempty"`
	Category  *string `json:"category,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

type AuthResult struct {
	Token                     *string `json:"token"`
	User                      User    `json:"user"`
	EmailVerificationRequired bool    `json:"emailVerificationRequired"`
}

// APIError is any non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  *TokenCache
}

func New(baseURL string, tokens *TokenCache) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
	}
}

func (c *Client) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/signup", email, password)
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}
	if result.Token != nil {
		if err := c.tokens.Set(*result.Token); err != nil {
			return nil, err
		}
	}
	return &result, nil
}

// Logout clears the cached token even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, "/auth/logout", nil, nil)
	if clearErr := c.tokens.Clear(); clearErr != nil && err == nil {
		err = clearErr
	}
	return err
}

func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/resend-verification", map[string]string{"email": email}, nil)
}

func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var result struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &result); err != nil {
		return nil, err
	}
	return &result.User, nil
}

func (c *Client) Todos(ctx context.Context, category string) ([]Todo, error) {
	path := "/todos"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	var result struct {
		Results int    `json:"results"`
		Todos   []Todo `json:"todos"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Todos, nil
}

func (c *Client) Todo(ctx context.Context, id string) (*Todo, error) {
	var result struct {
		Todo Todo `json:"todo"`
	}
	if err := c.do(ctx, http.MethodGet, "/todos/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result.Todo, nil
}

func (c *Client) CreateTodo(ctx context.Context, text, category string) (*Todo, error) {
	body := map[string]string{"text": text}
	if category != "" {
		body["category"] = category
	}
	var result struct {
		Todo Todo `json:"todo"`
	}
	if err := c.do(ctx, http.MethodPost, "/todos", body, &result); err != nil {
		return nil, err
	}
	return &result.Todo, nil
}

func (c *Client) UpdateTodo(ctx context.Context, id string, patch TodoPatch) (*Todo, error) {
	var result struct {
		Todo Todo `json:"todo"`
	}
	if err := c.do(ctx, http.MethodPatch, "/todos/"+url.PathEscape(id), patch, &result); err != nil {
		return nil, err
	}
	return &result.Todo, nil
}

func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Any 401 invalidates the cached token, even when the rejection had
	// nothing to do with it. Expiry simply forces a fresh login.
	if resp.StatusCode == http.StatusUnauthorized {
		if err := c.tokens.Clear(); err != nil {
			return err
		}
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		var failure struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&failure); err == nil {
			apiErr.Message = failure.Message
		}
		return apiErr
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}
