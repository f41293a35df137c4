package client

import (
	"os"
	"sync"
)

// TokenCache holds at most one access token, mirrored to a file so it
// survives process restarts the way localStorage survives page reloads.
type TokenCache struct {
	path  string
	mu    sync.Mutex
	token string
}

// NewTokenCache loads any previously persisted token from path. An empty
// path keeps the cache purely in memory.
func NewTokenCache(path string) (*TokenCache, error) {
	c := &TokenCache{path: path}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}
	c.token = string(data)
	return c, nil
}

func (c *TokenCache) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *TokenCache) Set(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	if c.path == "" {
		return nil
	}
	return os.WriteFile(c.path, []byte(token), 0o600)
}

func (c *TokenCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	if c.path == "" {
		return nil
	}
	err := os.Remove(c.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
