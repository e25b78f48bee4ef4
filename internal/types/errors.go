package types

import (
	"errors"
	"fmt"
)

// ErrNotCached is the expected miss when a month has no artifact yet.
var ErrNotCached = errors.New("month not cached")

// AuthError means the API rejected our credentials. Never retried.
type AuthError struct {
	Status int
	URL    string
}

func (e AuthError) Error() string {
	return fmt.Sprintf("authentication rejected (HTTP %d) by %s", e.Status, e.URL)
}

// RateLimitError means the retry budget was exhausted on HTTP 429.
type RateLimitError struct {
	Attempts int
	URL      string
}

func (e RateLimitError) Error() string {
	return fmt.Sprintf("rate limited after %d attempts at %s", e.Attempts, e.URL)
}

// APIError covers any other non-2xx response. Never retried.
type APIError struct {
	Status  int
	URL     string
	Snippet string
}

func (e APIError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("API request failed (HTTP %d) at %s", e.Status, e.URL)
	}
	return fmt.Sprintf("API request failed (HTTP %d) at %s: %s", e.Status, e.URL, e.Snippet)
}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error in field %s: %s", e.Field, e.Message)
}

type CacheError struct {
	Path string
	Err  error
}

func (e CacheError) Error() string {
	return fmt.Sprintf("cache artifact %s: %v", e.Path, e.Err)
}

func (e CacheError) Unwrap() error {
	return e.Err
}
