package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// StatusError is returned for any non-2xx upstream response.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http %d: %s", e.Service, e.StatusCode, e.Body)
}

func (e *StatusError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// StatusCodeOf returns the upstream status carried by err, or 0.
func StatusCodeOf(err error) int {
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return 0
}

// Request describes a single JSON round trip.
type Request struct {
	Service string
	Method  string
	URL     string
	Headers map[string]string
	Body    any
}

// DoJSON sends one request and returns the raw response body. A non-2xx status
// yields *StatusError together with the body read so far.
func DoJSON(ctx context.Context, client *http.Client, r Request) ([]byte, error) {
	var buf bytes.Buffer
	if r.Body != nil {
		if err := json.NewEncoder(&buf).Encode(r.Body); err != nil {
			return nil, err
		}
	}
	method := r.Method
	if method == "" {
		method = http.MethodPost
	}
	req, err := http.NewRequestWithContext(ctx, method, r.URL, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &StatusError{Service: r.Service, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// DecodeJSON unmarshals raw into out, keeping the raw payload in the error.
func DecodeJSON(service string, raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s decode error: %w; raw=%s", service, err, string(raw))
	}
	return nil
}
