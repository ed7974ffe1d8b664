// Package transport is the http side of scraping: fetching raw documents with
// the headers, cookies, pacing and user agents the blog platform expects.
// Nothing in here retries, callers decide that.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNetwork wraps any failure to get a response out of the remote.
	ErrNetwork = errors.New("network error")
	// ErrTimeout wraps failures caused by a deadline, either the context's or the client's.
	ErrTimeout = errors.New("timeout")
	// ErrCanceled wraps failures caused by the caller canceling the context.
	ErrCanceled = errors.New("canceled")
)

// Response is a fetched document.
type Response struct {
	Status int
	Body   []byte
	// URL is the final url of the response after any http level redirects.
	URL string
}

// OK reports whether Status is 2xx.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Transport fetches a url.
type Transport interface {
	Fetch(ctx context.Context, url string) (Response, error)
}

// Func adapts a function into a Transport.
type Func func(ctx context.Context, url string) (Response, error)

func (f Func) Fetch(ctx context.Context, url string) (Response, error) {
	return f(ctx, url)
}

// Classify wraps err with the failure kind it belongs to so callers can use
// errors.Is with ErrTimeout, ErrCanceled or ErrNetwork.
func Classify(ctx context.Context, url string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrCanceled) || errors.Is(err, ErrNetwork) {
		return err
	}

	kind := ErrNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		kind = ErrCanceled
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		kind = ErrTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = ErrTimeout
	}
	return fmt.Errorf("%w: fetch %s: %w", kind, url, err)
}
