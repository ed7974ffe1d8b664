package naverblog

import (
	"errors"
	"fmt"
)

var (
	ErrTooManyRedirects  = errors.New("too many redirects")
	ErrContentNotFound   = errors.New("content not found")
	ErrVideoLookupFailed = errors.New("video lookup failed")
	ErrInvalidKey        = errors.New("invalid post key")
)

// StatusError is returned when a fetch succeeds with a non 2xx status.
type StatusError struct {
	Url    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.Url)
}
