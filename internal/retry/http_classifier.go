package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// HTTPStatusError is returned when a remote source answers with a non-2xx status.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTPErrorClassifier retries throttling, server-side failures and
// network hiccups. Client errors such as 404 are fatal.
type HTTPErrorClassifier struct{}

func NewHTTPErrorClassifier() *HTTPErrorClassifier {
	return &HTTPErrorClassifier{}
}

func (c *HTTPErrorClassifier) IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return true
		}
		return statusErr.StatusCode >= 500
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	return isTransientNetworkError(err) || containsTransientMessage(err)
}
