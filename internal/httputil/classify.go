package httputil

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxErrBody bounds how much of an error response ends up in logs and error
// messages.
const maxErrBody = 200

// ErrAuthentication marks an HTTP 401 from any endpoint. Fatal, never retried.
var ErrAuthentication = errors.New("authentication failed (HTTP 401)")

// StatusError is a non-200, non-401 response, carrying the status code and a
// truncated body for diagnostics.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Do executes the request and classifies the response. On 200 the response is
// returned with its body unread; the caller owns closing it. Any other status
// drains the body and returns ErrAuthentication (401) or a *StatusError.
// There is no retry loop: every call runs against a bounded timeout and the
// caller decides whether the failure is fatal.
func Do(client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusOK {
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
	resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: %s", ErrAuthentication, string(body))
	}
	return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
}
