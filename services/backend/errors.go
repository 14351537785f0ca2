package backendsvc

import "fmt"

// RequestError is a normalized backend/transport failure carrying the
// human-readable message extracted from the response body, or the transport
// message when the body is absent.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}
