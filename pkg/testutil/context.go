package testutil

import (
	"net/http"
	"time"

	"briq/pkg/requestcontext"
)

// WithActor marks the request as sent by address, as RequireAuth would after
// validating a bearer token.
func WithActor(req *http.Request, address string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), address))
}

// WithRequestTime pins the clock the services read for this request.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
