package binder

import (
	"net/http"
)

// Query returns a binder that populates v from URL query parameters using
// the `query` struct tag. Untagged exported fields match their lowercased
// name; a tag of "-" skips the field.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindToStruct(v, "query", r.URL.Query(), ErrFailedToParseQuery)
	}
}
