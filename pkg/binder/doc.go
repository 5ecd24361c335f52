// Package binder parses HTTP request input into typed structs. Two
// binders cover the billing API surface: JSON for request bodies and
// Query for URL query strings.
//
//	type consumeRequest struct {
//		Resource string `json:"resource"`
//		N        int64  `json:"n"`
//	}
//
//	var req consumeRequest
//	if err := binder.JSON()(r, &req); err != nil { ... }
//
// Query binding uses the `query` struct tag and supports strings,
// numbers, bools, and slices (repeated or comma-separated parameters).
package binder
