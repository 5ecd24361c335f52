package billing

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/authorityengine/billing/pkg/binder"
	"github.com/authorityengine/billing/pkg/catalog"
	"github.com/authorityengine/billing/pkg/checkout"
	"github.com/authorityengine/billing/pkg/subscription"
	"github.com/authorityengine/billing/pkg/usage"
)

// jsonResponse is the envelope every endpoint answers with.
type jsonResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *errorDetail `json:"error,omitempty"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonResponse{Data: data})
}

// respondError maps domain errors onto HTTP statuses. Unknown errors stay
// opaque 500s so internals never leak to the client.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	message := "internal error"

	switch {
	case errors.Is(err, checkout.ErrIntentNotFound),
		errors.Is(err, subscription.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, checkout.ErrInvalidTier),
		errors.Is(err, usage.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrUnknownTier),
		errors.Is(err, catalog.ErrUnknownResource),
		errors.Is(err, catalog.ErrUnknownCurrency),
		errors.Is(err, catalog.ErrUnknownCycle),
		errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrFailedToParseQuery),
		errors.Is(err, binder.ErrMissingContentType),
		errors.Is(err, binder.ErrUnsupportedMediaType):
		status, code, message = http.StatusBadRequest, "bad_request", err.Error()
	case errors.Is(err, checkout.ErrDowngradeNotAllowed),
		errors.Is(err, subscription.ErrNoCancelledSubscription):
		status, code, message = http.StatusConflict, "invalid_state", err.Error()
	case errors.Is(err, checkout.ErrProvider):
		status, code, message = http.StatusBadGateway, "payment_provider_error", "payment provider unavailable"
	case errors.Is(err, errUnauthenticated):
		status, code, message = http.StatusUnauthorized, "unauthenticated", err.Error()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonResponse{Error: &errorDetail{Code: code, Message: message}})
}
