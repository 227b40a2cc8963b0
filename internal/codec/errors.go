// Package codec translates canonical pack errors into host-facing
// messages and HTTP responses.
package codec

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tjfontaine/promptpack/internal/domain"
)

// quotaMessage replaces the remote API's terse quota error, which is not
// actionable for a document author.
const quotaMessage = "The API key's usage quota has been exhausted. Check the plan and billing details for the account that issued the key."

// Translate decides whether a failed call surfaces a user-facing message
// or propagates unchanged for generic rendering.
//
// Rules, in order:
//   - validation failures are always user-facing
//   - a remote 400 with a non-empty message surfaces that message verbatim
//   - a remote 429 carrying the insufficient_quota code surfaces a canned
//     explanation (keyed on the parsed body's code field, not the status
//     alone, so ordinary rate limiting still propagates)
//   - everything else is returned as-is
func Translate(err error) error {
	if err == nil {
		return nil
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return &domain.UserVisibleError{
			Message: verr.Error(),
			Status:  http.StatusBadRequest,
			Err:     err,
		}
	}

	var rerr *domain.RemoteError
	if errors.As(err, &rerr) {
		switch {
		case rerr.Status == http.StatusBadRequest && rerr.Message != "":
			return &domain.UserVisibleError{
				Message: rerr.Message,
				Status:  http.StatusBadRequest,
				Err:     err,
			}
		case rerr.Status == http.StatusTooManyRequests && rerr.Code == "insufficient_quota":
			return &domain.UserVisibleError{
				Message: quotaMessage,
				Status:  http.StatusTooManyRequests,
				Err:     err,
			}
		}
	}

	return err
}

// WriteError renders an error as a JSON response. User-visible errors keep
// their message and suggested status; everything else gets a generic body
// so remote details never leak into the surface by accident.
func WriteError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "formula execution failed"

	var uerr *domain.UserVisibleError
	var nerr *domain.NetworkError
	var rerr *domain.RemoteError

	switch {
	case errors.As(err, &uerr):
		status = uerr.HTTPStatusCode()
		message = uerr.Message
	case errors.As(err, &nerr), errors.As(err, &rerr):
		status = http.StatusBadGateway
		message = "upstream request failed"
	}

	body, _ := json.Marshal(map[string]any{
		"error": map[string]string{"message": message},
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
