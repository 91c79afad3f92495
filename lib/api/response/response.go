package response

import (
	"errors"
	"net/http"
	"vetgate/entity"
	"vetgate/lib/clock"
)

const genericTokenMessage = "Invalid or expired code"

type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Success       bool        `json:"success" validate:"required"`
	StatusMessage string      `json:"status_message"`
	Timestamp     string      `json:"timestamp"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
		Timestamp:     clock.Now(),
	}
}

func Error(message string) Response {
	return Response{
		Success:       false,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}

// Reject maps a manager error to an HTTP status and response envelope.
// NotFound, Expired and Consumed collapse into one generic message so a
// caller cannot probe which codes exist or when they lapsed. Conflict and
// validation failures are user actionable and surfaced as given; everything
// else is a dependency failure and stays behind a generic internal error.
func Reject(err error) (int, Response) {
	switch {
	case entity.IsInvalidToken(err):
		return http.StatusBadRequest, Error(genericTokenMessage)
	case errors.Is(err, entity.ErrConflict):
		return http.StatusConflict, Error(err.Error())
	case errors.Is(err, entity.ErrValidation):
		return http.StatusBadRequest, Error(err.Error())
	default:
		return http.StatusInternalServerError, Error("Internal error")
	}
}
