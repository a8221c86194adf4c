package errors

import (
	"net/http"

	"github.com/eventhive/eh-registration/pkg/status"
)

// AppError carries the HTTP status code and the application status code of a
// failure so handlers can destructure it straight into a response envelope.
type AppError struct {
	HTTPStatusCode int
	Status         string
	Message        string
}

func (e *AppError) Error() string {
	return e.Message
}

func New(httpStatusCode int, appStatus string, message string) error {
	return &AppError{
		HTTPStatusCode: httpStatusCode,
		Status:         appStatus,
		Message:        message,
	}
}

// Destruct resolves any error into an AppError. Errors that were not built by
// this package collapse into an internal server error.
func Destruct(err error) *AppError {
	ae, ok := err.(*AppError)
	if !ok {
		return &AppError{
			HTTPStatusCode: http.StatusInternalServerError,
			Status:         status.INTERNAL_SERVER_ERROR,
			Message:        err.Error(),
		}
	}

	return ae
}
