package apierr

import (
	"errors"
	"net/http"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/krittapak/catalog-panel/internal/apperr"
	"github.com/krittapak/catalog-panel/pkg/validator"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the error response for the panel API.
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details *[]FieldError `json:"details,omitempty"`

	// StatusCode is the status code for the error response.
	StatusCode int `json:"-"`
}

func New(err error) ErrorResponse {
	return errorToErrorResponse(err)
}

var InternalServerErr = ErrorResponse{
	Code:       "internalServerError",
	Message:    "an unknown error occurred",
	StatusCode: http.StatusInternalServerError,
}

func errorToErrorResponse(err error) ErrorResponse {
	var aErr apperr.Error
	if errors.As(err, &aErr) {
		res := ErrorResponse{
			Code:       aErr.Code(),
			Message:    aErr.Msg(),
			StatusCode: StatusToHTTPStatus(aErr.Status()),
		}

		// validation failures carry per-field details when the cause is a
		// struct validation error
		var validationErrs govalidator.ValidationErrors
		if errors.As(aErr.Parent(), &validationErrs) {
			res.Details = fieldErrors(validationErrs)
		}

		return res
	}

	var validationErrs govalidator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return ErrorResponse{
			Code:       "validationError",
			Message:    "validation error",
			Details:    fieldErrors(validationErrs),
			StatusCode: http.StatusBadRequest,
		}
	}

	return InternalServerErr
}

func fieldErrors(validationErrs govalidator.ValidationErrors) *[]FieldError {
	details := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		details[i] = FieldError{
			Field:   fe.Field(),
			Message: validator.ValidationErrorMessage(fe),
		}
	}
	return &details
}

func StatusToHTTPStatus(status apperr.Status) int {
	switch status {
	case apperr.StatusValidationFailed, apperr.StatusBadRequest:
		return http.StatusBadRequest
	case apperr.StatusNotFound:
		return http.StatusNotFound
	case apperr.StatusConflict:
		return http.StatusConflict
	case apperr.StatusBadGateway:
		return http.StatusBadGateway
	case apperr.StatusServiceUnavailable:
		return http.StatusServiceUnavailable
	case apperr.StatusUnknown, apperr.StatusInternalServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
