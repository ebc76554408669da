package apperr

import "fmt"

// Status classifies an Error independently of any transport.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusValidationFailed
	StatusBadRequest
	StatusNotFound
	StatusConflict
	StatusBadGateway
	StatusServiceUnavailable
	StatusInternalServerError
)

// Error is the error type used across the panel. Every terminal workflow
// outcome carries exactly one Error; the parent holds the underlying cause.
type Error struct {
	parent error
	status Status
	code   string
	msg    string
}

// New initializes an Error.
//
// code example: UPLOAD_FAILED
func New(status Status, code, msg string) Error {
	return Error{
		status: status,
		code:   code,
		msg:    msg,
	}
}

func (e Error) Error() string {
	if e.parent != nil {
		return fmt.Sprintf("Code=%s, Msg=%s, Parent=(%v)", e.code, e.msg, e.parent)
	}
	return fmt.Sprintf("Code=%s, Msg=%s", e.code, e.msg)
}

// Wrap attaches an underlying error to a predefined Error.
func (e Error) Wrap(parent error) Error {
	if parent == nil {
		return e
	}
	e.parent = parent
	return e
}

func (e *Error) Unwrap() error {
	return e.parent
}

// Parent returns the underlying error, if any.
func (e Error) Parent() error {
	return e.parent
}

func (e Error) Status() Status {
	return e.status
}

func (e Error) Code() string {
	return e.code
}

func (e Error) Msg() string {
	return e.msg
}

// Workflow error taxonomy. Each mutating operation terminates with success
// or exactly one of these.
var (
	ErrValidationFailed = New(StatusValidationFailed, "VALIDATION_FAILED", "product fields failed validation")
	ErrCreationFailed   = New(StatusBadGateway, "CREATION_FAILED", "could not create product")
	ErrUploadFailed     = New(StatusBadGateway, "UPLOAD_FAILED", "could not upload product images")
	ErrUpdateFailed     = New(StatusBadGateway, "UPDATE_FAILED", "could not update product")
	ErrDeletionFailed   = New(StatusBadGateway, "DELETION_FAILED", "could not delete product")
	ErrImageDeletion    = New(StatusBadGateway, "IMAGE_DELETION_FAILED", "could not delete product image")

	ErrProductNotFound = New(StatusNotFound, "PRODUCT_NOT_FOUND", "product not found")
	ErrImageNotFound   = New(StatusNotFound, "IMAGE_NOT_FOUND", "product image not found")

	ErrConfirmationRequired = New(StatusBadRequest, "CONFIRMATION_REQUIRED", "deletion must be explicitly confirmed")
	ErrInvalidImageID       = New(StatusBadRequest, "INVALID_IMAGE_ID", "image id must be a valid UUID")
	ErrMalformedRequest     = New(StatusBadRequest, "MALFORMED_REQUEST", "request body could not be parsed")

	ErrBackendUnavailable = New(StatusServiceUnavailable, "BACKEND_UNAVAILABLE", "catalog backend is unavailable")
)
