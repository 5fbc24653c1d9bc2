package sdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Existing shipctl errors
var (
	ErrUnknownError          = Error{ID: 1, Status: http.StatusInternalServerError}
	ErrWrongRequest          = Error{ID: 2, Status: http.StatusBadRequest}
	ErrForbidden             = Error{ID: 3, Status: http.StatusForbidden}
	ErrNotFound              = Error{ID: 4, Status: http.StatusNotFound}
	ErrInvalidData           = Error{ID: 5, Status: http.StatusBadRequest}
	ErrUnauthorized          = Error{ID: 6, Status: http.StatusUnauthorized}
	ErrMissingTriggerData    = Error{ID: 7, Status: http.StatusBadRequest}
	ErrSourceNotConfigured   = Error{ID: 8, Status: http.StatusBadRequest}
	ErrInvalidTemplate       = Error{ID: 9, Status: http.StatusBadRequest}
	ErrNoSelectedWorkflow    = Error{ID: 10, Status: http.StatusBadRequest}
	ErrRequestAborted        = Error{ID: 11, Status: http.StatusRequestTimeout}
	ErrEmptyTriggerResponse  = Error{ID: 12, Status: http.StatusNoContent}
	ErrNodeNotFound          = Error{ID: 13, Status: http.StatusNotFound}
	ErrInvalidModeTransition = Error{ID: 14, Status: http.StatusConflict}
)

var errorsAmericanEnglish = map[int]string{
	ErrUnknownError.ID:          "internal server error",
	ErrWrongRequest.ID:          "wrong request",
	ErrForbidden.ID:             "forbidden",
	ErrNotFound.ID:              "resource not found",
	ErrInvalidData.ID:           "given data is invalid",
	ErrUnauthorized.ID:          "not authenticated",
	ErrMissingTriggerData.ID:    "missing data to trigger the pipeline",
	ErrSourceNotConfigured.ID:   "source is not configured",
	ErrInvalidTemplate.ID:       "deployment template is invalid",
	ErrNoSelectedWorkflow.ID:    "no workflow selected",
	ErrRequestAborted.ID:        "request aborted",
	ErrEmptyTriggerResponse.ID:  "empty response from server",
	ErrNodeNotFound.ID:          "node not found in workflow",
	ErrInvalidModeTransition.ID: "invalid transition",
}

// Error type.
type Error struct {
	ID        int    `json:"id"`
	Status    int    `json:"-"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	From      string `json:"from,omitempty"`
	root      error
}

func (e Error) String() string {
	msg := e.Message
	if msg == "" {
		msg = errorsAmericanEnglish[e.ID]
	}
	if e.From != "" {
		return fmt.Sprintf("%s (from: %s)", msg, e.From)
	}
	return msg
}

func (e Error) Error() string {
	return e.String()
}

// Unwrap returns the root error if any. Error does not implement causer so
// errors.Cause stops on the typed error.
func (e Error) Unwrap() error {
	return e.root
}

// NewError returns a new error from a typed one, root error is kept as cause.
func NewError(target Error, root error) error {
	e := target
	if e.Message == "" {
		e.Message = errorsAmericanEnglish[e.ID]
	}
	e.root = root
	return errors.WithStack(e)
}

// NewErrorFrom returns a copy of the given typed error with a detailed message in From.
// If err is not a typed error, ErrUnknownError is used.
func NewErrorFrom(err error, from string, args ...interface{}) error {
	var e Error
	if sdkErr, ok := errors.Cause(err).(Error); ok {
		e = sdkErr
	} else {
		e = ErrUnknownError
		e.root = err
	}
	if e.Message == "" {
		e.Message = errorsAmericanEnglish[e.ID]
	}
	e.From = fmt.Sprintf(from, args...)
	return errors.WithStack(e)
}

// WrapError adds a message to the error and keeps the stack.
func WrapError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, format, args...)
}

// WithStack adds a stack trace to the error if not already set.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(interface{ StackTrace() errors.StackTrace }); ok {
		return err
	}
	return errors.WithStack(err)
}

// Cause returns the deepest wrapped error.
func Cause(err error) error {
	return errors.Cause(err)
}

// ErrorIs returns true if the error matches the typed error (by id) or its message.
func ErrorIs(err error, t Error) bool {
	if err == nil {
		return false
	}
	if e, ok := errors.Cause(err).(Error); ok {
		return e.ID == t.ID
	}
	if apiErr, ok := errors.Cause(err).(*APIError); ok {
		return apiErr.Code == t.Status
	}
	return err.Error() == t.String()
}

// APIError is the decoded error envelope returned by the API server.
type APIError struct {
	Code   int            `json:"code"`
	Status string         `json:"status"`
	Errors []APIErrorItem `json:"errors"`
}

// APIErrorItem is one error of the server envelope.
type APIErrorItem struct {
	Code            string `json:"code"`
	InternalMessage string `json:"internalMessage"`
	UserMessage     string `json:"userMessage"`
}

func (e *APIError) Error() string {
	if msg := e.UserMessage(); msg != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Code, msg)
	}
	return fmt.Sprintf("HTTP %d", e.Code)
}

// UserMessage joins the user facing messages of the envelope.
func (e *APIError) UserMessage() string {
	var msgs []string
	for _, it := range e.Errors {
		if it.UserMessage != "" {
			msgs = append(msgs, it.UserMessage)
		} else if it.InternalMessage != "" {
			msgs = append(msgs, it.InternalMessage)
		}
	}
	return strings.Join(msgs, ", ")
}

// IsForbidden reports whether err is an authorization failure from the API.
func IsForbidden(err error) bool {
	if err == nil {
		return false
	}
	if apiErr, ok := errors.Cause(err).(*APIError); ok {
		return apiErr.Code == http.StatusForbidden
	}
	if e, ok := errors.Cause(err).(Error); ok {
		return e.Status == http.StatusForbidden
	}
	return false
}

// UserMessage extracts the message to display to the user for any error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch e := errors.Cause(err).(type) {
	case *APIError:
		if msg := e.UserMessage(); msg != "" {
			return msg
		}
		return e.Error()
	case Error:
		return e.String()
	}
	return err.Error()
}

// DecodeError returns an *APIError if data is a server error envelope, nil otherwise.
func DecodeError(data []byte) error {
	var e APIError
	if err := json.Unmarshal(data, &e); err != nil {
		return nil
	}
	if e.Code == 0 || len(e.Errors) == 0 {
		return nil
	}
	return &e
}
