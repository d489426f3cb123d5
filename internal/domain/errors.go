package domain

import "errors"

// Router failure taxonomy. Every failure is reported only to the issuing
// connection as an errorEvent; none may crash the server or leave a partial
// registry mutation behind.
var (
	ErrNotLoggedIn        = errors.New("connection has no session")
	ErrAlreadyLoggedIn    = errors.New("connection already logged in")
	ErrMessageNotFound    = errors.New("message index not found")
	ErrRecipientNotFound  = errors.New("no connection matches recipient")
	ErrStorageWriteFailed = errors.New("file storage write failed")
	ErrMalformedPayload   = errors.New("malformed payload")
)

// ErrorKind maps a router error to its stable wire kind string.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrNotLoggedIn):
		return "NotLoggedIn"
	case errors.Is(err, ErrAlreadyLoggedIn):
		return "AlreadyLoggedIn"
	case errors.Is(err, ErrMessageNotFound):
		return "MessageNotFound"
	case errors.Is(err, ErrRecipientNotFound):
		return "RecipientNotFound"
	case errors.Is(err, ErrStorageWriteFailed):
		return "StorageWriteFailed"
	case errors.Is(err, ErrMalformedPayload):
		return "MalformedPayload"
	default:
		return "InternalError"
	}
}
