// Package response defines the JSON payloads returned by the HTTP API.
// Every failure carries a single human-readable error string.
package response

import "fmt"

// User-visible messages. The alias messages mirror the submission form copy.
const (
	MsgEmptyRequestBody   = "Request body is empty. Please provide necessary data."
	MsgInvalidRequestBody = "Invalid request body."
	MsgInvalidURL         = "Invalid URL"
	MsgInvalidAliasFormat = "Invalid alias format. Only letters, numbers, dashes (-), and underscores (_) are allowed."
	MsgAliasTaken         = "Alias is already taken"
	MsgShortURLNotFound   = "Short URL not found"
	MsgFailedToSaveURL    = "Failed to save URL"
	MsgMissingUserID      = "Missing user ID"
	MsgInvalidURLID       = "Invalid URL ID"
	MsgServerError        = "An internal server error occurred. Please try again later."
)

// ErrorResponse is the payload returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func Error(msg string) ErrorResponse {
	return ErrorResponse{Error: msg}
}

// InvalidAliasLength composes the alias length error from the configured bounds.
func InvalidAliasLength(min, max int) ErrorResponse {
	return ErrorResponse{Error: fmt.Sprintf("Alias must be between %d and %d characters.", min, max)}
}

// RateLimitExceeded composes the throttling error with the number of seconds
// until the caller's window resets.
func RateLimitExceeded(retryAfter int64) ErrorResponse {
	return ErrorResponse{Error: fmt.Sprintf("Rate limit exceeded. Try again in %ds.", retryAfter)}
}

// MessageResponse is the payload returned for successful requests that carry
// no resource data.
type MessageResponse struct {
	Message string `json:"message"`
}

func Message(msg string) MessageResponse {
	return MessageResponse{Message: msg}
}
