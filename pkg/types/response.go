// Package types holds the wire envelopes shared by every API response.
package types

// SuccessEnvelope wraps successful response bodies under a data key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the serialized form of a request failure.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under an error key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
