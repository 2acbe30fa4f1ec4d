// Package types holds the JSON shapes every devtail endpoint answers with.
package types

// SuccessEnvelope wraps a successful payload as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the body of a failed request. Message is already localized for
// the caller; Details, when present, maps form fields to localized messages.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Notice acknowledges an action that returns no resource, such as a mailed
// confirmation link or a deleted account.
type Notice struct {
	Message string `json:"message"`
}
