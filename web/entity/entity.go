// Package entity defines the JSON envelope and error type used by the web layer.
package entity

import "net/http"

// Msg is the standard success envelope. Every response carries the ok flag;
// the remaining fields are set per endpoint.
type Msg struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	User    any    `json:"user,omitempty"`
	Users   any    `json:"users,omitempty"`
	Data    any    `json:"data,omitempty"`
	Id      int    `json:"id,omitempty"`
}

// ApiError is an error with an HTTP status and the wire fields of the error
// envelope. It travels through service code as a plain error and is mapped
// onto the response by the controller helpers.
type ApiError struct {
	Ok      bool   `json:"ok"`
	Status  int    `json:"statusCode"`
	Code    string `json:"code,omitempty"`
	Err     string `json:"error,omitempty"`
	Message string `json:"message"`
}

func (e *ApiError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status, defaulting to 500 when unset.
func (e *ApiError) StatusCode() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

func NewApiError(status int, message string) *ApiError {
	return &ApiError{Status: status, Message: message}
}

func NewApiErrorCode(status int, code, message string) *ApiError {
	return &ApiError{Status: status, Code: code, Message: message}
}
