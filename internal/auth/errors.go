package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// CodeNetwork marks an Error raised before the server answered.
const CodeNetwork = "network_error"

// Error is a failure reported by, or while reaching, the auth service.
// Message is meant to be shown to the user as is.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Retryable reports whether the failure may clear up on its own (network, 5xx).
func (e *Error) Retryable() bool {
	return e.Code == CodeNetwork || e.Status >= http.StatusInternalServerError
}

func networkError(err error) *Error {
	return &Error{Code: CodeNetwork, Message: err.Error()}
}

// errorBody covers the shapes GoTrue has used for error responses.
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func decodeError(status int, body []byte) *Error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	e := &Error{Status: status, Code: eb.ErrorCode}
	if e.Code == "" {
		e.Code = eb.Error
	}
	if e.Code == "" {
		var s string
		if json.Unmarshal(eb.Code, &s) == nil {
			e.Code = s
		}
	}

	for _, m := range []string{eb.Msg, eb.Message, eb.ErrorDescription, eb.Error} {
		if strings.TrimSpace(m) != "" {
			e.Message = m
			break
		}
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("auth service returned %d %s", status, http.StatusText(status))
	}
	return e
}
