package service

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Value    any    `json:"value"`
	Msg      string `json:"msg"`
	Param    string `json:"param,omitempty"`
	Location string `json:"location,omitempty"`
	// Redacted keeps Value out of the response (passwords).
	Redacted bool `json:"-"`
}

// MarshalJSON always emits value for field-level errors, including "".
// Errors not tied to a field (Param empty) and redacted ones carry only msg.
func (f FieldError) MarshalJSON() ([]byte, error) {
	type plain struct {
		Msg      string `json:"msg"`
		Param    string `json:"param,omitempty"`
		Location string `json:"location,omitempty"`
	}
	p := plain{Msg: f.Msg, Param: f.Param, Location: f.Location}
	if f.Param == "" || f.Redacted {
		return json.Marshal(p)
	}
	return json.Marshal(struct {
		Value any `json:"value"`
		plain
	}{f.Value, p})
}

// ValidationError 输入不合法，对应 400
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Msg
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// NotFoundError 资源不存在（含非法 id），对应 404
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// AuthorizationError 调用者无权执行该操作，对应 401
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

// StoreError wraps an unexpected persistence failure. Its detail is for logs only.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

var (
	ErrPostNotFound    = &NotFoundError{Msg: "Post not found."}
	ErrCommentNotFound = &NotFoundError{Msg: "Comment does not exist."}
	ErrUserNotFound    = &NotFoundError{Msg: "User not found."}

	ErrNotPostOwner    = &AuthorizationError{Msg: "User not authorized to perform this action."}
	ErrNotCommentOwner = &AuthorizationError{Msg: "User not authorized."}
	ErrTokenInvalid    = &AuthorizationError{Msg: "Token is not valid."}

	ErrUserExists         = &ValidationError{Fields: []FieldError{{Msg: "User already exists."}}}
	ErrInvalidCredentials = &ValidationError{Fields: []FieldError{{Msg: "Invalid credentials."}}}
)

func textRequired(value string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{
		Value:    value,
		Msg:      "Text is required.",
		Param:    "text",
		Location: "body",
	}}}
}
