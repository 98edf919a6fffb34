package errcode

import (
	"errors"
	"fmt"
	"net/http"
)

// Code 错误码约定：
// - 0：无错误
// - 4xxx：调用方可修正的错误，后三位与 HTTP 状态码对应
// - 5xxx：系统错误
type Code int

const (
	OK                 Code = 0
	InvalidInput       Code = 4000
	InvalidCredentials Code = 4010
	Unauthorized       Code = 4011
	NotFound           Code = 4040
	Conflict           Code = 4090
	TokenInvalid       Code = 4220
	Internal           Code = 5000
)

// HTTPStatus 返回错误码对应的 HTTP 状态码。
func (c Code) HTTPStatus() int {
	switch c {
	case OK:
		return http.StatusOK
	case InvalidInput:
		return http.StatusBadRequest
	case InvalidCredentials, Unauthorized:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case TokenInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (c Code) String() string {
	switch c {
	case OK:
		return "ok"
	case InvalidInput:
		return "invalid_input"
	case InvalidCredentials:
		return "invalid_credentials"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case TokenInvalid:
		return "token_invalid"
	default:
		return "internal"
	}
}

// Error 是业务层返回的错误，Message 可以直接展示给调用方。
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New 构造不带底层原因的错误。
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf 与 New 相同，但支持格式化消息。
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap 保留底层错误，便于日志与 errors.Is 追踪。
func Wrap(code Code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf 提取错误码；非 *Error 的错误视为 Internal。
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Internal
}

// Has 判断错误链中是否存在指定错误码。
func Has(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
