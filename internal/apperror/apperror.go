// Package apperror defines the error taxonomy surfaced by the HTTP layer.
// Client-facing messages are fixed strings; causes are kept for logging only.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation Code = "VALIDATION_FAILED"
	CodeNotFound   Code = "NOT_FOUND"
	CodeStorage    Code = "STORAGE_ERROR"
	CodeGeneration Code = "GENERATION_ERROR"
	CodeInternal   Code = "INTERNAL_ERROR"
)

// Fixed client messages.
const (
	MsgEmptyMessage   = "메시지를 입력해주세요."
	MsgInvalidInput   = "잘못된 입력값입니다."
	MsgRecipeNotFound = "해당 레시피를 찾을 수 없습니다."
	MsgStorage        = "데이터 처리 중 오류가 발생했습니다."
	MsgGeneration     = "AI 응답 생성 중 오류가 발생했습니다."
	MsgInternal       = "서버 내부 오류가 발생했습니다."
)

// AppError carries a code, a client-safe message and an optional cause.
type AppError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the code to a response status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeGeneration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Validation(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func InvalidInput(cause error) *AppError {
	return &AppError{Code: CodeValidation, Message: MsgInvalidInput, Cause: cause}
}

func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func Storage(cause error) *AppError {
	return &AppError{Code: CodeStorage, Message: MsgStorage, Cause: cause}
}

func Generation(cause error) *AppError {
	return &AppError{Code: CodeGeneration, Message: MsgGeneration, Cause: cause}
}

func Internal(cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: MsgInternal, Cause: cause}
}

// From returns err as an *AppError, wrapping unknown errors as internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsCode reports whether any error in err's chain is an AppError with code.
func IsCode(err error, code Code) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
