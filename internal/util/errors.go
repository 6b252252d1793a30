package util

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindNotFound       ErrorKind = "NOT_FOUND"
	KindValidation     ErrorKind = "VALIDATION_ERROR"
	KindAuthorization  ErrorKind = "AUTHORIZATION_ERROR"
	KindAuthentication ErrorKind = "AUTHENTICATION_ERROR"
	KindAIEvaluation   ErrorKind = "AI_EVALUATION_ERROR"
	KindProcessing     ErrorKind = "PROCESSING_ERROR"
)

var kindStatus = map[ErrorKind]int{
	KindNotFound:       http.StatusNotFound,
	KindValidation:     http.StatusBadRequest,
	KindAuthorization:  http.StatusForbidden,
	KindAuthentication: http.StatusUnauthorized,
	KindAIEvaluation:   http.StatusServiceUnavailable,
	KindProcessing:     http.StatusInternalServerError,
}

// AppError 业务错误，携带错误类型和可返回给前端的详情
type AppError struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) Status() int {
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func NewNotFound(resource string, id any) *AppError {
	return &AppError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s não encontrado", resource),
		Details: map[string]any{"resource": resource, "id": fmt.Sprint(id)},
	}
}

func NewValidation(message, field string) *AppError {
	details := map[string]any{}
	if field != "" {
		details["field"] = field
	}
	return &AppError{Kind: KindValidation, Message: message, Details: details}
}

func NewAuthorization(message string) *AppError {
	return &AppError{Kind: KindAuthorization, Message: message}
}

func NewAuthentication(message string) *AppError {
	return &AppError{Kind: KindAuthentication, Message: message}
}

func NewAIEvaluation(err error) *AppError {
	return &AppError{
		Kind:    KindAIEvaluation,
		Message: "Falha ao avaliar submissão com IA",
		Details: map[string]any{},
		Err:     err,
	}
}

func NewProcessing(operation string, err error) *AppError {
	return &AppError{
		Kind:    KindProcessing,
		Message: fmt.Sprintf("Erro ao processar %s", operation),
		Details: map[string]any{"operation": operation},
		Err:     err,
	}
}

// With 追加一项详情
func (e *AppError) With(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// HTTPStatus 非 AppError 一律按 500 处理
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status()
	}
	return http.StatusInternalServerError
}

func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
